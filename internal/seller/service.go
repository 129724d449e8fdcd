// Package seller composes the upstream clients and the pricing, trend,
// category and margin packages into the operations the API serves.
package seller

import (
	"context"
	"sync"

	"github.com/guarzo/sellermargin/internal/category"
	"github.com/guarzo/sellermargin/internal/errx"
	"github.com/guarzo/sellermargin/internal/logx"
	"github.com/guarzo/sellermargin/internal/margin"
	"github.com/guarzo/sellermargin/internal/model"
	"github.com/guarzo/sellermargin/internal/pricing"
	"github.com/guarzo/sellermargin/internal/trend"
	"github.com/guarzo/sellermargin/internal/upstream"
)

// Page sizes used by the composite lookups.
const (
	statsDisplay    = 10
	categoryDisplay = 5
	compareDisplay  = 20
	compareTopItems = 5
)

// NaverAPI is the shopping search and DataLab provider.
type NaverAPI interface {
	Available() bool
	SearchShop(ctx context.Context, query string, display int) (*upstream.ShopResult, error)
	SearchTrend(ctx context.Context, query string) (*model.TrendSeries, error)
	ShoppingAudience(ctx context.Context, categoryCode, keyword string) (*upstream.AudienceRatios, error)
}

// WholesaleAPI is the wholesale catalog provider.
type WholesaleAPI interface {
	SearchItems(ctx context.Context, apiKey, query string, page int) (*upstream.WholesalePage, error)
}

// MessengerAPI relays messages to the caller.
type MessengerAPI interface {
	SendMemo(ctx context.Context, accessToken string, msg model.Message) error
}

// Service implements the seller operations. It holds only read-only
// collaborators and is safe for concurrent use.
type Service struct {
	naver     NaverAPI
	wholesale WholesaleAPI
	messenger MessengerAPI
	seasons   *SeasonRanker

	compare margin.Calculator
	analyze margin.Calculator
}

// Deps are the collaborators of a Service.
type Deps struct {
	Naver     NaverAPI
	Wholesale WholesaleAPI
	Messenger MessengerAPI
	Seasons   *SeasonRanker
}

// NewService creates a new Service
func NewService(deps Deps) *Service {
	return &Service{
		naver:     deps.Naver,
		wholesale: deps.Wholesale,
		messenger: deps.Messenger,
		seasons:   deps.Seasons,
		compare:   margin.NewCalculator(margin.Markets8()),
		analyze:   margin.NewCalculator(margin.Legacy3()),
	}
}

// Search looks up market prices for query, optionally with the trend.
// A failed trend lookup is embedded; a failed price lookup fails the call.
func (s *Service) Search(ctx context.Context, query string, display int, withTrend bool) (*SearchResult, error) {
	summary, report, err := s.lookup(ctx, query, display, withTrend)
	if err != nil {
		return nil, err
	}
	return &SearchResult{Query: query, PriceSummary: summary, Trend: report}, nil
}

// ProductStats estimates competition from the first page of results.
func (s *Service) ProductStats(ctx context.Context, query string) (*ProductStats, error) {
	summary, _, err := s.lookup(ctx, query, statsDisplay, false)
	if err != nil {
		return nil, err
	}

	var reviews, rated int
	var ratingSum float64
	for _, it := range summary.TopItems {
		reviews += it.ReviewCount
		if it.Rating > 0 {
			ratingSum += float64(it.Rating)
			rated++
		}
	}
	var avgRating float64
	if rated > 0 {
		avgRating = trend.Round(ratingSum/float64(rated), 1)
	}

	return &ProductStats{
		Query:            query,
		TotalReviewCount: reviews,
		AvgRating:        avgRating,
		CompetitionScore: pricing.CompetitionScore(summary.CompetitorCount, summary.MinPrice, summary.MaxPrice),
		CompetitorCount:  summary.CompetitorCount,
	}, nil
}

// Category classifies query by the category of its most relevant listing.
// An empty or payload-less search falls back to the default category;
// missing or rejected credentials and transport faults are errors.
func (s *Service) Category(ctx context.Context, query string) (*model.CategoryResult, error) {
	result, err := s.naver.SearchShop(ctx, query, categoryDisplay)
	if err != nil {
		if errx.KindOf(err) == errx.UpstreamDataMissing {
			logx.Debug().Err(err).Str("query", query).Msg("category search returned no payload, using fallback")
			fallback := category.Default()
			return &fallback, nil
		}
		return nil, err
	}
	if len(result.Items) == 0 {
		fallback := category.Default()
		return &fallback, nil
	}

	first := result.Items[0]
	classified := category.Classify(first.Category1, first.Category2)
	return &classified, nil
}

// Trend classifies the monthly search trend of query.
func (s *Service) Trend(ctx context.Context, query string) (*TrendReport, error) {
	series, err := s.naver.SearchTrend(ctx, query)
	if err != nil {
		return nil, err
	}
	season := trend.Classify(series.Ratios)
	return &TrendReport{Success: true, Query: query, Season: &season, Periods: series.Periods}, nil
}

// Compare prices query across the eight-marketplace table at the average
// market price, with the trend embedded.
func (s *Service) Compare(ctx context.Context, query string, costs margin.Costs) (*CompareResult, error) {
	summary, report, err := s.lookup(ctx, query, compareDisplay, true)
	if err != nil {
		return nil, err
	}

	margins, best := s.compare.Compare(float64(summary.AvgPrice), costs)
	return &CompareResult{
		Query: query,
		Cost:  costs.Cost,
		MarketPrices: MarketPrices{
			PriceBand:       band(summary),
			CompetitorCount: summary.CompetitorCount,
		},
		Trend:      report,
		Margins:    margins,
		BestMarket: best,
		TopItems:   head(summary.TopItems, compareTopItems),
	}, nil
}

// Analyze prices query across the legacy three-marketplace table at both
// the average and the minimum market price.
func (s *Service) Analyze(ctx context.Context, query string, costs margin.Costs) (*AnalyzeResult, error) {
	summary, _, err := s.lookup(ctx, query, compareDisplay, false)
	if err != nil {
		return nil, err
	}

	return &AnalyzeResult{
		Query:        query,
		MarketPrices: band(summary),
		MarginAtAvg:  s.analyze.Table(float64(summary.AvgPrice), costs),
		MarginAtMin:  s.analyze.Table(float64(summary.MinPrice), costs),
		TopItems:     head(summary.TopItems, compareTopItems),
	}, nil
}

// Season ranks the seasonal keywords of month. Month 0 selects the
// current month.
func (s *Service) Season(ctx context.Context, month int) (*SeasonRanking, error) {
	if s.seasons == nil {
		return nil, errx.New(errx.NotImplemented, "시즌 랭킹이 구성되지 않았습니다.")
	}
	if month == 0 {
		month = s.seasons.CurrentMonth()
	}
	return s.seasons.Rank(ctx, month)
}

// lookup runs the price search and, when asked, the trend lookup
// concurrently. The trend lookup is cancelled if the search fails.
func (s *Service) lookup(ctx context.Context, query string, display int, withTrend bool) (model.PriceSummary, *TrendReport, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg     sync.WaitGroup
		report *TrendReport
	)
	if withTrend {
		wg.Add(1)
		go func() {
			defer wg.Done()
			report = s.nestedTrend(ctx, query)
		}()
	}

	result, err := s.naver.SearchShop(ctx, query, display)
	if err != nil {
		cancel()
	}
	wg.Wait()
	if err != nil {
		return model.PriceSummary{}, nil, err
	}
	return pricing.Summarize(result.Items, result.Total), report, nil
}

func (s *Service) nestedTrend(ctx context.Context, query string) *TrendReport {
	report, err := s.Trend(ctx, query)
	if err != nil {
		logx.Warn().Err(err).Str("query", query).Msg("trend lookup failed, embedding failure")
		return &TrendReport{Error: errx.Message(err)}
	}
	return report
}

func band(summary model.PriceSummary) PriceBand {
	return PriceBand{Min: summary.MinPrice, Avg: summary.AvgPrice, Max: summary.MaxPrice}
}

func head(items []model.Listing, n int) []model.Listing {
	if len(items) > n {
		return items[:n]
	}
	return items
}
