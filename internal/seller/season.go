package seller

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"github.com/guarzo/sellermargin/internal/cache"
	"github.com/guarzo/sellermargin/internal/concurrent"
	"github.com/guarzo/sellermargin/internal/errx"
	"github.com/guarzo/sellermargin/internal/logx"
	"github.com/guarzo/sellermargin/internal/model"
	"github.com/guarzo/sellermargin/internal/trend"
)

// seasonKeywords lists products with a known seasonal peak, by month.
var seasonKeywords = [12][]string{
	{"방한장갑", "핫팩", "설날선물세트", "가습기"},
	{"졸업선물", "발렌타인초콜릿", "신학기가방", "패딩조끼"},
	{"신학기가방", "미세먼지마스크", "트렌치코트", "화이트데이선물"},
	{"캠핑의자", "자외선차단제", "원피스", "공기청정기"},
	{"카네이션", "어버이날선물", "선풍기", "캠핑용품"},
	{"선풍기", "래쉬가드", "제습기", "장우산"},
	{"물놀이튜브", "아이스박스", "모기퇴치기", "비치타월"},
	{"에어컨", "수영복", "추석선물세트", "쿨매트"},
	{"추석선물세트", "가을자켓", "등산화", "트렌치코트"},
	{"핼러윈의상", "니트", "전기장판", "등산화"},
	{"빼빼로", "롱패딩", "전기장판", "수능선물"},
	{"크리스마스트리", "연말선물", "방한부츠", "핫팩"},
}

// DefaultSeasonKeywords returns the built-in keyword table, January first.
func DefaultSeasonKeywords() [12][]string {
	var out [12][]string
	for i, kws := range seasonKeywords {
		out[i] = append([]string(nil), kws...)
	}
	return out
}

// TrendSource provides monthly search trends.
type TrendSource interface {
	SearchTrend(ctx context.Context, query string) (*model.TrendSeries, error)
}

// SeasonOptions configures a SeasonRanker.
type SeasonOptions struct {
	Workers int
	// RatePerSec paces the keyword fan-out on top of the provider limiter
	// so a refresh leaves room for request traffic. 0 disables it.
	RatePerSec float64
	TTL        time.Duration
	Timeout    time.Duration
	Keywords   *[12][]string // nil uses DefaultSeasonKeywords
}

// SeasonRanker ranks the seasonal keywords of a month by how far that
// month's search volume sits above the keyword's yearly average.
type SeasonRanker struct {
	trends   TrendSource
	store    cache.Store
	ttl      time.Duration
	fetcher  *concurrent.Fetcher
	keywords [12][]string
	now      func() time.Time
}

// NewSeasonRanker creates a ranker. store may be nil to disable caching.
func NewSeasonRanker(trends TrendSource, store cache.Store, opts SeasonOptions) *SeasonRanker {
	keywords := DefaultSeasonKeywords()
	if opts.Keywords != nil {
		keywords = *opts.Keywords
	}
	return &SeasonRanker{
		trends:   trends,
		store:    store,
		ttl:      opts.TTL,
		fetcher:  concurrent.NewFetcher(concurrent.FetcherConfig{
			Workers:   opts.Workers,
			RateLimit: rate.Limit(opts.RatePerSec),
			Timeout:   opts.Timeout,
		}),
		keywords: keywords,
		now:      time.Now,
	}
}

// CurrentMonth returns the calendar month used when none is requested.
func (r *SeasonRanker) CurrentMonth() int {
	return int(r.now().Month())
}

// Rank returns the ranking for month, from cache when possible.
func (r *SeasonRanker) Rank(ctx context.Context, month int) (*SeasonRanking, error) {
	if month < 1 || month > 12 {
		return nil, errx.New(errx.InvalidRequest, "month는 1~12 사이여야 합니다.")
	}

	if r.store != nil {
		var cached SeasonRanking
		ok, err := r.store.Get(ctx, cache.SeasonKey(month), &cached)
		if err != nil {
			logx.Warn().Err(err).Int("month", month).Msg("season cache read failed, dropping entry")
			if err := r.store.Delete(ctx, cache.SeasonKey(month)); err != nil {
				logx.Warn().Err(err).Int("month", month).Msg("season cache delete failed")
			}
		}
		if ok {
			return &cached, nil
		}
	}
	// A caller hanging up must not cut the ranking short.
	return r.Refresh(context.WithoutCancel(ctx), month)
}

// Refresh recomputes the ranking for month. Keywords whose trend lookup
// fails are left out of the result and the result is not cached, so the
// next Rank retries them. If every lookup fails the first error is
// returned.
func (r *SeasonRanker) Refresh(ctx context.Context, month int) (*SeasonRanking, error) {
	if month < 1 || month > 12 {
		return nil, errx.New(errx.InvalidRequest, "month는 1~12 사이여야 합니다.")
	}
	keywords := r.keywords[month-1]

	start := time.Now()
	results := concurrent.FetchAll[string, *model.TrendSeries](ctx, r.fetcher, keywords, r.trends.SearchTrend)

	ranking := &SeasonRanking{
		Month:       month,
		Keywords:    make([]model.SeasonalKeyword, 0, len(keywords)),
		GeneratedAt: r.now(),
	}
	var firstErr error
	for _, res := range results {
		keyword := keywords[res.Index]
		if res.Err != nil {
			if firstErr == nil {
				firstErr = res.Err
			}
			logx.Warn().Err(res.Err).Str("keyword", keyword).Msg("season trend lookup failed")
			continue
		}
		if row, ok := seasonalKeyword(keyword, res.Value, month); ok {
			ranking.Keywords = append(ranking.Keywords, row)
		}
	}
	if len(ranking.Keywords) == 0 && firstErr != nil {
		return nil, firstErr
	}

	sort.SliceStable(ranking.Keywords, func(i, j int) bool {
		return ranking.Keywords[i].Index > ranking.Keywords[j].Index
	})

	stats := concurrent.Summarize(results)
	logx.Info().
		Int("month", month).
		Int("keywords", len(ranking.Keywords)).
		Int("failed", stats.Failed).
		Int("workers", r.fetcher.Workers()).
		Dur("avg_latency", stats.AverageLatency).
		Dur("took", time.Since(start)).
		Msg("season ranking refreshed")

	if firstErr == nil && r.store != nil {
		if err := r.store.Put(ctx, cache.SeasonKey(month), ranking, r.ttl); err != nil {
			logx.Warn().Err(err).Int("month", month).Msg("season cache write failed")
		}
	}
	return ranking, nil
}

// RefreshIfNeeded refreshes the current month unless a cached ranking
// exists.
func (r *SeasonRanker) RefreshIfNeeded(ctx context.Context) error {
	month := r.CurrentMonth()
	if r.store != nil {
		var cached SeasonRanking
		if ok, _ := r.store.Get(ctx, cache.SeasonKey(month), &cached); ok {
			logx.Debug().Int("month", month).Msg("season ranking is fresh, skipping refresh")
			return nil
		}
	}
	if _, err := r.Refresh(ctx, month); err != nil {
		return fmt.Errorf("refresh season ranking for month %d: %w", month, err)
	}
	return nil
}

// seasonalKeyword scores one keyword. A month absent from the series had
// no recorded searches and counts as 0. An empty series is skipped.
func seasonalKeyword(keyword string, series *model.TrendSeries, month int) (model.SeasonalKeyword, bool) {
	if series == nil || len(series.Ratios) == 0 {
		return model.SeasonalKeyword{}, false
	}

	monthRatio := ratioForMonth(series, month)
	avg := trend.Mean(series.Ratios)
	label, icon, _ := trend.Label(monthRatio, avg)

	var index float64
	if avg > 0 {
		index = trend.Round(monthRatio/avg, 2)
	}
	return model.SeasonalKeyword{
		Keyword:    keyword,
		MonthRatio: monthRatio,
		AvgRatio:   trend.Round(avg, 1),
		Index:      index,
		Season:     label,
		SeasonIcon: icon,
	}, true
}

// ratioForMonth returns the most recent ratio whose period falls in month.
func ratioForMonth(series *model.TrendSeries, month int) float64 {
	for i := min(len(series.Periods), len(series.Ratios)) - 1; i >= 0; i-- {
		period, err := time.Parse("2006-01-02", series.Periods[i])
		if err != nil {
			continue
		}
		if int(period.Month()) == month {
			return series.Ratios[i]
		}
	}
	return 0
}
