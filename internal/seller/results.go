package seller

import (
	"time"

	"github.com/guarzo/sellermargin/internal/model"
	"github.com/guarzo/sellermargin/internal/trend"
)

// TrendReport is a classified trend lookup. Embedded in composite
// responses it doubles as a nested failure object when Success is false.
type TrendReport struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Query   string `json:"query,omitempty"`
	*trend.Season
	Periods []string `json:"periods,omitempty"`
}

// SearchResult backs /search.
type SearchResult struct {
	Query string `json:"query"`
	model.PriceSummary
	Trend *TrendReport `json:"trend,omitempty"`
}

// ProductStats backs /product-stats. Review data is not available from
// the search provider, so review fields stay zero.
type ProductStats struct {
	Query             string  `json:"query"`
	TotalReviewCount  int     `json:"total_review_count"`
	AvgRating         float64 `json:"avg_rating"`
	EstimatedSales30d int     `json:"estimated_sales_30d"`
	CompetitionScore  int     `json:"competition_score"`
	CompetitorCount   int     `json:"competitor_count"`
}

// TargetResult backs /target.
type TargetResult struct {
	Query string `json:"query"`
	model.Audience
}

// PriceBand is the min/avg/max of a search.
type PriceBand struct {
	Min int `json:"min"`
	Avg int `json:"avg"`
	Max int `json:"max"`
}

// MarketPrices is a PriceBand with the competitor count.
type MarketPrices struct {
	PriceBand
	CompetitorCount int `json:"competitor_count"`
}

// CompareResult backs /compare.
type CompareResult struct {
	Query        string            `json:"query"`
	Cost         float64           `json:"cost"`
	MarketPrices MarketPrices      `json:"market_prices"`
	Trend        *TrendReport      `json:"trend"`
	Margins      model.MarginTable `json:"margins"`
	BestMarket   string            `json:"best_market"`
	TopItems     []model.Listing   `json:"top_items"`
}

// AnalyzeResult backs /analyze.
type AnalyzeResult struct {
	Query        string            `json:"query"`
	MarketPrices PriceBand         `json:"market_prices"`
	MarginAtAvg  model.MarginTable `json:"margin_at_avg"`
	MarginAtMin  model.MarginTable `json:"margin_at_min"`
	TopItems     []model.Listing   `json:"top_items"`
}

// WholesaleResult backs /domeggook/search.
type WholesaleResult struct {
	Source string                `json:"source"`
	Items  []model.WholesaleItem `json:"items"`
	Total  int                   `json:"total"`
}

// SeasonRanking is the seasonal keyword list for one month, strongest
// seasonal lift first.
type SeasonRanking struct {
	Month       int                     `json:"month"`
	Keywords    []model.SeasonalKeyword `json:"keywords"`
	GeneratedAt time.Time               `json:"generated_at"`
}
