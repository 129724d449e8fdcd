package model

import (
	"bytes"
	"encoding/json"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// RawListing is one shopping search hit as the provider returns it.
// Prices arrive as strings and may be empty or junk.
type RawListing struct {
	Title     string     `json:"title"`
	Link      string     `json:"link"`
	Image     string     `json:"image"`
	LowPrice  FlexString `json:"lprice"`
	MallName  string     `json:"mallName"`
	Category1 string     `json:"category1"`
	Category2 string     `json:"category2"`
}

// Listing is the cleaned listing view returned to callers.
type Listing struct {
	Title       string `json:"title"`
	Price       int    `json:"price"`
	Mall        string `json:"mall"`
	ReviewCount int    `json:"review_count"`
	Rating      int    `json:"rating"`
	Link        string `json:"link"`
	Image       string `json:"image"`
}

// PriceSummary aggregates one page of shopping results.
// MinPrice <= AvgPrice <= MaxPrice whenever any listing had a price.
type PriceSummary struct {
	MinPrice        int       `json:"min_price"`
	AvgPrice        int       `json:"avg_price"`
	MaxPrice        int       `json:"max_price"`
	CompetitorCount int       `json:"competitor_count"`
	SellerCount     int       `json:"seller_count"`
	TopItems        []Listing `json:"top_items"`
}

// TrendSeries is a monthly search-volume series, oldest first.
type TrendSeries struct {
	Query   string    `json:"query"`
	Periods []string  `json:"periods"`
	Ratios  []float64 `json:"ratios"`
}

// FeeRate is one marketplace's commission percentage.
type FeeRate struct {
	Market string
	Rate   float64
}

// FeeTable is an ordered marketplace -> fee percentage table.
// It encodes as a JSON object that keeps declaration order.
type FeeTable []FeeRate

func (t FeeTable) MarshalJSON() ([]byte, error) {
	return marshalOrdered(len(t), func(i int) (string, any) {
		return t[i].Market, t[i].Rate
	})
}

// CategoryResult is the classifier output for /category.
type CategoryResult struct {
	Category     string   `json:"category"`
	SubCategory  string   `json:"sub_category"`
	FeeRate      FeeTable `json:"fee_rate"`
	RiskLevel    string   `json:"risk_level"`
	SpecialNotes []string `json:"special_notes"`
}

// MarginResult is the fee/profit breakdown for a single marketplace.
type MarginResult struct {
	Market string  `json:"-"`
	Sale   int64   `json:"sale"`
	Fee    int64   `json:"fee"`
	Profit int64   `json:"profit"`
	Margin float64 `json:"margin"`
}

// MarginTable keeps marketplace order when encoded as a JSON object.
type MarginTable []MarginResult

func (t MarginTable) MarshalJSON() ([]byte, error) {
	return marshalOrdered(len(t), func(i int) (string, any) {
		return t[i].Market, t[i]
	})
}

// WholesaleItem is one Domeggook catalog entry.
type WholesaleItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int    `json:"price"`
	Stock    *int   `json:"stock"` // nil when the supplier does not report it
	Supplier string `json:"supplier"`
	Image    string `json:"image"`
	Link     string `json:"link"`
	Category string `json:"category"`
	MinOrder int    `json:"min_order"`
}

// GenderShare is a female/male split in whole percents.
type GenderShare struct {
	Female int `json:"female"`
	Male   int `json:"male"`
}

// AgeShare is one age bucket of an audience breakdown.
type AgeShare struct {
	Group   string
	Percent int
}

// AgeShares encodes as an ordered JSON object, youngest bucket first.
type AgeShares []AgeShare

func (a AgeShares) MarshalJSON() ([]byte, error) {
	if a == nil {
		return []byte("null"), nil
	}
	return marshalOrdered(len(a), func(i int) (string, any) {
		return a[i].Group, a[i].Percent
	})
}

// Audience is the demographic estimate returned by /target.
type Audience struct {
	Gender     *GenderShare `json:"gender"`
	AgeGroups  AgeShares    `json:"age_groups"`
	MainTarget string       `json:"main_target"`
}

// SeasonalKeyword is one row of the /season ranking.
type SeasonalKeyword struct {
	Keyword    string  `json:"keyword"`
	MonthRatio float64 `json:"month_ratio"`
	AvgRatio   float64 `json:"avg_ratio"`
	Index      float64 `json:"index"`
	Season     string  `json:"season"`
	SeasonIcon string  `json:"season_icon"`
}

// Message is a text memo relayed through the messaging provider.
type Message struct {
	Text string `json:"text"`
	Link string `json:"link,omitempty"`
}

// FlexString accepts a JSON string, number or null.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	*f = FlexString(strings.TrimSpace(string(b)))
	return nil
}

// marshalOrdered encodes n key/value entries as a JSON object in the
// order given.
func marshalOrdered(n int, entry func(i int) (string, any)) ([]byte, error) {
	om := orderedmap.New[string, any](n)
	for i := 0; i < n; i++ {
		k, v := entry(i)
		om.Set(k, v)
	}
	return om.MarshalJSON()
}
