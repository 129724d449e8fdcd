package upstream

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/guarzo/sellermargin/internal/errx"
	"github.com/guarzo/sellermargin/internal/model"
)

const (
	trendWindowDays   = 365
	insightWindowDays = 90
)

type datalabPoint struct {
	Period string  `json:"period"`
	Group  string  `json:"group"`
	Ratio  float64 `json:"ratio"`
}

type datalabResponse struct {
	naverError
	Results []struct {
		Title string         `json:"title"`
		Data  []datalabPoint `json:"data"`
	} `json:"results"`
}

// SearchTrend fetches the monthly search-volume ratio of query over the
// last year, oldest month first.
func (n *Naver) SearchTrend(ctx context.Context, query string) (*model.TrendSeries, error) {
	if !n.Available() {
		return nil, errx.New(errx.ConfigurationMissing, naverMissingMessage)
	}

	start, end := dateWindow(n.now(), trendWindowDays)
	payload := map[string]any{
		"startDate": start,
		"endDate":   end,
		"timeUnit":  "month",
		"keywordGroups": []map[string]any{
			{"groupName": query, "keywords": []string{query}},
		},
	}

	body, status, err := n.postJSON(ctx, "/v1/datalab/search", payload)
	if err != nil {
		return nil, err
	}

	var resp datalabResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errx.Transport(fmt.Errorf("decoding response (HTTP %d): %w", status, err))
	}
	if len(resp.Results) == 0 {
		return nil, n.failure(resp.naverError, status, "트렌드 조회 실패")
	}

	series := &model.TrendSeries{
		Query:   query,
		Periods: make([]string, 0, len(resp.Results[0].Data)),
		Ratios:  make([]float64, 0, len(resp.Results[0].Data)),
	}
	for _, p := range resp.Results[0].Data {
		series.Periods = append(series.Periods, p.Period)
		series.Ratios = append(series.Ratios, p.Ratio)
	}
	return series, nil
}

// AudienceRatios are summed DataLab click ratios per demographic group.
// Gender keys are "f" and "m"; age keys are "10" through "60".
type AudienceRatios struct {
	Gender map[string]float64
	Age    map[string]float64
}

// ShoppingAudience fetches the gender and age click breakdown over the
// last 90 days on mobile. With a keyword the breakdown is for that keyword
// inside the category, otherwise for the whole category.
func (n *Naver) ShoppingAudience(ctx context.Context, categoryCode, keyword string) (*AudienceRatios, error) {
	if !n.Available() {
		return nil, errx.New(errx.ConfigurationMissing, naverMissingMessage)
	}

	base := "/v1/datalab/shopping/category"
	if keyword != "" {
		base += "/keyword"
	}
	gender, err := n.insight(ctx, base+"/gender", categoryCode, keyword)
	if err != nil {
		return nil, err
	}
	age, err := n.insight(ctx, base+"/age", categoryCode, keyword)
	if err != nil {
		return nil, err
	}
	return &AudienceRatios{Gender: gender, Age: age}, nil
}

func (n *Naver) insight(ctx context.Context, path, categoryCode, keyword string) (map[string]float64, error) {
	start, end := dateWindow(n.now(), insightWindowDays)
	payload := map[string]any{
		"startDate": start,
		"endDate":   end,
		"timeUnit":  "month",
		"category":  categoryCode,
		"device":    "mo",
	}
	if keyword != "" {
		payload["keyword"] = keyword
	}

	body, status, err := n.postJSON(ctx, path, payload)
	if err != nil {
		return nil, err
	}

	var resp datalabResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errx.Transport(fmt.Errorf("decoding response (HTTP %d): %w", status, err))
	}
	if len(resp.Results) == 0 {
		return nil, n.failure(resp.naverError, status, "쇼핑인사이트 조회 실패")
	}

	sums := make(map[string]float64)
	for _, p := range resp.Results[0].Data {
		if p.Group == "" {
			continue
		}
		sums[p.Group] += p.Ratio
	}
	return sums, nil
}
