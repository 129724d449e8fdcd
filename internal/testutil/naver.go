// Package testutil provides in-process fakes of the upstream providers.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
)

// ShopFixture describes the shopping search answer for one query.
type ShopFixture struct {
	// Total is reported as the hit count; a negative value omits the field.
	Total     int
	Prices    []string
	Category1 string
	Category2 string
}

// NaverFake is a stand-in for the Naver open API: shopping search,
// DataLab search trend and shopping insight.
type NaverFake struct {
	*httptest.Server

	mu       sync.Mutex
	shop     map[string]ShopFixture
	trend    map[string][]float64
	gender   map[string]float64
	age      map[string]float64
	rejected bool
	calls    map[string]int
}

// NewNaverFake starts a fake closed at test cleanup.
func NewNaverFake(t testing.TB) *NaverFake {
	t.Helper()
	f := &NaverFake{
		shop:  make(map[string]ShopFixture),
		trend: make(map[string][]float64),
		calls: make(map[string]int),
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

// SetShop registers the search answer for query.
func (f *NaverFake) SetShop(query string, fixture ShopFixture) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shop[query] = fixture
}

// SetTrend registers monthly ratios for query. The first ratio belongs to
// January 2025 and each following one to the next month.
func (f *NaverFake) SetTrend(query string, ratios ...float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trend[query] = ratios
}

// SetAudience registers the shopping insight ratios. Gender keys are "f"
// and "m", age keys "10" through "60".
func (f *NaverFake) SetAudience(gender, age map[string]float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gender = gender
	f.age = age
}

// RejectCredentials makes every call fail with Naver's auth error.
func (f *NaverFake) RejectCredentials() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejected = true
}

// Calls returns how often path was requested.
func (f *NaverFake) Calls(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

func (f *NaverFake) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.calls[r.URL.Path]++
	rejected := f.rejected
	f.mu.Unlock()

	if rejected || r.Header.Get("X-Naver-Client-Id") == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"errorMessage": "Authentication failed (인증 실패)",
			"errorCode":    "024",
		})
		return
	}

	switch r.URL.Path {
	case "/v1/search/shop.json":
		f.serveShop(w, r)
	case "/v1/datalab/search":
		f.serveTrend(w, r)
	case "/v1/datalab/shopping/category/gender", "/v1/datalab/shopping/category/keyword/gender":
		f.serveInsight(w, r, func() map[string]float64 { return f.gender })
	case "/v1/datalab/shopping/category/age", "/v1/datalab/shopping/category/keyword/age":
		f.serveInsight(w, r, func() map[string]float64 { return f.age })
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"errorMessage": "Not Found", "errorCode": "404"})
	}
}

func (f *NaverFake) serveShop(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	display, _ := strconv.Atoi(r.URL.Query().Get("display"))

	f.mu.Lock()
	fixture, ok := f.shop[query]
	f.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"total": 0, "items": []any{}})
		return
	}

	items := make([]map[string]any, 0, len(fixture.Prices))
	for i, price := range fixture.Prices {
		if display > 0 && i >= display {
			break
		}
		items = append(items, map[string]any{
			"title":     fmt.Sprintf("<b>%s</b> 상품 %d", query, i+1),
			"link":      fmt.Sprintf("https://shopping.test/item/%d", i+1),
			"image":     fmt.Sprintf("https://shopping.test/img/%d.jpg", i+1),
			"lprice":    price,
			"mallName":  fmt.Sprintf("몰%d", i+1),
			"category1": fixture.Category1,
			"category2": fixture.Category2,
		})
	}

	resp := map[string]any{"items": items}
	if fixture.Total >= 0 {
		resp["total"] = fixture.Total
	}
	writeJSON(w, http.StatusOK, resp)
}

func (f *NaverFake) serveTrend(w http.ResponseWriter, r *http.Request) {
	var req struct {
		KeywordGroups []struct {
			GroupName string `json:"groupName"`
		} `json:"keywordGroups"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.KeywordGroups) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"errorMessage": "Invalid request body", "errorCode": "400"})
		return
	}
	group := req.KeywordGroups[0].GroupName

	f.mu.Lock()
	ratios, ok := f.trend[group]
	f.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"results": []any{}})
		return
	}

	data := make([]map[string]any, 0, len(ratios))
	for i, ratio := range ratios {
		data = append(data, map[string]any{
			"period": fmt.Sprintf("%04d-%02d-01", 2025+i/12, i%12+1),
			"ratio":  ratio,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": []map[string]any{{"title": group, "data": data}},
	})
}

func (f *NaverFake) serveInsight(w http.ResponseWriter, _ *http.Request, ratios func() map[string]float64) {
	f.mu.Lock()
	groups := ratios()
	f.mu.Unlock()
	if groups == nil {
		writeJSON(w, http.StatusOK, map[string]any{"results": []any{}})
		return
	}

	// Split each group's total across two months to exercise summing.
	data := make([]map[string]any, 0, 2*len(groups))
	for group, ratio := range groups {
		data = append(data,
			map[string]any{"period": "2025-01-01", "group": group, "ratio": ratio / 2},
			map[string]any{"period": "2025-02-01", "group": group, "ratio": ratio / 2},
		)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": []map[string]any{{"title": "category", "data": data}},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json;charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
