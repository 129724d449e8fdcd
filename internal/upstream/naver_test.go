package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/guarzo/sellermargin/internal/errx"
	"github.com/guarzo/sellermargin/internal/ratelimit"
	"github.com/guarzo/sellermargin/internal/testutil"
)

func newTestNaver(baseURL string) *Naver {
	id, secret := testutil.NaverCredentials()
	n := NewNaver(NaverConfig{ClientID: id, ClientSecret: secret, BaseURL: baseURL}, nil, nil)
	n.now = func() time.Time { return time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC) }
	return n
}

func TestSearchShop_MissingCredentials(t *testing.T) {
	fake := testutil.NewNaverFake(t)
	n := NewNaver(NaverConfig{BaseURL: fake.URL}, nil, nil)

	_, err := n.SearchShop(context.Background(), "텀블러", 10)
	if errx.KindOf(err) != errx.ConfigurationMissing {
		t.Fatalf("expected ConfigurationMissing, got %v", err)
	}
	if errx.Message(err) != "API 키 미설정" {
		t.Errorf("unexpected message %q", errx.Message(err))
	}
	if fake.Calls("/v1/search/shop.json") != 0 {
		t.Error("no request should be sent without credentials")
	}
}

func TestSearchShop_Success(t *testing.T) {
	fake := testutil.NewNaverFake(t)
	fake.SetShop("텀블러", testutil.ShopFixture{Total: 1234, Prices: []string{"12000", "", "abc", "9000"}})
	n := newTestNaver(fake.URL)

	result, err := n.SearchShop(context.Background(), "텀블러", 10)
	if err != nil {
		t.Fatalf("SearchShop: %v", err)
	}
	if result.Total != 1234 {
		t.Errorf("Total = %d, want 1234", result.Total)
	}
	if len(result.Items) != 4 {
		t.Fatalf("got %d items, want 4", len(result.Items))
	}
	if result.Items[0].LowPrice != "12000" || result.Items[1].LowPrice != "" {
		t.Errorf("unexpected prices %q %q", result.Items[0].LowPrice, result.Items[1].LowPrice)
	}
	if result.Items[0].Title != "<b>텀블러</b> 상품 1" {
		t.Errorf("title should be passed through untouched, got %q", result.Items[0].Title)
	}
	if fake.Calls("/v1/search/shop.json") != 1 {
		t.Errorf("expected exactly one request, got %d", fake.Calls("/v1/search/shop.json"))
	}
}

func TestSearchShop_TotalAbsent(t *testing.T) {
	fake := testutil.NewNaverFake(t)
	fake.SetShop("우산", testutil.ShopFixture{Total: -1, Prices: []string{"5000"}})
	n := newTestNaver(fake.URL)

	result, err := n.SearchShop(context.Background(), "우산", 10)
	if err != nil {
		t.Fatalf("SearchShop: %v", err)
	}
	if result.Total != -1 {
		t.Errorf("Total = %d, want -1 when unreported", result.Total)
	}
}

func TestSearchShop_ClampsDisplay(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query().Get("display")
		if r.URL.Query().Get("sort") != "sim" {
			t.Errorf("sort = %q, want sim", r.URL.Query().Get("sort"))
		}
		w.Write([]byte(`{"total":0,"items":[]}`))
	}))
	defer server.Close()

	n := newTestNaver(server.URL)
	if _, err := n.SearchShop(context.Background(), "q", 100); err != nil {
		t.Fatalf("SearchShop: %v", err)
	}
	if got != "30" {
		t.Errorf("display = %q, want 30", got)
	}
}

func TestClampDisplay(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-5, 1},
		{0, 1},
		{1, 1},
		{10, 10},
		{30, 30},
		{31, 30},
	}
	for _, tt := range tests {
		if got := ClampDisplay(tt.in); got != tt.want {
			t.Errorf("ClampDisplay(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSearchShop_CredentialRejected(t *testing.T) {
	fake := testutil.NewNaverFake(t)
	fake.RejectCredentials()
	n := newTestNaver(fake.URL)

	_, err := n.SearchShop(context.Background(), "텀블러", 10)
	if errx.KindOf(err) != errx.CredentialRejected {
		t.Fatalf("expected CredentialRejected, got %v", err)
	}
	if errx.Message(err) != naverAuthMessage {
		t.Errorf("message = %q", errx.Message(err))
	}
}

func TestSearchShop_CredentialMessageWithoutCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"errorMessage":"Invalid Client ID","errorCode":"999"}`))
	}))
	defer server.Close()

	_, err := newTestNaver(server.URL).SearchShop(context.Background(), "q", 10)
	if errx.KindOf(err) != errx.CredentialRejected {
		t.Fatalf("expected CredentialRejected, got %v", err)
	}
}

func TestSearchShop_MissingPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"upstream message", `{"errorMessage":"Query limit exceeded","errorCode":"010"}`, "Query limit exceeded"},
		{"no message", `{}`, "검색 실패"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestNaver(server.URL).SearchShop(context.Background(), "q", 10)
			if errx.KindOf(err) != errx.UpstreamDataMissing {
				t.Fatalf("expected UpstreamDataMissing, got %v", err)
			}
			if errx.Message(err) != tt.want {
				t.Errorf("message = %q, want %q", errx.Message(err), tt.want)
			}
		})
	}
}

func TestSearchShop_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestNaver(url).SearchShop(context.Background(), "q", 10)
	if errx.KindOf(err) != errx.TransportFailure {
		t.Fatalf("expected TransportFailure, got %v", err)
	}
	if errx.Message(err) == "" {
		t.Error("transport failures should carry the transport error text")
	}
}

func TestSearchShop_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>bad gateway</html>`))
	}))
	defer server.Close()

	_, err := newTestNaver(server.URL).SearchShop(context.Background(), "q", 10)
	if errx.KindOf(err) != errx.TransportFailure {
		t.Fatalf("expected TransportFailure, got %v", err)
	}
}

func TestSearchShop_LimiterHonorsContext(t *testing.T) {
	fake := testutil.NewNaverFake(t)
	id, secret := testutil.NaverCredentials()
	limiter := ratelimit.NewLimiter(0.01, 1)
	limiter.Allow()
	n := NewNaver(NaverConfig{ClientID: id, ClientSecret: secret, BaseURL: fake.URL}, nil, limiter)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := n.SearchShop(ctx, "q", 10)
	if errx.KindOf(err) != errx.TransportFailure {
		t.Fatalf("expected TransportFailure, got %v", err)
	}
	if fake.Calls("/v1/search/shop.json") != 0 {
		t.Error("request should not be sent when the limiter gives up")
	}
}

func TestSearchTrend(t *testing.T) {
	fake := testutil.NewNaverFake(t)
	fake.SetTrend("패딩", 20, 40, 100)
	n := newTestNaver(fake.URL)

	series, err := n.SearchTrend(context.Background(), "패딩")
	if err != nil {
		t.Fatalf("SearchTrend: %v", err)
	}
	if series.Query != "패딩" {
		t.Errorf("Query = %q", series.Query)
	}
	wantPeriods := []string{"2025-01-01", "2025-02-01", "2025-03-01"}
	for i, p := range wantPeriods {
		if series.Periods[i] != p {
			t.Errorf("Periods[%d] = %q, want %q", i, series.Periods[i], p)
		}
	}
	if len(series.Ratios) != 3 || series.Ratios[2] != 100 {
		t.Errorf("Ratios = %v", series.Ratios)
	}
}

func TestSearchTrend_RequestWindow(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
		}
		json.NewDecoder(r.Body).Decode(&body)
		w.Write([]byte(`{"results":[{"title":"q","data":[{"period":"2026-10-01","ratio":50}]}]}`))
	}))
	defer server.Close()

	if _, err := newTestNaver(server.URL).SearchTrend(context.Background(), "q"); err != nil {
		t.Fatalf("SearchTrend: %v", err)
	}
	if body["startDate"] != "2025-10-15" || body["endDate"] != "2026-10-15" {
		t.Errorf("window = %v..%v", body["startDate"], body["endDate"])
	}
	if body["timeUnit"] != "month" {
		t.Errorf("timeUnit = %v", body["timeUnit"])
	}
}

func TestSearchTrend_NoResults(t *testing.T) {
	fake := testutil.NewNaverFake(t)
	n := newTestNaver(fake.URL)

	_, err := n.SearchTrend(context.Background(), "unknown")
	if errx.KindOf(err) != errx.UpstreamDataMissing {
		t.Fatalf("expected UpstreamDataMissing, got %v", err)
	}
	if errx.Message(err) != "트렌드 조회 실패" {
		t.Errorf("message = %q", errx.Message(err))
	}
}

func TestShoppingAudience(t *testing.T) {
	fake := testutil.NewNaverFake(t)
	fake.SetAudience(
		map[string]float64{"f": 70, "m": 30},
		map[string]float64{"10": 10, "20": 40, "30": 30, "40": 10, "50": 6, "60": 4},
	)
	n := newTestNaver(fake.URL)

	ratios, err := n.ShoppingAudience(context.Background(), "50000804", "니트")
	if err != nil {
		t.Fatalf("ShoppingAudience: %v", err)
	}
	if ratios.Gender["f"] != 70 || ratios.Gender["m"] != 30 {
		t.Errorf("Gender = %v", ratios.Gender)
	}
	if ratios.Age["20"] != 40 || len(ratios.Age) != 6 {
		t.Errorf("Age = %v", ratios.Age)
	}
	if fake.Calls("/v1/datalab/shopping/category/keyword/gender") != 1 || fake.Calls("/v1/datalab/shopping/category/keyword/age") != 1 {
		t.Error("expected one keyword call per breakdown")
	}
}

func TestShoppingAudience_NoData(t *testing.T) {
	fake := testutil.NewNaverFake(t)
	n := newTestNaver(fake.URL)

	_, err := n.ShoppingAudience(context.Background(), "50000167", "")
	if errx.KindOf(err) != errx.UpstreamDataMissing {
		t.Fatalf("expected UpstreamDataMissing, got %v", err)
	}
	if fake.Calls("/v1/datalab/shopping/category/gender") != 1 {
		t.Error("without a keyword the category endpoint is used")
	}
}

func TestSearchShop_LimiterTokenSpentPerCall(t *testing.T) {
	fake := testutil.NewNaverFake(t)
	fake.SetShop("q", testutil.ShopFixture{Total: 1, Prices: []string{"1000"}})
	id, secret := testutil.NaverCredentials()
	n := NewNaver(NaverConfig{ClientID: id, ClientSecret: secret, BaseURL: fake.URL}, nil, ratelimit.NewLimiter(0.01, 1))

	if _, err := n.SearchShop(context.Background(), "q", 10); err != nil {
		t.Fatalf("first call should use the available token: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := n.SearchShop(ctx, "q", 10); errx.KindOf(err) != errx.TransportFailure {
		t.Fatalf("second call should wait for a token and give up, got %v", err)
	}
	if got := fake.Calls("/v1/search/shop.json"); got != 1 {
		t.Errorf("shop calls = %d, want 1", got)
	}
}
