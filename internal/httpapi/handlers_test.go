package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/guarzo/sellermargin/internal/cache"
	"github.com/guarzo/sellermargin/internal/seller"
	"github.com/guarzo/sellermargin/internal/testutil"
	"github.com/guarzo/sellermargin/internal/upstream"
)

type testEnv struct {
	handler   http.Handler
	naver     *testutil.NaverFake
	domeggook *testutil.DomeggookFake
	kakao     *testutil.KakaoFake
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		naver:     testutil.NewNaverFake(t),
		domeggook: testutil.NewDomeggookFake(t),
		kakao:     testutil.NewKakaoFake(t),
	}

	id, secret := testutil.NaverCredentials()
	naver := upstream.NewNaver(upstream.NaverConfig{ClientID: id, ClientSecret: secret, BaseURL: env.naver.URL}, nil, nil)

	var keywords [12][]string
	keywords[2] = []string{"신학기가방", "패딩"}
	ranker := seller.NewSeasonRanker(naver, cache.NewMemoryStore(12, time.Hour), seller.SeasonOptions{
		Workers:  2,
		TTL:      time.Hour,
		Keywords: &keywords,
	})

	svc := seller.NewService(seller.Deps{
		Naver:     naver,
		Wholesale: upstream.NewDomeggook(env.domeggook.URL+"/", nil, nil),
		Messenger: upstream.NewKakao(env.kakao.URL, nil, nil),
		Seasons:   ranker,
	})
	env.handler = NewRouter(svc)
	return env
}

func (e *testEnv) do(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	var body map[string]any
	if rec.Code != http.StatusNoContent {
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode %s: %v (body %q)", req.URL, err, rec.Body.String())
		}
	}
	return rec, body
}

func (e *testEnv) get(t *testing.T, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	return e.do(t, httptest.NewRequest(http.MethodGet, target, nil))
}

func TestRoot(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.get(t, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body["status"] != "ok" || body["service"] != ServiceName {
		t.Errorf("body = %v", body)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("expected a generated request id")
	}

	_, body = env.get(t, "/healthz")
	if body["status"] != "ok" {
		t.Errorf("healthz body = %v", body)
	}
}

func TestRequestIDIsPropagated(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "abc-123")

	rec, _ := env.do(t, req)
	if got := rec.Header().Get("X-Request-Id"); got != "abc-123" {
		t.Errorf("X-Request-Id = %q", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodOptions, "/kakao/send", nil)
	req.Header.Set("Origin", "https://seller.example")
	req.Header.Set("Access-Control-Request-Headers", "X-Kakao-Access-Token, Content-Type")

	rec, _ := env.do(t, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing allow-origin")
	}
	if got := rec.Header().Get("Access-Control-Allow-Headers"); got != "X-Kakao-Access-Token, Content-Type" {
		t.Errorf("Access-Control-Allow-Headers = %q", got)
	}

	rec, _ = env.get(t, "/")
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("simple requests should carry CORS headers too")
	}
}

func TestMissingQueryIsBadRequest(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/search", "/product-stats", "/category", "/trend", "/target", "/compare", "/analyze?cost=1000", "/domeggook/search"} {
		rec, body := env.get(t, path)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, rec.Code)
		}
		if body["success"] != false || body["error"] == "" {
			t.Errorf("%s: body = %v", path, body)
		}
	}
}

func TestInvalidParams(t *testing.T) {
	env := newTestEnv(t)

	tests := []string{
		"/search?query=a&display=ten",
		"/search?query=a&include_trend=maybe",
		"/analyze?query=a",
		"/analyze?query=a&cost=abc",
		"/compare?query=a&mkt_ship=free",
		"/season?month=13",
		"/season?month=0",
		"/domeggook/search?query=a&page=x",
	}
	for _, path := range tests {
		if rec, _ := env.get(t, path); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, rec.Code)
		}
	}
}

func TestSearch(t *testing.T) {
	env := newTestEnv(t)
	env.naver.SetShop("텀블러", testutil.ShopFixture{Total: 42, Prices: []string{"10000", "20000"}})
	env.naver.SetTrend("텀블러", 100, 100, 160)

	rec, body := env.get(t, "/search?query=텀블러&include_trend=true")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body["success"] != true || body["avg_price"] != float64(15000) || body["competitor_count"] != float64(42) {
		t.Errorf("body = %v", body)
	}
	tr, ok := body["trend"].(map[string]any)
	if !ok || tr["success"] != true || tr["season"] != "성수기" {
		t.Errorf("trend = %v", body["trend"])
	}
}

func TestSearch_NestedTrendFailure(t *testing.T) {
	env := newTestEnv(t)
	env.naver.SetShop("텀블러", testutil.ShopFixture{Total: 1, Prices: []string{"10000"}})

	_, body := env.get(t, "/search?query=텀블러&include_trend=1")
	if body["success"] != true {
		t.Fatalf("price lookup should still succeed: %v", body)
	}
	tr, _ := body["trend"].(map[string]any)
	if tr["success"] != false || tr["error"] == "" {
		t.Errorf("expected nested failure, got %v", tr)
	}
}

func TestUpstreamFailureIsSuccessFalse(t *testing.T) {
	env := newTestEnv(t)
	env.naver.RejectCredentials()

	rec, body := env.get(t, "/search?query=텀블러")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if body["success"] != false || body["error"] == "" {
		t.Errorf("body = %v", body)
	}
}

func TestAnalyze(t *testing.T) {
	env := newTestEnv(t)
	env.naver.SetShop("텀블러", testutil.ShopFixture{Total: 3, Prices: []string{"15000", "20000", "25000"}})

	rec, body := env.get(t, "/analyze?query=텀블러&cost=5000")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	prices := body["market_prices"].(map[string]any)
	if prices["avg"] != float64(20000) || prices["min"] != float64(15000) {
		t.Fatalf("market_prices = %v", prices)
	}

	atAvg := body["margin_at_avg"].(map[string]any)["스마트스토어"].(map[string]any)
	if atAvg["fee"] != float64(1320) || atAvg["profit"] != float64(13680) || atAvg["margin"] != 68.4 {
		t.Errorf("margin_at_avg = %v", atAvg)
	}
	atMin := body["margin_at_min"].(map[string]any)["스마트스토어"].(map[string]any)
	if atMin["fee"] != float64(990) || atMin["profit"] != float64(9010) || atMin["margin"] != 60.1 {
		t.Errorf("margin_at_min = %v", atMin)
	}
	if len(body["margin_at_avg"].(map[string]any)) != 3 {
		t.Error("analyze uses the three-market table")
	}
}

func TestAnalyze_KeepsMarketOrder(t *testing.T) {
	env := newTestEnv(t)
	env.naver.SetShop("텀블러", testutil.ShopFixture{Total: 1, Prices: []string{"10000"}})

	rec, _ := env.get(t, "/analyze?query=텀블러&cost=1000")
	raw := rec.Body.String()
	order := []string{"스마트스토어", "쿠팡", "오픈마켓"}
	last := -1
	for _, market := range order {
		i := strings.Index(raw, `"`+market+`"`)
		if i <= last {
			t.Fatalf("market %q out of order in %s", market, raw)
		}
		last = i
	}
}

func TestCompare(t *testing.T) {
	env := newTestEnv(t)
	env.naver.SetShop("텀블러", testutil.ShopFixture{Total: 50, Prices: []string{"10000", "10000"}})
	env.naver.SetTrend("텀블러", 100, 100, 100)

	_, body := env.get(t, "/compare?query=텀블러&cost=2000")
	if body["success"] != true {
		t.Fatalf("body = %v", body)
	}
	margins := body["margins"].(map[string]any)
	if len(margins) != 8 {
		t.Errorf("got %d markets, want 8", len(margins))
	}
	if body["best_market"] != "카카오쇼핑" {
		t.Errorf("best_market = %v", body["best_market"])
	}
	// Default market shipping is 3000: 10000 - 550 - 2000 - 3000.
	kakao := margins["카카오쇼핑"].(map[string]any)
	if kakao["profit"] != float64(4450) {
		t.Errorf("profit = %v", kakao["profit"])
	}
	if tr := body["trend"].(map[string]any); tr["season"] != "보통" {
		t.Errorf("trend = %v", tr)
	}
}

func TestCategory_FallsBackWhenNothingFound(t *testing.T) {
	env := newTestEnv(t)

	_, body := env.get(t, "/category?query=없는상품")
	if body["success"] != true || body["category"] != "기타" {
		t.Errorf("body = %v", body)
	}
}

func TestTarget_NeverFails(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.get(t, "/target?query=텀블러&category=생활용품")
	if rec.Code != http.StatusOK || body["success"] != true {
		t.Fatalf("status = %d body = %v", rec.Code, body)
	}
	if body["query"] != "텀블러" {
		t.Errorf("query = %v", body["query"])
	}
}

func TestSeason(t *testing.T) {
	env := newTestEnv(t)
	march := make([]float64, 12)
	for i := range march {
		march[i] = 20
	}
	march[2] = 100
	env.naver.SetTrend("신학기가방", march...)
	env.naver.SetTrend("패딩", 80, 80, 10, 10, 10, 10, 10, 10, 10, 10, 80, 80)

	_, body := env.get(t, "/season?month=3")
	if body["success"] != true || body["month"] != float64(3) {
		t.Fatalf("body = %v", body)
	}
	keywords := body["keywords"].([]any)
	if len(keywords) != 2 {
		t.Fatalf("got %d keywords", len(keywords))
	}
	if first := keywords[0].(map[string]any); first["keyword"] != "신학기가방" {
		t.Errorf("first keyword = %v", first)
	}

	calls := env.naver.Calls("/v1/datalab/search")
	env.get(t, "/season?month=3")
	if env.naver.Calls("/v1/datalab/search") != calls {
		t.Error("second request should be served from cache")
	}
}

func TestWholesale(t *testing.T) {
	env := newTestEnv(t)
	env.domeggook.SetItems("텀블러", map[string]any{"no": "123", "name": "텀블러 500ml", "price": "3500"})

	req := httptest.NewRequest(http.MethodGet, "/domeggook/search?query=텀블러&page=2", nil)
	req.Header.Set("X-Domeggook-Key", testutil.DomeggookKey())
	_, body := env.do(t, req)

	if body["success"] != true || body["source"] != "도매꾹" || body["total"] != float64(1) {
		t.Fatalf("body = %v", body)
	}
	if env.domeggook.LastQuery().Get("pageNum") != "2" {
		t.Errorf("page not forwarded: %v", env.domeggook.LastQuery())
	}
}

func TestWholesale_MissingKey(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.get(t, "/domeggook/search?query=텀블러")
	if rec.Code != http.StatusOK || body["success"] != false {
		t.Errorf("status = %d body = %v", rec.Code, body)
	}
}

func TestOrders(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.get(t, "/orders/smartstore")
	if rec.Code != http.StatusOK || body["success"] != false {
		t.Errorf("missing keys: status = %d body = %v", rec.Code, body)
	}

	req := httptest.NewRequest(http.MethodGet, "/orders/coupang", nil)
	req.Header.Set("X-Coupang-Access-Key", "ak")
	req.Header.Set("X-Coupang-Secret-Key", "sk")
	rec, body = env.do(t, req)
	if rec.Code != http.StatusNotImplemented || body["success"] != false {
		t.Errorf("configured: status = %d body = %v", rec.Code, body)
	}
}

func TestKakaoSend(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/kakao/send", strings.NewReader(`{"text":"재고 알림","link":"https://example.com/item/1"}`))
	req.Header.Set("X-Kakao-Access-Token", testutil.KakaoToken())
	rec, body := env.do(t, req)

	if rec.Code != http.StatusOK || body["success"] != true {
		t.Fatalf("status = %d body = %v", rec.Code, body)
	}
	sent := env.kakao.Sent()
	if len(sent) != 1 || sent[0]["text"] != "재고 알림" {
		t.Errorf("sent = %v", sent)
	}
}

func TestKakaoSend_BadRequests(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"text":`},
		{"blank text", `{"text":"  "}`},
		{"empty body", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/kakao/send", strings.NewReader(tt.body))
			req.Header.Set("X-Kakao-Access-Token", testutil.KakaoToken())
			if rec, _ := env.do(t, req); rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
	if len(env.kakao.Sent()) != 0 {
		t.Error("nothing should have been sent")
	}
}

func TestUnknownRouteAndMethod(t *testing.T) {
	env := newTestEnv(t)

	if rec, _ := env.get(t, "/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown route status = %d", rec.Code)
	}
	if rec, _ := env.get(t, "/kakao/send"); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /kakao/send status = %d", rec.Code)
	}
}
