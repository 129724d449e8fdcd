package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/guarzo/sellermargin/internal/errx"
	"github.com/guarzo/sellermargin/internal/margin"
	"github.com/guarzo/sellermargin/internal/model"
	"github.com/guarzo/sellermargin/internal/seller"
)

const (
	defaultDisplay      = 10
	compareMarketShip   = 3000
	maxMessageBodyBytes = 64 << 10
)

type handlers struct {
	svc *seller.Service
}

type statusResponse struct {
	Status  string `json:"status"`
	Service string `json:"service,omitempty"`
}

// Success envelopes. The embedded results flatten into the top level.
type (
	searchResponse struct {
		Success bool `json:"success"`
		*seller.SearchResult
	}
	productStatsResponse struct {
		Success bool `json:"success"`
		*seller.ProductStats
	}
	categoryResponse struct {
		Success bool `json:"success"`
		*model.CategoryResult
	}
	seasonResponse struct {
		Success bool `json:"success"`
		*seller.SeasonRanking
	}
	targetResponse struct {
		Success bool `json:"success"`
		*seller.TargetResult
	}
	compareResponse struct {
		Success bool `json:"success"`
		*seller.CompareResult
	}
	analyzeResponse struct {
		Success bool `json:"success"`
		*seller.AnalyzeResult
	}
	wholesaleResponse struct {
		Success bool `json:"success"`
		*seller.WholesaleResult
	}
	sentResponse struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
)

func (h *handlers) root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok", Service: ServiceName})
}

func (h *handlers) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (h *handlers) search(w http.ResponseWriter, r *http.Request) {
	query, err := requiredString(r, "query")
	if err != nil {
		writeError(w, r, err)
		return
	}
	display, err := intParam(r, "display", defaultDisplay)
	if err != nil {
		writeError(w, r, err)
		return
	}
	withTrend, err := boolParam(r, "include_trend", false)
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.svc.Search(r.Context(), query, display, withTrend)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{Success: true, SearchResult: result})
}

func (h *handlers) productStats(w http.ResponseWriter, r *http.Request) {
	query, err := requiredString(r, "query")
	if err != nil {
		writeError(w, r, err)
		return
	}
	stats, err := h.svc.ProductStats(r.Context(), query)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, productStatsResponse{Success: true, ProductStats: stats})
}

func (h *handlers) category(w http.ResponseWriter, r *http.Request) {
	query, err := requiredString(r, "query")
	if err != nil {
		writeError(w, r, err)
		return
	}
	result, err := h.svc.Category(r.Context(), query)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categoryResponse{Success: true, CategoryResult: result})
}

func (h *handlers) trend(w http.ResponseWriter, r *http.Request) {
	query, err := requiredString(r, "query")
	if err != nil {
		writeError(w, r, err)
		return
	}
	report, err := h.svc.Trend(r.Context(), query)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *handlers) season(w http.ResponseWriter, r *http.Request) {
	month, err := intParam(r, "month", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if r.URL.Query().Has("month") && (month < 1 || month > 12) {
		writeError(w, r, errx.New(errx.InvalidRequest, "month는 1~12 사이여야 합니다."))
		return
	}

	ranking, err := h.svc.Season(r.Context(), month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, seasonResponse{Success: true, SeasonRanking: ranking})
}

func (h *handlers) target(w http.ResponseWriter, r *http.Request) {
	query, err := requiredString(r, "query")
	if err != nil {
		writeError(w, r, err)
		return
	}
	result := h.svc.Target(r.Context(), query, r.URL.Query().Get("category"))
	writeJSON(w, http.StatusOK, targetResponse{Success: true, TargetResult: result})
}

func (h *handlers) compare(w http.ResponseWriter, r *http.Request) {
	query, err := requiredString(r, "query")
	if err != nil {
		writeError(w, r, err)
		return
	}
	costs, err := parseCosts(r, false, compareMarketShip)
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.svc.Compare(r.Context(), query, costs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, compareResponse{Success: true, CompareResult: result})
}

func (h *handlers) analyze(w http.ResponseWriter, r *http.Request) {
	query, err := requiredString(r, "query")
	if err != nil {
		writeError(w, r, err)
		return
	}
	costs, err := parseCosts(r, true, 0)
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.svc.Analyze(r.Context(), query, costs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analyzeResponse{Success: true, AnalyzeResult: result})
}

// parseCosts reads cost, sup_ship and mkt_ship. /analyze requires cost;
// /compare treats a missing cost as zero.
func parseCosts(r *http.Request, costRequired bool, marketShip float64) (margin.Costs, error) {
	var (
		c   margin.Costs
		err error
	)
	if costRequired {
		c.Cost, err = requiredFloat(r, "cost")
	} else {
		c.Cost, err = floatParam(r, "cost", 0)
	}
	if err != nil {
		return c, err
	}
	if c.SupplierShipping, err = floatParam(r, "sup_ship", 0); err != nil {
		return c, err
	}
	c.MarketShipping, err = floatParam(r, "mkt_ship", marketShip)
	return c, err
}

func (h *handlers) wholesale(w http.ResponseWriter, r *http.Request) {
	query, err := requiredString(r, "query")
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := intParam(r, "page", 1)
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.svc.Wholesale(r.Context(), r.Header.Get("X-Domeggook-Key"), query, page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wholesaleResponse{Success: true, WholesaleResult: result})
}

func (h *handlers) smartstoreOrders(w http.ResponseWriter, r *http.Request) {
	err := h.svc.SmartstoreOrders(r.Context(),
		r.Header.Get("X-Smartstore-Client-Id"),
		r.Header.Get("X-Smartstore-Client-Secret"))
	writeError(w, r, err)
}

func (h *handlers) coupangOrders(w http.ResponseWriter, r *http.Request) {
	err := h.svc.CoupangOrders(r.Context(),
		r.Header.Get("X-Coupang-Access-Key"),
		r.Header.Get("X-Coupang-Secret-Key"))
	writeError(w, r, err)
}

func (h *handlers) kakaoSend(w http.ResponseWriter, r *http.Request) {
	var msg model.Message
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageBodyBytes))
	if err := dec.Decode(&msg); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, errx.Wrap(errx.InvalidRequest, err, "요청 본문이 올바른 JSON이 아닙니다."))
		return
	}

	if err := h.svc.SendMessage(r.Context(), r.Header.Get("X-Kakao-Access-Token"), msg); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sentResponse{Success: true, Message: "전송 완료"})
}
