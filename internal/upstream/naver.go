package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/guarzo/sellermargin/internal/errx"
	"github.com/guarzo/sellermargin/internal/model"
	"github.com/guarzo/sellermargin/internal/ratelimit"
)

const (
	// MaxShopDisplay is the largest page the shopping search API accepts.
	MaxShopDisplay = 30

	naverAuthMessage    = "네이버 API 인증 실패: Client ID/Secret을 확인하세요. (설정 → 환경변수)"
	naverMissingMessage = "API 키 미설정"
	naverAuthErrorCode  = "024"
)

// NaverConfig holds the process-level Naver credentials.
type NaverConfig struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
}

// Naver calls the Naver open API (shopping search and DataLab).
type Naver struct {
	config NaverConfig
	client *client
	now    func() time.Time
}

// NewNaver creates a Naver client. hc may be nil.
func NewNaver(config NaverConfig, hc *http.Client, limiter *ratelimit.Limiter) *Naver {
	if config.BaseURL == "" {
		config.BaseURL = "https://openapi.naver.com"
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	return &Naver{
		config: config,
		client: newClient("naver", hc, limiter),
		now:    time.Now,
	}
}

// Available returns true if both credentials are configured
func (n *Naver) Available() bool {
	return n != nil && n.config.ClientID != "" && n.config.ClientSecret != ""
}

// ShopResult is one page of shopping search results.
type ShopResult struct {
	// Total is the provider's total hit count, or -1 when it was not reported.
	Total int
	Items []model.RawListing
}

// naverError is the error envelope shared by every Naver endpoint.
type naverError struct {
	ErrorMessage string `json:"errorMessage"`
	ErrorCode    string `json:"errorCode"`
}

// SearchShop runs a relevance-sorted shopping search. display is clamped
// to [1, MaxShopDisplay].
func (n *Naver) SearchShop(ctx context.Context, query string, display int) (*ShopResult, error) {
	if !n.Available() {
		return nil, errx.New(errx.ConfigurationMissing, naverMissingMessage)
	}

	display = ClampDisplay(display)
	params := url.Values{}
	params.Set("query", query)
	params.Set("display", strconv.Itoa(display))
	params.Set("sort", "sim")

	req, err := http.NewRequest(http.MethodGet, n.config.BaseURL+"/v1/search/shop.json?"+params.Encode(), nil)
	if err != nil {
		return nil, errx.Transport(fmt.Errorf("creating request: %w", err))
	}
	n.authorize(req)

	body, status, err := n.client.do(ctx, req)
	if err != nil {
		return nil, err
	}

	var resp struct {
		naverError
		Total *int                `json:"total"`
		Items *[]model.RawListing `json:"items"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errx.Transport(fmt.Errorf("decoding response (HTTP %d): %w", status, err))
	}

	if resp.Items == nil {
		return nil, n.failure(resp.naverError, status, "검색 실패")
	}

	result := &ShopResult{Total: -1, Items: *resp.Items}
	if resp.Total != nil {
		result.Total = *resp.Total
	}
	return result, nil
}

// ClampDisplay bounds a requested page size to what the search API allows.
func ClampDisplay(display int) int {
	if display < 1 {
		return 1
	}
	if display > MaxShopDisplay {
		return MaxShopDisplay
	}
	return display
}

func (n *Naver) authorize(req *http.Request) {
	req.Header.Set("X-Naver-Client-Id", n.config.ClientID)
	req.Header.Set("X-Naver-Client-Secret", n.config.ClientSecret)
}

// postJSON sends a DataLab request and returns the raw body and status.
func (n *Naver) postJSON(ctx context.Context, path string, payload any) ([]byte, int, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, errx.Transport(fmt.Errorf("encoding request: %w", err))
	}

	req, err := http.NewRequest(http.MethodPost, n.config.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, 0, errx.Transport(fmt.Errorf("creating request: %w", err))
	}
	n.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	return n.client.do(ctx, req)
}

// failure turns a payload-less Naver response into an error. Credential
// problems get a message the user can act on.
func (n *Naver) failure(e naverError, status int, fallback string) error {
	if e.ErrorCode == naverAuthErrorCode || strings.Contains(e.ErrorMessage, "Client ID") || status == http.StatusUnauthorized {
		return errx.New(errx.CredentialRejected, naverAuthMessage)
	}
	msg := e.ErrorMessage
	if msg == "" {
		msg = fallback
	}
	return errx.New(errx.UpstreamDataMissing, msg)
}

func dateWindow(now time.Time, days int) (string, string) {
	const layout = "2006-01-02"
	return now.AddDate(0, 0, -days).Format(layout), now.Format(layout)
}
