package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/guarzo/sellermargin/internal/errx"
	"github.com/guarzo/sellermargin/internal/model"
	"github.com/guarzo/sellermargin/internal/ratelimit"
)

const (
	domeggookPageSize   = 20
	domeggookAPIVersion = "6.1"
	domeggookItemURL    = "https://domeggook.com/main/item/itemView.php?aid="

	domeggookMissingMessage = "도매꾹 API 키 미설정. 설정 탭에서 입력해주세요."
)

// Domeggook searches the Domeggook wholesale catalog. The API key belongs
// to the caller and is passed per request.
type Domeggook struct {
	baseURL string
	client  *client
}

// NewDomeggook creates a Domeggook client. hc may be nil.
func NewDomeggook(baseURL string, hc *http.Client, limiter *ratelimit.Limiter) *Domeggook {
	if baseURL == "" {
		baseURL = "https://domeggook.com/ssl/api/"
	}
	return &Domeggook{baseURL: baseURL, client: newClient("domeggook", hc, limiter)}
}

// WholesalePage is one page of wholesale search results.
type WholesalePage struct {
	Items []model.WholesaleItem
	Total int
}

type domeggookItem struct {
	No       model.FlexString `json:"no"`
	Name     string           `json:"name"`
	Price    model.FlexString `json:"price"`
	Stock    model.FlexString `json:"stock"`
	Seller   string           `json:"seller"`
	Image    string           `json:"img"`
	Category string           `json:"category"`
	MinQty   model.FlexString `json:"minQty"`
}

// SearchItems runs a keyword search. page values below 1 become 1.
func (d *Domeggook) SearchItems(ctx context.Context, apiKey, query string, page int) (*WholesalePage, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errx.New(errx.ConfigurationMissing, domeggookMissingMessage)
	}
	if page < 1 {
		page = 1
	}

	params := url.Values{}
	params.Set("ver", domeggookAPIVersion)
	params.Set("cmd", "getItemList")
	params.Set("aid", apiKey)
	params.Set("keyword", query)
	params.Set("pageNum", strconv.Itoa(page))
	params.Set("pageSize", strconv.Itoa(domeggookPageSize))
	params.Set("out", "json")

	req, err := http.NewRequest(http.MethodGet, d.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, errx.Transport(fmt.Errorf("creating request: %w", err))
	}

	body, status, err := d.client.do(ctx, req)
	if err != nil {
		return nil, err
	}

	var resp struct {
		List       []domeggookItem  `json:"list"`
		TotalCount model.FlexString `json:"totalCount"`
		Message    string           `json:"message"`
		ErrMsg     string           `json:"errMsg"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errx.Transport(fmt.Errorf("decoding response (HTTP %d): %w", status, err))
	}

	if resp.List == nil {
		// An empty search comes back without a list; an error comes back
		// with a message instead.
		if msg := firstNonEmpty(resp.ErrMsg, resp.Message); msg != "" {
			if status == http.StatusUnauthorized || status == http.StatusForbidden {
				return nil, errx.New(errx.CredentialRejected, "도매꾹 API 인증 실패: "+msg)
			}
			return nil, errx.New(errx.UpstreamDataMissing, msg)
		}
	}

	result := &WholesalePage{Items: make([]model.WholesaleItem, 0, len(resp.List))}
	result.Total, _ = strconv.Atoi(string(resp.TotalCount))
	for _, it := range resp.List {
		price, _ := strconv.Atoi(string(it.Price))
		minOrder, err := strconv.Atoi(string(it.MinQty))
		if err != nil || minOrder < 1 {
			minOrder = 1
		}
		var stock *int
		if n, err := strconv.Atoi(string(it.Stock)); err == nil {
			stock = &n
		}
		result.Items = append(result.Items, model.WholesaleItem{
			ID:       string(it.No),
			Name:     it.Name,
			Price:    price,
			Stock:    stock,
			Supplier: it.Seller,
			Image:    it.Image,
			Link:     domeggookItemURL + string(it.No),
			Category: it.Category,
			MinOrder: minOrder,
		})
	}
	return result, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
