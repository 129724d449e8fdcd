package seller

import (
	"context"
	"strings"

	"github.com/guarzo/sellermargin/internal/errx"
	"github.com/guarzo/sellermargin/internal/model"
)

const wholesaleSource = "도매꾹"

// Wholesale searches the wholesale catalog with the caller's key.
func (s *Service) Wholesale(ctx context.Context, apiKey, query string, page int) (*WholesaleResult, error) {
	result, err := s.wholesale.SearchItems(ctx, apiKey, query, page)
	if err != nil {
		return nil, err
	}
	return &WholesaleResult{Source: wholesaleSource, Items: result.Items, Total: result.Total}, nil
}

// SendMessage relays msg to the owner of accessToken.
func (s *Service) SendMessage(ctx context.Context, accessToken string, msg model.Message) error {
	if strings.TrimSpace(msg.Text) == "" {
		return errx.New(errx.InvalidRequest, "text는 필수입니다.")
	}
	return s.messenger.SendMemo(ctx, accessToken, msg)
}

// SmartstoreOrders will list Smartstore orders. Credentials are checked
// so callers can validate their setup, but the lookup is not built yet.
func (s *Service) SmartstoreOrders(_ context.Context, clientID, clientSecret string) error {
	if strings.TrimSpace(clientID) == "" || strings.TrimSpace(clientSecret) == "" {
		return errx.New(errx.ConfigurationMissing, "스마트스토어 API 키 미설정. 설정 탭에서 입력해주세요.")
	}
	return errx.New(errx.NotImplemented, "스마트스토어 주문 조회는 아직 지원하지 않습니다.")
}

// CoupangOrders will list Coupang orders. See SmartstoreOrders.
func (s *Service) CoupangOrders(_ context.Context, accessKey, secretKey string) error {
	if strings.TrimSpace(accessKey) == "" || strings.TrimSpace(secretKey) == "" {
		return errx.New(errx.ConfigurationMissing, "쿠팡 API 키 미설정. 설정 탭에서 입력해주세요.")
	}
	return errx.New(errx.NotImplemented, "쿠팡 주문 조회는 아직 지원하지 않습니다.")
}
