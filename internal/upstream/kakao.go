package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/guarzo/sellermargin/internal/errx"
	"github.com/guarzo/sellermargin/internal/model"
	"github.com/guarzo/sellermargin/internal/ratelimit"
)

const (
	kakaoMemoPath       = "/v2/api/talk/memo/default/send"
	kakaoMissingMessage = "카카오 액세스 토큰 미설정. 설정 탭에서 입력해주세요."
	kakaoAuthMessage    = "카카오 인증 실패: 액세스 토큰을 다시 발급받아 주세요."

	// kakaoInvalidToken is Kakao's error code for an expired or bad token.
	kakaoInvalidToken = -401
)

// Kakao relays "send to me" memo messages with a caller-supplied token.
type Kakao struct {
	baseURL string
	client  *client
}

// NewKakao creates a Kakao client. hc may be nil.
func NewKakao(baseURL string, hc *http.Client, limiter *ratelimit.Limiter) *Kakao {
	if baseURL == "" {
		baseURL = "https://kapi.kakao.com"
	}
	return &Kakao{baseURL: strings.TrimRight(baseURL, "/"), client: newClient("kakao", hc, limiter)}
}

// SendMemo sends msg as a default text template to the token owner.
func (k *Kakao) SendMemo(ctx context.Context, accessToken string, msg model.Message) error {
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return errx.New(errx.ConfigurationMissing, kakaoMissingMessage)
	}

	// The text template requires a link object; an empty one is accepted.
	link := map[string]string{}
	if msg.Link != "" {
		link["web_url"] = msg.Link
		link["mobile_web_url"] = msg.Link
	}
	template, err := json.Marshal(map[string]any{
		"object_type": "text",
		"text":        msg.Text,
		"link":        link,
	})
	if err != nil {
		return errx.Transport(fmt.Errorf("encoding template: %w", err))
	}

	form := url.Values{}
	form.Set("template_object", string(template))

	req, err := http.NewRequest(http.MethodPost, k.baseURL+kakaoMemoPath, strings.NewReader(form.Encode()))
	if err != nil {
		return errx.Transport(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")

	body, status, err := k.client.do(ctx, req)
	if err != nil {
		return err
	}

	var resp struct {
		ResultCode *int   `json:"result_code"`
		Code       int    `json:"code"`
		Msg        string `json:"msg"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return errx.Transport(fmt.Errorf("decoding response (HTTP %d): %w", status, err))
	}

	if resp.ResultCode != nil && *resp.ResultCode == 0 {
		return nil
	}
	if resp.Code == kakaoInvalidToken || status == http.StatusUnauthorized {
		return errx.New(errx.CredentialRejected, kakaoAuthMessage)
	}
	return errx.New(errx.UpstreamDataMissing, firstNonEmpty(resp.Msg, "카카오 메시지 전송 실패"))
}
