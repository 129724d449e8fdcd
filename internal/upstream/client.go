// Package upstream talks to the third-party providers: Naver shopping
// search and DataLab, the Domeggook wholesale catalog and Kakao messaging.
// Every call is attempted exactly once.
package upstream

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/guarzo/sellermargin/internal/errx"
	"github.com/guarzo/sellermargin/internal/logx"
	"github.com/guarzo/sellermargin/internal/ratelimit"
)

const userAgent = "sellermargin/1.0"

// maxBodyBytes caps how much of an upstream body we read.
const maxBodyBytes = 8 << 20

// client is the transport shared by the provider clients.
type client struct {
	provider string
	http     *http.Client
	limiter  *ratelimit.Limiter
}

func newClient(provider string, hc *http.Client, limiter *ratelimit.Limiter) *client {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &client{provider: provider, http: hc, limiter: limiter}
}

// do sends req and returns the decoded body and status code. Any failure
// before a complete body is read is a TransportFailure.
func (c *client) do(ctx context.Context, req *http.Request) ([]byte, int, error) {
	if !c.limiter.Allow() {
		logx.Debug().Str("provider", c.provider).Msg("rate limited, waiting for a token")
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, 0, errx.Transport(fmt.Errorf("rate limiter: %w", err))
		}
	}

	req = req.WithContext(ctx)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Encoding", "gzip, br")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logx.Warn().Err(err).Str("provider", c.provider).Str("path", req.URL.Path).Msg("upstream request failed")
		return nil, 0, errx.Transport(err)
	}
	defer resp.Body.Close()

	reader, err := bodyReader(resp)
	if err != nil {
		return nil, resp.StatusCode, errx.Transport(fmt.Errorf("failed to create reader: %w", err))
	}

	body, err := io.ReadAll(io.LimitReader(reader, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, errx.Transport(fmt.Errorf("failed to read response: %w", err))
	}

	logx.Debug().
		Str("provider", c.provider).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("upstream call")

	return body, resp.StatusCode, nil
}

// bodyReader undoes the Content-Encoding we asked for. Setting
// Accept-Encoding ourselves turns off net/http's transparent gzip.
func bodyReader(resp *http.Response) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		return gzip.NewReader(resp.Body)
	case "br":
		return brotli.NewReader(resp.Body), nil
	default:
		return resp.Body, nil
	}
}
