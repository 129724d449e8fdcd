package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
)

// DomeggookFake answers getItemList calls for a single valid key.
type DomeggookFake struct {
	*httptest.Server

	mu    sync.Mutex
	items map[string][]map[string]any
	last  url.Values
}

// NewDomeggookFake starts a fake closed at test cleanup.
func NewDomeggookFake(t testing.TB) *DomeggookFake {
	t.Helper()
	f := &DomeggookFake{items: make(map[string][]map[string]any)}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

// SetItems registers the raw catalog entries returned for keyword.
func (f *DomeggookFake) SetItems(keyword string, items ...map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[keyword] = items
}

// LastQuery returns the parameters of the most recent request.
func (f *DomeggookFake) LastQuery() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

func (f *DomeggookFake) serve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f.mu.Lock()
	f.last = q
	items, ok := f.items[q.Get("keyword")]
	f.mu.Unlock()

	if q.Get("aid") != DomeggookKey() {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"errMsg": "invalid aid"})
		return
	}
	if !ok {
		// Domeggook omits the list entirely for an empty search.
		writeJSON(w, http.StatusOK, map[string]any{"totalCount": "0"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"list":       items,
		"totalCount": strconv.Itoa(len(items)),
	})
}

// KakaoFake accepts memo sends for a single valid token.
type KakaoFake struct {
	*httptest.Server

	mu   sync.Mutex
	sent []map[string]any
}

// NewKakaoFake starts a fake closed at test cleanup.
func NewKakaoFake(t testing.TB) *KakaoFake {
	t.Helper()
	f := &KakaoFake{}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

// Sent returns the decoded template objects received so far.
func (f *KakaoFake) Sent() []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]any(nil), f.sent...)
}

func (f *KakaoFake) serve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || r.URL.Path != "/v2/api/talk/memo/default/send" {
		writeJSON(w, http.StatusNotFound, map[string]any{"msg": "not found", "code": -404})
		return
	}
	if r.Header.Get("Authorization") != "Bearer "+KakaoToken() {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"msg": "this access token does not exist", "code": -401})
		return
	}
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"msg": err.Error(), "code": -2})
		return
	}

	var template map[string]any
	if err := json.Unmarshal([]byte(r.PostForm.Get("template_object")), &template); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"msg": "invalid template_object", "code": -2})
		return
	}

	f.mu.Lock()
	f.sent = append(f.sent, template)
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"result_code": 0})
}
