package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/guarzo/sellermargin/internal/errx"
	"github.com/guarzo/sellermargin/internal/logx"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logx.Error().Err(err).Msg("encode response")
	}
}

// writeError reports err in the {success:false,error} envelope. Upstream
// failures keep status 200; request problems map through errx.Status.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errx.Status(err)
	logx.Warn().
		Err(err).
		Str("kind", errx.KindOf(err).String()).
		Str("path", r.URL.Path).
		Str("request_id", RequestIDFromContext(r.Context())).
		Msg("request failed")
	writeJSON(w, status, errorResponse{Success: false, Error: errx.Message(err)})
}
