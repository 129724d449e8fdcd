// Package httpapi exposes the seller service over HTTP.
package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/guarzo/sellermargin/internal/seller"
)

// ServiceName is reported by the root status endpoint.
const ServiceName = "셀러마진 API"

// NewRouter wires every endpoint onto svc behind the CORS, logging and
// request id middleware.
func NewRouter(svc *seller.Service) http.Handler {
	h := &handlers{svc: svc}

	r := mux.NewRouter()
	r.HandleFunc("/", h.root).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.healthz).Methods(http.MethodGet)

	r.HandleFunc("/search", h.search).Methods(http.MethodGet)
	r.HandleFunc("/product-stats", h.productStats).Methods(http.MethodGet)
	r.HandleFunc("/category", h.category).Methods(http.MethodGet)
	r.HandleFunc("/trend", h.trend).Methods(http.MethodGet)
	r.HandleFunc("/season", h.season).Methods(http.MethodGet)
	r.HandleFunc("/target", h.target).Methods(http.MethodGet)
	r.HandleFunc("/compare", h.compare).Methods(http.MethodGet)
	r.HandleFunc("/analyze", h.analyze).Methods(http.MethodGet)

	r.HandleFunc("/domeggook/search", h.wholesale).Methods(http.MethodGet)
	r.HandleFunc("/kakao/send", h.kakaoSend).Methods(http.MethodPost)

	orders := r.PathPrefix("/orders").Subrouter()
	orders.HandleFunc("/smartstore", h.smartstoreOrders).Methods(http.MethodGet)
	orders.HandleFunc("/coupang", h.coupangOrders).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	return WithRequestID(WithLogging(WithCORS(r)))
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
}
