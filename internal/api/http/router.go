package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"storepos-backend/internal/config"
	"storepos-backend/internal/security"
)

// RouterOptions carries the transport knobs from the server config
type RouterOptions struct {
	RequestTimeout    time.Duration
	CommandRatePerSec float64
	CommandBurst      int
}

func OptionsFromConfig(cfg config.ServerConfig) RouterOptions {
	return RouterOptions{
		RequestTimeout:    time.Duration(cfg.RequestTimeoutSecs) * time.Second,
		CommandRatePerSec: cfg.CommandRatePerSec,
		CommandBurst:      cfg.CommandBurst,
	}
}

// NewRouter registers every endpoint listed in config.EndpointSecurityConfig
func NewRouter(h *Handler, tm security.TokenManager, opts RouterOptions) http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/healthz", h.Healthz).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/transactions/sale", h.CreateSale).Methods("POST")
	api.HandleFunc("/transactions/rental", h.CreateRental).Methods("POST")
	api.HandleFunc("/transactions/return", h.ProcessReturn).Methods("POST")
	api.HandleFunc("/transactions/{id}", h.GetTransaction).Methods("GET")
	api.HandleFunc("/rentals/outstanding", h.ListOutstandingRentals).Methods("GET")
	api.HandleFunc("/rentals/{id}", h.GetRental).Methods("GET")
	api.HandleFunc("/rentals/{id}/late-fee", h.GetLateFee).Methods("GET")
	api.HandleFunc("/customers/{phone}/rentals", h.ListCustomerRentals).Methods("GET")
	api.HandleFunc("/items/{id}/availability", h.CheckAvailability).Methods("GET")
	api.HandleFunc("/stats", h.GetStats).Methods("GET")

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, r, http.StatusNotFound, "NOT_FOUND", "no such endpoint")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})

	auth := &authMiddleware{tokenManager: tm}
	router.Use(
		tracing,
		recovery,
		auth.Middleware,
		commandRateLimit(rate.NewLimiter(rate.Limit(opts.CommandRatePerSec), opts.CommandBurst)),
		requestTimeout(opts.RequestTimeout),
	)

	return requestLogging(router)
}
