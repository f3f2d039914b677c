package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"docstore-payments/internal/config"
	"docstore-payments/internal/usecase"
)

type Server struct {
	checkout   usecase.CheckoutUseCase
	settlement usecase.SettlementUseCase
	discounts  usecase.DiscountUseCase
	auth       *AuthManager
	site       config.SiteConfig
	log        *zerolog.Logger
	server     *http.Server
}

func NewServer(
	checkout usecase.CheckoutUseCase,
	settlement usecase.SettlementUseCase,
	discounts usecase.DiscountUseCase,
	auth *AuthManager,
	site config.SiteConfig,
	log *zerolog.Logger,
) *Server {
	return &Server{
		checkout:   checkout,
		settlement: settlement,
		discounts:  discounts,
		auth:       auth,
		site:       site,
		log:        log,
	}
}

// Routes builds the full router. Split out of Start so tests can drive the
// handler tree directly.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/api/v1/payments", s.handleCreatePayment)
	r.Post("/api/v1/discounts/validate", s.handleValidateDiscount)

	r.Get("/payment/verify/zibal", s.handleZibalCallback)
	r.Get("/payment/verify/bitpay", s.handleBitPayCallback)
	r.Post("/webhook/bitpay", s.handleBitPayWebhook)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func (s *Server) Start(port int) error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.Routes(),
	}
	s.log.Info().Int("port", port).Msg("http server listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError is the uniform JSON failure shape. Messages passed here must
// already be user-safe; raw driver or gateway errors never reach it.
func writeError(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}
