// Package web exposes the ledger engine over HTTP. It is a thin JSON
// translation layer: forms, input widgets and validation UX live with
// the callers, handlers only map requests onto engine operations.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/vadiminshakov/khata/internal/ledger"
)

// Server serves the ledger API.
type Server struct {
	Addr   string
	Ledger *ledger.Ledger

	logger *zap.Logger
}

// NewServer creates a server around an opened ledger.
func NewServer(addr string, l *ledger.Ledger, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{Addr: addr, Ledger: l, logger: logger}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/customers", func(r chi.Router) {
		r.Get("/", s.handleListCustomers)
		r.Post("/", s.handleCreateCustomer)
		r.Get("/{id}", s.handleGetCustomer)
		r.Put("/{id}", s.handleUpdateCustomer)
		r.Delete("/{id}", s.handleDeleteCustomer)
	})

	r.Post("/transactions", s.handleAddTransaction)

	r.Route("/shop", func(r chi.Router) {
		r.Get("/transactions", s.handleShopTransactions)
		r.Get("/cash-position", s.handleShopCashPosition)
	})

	r.Get("/rates", s.handleGetRates)
	r.Put("/rates/{metal}", s.handleUpdateRates)

	r.Route("/reports", func(r chi.Router) {
		r.Get("/summary", s.handleSummary)
		r.Get("/dues", s.handleDues)
		r.Get("/volume", s.handleVolume)
		r.Get("/daily", s.handleDaily)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Post("/clear-transactions", s.handleClearTransactions)
		r.Post("/clear-data", s.handleClearData)
	})

	return r
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is
// cancelled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("ledger API listening", zap.String("addr", s.Addr))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
