package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/docufield/receipt-lens/internal/entity"
)

// ReceiptService is the business surface the HTTP layer depends on.
type ReceiptService interface {
	ProcessAndStore(ctx context.Context, imageBytes []byte, includeContent bool) (*entity.StoredReceipt, error)
	GetReceipt(ctx context.Context, id string) (*entity.StoredReceipt, error)
	ListReceipts(ctx context.Context, fromDate, toDate *time.Time) ([]*entity.StoredReceipt, error)
}

// Exporter produces XLSX workbooks for stored receipts.
type Exporter interface {
	ExportReceiptsXLSX(ctx context.Context, from, to *time.Time) ([]byte, error)
}

// Server exposes the receipt service over HTTP/JSON.
type Server struct {
	svc      ReceiptService
	exporter Exporter
	logger   *slog.Logger
}

func New(svc ReceiptService, exporter Exporter, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{svc: svc, exporter: exporter, logger: logger}
}

// Router builds the chi router with all receipt routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/v1/receipts", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Get("/", s.handleList)
		r.Get("/export.xlsx", s.handleExport)
		r.Get("/{id}", s.handleGet)
	})

	return r
}
