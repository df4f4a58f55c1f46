package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/docufield/receipt-lens/internal/common"
	"github.com/docufield/receipt-lens/internal/utils"
)

// maxImageBytes bounds the uploaded payload; the analysis service rejects
// larger images anyway.
const maxImageBytes = 32 << 20

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	includeContent := queryFlag(r, "include_content")

	imageBytes, err := io.ReadAll(io.LimitReader(r.Body, maxImageBytes))
	if err != nil {
		s.writeError(w, common.NewAppError("INVALID_INPUT", "failed to read request body", common.ErrInvalidInput))
		return
	}

	stored, err := s.svc.ProcessAndStore(r.Context(), imageBytes, includeContent)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, stored)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	stored, err := s.svc.GetReceipt(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stored)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	fromDate, toDate, err := dateWindow(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	recs, err := s.svc.ListReceipts(r.Context(), fromDate, toDate)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"receipts": recs, "count": len(recs)})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	fromDate, toDate, err := dateWindow(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	data, err := s.exporter.ExportReceiptsXLSX(r.Context(), fromDate, toDate)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="receipts.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func dateWindow(r *http.Request) (*time.Time, *time.Time, error) {
	var fromDate, toDate *time.Time
	if v := r.URL.Query().Get("from"); v != "" {
		d, err := utils.ParseYMD(v)
		if err != nil {
			return nil, nil, common.NewAppError("INVALID_INPUT", fmt.Sprintf("from invalid (YYYY-MM-DD): %v", err), common.ErrInvalidInput)
		}
		fromDate = &d
	}
	if v := r.URL.Query().Get("to"); v != "" {
		d, err := utils.ParseYMD(v)
		if err != nil {
			return nil, nil, common.NewAppError("INVALID_INPUT", fmt.Sprintf("to invalid (YYYY-MM-DD): %v", err), common.ErrInvalidInput)
		}
		toDate = &d
	}
	return fromDate, toDate, nil
}

func queryFlag(r *http.Request, name string) bool {
	switch r.URL.Query().Get(name) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var analysisErr *common.AnalysisError
	switch {
	case errors.Is(err, common.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, common.ErrNotFound):
		status = http.StatusNotFound
	case errors.As(err, &analysisErr):
		switch analysisErr.Kind {
		case common.AnalysisInvalidRequest:
			status = http.StatusUnprocessableEntity
		default:
			status = http.StatusBadGateway
		}
	}

	if status >= 500 {
		s.logger.Error("request failed", "status", status, "error", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
