package receipts

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/docufield/receipt-lens/internal/common"
	"github.com/docufield/receipt-lens/internal/entity"
	"github.com/docufield/receipt-lens/internal/mapper"
	"github.com/docufield/receipt-lens/internal/repository"
)

// Service handles receipt analysis business logic.
type Service struct {
	analyzer    Analyzer
	mapper      *mapper.Mapper
	receiptRepo repository.ReceiptRepository
	modelID     string
	logger      *slog.Logger
}

// NewService creates a new receipt service. receiptRepo may be nil for
// callers that only need the in-memory record (e.g. the one-shot CLI).
func NewService(analyzer Analyzer, m *mapper.Mapper, receiptRepo repository.ReceiptRepository, modelID string, logger *slog.Logger) *Service {
	if m == nil {
		m = mapper.New(mapper.Config{})
	}
	if modelID == "" {
		modelID = "prebuilt-receipt"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		analyzer:    analyzer,
		mapper:      m,
		receiptRepo: receiptRepo,
		modelID:     modelID,
		logger:      logger,
	}
}

// ProcessImage analyzes one receipt image and maps the result. The image
// must be non-empty; that is checked before any remote call is made.
func (s *Service) ProcessImage(ctx context.Context, imageBytes []byte, includeContent bool) (*entity.ReceiptRecord, error) {
	if len(imageBytes) == 0 {
		s.logger.Error("process image called with empty payload")
		return nil, common.NewAppError("INVALID_INPUT", "image payload is empty", common.ErrInvalidInput)
	}

	start := time.Now()
	s.logger.Info("receipts.process.start", "model_id", s.modelID, "image_bytes", len(imageBytes), "include_content", includeContent)

	result, err := s.analyzer.Analyze(ctx, s.modelID, imageBytes)
	if err != nil {
		s.logger.Error("receipts.process.analyze_failed", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}

	record := s.mapper.Map(result, includeContent)
	s.logger.Info("receipts.process.ok",
		"classification", record.Summary.Classification,
		"items", len(record.Items),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return record, nil
}

// ProcessAndStore analyzes one receipt image and persists the mapped record.
func (s *Service) ProcessAndStore(ctx context.Context, imageBytes []byte, includeContent bool) (*entity.StoredReceipt, error) {
	record, err := s.ProcessImage(ctx, imageBytes, includeContent)
	if err != nil {
		return nil, err
	}
	if s.receiptRepo == nil {
		return nil, common.NewAppError("CONFIG_ERROR", "no receipt repository configured", common.ErrInternal)
	}
	stored, err := s.receiptRepo.Save(ctx, record)
	if err != nil {
		s.logger.Error("receipts.process.save_failed", "error", err)
		return nil, err
	}
	return stored, nil
}

// GetReceipt returns one stored receipt by id.
func (s *Service) GetReceipt(ctx context.Context, id string) (*entity.StoredReceipt, error) {
	rid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return s.receiptRepo.GetByID(ctx, rid)
}

// ListReceipts returns stored receipts inside an optional date window.
func (s *Service) ListReceipts(ctx context.Context, fromDate, toDate *time.Time) ([]*entity.StoredReceipt, error) {
	recs, err := s.receiptRepo.ListReceipts(ctx, fromDate, toDate)
	if err != nil {
		s.logger.Error("failed to list receipts", "error", err)
		return nil, err
	}
	s.logger.Info("receipts listed", "count", len(recs))
	return recs, nil
}

func parseID(id string) (uuid.UUID, error) {
	rid, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, common.NewAppError("INVALID_INPUT", "receipt id must be a UUID", common.ErrInvalidInput)
	}
	return rid, nil
}
