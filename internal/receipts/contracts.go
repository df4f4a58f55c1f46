package receipts

import (
	"context"

	"github.com/docufield/receipt-lens/internal/docintel"
)

// Analyzer is the external document-understanding capability. The service
// depends on this interface, not on a concrete client.
//
//go:generate mockgen -destination=mocks/mock_analyzer.go -package=mocks -source=contracts.go Analyzer
type Analyzer interface {
	Analyze(ctx context.Context, modelID string, imageBytes []byte) (*docintel.AnalyzeResult, error)
}
