package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Classification is the receipt-likeness verdict for one analyzed image.
type Classification string

const (
	ClassificationLooksLikeReceipt Classification = "LOOKS_LIKE_RECEIPT"
	ClassificationProbablyReceipt  Classification = "PROBABLY_RECEIPT"
	ClassificationUncertain        Classification = "UNCERTAIN"
	ClassificationNotAReceipt      Classification = "NOT_A_RECEIPT"
)

// Amount is a monetary value rounded to 2 fractional digits. CurrencyCode is
// nil when the source field was a plain number rather than a currency field.
type Amount struct {
	Value        decimal.Decimal `json:"value"`
	CurrencyCode *string         `json:"currency_code,omitempty"`
}

// Summary holds the top-level fields extracted from one receipt. Every
// pointer field is nil when the service did not extract it or its confidence
// fell below the minimum-field threshold; absence is expected, not an error.
type Summary struct {
	Classification  Classification `json:"classification"`
	MerchantName    *string        `json:"merchant_name,omitempty"`
	MerchantAddress *string        `json:"merchant_address,omitempty"`
	MerchantPhone   *string        `json:"merchant_phone,omitempty"`
	TransactionDate *time.Time     `json:"tx_date,omitempty"`
	TransactionTime *string        `json:"tx_time,omitempty"` // HH:MM:SS
	Subtotal        *Amount        `json:"subtotal,omitempty"`
	Tax             *Amount        `json:"tax,omitempty"`
	Total           *Amount        `json:"total,omitempty"`
}

// LineItem is one purchased item. Confidence is the service's score for the
// whole item row, carried through unmodified.
type LineItem struct {
	Description *string          `json:"description,omitempty"`
	Quantity    *decimal.Decimal `json:"quantity,omitempty"`
	UnitPrice   *Amount          `json:"unit_price,omitempty"`
	TotalPrice  *Amount          `json:"total_price,omitempty"`
	Confidence  float64          `json:"confidence"`
}

// ModelInfo identifies the analysis model that produced a record.
type ModelInfo struct {
	Provider     string `json:"provider"`
	ModelID      string `json:"model_id"`
	ModelVersion string `json:"model_version"`
}

// ReceiptRecord is the normalized output of one analysis call. It is built
// once and never mutated afterwards.
type ReceiptRecord struct {
	Summary           Summary    `json:"summary"`
	Items             []LineItem `json:"items"`
	RawContent        *string    `json:"raw_content,omitempty"`
	ContentConfidence *float64   `json:"content_confidence,omitempty"`
	Model             ModelInfo  `json:"model"`
}
