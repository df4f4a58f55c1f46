package entity

import (
	"time"

	"github.com/google/uuid"
)

// StoredReceipt is a persisted receipt record with its storage identity.
type StoredReceipt struct {
	ID        uuid.UUID     `json:"id"`
	Record    ReceiptRecord `json:"record"`
	CreatedAt time.Time     `json:"created_at"`
}
