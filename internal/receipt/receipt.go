package receipt

import (
	"time"

	"github.com/zombor/fiscflow-ocr/internal/lineitems"
)

// Receipt represents an extracted receipt with metadata
type Receipt struct {
	ID          string           `json:"id"`
	Merchant    string           `json:"merchant"`
	Date        time.Time        `json:"date"`
	Amount      int              `json:"amount"` // Amount in cents
	Tax         int              `json:"tax"`    // Tax in cents
	Items       []lineitems.Item `json:"items"`
	Currency    string           `json:"currency"`
	Confidence  float64          `json:"confidence"`
	Valid       bool             `json:"valid"`
	RawText     string           `json:"raw_text,omitempty"`
	Filename    string           `json:"filename"`
	ContentType string           `json:"content_type"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Feedback is a user correction of an extracted receipt, kept only with consent
type Feedback struct {
	ID          string         `json:"id"`
	ReceiptID   string         `json:"receipt_id"`
	Corrections map[string]any `json:"corrections"`
	Consent     bool           `json:"consent"`
	CreatedAt   time.Time      `json:"created_at"`
}
