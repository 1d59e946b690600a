package scanning

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/zombor/fiscflow-ocr/internal/lineitems"
)

// ReceiptData contains extracted information from a receipt
type ReceiptData struct {
	Merchant   string           `json:"merchant"`
	Date       string           `json:"date,omitempty"` // ISO 8601 format
	Total      *float64         `json:"total,omitempty"`
	Tax        *float64         `json:"tax,omitempty"`
	Items      []lineitems.Item `json:"items"`
	Currency   string           `json:"currency"`
	Confidence float64          `json:"confidence"` // Mean recognition confidence of all words
	RawText    string           `json:"raw_text"`
	Valid      bool             `json:"valid"`
}

// ItemsTotal sums the total price of all items
func (d *ReceiptData) ItemsTotal() float64 {
	sum := decimal.Zero
	for _, item := range d.Items {
		sum = sum.Add(decimal.NewFromFloat(item.TotalPrice))
	}
	return sum.InexactFloat64()
}

// Validate checks the extracted data for consistency: a merchant must be
// present, and when both a total and items exist the items must add up to
// within 10% of the total
func (d *ReceiptData) Validate() bool {
	if d.Merchant == "" {
		return false
	}

	if d.Total != nil && *d.Total != 0 && len(d.Items) > 0 {
		total := decimal.NewFromFloat(*d.Total)
		diff := decimal.NewFromFloat(d.ItemsTotal()).Sub(total).Abs()
		if diff.GreaterThan(total.Mul(decimal.NewFromFloat(0.1))) {
			return false
		}
	}

	return true
}

// Extractor defines the interface for receipt extraction providers
type Extractor interface {
	// Extract analyzes a receipt image/PDF and extracts its data.
	// A receipt without recognizable items is not an error.
	Extract(ctx context.Context, imageData []byte, contentType string) (*ReceiptData, error)
	// Close closes the extractor and releases resources
	Close() error
}

// ErrUnknownProvider is returned when the configured provider does not exist
var ErrUnknownProvider = errors.New("unknown provider")

// ExtractionError is a failure of the recognition step, as opposed to a
// receipt that simply has no items
type ExtractionError struct {
	Provider string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s extraction failed: %v", e.Provider, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
