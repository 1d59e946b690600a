package receipt

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zombor/fiscflow-ocr/internal/scanning"
)

var (
	unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	repeatedSpaces      = regexp.MustCompile(`\s+`)
)

// IDGenerator generates unique IDs for receipts and feedback entries
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// uuidGenerator generates random UUIDs
type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles receipt operations
type Service struct {
	db              DB
	extractor       scanning.Extractor
	storage         Storage
	feedbackEnabled bool
	idGenerator     IDGenerator
	timeSource      TimeSource
}

// NewService creates a new Service with UUID identifiers and the wall clock
func NewService(db DB, extractor scanning.Extractor, storage Storage, feedbackEnabled bool) *Service {
	return NewServiceWithDeps(db, extractor, storage, feedbackEnabled, &uuidGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, extractor scanning.Extractor, storage Storage, feedbackEnabled bool, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:              db,
		extractor:       extractor,
		storage:         storage,
		feedbackEnabled: feedbackEnabled,
		idGenerator:     idGen,
		timeSource:      timeSrc,
	}
}

// sanitizeFilename cleans up a filename by removing special characters and truncating length
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	base = unsafeFilenameChars.ReplaceAllString(base, "")
	base = repeatedSpaces.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	// Phone cameras produce long names; 50 chars is plenty
	maxLen := 50
	if len(base) > maxLen {
		base = base[:maxLen]
	}

	if base == "" {
		base = "receipt"
	}

	ext = unsafeFilenameChars.ReplaceAllString(strings.TrimPrefix(ext, "."), "")
	if ext == "" {
		return base
	}
	return base + "." + ext
}

// toCents converts a dollar amount to integer cents, rounding half away from zero
func toCents(amount *float64) int {
	if amount == nil {
		return 0
	}
	return int(decimal.NewFromFloat(*amount).Shift(2).Round(0).IntPart())
}

// ProcessReceipt stores the upload, extracts its data and saves the receipt
func (s *Service) ProcessReceipt(ctx context.Context, filename string, data []byte, contentType string) (*Receipt, error) {
	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", id, sanitizeFilename(filename)), data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	receiptData, err := s.extractor.Extract(ctx, data, contentType)
	if err != nil {
		slog.Error("Failed to extract receipt",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		// Clean up the saved file since extraction failed
		if delErr := s.storage.Delete(savedPath); delErr != nil {
			slog.Warn("Failed to delete file", "filename", savedPath, "error", delErr)
		}
		return nil, fmt.Errorf("extracting receipt: %w", err)
	}

	date, err := time.Parse("2006-01-02", receiptData.Date)
	if err != nil {
		date = now
	}

	receipt := &Receipt{
		ID:          id,
		Merchant:    receiptData.Merchant,
		Date:        date,
		Amount:      toCents(receiptData.Total),
		Tax:         toCents(receiptData.Tax),
		Items:       receiptData.Items,
		Currency:    receiptData.Currency,
		Confidence:  receiptData.Confidence,
		Valid:       receiptData.Valid,
		RawText:     receiptData.RawText,
		Filename:    savedPath,
		ContentType: contentType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.db.SaveReceipt(receipt); err != nil {
		// Clean up file if database save fails
		if delErr := s.storage.Delete(savedPath); delErr != nil {
			slog.Warn("Failed to delete file", "filename", savedPath, "error", delErr)
		}
		return nil, fmt.Errorf("saving receipt to database: %w", err)
	}

	slog.Info("Processed receipt",
		"id", id,
		"merchant", receipt.Merchant,
		"items", len(receipt.Items),
		"valid", receipt.Valid,
	)

	return receipt, nil
}

// GetReceipt retrieves a receipt by ID
func (s *Service) GetReceipt(id string) (*Receipt, error) {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, fmt.Errorf("getting receipt: %w", err)
	}
	return receipt, nil
}

// ListReceipts returns all receipts
func (s *Service) ListReceipts() ([]*Receipt, error) {
	receipts, err := s.db.ListReceipts()
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}
	return receipts, nil
}

// DeleteReceipt removes a receipt and its file
func (s *Service) DeleteReceipt(id string) error {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return fmt.Errorf("getting receipt for deletion: %w", err)
	}

	if err := s.storage.Delete(receipt.Filename); err != nil {
		// Log error but continue with database deletion
		slog.Warn("Failed to delete file", "filename", receipt.Filename, "error", err)
	}

	if err := s.db.DeleteReceipt(id); err != nil {
		return fmt.Errorf("deleting receipt from database: %w", err)
	}
	return nil
}

// GetReceiptFile retrieves the file data for a receipt
func (s *Service) GetReceiptFile(id string) ([]byte, string, error) {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting receipt: %w", err)
	}

	data, err := s.storage.Get(receipt.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("getting receipt file: %w", err)
	}

	return data, receipt.ContentType, nil
}

// SubmitFeedback records corrections for a receipt. Nothing is stored, and
// false is returned, unless feedback collection is enabled and the user
// consented.
func (s *Service) SubmitFeedback(receiptID string, corrections map[string]any, consent bool) (bool, error) {
	if !s.feedbackEnabled || !consent {
		return false, nil
	}

	if _, err := s.db.GetReceipt(receiptID); err != nil {
		return false, fmt.Errorf("getting receipt: %w", err)
	}

	feedback := &Feedback{
		ID:          s.idGenerator.Generate(),
		ReceiptID:   receiptID,
		Corrections: corrections,
		Consent:     consent,
		CreatedAt:   s.timeSource.Now(),
	}
	if err := s.db.AppendFeedback(feedback); err != nil {
		return false, fmt.Errorf("saving feedback: %w", err)
	}

	return true, nil
}

// ListFeedback returns all stored feedback entries
func (s *Service) ListFeedback() ([]*Feedback, error) {
	entries, err := s.db.ListFeedback()
	if err != nil {
		return nil, fmt.Errorf("listing feedback: %w", err)
	}
	return entries, nil
}
