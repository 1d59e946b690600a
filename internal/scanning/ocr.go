package scanning

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/zombor/fiscflow-ocr/internal/fields"
	"github.com/zombor/fiscflow-ocr/internal/lineitems"
	"github.com/zombor/fiscflow-ocr/internal/ocr"
)

const defaultTimeout = 30 * time.Second

// Validator decides whether extracted data is trustworthy
type Validator interface {
	Validate(data *ReceiptData) bool
}

// DefaultValidator applies ReceiptData.Validate
type DefaultValidator struct{}

// Validate checks merchant presence and item/total consistency
func (DefaultValidator) Validate(data *ReceiptData) bool {
	return data.Validate()
}

// OCRExtractor implements the Extractor interface on top of a text
// recognition service and the line item heuristics
type OCRExtractor struct {
	provider     string
	recognizer   ocr.Recognizer
	options      lineitems.Options
	preprocessor Preprocessor
	validator    Validator
	timeout      time.Duration
}

// NewOCRExtractor creates an OCRExtractor that converts uploads to PNG and
// validates results with DefaultValidator
func NewOCRExtractor(provider string, recognizer ocr.Recognizer, options lineitems.Options, timeout time.Duration) *OCRExtractor {
	return NewOCRExtractorWithHooks(provider, recognizer, options, timeout, PNGPreprocessor{}, DefaultValidator{})
}

// NewOCRExtractorWithHooks creates an OCRExtractor with custom preprocessing and validation
func NewOCRExtractorWithHooks(provider string, recognizer ocr.Recognizer, options lineitems.Options, timeout time.Duration, preprocessor Preprocessor, validator Validator) *OCRExtractor {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &OCRExtractor{
		provider:     provider,
		recognizer:   recognizer,
		options:      options,
		preprocessor: preprocessor,
		validator:    validator,
		timeout:      timeout,
	}
}

// Extract recognizes the receipt image and assembles its data
func (e *OCRExtractor) Extract(ctx context.Context, imageData []byte, contentType string) (*ReceiptData, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	finalImageData, mimeType, err := e.preprocessor.Preprocess(imageData, contentType)
	if err != nil {
		return nil, &ExtractionError{Provider: e.provider, Err: err}
	}

	annotation, err := e.recognizer.Recognize(ctx, finalImageData, mimeType)
	if err != nil {
		return nil, &ExtractionError{Provider: e.provider, Err: fmt.Errorf("recognizing text: %w", err)}
	}

	data := Assemble(annotation, e.options)
	data.Valid = e.validator.Validate(data)

	slog.Debug("Extracted receipt",
		"provider", e.provider,
		"words", annotation.WordCount(),
		"items", len(data.Items),
		"valid", data.Valid,
	)

	return data, nil
}

// Close closes the underlying recognizer
func (e *OCRExtractor) Close() error {
	return e.recognizer.Close()
}

// Assemble builds receipt data from a recognized annotation: line items
// from the token geometry, header and footer values from the full text
func Assemble(annotation *ocr.Annotation, options lineitems.Options) *ReceiptData {
	if annotation == nil {
		annotation = &ocr.Annotation{}
	}

	data := &ReceiptData{
		Items:      lineitems.Extract(annotation, options),
		Currency:   "USD",
		Confidence: meanWordConfidence(annotation),
		RawText:    annotation.Text,
	}

	data.Merchant, _ = fields.Merchant(annotation.Text)
	if d, ok := fields.Date(annotation.Text); ok {
		data.Date = d.Format("2006-01-02")
	}
	if total, ok := fields.Total(annotation.Text); ok {
		data.Total = &total
	}
	if tax, ok := fields.Tax(annotation.Text); ok {
		data.Tax = &tax
	}

	return data
}

func meanWordConfidence(a *ocr.Annotation) float64 {
	var sum float64
	count := 0
	for _, page := range a.Pages {
		for _, block := range page.Blocks {
			for _, para := range block.Paragraphs {
				for _, w := range para.Words {
					sum += w.Confidence
					count++
				}
			}
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
