package lineitems

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultSkipKeywords marks lines that carry totals, tax or payment metadata
var DefaultSkipKeywords = []string{
	"subtotal", "total", "tax", "change", "cash", "credit", "debit",
	"visa", "mastercard", "thank you", "receipt", "date", "time",
	"approved", "customer", "member", "number", "reference", "invoice",
}

// Options holds the layout dependent thresholds of the extraction
type Options struct {
	// LineMergeDistance is the maximum vertical centroid distance for two
	// tokens of a paragraph to share a line, in the service's pixel scale
	LineMergeDistance float64 `yaml:"line_merge_distance"`
	// LookbackWindow is the number of preceding lines searched for a name
	LookbackWindow int `yaml:"lookback_window"`
	// MaxBareItemPrice is the largest bare price that may borrow a name from
	// a preceding line. Larger bare amounts are taken to be totals.
	MaxBareItemPrice float64 `yaml:"max_bare_item_price"`
	// ItemConfidence is the confidence assigned to every emitted item
	ItemConfidence float64 `yaml:"item_confidence"`
	// ConfidenceFromTokens replaces ItemConfidence with the mean confidence
	// of the name and price tokens
	ConfidenceFromTokens bool     `yaml:"confidence_from_tokens"`
	SkipKeywords         []string `yaml:"skip_keywords"`
}

// DefaultOptions returns the thresholds tuned for Google Vision receipt scans
func DefaultOptions() Options {
	keywords := make([]string, len(DefaultSkipKeywords))
	copy(keywords, DefaultSkipKeywords)
	return Options{
		LineMergeDistance: 15,
		LookbackWindow:    10,
		MaxBareItemPrice:  50.0,
		ItemConfidence:    0.8,
		SkipKeywords:      keywords,
	}
}

// Validate checks that the thresholds are usable
func (o Options) Validate() error {
	if o.LineMergeDistance <= 0 {
		return fmt.Errorf("line_merge_distance must be positive, got %v", o.LineMergeDistance)
	}
	if o.LookbackWindow <= 0 {
		return fmt.Errorf("lookback_window must be positive, got %d", o.LookbackWindow)
	}
	if o.MaxBareItemPrice < 0 {
		return fmt.Errorf("max_bare_item_price must not be negative, got %v", o.MaxBareItemPrice)
	}
	if o.ItemConfidence < 0 || o.ItemConfidence > 1 {
		return fmt.Errorf("item_confidence must be between 0 and 1, got %v", o.ItemConfidence)
	}
	return nil
}

// ParseOptions decodes a YAML extraction profile on top of DefaultOptions
func ParseOptions(data []byte) (Options, error) {
	opts := DefaultOptions()
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return Options{}, fmt.Errorf("unmarshaling profile: %w", err)
	}
	if err := opts.Validate(); err != nil {
		return Options{}, fmt.Errorf("invalid profile: %w", err)
	}
	return opts, nil
}

// LoadOptions reads a YAML extraction profile from disk
func LoadOptions(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("reading profile: %w", err)
	}
	return ParseOptions(data)
}
