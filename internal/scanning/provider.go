package scanning

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zombor/fiscflow-ocr/internal/lineitems"
	"github.com/zombor/fiscflow-ocr/internal/ocr"
)

const (
	// ProviderGoogleVision selects Google Cloud Vision document text detection
	ProviderGoogleVision = "google_vision"
	// ProviderDocumentAI selects a Google Document AI OCR processor
	ProviderDocumentAI = "document_ai"
)

// Providers lists the supported provider names
var Providers = []string{ProviderGoogleVision, ProviderDocumentAI}

// Config selects and configures an extraction provider
type Config struct {
	Provider        string               `yaml:"provider"`
	CredentialsPath string               `yaml:"credentials_path"`
	Timeout         time.Duration        `yaml:"timeout"`
	DocumentAI      ocr.DocumentAIConfig `yaml:"document_ai"`
	Extraction      lineitems.Options    `yaml:"extraction"`
}

// DefaultConfig returns a Vision config with the default extraction thresholds
func DefaultConfig() Config {
	return Config{
		Provider:   ProviderGoogleVision,
		Timeout:    defaultTimeout,
		Extraction: lineitems.DefaultOptions(),
	}
}

// LoadConfig reads a YAML provider config on top of DefaultConfig
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Extraction.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid extraction settings: %w", err)
	}
	return cfg, nil
}

// New creates the Extractor named by cfg.Provider
func New(ctx context.Context, cfg Config) (Extractor, error) {
	var (
		recognizer ocr.Recognizer
		err        error
	)

	switch cfg.Provider {
	case ProviderGoogleVision:
		recognizer, err = ocr.NewVision(ctx, cfg.CredentialsPath)
	case ProviderDocumentAI:
		docCfg := cfg.DocumentAI
		if docCfg.CredentialsPath == "" {
			docCfg.CredentialsPath = cfg.CredentialsPath
		}
		recognizer, err = ocr.NewDocumentAI(ctx, docCfg)
	default:
		return nil, fmt.Errorf("%w %q, available: %v", ErrUnknownProvider, cfg.Provider, Providers)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s: %w", cfg.Provider, err)
	}

	return NewOCRExtractor(cfg.Provider, recognizer, cfg.Extraction, cfg.Timeout), nil
}
