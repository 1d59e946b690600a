package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/fiscflow-ocr/internal/lineitems"
	"github.com/zombor/fiscflow-ocr/internal/ocr"
	"github.com/zombor/fiscflow-ocr/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

// output is one line of the JSON report
type output struct {
	File  string                `json:"file"`
	Data  *scanning.ReceiptData `json:"data,omitempty"`
	Error string                `json:"error,omitempty"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command and returns the process exit code: 0 on success,
// 1 on a usage or setup failure and 2 when any receipt failed. Deferred
// cleanup runs before main exits.
func run(args []string, stdout, stderr io.Writer) int {
	for _, arg := range args {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Fprintln(stdout, version)
			return 0
		}
	}

	fs := ff.NewFlagSet("fiscflow-extract")
	var (
		configPath  = fs.StringLong("config", "", "Provider config YAML file (optional)")
		provider    = fs.StringLong("provider", "", "Recognition provider: "+strings.Join(scanning.Providers, " or ")+" (overrides config)")
		credentials = fs.StringLong("credentials", "", "Google service account JSON (default: application default credentials)")
		profilePath = fs.StringLong("profile", "", "Extraction thresholds YAML file (overrides config)")
		annotations = fs.BoolLong("annotations", "Inputs are saved Vision JSON responses; no recognition calls are made")
		concurrency = fs.IntLong("concurrency", 4, "Receipts recognized at once")
		logLevel    = fs.StringLong("log-level", "warn", "Log level: debug, info, warn or error")
		_           = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, args,
		ff.WithEnvVarPrefix("FISCFLOW"),
	); err != nil {
		fmt.Fprintf(stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	files := fs.GetArgs()
	if len(files) == 0 {
		fmt.Fprintf(stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(stderr, "error: no input files\n")
		return 1
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(stderr, "error: invalid log level %q\n", *logLevel)
		return 1
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))

	cfg := scanning.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = scanning.LoadConfig(*configPath); err != nil {
			slog.Error("Failed to load configuration", "error", err)
			return 1
		}
	}
	if *provider != "" {
		cfg.Provider = *provider
	}
	if *credentials != "" {
		cfg.CredentialsPath = *credentials
	}
	if *profilePath != "" {
		opts, err := lineitems.LoadOptions(*profilePath)
		if err != nil {
			slog.Error("Failed to load profile", "error", err)
			return 1
		}
		cfg.Extraction = opts
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var results []output
	if *annotations {
		results = fromAnnotations(files, cfg.Extraction)
	} else {
		var err error
		if results, err = fromImages(ctx, cfg, files, *concurrency); err != nil {
			slog.Error("Failed to extract receipts", "error", err)
			return 1
		}
	}

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}

	if err := writeJSON(stdout, results); err != nil {
		slog.Error("Failed to write results", "error", err)
		return 1
	}
	if failed > 0 {
		slog.Warn("Some receipts failed", "failed", failed, "total", len(results))
		return 2
	}
	return 0
}

// fromImages recognizes each image with the configured provider
func fromImages(ctx context.Context, cfg scanning.Config, files []string, concurrency int) ([]output, error) {
	extractor, err := scanning.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer extractor.Close()

	results := make([]output, len(files))
	inputs := make([]scanning.Input, 0, len(files))
	index := make([]int, 0, len(files))
	for i, path := range files {
		results[i].File = path
		data, err := os.ReadFile(path)
		if err != nil {
			results[i].Error = err.Error()
			continue
		}
		inputs = append(inputs, scanning.Input{
			Name:        path,
			Data:        data,
			ContentType: scanning.DetectContentType("", filepath.Base(path), data),
		})
		index = append(index, i)
	}

	for j, r := range scanning.ExtractBatch(ctx, extractor, inputs, concurrency) {
		out := &results[index[j]]
		out.Data = r.Data
		if r.Err != nil {
			out.Error = r.Err.Error()
		}
	}
	return results, nil
}

// fromAnnotations runs extraction over saved Vision responses
func fromAnnotations(files []string, opts lineitems.Options) []output {
	results := make([]output, len(files))
	for i, path := range files {
		results[i].File = path
		raw, err := os.ReadFile(path)
		if err != nil {
			results[i].Error = err.Error()
			continue
		}
		annotation, err := ocr.ParseVisionJSON(raw)
		if err != nil {
			results[i].Error = err.Error()
			continue
		}
		data := scanning.Assemble(annotation, opts)
		data.Valid = data.Validate()
		results[i].Data = data
	}
	return results
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
