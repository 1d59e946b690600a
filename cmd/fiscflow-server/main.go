package main

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/fiscflow-ocr/internal/lineitems"
	"github.com/zombor/fiscflow-ocr/internal/receipt"
	"github.com/zombor/fiscflow-ocr/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run starts the server and returns the process exit code once it stops.
// Deferred cleanup of the database and extractor runs before main exits.
func run(args []string) int {
	// Check for version flag before parsing other flags
	for _, arg := range args {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			return 0
		}
	}

	fs := ff.NewFlagSet("fiscflow-server")
	var (
		port        = fs.IntLong("port", 8080, "HTTP server port")
		dbPath      = fs.StringLong("db", "fiscflow.db", "Database file path")
		storagePath = fs.StringLong("storage", "./receipts", "Storage directory path")
		configPath  = fs.StringLong("config", "", "Provider config YAML file (optional)")
		provider    = fs.StringLong("provider", "", "Recognition provider: "+strings.Join(scanning.Providers, " or ")+" (overrides config)")
		credentials = fs.StringLong("credentials", "", "Google service account JSON (default: application default credentials)")
		profilePath = fs.StringLong("profile", "", "Extraction thresholds YAML file (overrides config)")
		timeout     = fs.DurationLong("timeout", 0, "Recognition timeout per receipt (overrides config)")
		feedback    = fs.BoolLong("feedback", "Store user corrections submitted with consent")
		authUser    = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass    = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		logLevel    = fs.StringLong("log-level", "info", "Log level: debug, info, warn or error")
		_           = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, args,
		ff.WithEnvVarPrefix("FISCFLOW"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	if err := setupLogging(*logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	cfg, err := loadConfig(*configPath, *provider, *credentials, *profilePath, *timeout)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	slog.Info("Initializing database...", "path", *dbPath)
	db, err := receipt.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		return 1
	}
	defer db.Close()

	slog.Info("Initializing extractor...", "provider", cfg.Provider)
	extractor, err := scanning.New(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize extractor", "error", err)
		return 1
	}
	defer extractor.Close()

	// Initialize storage
	slog.Info("Initializing storage...", "path", *storagePath)
	store, err := receipt.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		return 1
	}

	receiptService := receipt.NewService(db, extractor, store, *feedback)

	basicAuth := receipt.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := receipt.NewServer(receiptService, basicAuth)

	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}
	if *feedback {
		slog.Info("Feedback collection enabled")
	}

	addr := fmt.Sprintf(":%d", *port)
	if err := server.Start(ctx, addr); err != nil {
		slog.Error("Server error", "error", err)
		return 1
	}

	slog.Info("Shut down")
	return 0
}

// setupLogging installs a text handler at the named level
func setupLogging(name string) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", name, err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// loadConfig reads the provider config file, if any, and applies flag overrides
func loadConfig(path, provider, credentials, profile string, timeout time.Duration) (scanning.Config, error) {
	cfg := scanning.DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = scanning.LoadConfig(path); err != nil {
			return cfg, err
		}
	}

	if provider != "" {
		cfg.Provider = provider
	}
	if credentials != "" {
		cfg.CredentialsPath = credentials
	}
	if timeout > 0 {
		cfg.Timeout = timeout
	}
	if profile != "" {
		opts, err := lineitems.LoadOptions(profile)
		if err != nil {
			return cfg, err
		}
		cfg.Extraction = opts
	}

	return cfg, nil
}
