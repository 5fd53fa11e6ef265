package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/mkempf/beleg-tracker/internal/entry"
	"github.com/mkempf/beleg-tracker/internal/extract"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("beleg-tracker")
	var (
		port          = fs.IntLong("port", 8080, "HTTP server port")
		dbPath        = fs.StringLong("db", "beleg-tracker.db", "Database file path")
		previewPath   = fs.StringLong("previews", "./previews", "Preview storage directory path")
		extractorType = fs.StringLong("extractor", "webhook", "Extraction backend: 'webhook' or 'gemini'")
		webhookURL    = fs.StringLong("webhook-url", "", "Initial webhook URL (stored in settings if none saved yet)")
		geminiKey     = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel   = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		authUser      = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass      = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		showVersion   = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("BELEG_TRACKER"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	slog.Info("Initializing database...")
	db, err := entry.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Seed the webhook URL into settings on first start
	if *webhookURL != "" {
		settings, err := db.LoadSettings()
		if err == nil && settings.WebhookURL == "" {
			if !entry.ValidateWebhookURL(*webhookURL) {
				slog.Error("Invalid webhook URL", "url", *webhookURL)
				os.Exit(1)
			}
			settings.WebhookURL = *webhookURL
			if err := db.SaveSettings(settings); err != nil {
				slog.Error("Failed to save settings", "error", err)
				os.Exit(1)
			}
		}
	}

	var extractor extract.Extractor
	switch *extractorType {
	case "webhook":
		slog.Info("Initializing webhook extractor...")
		extractor = extract.NewWebhook()
	case "gemini":
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini extractor...", "model", *geminiModel)
		extractor, err = extract.NewGemini(apiKey, *geminiModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Invalid extractor type", "type", *extractorType, "valid", "webhook or gemini")
		os.Exit(1)
	}
	defer extractor.Close()

	slog.Info("Initializing preview storage...")
	store, err := entry.NewLocalStorage(*previewPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	service := entry.NewService(db, extractor, entry.NewUploadLog(), entry.NewPreview(store))
	defer service.Close()

	basicAuth := entry.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := entry.NewServer(service, basicAuth)

	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
