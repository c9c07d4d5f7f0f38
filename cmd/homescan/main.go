package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/srikanthsri1729/homescan-ai/internal/inventory"
	"github.com/srikanthsri1729/homescan-ai/internal/logging"
	"github.com/srikanthsri1729/homescan-ai/internal/notify"
	"github.com/srikanthsri1729/homescan-ai/internal/realtime"
	"github.com/srikanthsri1729/homescan-ai/internal/scanning"
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

	envFile := os.Getenv("HOMESCAN_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "error: loading %s: %v\n", envFile, err)
		os.Exit(1)
	}

	fs := ff.NewFlagSet("homescan")
	var (
		port      = fs.IntLong("port", 8080, "HTTP server port")
		logLevel  = fs.StringLong("log-level", "info", "Log level: debug, info, warn or error")
		logFormat = fs.StringLong("log-format", "text", "Log format: text or json")

		dbDriver = fs.StringLong("db-driver", "bolt", "Database driver: 'bolt' or 'sqlite'")
		dbPath   = fs.StringLong("db", "homescan.db", "Database file path")

		storageType = fs.StringLong("storage", "local", "Image storage: 'local' or 's3'")
		storagePath = fs.StringLong("storage-path", "./images", "Local image storage directory")
		s3Endpoint  = fs.StringLong("s3-endpoint", "", "S3 endpoint URL (empty for AWS)")
		s3Region    = fs.StringLong("s3-region", "us-east-1", "S3 region")
		s3Bucket    = fs.StringLong("s3-bucket", "", "S3 bucket name")
		s3Prefix    = fs.StringLong("s3-prefix", "images/", "S3 key prefix")
		s3AccessKey = fs.StringLong("s3-access-key", "", "S3 access key")
		s3SecretKey = fs.StringLong("s3-secret-key", "", "S3 secret key")

		modelType    = fs.StringLong("model", "gateway", "Model backend: 'gateway', 'gemini' or 'ollama'")
		gatewayURL   = fs.StringLong("gateway-url", "https://ai.gateway.lovable.dev/v1", "Chat-completions gateway base URL")
		gatewayKey   = fs.StringLong("gateway-key", "", "Gateway API key (or set LOVABLE_API_KEY env var)")
		gatewayModel = fs.StringLong("gateway-model", "google/gemini-2.5-flash", "Gateway model name")
		geminiKey    = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel  = fs.StringLong("gemini-model", "gemini-2.5-flash", "Google Gemini model name")
		ollamaURL    = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel  = fs.StringLong("ollama-model", "llava", "Ollama model name")
		scanTimeout  = fs.DurationLong("scan-timeout", 60*time.Second, "Maximum duration of a single scan")
		detailsTTL   = fs.DurationLong("details-ttl", time.Hour, "How long item lookups are cached")

		resendKey   = fs.StringLong("resend-key", "", "Resend API key (or set RESEND_API_KEY env var)")
		mailFrom    = fs.StringLong("mail-from", "Home Inventory <onboarding@resend.dev>", "Sender address for emails")
		appURL      = fs.StringLong("app-url", "", "Public URL of the web app, linked from emails")
		notifyCron  = fs.StringLong("notify-schedule", notify.DefaultSchedule, "Cron schedule for notification generation (empty to disable)")
		notifyLimit = fs.DurationLong("notify-timeout", 5*time.Minute, "Maximum duration of a scheduled notification run")

		jwtSecret   = fs.StringLong("jwt-secret", "", "HS256 secret for bearer tokens (optional)")
		authUser    = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass    = fs.StringLong("auth-pass", "", "Basic auth password or bcrypt hash (optional)")
		showVersion = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("HOMESCAN"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	logging.Setup(*logLevel, *logFormat)

	// Initialize database
	slog.Info("Initializing database...", "driver", *dbDriver, "path", *dbPath)
	var db inventory.DB
	var err error
	switch *dbDriver {
	case "bolt":
		db, err = inventory.NewBoltDB(*dbPath)
	case "sqlite":
		db, err = inventory.NewSQLiteDB(*dbPath)
	default:
		err = fmt.Errorf("invalid database driver %q: valid drivers are bolt or sqlite", *dbDriver)
	}
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize model based on type
	var model scanning.Model
	switch *modelType {
	case "gateway":
		apiKey := firstNonEmpty(*gatewayKey, os.Getenv("LOVABLE_API_KEY"))
		if apiKey == "" {
			slog.Error("Gateway API key is required. Set --gateway-key flag or LOVABLE_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing gateway model...", "url", *gatewayURL, "model", *gatewayModel)
		model, err = scanning.NewGateway(*gatewayURL, apiKey, *gatewayModel, *scanTimeout)
	case "gemini":
		apiKey := firstNonEmpty(*geminiKey, os.Getenv("GEMINI_API_KEY"))
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini model...", "model", *geminiModel)
		model, err = scanning.NewGemini(apiKey, *geminiModel)
	case "ollama":
		slog.Info("Initializing Ollama model...", "url", *ollamaURL, "model", *ollamaModel)
		model, err = scanning.NewOllama(*ollamaURL, *ollamaModel)
	default:
		err = fmt.Errorf("invalid model type %q: valid types are gateway, gemini or ollama", *modelType)
	}
	if err != nil {
		slog.Error("Failed to initialize model", "error", err)
		os.Exit(1)
	}
	defer model.Close()

	// Initialize storage
	slog.Info("Initializing storage...", "type", *storageType)
	var store inventory.Storage
	switch *storageType {
	case "local":
		store, err = inventory.NewLocalStorage(*storagePath)
	case "s3":
		store, err = inventory.NewS3Storage(inventory.S3Config{
			Endpoint:  *s3Endpoint,
			Region:    *s3Region,
			Bucket:    *s3Bucket,
			AccessKey: *s3AccessKey,
			SecretKey: *s3SecretKey,
			Prefix:    *s3Prefix,
		})
	default:
		err = fmt.Errorf("invalid storage type %q: valid types are local or s3", *storageType)
	}
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	hub := realtime.NewHub()

	mailer := notify.NewResendMailer(firstNonEmpty(*resendKey, os.Getenv("RESEND_API_KEY")), "", *mailFrom)
	if !mailer.Configured() {
		slog.Warn("Resend API key not set, emails are disabled")
	}
	notifier := notify.NewService(db, model, mailer, hub, *appURL)

	inventoryService := inventory.NewService(db, store, hub, notifier)
	classifier := scanning.NewClassifier(model, scanning.NewZXingDecoder(), *detailsTTL)

	server := inventory.NewServer(inventoryService, classifier, notifier, inventory.ServerConfig{
		Auth: inventory.Auth{
			JWTSecret: *jwtSecret,
			Username:  *authUser,
			Password:  *authPass,
		},
		ScanTimeout: *scanTimeout,
		WebSocket:   realtime.Handler(hub, originPatterns(*appURL)...),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *notifyCron != "" {
		scheduler := notify.NewScheduler(db, notifier, *notifyCron, *notifyLimit)
		if err := scheduler.Start(); err != nil {
			slog.Error("Failed to start scheduler", "error", err)
			os.Exit(1)
		}
		defer scheduler.Stop()
	}

	switch {
	case *jwtSecret != "":
		slog.Info("Bearer token auth enabled")
	case *authUser != "":
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	addr := fmt.Sprintf(":%d", *port)
	if err := server.Start(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
	slog.Info("Shutting down...")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// originPatterns allows websocket upgrades from the web app's host
func originPatterns(appURL string) []string {
	if appURL == "" {
		return nil
	}
	u, err := url.Parse(appURL)
	if err != nil || u.Host == "" {
		slog.Warn("Ignoring app URL for websocket origins", "app_url", appURL)
		return nil
	}
	return []string{u.Host}
}
