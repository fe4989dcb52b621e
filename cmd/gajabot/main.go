package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/gajahardware/gajabot/internal/api"
	"github.com/gajahardware/gajabot/internal/dialog"
	"github.com/gajahardware/gajabot/internal/messaging"
	"github.com/gajahardware/gajabot/internal/notify"
	"github.com/gajahardware/gajabot/internal/ratelimit"
	"github.com/gajahardware/gajabot/internal/sheets"
	"github.com/gajahardware/gajabot/internal/store"
	"github.com/gajahardware/gajabot/internal/util"
	"github.com/gajahardware/gajabot/internal/whatsmeow"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for gajabot state data
	DefaultStateDir = "/var/lib/gajabot"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "gajabot.db"
	// DefaultCatalogFilename is the display name for the catalogue PDF
	DefaultCatalogFilename = "GAJA-Catalogue.pdf"
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	if err := run(config, flags); err != nil {
		slog.Error("gajabot failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("gajabot exited successfully")
}

// Config holds environment configuration
type Config struct {
	// WhatsApp Cloud API
	AccessToken   string
	PhoneNumberID string
	VerifyToken   string

	// Spreadsheet data service
	AppsScriptURL string
	AppsSecret    string

	// Business parameters
	SupportPhone    string
	ServicePhone    string
	CatalogURL      string
	CatalogFilename string
	SchemeImages    []string
	WebhookURL      string
	DailyLimit      int
	SessionTTL      time.Duration
	DedupWindow     time.Duration

	// Infrastructure
	DatabaseURL string
	StateDir    string
	APIAddr     string
	Backend     string
}

// Flags holds command line flag values
type Flags struct {
	apiAddr  *string
	dbDSN    *string
	stateDir *string
	backend  *string
	qrOutput *string
	numeric  *bool
}

// initializeLogger sets up structured logging
func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("DEBUG", false) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		AccessToken:     os.Getenv("ACCESS_TOKEN"),
		PhoneNumberID:   os.Getenv("PHONE_NUMBER_ID"),
		VerifyToken:     os.Getenv("VERIFY_TOKEN"),
		AppsScriptURL:   os.Getenv("APPS_SCRIPT_URL"),
		AppsSecret:      os.Getenv("APPS_SECRET"),
		SupportPhone:    os.Getenv("GAJA_PHONE"),
		ServicePhone:    os.Getenv("GAJA_SERVICE"),
		CatalogURL:      os.Getenv("CATALOG_URL"),
		CatalogFilename: os.Getenv("CATALOG_FILENAME"),
		WebhookURL:      os.Getenv("PUMBLE_WEBHOOK_URL"),
		DailyLimit:      util.ParseIntEnv("DAILY_LOOKUP_LIMIT", 0),
		SessionTTL:      util.ParseDurationSecondsEnv("SESSION_TTL_SECONDS", store.DefaultSessionTTL),
		DedupWindow:     util.ParseDurationSecondsEnv("DEDUP_WINDOW_SECONDS", store.DefaultDedupWindow),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		StateDir:        os.Getenv("GAJABOT_STATE_DIR"),
		APIAddr:         os.Getenv("API_ADDR"),
		Backend:         os.Getenv("MESSAGING_BACKEND"),
	}

	// Scheme images are numbered so the set can grow without a code change.
	for i := 1; i <= 5; i++ {
		if link := os.Getenv(fmt.Sprintf("SCHEME_IMG%d", i)); link != "" {
			config.SchemeImages = append(config.SchemeImages, link)
		}
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
	}
	if config.CatalogFilename == "" {
		config.CatalogFilename = DefaultCatalogFilename
	}
	if config.Backend == "" {
		config.Backend = "cloud"
	}

	slog.Debug("environment variables loaded",
		"ACCESS_TOKEN_SET", config.AccessToken != "",
		"PHONE_NUMBER_ID_SET", config.PhoneNumberID != "",
		"VERIFY_TOKEN_SET", config.VerifyToken != "",
		"APPS_SCRIPT_URL_SET", config.AppsScriptURL != "",
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"MESSAGING_BACKEND", config.Backend,
		"SCHEME_IMAGES", len(config.SchemeImages),
		"DAILY_LOOKUP_LIMIT", config.DailyLimit)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		apiAddr:  flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		dbDSN:    flag.String("db-dsn", config.DatabaseURL, "database DSN for the session store (overrides $DATABASE_URL)"),
		stateDir: flag.String("state-dir", config.StateDir, "state directory for gajabot data (overrides $GAJABOT_STATE_DIR)"),
		backend:  flag.String("messaging-backend", config.Backend, "message delivery backend: cloud, twilio or whatsmeow (overrides $MESSAGING_BACKEND)"),
		qrOutput: flag.String("qr-output", "", "path to write login QR code (whatsmeow backend only)"),
		numeric:  flag.Bool("numeric-code", false, "use numeric login code instead of QR code (whatsmeow backend only)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"apiAddr", *flags.apiAddr,
		"dbDSN_set", *flags.dbDSN != "",
		"stateDir", *flags.stateDir,
		"backend", *flags.backend)

	return flags
}

func run(config Config, flags Flags) error {
	if err := validateConfig(config, flags); err != nil {
		return err
	}

	st, err := buildStore(config, flags)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer st.Close()

	sender, err := buildMessenger(config, flags)
	if err != nil {
		return fmt.Errorf("failed to initialize messaging backend: %w", err)
	}

	data, err := sheets.NewClient(
		sheets.WithBaseURL(config.AppsScriptURL),
		sheets.WithSecret(config.AppsSecret),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize data service: %w", err)
	}

	sink := notify.NewWebhookSink(notify.WithWebhookURL(config.WebhookURL))

	var limiter dialog.Limiter
	if config.DailyLimit > 0 {
		limiter = ratelimit.NewDailyLimiter(config.DailyLimit)
	}

	engine := dialog.NewEngine(st, data, sender, sink, limiter, dialog.Config{
		SupportPhone: config.SupportPhone,
		ServicePhone: config.ServicePhone,
		CatalogURL:   config.CatalogURL,
		CatalogName:  config.CatalogFilename,
		SchemeImages: config.SchemeImages,
	})

	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	apiOpts = append(apiOpts, api.WithVerifyToken(config.VerifyToken))
	server := api.NewServer(engine, st, apiOpts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Bootstrapping gajabot", "backend", *flags.backend, "addr", *flags.apiAddr)
	return server.Run(ctx)
}

// validateConfig fails fast on configuration the service cannot run without.
func validateConfig(config Config, flags Flags) error {
	if config.AppsScriptURL == "" {
		return fmt.Errorf("APPS_SCRIPT_URL must be set")
	}
	switch *flags.backend {
	case "cloud":
		if config.AccessToken == "" || config.PhoneNumberID == "" {
			return fmt.Errorf("cloud backend requires ACCESS_TOKEN and PHONE_NUMBER_ID")
		}
		if config.VerifyToken == "" {
			return fmt.Errorf("cloud backend requires VERIFY_TOKEN for the webhook handshake")
		}
	case "twilio", "whatsmeow":
		// Credentials are validated by the backend constructor.
	default:
		return fmt.Errorf("unknown messaging backend %q", *flags.backend)
	}
	return nil
}

// buildStore picks the session store from the DSN: in-memory without one,
// SQLite for file paths, PostgreSQL for postgres URLs.
func buildStore(config Config, flags Flags) (store.Store, error) {
	dsn := *flags.dbDSN
	storeOpts := []store.Option{
		store.WithSessionTTL(config.SessionTTL),
		store.WithDedupWindow(config.DedupWindow),
	}
	if dsn == "" {
		slog.Info("No database DSN provided, using in-memory store")
		return store.NewInMemoryStore(storeOpts...), nil
	}
	if store.DetectDSNType(dsn) == "postgres" {
		slog.Info("Using PostgreSQL session store")
		return store.NewPostgresStore(append(storeOpts, store.WithDSN(dsn))...)
	}
	if !strings.Contains(dsn, string(filepath.Separator)) {
		// Bare filename: place it under the state directory.
		dsn = filepath.Join(*flags.stateDir, dsn)
	}
	slog.Info("Using SQLite session store")
	return store.NewSQLiteStore(append(storeOpts, store.WithDSN(dsn))...)
}

// buildMessenger constructs the configured delivery backend.
func buildMessenger(config Config, flags Flags) (messaging.Service, error) {
	switch *flags.backend {
	case "cloud":
		return messaging.NewCloudService(
			messaging.WithAccessToken(config.AccessToken),
			messaging.WithPhoneNumberID(config.PhoneNumberID),
		)
	case "twilio":
		return messaging.NewTwilioService()
	case "whatsmeow":
		waOpts := []whatsmeow.Option{
			whatsmeow.WithDBDSN(filepath.Join(*flags.stateDir, "whatsmeow.db")),
		}
		if *flags.qrOutput != "" {
			waOpts = append(waOpts, whatsmeow.WithQRCodeOutput(*flags.qrOutput))
		}
		if *flags.numeric {
			waOpts = append(waOpts, whatsmeow.WithNumericCode())
		}
		return whatsmeow.NewClient(waOpts...)
	default:
		return nil, fmt.Errorf("unknown messaging backend %q", *flags.backend)
	}
}
