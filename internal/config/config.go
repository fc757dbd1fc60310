package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Sink names accepted by LEDGER_SINK.
const (
	SinkSheets   = "sheets"
	SinkBigQuery = "bigquery"
	SinkNotion   = "notion"
)

// Config is the runtime configuration of the webhook service and the CLI.
type Config struct {
	Port string
	Env  string

	LogLevel  string
	LogFormat string

	// WhatsApp Cloud API
	VerifyToken   string
	WhatsAppToken string
	AppSecret     string
	GraphAPIURL   string

	// Gemini
	GeminiAPIKey string
	GeminiModel  string

	// Ledger
	LedgerSink           string
	SheetsID             string
	SheetsRange          string
	GoogleServiceAccount string
	BigQueryProject      string
	BigQueryDataset      string
	RecordModelOutputs   bool
	NotionToken          string
	NotionDatabaseID     string
	ArchiveBucket        string

	// Processing
	WorkerCount  int
	QueueSize    int
	MediaTimeout time.Duration
	ModelTimeout time.Duration
	SinkTimeout  time.Duration
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		Port:      getenv("PORT", "3000"),
		Env:       getenv("ENVIRONMENT", "development"),
		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogFormat: getenv("LOG_FORMAT", "console"),

		VerifyToken:   os.Getenv("VERIFY_TOKEN"),
		WhatsAppToken: os.Getenv("WHATSAPP_TOKEN"),
		AppSecret:     os.Getenv("WHATSAPP_APP_SECRET"),
		GraphAPIURL:   strings.TrimRight(getenv("GRAPH_API_URL", "https://graph.facebook.com/v18.0"), "/"),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  getenv("GEMINI_MODEL", "gemini-2.5-flash"),

		LedgerSink:           strings.ToLower(getenv("LEDGER_SINK", SinkSheets)),
		SheetsID:             os.Getenv("GOOGLE_SHEETS_ID"),
		SheetsRange:          getenv("SHEETS_RANGE", "Sheet1!A:N"),
		GoogleServiceAccount: os.Getenv("GOOGLE_SERVICE_ACCOUNT"),
		BigQueryProject:      os.Getenv("BIGQUERY_PROJECT"),
		BigQueryDataset:      getenv("BIGQUERY_DATASET", "finance"),
		NotionToken:          os.Getenv("NOTION_TOKEN"),
		NotionDatabaseID:     os.Getenv("NOTION_DATABASE_ID"),
		ArchiveBucket:        os.Getenv("GCS_ARCHIVE_BUCKET"),
	}

	var err error
	if cfg.RecordModelOutputs, err = getbool("RECORD_MODEL_OUTPUTS", false); err != nil {
		return nil, err
	}
	if cfg.WorkerCount, err = getint("WORKER_COUNT", 5); err != nil {
		return nil, err
	}
	if cfg.QueueSize, err = getint("QUEUE_SIZE", 100); err != nil {
		return nil, err
	}
	if cfg.MediaTimeout, err = getduration("MEDIA_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.ModelTimeout, err = getduration("MODEL_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.SinkTimeout, err = getduration("SINK_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the selected ledger sink has what it needs.
func (c *Config) Validate() error {
	switch c.LedgerSink {
	case SinkSheets:
		if c.SheetsID == "" {
			return fmt.Errorf("GOOGLE_SHEETS_ID environment variable is required for the sheets ledger")
		}
	case SinkBigQuery:
		if c.BigQueryProject == "" {
			return fmt.Errorf("BIGQUERY_PROJECT environment variable is required for the bigquery ledger")
		}
	case SinkNotion:
		if c.NotionToken == "" || c.NotionDatabaseID == "" {
			return fmt.Errorf("NOTION_TOKEN and NOTION_DATABASE_ID environment variables are required for the notion ledger")
		}
	default:
		return fmt.Errorf("unknown LEDGER_SINK %q (want sheets, bigquery or notion)", c.LedgerSink)
	}

	if c.RecordModelOutputs && c.BigQueryProject == "" {
		return fmt.Errorf("BIGQUERY_PROJECT environment variable is required when RECORD_MODEL_OUTPUTS is set")
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("WORKER_COUNT must be at least 1, got %d", c.WorkerCount)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("QUEUE_SIZE must be at least 1, got %d", c.QueueSize)
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, v, err)
	}
	return n, nil
}

func getbool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q: %w", key, v, err)
	}
	return b, nil
}

func getduration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, v, err)
	}
	return d, nil
}
