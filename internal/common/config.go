package common

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/payslip-tracker/constants"
)

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	OCR        OCRConfig
	Extraction ExtractionConfig
	Processing ProcessingConfig
	LogLevel   slog.Level
}

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver           string
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr       string
	HTTPAddr       string
	MaxUploadBytes int64
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Tesseract         string
	Pdftoppm          string
	TessdataDir       string
	Languages         string
	PSM               int
	OEM               int
	MinWordConfidence float64
	DPI               int
	MaxPages          int
	Preprocess        bool
	Rasterizer        string
}

// ExtractionConfig holds field-extraction configuration
type ExtractionConfig struct {
	PatternsFile string // empty -> built-in patterns
	PersistMode  constants.PersistMode
}

// ProcessingConfig holds batch and watch-mode configuration
type ProcessingConfig struct {
	Workers        int
	QueueSize      int
	ProcessTimeout time.Duration
	WatchDir       string
}

// LoadConfig loads configuration from environment variables. A .env file in
// the working directory is read first when present.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}
	return &Config{
		Database: DatabaseConfig{
			Driver:           getEnv("DB_DRIVER", DriverSQLite),
			DSN:              getEnv("DB_URL", "file:payslips.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 2),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			GRPCAddr:       getEnv("GRPC_ADDR", ":8080"),
			HTTPAddr:       getEnv("HTTP_ADDR", ":8081"),
			MaxUploadBytes: getEnvAsInt64("MAX_UPLOAD_BYTES", constants.MaxUploadBytes),
		},
		OCR: OCRConfig{
			Tesseract:         getEnv("TESSERACT_BIN", "tesseract"),
			Pdftoppm:          getEnv("PDFTOPPM_BIN", "pdftoppm"),
			TessdataDir:       getEnv("TESSDATA_PREFIX", ""),
			Languages:         getEnv("OCR_LANGS", "por+eng"),
			PSM:               getEnvAsInt("OCR_PSM", 6),
			OEM:               getEnvAsInt("OCR_OEM", 3),
			MinWordConfidence: getEnvAsFloat64("OCR_MIN_WORD_CONF", 30),
			DPI:               getEnvAsInt("OCR_DPI", 300),
			MaxPages:          getEnvAsInt("OCR_MAX_PAGES", 0),
			Preprocess:        getEnvAsBool("OCR_PREPROCESS", true),
			Rasterizer:        getEnv("OCR_RASTERIZER", "poppler"),
		},
		Extraction: ExtractionConfig{
			PatternsFile: getEnv("PATTERNS_FILE", ""),
			PersistMode:  constants.PersistMode(getEnv("PERSIST_MODE", string(constants.PersistAll))),
		},
		Processing: ProcessingConfig{
			Workers:        getEnvAsInt("WORKERS", 4),
			QueueSize:      getEnvAsInt("QUEUE_SIZE", 256),
			ProcessTimeout: getEnvAsDuration("PROCESS_TIMEOUT", 2*time.Minute),
			WatchDir:       getEnv("WATCH_DIR", ""),
		},
		LogLevel: parseLevel(getEnv("LOG_LEVEL", "info")),
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
		switch strings.ToLower(value) {
		case "on", "yes":
			return true
		case "off", "no":
			return false
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func parseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return NewAppError("CONFIG_ERROR", "DB_DRIVER must be sqlite or postgres", ErrInvalidInput)
	}
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Server.GRPCAddr == "" && c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "GRPC_ADDR or HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return NewAppError("CONFIG_ERROR", "MAX_UPLOAD_BYTES must be positive", ErrInvalidInput)
	}
	if _, ok := constants.ParsePersistMode(string(c.Extraction.PersistMode)); !ok {
		return NewAppError("CONFIG_ERROR", "PERSIST_MODE must be all, valid or none", ErrInvalidInput)
	}
	switch c.OCR.Rasterizer {
	case "poppler", "pdfcpu":
	default:
		return NewAppError("CONFIG_ERROR", "OCR_RASTERIZER must be poppler or pdfcpu", ErrInvalidInput)
	}
	if c.OCR.MinWordConfidence < 0 || c.OCR.MinWordConfidence > 100 {
		return NewAppError("CONFIG_ERROR", "OCR_MIN_WORD_CONF must be within 0..100", ErrInvalidInput)
	}
	if c.Processing.Workers <= 0 {
		return NewAppError("CONFIG_ERROR", "WORKERS must be positive", ErrInvalidInput)
	}
	return nil
}
