package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DataDir      string
	LedgerDBPath string
	OutputDir    string
	LogLevel     string

	DefaultCurrency   string
	DateLayout        string
	ClassifyThreshold float64
	ExpiryWindowDays  int
	WorkerCount       int

	DriveFolderID     string
	DriveClientID     string
	DriveClientSecret string
	DriveRedirectURI  string
	DriveRefreshToken string
	DrivePageSize     int

	WatchIntervalSec int
	WatchFetchMax    int
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DataDir:      getEnv("INVOICE_DATA_DIR", filepath.Join(cwd, "data", "invoices")),
		LedgerDBPath: getEnv("LEDGER_DB_PATH", filepath.Join(cwd, "data", "ledger.db")),
		OutputDir:    getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		DefaultCurrency:   getEnv("DEFAULT_CURRENCY", "USD"),
		DateLayout:        getEnv("INVOICE_DATE_LAYOUT", "01/02/2006"),
		ClassifyThreshold: getEnvFloat("CLASSIFY_THRESHOLD", 0.45),
		ExpiryWindowDays:  getEnvInt("LICENSE_EXPIRY_WINDOW_DAYS", 30),
		WorkerCount:       getEnvInt("PIPELINE_WORKERS", 4),

		DriveFolderID:     getEnv("GDRIVE_FOLDER_ID", ""),
		DriveClientID:     getEnv("GDRIVE_CLIENT_ID", ""),
		DriveClientSecret: getEnv("GDRIVE_CLIENT_SECRET", ""),
		DriveRedirectURI:  getEnv("GDRIVE_REDIRECT_URI", "https://developers.google.com/oauthplayground"),
		DriveRefreshToken: getEnv("GDRIVE_REFRESH_TOKEN", ""),
		DrivePageSize:     getEnvInt("GDRIVE_PAGE_SIZE", 100),

		WatchIntervalSec: getEnvInt("WATCH_INTERVAL_SEC", 60),
		WatchFetchMax:    getEnvInt("WATCH_FETCH_MAX", 50),
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
