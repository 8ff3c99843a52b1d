package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/aldorifkifirmansyah/LetVision/internal/history"
)

// Config holds application configuration.
type Config struct {
	// ClassifierURL is the base URL of the image classifier service.
	// Detection posts to {ClassifierURL}/detect-growth and /detect-disease.
	ClassifierURL string `json:"classifier_url,omitempty"`

	// ReferenceURL is the base URL of the reference-data service.
	// Empty disables lookups; detections then fall back to the classifier's class name.
	ReferenceURL string `json:"reference_url,omitempty"`
	ReferenceKey string `json:"reference_key,omitempty"`

	// ReferenceCacheTTLSeconds is how long reference lookups stay cached in-process.
	ReferenceCacheTTLSeconds int `json:"reference_cache_ttl_seconds,omitempty"`

	BlogID  string `json:"blog_id,omitempty"`
	BlogKey string `json:"blog_key,omitempty"`

	// Retention is the history retention window ("3m", "90d", "12w", "1y", "720h").
	Retention string `json:"retention,omitempty"`

	// CleanupChunkSize is the number of records removed per chunk during cleanup.
	CleanupChunkSize int `json:"cleanup_chunk_size,omitempty"`

	// CleanupKeepPinned exempts pinned records from retention cleanup.
	CleanupKeepPinned bool `json:"cleanup_keep_pinned,omitempty"`

	// CleanupSchedule is a standard 5-field cron expression used in server mode.
	CleanupSchedule string `json:"cleanup_schedule,omitempty"`

	HTTPAddr string `json:"http_addr,omitempty"`
	LogLevel string `json:"log_level,omitempty"`

	// HTTPTimeoutSeconds bounds every outbound request to the external services.
	HTTPTimeoutSeconds int `json:"http_timeout_seconds,omitempty"`

	// AllowedPaths is an allowlist of directories for import/export operations.
	// Paths outside <home>/exports require either being in this list or AllowUnsafePaths=true.
	// Paths should be absolute (relative paths are ignored).
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// AllowUnsafePaths disables directory restrictions for import/export.
	// Symlink and extension checks still apply.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ClassifierURL:            "http://localhost:5000",
		ReferenceCacheTTLSeconds: 600,
		Retention:                "3m",
		CleanupChunkSize:         10,
		CleanupSchedule:          "0 3 * * *",
		HTTPAddr:                 ":8080",
		LogLevel:                 "info",
		HTTPTimeoutSeconds:       30,
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.letvision.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// LoadWithEnv loads configuration in layers: defaults, globalDir/config.json,
// the nearest .letvision/config.json walking upward from startDir, then environment variables.
// An optional .env file (envFile, or ./.env when empty) is read first; a missing file is not an error.
func LoadWithEnv(globalDir, startDir, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}
	local := &Config{}
	if startDir != "" {
		if local, err = loadFileRaw(FindLocalConfig(startDir)); err != nil {
			return nil, err
		}
	}

	cfg := Merge(Merge(DefaultConfig(), global), local)
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindLocalConfig walks upward from startDir to find the nearest .letvision/config.json.
// Returns the path if found, or empty string if not found.
func FindLocalConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".letvision", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// ApplyEnv overlays LETVISION_* environment variables onto cfg.
// Environment values win over the config file.
func ApplyEnv(cfg *Config) error {
	cfg.ClassifierURL = getenvWithDefault("LETVISION_CLASSIFIER_URL", cfg.ClassifierURL)
	cfg.ReferenceURL = getenvWithDefault("LETVISION_REFERENCE_URL", cfg.ReferenceURL)
	cfg.ReferenceKey = getenvWithDefault("LETVISION_REFERENCE_KEY", cfg.ReferenceKey)
	cfg.BlogID = getenvWithDefault("LETVISION_BLOG_ID", cfg.BlogID)
	cfg.BlogKey = getenvWithDefault("LETVISION_BLOG_KEY", cfg.BlogKey)
	cfg.LogLevel = getenvWithDefault("LETVISION_LOG_LEVEL", cfg.LogLevel)
	cfg.HTTPAddr = getenvWithDefault("LETVISION_HTTP_ADDR", cfg.HTTPAddr)
	cfg.Retention = getenvWithDefault("LETVISION_RETENTION", cfg.Retention)

	if v := os.Getenv("LETVISION_HTTP_TIMEOUT_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LETVISION_HTTP_TIMEOUT_SECONDS must be an integer: %w", err)
		}
		cfg.HTTPTimeoutSeconds = n
	}
	return nil
}

// Validate ensures that configuration values are usable.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if strings.TrimSpace(c.ClassifierURL) == "" {
		return errors.New("classifier_url must be provided")
	}
	if _, err := history.ParseRetention(c.Retention); err != nil {
		return fmt.Errorf("retention: %w", err)
	}
	if c.CleanupChunkSize < 0 {
		return errors.New("cleanup_chunk_size must not be negative")
	}
	if c.CleanupSchedule != "" {
		if _, err := cron.ParseStandard(c.CleanupSchedule); err != nil {
			return fmt.Errorf("cleanup_schedule: %w", err)
		}
	}
	if c.HTTPTimeoutSeconds < 0 {
		return errors.New("http_timeout_seconds must not be negative")
	}
	return nil
}

// DefaultBaseDir returns LETVISION_HOME, or ~/.letvision when unset.
func DefaultBaseDir() (string, error) {
	if dir := os.Getenv("LETVISION_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".letvision"), nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	// Strings and ints: overlay wins if non-zero, else base
	result.ClassifierURL = firstNonEmpty(overlay.ClassifierURL, base.ClassifierURL)
	result.ReferenceURL = firstNonEmpty(overlay.ReferenceURL, base.ReferenceURL)
	result.ReferenceKey = firstNonEmpty(overlay.ReferenceKey, base.ReferenceKey)
	result.BlogID = firstNonEmpty(overlay.BlogID, base.BlogID)
	result.BlogKey = firstNonEmpty(overlay.BlogKey, base.BlogKey)
	result.Retention = firstNonEmpty(overlay.Retention, base.Retention)
	result.CleanupSchedule = firstNonEmpty(overlay.CleanupSchedule, base.CleanupSchedule)
	result.HTTPAddr = firstNonEmpty(overlay.HTTPAddr, base.HTTPAddr)
	result.LogLevel = firstNonEmpty(overlay.LogLevel, base.LogLevel)

	result.ReferenceCacheTTLSeconds = firstNonZero(overlay.ReferenceCacheTTLSeconds, base.ReferenceCacheTTLSeconds)
	result.CleanupChunkSize = firstNonZero(overlay.CleanupChunkSize, base.CleanupChunkSize)
	result.HTTPTimeoutSeconds = firstNonZero(overlay.HTTPTimeoutSeconds, base.HTTPTimeoutSeconds)
	result.DBMaxOpenConns = firstNonZero(overlay.DBMaxOpenConns, base.DBMaxOpenConns)
	result.DBMaxIdleConns = firstNonZero(overlay.DBMaxIdleConns, base.DBMaxIdleConns)

	// Booleans: overlay wins if true, else base
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths
	result.CleanupKeepPinned = base.CleanupKeepPinned || overlay.CleanupKeepPinned

	// Arrays: merge and deduplicate
	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func firstNonZero(a, b int) int {
	if a != 0 {
		return a
	}
	return b
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
