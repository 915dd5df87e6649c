package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all runtime settings. Values come from Default(), optionally
// overridden by a .env file and BILLFOLD_* environment variables.
type Config struct {
	// APIBaseURL is the wallet server's API root, including the /api/v1 prefix.
	APIBaseURL string `env:"BILLFOLD_API_URL"`

	DataDir string `env:"BILLFOLD_DATA_DIR"`
	DBPath  string `env:"-"`
	LogPath string `env:"-"`

	// RefreshInterval is how often the background session refresh runs.
	RefreshInterval time.Duration `env:"BILLFOLD_REFRESH_INTERVAL"`

	// RefreshThrottle is the minimum time between two profile fetches; a
	// refresh inside this window is served from the cached profile.
	RefreshThrottle time.Duration `env:"BILLFOLD_REFRESH_THROTTLE"`

	// RequestTimeout bounds every single API call.
	RequestTimeout time.Duration `env:"BILLFOLD_REQUEST_TIMEOUT"`

	// TransactionTTL is how long a cached transaction page counts as fresh.
	TransactionTTL time.Duration `env:"BILLFOLD_TRANSACTION_TTL"`

	PageSize int `env:"BILLFOLD_PAGE_SIZE"`
}

func Default() Config {
	dataDir := filepath.Join(userConfigDir(), "billfold")
	return Config{
		APIBaseURL:      "http://localhost:8000/api/v1",
		DataDir:         dataDir,
		DBPath:          filepath.Join(dataDir, "billfold.db"),
		LogPath:         filepath.Join(dataDir, "debug.log"),
		RefreshInterval: 150 * time.Second,
		RefreshThrottle: 5 * time.Minute,
		RequestTimeout:  10 * time.Second,
		TransactionTTL:  5 * time.Minute,
		PageSize:        20,
	}
}

// Load builds the effective configuration: defaults, then .env, then the
// process environment.
func Load() (Config, error) {
	// A missing .env is fine; only a malformed one is an error.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}

	cfg := Default()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}

	// Derived paths follow the data dir.
	cfg.DBPath = filepath.Join(cfg.DataDir, "billfold.db")
	cfg.LogPath = filepath.Join(cfg.DataDir, "debug.log")

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the rest of the program cannot work with.
func (c Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("API base URL cannot be empty")
	}
	if c.RefreshThrottle <= 0 {
		return fmt.Errorf("refresh throttle must be positive")
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("refresh interval must be positive")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page size must be positive")
	}
	return nil
}

func userConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config")
}
