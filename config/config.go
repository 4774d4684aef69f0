package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the trading backend.
type Config struct {
	Server  Server  `yaml:"server"`
	Storage Storage `yaml:"storage"`
	Market  Market  `yaml:"market"`
	Trading Trading `yaml:"trading"`
	Auth    Auth    `yaml:"auth"`
	Logging Logging `yaml:"logging"`
}

// Server holds network listener configuration.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Storage selects the ledger backend and its locations.
type Storage struct {
	// Backend is "memory" or "mongo".
	Backend    string `yaml:"backend"`
	MongoURI   string `yaml:"mongo_uri"`
	Database   string `yaml:"database"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Market configures the market-data provider.
type Market struct {
	// Provider is "simulator" or "http".
	Provider     string        `yaml:"provider"`
	BaseURL      string        `yaml:"base_url"`
	APIKey       string        `yaml:"api_key"`
	QuoteTimeout time.Duration `yaml:"quote_timeout"`
	HistoryLen   int           `yaml:"history_len"`
	WarmSymbols  []string      `yaml:"warm_symbols"`
}

// Trading configures order execution policy.
type Trading struct {
	// PaperMode skips the cash funds check; every order settles.
	PaperMode bool `yaml:"paper_mode"`
}

// Auth configures the authentication collaborator.
type Auth struct {
	JWTSecret       string  `yaml:"jwt_secret"`
	StartingBalance float64 `yaml:"starting_balance"`
}

// Logging configures the application logger.
type Logging struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is present: in-memory
// storage and the deterministic simulator, suitable for local development.
func Default() *Config {
	return &Config{
		Server: Server{Host: "0.0.0.0", Port: 8080},
		Storage: Storage{
			Backend:    "memory",
			Database:   "trading-backend",
			SQLitePath: "data/candles.db",
		},
		Market: Market{
			Provider:     "simulator",
			QuoteTimeout: 5 * time.Second,
			HistoryLen:   120,
		},
		Trading: Trading{PaperMode: false},
		Auth: Auth{
			JWTSecret:       "dev-secret-change-me",
			StartingBalance: 100000,
		},
		Logging: Logging{Level: "info"},
	}
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it over
// the defaults, and then applies environment variable overrides. A missing
// file is not an error; the defaults plus environment are used.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("MONGODB_URI"); v != "" {
		cfg.Storage.MongoURI = v
	}
	if v := os.Getenv("DATABASE_NAME"); v != "" {
		cfg.Storage.Database = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}

	if v := os.Getenv("MARKET_PROVIDER"); v != "" {
		cfg.Market.Provider = v
	}
	if v := os.Getenv("MARKET_BASE_URL"); v != "" {
		cfg.Market.BaseURL = v
	}
	if v := os.Getenv("MARKET_API_KEY"); v != "" {
		cfg.Market.APIKey = v
	}

	if v := os.Getenv("PAPER_MODE"); v != "" {
		if paper, err := strconv.ParseBool(v); err == nil {
			cfg.Trading.PaperMode = paper
		}
	}

	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
