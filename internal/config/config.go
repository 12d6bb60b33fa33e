// Package config provides application configuration loaded from environment variables.
// Use the package-level Get() function to obtain the singleton Config instance.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/denizolgu/chancepool/internal/domain"
	"github.com/google/uuid"
)

// ──────────────────────────────────────────────────────────────────────────────
// Sub-config structs
// ──────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           string        // e.g. "8080"
	Env            string        // "development" | "production"
	ReadTimeout    time.Duration // default 10s
	WriteTimeout   time.Duration // default 10s
	AllowedOrigins []string      // CORS origins honoured in production
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	DSN             string        // full postgres DSN
	MaxOpenConns    int           // default 25
	MaxIdleConns    int           // default 10
	ConnMaxLifetime time.Duration // default 5m
}

// JWTConfig holds token signing settings for caller authentication.
type JWTConfig struct {
	Secret string        // must be set
	TTL    time.Duration // default 15m
}

// OracleConfig holds the outcome oracle endpoint settings.
type OracleConfig struct {
	URL          string        // default "http://localhost:3000/random"
	FetchTimeout time.Duration // default 3s
}

// LedgerConfig holds the fixed-point and fee constants of the ledger.
type LedgerConfig struct {
	AmountScale   int32  // base units per display unit = 10^AmountScale
	FeeMultiplier uint64 // wager fee multiplier, default 10
	MaxSettlers   int    // settler set capacity, default 10
}

// DecimalsConstant returns 10^AmountScale as an Amount — the fixed-point
// scaling constant used by the wager fee formula.
func (l LedgerConfig) DecimalsConstant() domain.Amount {
	c := domain.Amount(1)
	for i := int32(0); i < l.AmountScale; i++ {
		c *= 10
	}
	return c
}

// CoordinatorConfig holds settlement coordinator settings.
type CoordinatorConfig struct {
	Enabled        bool          // default true
	NodeID         string        // default hostname
	ScanInterval   time.Duration // default 6s (one scan per "block")
	APIBaseURL     string        // default "http://localhost:<port>"
	SettlerAccount uuid.UUID     // identity used to sign settlements; Nil = cannot sign
	StaleBetAge    time.Duration // log a warning for bets pending longer, default 24h
}

// ──────────────────────────────────────────────────────────────────────────────
// Top-level Config
// ──────────────────────────────────────────────────────────────────────────────

// Config is the root configuration object for the entire application.
type Config struct {
	Server      ServerConfig
	DB          DBConfig
	JWT         JWTConfig
	Oracle      OracleConfig
	Ledger      LedgerConfig
	Coordinator CoordinatorConfig
}

// IsProd returns true when running in the production environment.
func (c *Config) IsProd() bool {
	return c.Server.Env == "production"
}

// Validate checks that all required configuration values are present and valid.
func (c *Config) Validate() error {
	var errs []error

	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET must be set"))
	}
	if c.IsProd() && c.DB.DSN == "" {
		errs = append(errs, errors.New("DATABASE_DSN must be set in production"))
	}
	if c.Ledger.AmountScale < 0 || c.Ledger.AmountScale > 18 {
		errs = append(errs, fmt.Errorf(
			"LEDGER_AMOUNT_SCALE must be between 0 and 18, got %d", c.Ledger.AmountScale))
	}
	if c.Ledger.MaxSettlers < 1 {
		errs = append(errs, fmt.Errorf(
			"LEDGER_MAX_SETTLERS must be at least 1, got %d", c.Ledger.MaxSettlers))
	}
	if c.Oracle.URL == "" {
		errs = append(errs, errors.New("ORACLE_URL must be set"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Singleton
// ──────────────────────────────────────────────────────────────────────────────

var (
	instance *Config
	once     sync.Once
	loadErr  error
)

// Get returns the singleton Config, loading it once from environment variables.
// Panics if loading fails — call this early in main() to catch misconfigurations
// at startup.
func Get() *Config {
	once.Do(func() {
		instance, loadErr = load()
	})
	if loadErr != nil {
		panic(fmt.Sprintf("config: failed to load: %v", loadErr))
	}
	return instance
}

// MustLoad loads and validates configuration. Intended for use in main().
// Panics on any error so misconfiguration is caught immediately at boot.
func MustLoad() *Config {
	cfg := Get()
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("config: validation failed: %v", err))
	}
	return cfg
}

// ──────────────────────────────────────────────────────────────────────────────
// Internal loader
// ──────────────────────────────────────────────────────────────────────────────

func load() (*Config, error) {
	cfg := &Config{}

	// ── Server ────────────────────────────────────────────────────────────────
	cfg.Server = ServerConfig{
		Port:           getEnv("SERVER_PORT", "8080"),
		Env:            getEnv("ENVIRONMENT", "development"),
		ReadTimeout:    getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
		WriteTimeout:   getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
		AllowedOrigins: splitList(os.Getenv("SERVER_ALLOWED_ORIGINS")),
	}

	// ── Database ──────────────────────────────────────────────────────────────
	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		// Build DSN from individual components for convenience in dev
		dsn = fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			getEnv("DB_HOST", "localhost"),
			getEnv("DB_PORT", "5432"),
			getEnv("DB_USER", "postgres"),
			getEnv("DB_PASSWORD", ""),
			getEnv("DB_NAME", "chancepool"),
			getEnv("DB_SSLMODE", "disable"),
		)
	}

	maxOpen, err := getInt("DB_MAX_OPEN_CONNS", 25)
	if err != nil {
		return nil, fmt.Errorf("DB_MAX_OPEN_CONNS: %w", err)
	}
	maxIdle, err := getInt("DB_MAX_IDLE_CONNS", 10)
	if err != nil {
		return nil, fmt.Errorf("DB_MAX_IDLE_CONNS: %w", err)
	}

	cfg.DB = DBConfig{
		DSN:             dsn,
		MaxOpenConns:    maxOpen,
		MaxIdleConns:    maxIdle,
		ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}

	// ── JWT ───────────────────────────────────────────────────────────────────
	cfg.JWT = JWTConfig{
		Secret: getEnv("JWT_SECRET", ""),
		TTL:    getDuration("JWT_TTL", 15*time.Minute),
	}

	// ── Oracle ────────────────────────────────────────────────────────────────
	cfg.Oracle = OracleConfig{
		URL:          getEnv("ORACLE_URL", "http://localhost:3000/random"),
		FetchTimeout: getDuration("ORACLE_FETCH_TIMEOUT", 3*time.Second),
	}

	// ── Ledger constants ──────────────────────────────────────────────────────
	scale, err := getInt("LEDGER_AMOUNT_SCALE", 11)
	if err != nil {
		return nil, fmt.Errorf("LEDGER_AMOUNT_SCALE: %w", err)
	}
	feeMult, err := getInt("LEDGER_FEE_MULTIPLIER", 10)
	if err != nil {
		return nil, fmt.Errorf("LEDGER_FEE_MULTIPLIER: %w", err)
	}
	maxSettlers, err := getInt("LEDGER_MAX_SETTLERS", 10)
	if err != nil {
		return nil, fmt.Errorf("LEDGER_MAX_SETTLERS: %w", err)
	}
	cfg.Ledger = LedgerConfig{
		AmountScale:   int32(scale),
		FeeMultiplier: uint64(feeMult),
		MaxSettlers:   maxSettlers,
	}

	// ── Coordinator ───────────────────────────────────────────────────────────
	nodeID := os.Getenv("COORDINATOR_NODE_ID")
	if nodeID == "" {
		if host, hErr := os.Hostname(); hErr == nil {
			nodeID = host
		} else {
			nodeID = "chancepool-node"
		}
	}

	var settlerAccount uuid.UUID
	if raw := os.Getenv("COORDINATOR_SETTLER_ACCOUNT"); raw != "" {
		settlerAccount, err = uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("COORDINATOR_SETTLER_ACCOUNT: invalid uuid %q", raw)
		}
	}

	cfg.Coordinator = CoordinatorConfig{
		Enabled:        getEnv("COORDINATOR_ENABLED", "true") == "true",
		NodeID:         nodeID,
		ScanInterval:   getDuration("COORDINATOR_SCAN_INTERVAL", 6*time.Second),
		APIBaseURL:     getEnv("COORDINATOR_API_BASE_URL", "http://localhost:"+cfg.Server.Port),
		SettlerAccount: settlerAccount,
		StaleBetAge:    getDuration("COORDINATOR_STALE_BET_AGE", 24*time.Hour),
	}

	return cfg, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Helper functions
// ──────────────────────────────────────────────────────────────────────────────

// splitList splits a comma-separated env value into trimmed entries.
func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", v)
	}
	return n, nil
}

// getDuration parses an env var as a Go duration string (e.g. "15m", "3s").
// Falls back to defaultVal if the variable is unset or empty.
func getDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
