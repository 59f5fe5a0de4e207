package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"crystal-ball/internal/db"
	"crystal-ball/internal/game"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

type Config struct {
	DatabaseURL              string
	DefaultCapacity          int
	MinCapacity              int
	MaxCapacity              int
	MaxQuestionLength        int
	MaxNameLength            int
	MaxPredictionLength      int
	SessionTTL               time.Duration
	UpdateAttempts           int
	CodeAttempts             int
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeSeconds int
	DBConnMaxIdleTimeSeconds int
	RateLimitPerSecond       float64
	RateLimitBurst           int
	AllowedOrigins           []string
	LogLevel                 string
}

func Default() Config {
	return Config{
		DefaultCapacity:          5,
		MinCapacity:              2,
		MaxCapacity:              20,
		MaxQuestionLength:        500,
		MaxNameLength:            50,
		MaxPredictionLength:      1000,
		SessionTTL:               24 * time.Hour,
		UpdateAttempts:           3,
		CodeAttempts:             10,
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           10,
		DBConnMaxLifetimeSeconds: 300,
		DBConnMaxIdleTimeSeconds: 60,
		RateLimitPerSecond:       5,
		RateLimitBurst:           20,
		LogLevel:                 "info",
	}
}

func Load() Config {
	cfg := Default()
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	positiveInt("DEFAULT_CAPACITY", &cfg.DefaultCapacity)
	positiveInt("MIN_CAPACITY", &cfg.MinCapacity)
	positiveInt("MAX_CAPACITY", &cfg.MaxCapacity)
	positiveInt("MAX_QUESTION_LENGTH", &cfg.MaxQuestionLength)
	positiveInt("MAX_NAME_LENGTH", &cfg.MaxNameLength)
	positiveInt("MAX_PREDICTION_LENGTH", &cfg.MaxPredictionLength)
	if raw := os.Getenv("SESSION_TTL"); raw != "" {
		if value, err := time.ParseDuration(raw); err == nil && value > 0 {
			cfg.SessionTTL = value
		}
	}
	positiveInt("UPDATE_ATTEMPTS", &cfg.UpdateAttempts)
	positiveInt("CODE_ATTEMPTS", &cfg.CodeAttempts)
	positiveInt("DB_MAX_OPEN_CONNS", &cfg.DBMaxOpenConns)
	positiveInt("DB_MAX_IDLE_CONNS", &cfg.DBMaxIdleConns)
	positiveInt("DB_CONN_MAX_LIFETIME_SECONDS", &cfg.DBConnMaxLifetimeSeconds)
	positiveInt("DB_CONN_MAX_IDLE_SECONDS", &cfg.DBConnMaxIdleTimeSeconds)
	if raw := os.Getenv("RATE_LIMIT_PER_SECOND"); raw != "" {
		if value, err := strconv.ParseFloat(raw, 64); err == nil && value >= 0 {
			cfg.RateLimitPerSecond = value
		}
	}
	positiveInt("RATE_LIMIT_BURST", &cfg.RateLimitBurst)
	if raw := os.Getenv("ALLOWED_ORIGINS"); raw != "" {
		for _, origin := range strings.Split(raw, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
			}
		}
	}
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		cfg.LogLevel = raw
	}
	return cfg
}

func positiveInt(key string, dest *int) {
	if raw := os.Getenv(key); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			*dest = value
		}
	}
}

func (c Config) Limits() game.Limits {
	return game.Limits{
		DefaultCapacity:     c.DefaultCapacity,
		MinCapacity:         c.MinCapacity,
		MaxCapacity:         c.MaxCapacity,
		MaxQuestionLength:   c.MaxQuestionLength,
		MaxNameLength:       c.MaxNameLength,
		MaxPredictionLength: c.MaxPredictionLength,
	}
}

// GameOptions returns the service options; the caller sets the journal.
func (c Config) GameOptions() game.Options {
	opts := game.DefaultOptions()
	opts.Limits = c.Limits()
	opts.SessionTTL = c.SessionTTL
	opts.UpdateAttempts = c.UpdateAttempts
	opts.CodeAttempts = c.CodeAttempts
	return opts
}

func (c Config) Pool() db.Pool {
	return db.Pool{
		MaxOpenConns:    c.DBMaxOpenConns,
		MaxIdleConns:    c.DBMaxIdleConns,
		ConnMaxLifetime: time.Duration(c.DBConnMaxLifetimeSeconds) * time.Second,
		ConnMaxIdleTime: time.Duration(c.DBConnMaxIdleTimeSeconds) * time.Second,
	}
}
