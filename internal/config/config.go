// internal/config/config.go
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config carries every tunable the server reads at startup. Values come
// from the environment, optionally seeded from a .env file.
type Config struct {
	ListenAddr  string
	DatabaseURL string
	RedisAddr   string
	RedisDB     int
	JWTSecret   string

	// HouseWallet receives the house fee at settlement.
	HouseWallet string

	// EntryFee overrides the engine default when non-zero, in the
	// ledger's smallest unit.
	EntryFee uint64

	LogLevel string
}

// Load reads configuration from the environment. A missing .env file is
// not an error; explicit environment variables always win because godotenv
// does not overwrite existing keys.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("could not read .env file")
	}

	cfg := &Config{
		ListenAddr:  getEnv("LISTEN_ADDR", ":8080"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisAddr:   getEnv("REDIS_ADDR", ""),
		RedisDB:     getEnvInt("REDIS_DB", 0),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		HouseWallet: getEnv("HOUSE_WALLET", "house"),
		EntryFee:    uint64(getEnvInt("ENTRY_FEE", 0)),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}
	return cfg
}

// ConfigureLogger applies the configured level to the global logrus logger.
func (c *Config) ConfigureLogger() {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		logrus.WithField("level", c.LogLevel).Warn("unknown log level, using info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logrus.WithField("key", key).WithError(err).Warn("invalid integer in environment, using fallback")
		return fallback
	}
	return n
}
