// Package config loads chessd's configuration from the environment, using
// a .env file as an optional overlay, mirroring the teacher's config
// package.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all server configuration.
type Config struct {
	GRPCPort string
	HTTPPort string

	Stockfish StockfishConfig
	Storage   StorageConfig

	WorkerPoolSize int

	DefaultAnalysisDepth int
	MaxAnalysisDepth     int
	ComputeAdvanced      bool

	EngineHandshakeTimeout time.Duration

	LogLevel  string
	LogFormat string
}

// StockfishConfig holds engine subprocess settings.
type StockfishConfig struct {
	BinaryPath      string
	SearchPaths     []string
	Threads         int
	HashMB          int
	DefaultSkill    int
}

// StorageConfig holds the SQLite storage location.
type StorageConfig struct {
	Path string
}

// Load reads configuration from the environment, loading a .env file first
// if one is present in the working directory.
func Load() (*Config, error) {
	_ = godotenv.Load()

	return &Config{
		GRPCPort: getEnv("GRPC_PORT", "50051"),
		HTTPPort: getEnv("HTTP_PORT", "8081"),

		Stockfish: StockfishConfig{
			BinaryPath:   getEnv("STOCKFISH_PATH", ""),
			SearchPaths:  []string{"/usr/local/bin/stockfish", "/usr/bin/stockfish", "/usr/games/stockfish"},
			Threads:      getEnvInt("STOCKFISH_THREADS", 1),
			HashMB:       getEnvInt("STOCKFISH_HASH_MB", 64),
			DefaultSkill: getEnvInt("STOCKFISH_DEFAULT_SKILL", 20),
		},

		Storage: StorageConfig{
			Path: getEnv("STORAGE_PATH", "chessd.db"),
		},

		WorkerPoolSize: getEnvInt("WORKER_POOL_SIZE", 4),

		DefaultAnalysisDepth: getEnvInt("DEFAULT_ANALYSIS_DEPTH", 18),
		MaxAnalysisDepth:     getEnvInt("MAX_ANALYSIS_DEPTH", 30),
		ComputeAdvanced:      getEnvBool("COMPUTE_ADVANCED", true),

		EngineHandshakeTimeout: time.Duration(getEnvInt("ENGINE_HANDSHAKE_TIMEOUT_SECONDS", 10)) * time.Second,

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
