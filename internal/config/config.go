// Package config provides configuration management for the pose agent.
// Configuration is loaded from environment variables with sensible defaults;
// a .env file in the working directory is read first when present.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	// Default values
	DefaultPort         = 8788
	DefaultLogLevel     = "info"
	DefaultDataDir      = ".heimdex-pose"
	DefaultMaxBodyBytes = 64 << 20

	// Environment variable names
	EnvPort         = "POSE_PORT"
	EnvLogLevel     = "POSE_LOG_LEVEL"
	EnvLogFile      = "POSE_LOG_FILE"
	EnvDataDir      = "POSE_DATA_DIR"
	EnvWorkers      = "POSE_WORKERS"
	EnvStrict       = "POSE_STRICT_PERSON_INDEX"
	EnvHeadless     = "POSE_HEADLESS"
	EnvMaxBodyBytes = "POSE_MAX_BODY_BYTES"

	// Database filename
	DBFilename = "pose.db"
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	LogFile() string
	DataDir() string
	DBPath() string
	Workers() int
	StrictPersonIndex() bool
	Headless() bool
	MaxBodyBytes() int64
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port         int
	logLevel     string
	logFile      string
	dataDir      string
	workers      int
	strict       bool
	headless     bool
	maxBodyBytes int64
}

// Load reads a .env file into the environment without overriding variables
// that are already set, then builds the config. A missing .env is fine.
func Load(envFiles ...string) (*EnvConfig, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}
	return New()
}

// New creates a new EnvConfig with defaults and environment variable overrides
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:         DefaultPort,
		logLevel:     DefaultLogLevel,
		dataDir:      defaultDataDir(),
		maxBodyBytes: DefaultMaxBodyBytes,
	}

	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}
	cfg.logFile = os.Getenv(EnvLogFile)

	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	if w := os.Getenv(EnvWorkers); w != "" {
		workers, err := strconv.Atoi(w)
		if err != nil || workers < 0 {
			return nil, fmt.Errorf("invalid %s: must be a non-negative integer", EnvWorkers)
		}
		cfg.workers = workers
	}

	var err error
	if cfg.strict, err = envBool(EnvStrict); err != nil {
		return nil, err
	}
	if cfg.headless, err = envBool(EnvHeadless); err != nil {
		return nil, err
	}

	if mb := os.Getenv(EnvMaxBodyBytes); mb != "" {
		n, err := strconv.ParseInt(mb, 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid %s: must be a positive integer", EnvMaxBodyBytes)
		}
		cfg.maxBodyBytes = n
	}

	return cfg, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// LogFile returns the rotating log file path, empty for stdout only.
func (c *EnvConfig) LogFile() string {
	return c.logFile
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// Workers bounds per-request frame parallelism; 0 means GOMAXPROCS.
func (c *EnvConfig) Workers() int {
	return c.workers
}

func (c *EnvConfig) StrictPersonIndex() bool {
	return c.strict
}

func (c *EnvConfig) Headless() bool {
	return c.headless
}

func (c *EnvConfig) MaxBodyBytes() int64 {
	return c.maxBodyBytes
}

func envBool(key string) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
