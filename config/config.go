package config

import (
	"strings"

	"github.com/pkg/errors"
)

const (
	DefaultLogLevel       = "info"
	DefaultChunkSize      = 10
	DefaultMaxRunningJobs = 10
)

type LogConfig struct {
	Level string `yaml:"level"`
}

type BatchConfig struct {
	ChunkSize      int `yaml:"chunk_size"`
	MaxRunningJobs int `yaml:"max_running_jobs"`
}

// DatabaseConfig an empty driver means no database is used
type DatabaseConfig struct {
	Driver       string `yaml:"driver"`
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

type FTPConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type Config struct {
	Log      LogConfig      `yaml:"log"`
	Batch    BatchConfig    `yaml:"batch"`
	Database DatabaseConfig `yaml:"database"`
	FTP      FTPConfig      `yaml:"ftp"`
}

// NewConfig a Config holding the default values
func NewConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
		Batch: BatchConfig{
			ChunkSize:      DefaultChunkSize,
			MaxRunningJobs: DefaultMaxRunningJobs,
		},
		FTP: FTPConfig{
			Port:           21,
			TimeoutSeconds: 10,
		},
	}
}

var supportedDrivers = map[string]bool{
	"mysql":    true,
	"postgres": true,
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error", "off":
	default:
		return errors.Errorf("unknown log level:%q", c.Log.Level)
	}
	if c.Batch.ChunkSize < 1 {
		return errors.Errorf("chunk size must be positive, got:%v", c.Batch.ChunkSize)
	}
	if c.Batch.MaxRunningJobs < 1 {
		return errors.Errorf("max running jobs must be positive, got:%v", c.Batch.MaxRunningJobs)
	}
	if c.Database.Driver != "" {
		if !supportedDrivers[c.Database.Driver] {
			return errors.Errorf("unsupported database driver:%q", c.Database.Driver)
		}
		if c.Database.DSN == "" {
			return errors.Errorf("dsn is required for database driver:%v", c.Database.Driver)
		}
	}
	if c.FTP.Host != "" && (c.FTP.Port <= 0 || c.FTP.Port > 65535) {
		return errors.Errorf("invalid ftp port:%v", c.FTP.Port)
	}
	return nil
}
