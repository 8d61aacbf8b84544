package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	EnvLogLevel       = "MINIBATCH_LOG_LEVEL"
	EnvChunkSize      = "MINIBATCH_CHUNK_SIZE"
	EnvMaxRunningJobs = "MINIBATCH_MAX_RUNNING_JOBS"
	EnvDbDriver       = "MINIBATCH_DB_DRIVER"
	EnvDbDSN          = "MINIBATCH_DB_DSN"
	EnvFtpHost        = "MINIBATCH_FTP_HOST"
	EnvFtpPort        = "MINIBATCH_FTP_PORT"
	EnvFtpUser        = "MINIBATCH_FTP_USER"
	EnvFtpPassword    = "MINIBATCH_FTP_PASSWORD"
)

// Load build the configuration: defaults, then the yaml file at path (skipped when path is empty),
// then environment variables. Variables found in the given .env files are added to the environment
// unless already set; missing .env files are ignored.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := NewConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read config file:%v", path)
		}
		if err = Parse(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config file:%v", path)
		}
	}
	if err := loadEnvFiles(envFiles...); err != nil {
		return nil, err
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse merge yaml data into cfg, keys absent from data keep their current value
func Parse(data []byte, cfg *Config) error {
	return yaml.Unmarshal(data, cfg)
}

func loadEnvFiles(files ...string) error {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return errors.Wrap(err, "load env files")
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
	if err := envInt(EnvChunkSize, &cfg.Batch.ChunkSize); err != nil {
		return err
	}
	if err := envInt(EnvMaxRunningJobs, &cfg.Batch.MaxRunningJobs); err != nil {
		return err
	}
	if v := os.Getenv(EnvDbDriver); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv(EnvDbDSN); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv(EnvFtpHost); v != "" {
		cfg.FTP.Host = v
	}
	if err := envInt(EnvFtpPort, &cfg.FTP.Port); err != nil {
		return err
	}
	if v := os.Getenv(EnvFtpUser); v != "" {
		cfg.FTP.User = v
	}
	if v := os.Getenv(EnvFtpPassword); v != "" {
		cfg.FTP.Password = v
	}
	return nil
}

func envInt(name string, target *int) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return errors.Wrapf(err, "invalid value of %v:%q", name, v)
	}
	*target = n
	return nil
}
