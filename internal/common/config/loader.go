// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envBindings maps config keys to the environment variables that may set
// them. The lower-case spellings match the settings file of earlier
// deployments.
var envBindings = map[string][]string{
	"database.postgres.host":        {"POSTGRES_HOST", "postgres_host"},
	"database.postgres.database":    {"POSTGRES_DATABASE", "postgres_database"},
	"database.postgres.user":        {"POSTGRES_USER", "postgres_user"},
	"database.postgres.password":    {"POSTGRES_PASSWORD", "postgres_password"},
	"database.postgres.port":        {"POSTGRES_PORT", "postgres_port"},
	"database.postgres.sslmode":     {"POSTGRES_SSLMODE", "postgres_sslmode"},
	"source.url":                    {"SOURCE_URL"},
	"source.dest_folder":            {"DEST_FOLDER", "dest_folder"},
	"source.file_name":              {"SOURCE_FILE_NAME"},
	"source.timeout":                {"SOURCE_TIMEOUT"},
	"source.fail_on_download_error": {"SOURCE_FAIL_ON_DOWNLOAD_ERROR"},
	"logging.level":                 {"LOG_LEVEL"},
	"logging.format":                {"LOG_FORMAT"},
	"metrics.pushgateway_url":       {"METRICS_PUSHGATEWAY_URL"},
	"metrics.job_name":              {"METRICS_JOB_NAME"},
	"app.environment":               {"APP_ENVIRONMENT"},
}

// Load reads configs/config.yaml (optional), the environment specific
// override, the local .env file and the process environment. Missing
// connection parameters are not an error here; they surface when a
// connection is requested.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // ignore error if not found

	return build(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return build(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for key, names := range envBindings {
		_ = v.BindEnv(append([]string{key}, names...)...)
	}

	v.SetDefault("app.name", "churn-loader")
	v.SetDefault("app.environment", "development")
	v.SetDefault("source.url", DefaultSourceURL)
	v.SetDefault("source.file_name", "churn_modelling.csv")
	v.SetDefault("source.timeout", 60000)
	v.SetDefault("source.fail_on_download_error", false)
	v.SetDefault("database.postgres.sslmode", "disable")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("metrics.job_name", "churn-loader")
	return v
}

func build(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// loadEnvFile seeds the process environment from the first .env found.
// Variables already set in the environment win.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders left in string settings.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") {
			v.Set(key, os.ExpandEnv(strVal))
		}
	}
}

// applyDefaults fills optional fields that an explicit empty value in a
// settings file may have cleared. Required fields are left alone.
func applyDefaults(cfg *Config) {
	if cfg.Source.URL == "" {
		cfg.Source.URL = DefaultSourceURL
	}
	if cfg.Source.FileName == "" {
		cfg.Source.FileName = "churn_modelling.csv"
	}
	if cfg.Source.Timeout <= 0 {
		cfg.Source.Timeout = 60000
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
	if cfg.Metrics.JobName == "" {
		cfg.Metrics.JobName = "churn-loader"
	}
}
