// internal/common/config/config.go
package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"
)

// DefaultSourceURL is the published churn modelling dataset.
const DefaultSourceURL = "https://raw.githubusercontent.com/marcelopachione/pythonLabs/main/datasets/churn_modelling.csv"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	Source   SourceConfig   `mapstructure:"source"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig holds connection parameters. Port is kept as the raw
// string so a malformed value surfaces at connection time.
type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		quoteDSN(p.Host), quoteDSN(p.Port), quoteDSN(p.User), quoteDSN(p.Password),
		quoteDSN(p.Database), quoteDSN(p.SSLMode),
	)
}

// MissingFields lists the required connection parameters that are empty.
func (p PostgresConfig) MissingFields() []string {
	var missing []string
	if p.Host == "" {
		missing = append(missing, "host")
	}
	if p.Port == "" {
		missing = append(missing, "port")
	}
	if p.Database == "" {
		missing = append(missing, "database")
	}
	if p.User == "" {
		missing = append(missing, "user")
	}
	if p.Password == "" {
		missing = append(missing, "password")
	}
	return missing
}

// quoteDSN quotes a key/value DSN value when it contains spaces or quotes.
func quoteDSN(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// SourceConfig describes where the dataset comes from and where it lands.
type SourceConfig struct {
	URL        string `mapstructure:"url"`
	DestFolder string `mapstructure:"dest_folder"`
	FileName   string `mapstructure:"file_name"`
	Timeout    int    `mapstructure:"timeout"` // milliseconds

	// FailOnDownloadError makes a failed fetch end the run. Off by default:
	// the run then goes on with whatever file is (or is not) on disk.
	FailOnDownloadError bool `mapstructure:"fail_on_download_error"`
}

// FilePath is the local path the dataset is downloaded to and read from.
func (s SourceConfig) FilePath() string {
	return filepath.Join(s.DestFolder, s.FileName)
}

// Validate checks the source settings the fetcher and loader depend on.
func (s SourceConfig) Validate() error {
	if s.DestFolder == "" {
		return fmt.Errorf("source.dest_folder is required")
	}
	if s.FileName == "" {
		return fmt.Errorf("source.file_name is required")
	}
	if strings.ContainsAny(s.FileName, `/\`) {
		return fmt.Errorf("source.file_name must be a bare file name, got %q", s.FileName)
	}
	return nil
}

// ValidateURL checks the download URL.
func (s SourceConfig) ValidateURL() error {
	u, err := url.Parse(s.URL)
	if err != nil {
		return fmt.Errorf("source.url is invalid: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("source.url must be http(s), got %q", s.URL)
	}
	return nil
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig controls the end-of-run metrics push.
type MetricsConfig struct {
	PushgatewayURL string `mapstructure:"pushgateway_url"`
	JobName        string `mapstructure:"job_name"`
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
