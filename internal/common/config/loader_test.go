package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func clearLoaderEnv(t *testing.T) {
	t.Helper()
	for _, names := range envBindings {
		for _, name := range names {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
}

func TestLoadFromFile_Defaults(t *testing.T) {
	clearLoaderEnv(t)
	path := writeConfig(t, "app:\n  name: churn-loader\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultSourceURL, cfg.Source.URL)
	assert.Equal(t, "churn_modelling.csv", cfg.Source.FileName)
	assert.Equal(t, 60*time.Second, GetDuration(cfg.Source.Timeout))
	assert.False(t, cfg.Source.FailOnDownloadError)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "churn-loader", cfg.Metrics.JobName)

	// required values are never defaulted
	assert.Empty(t, cfg.Database.Postgres.Host)
	assert.Empty(t, cfg.Source.DestFolder)
	assert.ElementsMatch(t,
		[]string{"host", "port", "database", "user", "password"},
		cfg.Database.Postgres.MissingFields())
}

func TestLoadFromFile_LowerCaseEnvNames(t *testing.T) {
	clearLoaderEnv(t)
	t.Setenv("postgres_host", "db.internal")
	t.Setenv("postgres_database", "analytics")
	t.Setenv("postgres_user", "loader")
	t.Setenv("postgres_password", "s3cret")
	t.Setenv("postgres_port", "5433")
	t.Setenv("dest_folder", "/var/data")

	cfg, err := LoadFromFile(writeConfig(t, "source:\n  timeout: 1000\n"))
	require.NoError(t, err)

	pg := cfg.Database.Postgres
	assert.Equal(t, "db.internal", pg.Host)
	assert.Equal(t, "analytics", pg.Database)
	assert.Equal(t, "loader", pg.User)
	assert.Equal(t, "s3cret", pg.Password)
	assert.Equal(t, "5433", pg.Port)
	assert.Empty(t, pg.MissingFields())
	assert.Equal(t, "/var/data", cfg.Source.DestFolder)
	assert.Equal(t, filepath.Join("/var/data", "churn_modelling.csv"), cfg.Source.FilePath())
	assert.Equal(t, 1000, cfg.Source.Timeout)
}

func TestLoadFromFile_UpperCaseEnvWins(t *testing.T) {
	clearLoaderEnv(t)
	t.Setenv("POSTGRES_HOST", "upper")
	t.Setenv("postgres_host", "lower")
	t.Setenv("SOURCE_FAIL_ON_DOWNLOAD_ERROR", "true")

	cfg, err := LoadFromFile(writeConfig(t, "database:\n  postgres:\n    host: from-file\n"))
	require.NoError(t, err)

	assert.Equal(t, "upper", cfg.Database.Postgres.Host)
	assert.True(t, cfg.Source.FailOnDownloadError)
}

func TestLoadFromFile_ExpandsPlaceholders(t *testing.T) {
	clearLoaderEnv(t)
	t.Setenv("DATA_ROOT", "/srv/churn")

	cfg, err := LoadFromFile(writeConfig(t, "source:\n  dest_folder: ${DATA_ROOT}/raw\n"))
	require.NoError(t, err)
	assert.Equal(t, "/srv/churn/raw", cfg.Source.DestFolder)
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestSourceConfig_Validate(t *testing.T) {
	ok := SourceConfig{URL: DefaultSourceURL, DestFolder: "/tmp/x", FileName: "churn_modelling.csv"}
	assert.NoError(t, ok.Validate())
	assert.NoError(t, ok.ValidateURL())

	noDir := ok
	noDir.DestFolder = ""
	assert.ErrorContains(t, noDir.Validate(), "dest_folder")

	nested := ok
	nested.FileName = "../escape.csv"
	assert.Error(t, nested.Validate())

	ftp := ok
	ftp.URL = "ftp://example.com/file.csv"
	assert.Error(t, ftp.ValidateURL())
}

func TestPostgresConfig_GetDSN(t *testing.T) {
	p := PostgresConfig{
		Host: "localhost", Port: "5432", Database: "churn",
		User: "loader", Password: "pa ss'word", SSLMode: "disable",
	}
	assert.Equal(t,
		`host=localhost port=5432 user=loader password='pa ss\'word' dbname=churn sslmode=disable`,
		p.GetDSN())
}
