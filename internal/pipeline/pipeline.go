// Package pipeline runs the churn loader steps in order: connection check,
// dataset fetch, table creation and row load.
package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"churn-loader/internal/common/config"
	"churn-loader/internal/common/database"
	apperrors "churn-loader/internal/common/errors"
	"churn-loader/internal/common/logger"
	"churn-loader/internal/common/metrics"
	"churn-loader/internal/common/observability"
	createtable "churn-loader/internal/steps/create-table"
	fetchdataset "churn-loader/internal/steps/fetch-dataset"
	loadrows "churn-loader/internal/steps/load-rows"
)

const connectStep = "connect"

// ConnectFunc opens a fresh connection, or returns nil when none could be
// established. Failures are expected to be logged by the implementation.
type ConnectFunc func(ctx context.Context) *database.PostgresClient

type Pipeline struct {
	cfg      *config.Config
	logger   logger.Logger
	errs     *apperrors.Handler
	obs      *observability.Observability
	connect  ConnectFunc
	fetchCfg *fetchdataset.Config
	gatherer prometheus.Gatherer
	runID    string
}

type Option func(*Pipeline)

// WithConnector replaces database.Connect.
func WithConnector(fn ConnectFunc) Option {
	return func(p *Pipeline) { p.connect = fn }
}

// WithObservability records step timings on obs.
func WithObservability(obs *observability.Observability) Option {
	return func(p *Pipeline) { p.obs = obs }
}

// WithFetchConfig overrides the HTTP settings of the fetch step.
func WithFetchConfig(cfg *fetchdataset.Config) Option {
	return func(p *Pipeline) { p.fetchCfg = cfg }
}

// WithGatherer sets what is pushed to the pushgateway.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(p *Pipeline) { p.gatherer = g }
}

func New(cfg *config.Config, log logger.Logger, opts ...Option) *Pipeline {
	runID := uuid.NewString()
	log = log.WithFields(map[string]interface{}{"runId": runID})

	p := &Pipeline{
		cfg:      cfg,
		logger:   log,
		gatherer: prometheus.DefaultGatherer,
		runID:    runID,
	}
	p.errs = apperrors.NewHandler(log, func(step string, code apperrors.ErrorCode) {
		metrics.StepFailures.WithLabelValues(step, string(code)).Inc()
	})
	p.connect = func(ctx context.Context) *database.PostgresClient {
		return database.Connect(ctx, cfg.Database.Postgres, log)
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.fetchCfg == nil {
		p.fetchCfg = fetchdataset.LoadConfig()
		if cfg.Source.Timeout > 0 {
			p.fetchCfg.Timeout = config.GetDuration(cfg.Source.Timeout)
		}
	}
	return p
}

// RunID identifies this run in logs and pushed metrics.
func (p *Pipeline) RunID() string {
	return p.runID
}

// Run executes every step once. It returns an error only for failures that
// must end the process with a non-zero status: an unparseable CSV, or a
// failed download when source.fail_on_download_error is set. Everything
// else is logged and the run carries on.
func (p *Pipeline) Run(ctx context.Context) error {
	defer p.pushMetrics()

	p.logger.Info("churn loader run started", map[string]interface{}{
		"source": p.cfg.Source.URL,
		"path":   p.cfg.Source.FilePath(),
	})

	_ = p.step(ctx, connectStep, p.checkConnection)

	if err := p.step(ctx, fetchdataset.TaskType, p.fetch); err != nil && p.cfg.Source.FailOnDownloadError {
		return err
	}

	_ = p.step(ctx, createtable.TaskType, p.createTable)

	if err := p.step(ctx, loadrows.TaskType, p.loadRows); err != nil &&
		apperrors.IsCode(err, apperrors.ErrCodeCsvParse) {
		return err
	}

	p.logger.Info("churn loader run finished", nil)
	return nil
}

func (p *Pipeline) step(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)

	status := "ok"
	switch {
	case err == nil:
	case errors.Is(err, database.ErrNoConnection):
		status = "failed"
		p.errs.Count(name, err)
	default:
		status = "failed"
		p.errs.Handle(name, err)
	}
	p.obs.RecordStep(ctx, name, status, time.Since(start))
	return err
}

func (p *Pipeline) checkConnection(ctx context.Context) error {
	client := p.connect(ctx)
	if client == nil {
		return apperrors.NewConnectionError(database.ErrNoConnection)
	}
	return client.Close()
}

func (p *Pipeline) fetch(ctx context.Context) error {
	out, err := fetchdataset.NewHandler(p.fetchCfg, p.logger).Execute(ctx, &fetchdataset.Input{
		URL:        p.cfg.Source.URL,
		DestFolder: p.cfg.Source.DestFolder,
		FileName:   p.cfg.Source.FileName,
	})
	if err != nil {
		return err
	}
	metrics.DownloadBytes.Set(float64(out.Bytes))
	return nil
}

func (p *Pipeline) createTable(ctx context.Context) error {
	client := p.connect(ctx)
	defer client.Close() //nolint:errcheck

	_, err := createtable.NewHandler(nil, p.logger).Execute(ctx, dbOf(client))
	return err
}

func (p *Pipeline) loadRows(ctx context.Context) error {
	if err := p.cfg.Source.Validate(); err != nil {
		return apperrors.NewConfigurationError(err.Error())
	}

	open := func(ctx context.Context) (loadrows.RowStore, func(), error) {
		client := p.connect(ctx)
		if client == nil {
			return nil, nil, nil
		}
		return loadrows.NewSQLStore(client.GetDB()), func() { _ = client.Close() }, nil
	}

	out, err := loadrows.NewHandler(nil, open, p.logger).Execute(ctx, &loadrows.Input{
		Path: p.cfg.Source.FilePath(),
	})
	if err != nil {
		return err
	}

	metrics.RowsInserted.Add(float64(out.Inserted))
	metrics.RowsSkipped.Add(float64(out.Skipped))
	metrics.LastSuccess.SetToCurrentTime()
	return nil
}

func (p *Pipeline) pushMetrics() {
	if err := metrics.Push(p.cfg.Metrics.PushgatewayURL, p.cfg.Metrics.JobName, p.runID, p.gatherer); err != nil {
		p.logger.Warn("couldn't push metrics", map[string]interface{}{
			"error": err,
		})
	}
}

func dbOf(client *database.PostgresClient) *sql.DB {
	if client == nil {
		return nil
	}
	return client.GetDB()
}
