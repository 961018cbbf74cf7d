// internal/steps/load-rows/handler.go
package loadrows

import (
	"context"
	"fmt"

	"churn-loader/internal/common/database"
	apperrors "churn-loader/internal/common/errors"
	"churn-loader/internal/common/logger"
	"churn-loader/internal/models"
)

const (
	TaskType = "load-rows"
)

// ErrNoConnection is returned when the opener yields no connection.
var ErrNoConnection = database.ErrNoConnection

// Opener acquires the step's single connection. The returned release func
// is called on every exit path.
type Opener func(ctx context.Context) (RowStore, func(), error)

type Handler struct {
	config *Config
	open   Opener
	logger logger.Logger
}

func NewHandler(cfg *Config, open Opener, log logger.Logger) *Handler {
	if cfg == nil {
		cfg = LoadConfig()
	}
	return &Handler{
		config: cfg,
		open:   open,
		logger: log.WithFields(map[string]interface{}{"step": TaskType}),
	}
}

// Execute parses the CSV, then inserts every row whose RowNumber is not
// yet in churn_modelling. Nothing touches the database until the whole
// file has parsed.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || input.Path == "" {
		return nil, apperrors.NewConfigurationError("csv path is required")
	}

	rows, err := ReadCSV(input.Path)
	if err != nil {
		h.logger.Error("couldn't read csv file", map[string]interface{}{
			"path":  input.Path,
			"error": err,
		})
		return nil, err
	}

	if len(rows) == 0 {
		h.logger.Info(fmt.Sprintf("0 rows from csv file inserted into %s table", models.TableName),
			map[string]interface{}{"path": input.Path})
		return &Output{}, nil
	}

	store, release, err := h.openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	return h.Load(ctx, store, rows)
}

func (h *Handler) openStore(ctx context.Context) (RowStore, func(), error) {
	if h.open == nil {
		return nil, nil, apperrors.NewConnectionError(ErrNoConnection)
	}
	store, release, err := h.open(ctx)
	if err != nil {
		return nil, nil, err
	}
	if store == nil {
		if release != nil {
			release()
		}
		return nil, nil, apperrors.NewConnectionError(ErrNoConnection)
	}
	if release == nil {
		release = func() {}
	}
	return store, release, nil
}

// Load runs the per-row insert-if-absent loop. Each row commits on its own,
// so a failure leaves earlier rows persisted and abandons the rest.
func (h *Handler) Load(ctx context.Context, store RowStore, rows []models.RawRow) (*Output, error) {
	out := &Output{Total: len(rows)}

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			h.logger.Warn("row load interrupted", map[string]interface{}{
				"processed": i,
				"total":     out.Total,
			})
			return nil, fmt.Errorf("load interrupted after %d of %d rows: %w", i, out.Total, err)
		}

		inserted, err := h.loadRow(ctx, store, row)
		if err != nil {
			h.logger.Error("row load failed, abandoning remaining rows", map[string]interface{}{
				"line":      row.Line,
				"processed": i,
				"error":     err,
			})
			return nil, err
		}
		if inserted {
			out.Inserted++
		} else {
			out.Skipped++
		}

		if h.config.ProgressEvery > 0 && (i+1)%h.config.ProgressEvery == 0 {
			h.logger.Debug("rows processed", map[string]interface{}{
				"processed": i + 1,
				"inserted":  out.Inserted,
				"total":     out.Total,
			})
		}
	}

	h.logger.Info(fmt.Sprintf("%d rows from csv file inserted into %s table", out.Inserted, models.TableName),
		map[string]interface{}{
			"inserted": out.Inserted,
			"skipped":  out.Skipped,
			"total":    out.Total,
		})

	return out, nil
}

func (h *Handler) loadRow(ctx context.Context, store RowStore, row models.RawRow) (bool, error) {
	rowNumber, err := models.ParseRowNumber(row)
	if err != nil {
		return false, err
	}

	var inserted bool
	err = store.InTx(ctx, func(tx RowTx) error {
		exists, err := tx.Exists(ctx, rowNumber)
		if err != nil {
			return apperrors.NewInsertError("exists", rowNumber, err)
		}
		if exists {
			return nil
		}

		rec, err := models.ToRecord(row)
		if err != nil {
			return err
		}
		if err := tx.Insert(ctx, rec); err != nil {
			return apperrors.NewInsertError("insert", rowNumber, err)
		}
		inserted = true
		return nil
	})
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.ErrCodeInternal {
			err = apperrors.NewInsertError("transaction", rowNumber, err)
		}
		return false, err
	}
	return inserted, nil
}
