// internal/steps/create-table/handler.go
package createtable

import (
	"context"
	"database/sql"

	"churn-loader/internal/common/database"
	apperrors "churn-loader/internal/common/errors"
	"churn-loader/internal/common/logger"
	"churn-loader/internal/models"
)

const (
	TaskType = "create-table"
)

// ErrNoConnection is returned when the step is handed an absent connection.
var ErrNoConnection = database.ErrNoConnection

// CreateTableSQL creates churn_modelling if it does not exist yet.
const CreateTableSQL = `CREATE TABLE IF NOT EXISTS churn_modelling (
	RowNumber INTEGER PRIMARY KEY,
	CustomerId INTEGER,
	Surname VARCHAR(50),
	CreditScore INTEGER,
	Geography VARCHAR(50),
	Gender VARCHAR(20),
	Age INTEGER,
	Tenure INTEGER,
	Balance FLOAT,
	NumOfProducts INTEGER,
	HasCrCard INTEGER,
	IsActiveMember INTEGER,
	EstimatedSalary FLOAT,
	Exited INTEGER
)`

type Handler struct {
	config *Config
	logger logger.Logger
}

func NewHandler(cfg *Config, log logger.Logger) *Handler {
	if cfg == nil {
		cfg = LoadConfig()
	}
	return &Handler{
		config: cfg,
		logger: log.WithFields(map[string]interface{}{"step": TaskType}),
	}
}

// Execute runs the idempotent CREATE TABLE IF NOT EXISTS in its own
// transaction. A nil db is reported as a SchemaError so the caller can log
// it and move on.
func (h *Handler) Execute(ctx context.Context, db *sql.DB) (*Output, error) {
	if db == nil {
		return nil, apperrors.NewSchemaError(models.TableName, ErrNoConnection)
	}

	if h.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.Timeout)
		defer cancel()
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperrors.NewSchemaError(models.TableName, err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, CreateTableSQL); err != nil {
		return nil, apperrors.NewSchemaError(models.TableName, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, apperrors.NewSchemaError(models.TableName, err)
	}

	h.logger.Info("table churn_modelling is in place", map[string]interface{}{
		"table": models.TableName,
	})

	return &Output{Table: models.TableName}, nil
}
