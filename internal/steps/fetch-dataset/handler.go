// internal/steps/fetch-dataset/handler.go
package fetchdataset

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"churn-loader/internal/common/config"
	apperrors "churn-loader/internal/common/errors"
	apphttp "churn-loader/internal/common/http"
	"churn-loader/internal/common/logger"
)

const (
	TaskType = "fetch-dataset"
)

type Handler struct {
	client *apphttp.Client
	logger logger.Logger
}

func NewHandler(cfg *Config, log logger.Logger) *Handler {
	if cfg == nil {
		cfg = LoadConfig()
	}
	return &Handler{
		client: apphttp.NewClient(cfg.Timeout, cfg.Transport),
		logger: log.WithFields(map[string]interface{}{"step": TaskType}),
	}
}

// Execute downloads input.URL into input.DestFolder/input.FileName,
// creating the folder if needed. The body is written to a temporary file
// and renamed into place, so a failed download leaves any earlier copy
// untouched.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	src := config.SourceConfig{URL: input.URL, DestFolder: input.DestFolder, FileName: input.FileName}
	if err := src.Validate(); err != nil {
		return nil, apperrors.NewConfigurationError(err.Error())
	}
	if err := src.ValidateURL(); err != nil {
		return nil, apperrors.NewConfigurationError(err.Error())
	}

	if err := os.MkdirAll(input.DestFolder, 0o755); err != nil {
		return nil, apperrors.NewDownloadError(input.URL, fmt.Errorf("create destination folder: %w", err))
	}

	resp, err := h.client.Get(ctx, input.URL)
	if err != nil {
		return nil, apperrors.NewDownloadError(input.URL, err)
	}
	defer resp.Body.Close()

	tmp, err := os.CreateTemp(input.DestFolder, "."+input.FileName+".*.part")
	if err != nil {
		return nil, apperrors.NewDownloadError(input.URL, fmt.Errorf("create temp file: %w", err))
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	written, err := io.Copy(tmp, resp.Body)
	if err != nil {
		_ = tmp.Close()
		return nil, apperrors.NewDownloadError(input.URL, fmt.Errorf("write body: %w", err))
	}
	if err := tmp.Close(); err != nil {
		return nil, apperrors.NewDownloadError(input.URL, fmt.Errorf("close temp file: %w", err))
	}

	dest := filepath.Join(input.DestFolder, input.FileName)
	if err := os.Rename(tmpName, dest); err != nil {
		return nil, apperrors.NewDownloadError(input.URL, fmt.Errorf("move into place: %w", err))
	}
	committed = true

	h.logger.Info("csv file downloaded", map[string]interface{}{
		"url":   input.URL,
		"path":  dest,
		"bytes": written,
	})

	return &Output{
		Path:       dest,
		Bytes:      written,
		StatusCode: resp.StatusCode,
	}, nil
}
