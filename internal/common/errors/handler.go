package errors

import (
	stderrors "errors"
	"time"

	"github.com/lib/pq"
)

// Logger is the subset of logger.Logger the handler needs.
type Logger interface {
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// FailureRecorder counts handled failures, typically a metrics counter.
type FailureRecorder func(step string, code ErrorCode)

// Handler catches errors at the boundary of a step, logs them and turns
// them into "skip the rest of this step". It never retries.
type Handler struct {
	logger Logger
	record FailureRecorder
}

func NewHandler(logger Logger, record FailureRecorder) *Handler {
	return &Handler{logger: logger, record: record}
}

// Handle logs err for step. Schema failures are tolerated and logged as
// warnings, everything else at error level.
func (h *Handler) Handle(step string, err error) {
	if err == nil {
		return
	}

	stdErr := normalizeError(err)
	fields := map[string]interface{}{
		"step":          step,
		"errorCode":     string(stdErr.Code),
		"errorCategory": GetErrorCategory(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
	}
	for k, v := range stdErr.Metadata {
		fields[k] = v
	}

	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		fields["sqlState"] = string(pqErr.Code)
		fields["sqlStateName"] = pqErr.Code.Name()
	}

	if stdErr.Code == ErrCodeSchema {
		h.logger.Warn("step failed, continuing", fields)
	} else {
		h.logger.Error("step failed", fields)
	}

	if h.record != nil {
		h.record(step, stdErr.Code)
	}
}

// Count records a failure whose cause was already logged where it
// happened, without logging it again.
func (h *Handler) Count(step string, err error) {
	if err == nil || h.record == nil {
		return
	}
	h.record(step, normalizeError(err).Code)
}

// normalizeError ensures we always have a StandardError
func normalizeError(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		Err:       err,
	}
}
