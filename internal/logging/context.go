package logging

import (
	"context"
	"log/slog"

	"github.com/YatinSharma37/Anuvadika/internal/services"
)

const (
	// FieldComponent names the subsystem that emitted a line.
	FieldComponent = "component"
	// FieldRunID carries the pipeline run identifier.
	FieldRunID = "run_id"
	// FieldStage carries the pipeline stage name.
	FieldStage = "stage"
	// FieldEventType classifies lifecycle log lines (stage_start, stage_complete, ...).
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step an operator should take.
	FieldErrorHint = "error_hint"
	// FieldErrorKind carries the error taxonomy name.
	FieldErrorKind = "error_kind"
	// FieldImpact states the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldProgressPercent carries stage completion in percent.
	FieldProgressPercent = "progress_percent"
)

// WithContext tags logger with the run id and stage carried by ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if ctx == nil {
		return logger
	}
	var attrs []Attr
	if id, ok := services.RunIDFromContext(ctx); ok {
		attrs = append(attrs, String(FieldRunID, id))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		attrs = append(attrs, String(FieldStage, stage))
	}
	if len(attrs) == 0 {
		return logger
	}
	return logger.With(Args(attrs...)...)
}

// NewComponentLogger tags logger with a component name. A nil logger yields
// a no-op base.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(discardHandler{})
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }
