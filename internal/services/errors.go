package services

import (
	"errors"
	"fmt"
	"strings"
)

// Taxonomy markers. Every failure that crosses a stage boundary carries exactly
// one of these so callers can branch with errors.Is.
var (
	ErrSourceUnavailable   = errors.New("source unavailable")
	ErrMediaDecode         = errors.New("media decode error")
	ErrInference           = errors.New("inference error")
	ErrUnsupportedFormat   = errors.New("unsupported format")
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrFormat              = errors.New("format error")
	ErrMux                 = errors.New("mux error")
	ErrPackaging           = errors.New("packaging error")
	ErrRedundantReload     = errors.New("redundant reload")
	ErrConfiguration       = errors.New("configuration error")
	ErrTimeout             = errors.New("timeout")
)

var kinds = []struct {
	marker error
	name   string
}{
	{ErrSourceUnavailable, "SourceUnavailable"},
	{ErrMediaDecode, "MediaDecodeError"},
	{ErrInference, "InferenceError"},
	{ErrUnsupportedFormat, "UnsupportedFormat"},
	{ErrUnsupportedLanguage, "UnsupportedLanguage"},
	{ErrFormat, "FormatError"},
	{ErrMux, "MuxError"},
	{ErrPackaging, "PackagingError"},
	{ErrRedundantReload, "RedundantReload"},
	{ErrConfiguration, "ConfigurationError"},
	{ErrTimeout, "Timeout"},
}

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		return fmt.Errorf("%s: %w", detail, err)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns the taxonomy name of the first marker found in err's chain.
// A stage marker outranks ErrTimeout; use TimedOut to tell the two apart.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.marker) {
			return k.name
		}
	}
	return "Unknown"
}

// Recoverable reports whether the caller may continue after err. Only
// language resolution failures qualify; the raw code can still be shown.
func Recoverable(err error) bool {
	return err != nil && errors.Is(err, ErrUnsupportedLanguage)
}

// TimedOut reports whether err was caused by a deadline or cancellation.
func TimedOut(err error) bool {
	return err != nil && errors.Is(err, ErrTimeout)
}

// Details summarizes an error for persistence and user display.
type Details struct {
	Kind     string
	Message  string
	TimedOut bool
}

// DetailsFor extracts the kind and the human-readable message.
func DetailsFor(err error) Details {
	if err == nil {
		return Details{}
	}
	return Details{Kind: Kind(err), Message: strings.TrimSpace(err.Error()), TimedOut: TimedOut(err)}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
