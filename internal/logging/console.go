package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

const consoleTimestampLayout = "2006-01-02 15:04:05"

// consoleHandler writes one human-readable line per record:
//
//	2026-01-02 15:04:05 INFO  [run 0f3c2a1b · infer] pipeline: message (42%) key=value
//
// Run id, stage, component and progress are lifted out of the attributes
// into the line prefix.
type consoleHandler struct {
	mu        *sync.Mutex
	w         io.Writer
	level     *slog.LevelVar
	addSource bool
	attrs     []field
	groups    []string
}

type field struct {
	key   string
	value slog.Value
}

type lineHeader struct {
	component string
	runID     string
	stage     string
	percent   string
}

func newConsoleHandler(w io.Writer, level *slog.LevelVar, addSource bool) *consoleHandler {
	return &consoleHandler{mu: &sync.Mutex{}, w: w, level: level, addSource: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	fields := make([]field, 0, len(h.attrs)+record.NumAttrs())
	fields = append(fields, h.attrs...)
	record.Attrs(func(attr slog.Attr) bool {
		fields = appendField(fields, h.groups, attr)
		return true
	})
	header, rest := splitHeader(fields)

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	var b strings.Builder
	b.Grow(128 + 24*len(rest))
	b.WriteString(ts.Local().Format(consoleTimestampLayout))
	b.WriteByte(' ')
	fmt.Fprintf(&b, "%-5s ", levelLabel(record.Level))
	if subject := FormatSubject(header.runID, header.stage); subject != "" {
		b.WriteString("[" + subject + "] ")
	}
	if header.component != "" {
		b.WriteString(header.component + ": ")
	}
	msg := strings.TrimSpace(record.Message)
	if msg == "" {
		msg = "(no message)"
	}
	b.WriteString(msg)
	if header.percent != "" {
		b.WriteString(" (" + header.percent + "%)")
	}
	if h.addSource {
		if src := record.Source(); src != nil {
			fmt.Fprintf(&b, " [%s:%d]", filepath.Base(src.File), src.Line)
		}
	}
	for _, f := range rest {
		b.WriteByte(' ')
		b.WriteString(f.key)
		b.WriteByte('=')
		b.WriteString(renderValue(f.value))
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := h.clone()
	for _, attr := range attrs {
		next.attrs = appendField(next.attrs, next.groups, attr)
	}
	return next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := h.clone()
	next.groups = append(next.groups, name)
	return next
}

func (h *consoleHandler) clone() *consoleHandler {
	next := *h
	next.attrs = append([]field(nil), h.attrs...)
	next.groups = append([]string(nil), h.groups...)
	return &next
}

// appendField flattens groups into dotted keys.
func appendField(dst []field, groups []string, attr slog.Attr) []field {
	if attr.Equal(slog.Attr{}) {
		return dst
	}
	value := attr.Value.Resolve()
	if value.Kind() == slog.KindGroup {
		inner := groups
		if attr.Key != "" {
			inner = append(append([]string(nil), groups...), attr.Key)
		}
		for _, a := range value.Group() {
			dst = appendField(dst, inner, a)
		}
		return dst
	}
	key := attr.Key
	if len(groups) > 0 {
		key = strings.Join(append(append([]string(nil), groups...), key), ".")
	}
	return append(dst, field{key: key, value: value})
}

// splitHeader lifts the first occurrence of each prefix field out of fields.
func splitHeader(fields []field) (lineHeader, []field) {
	var hdr lineHeader
	rest := fields[:0]
	for _, f := range fields {
		var slot *string
		switch f.key {
		case FieldComponent:
			slot = &hdr.component
		case FieldRunID:
			slot = &hdr.runID
		case FieldStage:
			slot = &hdr.stage
		case FieldProgressPercent:
			slot = &hdr.percent
		}
		if slot == nil {
			rest = append(rest, f)
			continue
		}
		if *slot == "" {
			*slot = plainValue(f.value)
		}
	}
	return hdr, rest
}

func plainValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	default:
		return v.String()
	}
}

func renderValue(v slog.Value) string {
	var s string
	switch v.Kind() {
	case slog.KindFloat64:
		s = strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindTime:
		s = v.Time().UTC().Format(time.RFC3339)
	default:
		s = plainValue(v)
	}
	if needsQuotes(s) {
		return strconv.Quote(s)
	}
	return s
}

func needsQuotes(s string) bool {
	if s == "" {
		return true
	}
	return strings.IndexFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) >= 0
}

// FormatSubject builds the run/stage prefix used in console output. Run ids
// are shortened to their first block.
func FormatSubject(runID, stage string) string {
	runID = strings.TrimSpace(runID)
	stage = strings.TrimSpace(stage)
	if idx := strings.IndexByte(runID, '-'); idx > 0 {
		runID = runID[:idx]
	}
	switch {
	case runID != "" && stage != "":
		return "run " + runID + " · " + stage
	case runID != "":
		return "run " + runID
	default:
		return stage
	}
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
