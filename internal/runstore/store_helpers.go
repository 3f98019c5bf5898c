package runstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run              Run
		status           string
		language         sql.NullString
		stage            sql.NullString
		errorKind        sql.NullString
		errorMessage     sql.NullString
		detectedLanguage sql.NullString
		languageName     sql.NullString
		runDir           sql.NullString
		archivePath      sql.NullString
		videoPath        sql.NullString
		publishedURL     sql.NullString
		partial          sql.NullInt64
		createdRaw       sql.NullString
		updatedRaw       sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&run.Source,
		&run.Task,
		&run.Model,
		&language,
		&status,
		&stage,
		&errorKind,
		&errorMessage,
		&detectedLanguage,
		&languageName,
		&runDir,
		&archivePath,
		&videoPath,
		&publishedURL,
		&partial,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	run.Status = Status(status)
	run.Language = language.String
	run.Stage = stage.String
	run.ErrorKind = errorKind.String
	run.ErrorMessage = errorMessage.String
	run.DetectedLanguage = detectedLanguage.String
	run.LanguageName = languageName.String
	run.RunDir = runDir.String
	run.ArchivePath = archivePath.String
	run.VideoPath = videoPath.String
	run.PublishedURL = publishedURL.String
	run.Partial = partial.Valid && partial.Int64 != 0
	if created, err := parseTimeString(createdRaw.String); err == nil {
		run.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		run.UpdatedAt = updated
	}
	return &run, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func escapeLike(value string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(value)
}
