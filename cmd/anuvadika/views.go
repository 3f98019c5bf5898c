package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/YatinSharma37/Anuvadika/internal/runstore"
	"github.com/YatinSharma37/Anuvadika/internal/services"
)

const shortIDLength = 8

func errorKind(err error) string {
	return services.Kind(err)
}

func shortID(id string) string {
	if len(id) <= shortIDLength {
		return id
	}
	return id[:shortIDLength]
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}

func formatAge(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

func formatStatusLabel(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return ""
	}
	return strings.ToUpper(status[:1]) + status[1:]
}

// sourceLabel shortens local paths to their base name; URLs stay whole.
func sourceLabel(source string) string {
	source = strings.TrimSpace(source)
	if strings.Contains(source, "://") || !strings.ContainsRune(source, filepath.Separator) {
		return source
	}
	return filepath.Base(source)
}

func languageLabel(run *runstore.Run) string {
	switch {
	case run.LanguageName != "" && run.DetectedLanguage != "":
		return fmt.Sprintf("%s (%s)", run.LanguageName, run.DetectedLanguage)
	case run.DetectedLanguage != "":
		return run.DetectedLanguage
	case run.Language != "":
		return run.Language + " (hint)"
	}
	return "-"
}

func buildRunRows(runs []*runstore.Run) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		status := formatStatusLabel(string(run.Status))
		if run.Partial {
			status += " (partial)"
		}
		rows = append(rows, []string{
			shortID(run.ID),
			status,
			run.Stage,
			truncate(sourceLabel(run.Source), 40),
			run.Task,
			run.Model,
			languageLabel(run),
			formatAge(run.CreatedAt),
			formatDuration(run.Duration()),
		})
	}
	return rows
}

func runDetails(run *runstore.Run) [][2]string {
	pairs := [][2]string{
		{"ID", run.ID},
		{"Source", run.Source},
		{"Status", formatStatusLabel(string(run.Status))},
		{"Stage", run.Stage},
		{"Task", run.Task},
		{"Model", run.Model},
		{"Language", languageLabel(run)},
		{"Started", fmt.Sprintf("%s (%s)", run.CreatedAt.Local().Format("2006-01-02 15:04:05"), formatAge(run.CreatedAt))},
		{"Duration", formatDuration(run.Duration())},
		{"Run folder", run.RunDir},
		{"Video", run.VideoPath},
		{"Archive", run.ArchivePath},
		{"Published", run.PublishedURL},
	}
	if run.Partial {
		pairs = append(pairs, [2]string{"Partial", "transcripts delivered without video"})
	}
	if run.ErrorMessage != "" {
		pairs = append(pairs, [2]string{"Error", fmt.Sprintf("%s: %s", run.ErrorKind, run.ErrorMessage)})
	}
	return pairs
}
