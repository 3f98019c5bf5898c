package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/YatinSharma37/Anuvadika/internal/logging"
	"github.com/YatinSharma37/Anuvadika/internal/pipeline"
)

// eventRenderer presents pipeline events to the terminal.
type eventRenderer interface {
	handle(ev pipeline.Event)
	finish()
}

func newEventRenderer(out io.Writer, interactive bool) eventRenderer {
	if interactive {
		return newBarRenderer(out)
	}
	return &lineRenderer{out: out, sampler: logging.NewProgressSampler(25)}
}

type barRenderer struct {
	bar *progressbar.ProgressBar
}

func newBarRenderer(out io.Writer) *barRenderer {
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(stageDescription(pipeline.StageAcquire, "")),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return &barRenderer{bar: bar}
}

func (r *barRenderer) handle(ev pipeline.Event) {
	switch ev.Kind {
	case pipeline.EventWarning:
		_, _ = progressbar.Bprintln(r.bar, "warning: "+ev.Message)
		return
	case pipeline.EventFailed:
		if ev.Stage != pipeline.StageRun {
			_, _ = progressbar.Bprintln(r.bar, fmt.Sprintf("%s failed", ev.Stage))
		}
		return
	}
	if ev.Stage != pipeline.StageRun {
		r.bar.Describe(stageDescription(ev.Stage, ev.Message))
	}
	_ = r.bar.Set(int(ev.Overall))
}

func (r *barRenderer) finish() {
	_ = r.bar.Finish()
}

func stageDescription(stage pipeline.Stage, message string) string {
	label := fmt.Sprintf("%-8s", stage)
	message = strings.TrimSpace(message)
	if message == "" {
		return label
	}
	return label + " " + truncate(message, 40)
}

// lineRenderer writes one line per lifecycle event for logs and pipes.
type lineRenderer struct {
	out     io.Writer
	sampler *logging.ProgressSampler
}

func (r *lineRenderer) handle(ev pipeline.Event) {
	switch ev.Kind {
	case pipeline.EventProgress:
		if !r.sampler.ShouldLog(string(ev.Stage), ev.Percent) {
			return
		}
		fmt.Fprintf(r.out, "[%3.0f%%] %s %.0f%%", ev.Overall, ev.Stage, ev.Percent)
		if msg := strings.TrimSpace(ev.Message); msg != "" {
			fmt.Fprintf(r.out, " %s", msg)
		}
		fmt.Fprintln(r.out)
	case pipeline.EventStarted, pipeline.EventCompleted:
		if ev.Stage == pipeline.StageRun {
			return
		}
		fmt.Fprintf(r.out, "[%3.0f%%] %s\n", ev.Overall, strings.TrimSpace(ev.Message))
	case pipeline.EventWarning:
		fmt.Fprintf(r.out, "warning: %s\n", ev.Message)
	case pipeline.EventFailed:
		if ev.Stage != pipeline.StageRun {
			fmt.Fprintf(r.out, "%s failed\n", ev.Stage)
		}
	}
}

func (r *lineRenderer) finish() {}
