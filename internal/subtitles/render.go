package subtitles

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const vttHeader = "WEBVTT"

// Render serializes the document. Cues are separated by one blank line; an
// empty VTT document is the header alone and an empty SRT document is empty.
func (d Document) Render() string {
	var b strings.Builder
	if d.Format == FormatVTT {
		b.WriteString(vttHeader)
		b.WriteByte('\n')
		if len(d.Cues) > 0 {
			b.WriteByte('\n')
		}
	}
	for i, cue := range d.Cues {
		if i > 0 {
			b.WriteByte('\n')
		}
		if d.Format == FormatSRT {
			b.WriteString(strconv.Itoa(i + 1))
			b.WriteByte('\n')
		}
		b.WriteString(FormatTimestamp(cue.Start, d.Format))
		b.WriteString(" --> ")
		b.WriteString(FormatTimestamp(cue.End, d.Format))
		b.WriteByte('\n')
		for _, line := range cue.Lines {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// FormatTimestamp renders HH:MM:SS.mmm (vtt) or HH:MM:SS,mmm (srt).
func FormatTimestamp(d time.Duration, format Format) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	hours := ms / 3_600_000
	minutes := (ms / 60_000) % 60
	seconds := (ms / 1000) % 60
	millis := ms % 1000
	sep := '.'
	if format == FormatSRT {
		sep = ','
	}
	return fmt.Sprintf("%02d:%02d:%02d%c%03d", hours, minutes, seconds, sep, millis)
}
