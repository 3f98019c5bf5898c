package subtitles

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/YatinSharma37/Anuvadika/internal/services"
)

// Parse reads a WebVTT or SubRip document. Blocks without a timing line
// (VTT NOTE/STYLE blocks, stray text) are skipped; malformed timestamps fail
// with services.ErrFormat.
func Parse(data string, format Format) (Document, error) {
	if !format.valid() {
		return Document{}, services.Wrap(services.ErrUnsupportedFormat, "format", "parse", fmt.Sprintf("unsupported subtitle format %q", format), nil)
	}
	content := strings.ReplaceAll(data, "\r\n", "\n")
	content = strings.TrimPrefix(content, "\ufeff")

	doc := Document{Format: format}
	for _, block := range strings.Split(strings.TrimSpace(content), "\n\n") {
		block = strings.Trim(block, "\n")
		if strings.TrimSpace(block) == "" {
			continue
		}
		lines := strings.Split(block, "\n")
		if format == FormatVTT && strings.HasPrefix(lines[0], vttHeader) {
			continue
		}

		timing := -1
		for i, line := range lines {
			if strings.Contains(line, "-->") {
				timing = i
				break
			}
			// SRT puts the index first; VTT allows an optional cue identifier.
			if i >= 1 {
				break
			}
		}
		if timing < 0 {
			continue
		}

		parts := strings.SplitN(lines[timing], "-->", 2)
		start, err := parseTimestamp(parts[0])
		if err != nil {
			return Document{}, services.Wrap(services.ErrFormat, "format", "parse", fmt.Sprintf("cue %d start", len(doc.Cues)+1), err)
		}
		endField := strings.Fields(parts[1])
		if len(endField) == 0 {
			return Document{}, services.Wrap(services.ErrFormat, "format", "parse", fmt.Sprintf("cue %d has no end time", len(doc.Cues)+1), nil)
		}
		// VTT cue settings follow the end timestamp.
		end, err := parseTimestamp(endField[0])
		if err != nil {
			return Document{}, services.Wrap(services.ErrFormat, "format", "parse", fmt.Sprintf("cue %d end", len(doc.Cues)+1), err)
		}

		doc.Cues = append(doc.Cues, Cue{
			Index: len(doc.Cues) + 1,
			Start: start,
			End:   end,
			Lines: append([]string(nil), lines[timing+1:]...),
		})
	}
	return doc, nil
}

// parseTimestamp accepts HH:MM:SS,mmm, HH:MM:SS.mmm and the VTT short form
// MM:SS.mmm.
func parseTimestamp(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(value, ",", ".")
	timeParts := strings.Split(value, ".")
	if len(timeParts) != 2 || len(timeParts[1]) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) == 2 {
		hms = append([]string{"0"}, hms...)
	}
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	if hours < 0 || minutes < 0 || minutes > 59 || seconds < 0 || seconds > 59 || millis < 0 {
		return 0, fmt.Errorf("timestamp out of range %q", value)
	}
	total := int64(hours)*3_600_000 + int64(minutes)*60_000 + int64(seconds)*1000 + int64(millis)
	return time.Duration(total) * time.Millisecond, nil
}
