package subtitles

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/YatinSharma37/Anuvadika/internal/services"
)

// FormatCues renders segments as a subtitle document using the default cue
// height ceiling.
func FormatCues(segments []Segment, target Format, maxLineWidth int) (string, error) {
	opts := DefaultOptions()
	opts.MaxLineWidth = maxLineWidth
	doc, err := Build(segments, target, opts)
	if err != nil {
		return "", err
	}
	return doc.Render(), nil
}

// Build lays segments out as cues. Segments are emitted in input order and
// overlaps between them are preserved. Segments without words produce no cue.
func Build(segments []Segment, target Format, opts Options) (Document, error) {
	if !target.valid() {
		return Document{}, services.Wrap(services.ErrUnsupportedFormat, "format", "build", fmt.Sprintf("unsupported subtitle format %q", target), nil)
	}
	if opts.MaxLineWidth < 1 {
		return Document{}, services.Wrap(services.ErrFormat, "format", "build", fmt.Sprintf("max line width must be positive, got %d", opts.MaxLineWidth), nil)
	}

	doc := Document{Format: target, Cues: make([]Cue, 0, len(segments))}
	for _, seg := range segments {
		if math.IsNaN(seg.Start) || math.IsNaN(seg.End) || math.IsInf(seg.Start, 0) || math.IsInf(seg.End, 0) {
			return Document{}, services.Wrap(services.ErrFormat, "format", "build", "segment timestamps must be finite", nil)
		}
		words := strings.Fields(sanitizeText(seg.Text))
		if len(words) == 0 {
			continue
		}
		lines := wrapWords(words, opts.MaxLineWidth)
		for _, cue := range splitSegment(lines, toMillis(seg.Start), toMillis(seg.End), opts.MaxLinesPerCue) {
			cue.Index = len(doc.Cues) + 1
			doc.Cues = append(doc.Cues, cue)
		}
	}
	return doc, nil
}

// sanitizeText keeps cue text from impersonating a timing line.
func sanitizeText(text string) string {
	return strings.ReplaceAll(text, "-->", "->")
}

// wrapWords packs words greedily. A word wider than width gets its own line.
func wrapWords(words []string, width int) []string {
	var lines []string
	var current strings.Builder
	currentLen := 0
	for _, word := range words {
		wordLen := utf8.RuneCountInString(word)
		if currentLen > 0 && currentLen+1+wordLen <= width {
			current.WriteByte(' ')
			current.WriteString(word)
			currentLen += 1 + wordLen
			continue
		}
		if currentLen > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
		current.WriteString(word)
		currentLen = wordLen
	}
	if currentLen > 0 {
		lines = append(lines, current.String())
	}
	return lines
}

// splitSegment distributes lines over cues of at most maxLines lines. Cue
// boundaries are interpolated by character count so the cues exactly tile
// [startMS, endMS] and each keeps at least one millisecond.
func splitSegment(lines []string, startMS, endMS int64, maxLines int) []Cue {
	if endMS <= startMS {
		endMS = startMS + 1
	}
	if endMS > maxMillis {
		endMS = maxMillis
		startMS = min(startMS, endMS-1)
	}
	duration := endMS - startMS

	perCue := len(lines)
	if maxLines > 0 && maxLines < perCue {
		perCue = maxLines
	}
	if chunks := int64(ceilDiv(len(lines), perCue)); chunks > duration {
		perCue = ceilDiv(len(lines), int(duration))
	}

	var chunks [][]string
	for i := 0; i < len(lines); i += perCue {
		end := i + perCue
		if end > len(lines) {
			end = len(lines)
		}
		chunks = append(chunks, lines[i:end])
	}

	weights := make([]int64, len(chunks))
	var total int64
	for i, chunk := range chunks {
		w := int64(utf8.RuneCountInString(strings.Join(chunk, " ")))
		weights[i] = w
		total += w
	}

	cues := make([]Cue, 0, len(chunks))
	n := int64(len(chunks))
	prev := startMS
	var cumulative int64
	for i, chunk := range chunks {
		boundary := endMS
		if int64(i) < n-1 {
			cumulative += weights[i]
			boundary = startMS + duration*cumulative/total
			if boundary < prev+1 {
				boundary = prev + 1
			}
			if upper := endMS - (n - 1 - int64(i)); boundary > upper {
				boundary = upper
			}
		}
		cues = append(cues, Cue{
			Start: time.Duration(prev) * time.Millisecond,
			End:   time.Duration(boundary) * time.Millisecond,
			Lines: append([]string(nil), chunk...),
		})
		prev = boundary
	}
	return cues
}

// maxMillis is 99:59:59.999, the largest two-digit-hour timestamp.
const maxMillis int64 = 99*3600*1000 + 59*60*1000 + 59*1000 + 999

// toMillis converts seconds to whole milliseconds, rounding half up.
// Values clamp to [0, maxMillis]; NaN reads as zero.
func toMillis(seconds float64) int64 {
	ms := math.Floor(seconds*1000 + 0.5)
	switch {
	case math.IsNaN(ms) || ms < 0:
		return 0
	case ms > float64(maxMillis):
		return maxMillis
	}
	return int64(ms)
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
