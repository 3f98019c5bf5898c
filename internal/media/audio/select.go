package audio

import (
	"strconv"
	"strings"

	"github.com/YatinSharma37/Anuvadika/internal/language"
	"github.com/YatinSharma37/Anuvadika/internal/media/ffprobe"
)

// Selection identifies the audio stream to extract.
type Selection struct {
	Stream ffprobe.Stream
	// Ordinal is the position among audio streams, as used by -map 0:a:N.
	Ordinal int
}

// Label returns a human-readable summary of the selected stream.
func (s Selection) Label() string {
	if s.Ordinal < 0 {
		return ""
	}
	return formatStreamSummary(s.Stream)
}

// Select returns the best audio stream for speech recognition. languageHint
// may be empty or "auto". Ordinal is -1 when there are no audio streams.
func Select(streams []ffprobe.Stream, languageHint string) Selection {
	candidates := buildCandidates(streams, languageHint)
	if len(candidates) == 0 {
		return Selection{Ordinal: -1}
	}
	best := candidates[0]
	bestScore := score(best)
	for _, cand := range candidates[1:] {
		if s := score(cand); s > bestScore {
			best, bestScore = cand, s
		}
	}
	return Selection{Stream: best.stream, Ordinal: best.order}
}

type candidate struct {
	stream         ffprobe.Stream
	order          int
	matchesHint    bool
	secondary      bool
	channels       int
	defaultFlagged bool
}

func score(cand candidate) float64 {
	s := 0.0
	if cand.matchesHint {
		s += 1000
	}
	if cand.secondary {
		s -= 500
	}
	if cand.defaultFlagged {
		s += 100
	}
	// Speech is downmixed to mono; channel count only breaks ties.
	if cand.channels >= 2 {
		s += 10
	}
	s -= float64(cand.order) * 0.1
	return s
}

func buildCandidates(streams []ffprobe.Stream, hint string) []candidate {
	wanted := ""
	if !language.IsAuto(hint) {
		wanted = language.ToISO3(hint)
	}
	result := make([]candidate, 0, len(streams))
	order := 0
	for _, stream := range streams {
		if !strings.EqualFold(stream.CodecType, "audio") {
			continue
		}
		cand := candidate{
			stream:         stream,
			order:          order,
			secondary:      isSecondary(stream),
			channels:       channelCount(stream),
			defaultFlagged: stream.Disposition["default"] == 1,
		}
		if wanted != "" && wanted != "und" {
			tag := stream.Language()
			cand.matchesHint = tag != "" && language.ToISO3(tag) == wanted
		}
		result = append(result, cand)
		order++
	}
	return result
}

func isSecondary(stream ffprobe.Stream) bool {
	if stream.Disposition["comment"] == 1 || stream.Disposition["visual_impaired"] == 1 {
		return true
	}
	title := stream.Title()
	for _, keyword := range []string{"commentary", "description", "descriptive"} {
		if strings.Contains(title, keyword) {
			return true
		}
	}
	return false
}

func channelCount(stream ffprobe.Stream) int {
	if stream.Channels > 0 {
		return stream.Channels
	}
	layout := strings.ToLower(strings.TrimSpace(stream.ChannelLayout))
	switch {
	case layout == "":
		return 0
	case layout == "mono":
		return 1
	case layout == "stereo":
		return 2
	}
	total := 0
	for _, part := range strings.Split(layout, ".") {
		part = strings.Trim(part, "abcdefghijklmnopqrstuvwxyz ()")
		if n, err := strconv.Atoi(part); err == nil {
			total += n
		}
	}
	return total
}

func formatStreamSummary(stream ffprobe.Stream) string {
	parts := make([]string, 0, 4)
	if lang := stream.Language(); lang != "" {
		parts = append(parts, lang)
	}
	codec := stream.CodecLong
	if codec == "" {
		codec = stream.CodecName
	}
	if codec != "" {
		parts = append(parts, codec)
	}
	if stream.Channels > 0 {
		parts = append(parts, strconv.Itoa(stream.Channels)+"ch")
	}
	if title := strings.TrimSpace(stream.Tags["title"]); title != "" {
		parts = append(parts, title)
	}
	if len(parts) == 0 {
		return "audio"
	}
	return strings.Join(parts, " | ")
}
