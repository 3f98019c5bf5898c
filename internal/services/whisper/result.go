package whisper

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/YatinSharma37/Anuvadika/internal/modelcache"
	"github.com/YatinSharma37/Anuvadika/internal/subtitles"
)

// Segment represents a transcribed segment in the engine's JSON output.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// payload is the JSON written by both engines. WhisperX omits text.
type payload struct {
	Text     *string   `json:"text"`
	Segments []Segment `json:"segments"`
	Language string    `json:"language"`
}

// LoadResult parses an engine JSON file.
func LoadResult(jsonPath string) (modelcache.Result, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return modelcache.Result{}, err
	}
	return ParseResult(data)
}

// ParseResult decodes engine JSON. Missing top-level text is rebuilt from
// the segments.
func ParseResult(data []byte) (modelcache.Result, error) {
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return modelcache.Result{}, fmt.Errorf("parse engine json: %w", err)
	}
	if p.Text == nil && p.Segments == nil {
		return modelcache.Result{}, errNoSegments
	}

	result := modelcache.Result{
		Language: strings.ToLower(strings.TrimSpace(p.Language)),
		Segments: make([]subtitles.Segment, 0, len(p.Segments)),
	}
	parts := make([]string, 0, len(p.Segments))
	for _, seg := range p.Segments {
		text := strings.TrimSpace(seg.Text)
		result.Segments = append(result.Segments, subtitles.Segment{Start: seg.Start, End: seg.End, Text: text})
		if text != "" {
			parts = append(parts, text)
		}
	}
	if p.Text != nil {
		result.Text = strings.TrimSpace(*p.Text)
	} else {
		result.Text = strings.Join(parts, " ")
	}
	return result, nil
}
