package ffprobe

import (
	"context"
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/YatinSharma37/Anuvadika/internal/services"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video"},
			{CodecType: "audio"},
			{CodecType: "audio"},
		},
		Format: Format{
			Duration: "123.45",
			Size:     "1000",
			BitRate:  "32000",
		},
	}
	if result.VideoStreamCount() != 1 {
		t.Fatalf("expected 1 video stream, got %d", result.VideoStreamCount())
	}
	if result.AudioStreamCount() != 2 || !result.HasAudio() {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 1000 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
	if result.BitRate() != 32000 {
		t.Fatalf("unexpected bitrate: %d", result.BitRate())
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{
		Format: Format{
			Duration: "bad",
			Size:     "-1",
			BitRate:  "nope",
		},
	}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
	if result.BitRate() != 0 {
		t.Fatalf("expected bitrate 0, got %d", result.BitRate())
	}
}

func TestDurationFallsBackToStreams(t *testing.T) {
	result := Result{Streams: []Stream{{Duration: "10.5"}, {Duration: "12.25"}, {Duration: "x"}}}
	if got := result.DurationSeconds(); got != 12.25 {
		t.Fatalf("duration = %v, want 12.25", got)
	}
}

func TestInspectWithParsesOutput(t *testing.T) {
	payload := []byte(`{"streams":[{"index":0,"codec_type":"video"},{"index":1,"codec_type":"audio","channels":2,"tags":{"language":"ENG","title":"Main"}}],"format":{"duration":"5.0"}}`)
	var gotArgs []string
	run := func(_ context.Context, binary string, args ...string) ([]byte, error) {
		if binary != "ffprobe" {
			t.Fatalf("binary = %q", binary)
		}
		gotArgs = args
		return payload, nil
	}
	result, err := InspectWith(context.Background(), run, "", "/tmp/in.mp4")
	if err != nil {
		t.Fatalf("InspectWith: %v", err)
	}
	if gotArgs[len(gotArgs)-1] != "/tmp/in.mp4" || !slices.Contains(gotArgs, "-show_streams") {
		t.Fatalf("unexpected args %v", gotArgs)
	}
	audio := result.StreamsOfType("audio")
	if len(audio) != 1 || audio[0].Language() != "eng" || audio[0].Title() != "main" {
		t.Fatalf("unexpected audio streams %+v", audio)
	}
	if string(result.RawJSON()) != string(payload) {
		t.Fatal("raw json not preserved")
	}
}

func TestInspectWithMarksFailures(t *testing.T) {
	run := func(context.Context, string, ...string) ([]byte, error) {
		return nil, errors.New("invalid data found")
	}
	if _, err := InspectWith(context.Background(), run, "ffprobe", "/tmp/bad.mp4"); !errors.Is(err, services.ErrMediaDecode) {
		t.Fatalf("expected media decode error, got %v", err)
	}
	if _, err := InspectWith(context.Background(), run, "ffprobe", " "); !errors.Is(err, services.ErrMediaDecode) {
		t.Fatalf("expected media decode error for empty path, got %v", err)
	}
	if _, err := Parse([]byte("{")); !errors.Is(err, services.ErrMediaDecode) {
		t.Fatalf("expected media decode error for bad json, got %v", err)
	}
}

func TestInspectWithCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	run := func(ctx context.Context, _ string, _ ...string) ([]byte, error) { return nil, ctx.Err() }
	_, err := InspectWith(ctx, run, "ffprobe", "/tmp/in.mp4")
	if !errors.Is(err, services.ErrTimeout) || !errors.Is(err, services.ErrMediaDecode) {
		t.Fatalf("expected media decode timeout, got %v", err)
	}
	if kind := services.Kind(err); kind != "MediaDecodeError" {
		t.Fatalf("kind = %s", kind)
	}
}
