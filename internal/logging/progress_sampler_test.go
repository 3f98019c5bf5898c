package logging

import "testing"

func TestProgressSamplerBuckets(t *testing.T) {
	s := NewProgressSampler(10)
	steps := []struct {
		stage   string
		percent float64
		want    bool
	}{
		{"acquire", 0, true},
		{"acquire", 4.2, false},
		{"acquire", 10, true},
		{"acquire", 19.9, false},
		{"acquire", 55, true},
		{"acquire", 30, false},
		{"acquire", 140, true},
		{"acquire", 100, false},
		{"infer", -1, true},
		{"infer", -1, false},
		{"infer", 0, true},
	}
	for i, step := range steps {
		if got := s.ShouldLog(step.stage, step.percent); got != step.want {
			t.Fatalf("step %d (%s %.1f): got %v want %v", i, step.stage, step.percent, got, step.want)
		}
	}
}

func TestProgressSamplerRemembersEachStage(t *testing.T) {
	s := NewProgressSampler(0)
	if s.bucketSize != 10 {
		t.Fatalf("bucketSize = %v, want 10", s.bucketSize)
	}
	if !s.ShouldLog(" acquire ", 50) {
		t.Fatal("first update should log")
	}
	if !s.ShouldLog("infer", 20) {
		t.Fatal("stage change should log")
	}
	// Returning to acquire logs the switch but keeps its bucket history.
	if !s.ShouldLog("acquire", 30) {
		t.Fatal("stage switch should log")
	}
	if s.ShouldLog("acquire", 55) {
		t.Fatal("bucket 5 was already reported for acquire")
	}
	if !s.ShouldLog("acquire", 60) {
		t.Fatal("new bucket should log")
	}

	var nilSampler *ProgressSampler
	if !nilSampler.ShouldLog("x", 1) {
		t.Fatal("nil sampler should always log")
	}
}
