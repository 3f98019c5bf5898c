package logging

import "strings"

// ProgressSampler thins progress updates to one per percentage bucket per
// stage, plus one whenever the reporting stage changes. It is not safe for
// concurrent use; each run owns its own sampler.
type ProgressSampler struct {
	bucketSize float64
	current    string
	highest    map[string]int
}

// NewProgressSampler returns a sampler with the given bucket width in
// percent. Non-positive widths default to 10.
func NewProgressSampler(bucketSize float64) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 10
	}
	return &ProgressSampler{bucketSize: bucketSize, highest: make(map[string]int)}
}

// ShouldLog reports whether an update is worth emitting. A negative percent
// means progress is unknown and only a stage change lets it through. Going
// back to an earlier stage never re-emits buckets already reported there.
func (s *ProgressSampler) ShouldLog(stage string, percent float64) bool {
	if s == nil {
		return true
	}
	stage = strings.TrimSpace(stage)
	emit := false
	if stage != s.current {
		s.current = stage
		emit = true
	}
	last, seen := s.highest[stage]
	if !seen {
		last = -1
	}
	if percent >= 0 {
		bucket := int(min(percent, 100) / s.bucketSize)
		if bucket > last {
			last = bucket
			emit = true
		}
	}
	s.highest[stage] = last
	return emit
}
