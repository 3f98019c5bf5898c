package pipeline

import "testing"

func TestEventSinkDropsProgressButKeepsTerminal(t *testing.T) {
	sink := newEventSink(2)
	for i := 0; i < 20; i++ {
		sink.emit(Event{Stage: StageAcquire, Kind: EventProgress, Percent: float64(i)})
	}
	sink.emit(Event{Stage: StageRun, Kind: EventCompleted})
	sink.close()
	sink.emit(Event{Stage: StageAcquire, Kind: EventProgress})

	var got []Event
	for ev := range sink.out {
		got = append(got, ev)
	}
	if len(got) == 0 || !got[len(got)-1].Terminal() {
		t.Fatalf("terminal event missing: %+v", got)
	}
	// One event may already be held by the forwarder.
	if progress := len(got) - 1; progress > 3 {
		t.Fatalf("delivered %d progress events, want at most 3", progress)
	}
	if sink.droppedCount() == 0 {
		t.Fatal("expected dropped progress events")
	}
}

func TestOverallPercent(t *testing.T) {
	tests := []struct {
		stage   Stage
		percent float64
		want    float64
	}{
		{StageAcquire, 0, 0},
		{StageAcquire, 100, 100.0 / 6},
		{StagePackage, 100, 100},
		{StageInfer, 50, 2.5 / 6 * 100},
		{StageRun, 0, 100},
		{StageMux, -5, 4.0 / 6 * 100},
	}
	for _, tt := range tests {
		got := overallPercent(tt.stage, tt.percent)
		if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
			t.Fatalf("overallPercent(%s, %v) = %v, want %v", tt.stage, tt.percent, got, tt.want)
		}
	}
}
