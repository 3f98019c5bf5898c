package pipeline

import (
	"sync"
	"time"
)

// EventKind classifies pipeline events.
type EventKind string

const (
	EventStarted   EventKind = "started"
	EventProgress  EventKind = "progress"
	EventCompleted EventKind = "completed"
	EventFailed    EventKind = "failed"
	EventWarning   EventKind = "warning"
)

// Event is a progress notification. Percent is stage-local; Overall spans
// the whole run. Both are in 0..100.
type Event struct {
	RunID   string
	Stage   Stage
	Kind    EventKind
	Percent float64
	Overall float64
	Message string
	Time    time.Time
}

// Terminal reports whether the event ends the run.
func (e Event) Terminal() bool {
	return e.Stage == StageRun && (e.Kind == EventCompleted || e.Kind == EventFailed)
}

func overallPercent(stage Stage, percent float64) float64 {
	idx := stage.index()
	if idx < 0 {
		if stage == StageRun {
			return 100
		}
		return 0
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return (float64(idx) + percent/100) / float64(len(Stages())) * 100
}

const defaultEventBacklog = 64

// eventSink queues events for a consumer without blocking the producer.
// Progress events beyond the backlog are dropped; others always queue.
type eventSink struct {
	mu       sync.Mutex
	queue    []Event
	backlog  int
	closed   bool
	dropped  int
	terminal bool

	notify chan struct{}
	out    chan Event
}

func newEventSink(backlog int) *eventSink {
	if backlog <= 0 {
		backlog = defaultEventBacklog
	}
	s := &eventSink{
		backlog: backlog,
		notify:  make(chan struct{}, 1),
		out:     make(chan Event),
	}
	go s.forward()
	return s
}

func (s *eventSink) emit(ev Event) {
	if s == nil {
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if ev.Kind == EventProgress && len(s.queue) >= s.backlog {
		s.dropped++
		s.mu.Unlock()
		return
	}
	if ev.Terminal() {
		s.terminal = true
	}
	s.queue = append(s.queue, ev)
	s.mu.Unlock()
	s.wake()
}

// close stops intake; queued events are still delivered, then out closes.
func (s *eventSink) close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.wake()
}

func (s *eventSink) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *eventSink) droppedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

func (s *eventSink) sawTerminal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.terminal
}

func (s *eventSink) forward() {
	defer close(s.out)
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return
			}
			<-s.notify
			continue
		}
		ev := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()
		s.out <- ev
	}
}
