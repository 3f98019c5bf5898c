package pipeline

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Job is a pipeline run executing on its own goroutine.
type Job struct {
	id     string
	sink   *eventSink
	done   chan struct{}
	result Result
	err    error
}

// Start launches req in the background. The caller must drain Events until
// it closes; Wait alone does not release the event forwarder.
func (p *Pipeline) Start(ctx context.Context, req Request) *Job {
	if strings.TrimSpace(req.RunID) == "" {
		req.RunID = uuid.NewString()
	}
	job := &Job{
		id:   req.RunID,
		sink: newEventSink(defaultEventBacklog),
		done: make(chan struct{}),
	}
	go func() {
		defer close(job.done)
		defer job.sink.close()
		job.result, job.err = p.execute(ctx, req, job.sink.emit)
		if job.err != nil && !job.terminalSent() {
			// Failures before the first stage still end the stream.
			job.sink.emit(Event{RunID: job.id, Stage: StageRun, Kind: EventFailed, Overall: 100, Message: job.err.Error()})
		}
	}()
	return job
}

// ID returns the run id.
func (j *Job) ID() string {
	return j.id
}

// Events streams run events. The channel closes after the terminal event.
func (j *Job) Events() <-chan Event {
	return j.sink.out
}

// Done closes when the run finishes.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the run finishes.
func (j *Job) Wait() (Result, error) {
	<-j.done
	return j.result, j.err
}

// DroppedEvents counts progress events discarded because the consumer lagged.
func (j *Job) DroppedEvents() int {
	return j.sink.droppedCount()
}

func (j *Job) terminalSent() bool {
	return j.sink.sawTerminal()
}
