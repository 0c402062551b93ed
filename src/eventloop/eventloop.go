package eventloop

import (
	"context"
	"errors"
	"log"

	"screen-ocr-clip/src/failure"
	"screen-ocr-clip/src/pipeline"
	"screen-ocr-clip/src/sink"
	"screen-ocr-clip/src/trigger"
)

// Status reflects the loop's busy state, e.g. in the tray tooltip.
type Status interface {
	SetBusy(busy bool)
}

// Loop is the single-threaded coordinator between triggers and the pipeline.
// Activations arriving while a run is in flight are rejected, not queued.
type Loop struct {
	runner *pipeline.Runner
	target sink.Target
	status Status

	activations chan string
	outcomes    chan pipeline.Outcome
	active      *pipeline.Run

	// OnOutcome, if set, observes every finished run on the loop goroutine.
	OnOutcome func(pipeline.Outcome)
}

// New creates a loop driving runner. target receives busy rejections; it is
// normally the same target the runner delivers to.
func New(runner *pipeline.Runner, target sink.Target) *Loop {
	return &Loop{
		runner:      runner,
		target:      target,
		activations: make(chan string, 4),
		outcomes:    make(chan pipeline.Outcome, 1),
	}
}

func (l *Loop) SetStatus(s Status) { l.status = s }

// Attach routes t's activations into the loop.
func (l *Loop) Attach(t trigger.Trigger) {
	name := t.Name()
	t.OnActivate(func() {
		select {
		case l.activations <- name:
		default:
			log.Printf("eventloop: activation from %s dropped, queue full", name)
		}
	})
}

// Run processes activations until ctx is cancelled. A run still in flight at
// that point is cancelled and awaited before Run returns.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			l.shutdown()
			return ctx.Err()
		case source := <-l.activations:
			l.handleActivation(ctx, source)
		case out := <-l.outcomes:
			l.handleOutcome(out)
		}
	}
}

func (l *Loop) handleActivation(ctx context.Context, source string) {
	log.Printf("eventloop: activation from %s", source)
	run, err := l.runner.Start(ctx)
	if err != nil {
		if errors.Is(err, failure.ErrBusy) {
			log.Printf("eventloop: busy, skipping")
		} else {
			log.Printf("eventloop: could not start run: %v", err)
		}
		if l.target != nil {
			_ = l.target.OnFailure(err)
		}
		return
	}

	l.active = run
	l.setBusy(true)
	go func() {
		l.outcomes <- run.Wait()
	}()
}

func (l *Loop) handleOutcome(out pipeline.Outcome) {
	log.Printf("eventloop: run %s finished in state %s", out.ID, out.State)
	l.active = nil
	l.setBusy(false)
	if l.OnOutcome != nil {
		l.OnOutcome(out)
	}
}

func (l *Loop) shutdown() {
	if l.active == nil {
		return
	}
	log.Printf("eventloop: cancelling run %s", l.active.ID)
	l.active.Cancel()
	l.handleOutcome(<-l.outcomes)
}

func (l *Loop) setBusy(b bool) {
	if l.status != nil {
		l.status.SetBusy(b)
	}
}
