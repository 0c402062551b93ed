package pipeline

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"screen-ocr-clip/src/capture"
	"screen-ocr-clip/src/failure"
	"screen-ocr-clip/src/logutil"
	"screen-ocr-clip/src/ocr"
	"screen-ocr-clip/src/sink"
	"screen-ocr-clip/src/workspace"
)

const (
	DefaultCaptureDeadline   = 120 * time.Second
	DefaultRecognizeDeadline = 20 * time.Second
)

// Preflight runs before capture; an error aborts the run untouched.
type Preflight interface {
	Check() error
}

// PreprocessFunc writes an OCR-ready copy of src to dst.
type PreprocessFunc func(src, dst string) error

type Options struct {
	Preflight  Preflight
	Capturer   capture.Capturer
	Engine     ocr.Engine
	Target     sink.Target
	Workspace  *workspace.Workspace
	Preprocess PreprocessFunc

	CaptureDeadline   time.Duration
	RecognizeDeadline time.Duration

	// OnState observes every transition. It runs on the run's goroutine.
	OnState func(runID string, s State)
}

// Outcome is the final report of one run.
type Outcome struct {
	ID          string
	State       State
	Text        string
	Err         error
	Capture     capture.Result
	Recognition ocr.Result
}

// Runner drives capture → recognize → deliver. It admits one run at a time;
// Start while a run is in flight fails with failure.ErrBusy.
type Runner struct {
	opts Options

	mu     sync.Mutex
	active *Run
}

func New(opts Options) (*Runner, error) {
	if opts.Capturer == nil {
		return nil, errors.New("Capturer is required")
	}
	if opts.Engine == nil {
		return nil, errors.New("Engine is required")
	}
	if opts.Target == nil {
		return nil, errors.New("Target is required")
	}
	if opts.Workspace == nil {
		ws, err := workspace.New("", false)
		if err != nil {
			return nil, err
		}
		opts.Workspace = ws
	}
	if opts.CaptureDeadline <= 0 {
		opts.CaptureDeadline = DefaultCaptureDeadline
	}
	if opts.RecognizeDeadline <= 0 {
		opts.RecognizeDeadline = DefaultRecognizeDeadline
	}
	return &Runner{opts: opts}, nil
}

// Busy reports whether a run is in flight.
func (r *Runner) Busy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active != nil
}

// Start launches a run on its own goroutine and returns at once.
func (r *Runner) Start(ctx context.Context) (*Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != nil {
		return nil, failure.ErrBusy
	}

	slot := r.opts.Workspace.Acquire()
	runCtx, cancel := context.WithCancel(ctx)
	run := &Run{
		ID:     slot.ID,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	r.active = run

	go r.execute(runCtx, run, slot)
	return run, nil
}

// Execute starts a run and waits for it.
func (r *Runner) Execute(ctx context.Context) (Outcome, error) {
	run, err := r.Start(ctx)
	if err != nil {
		return Outcome{State: StateAborted, Err: err}, err
	}
	out := run.Wait()
	return out, out.Err
}

func (r *Runner) execute(ctx context.Context, run *Run, slot *workspace.Slot) {
	defer close(run.done)
	defer func() {
		r.mu.Lock()
		r.active = nil
		r.mu.Unlock()
	}()
	defer run.cancel()
	defer r.opts.Workspace.Release(slot)

	out := &run.outcome
	out.ID = run.ID

	if r.opts.Preflight != nil {
		r.enter(out, StatePreflight)
		if err := r.opts.Preflight.Check(); err != nil {
			r.abort(out, StatePreflight, err)
			return
		}
	}

	r.enter(out, StateCapturing)
	capCtx, capCancel := context.WithTimeout(ctx, r.opts.CaptureDeadline)
	capRes, err := r.opts.Capturer.Capture(capCtx, capture.Request{OutputPath: slot.ImagePath})
	capCancel()
	out.Capture = capRes
	if err == nil {
		err = ctx.Err()
	}
	if err == nil {
		err = ocr.CheckImage(capRes.Path)
	}
	if err != nil {
		r.abort(out, StateCapturing, err)
		return
	}

	imagePath := capRes.Path
	if r.opts.Preprocess != nil {
		dst := slot.Derive("prep")
		if err := r.opts.Preprocess(imagePath, dst); err != nil {
			log.Printf("pipeline[%s]: preprocessing failed, using original image: %v", run.ID, err)
		} else {
			imagePath = dst
		}
	}

	r.enter(out, StateRecognizing)
	recCtx, recCancel := context.WithTimeout(ctx, r.opts.RecognizeDeadline)
	rec, err := r.opts.Engine.Recognize(recCtx, imagePath)
	recCancel()
	if err == nil {
		// A run cancelled while recognition finished discards the text.
		err = ctx.Err()
	}
	if err != nil {
		r.abort(out, StateRecognizing, err)
		return
	}
	out.Recognition = rec
	log.Printf("pipeline[%s]: recognized %q", run.ID, logutil.Sanitize(rec.Text))

	r.enter(out, StateDelivering)
	if err := r.opts.Target.OnSuccess(rec.Text); err != nil {
		r.abort(out, StateDelivering, err)
		return
	}

	out.Text = rec.Text
	r.enter(out, StateDone)
}

func (r *Runner) enter(out *Outcome, s State) {
	out.State = s
	log.Printf("pipeline[%s]: %s", out.ID, s)
	if r.opts.OnState != nil {
		r.opts.OnState(out.ID, s)
	}
}

func (r *Runner) abort(out *Outcome, stage State, err error) {
	out.Err = &StageError{Stage: stage, Err: err}
	log.Printf("pipeline[%s]: aborted in %s: %v", out.ID, stage, err)
	if ferr := r.opts.Target.OnFailure(out.Err); ferr != nil {
		log.Printf("pipeline[%s]: failure report: %v", out.ID, ferr)
	}
	r.enter(out, StateAborted)
}

// Run is a pipeline run in flight.
type Run struct {
	ID string

	cancel  context.CancelFunc
	done    chan struct{}
	outcome Outcome
}

// Done is closed once the run has finished and its files are released.
func (run *Run) Done() <-chan struct{} { return run.done }

// Wait blocks until the run finishes and returns its outcome.
func (run *Run) Wait() Outcome {
	<-run.done
	return run.outcome
}

// Cancel terminates the pending child process and discards partial results.
func (run *Run) Cancel() { run.cancel() }
