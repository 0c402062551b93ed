package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os/exec"
	"time"

	"screen-ocr-clip/src/failure"
)

// waitDelay bounds how long Wait lingers after cancellation before the child
// is killed outright.
const waitDelay = 2 * time.Second

// Spec describes one child process invocation.
type Spec struct {
	Name string
	Args []string
	// Stdout receives the child's standard output. Nil discards it.
	Stdout io.Writer
	// Stderr receives the child's standard error. Nil discards it.
	Stderr io.Writer
}

// Result reports how a child process exited.
type Result struct {
	ExitCode int
	Duration time.Duration
}

// Run starts the child described by spec and waits for it to exit.
//
// A binary that cannot be resolved yields failure.ErrToolMissing and a failed
// start yields failure.ErrSpawn. A non-zero exit is not an error: callers
// interpret Result.ExitCode. When ctx ends first, the whole process group is
// terminated and ctx.Err() is returned.
func Run(ctx context.Context, spec Spec) (Result, error) {
	path, err := exec.LookPath(spec.Name)
	if err != nil {
		return Result{}, &failure.ToolMissingError{Tool: spec.Name}
	}

	cmd := exec.CommandContext(ctx, path, spec.Args...)
	cmd.Stdout = spec.Stdout
	cmd.Stderr = spec.Stderr
	cmd.SysProcAttr = sysProcAttr()
	cmd.Cancel = func() error { return terminate(cmd) }
	cmd.WaitDelay = waitDelay

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("%w: %s: %v", failure.ErrSpawn, spec.Name, err)
	}
	log.Printf("process: started %s (pid %d)", spec.Name, cmd.Process.Pid)

	err = cmd.Wait()
	res := Result{ExitCode: cmd.ProcessState.ExitCode(), Duration: time.Since(start)}

	if ctxErr := ctx.Err(); ctxErr != nil {
		log.Printf("process: %s terminated: %v", spec.Name, ctxErr)
		return res, ctxErr
	}

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return res, fmt.Errorf("wait for %s: %w", spec.Name, err)
	}

	log.Printf("process: %s exited with status %d after %v", spec.Name, res.ExitCode, res.Duration)
	return res, nil
}
