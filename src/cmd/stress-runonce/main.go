package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"screen-ocr-clip/src/config"
	"screen-ocr-clip/src/failure"
	"screen-ocr-clip/src/runtimeinit"
	"screen-ocr-clip/src/sink"
)

type stressOptions struct {
	n          int
	mode       string
	deadline   time.Duration
	fullScreen bool
}

type report struct {
	launched    int
	ok          int32
	busy        int32
	errs        int32
	outstanding int
	elapsed     time.Duration
}

func (r report) String() string {
	return fmt.Sprintf("launched=%d ok=%d busy=%d err=%d outstanding=%d elapsed=%s",
		r.launched, r.ok, r.busy, r.errs, r.outstanding, r.elapsed)
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts := &stressOptions{}
	cmd := newRootCmd(opts)
	return cmd.Execute()
}

func newRootCmd(opts *stressOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stress-runonce",
		Short:         "Stress the capture pipeline and report busy rejections and leftover temp files",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log.SetOutput(io.Discard)
			cfgOpts := config.LoadOptions{}
			if opts.fullScreen {
				cfgOpts.CaptureModeOverride = config.CaptureModeDisplay
			}
			rt, err := runtimeinit.Bootstrap(runtimeinit.Options{LoadOptions: cfgOpts})
			if err != nil {
				return err
			}
			rep, err := runWithOptions(cmd.Context(), rt, *opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), rep)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.n, "n", 50, "number of runs to launch")
	cmd.Flags().StringVar(&opts.mode, "mode", "burst", "burst|seq: concurrent starts on one runner, or back-to-back runs")
	cmd.Flags().DurationVar(&opts.deadline, "deadline", 5*time.Second, "per-run timeout")
	cmd.Flags().BoolVar(&opts.fullScreen, "full-screen", false, "capture displays instead of an interactive selection")

	return cmd
}

func runWithOptions(ctx context.Context, rt *runtimeinit.Runtime, opts stressOptions) (report, error) {
	runner, err := rt.Runner(sink.Stdout{Writer: io.Discard})
	if err != nil {
		return report{}, err
	}

	rep := report{launched: opts.n}
	tally := func(err error) {
		switch {
		case err == nil:
			atomic.AddInt32(&rep.ok, 1)
		case errors.Is(err, failure.ErrBusy):
			atomic.AddInt32(&rep.busy, 1)
		default:
			atomic.AddInt32(&rep.errs, 1)
		}
	}
	execute := func() error {
		runCtx, cancel := context.WithTimeout(ctx, opts.deadline)
		defer cancel()
		_, err := runner.Execute(runCtx)
		return err
	}

	start := time.Now()
	switch opts.mode {
	case "burst":
		var wg sync.WaitGroup
		for i := 0; i < opts.n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				tally(execute())
			}()
		}
		wg.Wait()
	case "seq":
		for i := 0; i < opts.n; i++ {
			tally(execute())
		}
	default:
		return report{}, fmt.Errorf("unknown mode %q", opts.mode)
	}
	rep.elapsed = time.Since(start)

	files, err := rt.Workspace.Outstanding()
	if err != nil {
		return report{}, err
	}
	rep.outstanding = len(files)
	return rep, nil
}

