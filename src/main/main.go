package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"screen-ocr-clip/src/clipboard"
	"screen-ocr-clip/src/config"
	"screen-ocr-clip/src/eventloop"
	"screen-ocr-clip/src/failure"
	"screen-ocr-clip/src/hotkey"
	"screen-ocr-clip/src/logutil"
	"screen-ocr-clip/src/notification"
	"screen-ocr-clip/src/runtimeinit"
	"screen-ocr-clip/src/sink"
	"screen-ocr-clip/src/tray"
)

const appName = "Screen OCR"

type mainOptions struct {
	runOnce    bool
	runOnceStd bool
	fullScreen bool
	keepImage  bool
	lang       string
	verbose    bool
}

func main() {
	// systray needs the main OS thread.
	runtime.LockOSThread()

	if err := runWithArgs(normalizeLegacyArgs(os.Args)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runWithArgs(args []string) error {
	if len(args) == 0 {
		args = []string{"screen-ocr-clip"}
	}
	opts := &mainOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *mainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "screen-ocr-clip",
		Short:         "Select a screen region, recognize its text and copy it to the clipboard",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(*opts)
		},
	}

	cmd.Flags().BoolVar(&opts.runOnce, "run-once", false, "Capture once, copy the text to the clipboard and exit")
	cmd.Flags().BoolVar(&opts.runOnceStd, "run-once-std", false, "Capture once and print the text to stdout")
	cmd.Flags().BoolVar(&opts.fullScreen, "full-screen", false, "Capture whole displays instead of an interactive selection")
	cmd.Flags().BoolVar(&opts.keepImage, "keep-image", false, "Keep the latest captured image in TEMP_DIR")
	cmd.Flags().StringVar(&opts.lang, "lang", "", "Tesseract language, e.g. eng or eng+deu")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log to stderr")
	cmd.MarkFlagsMutuallyExclusive("run-once", "run-once-std")

	return cmd
}

func loadOptions(opts mainOptions) config.LoadOptions {
	lo := config.LoadOptions{
		LanguageOverride:   opts.lang,
		KeepImagesOverride: opts.keepImage,
	}
	if opts.fullScreen {
		lo.CaptureModeOverride = config.CaptureModeDisplay
	}
	return lo
}

func execute(opts mainOptions) error {
	setupLogging := logutil.Setup
	if opts.verbose {
		logutil.Verbose()
		setupLogging = func(bool) {}
	}

	rt, err := runtimeinit.Bootstrap(runtimeinit.Options{
		LoadOptions:  loadOptions(opts),
		SetupLogging: setupLogging,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case opts.runOnceStd:
		return runOnce(ctx, rt, os.Stdout)
	case opts.runOnce:
		return runOnce(ctx, rt, nil)
	default:
		return runResident(ctx, rt)
	}
}

// runOnce performs a single capture. With stdout set the text is printed;
// otherwise it goes to the clipboard, which is then held until another
// application takes it over or CLIPBOARD_HOLD_SEC elapses.
func runOnce(ctx context.Context, rt *runtimeinit.Runtime, stdout io.Writer) error {
	cfg := rt.Config
	log.Printf("Running OCR once with capture deadline %ds, OCR deadline %ds", cfg.CaptureDeadlineSec, cfg.OCRDeadlineSec)

	var (
		target sink.Target
		cb     *clipboard.System
	)
	if stdout != nil {
		target = sink.Stdout{Writer: stdout}
	} else {
		var err error
		cb, err = clipboard.NewSystem()
		if err != nil {
			return fmt.Errorf("failed to initialize clipboard: %w", err)
		}
		notifier := notification.Default(appName)
		defer closeNotifier(notifier)
		target = sink.Desktop{Clipboard: cb, Notifier: notifier, MaxNotifyChars: cfg.NotifyMaxChars}
	}

	runner, err := rt.Runner(target)
	if err != nil {
		return err
	}
	out, err := runner.Execute(ctx)
	if errors.Is(err, failure.ErrUserCancelled) {
		log.Printf("Selection cancelled")
		return nil
	}
	if err != nil {
		return err
	}
	log.Printf("OCR runonce completed (%d chars)", len([]rune(out.Text)))

	if cb != nil {
		cb.Hold(ctx, time.Duration(cfg.ClipboardHoldSec)*time.Second)
	}
	return nil
}

func runResident(ctx context.Context, rt *runtimeinit.Runtime) error {
	cfg := rt.Config

	cb, err := clipboard.NewSystem()
	if err != nil {
		return fmt.Errorf("failed to initialize clipboard: %w", err)
	}
	notifier := notification.Default(appName)
	defer closeNotifier(notifier)

	target := sink.Desktop{Clipboard: cb, Notifier: notifier, MaxNotifyChars: cfg.NotifyMaxChars}
	runner, err := rt.Runner(target)
	if err != nil {
		return err
	}

	// Warn at startup; each run checks again.
	if err := rt.Preflight.Check(); err != nil {
		_ = target.OnFailure(err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loop := eventloop.New(runner, target)
	triggers := 0

	if combo := strings.TrimSpace(cfg.Hotkey); combo != "" && !strings.EqualFold(combo, "none") {
		hk, err := hotkey.New(combo)
		if err != nil {
			log.Printf("Hotkey disabled: %v", err)
		} else {
			loop.Attach(hk)
			triggers++
			go func() {
				if err := hk.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Printf("Hotkey listener failed: %v", err)
				}
			}()
		}
	}

	if !cfg.EnableTray {
		if triggers == 0 {
			return errors.New("no trigger configured: set HOTKEY or ENABLE_TRAY")
		}
		log.Printf("Resident without tray, hotkey %s", cfg.Hotkey)
		return ignoreCanceled(loop.Run(ctx))
	}

	t := tray.New(fmt.Sprintf("%s - press %s to capture", appName, cfg.Hotkey))
	loop.Attach(t)
	loop.SetStatus(t)

	loopErr := make(chan error, 1)
	go func() { loopErr <- loop.Run(ctx) }()

	log.Printf("Resident with tray, hotkey %s", cfg.Hotkey)
	t.Run(ctx, cancel)
	cancel()
	return ignoreCanceled(<-loopErr)
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func closeNotifier(n notification.Notifier) {
	if d, ok := n.(*notification.Desktop); ok {
		_ = d.Close()
	}
}

// normalizeLegacyArgs maps single-dash long flags (-run-once) to cobra's
// GNU form (--run-once).
func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		for _, name := range []string{"run-once-std", "run-once", "full-screen", "keep-image", "lang", "verbose"} {
			if arg == "-"+name || strings.HasPrefix(arg, "-"+name+"=") {
				normalized[i] = "-" + arg
				break
			}
		}
	}

	return normalized
}
