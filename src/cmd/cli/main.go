package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"screen-ocr-clip/src/config"
	"screen-ocr-clip/src/logutil"
	"screen-ocr-clip/src/ocr"
	"screen-ocr-clip/src/preprocess"
	"screen-ocr-clip/src/runtimeinit"
	"screen-ocr-clip/src/sink"
	"screen-ocr-clip/src/toolcheck"
	"screen-ocr-clip/src/workspace"
)

const (
	maxFileSizeMB = 10
	maxFileSize   = maxFileSizeMB * 1024 * 1024
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

type cliOptions struct {
	filePath   string
	jsonOutput bool
	verbose    bool
	lang       string
	preprocess bool
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return runWithArgs(normalizeLegacyArgs(os.Args))
}

func runWithArgs(args []string) error {
	if len(args) == 0 {
		args = []string{"ocr-tool"}
	}

	opts := &cliOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ocr-tool",
		Short:         "Run OCR on PNG input",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithOptions(cmd, *opts)
		},
	}

	cmd.Flags().StringVar(&opts.filePath, "file", "", "Path to PNG file (use '-' for stdin)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")
	cmd.Flags().StringVar(&opts.lang, "lang", "", "Tesseract language (overrides OCR_LANG)")
	cmd.Flags().BoolVar(&opts.preprocess, "preprocess", false, "Grayscale and upscale the image before OCR")
	_ = cmd.MarkFlagRequired("file")

	cmd.AddCommand(newCheckCmd())
	return cmd
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report whether the external tools are installed",
		RunE: func(cmd *cobra.Command, args []string) error {
			log.SetOutput(io.Discard)
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			return checkTools(cmd.OutOrStdout(), runtimeinit.RequiredTools(cfg))
		},
	}
}

func checkTools(w io.Writer, tools []string) error {
	var missing []string
	for _, tool := range tools {
		status := "ok"
		if !toolcheck.IsToolAvailable(tool) {
			status = "missing"
			missing = append(missing, tool)
		}
		fmt.Fprintf(w, "%-20s %s\n", tool, status)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing tools: %s", strings.Join(missing, ", "))
	}
	return nil
}

func runWithOptions(cmd *cobra.Command, opts cliOptions) error {
	// Configure logging BEFORE any other operations.
	stderr := cmd.ErrOrStderr()
	if !opts.verbose {
		log.SetOutput(io.Discard)
	} else {
		log.SetOutput(stderr)
		fmt.Fprintf(stderr, "[verbose] Starting OCR tool\n")
	}

	cfg, err := config.LoadWithOptions(config.LoadOptions{LanguageOverride: opts.lang})
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.preprocess {
		cfg.Preprocess = true
	}

	if opts.verbose {
		fmt.Fprintf(stderr, "[verbose] Config loaded: engine=%s lang=%s dpi=%d\n", cfg.OCREngine, cfg.OCRLang, cfg.OCRDPI)
	}

	engine, err := ocr.New(cfg.OCREngine, ocr.OptionsFromConfig(cfg))
	if err != nil {
		return err
	}
	if cfg.OCREngine == config.EngineTesseract {
		if err := toolcheck.Require(cfg.OCRTool); err != nil {
			return fmt.Errorf("%w. %s", err, toolcheck.InstallHint)
		}
	}

	return processOCR(cmd, cfg, engine, opts)
}

func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		for _, name := range []string{"file", "json", "verbose", "lang", "preprocess"} {
			if arg == "-"+name || strings.HasPrefix(arg, "-"+name+"=") {
				normalized[i] = "-" + arg
				break
			}
		}
	}

	return normalized
}

func validatePNG(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("input file is empty")
	}
	if len(data) > maxFileSize {
		return fmt.Errorf("input file exceeds maximum size of %d MB", maxFileSizeMB)
	}
	if len(data) < len(pngMagic) || !bytes.Equal(data[:len(pngMagic)], pngMagic) {
		return fmt.Errorf("input is not a valid PNG file (invalid magic number)")
	}
	return nil
}

func processOCR(cmd *cobra.Command, cfg *config.Config, engine ocr.Engine, opts cliOptions) error {
	stderr := cmd.ErrOrStderr()
	var imageData []byte
	var err error

	if opts.filePath == "-" {
		if opts.verbose {
			fmt.Fprintf(stderr, "[verbose] Reading image from stdin\n")
		}
		imageData, err = io.ReadAll(io.LimitReader(cmd.InOrStdin(), maxFileSize+1))
		if err != nil {
			return fmt.Errorf("failed to read from stdin: %w", err)
		}
	} else {
		if opts.verbose {
			fmt.Fprintf(stderr, "[verbose] Reading image from file: %s\n", opts.filePath)
		}
		imageData, err = os.ReadFile(opts.filePath)
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", opts.filePath, err)
		}
	}

	if err := validatePNG(imageData); err != nil {
		return err
	}
	if opts.verbose {
		fmt.Fprintf(stderr, "[verbose] Read %d bytes, PNG validation passed\n", len(imageData))
	}

	// The engine reads from disk; stage the image in a workspace slot so the
	// original is never touched and nothing is left behind.
	ws, err := workspace.New(cfg.TempDir, false)
	if err != nil {
		return fmt.Errorf("failed to prepare workspace: %w", err)
	}
	slot := ws.Acquire()
	defer ws.Release(slot)
	if err := os.WriteFile(slot.ImagePath, imageData, 0o600); err != nil {
		return fmt.Errorf("failed to stage image: %w", err)
	}

	imagePath := slot.ImagePath
	if cfg.Preprocess {
		dst := slot.Derive("prep")
		popts := preprocess.Options{MinHeight: preprocess.DefaultMinHeight, Threshold: uint8(cfg.PreprocessThreshold)}
		if err := preprocess.Apply(imagePath, dst, popts); err != nil {
			if opts.verbose {
				fmt.Fprintf(stderr, "[verbose] Preprocessing failed, using original: %v\n", err)
			}
		} else {
			imagePath = dst
		}
	}

	return performOCR(cmd, engine, imagePath, cfg, opts)
}

func performOCR(cmd *cobra.Command, engine ocr.Engine, imagePath string, cfg *config.Config, opts cliOptions) error {
	stderr := cmd.ErrOrStderr()
	if opts.verbose {
		fmt.Fprintf(stderr, "[verbose] Starting OCR with %s\n", engine.Name())
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(cfg.OCRDeadlineSec)*time.Second)
	defer cancel()

	startTime := time.Now()
	res, err := engine.Recognize(ctx, imagePath)
	elapsed := time.Since(startTime)

	if err != nil {
		if opts.verbose {
			fmt.Fprintf(stderr, "[verbose] OCR failed after %v: %v\n", elapsed, err)
		}
		return fmt.Errorf("OCR failed: %w", err)
	}

	if opts.verbose {
		fmt.Fprintf(stderr, "[verbose] OCR completed in %v, extracted %d characters: %q\n", elapsed, len([]rune(res.Text)), logutil.Sanitize(res.Text))
	}

	var target sink.Target = sink.Stdout{Writer: cmd.OutOrStdout()}
	if opts.jsonOutput {
		target = sink.JSON{Writer: cmd.OutOrStdout(), Source: opts.filePath, Started: startTime}
	}
	return target.OnSuccess(res.Text)
}
