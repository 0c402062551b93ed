package runtimeinit

import (
	"fmt"
	"log"
	"time"

	"screen-ocr-clip/src/capture"
	"screen-ocr-clip/src/config"
	"screen-ocr-clip/src/ocr"
	"screen-ocr-clip/src/pipeline"
	"screen-ocr-clip/src/preprocess"
	"screen-ocr-clip/src/sink"
	"screen-ocr-clip/src/toolcheck"
	"screen-ocr-clip/src/workspace"
)

type Options struct {
	LoadOptions  config.LoadOptions
	SetupLogging func(bool)
}

// Runtime holds the stages assembled from configuration.
type Runtime struct {
	Config    *config.Config
	Capturer  capture.Capturer
	Engine    ocr.Engine
	Workspace *workspace.Workspace
	Preflight toolcheck.Checker
}

// Bootstrap loads configuration, sets up logging and builds the pipeline stages.
// Missing executables are not an error here; every run re-checks them.
func Bootstrap(opts Options) (*Runtime, error) {
	cfg, err := config.LoadWithOptions(opts.LoadOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if opts.SetupLogging != nil {
		opts.SetupLogging(cfg.EnableFileLogging)
	}
	return Build(cfg)
}

// Build assembles the stages for cfg.
func Build(cfg *config.Config) (*Runtime, error) {
	capturer, err := NewCapturer(cfg)
	if err != nil {
		return nil, err
	}
	engine, err := ocr.New(cfg.OCREngine, ocr.OptionsFromConfig(cfg))
	if err != nil {
		return nil, err
	}
	ws, err := workspace.New(cfg.TempDir, cfg.KeepImages)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{
		Config:    cfg,
		Capturer:  capturer,
		Engine:    engine,
		Workspace: ws,
		Preflight: toolcheck.Checker{Tools: RequiredTools(cfg)},
	}
	log.Printf("Capture: %s, OCR engine: %s (lang %s, %d dpi)", capturer.Name(), engine.Name(), cfg.OCRLang, cfg.OCRDPI)
	return rt, nil
}

// NewCapturer returns the capture backend selected by CAPTURE_MODE.
func NewCapturer(cfg *config.Config) (capture.Capturer, error) {
	if cfg.CaptureMode == config.CaptureModeDisplay {
		region, err := capture.ParseRegion(cfg.CaptureRegion)
		if err != nil {
			return nil, err
		}
		return &capture.Display{Index: cfg.CaptureDisplay, Region: region}, nil
	}
	return capture.NewTool(cfg.CaptureTool, cfg.CaptureArgs), nil
}

// RequiredTools lists the executables a run depends on. The OCR engine comes
// first so its absence is reported with the install hint.
func RequiredTools(cfg *config.Config) []string {
	var tools []string
	if cfg.OCREngine == config.EngineTesseract {
		tools = append(tools, cfg.OCRTool)
	}
	if cfg.CaptureMode == config.CaptureModeTool {
		tools = append(tools, cfg.CaptureTool)
	}
	return tools
}

// Runner builds a pipeline delivering to target.
func (rt *Runtime) Runner(target sink.Target) (*pipeline.Runner, error) {
	cfg := rt.Config
	opts := pipeline.Options{
		Preflight:         rt.Preflight,
		Capturer:          rt.Capturer,
		Engine:            rt.Engine,
		Target:            target,
		Workspace:         rt.Workspace,
		CaptureDeadline:   time.Duration(cfg.CaptureDeadlineSec) * time.Second,
		RecognizeDeadline: time.Duration(cfg.OCRDeadlineSec) * time.Second,
	}
	if cfg.Preprocess {
		popts := preprocess.Options{
			MinHeight: preprocess.DefaultMinHeight,
			Threshold: uint8(cfg.PreprocessThreshold),
		}
		opts.Preprocess = func(src, dst string) error {
			return preprocess.Apply(src, dst, popts)
		}
	}
	return pipeline.New(opts)
}
