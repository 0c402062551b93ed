package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	AltEnvPathEnvVar = "SCREEN_OCR_CLIP"

	CaptureModeTool    = "tool"
	CaptureModeDisplay = "display"

	EngineTesseract = "tesseract"
	EngineGosseract = "gosseract"

	DefaultCaptureTool = "gnome-screenshot"
	DefaultCaptureArgs = "-a -f {output}"
	DefaultOCRTool     = "tesseract"
	DefaultOCRDPI      = 300
	DefaultOCRLang     = "eng"
	DefaultHotkey      = "Ctrl+Alt+Q"
)

type LoadOptions struct {
	CaptureModeOverride string
	LanguageOverride    string
	KeepImagesOverride  bool
}

type Config struct {
	CaptureMode        string
	CaptureTool        string
	CaptureArgs        []string
	CaptureDisplay     int
	CaptureRegion      string
	CaptureDeadlineSec int

	OCREngine      string
	OCRTool        string
	OCRDPI         int
	OCRLang        string
	OCRPSM         int
	OCRDeadlineSec int

	TempDir    string
	KeepImages bool

	Preprocess          bool
	PreprocessThreshold int

	NotifyMaxChars    int
	ClipboardHoldSec  int
	Hotkey            string
	EnableTray        bool
	EnableFileLogging bool
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Sources in priority order:
	// 1) .env in the executable directory
	// 2) otherwise the file named by SCREEN_OCR_CLIP
	if envPath := resolveEnvPath(); envPath != "" {
		_ = godotenv.Load(envPath)
	}

	cfg := &Config{
		CaptureMode:        resolveCaptureMode(os.Getenv("CAPTURE_MODE")),
		CaptureTool:        getEnvWithDefault("CAPTURE_TOOL", DefaultCaptureTool),
		CaptureArgs:        strings.Fields(getEnvWithDefault("CAPTURE_ARGS", DefaultCaptureArgs)),
		CaptureDisplay:     getEnvInt("CAPTURE_DISPLAY", -1, -1),
		CaptureRegion:      os.Getenv("CAPTURE_REGION"),
		CaptureDeadlineSec: getEnvInt("CAPTURE_DEADLINE_SEC", 120, 1),

		OCREngine:      resolveEngine(os.Getenv("OCR_ENGINE")),
		OCRTool:        getEnvWithDefault("OCR_TOOL", DefaultOCRTool),
		OCRDPI:         getEnvInt("OCR_DPI", DefaultOCRDPI, 1),
		OCRLang:        getEnvWithDefault("OCR_LANG", DefaultOCRLang),
		OCRPSM:         getEnvInt("OCR_PSM", -1, 0),
		OCRDeadlineSec: getEnvInt("OCR_DEADLINE_SEC", 20, 1),

		TempDir:    getEnvWithDefault("TEMP_DIR", os.TempDir()),
		KeepImages: getEnvBool("KEEP_IMAGES", false),

		Preprocess:          getEnvBool("PREPROCESS", false),
		PreprocessThreshold: getEnvInt("PREPROCESS_THRESHOLD", 0, 0),

		NotifyMaxChars:    getEnvInt("NOTIFY_MAX_CHARS", 200, 0),
		ClipboardHoldSec:  getEnvInt("CLIPBOARD_HOLD_SEC", 10, 0),
		Hotkey:            getEnvWithDefault("HOTKEY", DefaultHotkey),
		EnableTray:        getEnvBool("ENABLE_TRAY", true),
		EnableFileLogging: getEnvBool("ENABLE_FILE_LOGGING", false),
	}

	if v := strings.TrimSpace(opts.CaptureModeOverride); v != "" {
		cfg.CaptureMode = resolveCaptureMode(v)
	}
	if v := strings.TrimSpace(opts.LanguageOverride); v != "" {
		cfg.OCRLang = v
	}
	if opts.KeepImagesOverride {
		cfg.KeepImages = true
	}
	if cfg.PreprocessThreshold > 255 {
		cfg.PreprocessThreshold = 255
	}

	return cfg, nil
}

func resolveEnvPath() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}

	exeEnv := filepath.Join(filepath.Dir(execPath), ".env")
	if _, err := os.Stat(exeEnv); err == nil {
		return exeEnv
	}

	if alt := os.Getenv(AltEnvPathEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns defaultValue when the variable is unset, malformed or below min.
func getEnvInt(key string, defaultValue, min int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < min {
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}

func resolveCaptureMode(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case CaptureModeDisplay, "screen", "full":
		return CaptureModeDisplay
	default:
		return CaptureModeTool
	}
}

func resolveEngine(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case EngineGosseract:
		return EngineGosseract
	default:
		return EngineTesseract
	}
}
