package toolcheck

import (
	"log"
	"os/exec"

	"screen-ocr-clip/src/failure"
)

// InstallHint is shown to the user when the OCR engine is absent.
const InstallHint = "Please install Tesseract OCR for this tool to work. On Ubuntu, use `sudo apt install tesseract-ocr`"

// IsToolAvailable reports whether name resolves to an executable, the way
// `which` does: PATH lookup for bare names, a direct check for paths.
func IsToolAvailable(name string) bool {
	if name == "" {
		return false
	}
	path, err := exec.LookPath(name)
	if err != nil {
		log.Printf("toolcheck: %s not found", name)
		return false
	}
	log.Printf("toolcheck: %s is available at %s", name, path)
	return true
}

// Require returns a *failure.ToolMissingError for the first absent tool.
func Require(names ...string) error {
	for _, name := range names {
		if !IsToolAvailable(name) {
			return &failure.ToolMissingError{Tool: name}
		}
	}
	return nil
}

// Checker adapts Require to the pipeline's preflight hook.
type Checker struct {
	Tools []string
}

func (c Checker) Check() error { return Require(c.Tools...) }
