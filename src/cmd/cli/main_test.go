package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"screen-ocr-clip/src/sink"
	"screen-ocr-clip/src/testutil"
	"screen-ocr-clip/src/toolcheck"
)

func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"OCR_ENGINE", "OCR_TOOL", "OCR_LANG", "CAPTURE_MODE", "CAPTURE_TOOL", "PREPROCESS"} {
		t.Setenv(key, "")
	}
	t.Setenv("TEMP_DIR", t.TempDir())
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
}

func execCLI(t *testing.T, stdin io.Reader, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd(&cliOptions{})
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if stdin != nil {
		cmd.SetIn(stdin)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writePNG(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.png")
	if err := os.WriteFile(path, testutil.MinimalPNG, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func fakeTesseract(t *testing.T, body string) {
	t.Helper()
	dir := testutil.BinDir(t)
	testutil.WriteScript(t, dir, "tesseract", body)
}

func TestRecognizeFile(t *testing.T) {
	isolateEnv(t)
	fakeTesseract(t, `echo "Hello CLI"`)
	input := writePNG(t)

	stdout, stderr, err := execCLI(t, nil, "--file", input)
	if err != nil {
		t.Fatalf("Command failed: %v", err)
	}
	if stdout != "Hello CLI" {
		t.Errorf("stdout = %q", stdout)
	}
	if stderr != "" {
		t.Errorf("Expected empty stderr without -v flag, got: %s", stderr)
	}

	data, err := os.ReadFile(input)
	if err != nil || !bytes.Equal(data, testutil.MinimalPNG) {
		t.Error("input file must be left untouched")
	}
}

func TestRecognizeJSON(t *testing.T) {
	isolateEnv(t)
	fakeTesseract(t, `echo "json text"`)
	input := writePNG(t)

	stdout, _, err := execCLI(t, nil, "--file", input, "--json")
	if err != nil {
		t.Fatalf("Command failed: %v", err)
	}
	var result sink.Result
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}
	if result.Text != "json text" || result.CharCount != 9 || result.Source != input {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestRecognizeStdin(t *testing.T) {
	isolateEnv(t)
	fakeTesseract(t, `[ -s "$1" ] || exit 3
echo "from stdin"`)

	stdout, _, err := execCLI(t, bytes.NewReader(testutil.MinimalPNG), "--file", "-")
	if err != nil {
		t.Fatalf("Stdin test failed: %v", err)
	}
	if stdout != "from stdin" {
		t.Errorf("stdout = %q", stdout)
	}
	if files, _ := filepath.Glob(filepath.Join(os.Getenv("TEMP_DIR"), "screen-ocr-*")); len(files) != 0 {
		t.Errorf("staged images left behind: %v", files)
	}
}

func TestVerboseToStderrOnly(t *testing.T) {
	isolateEnv(t)
	fakeTesseract(t, `echo "quiet result"`)

	stdout, stderr, err := execCLI(t, nil, "--file", writePNG(t), "-v")
	if err != nil {
		t.Fatalf("Command failed: %v", err)
	}
	if strings.Contains(stdout, "[verbose]") {
		t.Error("Found [verbose] in stdout - should only be in stderr")
	}
	if !strings.Contains(stderr, "[verbose]") {
		t.Error("Expected [verbose] logs in stderr with -v flag")
	}
}

func TestMissingTesseract(t *testing.T) {
	isolateEnv(t)
	testutil.BinDir(t)

	_, _, err := execCLI(t, nil, "--file", writePNG(t))
	if err == nil || !strings.Contains(err.Error(), toolcheck.InstallHint) {
		t.Errorf("err = %v, want install hint", err)
	}
}

func TestRecognitionErrors(t *testing.T) {
	isolateEnv(t)
	fakeTesseract(t, "exit 1")

	if _, _, err := execCLI(t, nil, "--file", writePNG(t)); err == nil || !strings.Contains(err.Error(), "OCR failed") {
		t.Errorf("err = %v, want OCR failure", err)
	}
	if _, _, err := execCLI(t, nil, "--file", "/nonexistent/file.png"); err == nil {
		t.Error("Expected command to fail for non-existent file")
	}
	if _, _, err := execCLI(t, nil); err == nil {
		t.Error("Expected error when --file is missing")
	}
}

func TestCheckCommand(t *testing.T) {
	isolateEnv(t)
	fakeTesseract(t, "exit 0")

	stdout, _, err := execCLI(t, nil, "check")
	if err == nil || !strings.Contains(err.Error(), "gnome-screenshot") {
		t.Errorf("err = %v, want gnome-screenshot missing", err)
	}
	if !strings.Contains(stdout, "tesseract") || !strings.Contains(stdout, "ok") || !strings.Contains(stdout, "missing") {
		t.Errorf("check output = %q", stdout)
	}
}

func TestPNGValidation(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr bool
	}{
		{
			name:    "ValidPNG",
			data:    []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0x00},
			wantErr: false,
		},
		{
			name:    "InvalidMagic",
			data:    []byte{0x00, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a},
			wantErr: true,
		},
		{
			name:    "TooShort",
			data:    []byte{0x89, 'P', 'N', 'G'},
			wantErr: true,
		},
		{
			name:    "Empty",
			data:    []byte{},
			wantErr: true,
		},
		{
			name:    "TooLarge",
			data:    append(append([]byte{}, pngMagic...), make([]byte, maxFileSize)...),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePNG(tt.data)
			if (err != nil) != tt.wantErr {
				t.Errorf("validatePNG() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeLegacyArgs(t *testing.T) {
	in := []string{"ocr-tool", "-file", "a.png", "-json", "-lang=deu", "-v", "--verbose"}
	want := []string{"ocr-tool", "--file", "a.png", "--json", "--lang=deu", "-v", "--verbose"}
	got := normalizeLegacyArgs(in)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expected arg[%d]=%q, got %q", i, want[i], got[i])
		}
	}
}
