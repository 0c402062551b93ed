package process

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"screen-ocr-clip/src/failure"
	"screen-ocr-clip/src/testutil"
)

func TestRunCapturesStdout(t *testing.T) {
	dir := testutil.BinDir(t)
	testutil.WriteScript(t, dir, "greet", `echo "hello $1"; echo "noise" >&2`)

	var stdout, stderr bytes.Buffer
	res, err := Run(context.Background(), Spec{Name: "greet", Args: []string{"world"}, Stdout: &stdout, Stderr: &stderr})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}
	if got := strings.TrimSpace(stdout.String()); got != "hello world" {
		t.Errorf("stdout = %q", got)
	}
	if !strings.Contains(stderr.String(), "noise") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestRunNonZeroExitIsNotAnError(t *testing.T) {
	dir := testutil.BinDir(t)
	testutil.WriteScript(t, dir, "fail", "exit 3")

	res, err := Run(context.Background(), Spec{Name: "fail"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", res.ExitCode)
	}
}

func TestRunMissingTool(t *testing.T) {
	testutil.BinDir(t)

	_, err := Run(context.Background(), Spec{Name: "does-not-exist"})
	if !errors.Is(err, failure.ErrToolMissing) {
		t.Fatalf("err = %v, want ErrToolMissing", err)
	}
	if tool, ok := failure.MissingTool(err); !ok || tool != "does-not-exist" {
		t.Errorf("MissingTool = %q, %v", tool, ok)
	}
}

func TestRunSpawnFailure(t *testing.T) {
	dir := testutil.BinDir(t)
	// Executable bit set but no valid interpreter.
	if err := os.WriteFile(filepath.Join(dir, "broken"), []byte("#!/nonexistent/interpreter\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	_, err := Run(context.Background(), Spec{Name: "broken"})
	if !errors.Is(err, failure.ErrSpawn) {
		t.Fatalf("err = %v, want ErrSpawn", err)
	}
}

func TestRunCancelTerminatesChild(t *testing.T) {
	sleep := testutil.HostTool(t, "sleep")
	dir := testutil.BinDir(t)
	testutil.WriteScript(t, dir, "hang", sleep+" 30")

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := Run(ctx, Spec{Name: "hang"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want DeadlineExceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("cancellation took %v", elapsed)
	}
}
