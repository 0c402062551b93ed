// Package testutil provides fake executables for tests that drive external tools.
package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// RequireShell skips tests that rely on /bin/sh scripts.
func RequireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake executables are shell scripts")
	}
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("/bin/sh not available")
	}
}

// BinDir returns a fresh directory that is the only entry on PATH for the test.
// Tools not written into it are therefore missing.
func BinDir(t *testing.T) string {
	t.Helper()
	RequireShell(t)
	dir := t.TempDir()
	t.Setenv("PATH", dir)
	return dir
}

var hostPath = os.Getenv("PATH")

// HostTool resolves name against the PATH the test binary started with, so
// scripts can call real utilities (sleep, cat) after BinDir narrowed PATH.
func HostTool(t *testing.T, name string) string {
	t.Helper()
	for _, dir := range filepath.SplitList(hostPath) {
		p := filepath.Join(dir, name)
		if st, err := os.Stat(p); err == nil && !st.IsDir() && st.Mode()&0o111 != 0 {
			return p
		}
	}
	t.Skipf("%s not available on host", name)
	return ""
}

// WriteScript creates an executable /bin/sh script named name in dir.
func WriteScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake %s: %v", name, err)
	}
	return path
}

// MinimalPNG is a valid 1x1 PNG used by fake capture tools.
var MinimalPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0xf8, 0xff, 0xff, 0x3f,
	0x00, 0x05, 0xfe, 0x02, 0xfe, 0xa7, 0x35, 0x81, 0x84, 0x00, 0x00, 0x00,
	0x00, 0x49, 0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}
