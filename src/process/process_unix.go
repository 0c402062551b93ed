//go:build unix

package process

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// Children run in their own process group so cancellation also reaches
// helpers they spawn (e.g. a shell wrapper around the real tool).
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

func terminate(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	if err := unix.Kill(-cmd.Process.Pid, unix.SIGTERM); err != nil && err != unix.ESRCH {
		return cmd.Process.Kill()
	}
	return nil
}
