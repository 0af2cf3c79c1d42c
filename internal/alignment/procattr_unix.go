//go:build unix

package alignment

import (
	"os/exec"
	"syscall"
)

// configureProcessGroup makes cancellation kill the aligner and any
// interpreter children it spawned
func configureProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
