//go:build !unix

package alignment

import "os/exec"

func configureProcessGroup(cmd *exec.Cmd) {}
