//go:build unix

package main

import (
	"os/exec"
	"syscall"
)

// configureDaemonProcess puts cphubd in its own process group so it
// survives the CLI exiting and ignores the terminal's signals.
func configureDaemonProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}
