//go:build windows

package main

import (
	"os/exec"
	"syscall"
)

// configureDaemonProcess detaches cphubd from the CLI's console so it
// keeps running after the CLI exits.
func configureDaemonProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}
