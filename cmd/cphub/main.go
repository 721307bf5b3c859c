package main

import (
	"fmt"
	"os"
	"strings"
)

// Version is set at build time via ldflags
var Version = "dev"

const (
	daemonAddr = "http://127.0.0.1:7433"
	pidFile    = "cphubd.pid"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "start":
		err = cmdStart()
	case "stop":
		err = cmdStop()
	case "status":
		err = cmdStatus()
	case "logs":
		err = cmdLogs()
	case "register":
		err = cmdRegister(os.Args[2:])
	case "login":
		err = cmdLogin(os.Args[2:])
	case "logout":
		err = cmdLogout()
	case "whoami":
		err = cmdWhoami()
	case "problems":
		err = cmdProblems(os.Args[2:])
	case "run":
		err = cmdRun(os.Args[2:])
	case "submit":
		err = cmdSubmit(os.Args[2:])
	case "progress":
		err = cmdProgress()
	case "leaderboard":
		err = cmdLeaderboard(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Printf("cphub %s\n", Version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`cphub - Competitive Programming Hub

Usage:
  cphub <command> [arguments]

Daemon Commands:
  start           Start the cphub daemon
  stop            Stop the cphub daemon
  status          Show daemon status
  logs            Show daemon logs

Account Commands:
  register        Create an account
  login           Sign in and store a token
  logout          Discard the stored token
  whoami          Show the signed-in account

Practice Commands:
  problems        List or show problems
  run             Run a solution against a problem's test cases
  submit          Submit a solution for grading
  progress        Show your progress and streak
  leaderboard     Show the points leaderboard

Other:
  help            Show this help message
  version         Show version information

Examples:
  cphub start                          # Start daemon
  cphub login alice@example.com        # Sign in
  cphub problems list --difficulty Easy
  cphub problems show 1
  cphub run 1 solution.js              # Run against all cases
  cphub submit 1 solution.js           # Official submission
  cphub progress                       # Points, level, streak`)
}

// renderProgressBar creates a visual progress bar
func renderProgressBar(value float64, width int) string {
	filled := int(value * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	empty := width - filled

	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", empty) + "]"
}
