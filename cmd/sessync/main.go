// Command sessync syncs AI coding assistant session transcripts
// between a local projects tree and a git- or hg-backed mirror.
package main

import (
	"fmt"
	"os"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "init":
		runInit(os.Args[2:])
	case "push":
		runPush(os.Args[2:])
	case "pull":
		runPull(os.Args[2:])
	case "undo":
		runUndo(os.Args[2:])
	case "history":
		runHistory(os.Args[2:])
	case "watch":
		runWatch(os.Args[2:])
	case "version", "--version", "-v":
		fmt.Printf("sessync %s (commit %s)\n", version, commit)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "sessync: unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(2)
	}
}

func printUsage() {
	fmt.Print(`sessync - sync AI coding assistant session transcripts via git or hg

Usage:
  sessync init [flags]      Create the mirror and state directory
  sessync push [flags]      Copy local sessions into the mirror and commit
  sessync pull [flags]      Fetch and merge the mirror's sessions into local
  sessync undo <push|pull>  Revert the last push or pull
  sessync history [flags]   Show recent sync operations
  sessync watch [flags]     Push automatically whenever local sessions change
  sessync version           Show version information
  sessync help              Show this help

Flags vary per command; run "sessync <command> -h" for details.

Environment variables:
  SESSYNC_STATE_DIR     State directory (default ~/.sessync)
  SESSYNC_PROJECTS_DIR  Local projects root (default ~/.claude/projects)
`)
}
