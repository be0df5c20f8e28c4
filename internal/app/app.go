package app

import (
	"fmt"
	"os"
	"strings"
)

// Run executes the CLI command and returns a process exit code.
func Run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "help", "--help", "-h":
		printUsage()
		return 0
	case "health":
		return runHealth(args[1:])
	case "ingest":
		return runIngest(args[1:])
	case "fetch":
		return runFetch(args[1:])
	case "discover":
		return runDiscover(args[1:])
	case "serve":
		return runServe(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "newsflash CLI")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  newsflash <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  health    Verify database connectivity")
	fmt.Fprintln(os.Stderr, "  ingest    Save a batch of articles or urls from a JSON file")
	fmt.Fprintln(os.Stderr, "  fetch     Extract one page and print the result without saving")
	fmt.Fprintln(os.Stderr, "  discover  List article links from an RSS or Atom feed")
	fmt.Fprintln(os.Stderr, "  serve     Start Echo API server")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Use \"newsflash <command> -h\" for command-specific flags.")
}
