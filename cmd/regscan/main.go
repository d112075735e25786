// Command regscan scans files with pattern sets and generates Go code for them.
//
// Usage:
//
//	regscan scan -patterns set.yaml [-mode stream] [-chunk 65536] [-line ERROR] file...
//	regscan gen -patterns set.yaml -package sets -name Web -o web_patterns.go
//	regscan catalog -db catalog.db put|get|list|delete [args]
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/KromDaniel/regscan/pkg/regscan"
)

const version = "0.1.0"

// arrayFlags collects a repeated string flag.
type arrayFlags []string

func (i *arrayFlags) String() string {
	return strings.Join(*i, ", ")
}

func (i *arrayFlags) Set(value string) error {
	*i = append(*i, value)
	return nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return 2
	}
	log := initLogger(stderr)

	var err error
	switch args[0] {
	case "scan":
		err = runScan(args[1:], stdout, stderr, log)
	case "gen":
		err = runGen(args[1:], stdout, stderr)
	case "catalog":
		err = runCatalog(args[1:], stdout, stderr, log)
	case "version", "-version", "--version":
		fmt.Fprintf(stdout, "regscan %s (%s engine)\n", version, regscan.EngineName)
		return 0
	case "help", "-h", "-help", "--help":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "regscan: unknown command %q\n", args[0])
		printUsage(stderr)
		return 2
	}
	if err != nil {
		fmt.Fprintf(stderr, "regscan %s: %v\n", args[0], err)
		return 1
	}
	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `Usage: regscan <command> [flags]

Commands:
  scan      scan files (or stdin) and print file:tag:start:end per match
  gen       generate Go source embedding a pattern set
  catalog   manage pattern sets stored in a catalog file
  version   print version information

Environment:
  REGSCAN_LOG_LEVEL   debug, info, warn or error (default warn)
  REGSCAN_JSON_LOG    1, true or json for JSON logs on stderr
`)
}

// initLogger builds the stderr logger from REGSCAN_LOG_LEVEL and REGSCAN_JSON_LOG.
func initLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: levelFromEnv()}
	var handler slog.Handler
	switch strings.ToLower(os.Getenv("REGSCAN_JSON_LOG")) {
	case "1", "true", "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler).With("service", "regscan")
}

func levelFromEnv() slog.Leveler {
	switch strings.ToLower(os.Getenv("REGSCAN_LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
