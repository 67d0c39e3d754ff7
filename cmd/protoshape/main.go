package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"protoshape/pkg/driver"
	"protoshape/pkg/source"
)

const defaultHistoryFile = ".protoshape_history"

func main() {
	configFlag := flag.String("config", "", "YAML configuration file (vm limits, log_level, history_file)")
	exprFlag := flag.String("e", "", "Run the given step, e.g. -e '{array: [1, 2]}', and exit")
	verboseFlag := flag.Bool("v", false, "Log shape transitions and builtin setup at debug level")
	cacheStatsFlag := flag.Bool("cache-stats", false, "Show inline cache statistics after execution")
	gcFlag := flag.Bool("gc", false, "Sweep unreachable shapes after execution and report the counts")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: protoshape [flags] [scenario.yaml ...]\n\n")
		flag.PrintDefaults()
	}

	flag.Parse() // Parses the command-line flags

	cfg := driver.DefaultConfig()
	if *configFlag != "" {
		loaded, err := driver.LoadConfig(*configFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			if cause := errors.Unwrap(err); cause != nil {
				fmt.Fprintf(os.Stderr, "  %v\n", cause)
			}
			os.Exit(64) // Exit code 64: command line usage error
		}
		cfg = loaded
	}
	if *verboseFlag {
		cfg.LogLevel = "debug"
	}

	session, err := driver.NewSession(cfg, flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(70) // Exit code 70: internal software error
	}

	ok := true
	switch {
	case *exprFlag != "":
		value, err := session.RunSource(source.NewEvalSource(*exprFlag))
		ok = session.DisplayResult(*exprFlag, value, err)
	case flag.NArg() > 0:
		for _, path := range flag.Args() {
			if !session.RunFile(path) {
				ok = false
			}
		}
	default:
		runRepl(session, cfg.HistoryFile)
	}

	if *gcFlag {
		swept, live := session.CollectShapes()
		fmt.Printf("shapes: %d swept, %d live\n", swept, live)
	}
	if *cacheStatsFlag {
		session.PrintCacheStats()
	}
	if !ok {
		os.Exit(70)
	}
}

// runRepl reads one YAML flow-mapping step per line, e.g. {get: [o, "x"]}.
// Lines starting with ':' are commands.
func runRepl(session *driver.Session, historyPath string) {
	if historyPath == "" {
		home, _ := os.UserHomeDir()
		historyPath = filepath.Join(home, defaultHistoryFile)
	}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(historyPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(historyPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	fmt.Println("protoshape (:help for commands, Ctrl+D to exit)")
	for {
		line, err := ln.Prompt("> ")
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Println()
			return
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "read error: %v\n", err)
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		ln.AppendHistory(line)

		if strings.HasPrefix(line, ":") {
			if !replCommand(session, line) {
				return
			}
			continue
		}
		if !strings.HasPrefix(line, "{") {
			// allow the braces to be omitted: get: [o, "x"]
			line = "{" + line + "}"
		}
		value, err := session.RunStep(line)
		session.DisplayResult(line, value, err)
	}
}

// replCommand runs a ':' command and reports whether the REPL should continue
func replCommand(session *driver.Session, line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case ":quit", ":q":
		return false
	case ":help":
		fmt.Println("  {op: [args...], as: name, expect: value}   run one step")
		fmt.Println("  :load file.yaml                            run a scenario file")
		fmt.Println("  :vars                                      list bound variables")
		fmt.Println("  :gc                                        sweep unreachable shapes")
		fmt.Println("  :stats                                     inline cache statistics")
		fmt.Println("  :quit                                      exit")
	case ":load":
		if len(fields) != 2 {
			fmt.Println("usage: :load file.yaml")
			break
		}
		session.RunFile(fields[1])
	case ":vars":
		heap := session.VM().Heap()
		for _, name := range heap.Names() {
			v, _ := heap.GetByName(name)
			fmt.Printf("  %s = %s\n", name, v.InspectNested())
		}
	case ":gc":
		swept, live := session.CollectShapes()
		fmt.Printf("shapes: %d swept, %d live\n", swept, live)
	case ":stats":
		session.PrintCacheStats()
	default:
		fmt.Printf("unknown command %s. Type :help for a list.\n", fields[0])
	}
	return true
}
