package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"
)

func runRepl(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("repl", flag.ExitOnError)
	_ = fs.Parse(args)

	sess, err := openSession(globals)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitConnect)
	}
	defer sess.Close()

	rl := liner.NewLiner()
	defer rl.Close()
	rl.SetCtrlCAborts(true)

	histPath := historyPath()
	if histPath != "" {
		if f, err := os.Open(histPath); err == nil {
			_, _ = rl.ReadHistory(f)
			f.Close()
		}
	}

	fmt.Println("loam repl. Queries run as typed; :transact <edn> commits; :quit leaves.")
	for {
		input, err := rl.Prompt("loam> ")
		if err != nil {
			// ^C or ^D.
			fmt.Println()
			break
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		rl.AppendHistory(input)

		if input == ":quit" || input == ":q" {
			break
		}
		if body, ok := strings.CutPrefix(input, ":transact "); ok {
			rep, err := sess.st.Transact(body)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Transact error: %v\n", err)
				continue
			}
			fmt.Printf("tx %d committed at %s\n", rep.TxID(), rep.TxInstant().Format(time.RFC3339))
			continue
		}
		if strings.HasPrefix(input, ":") {
			fmt.Fprintf(os.Stderr, "Unknown command %s (try :transact <edn> or :quit)\n", input)
			continue
		}

		if err := executeAndPrint(sess.st, input, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Query error: %v\n", err)
		}
	}

	saveHistory(rl, histPath)
}

// historyPath returns where the repl keeps its history, or "" when there is
// no home directory to keep it in.
func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".loam", "history")
}

func saveHistory(rl *liner.State, path string) {
	if path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return
	}
	f, err := os.Create(path)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = rl.WriteHistory(f)
}
