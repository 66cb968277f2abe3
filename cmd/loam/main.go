// Command loam is a terminal client for Loam stores. It speaks to a loamd
// daemon over its unix socket, or runs a throwaway in-process engine with
// --mem for quick experiments.
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
)

// Exit codes.
const (
	ExitGeneral = 1
	ExitUsage   = 2
	ExitConnect = 3
	ExitQuery   = 4
)

// GlobalFlags carries the options every subcommand shares.
type GlobalFlags struct {
	// Socket is the loamd socket to dial. Empty dials the default path.
	Socket string

	// Mem runs against a throwaway in-process engine instead of a daemon.
	Mem bool

	// DB is the store path to open on the daemon, or with --mem a file
	// whose contents seed the throwaway store as one transaction.
	DB string
}

func main() {
	fs := flag.NewFlagSet("loam", flag.ExitOnError)
	fs.SetInterspersed(false)
	socket := fs.String("socket", "", "loamd socket path")
	memEng := fs.Bool("mem", false, "Use a throwaway in-process engine instead of a daemon")
	db := fs.String("db", "", "Store path on the daemon, or a seed EDN file with --mem")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: loam [options] <command> [args]

Commands:
  query <datalog>   Execute a query and print its result
  transact [edn]    Commit a transaction; reads stdin without an argument
  repl              Interactive session

Options:
%s`, fs.FlagUsages())
	}
	_ = fs.Parse(os.Args[1:])

	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(ExitUsage)
	}

	globals := GlobalFlags{Socket: *socket, Mem: *memEng, DB: *db}
	switch cmd := fs.Arg(0); cmd {
	case "query":
		runQuery(fs.Args()[1:], globals)
	case "transact":
		runTransact(fs.Args()[1:], globals)
	case "repl":
		runRepl(fs.Args()[1:], globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fs.Usage()
		os.Exit(ExitUsage)
	}
}
