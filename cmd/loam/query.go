package main

import (
	"fmt"
	"os"
	"strings"

	flag "github.com/spf13/pflag"
)

func runQuery(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: loam query "<datalog>"

Execute a query and print its result. The find clause decides the shape:
a trailing . prints one value, [?v ...] one column, [?a ?b] one row, and
bare variables the full relation.

Examples:
  loam query "[:find ?e ?v :where [?e :foo/long ?v]]"
  loam query "[:find ?v . :where [65536 :foo/long ?v]]"
`)
	}
	_ = fs.Parse(args)

	if fs.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: query argument required\n")
		os.Exit(ExitUsage)
	}
	text := strings.Join(fs.Args(), " ")

	sess, err := openSession(globals)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitConnect)
	}

	if err := executeAndPrint(sess.st, text, os.Stdout); err != nil {
		sess.Close()
		fmt.Fprintf(os.Stderr, "Query error: %v\n", err)
		os.Exit(ExitQuery)
	}
	sess.Close()
}
