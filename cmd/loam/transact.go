package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	flag "github.com/spf13/pflag"
)

func runTransact(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("transact", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: loam transact "<edn>"

Commit one transaction. Without an argument the body is read from stdin,
so seed files pipe straight in:

  loam transact '[{:db/id "a" :foo/long 25}]'
  loam transact < seed.edn
`)
	}
	_ = fs.Parse(args)

	var body string
	if fs.NArg() > 0 {
		body = strings.Join(fs.Args(), " ")
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: read stdin: %v\n", err)
			os.Exit(ExitGeneral)
		}
		body = string(data)
	}
	if strings.TrimSpace(body) == "" {
		fmt.Fprintf(os.Stderr, "Error: transaction body is empty\n")
		os.Exit(ExitUsage)
	}

	sess, err := openSession(globals)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitConnect)
	}

	rep, err := sess.st.Transact(body)
	if err != nil {
		sess.Close()
		fmt.Fprintf(os.Stderr, "Transact error: %v\n", err)
		os.Exit(ExitQuery)
	}
	fmt.Printf("tx %d committed at %s\n", rep.TxID(), rep.TxInstant().Format(time.RFC3339))
	sess.Close()
}
