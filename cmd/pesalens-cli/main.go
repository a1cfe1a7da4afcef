// Command pesalens-cli analyzes a statement text file in one pass, without
// the database or the queue.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"pesalens/internal/cli"
	"pesalens/internal/core"
)

func main() {
	var (
		file     = flag.String("file", "", "path to the statement text file (required)")
		bizType  = flag.String("type", "retail", "business type: retail, distributor, services or online")
		period   = flag.String("period", "all", "period filter: all, 7, 30 or 90 days")
		keywords = flag.String("owner", "", "comma-separated owner keywords for personal-transfer detection")
	)
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "missing -file")
		flag.Usage()
		os.Exit(2)
	}

	bt := core.BusinessType(*bizType)
	if !bt.IsValid() {
		fmt.Fprintf(os.Stderr, "unknown business type %q\n", *bizType)
		os.Exit(2)
	}

	p := core.Period(*period)
	if !p.IsValid() {
		fmt.Fprintf(os.Stderr, "unknown period %q\n", *period)
		os.Exit(2)
	}

	var owner []string
	for _, kw := range strings.Split(*keywords, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			owner = append(owner, kw)
		}
	}

	if err := cli.RunFile(os.Stdout, *file, owner, bt, p); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
