package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	kapytal "github.com/JakubFranek/Kapytal"
	"github.com/google/subcommands"
)

// networthCmd holds the flags for the 'networth' subcommand.
type networthCmd struct {
	date string
}

func (*networthCmd) Name() string     { return "networth" }
func (*networthCmd) Synopsis() string { return "display the net worth of all accounts" }
func (*networthCmd) Usage() string {
	return `kapytal networth [-d <date>] [-ledger-file <file>]

  Values every account in the base currency at the given date.
`
}

func (c *networthCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", kapytal.Today().String(), "Date of the valuation (YYYY-MM-DD)")
}

func (c *networthCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, err := kapytal.ParseDate(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	ledger, err := DecodeLedger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	report, err := ledger.NetWorth(&kapytal.Filter{}, on)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing net worth: %v\n", err)
		return subcommands.ExitFailure
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Net worth on %s (%s)\n", report.Date, report.Currency)
	for _, row := range report.Rows {
		name := row.Path
		if i := strings.LastIndex(name, "/"); i >= 0 {
			name = strings.Repeat("  ", row.Depth) + name[i+1:]
		}
		value := "n/a"
		if row.Available {
			value = row.Value.Round().Display()
		}
		fmt.Fprintf(w, "%s\t%s\n", name, value)
	}
	fmt.Fprintf(w, "Total\t%s\n", report.Total.Round().Display())
	w.Flush()
	if !report.Complete {
		fmt.Fprintln(os.Stderr, "warning: some figures are unavailable (missing exchange rates)")
	}
	return subcommands.ExitSuccess
}
