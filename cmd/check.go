package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

// checkCmd validates a ledger bundle and prints a short inventory.
type checkCmd struct{}

func (*checkCmd) Name() string     { return "check" }
func (*checkCmd) Synopsis() string { return "validate a ledger bundle" }
func (*checkCmd) Usage() string {
	return `kapytal check [-ledger-file <file>]

  Loads the bundle, re-validating every invariant, and prints what it holds.
`
}

func (*checkCmd) SetFlags(*flag.FlagSet) {}

func (c *checkCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ledger, err := DecodeLedger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("ok: %d currencies, %d securities, %d categories, %d account items, %d transactions\n",
		len(ledger.Currencies()), len(ledger.Securities()), len(ledger.Categories()),
		len(ledger.AccountItems()), len(ledger.Transactions()))
	return subcommands.ExitSuccess
}
