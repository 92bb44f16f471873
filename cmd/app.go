// Package cmd implements the CLI application to inspect a ledger bundle.
package cmd

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	kapytal "github.com/JakubFranek/Kapytal"
	"github.com/google/subcommands"
	"github.com/rs/zerolog"
)

// Commands lists the subcommands a main package registers.
var Commands = []subcommands.Command{
	&checkCmd{},
	&networthCmd{},
	&cashflowCmd{},
}

// As a CLI application it is short lived, so globals are fine.

var ledgerFile = flag.String("ledger-file", "ledger.json", "Path to the ledger bundle file (JSON format)")
var verbose = flag.Bool("v", false, "Enable debug logging to stderr")

// DecodeLedger loads and validates the bundle from the -ledger-file flag.
func DecodeLedger() (*kapytal.Ledger, error) {
	if *verbose {
		kapytal.SetLogger(zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.DebugLevel))
	}
	data, err := os.ReadFile(*ledgerFile)
	if err != nil {
		return nil, fmt.Errorf("reading ledger bundle: %w", err)
	}
	var bundle kapytal.Bundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("parsing ledger bundle %q: %w", *ledgerFile, err)
	}
	ledger, err := kapytal.LoadBundle(bundle)
	if err != nil {
		return nil, fmt.Errorf("loading ledger: %w", err)
	}
	return ledger, nil
}
