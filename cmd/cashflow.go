package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	kapytal "github.com/JakubFranek/Kapytal"
	"github.com/google/subcommands"
)

// cashflowCmd holds the flags for the 'cashflow' subcommand.
type cashflowCmd struct {
	period string
	from   string
	to     string
}

func (*cashflowCmd) Name() string     { return "cashflow" }
func (*cashflowCmd) Synopsis() string { return "display the bucketed cash-flow grid" }
func (*cashflowCmd) Usage() string {
	return `kapytal cashflow [-p <period>] [-from <date>] [-to <date>] [-ledger-file <file>]

  Buckets incomes, expenses, transfers and gains by period, in base currency.
`
}

func (c *cashflowCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.period, "p", "monthly", "Bucket period: daily, weekly, monthly, quarterly or yearly")
	f.StringVar(&c.from, "from", "", "Start date (defaults to the current year's start)")
	f.StringVar(&c.to, "to", kapytal.Today().String(), "End date")
}

func (c *cashflowCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	period, err := kapytal.ParsePeriod(c.period)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing period: %v\n", err)
		return subcommands.ExitUsageError
	}
	to, err := kapytal.ParseDate(c.to)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing -to date: %v\n", err)
		return subcommands.ExitUsageError
	}
	from := kapytal.NewDate(to.Year(), 1, 1)
	if c.from != "" {
		if from, err = kapytal.ParseDate(c.from); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing -from date: %v\n", err)
			return subcommands.ExitUsageError
		}
	}
	ledger, err := DecodeLedger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	report, err := ledger.CashFlow(&kapytal.Filter{}, period, from, to)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing cash flow: %v\n", err)
		return subcommands.ExitFailure
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "Bucket\tIncome\tExpenses\tIn\tOut\tRefunds\tCash flow\tGrowth\tSavings")
	rows := append(report.Buckets, report.Total)
	for i, s := range rows {
		label := s.Range.Label(report.Period)
		if i == len(rows)-1 {
			label = "Total"
		}
		savings := "n/a"
		if s.SavingsRate == s.SavingsRate { // not NaN
			savings = fmt.Sprintf("%.1f%%", 100*s.SavingsRate)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			label,
			s.Incomes.Round().String(), s.Expenses.Neg().Round().String(),
			s.InwardTransfers.Round().String(), s.OutwardTransfers.Neg().Round().String(),
			s.Refunds.Round().String(),
			s.CashFlow.Round().String(), s.TotalGrowth.Round().String(), savings)
	}
	w.Flush()
	return subcommands.ExitSuccess
}
