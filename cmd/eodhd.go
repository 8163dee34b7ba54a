package cmd

import (
	"context"
	"flag"

	"github.com/google/subcommands"
)

// eodhdCmd groups the commands that source data blocks from eodhd.com.
type eodhdCmd struct{}

func (*eodhdCmd) Name() string     { return "eodhd" }
func (*eodhdCmd) Synopsis() string { return "curate data blocks fetched from eodhd.com" }
func (*eodhdCmd) Usage() string {
	return `dcs eodhd <subcommand> <options>

Curate data blocks from the eodhd.com endpoints.

Subcommands:
	fetch	fetches the endpoints of a block for some tickers and curates them
`
}
func (c *eodhdCmd) SetFlags(f *flag.FlagSet) {}

func (c *eodhdCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	commander := subcommands.NewCommander(f, "eodhd")
	commander.Register(&eodhdFetchCmd{}, "")
	return commander.Execute(ctx, args...)
}
