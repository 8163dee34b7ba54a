package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/curator/date"
	"github.com/etnz/curator/eodhd"
	"github.com/google/subcommands"
)

const eodhd_api_key = "EODHD_API_KEY"

// eodhdFetchCmd implements the "eodhd fetch" command.
type eodhdFetchCmd struct {
	eodhdApiFlag string
	block        string
	from, to     string
	json         bool
	concurrency  int
	cachePeriod  string
}

func (*eodhdFetchCmd) Name() string     { return "fetch" }
func (*eodhdFetchCmd) Synopsis() string { return "fetches and curates data blocks from EODHD" }
func (*eodhdFetchCmd) Usage() string {
	return `eodhd fetch -block <block> [-from <date>] [-to <date>] <ticker>...

	Fetches the endpoints of a data block from eodhd.com for every ticker,
	and prints the curated rows. Tickers that fail are reported and skipped.

	Requires the EODHD_API_KEY environment variable to be set or passed as a flag.
	`
}
func (c *eodhdFetchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.eodhdApiFlag, "eodhd-api-key", "", "EODHD API key to use for consuming EODHD.com API. This flag takes precedence over the "+eodhd_api_key+" environment variable. You can get one at https://eodhd.com/")
	f.StringVar(&c.block, "block", "market_daily", "data block to curate")
	f.StringVar(&c.from, "from", "", "first date to fetch (defaults to one year ago)")
	f.StringVar(&c.to, "to", "", "last date to fetch (defaults to today)")
	f.BoolVar(&c.json, "json", false, "print the curated entities as JSON")
	f.IntVar(&c.concurrency, "concurrency", 4, "number of tickers fetched at once")
	f.StringVar(&c.cachePeriod, "cache", "daily", "how long responses are cached: daily, weekly, monthly, quarterly or yearly")
}

// eodhdApiKey retrieves the EODHD API key from the command-line flag or the environment variable.
// It prioritizes the flag over the environment variable.
func (c *eodhdFetchCmd) eodhdApiKey() string {
	if c.eodhdApiFlag == "" {
		c.eodhdApiFlag = os.Getenv(eodhd_api_key)
	}
	return c.eodhdApiFlag
}

// fetchRange returns the range of dates to fetch.
func (c *eodhdFetchCmd) fetchRange() (date.Range, error) {
	r := date.Range{To: date.Today()}
	if c.to != "" {
		to, err := date.Parse(c.to)
		if err != nil {
			return r, fmt.Errorf("invalid -to: %w", err)
		}
		r.To = to
	}
	r.From = r.To.Add(-365)
	if c.from != "" {
		from, err := date.Parse(c.from)
		if err != nil {
			return r, fmt.Errorf("invalid -from: %w", err)
		}
		r.From = from
	}
	if r.To.Before(r.From) {
		return r, fmt.Errorf("empty range %s", r)
	}
	return r, nil
}

func (c *eodhdFetchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	key := c.eodhdApiKey()
	if key == "" {
		fmt.Fprintf(os.Stderr, "Error: EODHD API key is not set. Use -eodhd-api-key flag or EODHD_API_KEY environment variable\n")
		return subcommands.ExitFailure
	}
	tickers := f.Args()
	if len(tickers) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no ticker")
		return subcommands.ExitUsageError
	}
	b, _, err := lookupBlock(c.block)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	r, err := c.fetchRange()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	period, err := date.ParsePeriod(c.cachePeriod)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid -cache: %v\n", err)
		return subcommands.ExitUsageError
	}

	p := eodhd.NewProvider(key)
	p.Client.HTTP = eodhd.NewCachingClient("", period)
	p.Concurrency = c.concurrency
	results, err := p.FetchAll(ctx, b, tickers, r)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not fetch from eodhd.com: %v\n", err)
		return subcommands.ExitFailure
	}

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s: %v\n", res.Identifier, res.Err)
			continue
		}
		if c.json {
			if err := printEntity(res.Entity); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				return subcommands.ExitFailure
			}
			continue
		}
		printMarkdown(rowsMarkdown(b, res.Identifier, res.Entity))
	}
	if failed == len(results) {
		return subcommands.ExitFailure
	}
	fmt.Fprintf(os.Stderr, "✅ Curated %d of %d ticker(s) from eodhd.com.\n", len(results)-failed, len(results))
	return subcommands.ExitSuccess
}
