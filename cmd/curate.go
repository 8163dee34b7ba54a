package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/curator"
	"github.com/google/subcommands"
)

// curateCmd implements the "curate" command.
type curateCmd struct {
	block      string
	id         string
	json       bool
	noRetry    bool
	descending bool
	schema     bool
}

func (*curateCmd) Name() string     { return "curate" }
func (*curateCmd) Synopsis() string { return "curate a data block from local endpoint files" }
func (*curateCmd) Usage() string {
	return `dcs curate -block <block> -id <identifier> <ENDPOINT=file.json[#jsonpath]>...

  Consolidates the endpoint files of one identifier into the data block and
  prints the curated rows. Files use the EODHD field names. A JSONPath after
  '#' selects the records in a larger document, e.g.

    BALANCE_SHEET=aapl.json#$.Financials.Balance_Sheet.quarterly

  Endpoints are consolidated in the order of the field map. Discrepancy
  reports are printed on stderr.
`
}

func (c *curateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.block, "block", "market_daily", "data block to curate")
	f.StringVar(&c.id, "id", "", "identifier of the instrument")
	f.BoolVar(&c.json, "json", false, "print the curated entity as JSON")
	f.BoolVar(&c.noRetry, "no-retry", false, "fail on discrepancies instead of clearing the conflicting rows")
	f.BoolVar(&c.descending, "descending", false, "endpoint files list the latest rows first")
	f.BoolVar(&c.schema, "schema", false, "print the entity types of the block and exit")
}

func (c *curateCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.schema {
		b, _, err := lookupBlock(c.block)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
		fmt.Print(curator.NewHierarchy(b.Main))
		return subcommands.ExitSuccess
	}
	if c.id == "" {
		fmt.Fprintln(os.Stderr, "Error: -id is required")
		return subcommands.ExitUsageError
	}
	b, fm, err := lookupBlock(c.block)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	args, err := parseEndpointArgs(f.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	raw, err := readEndpointTables(args, fm.Order())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	tk := curator.NewToolkit()
	tk.Report = reportDiscrepancies(c.id)
	e, err := b.Curate(tk, c.id, fm, raw, curator.CurateOptions{Descending: c.descending, NoRetry: c.noRetry})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	if c.json {
		if err := printEntity(e); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}
	printMarkdown(rowsMarkdown(b, c.id, e))
	return subcommands.ExitSuccess
}

// endpointArg is a local file holding the raw table of an endpoint.
type endpointArg struct {
	file string
	path string // JSONPath of the records, the whole document when empty
}

// parseEndpointArgs reads ENDPOINT=file.json[#jsonpath] arguments.
func parseEndpointArgs(args []string) (map[curator.Endpoint]endpointArg, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no endpoint file")
	}
	endpoints := make(map[curator.Endpoint]endpointArg, len(args))
	for _, arg := range args {
		name, file, ok := strings.Cut(arg, "=")
		if !ok || name == "" || file == "" {
			return nil, fmt.Errorf("invalid endpoint %q, want ENDPOINT=file.json", arg)
		}
		e := curator.Endpoint(name)
		if _, exists := endpoints[e]; exists {
			return nil, fmt.Errorf("endpoint %s given twice", name)
		}
		file, path, _ := strings.Cut(file, "#")
		endpoints[e] = endpointArg{file: file, path: path}
	}
	return endpoints, nil
}

// readEndpointTables parses endpoint files in order. Endpoints unknown to
// order are an error.
func readEndpointTables(args map[curator.Endpoint]endpointArg, order []curator.Endpoint) (curator.EndpointTables, error) {
	known := make(map[curator.Endpoint]bool, len(order))
	for _, e := range order {
		known[e] = true
	}
	for e := range args {
		if !known[e] {
			return nil, fmt.Errorf("unknown endpoint %s, want one of %v", e, order)
		}
	}

	var tables curator.EndpointTables
	for _, e := range order {
		arg, ok := args[e]
		if !ok {
			continue
		}
		data, err := os.ReadFile(arg.file)
		if err != nil {
			return nil, err
		}
		var t *curator.Table
		if arg.path == "" {
			t, err = curator.TableFromJSON(data)
		} else {
			t, err = curator.TableFromJSONPath(data, arg.path)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", arg.file, err)
		}
		tables = append(tables, curator.EndpointTable{Endpoint: e, Table: t})
	}
	return tables, nil
}
