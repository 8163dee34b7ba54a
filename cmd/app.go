// Package cmd implements the dcs CLI application to curate financial data
// blocks.
package cmd

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/curator"
	"github.com/etnz/curator/block"
	"github.com/etnz/curator/docs"
	"github.com/etnz/curator/eodhd"
	"github.com/etnz/curator/renderer"
	"github.com/google/subcommands"
	"github.com/google/uuid"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&curateCmd{}, "curation")
	c.Register(&eodhdCmd{}, "providers")
	c.Register(&topicCmd{}, "help")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var rawOutput = flag.Bool("raw", false, "print markdown as is, without terminal rendering")

// SetRunID prefixes every log line with a fresh run identifier, so that
// concurrent runs can be told apart in shared logs.
func SetRunID() string {
	id := uuid.NewString()
	log.SetPrefix(id[:8] + " ")
	return id
}

// Complete runs shell completion when the shell asks for it, and exits.
func Complete(name string) {
	completion().Complete(name)
}

// completion predicts the subcommands, flags and arguments of dcs.
func completion() *complete.Command {
	blocks := predict.Set(block.Names())
	topics, _ := docs.GetAllTopics()
	periods := predict.Set{"daily", "weekly", "monthly", "quarterly", "yearly"}
	return &complete.Command{
		Flags: map[string]complete.Predictor{"raw": predict.Nothing},
		Sub: map[string]*complete.Command{
			"curate": {
				Flags: map[string]complete.Predictor{
					"block":      blocks,
					"id":         predict.Something,
					"json":       predict.Nothing,
					"no-retry":   predict.Nothing,
					"descending": predict.Nothing,
					"schema":     predict.Nothing,
				},
				Args: predict.Files("*.json"),
			},
			"eodhd": {
				Sub: map[string]*complete.Command{
					"fetch": {
						Flags: map[string]complete.Predictor{
							"block":         blocks,
							"from":          predict.Something,
							"to":            predict.Something,
							"json":          predict.Nothing,
							"eodhd-api-key": predict.Something,
							"concurrency":   predict.Something,
							"cache":         periods,
						},
					},
				},
			},
			"topic": {Args: predict.Set(topics)},
		},
	}
}

// printMarkdown renders markdown for the terminal.
func printMarkdown(md string) {
	if *rawOutput {
		fmt.Print(md)
		return
	}
	out, err := glamour.Render(md, "auto")
	if err != nil {
		log.Printf("cannot render markdown (printed raw): %v", err)
		out = md
	}
	fmt.Print(out)
}

// printEntity writes an entity as indented JSON.
func printEntity(e *curator.Entity) error {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Println(string(data))
	return err
}

// reportDiscrepancies prints discrepancy reports to stderr.
func reportDiscrepancies(identifier string) func(*curator.DataBlock, string) {
	return func(b *curator.DataBlock, report string) {
		d, err := renderer.ParseDiscrepancies(b.Name, identifier, report)
		if err != nil {
			log.Printf("%v\n%s", err, report)
			return
		}
		fmt.Fprint(os.Stderr, renderer.RenderDiscrepancies(d))
	}
}

// lookupBlock returns the data block and its EODHD field map.
func lookupBlock(name string) (*block.Block, *curator.FieldMap, error) {
	b, ok := block.ByName(name)
	if !ok {
		return nil, nil, fmt.Errorf("unknown block %q, want one of %s", name, strings.Join(block.Names(), ", "))
	}
	fm, ok := eodhd.FieldMap(b)
	if !ok {
		return nil, nil, fmt.Errorf("no field map for block %q", name)
	}
	return b, fm, nil
}

// rowsField returns the name of the rows field of a main entity.
func rowsField(b *block.Block) string {
	for _, f := range b.Main.Fields {
		if f.Kind == curator.KindEntityMap {
			return f.Name
		}
	}
	return "rows"
}

// rowsMarkdown renders the rows of a curated main entity.
func rowsMarkdown(b *block.Block, id string, e *curator.Entity) string {
	return renderer.RowsMarkdown(fmt.Sprintf("%s for %s", b.Name, id), e.Rows(rowsField(b)))
}
