// Package eodhd curates data blocks from the EODHD financial data API.
package eodhd

import (
	"context"
	"fmt"
	"log"

	"github.com/etnz/curator"
	"github.com/etnz/curator/block"
	"github.com/etnz/curator/date"
	"golang.org/x/sync/errgroup"
)

// Provider fetches and curates data blocks from EODHD.
type Provider struct {
	Client  *Client
	Toolkit *curator.Toolkit
	// Concurrency bounds the identifiers fetched at once, 4 when zero.
	Concurrency int
}

// NewProvider returns a provider using a daily cached client.
func NewProvider(token string) *Provider {
	return &Provider{Client: NewClient(token), Toolkit: curator.NewToolkit()}
}

// Curate fetches the endpoints of a data block for one ticker and returns
// its curated main entity.
func (p *Provider) Curate(ctx context.Context, b *block.Block, ticker string, r date.Range) (*curator.Entity, error) {
	fm, ok := FieldMap(b)
	if !ok {
		return nil, fmt.Errorf("%w: eodhd does not provide %s", curator.ErrArgument, b.Name)
	}
	raw, err := p.Client.EndpointTables(ctx, b, ticker, r)
	if err != nil {
		return nil, fmt.Errorf("%s for %s: %w", b.Name, ticker, err)
	}
	return b.Curate(p.Toolkit, ticker, fm, raw, curator.CurateOptions{})
}

// MarketData curates the daily prices of ticker.
func (p *Provider) MarketData(ctx context.Context, ticker string, r date.Range) (*curator.Entity, error) {
	return p.Curate(ctx, block.MarketDaily, ticker, r)
}

// Fundamentals curates the quarterly statements of ticker filed within r.
func (p *Provider) Fundamentals(ctx context.Context, ticker string, r date.Range) (*curator.Entity, error) {
	return p.Curate(ctx, block.Fundamentals, ticker, r)
}

// Dividends curates the dividends of ticker.
func (p *Provider) Dividends(ctx context.Context, ticker string, r date.Range) (*curator.Entity, error) {
	return p.Curate(ctx, block.Dividends, ticker, r)
}

// Splits curates the splits of ticker.
func (p *Provider) Splits(ctx context.Context, ticker string, r date.Range) (*curator.Entity, error) {
	return p.Curate(ctx, block.Splits, ticker, r)
}

// Result is the outcome of curating one identifier.
type Result struct {
	Identifier string
	Entity     *curator.Entity
	Err        error
}

// FetchAll curates a data block for every ticker concurrently. A failing
// identifier is reported in its Result and does not stop the others. The
// returned error is only the cancellation of ctx.
func (p *Provider) FetchAll(ctx context.Context, b *block.Block, tickers []string, r date.Range) ([]Result, error) {
	results := make([]Result, len(tickers))
	g, ctx := errgroup.WithContext(ctx)
	limit := p.Concurrency
	if limit <= 0 {
		limit = 4
	}
	g.SetLimit(limit)
	for i, ticker := range tickers {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			e, err := p.Curate(ctx, b, ticker, r)
			if err != nil {
				log.Printf("skipping %s: %v", ticker, err)
			}
			results[i] = Result{Identifier: ticker, Entity: e, Err: err}
			return nil
		})
	}
	return results, g.Wait()
}
