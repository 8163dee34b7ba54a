package eodhd

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/etnz/curator"
	"github.com/etnz/curator/block"
	"github.com/etnz/curator/date"
)

// DefaultBaseURL is the EODHD API root.
const DefaultBaseURL = "https://eodhd.com/api"

// Client fetches raw EODHD documents as endpoint tables.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// NewClient returns a client whose responses are cached on disk for the day.
func NewClient(token string) *Client {
	return &Client{BaseURL: DefaultBaseURL, Token: token, HTTP: NewCachingClient("", date.Daily)}
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	return jget(ctx, client, endpointURL(c.BaseURL, path, c.Token, query))
}

func between(r date.Range) url.Values {
	return url.Values{"from": {r.From.String()}, "to": {r.To.String()}}
}

// fetchEOD returns the daily prices of a ticker.
//
//	[{"date":"2024-02-13","open":675.066,"high":684.219,"low":648.659,
//	  "close":668.445,"adjusted_close":67.705,"volume":0}]
func (c *Client) fetchEOD(ctx context.Context, ticker string, r date.Range) (*curator.Table, error) {
	data, err := c.get(ctx, "/eod/"+url.PathEscape(ticker), between(r))
	if err != nil {
		return nil, err
	}
	return curator.TableFromJSON(data)
}

// fetchSplitAdjustedEOD returns the split adjusted daily prices of a ticker.
func (c *Client) fetchSplitAdjustedEOD(ctx context.Context, ticker string, r date.Range) (*curator.Table, error) {
	q := between(r)
	q.Set("function", "splitadjusted")
	data, err := c.get(ctx, "/technical/"+url.PathEscape(ticker), q)
	if err != nil {
		return nil, err
	}
	return curator.TableFromJSON(data)
}

// fetchDividends returns the dividend history of a ticker.
//
//	[{"date":"2024-02-09","declarationDate":"2024-02-01","recordDate":"2024-02-12",
//	  "paymentDate":"2024-02-15","value":0.24,"unadjustedValue":0.24,"currency":"USD"}]
func (c *Client) fetchDividends(ctx context.Context, ticker string, r date.Range) (*curator.Table, error) {
	data, err := c.get(ctx, "/div/"+url.PathEscape(ticker), between(r))
	if err != nil {
		return nil, err
	}
	return curator.TableFromJSON(data)
}

// fetchSplits returns the split history of a ticker.
//
//	[{"date":"2020-08-31","split":"4.000000/1.000000"}]
func (c *Client) fetchSplits(ctx context.Context, ticker string, r date.Range) (*curator.Table, error) {
	data, err := c.get(ctx, "/splits/"+url.PathEscape(ticker), between(r))
	if err != nil {
		return nil, err
	}
	return curator.TableFromJSON(data)
}

// statementPaths locates the quarterly statements in the fundamentals
// document, an object of filings keyed by period end date.
var statementPaths = []struct {
	endpoint curator.Endpoint
	path     string
}{
	{BalanceSheet, "$.Financials.Balance_Sheet.quarterly"},
	{CashFlow, "$.Financials.Cash_Flow.quarterly"},
	{IncomeStatement, "$.Financials.Income_Statement.quarterly"},
}

// fetchFundamentals returns one table per quarterly statement of a ticker.
// Filings without a filing date, or outside r, are dropped.
func (c *Client) fetchFundamentals(ctx context.Context, ticker string, r date.Range) (curator.EndpointTables, error) {
	data, err := c.get(ctx, "/fundamentals/"+url.PathEscape(ticker), nil)
	if err != nil {
		return nil, err
	}
	var tables curator.EndpointTables
	for _, s := range statementPaths {
		t, err := curator.TableFromJSONPath(data, s.path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.endpoint, err)
		}
		if t, err = filedWithin(t, r); err != nil {
			return nil, fmt.Errorf("%s: %w", s.endpoint, err)
		}
		tables = append(tables, curator.EndpointTable{Endpoint: s.endpoint, Table: t})
	}
	return tables, nil
}

// filedWithin keeps the filings whose filing date is within r.
func filedWithin(t *curator.Table, r date.Range) (*curator.Table, error) {
	filed, ok := t.Column("filing_date")
	if !ok {
		return t, nil
	}
	mask := make([]bool, t.Len())
	for i, v := range filed.All() {
		s, ok := v.(string)
		if !ok {
			continue
		}
		d, err := date.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("row %d: filing date: %w", i, err)
		}
		mask[i] = r.Contains(d)
	}
	return t.Filter(mask)
}

// EndpointTables fetches the raw endpoint tables of a data block for a
// ticker over r.
func (c *Client) EndpointTables(ctx context.Context, b *block.Block, ticker string, r date.Range) (curator.EndpointTables, error) {
	one := func(e curator.Endpoint, fetch func(context.Context, string, date.Range) (*curator.Table, error)) (curator.EndpointTable, error) {
		t, err := fetch(ctx, ticker, r)
		if err != nil {
			return curator.EndpointTable{}, fmt.Errorf("%s: %w", e, err)
		}
		return curator.EndpointTable{Endpoint: e, Table: t}, nil
	}

	switch b {
	case block.MarketDaily:
		eod, err := one(EndOfDay, c.fetchEOD)
		if err != nil {
			return nil, err
		}
		adjusted, err := one(SplitAdjustedEOD, c.fetchSplitAdjustedEOD)
		if err != nil {
			return nil, err
		}
		return curator.EndpointTables{eod, adjusted}, nil
	case block.Dividends:
		t, err := one(Dividends, c.fetchDividends)
		if err != nil {
			return nil, err
		}
		return curator.EndpointTables{t}, nil
	case block.Splits:
		t, err := one(Splits, c.fetchSplits)
		if err != nil {
			return nil, err
		}
		return curator.EndpointTables{t}, nil
	case block.Fundamentals:
		return c.fetchFundamentals(ctx, ticker, r)
	}
	return nil, fmt.Errorf("%w: eodhd does not provide %s", curator.ErrArgument, b.Name)
}
