package eodhd

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha1"
	"fmt"
	"io"
	"log"
	"math/big"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"path/filepath"

	"github.com/etnz/curator/date"
	"github.com/shopspring/decimal"
)

// diskCache implements a simple disk cache for HTTP responses.
type diskCache struct {
	base   http.RoundTripper
	dir    string      // os.TempDir() when empty
	period date.Period // zero is daily
}

// RoundTrip serves GET responses from disk while the current period lasts,
// and stores successful ones.
func (c *diskCache) RoundTrip(req *http.Request) (*http.Response, error) {
	key := c.key(req)
	if content, err := os.ReadFile(c.file(key)); err == nil {
		if resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(content)), req); err == nil {
			return resp, nil
		}
	}

	resp, err := c.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	log.Printf("%v %v%v %v", req.Method, req.URL.Host, req.URL.Path, resp.Status)
	if resp.StatusCode != http.StatusOK {
		return resp, nil
	}
	if err := c.put(key, resp); err != nil {
		log.Printf("eodhd cache: %v", err)
	}
	return resp, nil
}

// key names the cache entry of req for the current period.
func (c *diskCache) key(req *http.Request) string {
	period := date.NewRange(date.Today(), c.period).Identifier()
	sum := sha1.Sum([]byte(period + " " + req.Method + " " + req.URL.String()))
	return fmt.Sprintf("eodhd-%s-%x", c.period, sum)
}

func (c *diskCache) file(key string) string {
	dir := c.dir
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, key)
}

// put dumps resp into the entry key.
func (c *diskCache) put(key string, resp *http.Response) (err error) {
	content, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return err
	}
	return os.WriteFile(c.file(key), content, 0o644)
}

// NewCachingClient returns an http.Client that caches responses in dir, the
// temporary directory when empty. Entries expire with the period
// containing the request date.
func NewCachingClient(dir string, period date.Period) *http.Client {
	client := new(http.Client)
	client.Transport = &diskCache{base: http.DefaultTransport, dir: dir, period: period}
	return client
}

// jget performs an HTTP GET request to the given address and returns the JSON
// response body.
func jget(ctx context.Context, client *http.Client, addr string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cannot http GET %v%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// endpointURL returns the address of an API path, with the token and json
// format query parameters.
func endpointURL(base, path, token string, query url.Values) string {
	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	q.Set("api_token", token)
	q.Set("fmt", "json")
	return base + path + "?" + q.Encode()
}

// simplifyDecimalRatio returns num/den as an irreducible integer fraction.
func simplifyDecimalRatio(num, den decimal.Decimal) (int64, int64) {
	shift := max(-num.Exponent(), -den.Exponent(), 0)
	n, d := num.Shift(shift).BigInt(), den.Shift(shift).BigInt()
	if gcd := new(big.Int).GCD(nil, nil, n, d); gcd.Sign() > 0 {
		n.Quo(n, gcd)
		d.Quo(d, gcd)
	}
	return n.Int64(), d.Int64()
}
