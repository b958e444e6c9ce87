// Package ncbi fetches GenBank flat files from NCBI E-utilities so a record
// can be analysed by accession instead of by local file.
package ncbi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultBaseURL is the efetch endpoint.
const DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/efetch.fcgi"

const defaultAttempts = 3

// httpClient performs requests; tests may replace it with a mock transport.
var httpClient = &http.Client{Timeout: 20 * time.Second}

// ErrNotGenBank is returned when efetch answers 200 with something other than
// a flat file, which is how it reports unknown accessions.
var ErrNotGenBank = errors.New("ncbi: response is not a GenBank flat file")

// Client fetches records. The zero value is usable: it talks to
// DefaultBaseURL without a cache.
type Client struct {
	BaseURL     string
	APIKey      string
	Cache       *Cache
	Logger      *log.Logger
	MaxAttempts int
}

// StatusError reports a non-retryable HTTP status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ncbi efetch returned status %d: %s", e.Code, e.Body)
}

// FetchGenBank returns the GenBank flat file for accession. Cached entries
// are served without network access; 429 and 5xx answers are retried,
// honouring Retry-After.
func (c *Client) FetchGenBank(ctx context.Context, accession string) (string, error) {
	accession = strings.TrimSpace(accession)
	if accession == "" {
		return "", errors.New("ncbi: empty accession")
	}

	if c.Cache != nil {
		text, ok, err := c.Cache.Get(accession)
		if err != nil {
			c.debug("cache read failed", "accession", accession, "err", err)
		} else if ok {
			c.debug("cache hit", "accession", accession)
			return text, nil
		}
	}

	reqURL := c.requestURL(accession)
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = defaultAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		text, wait, err := c.fetchOnce(ctx, reqURL)
		if err == nil {
			if c.Cache != nil {
				if perr := c.Cache.Put(accession, text); perr != nil {
					c.debug("cache write failed", "accession", accession, "err", perr)
				}
			}
			return text, nil
		}
		if wait < 0 {
			return "", err
		}
		lastErr = err
		if attempt == attempts {
			break
		}
		c.debug("retrying efetch", "accession", accession, "attempt", attempt, "wait", wait, "err", err)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(wait):
		}
	}
	return "", fmt.Errorf("ncbi: fetch %s: %w", accession, lastErr)
}

func (c *Client) requestURL(accession string) string {
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	q := url.Values{}
	q.Set("db", "nuccore")
	q.Set("id", accession)
	q.Set("rettype", "gb")
	q.Set("retmode", "text")
	if c.APIKey != "" {
		q.Set("api_key", c.APIKey)
	}
	return base + "?" + q.Encode()
}

// fetchOnce performs one request. A negative wait marks the error as final.
func (c *Client) fetchOnce(ctx context.Context, reqURL string) (string, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", -1, err
	}
	req.Header.Set("User-Agent", "genex/1.0")
	resp, err := httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", -1, ctx.Err()
		}
		return "", 300 * time.Millisecond, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 300 * time.Millisecond, err
	}
	switch {
	case resp.StatusCode == http.StatusOK:
		text := string(body)
		if !strings.Contains(text, "LOCUS") {
			return "", -1, ErrNotGenBank
		}
		return text, 0, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return "", retryAfter(resp.Header.Get("Retry-After")), &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	default:
		return "", -1, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
}

func retryAfter(h string) time.Duration {
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
		return 0
	}
	return 500 * time.Millisecond
}

func (c *Client) debug(msg string, kv ...interface{}) {
	if c.Logger != nil {
		c.Logger.Debug(msg, kv...)
	}
}
