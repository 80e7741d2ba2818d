// Package store retrieves signal records from a PostgREST-compatible tabular endpoint.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/umputun/signalscope/pkg/domain"
)

const (
	// DefaultTable is the resource queried when Params.Table is empty
	DefaultTable = "signals"
	// RowLimit caps the number of records requested in one fetch
	RowLimit = 100

	restPrefix     = "/rest/v1/"
	orderBy        = "created_utc.desc"
	maxExcerptSize = 256
)

// Params defines everything the client needs to talk to the remote store
type Params struct {
	URL        string        // base endpoint, e.g. https://xyz.supabase.co
	Key        string        // access credential, sent as apikey and bearer token
	Table      string        // resource name, defaults to DefaultTable
	Timeout    time.Duration // zero keeps the http client's default behaviour
	HTTPClient *http.Client  // optional, used as-is when set
}

// Client fetches signals with a single GET request. It never retries.
type Client struct {
	endpoint string
	key      string
	client   *http.Client
}

var errUnexpectedStatus = errors.New("unexpected response status")

// FetchError is returned for transport failures, non-2xx responses and undecodable bodies
type FetchError struct {
	StatusCode int    // zero if no response was received
	Excerpt    string // truncated response body
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("request failed: %v", e.Err)
	}
	return fmt.Sprintf("status %d: %v, body: %q", e.StatusCode, e.Err, e.Excerpt)
}

func (e *FetchError) Unwrap() error { return e.Err }

// New makes a store client. URL and Key are required.
func New(params Params) (*Client, error) {
	if params.URL == "" {
		return nil, fmt.Errorf("store url is required")
	}
	if params.Key == "" {
		return nil, fmt.Errorf("store key is required")
	}
	base, err := url.Parse(strings.TrimRight(params.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse store url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid store url: %s", params.URL)
	}

	table := params.Table
	if table == "" {
		table = DefaultTable
	}

	client := params.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: params.Timeout}
	}

	return &Client{endpoint: base.String() + restPrefix + url.PathEscape(table), key: params.Key, client: client}, nil
}

// Fetch retrieves the latest signals, newest first, preserving the order sent by the server
func (c *Client) Fetch(ctx context.Context) ([]domain.Signal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Accept", "application/json")

	log.Printf("[DEBUG] fetch signals from %s", c.endpoint)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{StatusCode: resp.StatusCode, Excerpt: excerpt(body), Err: errUnexpectedStatus}
	}

	var signals []domain.Signal
	if err := json.Unmarshal(body, &signals); err != nil {
		return nil, &FetchError{StatusCode: resp.StatusCode, Excerpt: excerpt(body), Err: fmt.Errorf("decode signals: %w", err)}
	}
	if signals == nil { // literal null body
		signals = []domain.Signal{}
	}

	log.Printf("[DEBUG] fetched %d signals", len(signals))
	return signals, nil
}

// requestURL builds the fixed query, select list keeps its commas unescaped as PostgREST expects
func (c *Client) requestURL() string {
	q := url.Values{}
	q.Set("order", orderBy)
	q.Set("limit", strconv.Itoa(RowLimit))
	return c.endpoint + "?select=" + strings.Join(domain.SignalFields, ",") + "&" + q.Encode()
}

func excerpt(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) <= maxExcerptSize {
		return s
	}
	cut := maxExcerptSize
	for cut > 0 && !utf8.RuneStart(s[cut]) { // don't split a multi-byte rune
		cut--
	}
	return s[:cut] + "..."
}
