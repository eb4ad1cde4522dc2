// Package history fetches the upstream list of past readings.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/ttracx/deepboreai/internal/models"
)

// maxBodySize bounds a single history response.
const maxBodySize = 16 << 20

// StatusError reports a non-2xx answer from the history endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("history endpoint returned %d", e.StatusCode)
	}
	return fmt.Sprintf("history endpoint returned %d: %s", e.StatusCode, e.Body)
}

// Result is one completed fetch, tagged with the token it was issued under.
type Result struct {
	Token   uint64
	Entries []models.HistoryEntry
}

// Fetcher issues GET requests against a fixed history URL.
type Fetcher struct {
	url     string
	client  *http.Client
	timeout time.Duration
	seq     *Sequencer
}

// NewFetcher creates a fetcher. A zero timeout disables the per-request
// deadline; client may be nil.
func NewFetcher(url string, client *http.Client, timeout time.Duration) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{
		url:     url,
		client:  client,
		timeout: timeout,
		seq:     &Sequencer{},
	}
}

// URL returns the history endpoint.
func (f *Fetcher) URL() string {
	return f.url
}

// Sequencer exposes the token source.
func (f *Fetcher) Sequencer() *Sequencer {
	return f.seq
}

// Fetch takes the next token and retrieves the full history list. The token
// is returned even on error so the caller can order failures too.
func (f *Fetcher) Fetch(ctx context.Context) (Result, error) {
	token := f.seq.Next()

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return Result{Token: token}, fmt.Errorf("building history request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return Result{Token: token}, fmt.Errorf("fetching history: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return Result{Token: token}, fmt.Errorf("reading history body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(body)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return Result{Token: token}, &StatusError{StatusCode: resp.StatusCode, Body: snippet}
	}

	var entries []models.HistoryEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return Result{Token: token}, fmt.Errorf("decoding history: %w", err)
	}
	if entries == nil {
		entries = []models.HistoryEntry{}
	}

	return Result{Token: token, Entries: entries}, nil
}

// Sequencer hands out monotonically increasing request tokens. Consumers
// compare tokens to drop responses that were overtaken by a newer request.
type Sequencer struct {
	issued atomic.Uint64
}

// Next returns a fresh token, strictly greater than every earlier one.
func (s *Sequencer) Next() uint64 {
	return s.issued.Add(1)
}

// Last returns the most recently issued token, 0 if none.
func (s *Sequencer) Last() uint64 {
	return s.issued.Load()
}
