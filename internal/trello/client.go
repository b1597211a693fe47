// Package trello is the outbound boundary to the Trello REST API.
//
// Only the two operations the sync engine needs are implemented: listing the
// cards of a list and creating a card. Anything non-2xx is a hard failure.
package trello

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const DefaultBaseURL = "https://api.trello.com"

// Credentials are opaque to this package; they are attached as query
// parameters to every request.
type Credentials struct {
	APIKey string
	Token  string
}

// RemoteCard is an existing card as reported by the tracker. Only the name
// participates in deduplication; everything else Trello returns is ignored.
type RemoteCard struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Config tunes the client. Zero values get defaults.
type Config struct {
	BaseURL    string
	Timeout    time.Duration // per request; default 60s
	RatePerSec int           // outbound request cap; default 8
}

type Client struct {
	base  string
	creds Credentials
	http  *http.Client
	lim   *rate.Limiter
}

func NewClient(creds Credentials, cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 8
	}
	return &Client{
		base:  base,
		creds: creds,
		http:  &http.Client{Timeout: timeout},
		lim:   rate.NewLimiter(rate.Limit(rps), rps),
	}
}

// StatusError is a non-2xx response from the tracker.
type StatusError struct {
	Op     string // "list cards" | "create card"
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("trello: %s: status %d", e.Op, e.Status)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// ListCards fetches all cards currently in a list.
func (c *Client) ListCards(ctx context.Context, listID string) ([]RemoteCard, error) {
	u := fmt.Sprintf("%s/1/lists/%s/cards?%s", c.base, url.PathEscape(listID), c.query(nil).Encode())

	body, err := c.do(ctx, http.MethodGet, u, "list cards")
	if err != nil {
		return nil, err
	}

	var cards []RemoteCard
	if err := json.Unmarshal(body, &cards); err != nil {
		return nil, fmt.Errorf("trello: list cards: decode: %w", err)
	}
	return cards, nil
}

// CreateCard creates a card in a list. due, when non-nil, is transmitted as
// UTC RFC 3339 (Trello accepts ISO-8601).
func (c *Client) CreateCard(ctx context.Context, listID, name string, due *time.Time) error {
	q := url.Values{"idList": {listID}, "name": {name}}
	if due != nil {
		q.Set("due", due.UTC().Format(time.RFC3339))
	}
	u := fmt.Sprintf("%s/1/cards?%s", c.base, c.query(q).Encode())

	_, err := c.do(ctx, http.MethodPost, u, "create card")
	return err
}

func (c *Client) query(q url.Values) url.Values {
	if q == nil {
		q = url.Values{}
	}
	q.Set("key", c.creds.APIKey)
	q.Set("token", c.creds.Token)
	return q
}

func (c *Client) do(ctx context.Context, method, u, op string) ([]byte, error) {
	if err := c.lim.Wait(ctx); err != nil {
		return nil, fmt.Errorf("trello: %s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("trello: %s: %w", op, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Timeouts land here and are the same failure class as a bad status.
		return nil, fmt.Errorf("trello: %s: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("trello: %s: read body: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}
