// Package flickr is a small client for the public Flickr photo feed.
package flickr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultEndpoint is the public photo feed.
const DefaultEndpoint = "https://api.flickr.com/services/feeds/photos_public.gne"

const (
	maxBody    = 4 << 20
	tracerName = "github.com/enetx/timedfsm/internal/flickr"
)

// Item is a single photo of the feed.
type Item struct {
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Media     Media     `json:"media"`
	Author    string    `json:"author"`
	Tags      string    `json:"tags"`
	Published time.Time `json:"published"`
}

// Media holds the image URLs of an Item.
type Media struct {
	M string `json:"m"`
}

type feed struct {
	Items []Item `json:"items"`
}

// StatusError is returned when the feed answers with a non-200 status.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("flickr: unexpected status %d %s", e.Code, http.StatusText(e.Code))
}

// Client queries the feed.
type Client struct {
	http     *http.Client
	endpoint string
	tracer   trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithEndpoint replaces the feed URL.
func WithEndpoint(endpoint string) Option {
	return func(cl *Client) { cl.endpoint = endpoint }
}

// WithTracerProvider sets where search spans go. The default is the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(cl *Client) { cl.tracer = tp.Tracer(tracerName) }
}

// New returns a Client for DefaultEndpoint.
func New(opts ...Option) *Client {
	c := &Client{
		http:     &http.Client{Timeout: 30 * time.Second},
		endpoint: DefaultEndpoint,
		tracer:   otel.Tracer(tracerName),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Search returns the photos tagged with tags. Cancelling ctx aborts the request.
func (c *Client) Search(ctx context.Context, tags string) (items []Item, err error) {
	ctx, span := c.tracer.Start(ctx, "flickr.Search", trace.WithAttributes(attribute.String("flickr.tags", tags)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.Int("flickr.items", len(items)))
			span.SetStatus(codes.Ok, "ok")
		}

		span.End()
	}()

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("flickr: invalid endpoint: %w", err)
	}

	q := u.Query()
	q.Set("lang", "en-us")
	q.Set("format", "json")
	q.Set("nojsoncallback", "1")
	q.Set("tags", strings.Join(strings.Fields(tags), ","))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, err
	}

	return decode(body)
}

// decode parses a feed document. The feed escapes single quotes as \', which
// is not valid JSON.
func decode(body []byte) ([]Item, error) {
	body = unescapeQuotes(body)

	var f feed
	if err := json.Unmarshal(body, &f); err != nil {
		return nil, fmt.Errorf("flickr: decoding feed: %w", err)
	}

	return f.Items, nil
}

// unescapeQuotes rewrites \' as ' when the quote ends an odd run of
// backslashes. In an even run the last backslash is itself escaped.
func unescapeQuotes(body []byte) []byte {
	if !bytes.Contains(body, []byte(`\'`)) {
		return body
	}

	out := make([]byte, 0, len(body))
	run := 0

	for _, c := range body {
		switch {
		case c == '\\':
			run++
		case c == '\'' && run%2 == 1:
			out = out[:len(out)-1]
			run = 0
		default:
			run = 0
		}

		out = append(out, c)
	}

	return out
}
