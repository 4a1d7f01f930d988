// Package finder talks to the external quote-similarity service that
// locates an angle's source quote inside the search-result documents.
// The service is best-effort: every failure mode maps to a typed error
// the coordinator downgrades to a warning, and responses are cached so
// repeated encodes over the same carrier do not refetch.
package finder

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/npillmayer/schuko/tracing"
	"github.com/zeebo/blake3"
)

// tracer writes to trace with key 'sidewing.finder'
func tracer() tracing.Trace {
	return tracing.Select("sidewing.finder")
}

var (
	// ErrUnavailable indicates the service could not be reached or
	// answered with a non-2xx status.
	ErrUnavailable = errors.New("quote finder unavailable")
	// ErrBadResponse indicates a 2xx answer whose body did not parse.
	ErrBadResponse = errors.New("quote finder returned a malformed response")
	// ErrLowScore indicates a match below the configured threshold.
	ErrLowScore = errors.New("quote finder match below score threshold")
)

const (
	defaultTimeout   = 10 * time.Second
	defaultCacheSize = 512
)

type request struct {
	Needle   string   `json:"needle"`
	Haystack []string `json:"haystack"`
}

type response struct {
	BestMatch *string `json:"best_match"`
	Index     int     `json:"index"`
	Score     float64 `json:"score"`
}

// Config holds configuration for the finder client.
type Config struct {
	Timeout   time.Duration // Per-request deadline (0 = default 10s)
	MinScore  float64       // Matches scoring below this are rejected (0 = accept any score >= 0)
	CacheSize int           // LRU entries (0 = default 512)
	Client    *http.Client  // Underlying HTTP client (nil = shared default)
}

// Option is a functional option for configuring the client.
type Option func(*Config)

// WithTimeout sets the per-request deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithMinScore rejects matches scoring below the threshold.
func WithMinScore(s float64) Option {
	return func(c *Config) {
		c.MinScore = s
	}
}

// WithCacheSize sets the LRU response cache capacity.
func WithCacheSize(n int) Option {
	return func(c *Config) {
		c.CacheSize = n
	}
}

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Config) {
		c.Client = hc
	}
}

// Client queries the finder endpoint.
type Client struct {
	endpoint string
	config   Config
	cache    *lru.Cache[[32]byte, response]
}

// New creates a client for the given endpoint URL.
func New(endpoint string, opts ...Option) *Client {
	cfg := Config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = defaultCacheSize
	}
	if cfg.Client == nil {
		cfg.Client = http.DefaultClient
	}
	cache, _ := lru.New[[32]byte, response](cfg.CacheSize)
	return &Client{endpoint: endpoint, config: cfg, cache: cache}
}

// cacheKey hashes needle and haystack with length framing so that
// concatenation ambiguity cannot alias two different queries.
func cacheKey(needle string, haystack []string) [32]byte {
	h := blake3.New()
	var frame [8]byte
	write := func(s string) {
		binary.LittleEndian.PutUint64(frame[:], uint64(len(s)))
		h.Write(frame[:])
		h.Write([]byte(s))
	}
	write(needle)
	for _, doc := range haystack {
		write(doc)
	}
	var key [32]byte
	copy(key[:], h.Sum(nil))
	return key
}

// Find posts {needle, haystack} and returns the best match, its
// document index and its score. A nil best match with a nil error means
// the service answered but found nothing acceptable.
func (c *Client) Find(ctx context.Context, needle string, haystack []string) (*string, int, float64, error) {
	key := cacheKey(needle, haystack)
	if resp, ok := c.cache.Get(key); ok {
		tracer().Debugf("finder cache hit for needle of %d chars", len(needle))
		return c.accept(resp)
	}

	body, err := json.Marshal(request{Needle: needle, Haystack: haystack})
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.config.Client.Do(req)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, 0, 0, fmt.Errorf("%w: status %d", ErrUnavailable, httpResp.StatusCode)
	}

	var resp response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	c.cache.Add(key, resp)
	return c.accept(resp)
}

func (c *Client) accept(resp response) (*string, int, float64, error) {
	if resp.BestMatch == nil || resp.Score < 0 {
		return nil, resp.Index, resp.Score, nil
	}
	if c.config.MinScore > 0 && resp.Score < c.config.MinScore {
		return nil, resp.Index, resp.Score, fmt.Errorf("%w: %.3f < %.3f", ErrLowScore, resp.Score, c.config.MinScore)
	}
	best := *resp.BestMatch
	return &best, resp.Index, resp.Score, nil
}
