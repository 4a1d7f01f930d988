// Package thread models the discussion-thread carrier: a post with
// attached search-result documents, a nested comment forest, and
// per-document editorial angles. It normalizes the two input shapes the
// upstream pipeline produces and provides the canonical depth-first
// flattening both protocol sides depend on.
package thread

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'sidewing.thread'
func tracer() tracing.Trace {
	return tracing.Select("sidewing.thread")
}

// ErrMissingPost indicates an input record without a post under either
// accepted top-level key.
var ErrMissingPost = errors.New("input record carries no post")

// Comment is one node of the reply forest.
type Comment struct {
	ID        string     `json:"id"`
	ParentID  string     `json:"parent_id"`
	LinkID    string     `json:"link_id"`
	Author    string     `json:"author"`
	Body      string     `json:"body"`
	Permalink string     `json:"permalink"`
	Replies   []*Comment `json:"replies"`
}

// Post is the normalized carrier record.
type Post struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Author        string     `json:"author"`
	Selftext      string     `json:"selftext"`
	Subreddit     string     `json:"subreddit"`
	URL           string     `json:"url"`
	Permalink     string     `json:"permalink"`
	SearchResults []string   `json:"search_results"`
	Comments      []*Comment `json:"comments"`
}

// Angle is an editorial pointer into one of the search-result documents.
type Angle struct {
	SourceQuote    string `json:"source_quote"`
	Tangent        string `json:"tangent"`
	Category       string `json:"category"`
	SourceDocument *int   `json:"source_document,omitempty"`
}

// Equal reports angle identity: source quote, tangent and category all
// match. The source-document index is attachment metadata, not identity.
func (a Angle) Equal(b Angle) bool {
	return a.SourceQuote == b.SourceQuote &&
		a.Tangent == b.Tangent &&
		a.Category == b.Category
}

// Record is a normalized input record: the post plus one angle list per
// search-result document.
type Record struct {
	Post   *Post
	Angles [][]Angle
}

// Scrubbed placeholder bodies left behind by the upstream dataset
// cleaner. They carry no text and would skew the dictionary, so both
// protocol sides drop them identically.
var scrubbedValues = map[string]struct{}{
	"[removed]": {},
	"[deleted]": {},
	"[null]":    {},
	"[empty]":   {},
}

// CleanText maps scrubbed placeholder values to the empty string and
// returns everything else unchanged.
func CleanText(s string) string {
	if _, scrubbed := scrubbedValues[s]; scrubbed {
		return ""
	}
	return s
}

type rawRecord struct {
	Post   json.RawMessage `json:"post"`
	Data   json.RawMessage `json:"data"`
	Angles [][]Angle       `json:"angles"`
}

// DecodeRecord parses an input record, accepting both the canonical
// {post: {...}, angles: [...]} shape and the {data: {...}, angles: [...]}
// wrapper some pipeline stages emit. The post's text fields are cleaned
// of scrubbed placeholders before use.
func DecodeRecord(data []byte) (*Record, error) {
	var raw rawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding input record: %w", err)
	}
	body := raw.Post
	if body == nil {
		body = raw.Data
	}
	if body == nil {
		return nil, ErrMissingPost
	}
	var post Post
	if err := json.Unmarshal(body, &post); err != nil {
		return nil, fmt.Errorf("decoding post: %w", err)
	}
	sanitizePost(&post)
	tracer().Debugf("decoded record post=%s comments=%d docs=%d angle groups=%d",
		post.ID, len(post.Comments), len(post.SearchResults), len(raw.Angles))
	return &Record{Post: &post, Angles: raw.Angles}, nil
}

func sanitizePost(p *Post) {
	p.Selftext = CleanText(p.Selftext)
	seen := make(map[*Comment]struct{})
	var walk func(cs []*Comment)
	walk = func(cs []*Comment) {
		for _, c := range cs {
			if c == nil {
				continue
			}
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			c.Body = CleanText(c.Body)
			walk(c.Replies)
		}
	}
	walk(p.Comments)
}

// DecodePayload extracts the secret text from its input form: a bare
// string, a JSON-encoded string, or one level of {payload: "..."}.
func DecodePayload(data []byte) string {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		var wrapped struct {
			Payload string `json:"payload"`
		}
		if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Payload != "" {
			return wrapped.Payload
		}
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err == nil {
			return s
		}
	}
	return string(data)
}
