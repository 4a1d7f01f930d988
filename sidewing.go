package sidewing

import (
	"context"
	"errors"

	"github.com/NasoohOlabi/stego-side-wing/finder"
	"github.com/NasoohOlabi/stego-side-wing/lzdict"
	"github.com/NasoohOlabi/stego-side-wing/thread"
)

// ErrEmptyPayload indicates a missing or empty payload; encoding aborts.
var ErrEmptyPayload = lzdict.ErrEmptyPayload

// ErrMissingCarrier indicates an input record without a post.
var ErrMissingCarrier = errors.New("carrier record has no post")

// QuoteFinder locates a needle inside an ordered list of documents.
// A nil best match means no acceptable occurrence was found.
type QuoteFinder interface {
	Find(ctx context.Context, needle string, haystack []string) (best *string, index int, score float64, err error)
}

// Config holds configuration for the encoder.
type Config struct {
	MaxLiteralLen int         // Maximum literal run length in code points (0 = default 250)
	MinMatch      int         // Minimum-savings threshold for back-references (0 = default 2)
	MaxCandidates int         // Per-position candidate cap in the match index (0 = default 64)
	TargetAngles  int         // Number of angles to select (0 = fill the pool)
	Finder        QuoteFinder // Optional external quote finder
}

// Option is a functional option for configuring the encoder.
type Option func(*Config)

// WithMaxLiteralLen bounds a single literal run.
func WithMaxLiteralLen(n int) Option {
	return func(c *Config) {
		c.MaxLiteralLen = n
	}
}

// WithMinMatch sets the minimum-savings threshold: only dictionary
// matches strictly longer than n become reference candidates.
func WithMinMatch(n int) Option {
	return func(c *Config) {
		c.MinMatch = n
	}
}

// WithMaxCandidates caps reference candidates per payload position.
func WithMaxCandidates(n int) Option {
	return func(c *Config) {
		c.MaxCandidates = n
	}
}

// WithTargetAngles sets how many angles the angle selector should pick.
// Zero selects the whole pool.
func WithTargetAngles(n int) Option {
	return func(c *Config) {
		c.TargetAngles = n
	}
}

// WithFinder attaches an external quote finder. Finder failures degrade
// to a nil snippet plus a warning; they never fail the encode.
func WithFinder(f QuoteFinder) Option {
	return func(c *Config) {
		c.Finder = f
	}
}

// Encoder embeds payloads into carrier records.
type Encoder struct {
	config Config
}

// NewEncoder creates a new encoder with the given options.
func NewEncoder(opts ...Option) *Encoder {
	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Encoder{config: cfg}
}

func (e *Encoder) params() lzdict.Params {
	p := lzdict.DefaultParams()
	if e.config.MaxLiteralLen > 0 {
		p.MaxLiteralLen = e.config.MaxLiteralLen
	}
	if e.config.MinMatch > 0 {
		p.MinMatch = e.config.MinMatch
	}
	if e.config.MaxCandidates > 0 {
		p.MaxCandidates = e.config.MaxCandidates
	}
	return p
}

// Encode runs the full pipeline: dictionary build, compression, comment
// selection on the full bitstream, angle selection on the leftover, and
// optional snippet attachment. The ordering is fixed; warnings
// accumulate on the output record instead of failing the encode.
func (e *Encoder) Encode(ctx context.Context, rec *thread.Record, payload string) (*Result, error) {
	if payload == "" {
		return nil, ErrEmptyPayload
	}
	if rec == nil || rec.Post == nil {
		return nil, ErrMissingCarrier
	}
	post := rec.Post
	flat := thread.Flatten(post.Comments)
	dict := lzdict.New(dictionaryTexts(post, flat))

	comp, err := lzdict.Compress(payload, dict, e.params())
	if err != nil {
		return nil, err
	}
	var warnings []string
	if comp.FellBack() {
		warnings = append(warnings, warnCompressionFallback)
	}

	consumer := comp.Consumer()
	commentEmb := selectComment(consumer, flat, post)
	if commentEmb.InsufficientBits {
		warnings = append(warnings, warnCommentBitsPadded)
	}
	angleEmb := selectAngles(consumer, rec.Angles, e.config.TargetAngles)
	if angleEmb.InsufficientBits {
		warnings = append(warnings, warnAngleBitsPadded)
	}
	if angleEmb.RemainingBits != "" {
		warnings = append(warnings, warnAngleTruncated)
	}

	if e.config.Finder != nil && len(angleEmb.SelectedAngles) > 0 {
		warnings = append(warnings, e.attachSnippet(ctx, angleEmb, post.SearchResults)...)
	}

	full := commentEmb.BitsUsed + angleEmb.BitsUsed
	if warnings == nil {
		warnings = []string{}
	}
	tracer().Infof("embedded %d bits into post %s (comment=%d angles=%d warnings=%d)",
		len(full), post.ID, commentEmb.SelectionIndex, len(angleEmb.SelectedAngles), len(warnings))
	return &Result{
		Compression:       comp,
		CommentEmbedding:  commentEmb,
		AngleEmbedding:    angleEmb,
		TotalBitsEmbedded: len(full),
		FullEncodedBits:   full,
		Warnings:          warnings,
	}, nil
}

// attachSnippet asks the finder for the first selected angle's source
// quote inside the search-result documents. Every failure mode maps to
// a warning; the snippet simply stays nil.
func (e *Encoder) attachSnippet(ctx context.Context, emb *AngleEmbedding, docs []string) []string {
	needle := emb.SelectedAngles[0].SourceQuote
	best, index, score, err := e.config.Finder.Find(ctx, needle, docs)
	switch {
	case errors.Is(err, finder.ErrLowScore):
		return []string{warnFinderLowScore}
	case errors.Is(err, finder.ErrBadResponse):
		return []string{warnFinderBadResponse}
	case err != nil:
		tracer().Errorf("quote finder failed: %v", err)
		return []string{warnFinderUnavailable}
	case best == nil || score < 0:
		return []string{warnFinderNoMatch}
	}
	emb.Snippet = best
	emb.SelectedAngles[0].SourceDocument = &index
	return nil
}
