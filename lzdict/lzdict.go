// Package lzdict implements the dictionary compressor at the center of
// the encoder pipeline. A dictionary of ambient carrier texts serves as
// the back-reference corpus; the compressor picks the minimum-bit token
// sequence (literal runs and dictionary references) by dynamic
// programming and emits a mode-flagged bitstream that the receiver can
// decode back to the exact payload.
//
// Offsets and lengths are in code points; costs and emitted literal
// bytes are UTF-8. Field widths derive from bitio.Width and are part of
// the protocol.
package lzdict

import (
	"errors"

	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'sidewing.lzdict'
func tracer() tracing.Trace {
	return tracing.Select("sidewing.lzdict")
}

var (
	// ErrEmptyPayload indicates a missing or empty payload.
	ErrEmptyPayload = errors.New("payload is empty")
	// ErrCorruptBitstream indicates a bitstream that ends inside a token
	// or references positions outside the dictionary.
	ErrCorruptBitstream = errors.New("corrupt bitstream")
)

const (
	// DefaultMaxLiteralLen bounds a single literal run, in code points.
	DefaultMaxLiteralLen = 250
	// DefaultMinMatch is the minimum-savings threshold: only extensions
	// strictly longer than this become reference candidates. Encoder-side
	// policy only; the decoder never sees it.
	DefaultMinMatch = 2
	// DefaultMaxCandidates caps reference candidates per payload
	// position, bounding match-index memory on degenerate inputs.
	DefaultMaxCandidates = 64
)

// Params holds the compressor knobs.
type Params struct {
	MaxLiteralLen int
	MinMatch      int
	MaxCandidates int
}

// DefaultParams returns the standard knob values.
func DefaultParams() Params {
	return Params{
		MaxLiteralLen: DefaultMaxLiteralLen,
		MinMatch:      DefaultMinMatch,
		MaxCandidates: DefaultMaxCandidates,
	}
}

func (p Params) withDefaults() Params {
	if p.MaxLiteralLen <= 0 {
		p.MaxLiteralLen = DefaultMaxLiteralLen
	}
	if p.MinMatch <= 0 {
		p.MinMatch = DefaultMinMatch
	}
	if p.MaxCandidates <= 0 {
		p.MaxCandidates = DefaultMaxCandidates
	}
	return p
}

// Dictionary is the ordered back-reference corpus. Its composition and
// order are a pure function of the carrier; the receiver rebuilds the
// identical dictionary from the same carrier.
type Dictionary struct {
	entries [][]rune
	maxLen  int
}

// New builds a dictionary from ordered texts, dropping empty entries
// and preserving the order of the survivors.
func New(texts []string) *Dictionary {
	d := &Dictionary{}
	for _, t := range texts {
		if t == "" {
			continue
		}
		entry := []rune(t)
		d.entries = append(d.entries, entry)
		if len(entry) > d.maxLen {
			d.maxLen = len(entry)
		}
	}
	return d
}

// Len returns the number of entries.
func (d *Dictionary) Len() int {
	return len(d.entries)
}

// Entry returns entry i as code points.
func (d *Dictionary) Entry(i int) []rune {
	return d.entries[i]
}

// EntryLen returns the length of entry i in code points.
func (d *Dictionary) EntryLen(i int) int {
	return len(d.entries[i])
}

// MaxEntryLen returns the longest entry length in code points. It is
// the bound for reference length fields.
func (d *Dictionary) MaxEntryLen() int {
	return d.maxLen
}
