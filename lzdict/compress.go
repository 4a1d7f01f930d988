package lzdict

import (
	"fmt"

	"github.com/NasoohOlabi/stego-side-wing/bitio"
)

// Method names on the wire.
const (
	MethodStandard   = "standard"
	MethodDictionary = "dictionary"
)

// Reference is one entry of the emitted token list. A dictionary
// reference carries the entry index in Doc; a literal run has Doc nil
// and Idx holding the payload position the run starts at. Lengths are
// in code points.
type Reference struct {
	Doc *int `json:"doc"`
	Idx int  `json:"idx"`
	Len int  `json:"len"`
}

// Result is the compression summary plus the packed bitstream.
type Result struct {
	Method           string      `json:"method"`
	Payload          string      `json:"payload"`
	Compressed       string      `json:"compressed"`
	CompressedLength int         `json:"compressedLength"`
	OriginalLength   int         `json:"originalLength"`
	Ratio            float64     `json:"ratio"`
	References       []Reference `json:"references"`

	buf      []byte
	nbits    int
	fellBack bool
}

// Consumer returns a bit consumer over the full bitstream, mode flag
// included. Downstream selectors pop their fields from it.
func (r *Result) Consumer() *bitio.Consumer {
	return bitio.NewConsumer(r.buf, r.nbits)
}

// FellBack reports whether dictionary mode lost to the uncompressed
// form and the standard encoding was emitted instead.
func (r *Result) FellBack() bool {
	return r.fellBack
}

// choice is the token selected at one payload position: a closed
// two-variant sum, not a polymorphic record.
type choice struct {
	isRef  bool
	length int
	entry  int
	offset int
}

// Compress encodes payload against the dictionary and returns whichever
// mode is strictly smaller: the dictionary token stream or the raw
// UTF-8 form. The leading mode flag routes the decoder.
func Compress(payload string, d *Dictionary, p Params) (*Result, error) {
	if payload == "" {
		return nil, ErrEmptyPayload
	}
	p = p.withDefaults()
	runes := []rune(payload)
	originalBits := 8 * bitio.ByteLength(runes)
	standardBits := 1 + originalBits

	var dictW *bitio.Writer
	var refs []Reference
	if d.Len() > 0 {
		var err error
		dictW, refs, err = compressDictionary(runes, d, p)
		if err != nil {
			return nil, err
		}
	}

	res := &Result{
		Payload:        payload,
		OriginalLength: originalBits,
		References:     []Reference{},
	}
	if dictW != nil && dictW.Len() < standardBits {
		res.Method = MethodDictionary
		res.References = refs
		res.Compressed = dictW.BitString()
		res.buf, res.nbits = dictW.Bytes()
	} else {
		res.Method = MethodStandard
		res.fellBack = true
		var w bitio.Writer
		w.WriteBit(0)
		w.WriteRunes(runes)
		res.Compressed = w.BitString()
		res.buf, res.nbits = w.Bytes()
	}
	res.CompressedLength = res.nbits
	res.Ratio = float64(res.CompressedLength) / float64(res.OriginalLength)
	tracer().Infof("compressed %d payload bits to %d (%s, %d tokens)",
		originalBits, res.CompressedLength, res.Method, len(res.References))
	return res, nil
}

// compressDictionary runs the optimal parse and emits the
// dictionary-mode bitstream.
func compressDictionary(payload []rune, d *Dictionary, p Params) (*bitio.Writer, []Reference, error) {
	n := len(payload)
	idx := buildMatchIndex(payload, d, p)

	// Prefix sums of UTF-8 byte lengths for O(1) literal costs.
	byteSum := make([]int, n+1)
	for i, r := range payload {
		byteSum[i+1] = byteSum[i] + bitio.RuneLength(r)
	}

	litWidth := bitio.Width(p.MaxLiteralLen)
	docWidth := bitio.Width(d.Len())
	lenWidth := bitio.Width(d.MaxEntryLen())
	entryWidth := make([]int, d.Len())
	for e := range entryWidth {
		entryWidth[e] = bitio.Width(d.EntryLen(e))
	}

	// dp[i] is the minimum bit cost of payload[i:]. Options are scanned
	// literals-first (length ascending), then references in index order;
	// only a strictly lower cost replaces the incumbent, so the
	// earliest-found option wins ties. The tie-break shapes the emitted
	// bits, which downstream selectors consume, so it is load-bearing.
	dp := make([]int, n+1)
	choices := make([]choice, n)
	for i := n - 1; i >= 0; i-- {
		maxL := p.MaxLiteralLen
		if rest := n - i; rest < maxL {
			maxL = rest
		}
		best := -1
		var pick choice
		for l := 1; l <= maxL; l++ {
			cost := 1 + litWidth + 8*(byteSum[i+l]-byteSum[i]) + dp[i+l]
			if best < 0 || cost < best {
				best = cost
				pick = choice{length: l}
			}
		}
		for _, cand := range idx.byPos[i] {
			cost := 1 + docWidth + entryWidth[cand.entry] + lenWidth + dp[i+cand.length]
			if cost < best {
				best = cost
				pick = choice{isRef: true, length: cand.length, entry: cand.entry, offset: cand.offset}
			}
		}
		dp[i] = best
		choices[i] = pick
	}

	var w bitio.Writer
	w.WriteBit(1)
	var refs []Reference
	for i := 0; i < n; {
		ch := choices[i]
		if ch.isRef {
			w.WriteBit(1)
			if err := w.WriteInt(ch.entry, d.Len()); err != nil {
				return nil, nil, err
			}
			if err := w.WriteInt(ch.offset, d.EntryLen(ch.entry)); err != nil {
				return nil, nil, err
			}
			if err := w.WriteInt(ch.length, d.MaxEntryLen()); err != nil {
				return nil, nil, err
			}
			entry := ch.entry
			refs = append(refs, Reference{Doc: &entry, Idx: ch.offset, Len: ch.length})
		} else {
			w.WriteBit(0)
			if err := w.WriteInt(ch.length, p.MaxLiteralLen); err != nil {
				return nil, nil, err
			}
			w.WriteRunes(payload[i : i+ch.length])
			refs = append(refs, Reference{Doc: nil, Idx: i, Len: ch.length})
		}
		i += ch.length
	}
	if w.Len() != 1+dp[0] {
		return nil, nil, fmt.Errorf("token emission produced %d bits, dp predicted %d", w.Len(), 1+dp[0])
	}
	return &w, refs, nil
}
