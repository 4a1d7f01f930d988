package lzdict

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/NasoohOlabi/stego-side-wing/bitio"
)

// Decode is the receiver side: it routes on the leading mode flag and
// reconstructs the exact payload. Only declared field widths are read;
// the stream needs no lookahead and no terminator.
func Decode(buf []byte, nbits int, d *Dictionary, p Params) (string, error) {
	p = p.withDefaults()
	c := bitio.NewConsumer(buf, nbits)
	mode, ok := c.ReadBit()
	if !ok {
		return "", fmt.Errorf("%w: missing mode flag", ErrCorruptBitstream)
	}
	if mode == 0 {
		return decodeStandard(c)
	}
	return decodeDictionary(c, d, p)
}

// DecodeBitString decodes the ASCII '0'/'1' wire form.
func DecodeBitString(s string, d *Dictionary, p Params) (string, error) {
	buf, nbits, err := bitio.ParseBitString(s)
	if err != nil {
		return "", err
	}
	return Decode(buf, nbits, d, p)
}

func decodeStandard(c *bitio.Consumer) (string, error) {
	if c.Remaining()%8 != 0 {
		return "", fmt.Errorf("%w: standard mode carries %d bits, not a byte multiple", ErrCorruptBitstream, c.Remaining())
	}
	out := make([]byte, 0, c.Remaining()/8)
	for c.Remaining() > 0 {
		v, _, err := c.TakeUint(8)
		if err != nil {
			return "", err
		}
		out = append(out, byte(v))
	}
	return string(out), nil
}

func decodeDictionary(c *bitio.Consumer, d *Dictionary, p Params) (string, error) {
	litWidth := bitio.Width(p.MaxLiteralLen)
	docWidth := bitio.Width(d.Len())
	lenWidth := bitio.Width(d.MaxEntryLen())

	var sb strings.Builder
	for c.Remaining() > 0 {
		kind, ok := c.ReadBit()
		if !ok {
			break
		}
		if kind == 0 {
			length, _, err := c.TakeUint(litWidth)
			if err != nil {
				return "", err
			}
			if length == 0 {
				return "", fmt.Errorf("%w: zero-length literal", ErrCorruptBitstream)
			}
			for j := uint64(0); j < length; j++ {
				if err := decodeLiteralRune(c, &sb); err != nil {
					return "", err
				}
			}
			continue
		}
		if d.Len() == 0 {
			return "", fmt.Errorf("%w: reference token with empty dictionary", ErrCorruptBitstream)
		}
		doc, _, err := c.TakeUint(docWidth)
		if err != nil {
			return "", err
		}
		if int(doc) >= d.Len() {
			return "", fmt.Errorf("%w: entry index %d out of range", ErrCorruptBitstream, doc)
		}
		offset, _, err := c.TakeUint(bitio.Width(d.EntryLen(int(doc))))
		if err != nil {
			return "", err
		}
		length, _, err := c.TakeUint(lenWidth)
		if err != nil {
			return "", err
		}
		if c.Insufficient() {
			return "", fmt.Errorf("%w: truncated reference token", ErrCorruptBitstream)
		}
		entry := d.Entry(int(doc))
		if length == 0 || int(offset)+int(length) > len(entry) {
			return "", fmt.Errorf("%w: reference (%d,%d,%d) outside entry", ErrCorruptBitstream, doc, offset, length)
		}
		sb.WriteString(string(entry[offset : offset+length]))
	}
	if c.Insufficient() {
		return "", fmt.Errorf("%w: stream ended inside a token", ErrCorruptBitstream)
	}
	return sb.String(), nil
}

// decodeLiteralRune reads one UTF-8 sequence, 8 bits per byte. The
// leading byte declares the sequence length, so no lookahead is needed.
func decodeLiteralRune(c *bitio.Consumer, sb *strings.Builder) error {
	b0, _, err := c.TakeUint(8)
	if err != nil {
		return err
	}
	seqLen := utf8SeqLen(byte(b0))
	if seqLen == 0 {
		return fmt.Errorf("%w: invalid UTF-8 lead byte %#02x", ErrCorruptBitstream, b0)
	}
	seq := make([]byte, seqLen)
	seq[0] = byte(b0)
	for k := 1; k < seqLen; k++ {
		bk, _, err := c.TakeUint(8)
		if err != nil {
			return err
		}
		seq[k] = byte(bk)
	}
	if c.Insufficient() {
		return fmt.Errorf("%w: truncated literal", ErrCorruptBitstream)
	}
	r, size := utf8.DecodeRune(seq)
	if r == utf8.RuneError && size != len(seq) {
		return fmt.Errorf("%w: malformed UTF-8 sequence", ErrCorruptBitstream)
	}
	sb.Write(seq)
	return nil
}

func utf8SeqLen(b byte) int {
	switch {
	case b < 0x80:
		return 1
	case b&0xE0 == 0xC0:
		return 2
	case b&0xF0 == 0xE0:
		return 3
	case b&0xF8 == 0xF0:
		return 4
	}
	return 0
}
