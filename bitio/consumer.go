package bitio

import (
	"fmt"
)

// Consumer pops fixed-width fields from a packed bitstream. Running out
// of bits is not an error: the field is right-padded with zeros and a
// sticky insufficient flag is set, which callers surface as a warning.
type Consumer struct {
	buf   []byte
	nbits int
	pos   int
	short bool
}

// NewConsumer wraps a packed buffer holding nbits valid bits.
func NewConsumer(buf []byte, nbits int) *Consumer {
	return &Consumer{buf: buf, nbits: nbits}
}

// NewConsumerFromBitString wraps an ASCII '0'/'1' wire string.
func NewConsumerFromBitString(s string) (*Consumer, error) {
	buf, nbits, err := ParseBitString(s)
	if err != nil {
		return nil, err
	}
	return NewConsumer(buf, nbits), nil
}

func (c *Consumer) bitAt(i int) byte {
	if c.buf[i/8]&(1<<(7-i%8)) != 0 {
		return 1
	}
	return 0
}

// Take pops k bits and returns them as a '0'/'1' string of exactly k
// characters. When fewer than k bits remain, the available bits are
// right-padded with zeros, the stream is exhausted, and the
// insufficient flag is set.
func (c *Consumer) Take(k int) string {
	if k <= 0 {
		return ""
	}
	out := make([]byte, k)
	for i := 0; i < k; i++ {
		if c.pos < c.nbits {
			out[i] = '0' + c.bitAt(c.pos)
			c.pos++
		} else {
			out[i] = '0'
			c.short = true
		}
	}
	return string(out)
}

// TakeUint pops k bits and returns both the unsigned big-endian value
// and the field string. k wider than 64 is an implementation bug in the
// caller and reported as an error.
func (c *Consumer) TakeUint(k int) (uint64, string, error) {
	if k > 64 {
		return 0, "", fmt.Errorf("%w: %d", ErrFieldTooWide, k)
	}
	field := c.Take(k)
	var v uint64
	for i := 0; i < len(field); i++ {
		v <<= 1
		if field[i] == '1' {
			v |= 1
		}
	}
	return v, field, nil
}

// ReadBit pops a single bit, returning false once the stream is exhausted.
func (c *Consumer) ReadBit() (byte, bool) {
	if c.pos >= c.nbits {
		c.short = true
		return 0, false
	}
	b := c.bitAt(c.pos)
	c.pos++
	return b, true
}

// Remaining returns the count of bits not yet consumed.
func (c *Consumer) Remaining() int {
	if c.pos >= c.nbits {
		return 0
	}
	return c.nbits - c.pos
}

// RemainingBits renders the unconsumed tail as a '0'/'1' string.
func (c *Consumer) RemainingBits() string {
	if c.pos >= c.nbits {
		return ""
	}
	out := make([]byte, c.nbits-c.pos)
	for i := c.pos; i < c.nbits; i++ {
		out[i-c.pos] = '0' + c.bitAt(i)
	}
	return string(out)
}

// Insufficient reports whether any Take has padded past the end or any
// ReadBit has found the stream exhausted.
func (c *Consumer) Insufficient() bool {
	return c.short
}
