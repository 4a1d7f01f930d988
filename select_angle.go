package sidewing

import (
	"strings"

	"github.com/NasoohOlabi/stego-side-wing/bitio"
	"github.com/NasoohOlabi/stego-side-wing/thread"
)

// selectAngles pops an ordered subset out of the pooled angle list.
// The pool is the document-major flattening of the per-document groups.
// Each step consumes ceil(log2(pool size)) bits — zero bits once a
// single angle remains — reduces the value modulo the pool size, and
// removes the picked angle. Selection stops at the target count (zero
// targets the whole pool) or when the pool empties.
func selectAngles(c *bitio.Consumer, groups [][]thread.Angle, target int) *AngleEmbedding {
	pool := []thread.Angle{}
	for _, group := range groups {
		pool = append(pool, group...)
	}
	want := len(pool)
	if target > 0 && target < want {
		want = target
	}

	var bitsUsed strings.Builder
	selected := []thread.Angle{}
	short := false
	for len(selected) < want && len(pool) > 0 {
		r := len(pool)
		k := bitio.CeilLog2(r)
		if c.Remaining() < k {
			short = true
		}
		v, field, err := c.TakeUint(k)
		if err != nil {
			tracer().Errorf("angle selector field too wide: %v", err)
			break
		}
		bitsUsed.WriteString(field)
		idx := int(v % uint64(r))
		selected = append(selected, pool[idx])
		pool = append(pool[:idx:idx], pool[idx+1:]...)
	}

	return &AngleEmbedding{
		BitsUsed:         bitsUsed.String(),
		BitsCount:        bitsUsed.Len(),
		RemainingBits:    c.RemainingBits(),
		SelectedAngles:   selected,
		UnselectedAngles: pool,
		InsufficientBits: short,
	}
}
