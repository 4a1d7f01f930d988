package lzdict

// location is one occurrence of a code point in the dictionary.
type location struct {
	entry  int
	offset int
}

// candidate is one usable back-reference at a payload position. The
// length is the maximal parallel extension from (entry, offset).
type candidate struct {
	entry  int
	offset int
	length int
}

// matchIndex precomputes, for each payload position, the reference
// candidates worth considering, in dictionary order (entry ascending,
// then offset ascending). The enumeration order matters: the DP
// tie-break is earliest-found, so candidate order influences which bits
// get emitted.
type matchIndex struct {
	byPos [][]candidate
}

func buildMatchIndex(payload []rune, d *Dictionary, p Params) *matchIndex {
	idx := &matchIndex{byPos: make([][]candidate, len(payload))}
	if d.Len() == 0 {
		return idx
	}

	// One pass over the dictionary builds the occurrence map; entry and
	// offset order is preserved inside each bucket.
	occurrences := make(map[rune][]location)
	for e := 0; e < d.Len(); e++ {
		for o, r := range d.Entry(e) {
			occurrences[r] = append(occurrences[r], location{entry: e, offset: o})
		}
	}

	total := 0
	for i := range payload {
		locs := occurrences[payload[i]]
		if len(locs) == 0 {
			continue
		}
		var cands []candidate
		for _, loc := range locs {
			entry := d.Entry(loc.entry)
			limit := len(payload) - i
			if rest := len(entry) - loc.offset; rest < limit {
				limit = rest
			}
			length := 0
			for length < limit && entry[loc.offset+length] == payload[i+length] {
				length++
			}
			if length <= p.MinMatch {
				continue
			}
			cands = append(cands, candidate{entry: loc.entry, offset: loc.offset, length: length})
			if len(cands) >= p.MaxCandidates {
				break
			}
		}
		idx.byPos[i] = cands
		total += len(cands)
	}
	tracer().Debugf("match index: %d positions, %d candidates", len(payload), total)
	return idx
}
