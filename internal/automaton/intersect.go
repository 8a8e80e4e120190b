package automaton

// Iterator is a forward-only cursor over terms sorted by unsigned byte order.
type Iterator interface {
	// Next advances to the next term.
	Next() bool
	// SeekCeil positions on the first term >= target.
	SeekCeil(target []byte) bool
	// Term returns the current term. It is valid until the cursor moves.
	Term() []byte
}

// Intersect calls fn for every term of it accepted by d, in term order.
// It stops early when fn returns false.
//
// When a term leaves the automaton at position i, no term sharing that
// prefix can match, so the cursor seeks to the smallest string that
// still has a live path instead of stepping term by term.
func (d *DFA) Intersect(it Iterator, fn func() bool) {
	if d.MatchesNothing() {
		return
	}
	states := make([]int, 0, 64)

	ok := it.Next()
	for ok {
		term := it.Term()
		states = append(states[:0], 0)
		s := 0
		i := 0
		for ; i < len(term); i++ {
			s = d.Step(s, term[i])
			if s == dead {
				break
			}
			states = append(states, s)
		}

		if s != dead && d.accept[s] {
			if !fn() {
				return
			}
			ok = it.Next()
			continue
		}

		target, found := d.nextCandidate(term, states, i)
		if !found {
			return
		}
		ok = it.SeekCeil(target)
	}
}

// nextCandidate returns the smallest string greater than term that is a
// live prefix. states[k] is the state after term[:k] for k < len(states);
// pos is where the walk stopped (len(term) if the whole term was consumed).
func (d *DFA) nextCandidate(term []byte, states []int, pos int) ([]byte, bool) {
	if pos == len(term) {
		// term is a live prefix but not accepted: extend it.
		if c, ok := d.minLiveByte(states[pos], 0); ok {
			out := make([]byte, pos+1)
			copy(out, term)
			out[pos] = c
			return out, true
		}
	}
	for k := min(pos, len(states)-1); k >= 0; k-- {
		if k >= len(term) {
			continue
		}
		from := int(term[k]) + 1
		if from > 255 {
			continue
		}
		if c, ok := d.minLiveByte(states[k], from); ok {
			out := make([]byte, k+1)
			copy(out, term[:k])
			out[k] = c
			return out, true
		}
	}
	return nil, false
}
