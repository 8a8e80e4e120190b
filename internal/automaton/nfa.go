package automaton

// Frag is a fragment of an NFA with a single entry and a single exit state.
// A Frag belongs to the Builder that created it and may be used at most once
// as an operand.
type Frag struct {
	start, end int
}

type edge struct {
	lo, hi byte
	to     int
}

type nfaState struct {
	edges []edge
	eps   []int
}

// Builder accumulates NFA states for one automaton.
type Builder struct {
	states []nfaState
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// NumStates returns the number of NFA states allocated so far.
func (b *Builder) NumStates() int {
	return len(b.states)
}

func (b *Builder) newState() int {
	b.states = append(b.states, nfaState{})
	return len(b.states) - 1
}

func (b *Builder) eps(from, to int) {
	b.states[from].eps = append(b.states[from].eps, to)
}

// Empty matches the empty string.
func (b *Builder) Empty() Frag {
	s := b.newState()
	e := b.newState()
	b.eps(s, e)
	return Frag{start: s, end: e}
}

// Range matches one byte in [lo, hi].
func (b *Builder) Range(lo, hi byte) Frag {
	s := b.newState()
	e := b.newState()
	b.states[s].edges = append(b.states[s].edges, edge{lo: lo, hi: hi, to: e})
	return Frag{start: s, end: e}
}

// Byte matches exactly c.
func (b *Builder) Byte(c byte) Frag {
	return b.Range(c, c)
}

// AnyByte matches any single byte.
func (b *Builder) AnyByte() Frag {
	return b.Range(0x00, 0xFF)
}

// Literal matches the bytes of s.
func (b *Builder) Literal(s string) Frag {
	if s == "" {
		return b.Empty()
	}
	frags := make([]Frag, len(s))
	for i := 0; i < len(s); i++ {
		frags[i] = b.Byte(s[i])
	}
	return b.Concat(frags...)
}

// Concat matches the fragments in sequence.
func (b *Builder) Concat(frags ...Frag) Frag {
	if len(frags) == 0 {
		return b.Empty()
	}
	for i := 1; i < len(frags); i++ {
		b.eps(frags[i-1].end, frags[i].start)
	}
	return Frag{start: frags[0].start, end: frags[len(frags)-1].end}
}

// Union matches any one of the fragments.
func (b *Builder) Union(frags ...Frag) Frag {
	s := b.newState()
	e := b.newState()
	for _, f := range frags {
		b.eps(s, f.start)
		b.eps(f.end, e)
	}
	return Frag{start: s, end: e}
}

// Optional matches f or the empty string.
func (b *Builder) Optional(f Frag) Frag {
	b.eps(f.start, f.end)
	return f
}

// Star matches zero or more repetitions of f.
func (b *Builder) Star(f Frag) Frag {
	s := b.newState()
	e := b.newState()
	b.eps(s, f.start)
	b.eps(s, e)
	b.eps(f.end, f.start)
	b.eps(f.end, e)
	return Frag{start: s, end: e}
}

// AnyString matches every byte string, including the empty one.
func (b *Builder) AnyString() Frag {
	return b.Star(b.AnyByte())
}
