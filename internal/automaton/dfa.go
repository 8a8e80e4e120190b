package automaton

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// DefaultMaxStates bounds determinization when no explicit limit is given.
const DefaultMaxStates = 10000

// ErrTooComplex is returned when determinization exceeds the state limit.
var ErrTooComplex = errors.New("automaton: too many states")

const dead = -1

// DFA is a deterministic automaton over bytes. State 0 is the start state.
// A DFA is immutable and safe for concurrent use.
type DFA struct {
	trans  []int32 // 256 entries per state
	accept []bool
}

// Compile determinizes the fragment f. maxStates <= 0 selects DefaultMaxStates.
func (b *Builder) Compile(f Frag, maxStates int) (*DFA, error) {
	if maxStates <= 0 {
		maxStates = DefaultMaxStates
	}

	d := &DFA{}
	index := map[string]int{}
	var queue [][]int

	add := func(set []int) (int, error) {
		key := setKey(set)
		if id, ok := index[key]; ok {
			return id, nil
		}
		if len(d.accept) >= maxStates {
			return 0, fmt.Errorf("%w: more than %d", ErrTooComplex, maxStates)
		}
		id := len(d.accept)
		index[key] = id
		d.accept = append(d.accept, slices.Contains(set, f.end))
		d.trans = append(d.trans, make([]int32, 256)...)
		queue = append(queue, set)
		return id, nil
	}

	if _, err := add(b.closure([]int{f.start})); err != nil {
		return nil, err
	}

	for id := 0; id < len(queue); id++ {
		set := queue[id]
		row := d.trans[id*256 : id*256+256]
		for i := range row {
			row[i] = dead
		}

		bounds := b.boundaries(set)
		for k := 0; k+1 < len(bounds); k++ {
			lo, hi := bounds[k], bounds[k+1]
			target := b.move(set, byte(lo))
			if len(target) == 0 {
				continue
			}
			tid, err := add(b.closure(target))
			if err != nil {
				return nil, err
			}
			// add may have grown d.trans; re-slice before writing.
			row = d.trans[id*256 : id*256+256]
			for c := lo; c < hi; c++ {
				row[c] = int32(tid)
			}
		}
	}

	d.prune()
	return d, nil
}

// closure returns the sorted epsilon closure of set.
func (b *Builder) closure(set []int) []int {
	seen := make(map[int]struct{}, len(set))
	stack := append([]int(nil), set...)
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		stack = append(stack, b.states[s].eps...)
	}
	out := make([]int, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}

// boundaries returns the sorted interval starts of all edges leaving set,
// terminated by 256. Every byte inside one interval moves to the same set.
func (b *Builder) boundaries(set []int) []int {
	points := []int{0, 256}
	for _, s := range set {
		for _, e := range b.states[s].edges {
			points = append(points, int(e.lo), int(e.hi)+1)
		}
	}
	slices.Sort(points)
	return slices.Compact(points)
}

func (b *Builder) move(set []int, c byte) []int {
	var out []int
	for _, s := range set {
		for _, e := range b.states[s].edges {
			if c >= e.lo && c <= e.hi {
				out = append(out, e.to)
			}
		}
	}
	return out
}

func setKey(set []int) string {
	var sb strings.Builder
	for _, s := range set {
		sb.WriteString(strconv.Itoa(s))
		sb.WriteByte(',')
	}
	return sb.String()
}

// prune redirects every transition into a state that cannot reach an
// accepting state to dead.
func (d *DFA) prune() {
	n := len(d.accept)
	rev := make([][]int, n)
	stamp := make([]int, n)
	for s := 0; s < n; s++ {
		for _, t := range d.trans[s*256 : s*256+256] {
			if t == dead || stamp[t] == s+1 {
				continue
			}
			stamp[t] = s + 1
			rev[t] = append(rev[t], s)
		}
	}

	live := make([]bool, n)
	var stack []int
	for s, ok := range d.accept {
		if ok {
			live[s] = true
			stack = append(stack, s)
		}
	}
	for len(stack) > 0 {
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, s := range rev[t] {
			if !live[s] {
				live[s] = true
				stack = append(stack, s)
			}
		}
	}

	for i, t := range d.trans {
		if t != dead && !live[t] {
			d.trans[i] = dead
		}
	}
}

// NumStates returns the number of DFA states.
func (d *DFA) NumStates() int {
	return len(d.accept)
}

// Step returns the state reached from s on c, or -1 if no match is possible.
func (d *DFA) Step(s int, c byte) int {
	return int(d.trans[s*256+int(c)])
}

// IsAccept reports whether s is accepting.
func (d *DFA) IsAccept(s int) bool {
	return d.accept[s]
}

// Run reports whether the DFA accepts input.
func (d *DFA) Run(input []byte) bool {
	s := 0
	for _, c := range input {
		s = d.Step(s, c)
		if s == dead {
			return false
		}
	}
	return d.accept[s]
}

// MatchesNothing reports whether the DFA accepts no string at all.
func (d *DFA) MatchesNothing() bool {
	if d.accept[0] {
		return false
	}
	for _, t := range d.trans[:256] {
		if t != dead {
			return false
		}
	}
	return true
}

// minLiveByte returns the smallest byte >= from with a live transition from s.
func (d *DFA) minLiveByte(s int, from int) (byte, bool) {
	row := d.trans[s*256 : s*256+256]
	for c := from; c < 256; c++ {
		if row[c] != dead {
			return byte(c), true
		}
	}
	return 0, false
}
