// Package automaton builds byte-level finite automata and intersects them
// with sorted term dictionaries.
//
// Patterns are assembled from Thompson fragments (Byte, Range, Concat,
// Union, Optional, Star), then determinized by subset construction into a
// table-driven DFA. States from which no accepting state is reachable are
// pruned, so a dead transition means no extension of the current prefix
// can match; Intersect uses that to seek past whole blocks of terms.
package automaton
