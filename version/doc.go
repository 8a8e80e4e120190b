// Package version implements an order-preserving binary encoding for
// software version strings.
//
// A version string follows the grammar
//
//	digits ('.' digits)* ('-' id ('.' id)*)? ('+' build)?
//
// where id is a non-empty run of [0-9A-Za-z-] and build is any non-empty
// run of bytes >= 0x20. Encoding turns a valid string into bytes whose
// unsigned lexicographic order equals the semantic version order:
//
//   - main components compare numerically, fewer components sort first
//     ("2.0.0" < "11.0.0", "2.1.1" < "2.1.1.0");
//   - a pre-release sorts before its release ("1.0.0-rc.1" < "1.0.0");
//   - numeric pre-release identifiers sort before alphanumeric ones;
//   - alphanumeric identifiers compare according to the SortMode.
//
// Build metadata is appended verbatim and only breaks ties.
//
// # Layout
//
//	main      02 L d+ (01 02 L d+)* 00
//	flag      05                     no pre-release
//	          04 '-' id (01 id)* 00  pre-release
//	build     '+' bytes...
//
// A numeric identifier is 02 L d+. An alphanumeric identifier is written
// raw under Lexicographic; under NumericAware every digit run is replaced
// by 03 L d+. L is 0x80 | number of digits, so digit strings compare by
// length first, then by bytes. Leading zeros are significant.
//
// # Usage
//
//	enc := version.NewEncoder(version.NumericAware)
//	v, err := enc.Encode("1.0.0-rc11")
//	if err != nil { ... }
//	s, err := enc.Decode(v.Bytes()) // "1.0.0-rc11"
//
// An Encoder holds no mutable state and is safe for concurrent use. A
// field must use one SortMode for its whole lifetime: encodings produced
// under different modes do not order against each other.
package version
