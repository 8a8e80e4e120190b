// Package segment implements immutable segments of a version field.
//
// A Builder is the mutable write buffer: it accepts encoded values per
// document and seals them into a Segment. A Segment holds everything the
// query layer reads:
//
//   - a sorted term dictionary with roaring posting lists
//   - sorted-set doc values (per-document term ordinals)
//   - a 16-byte point prefix per term, for coarse range filtering
//   - numeric major/minor/patch indexes and pre-release bitmaps
//
// Segments are safe for concurrent reads.
//
// # File Format
//
//	[header 16B][block-compressed body][crc32 4B]
//
// The header carries the magic "VFS1", the format version, the body
// compression and the document and term counts. The CRC covers header and
// body. The body sections, in order, are terms (front coded), postings,
// doc values, numeric indexes and pre-release bitmaps.
package segment
