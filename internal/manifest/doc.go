// Package manifest records which segment blobs make up a saved index.
//
// A manifest is a JSON document naming the sort mode the segments were
// encoded with, the next free document ID and one entry per segment:
//
//	{
//	  "version": 1,
//	  "id": 3,
//	  "sort_mode": "semver",
//	  "compression": "zstd",
//	  "next_doc": 1200,
//	  "segments": [
//	    {"name": "5d0c...", "path": "segments/5d0c....vfs", "doc_base": 0, "max_doc": 1000, ...}
//	  ]
//	}
//
// # Storage Layout
//
// Every Save writes a new immutable MANIFEST-<id>.json blob, then points
// the CURRENT blob at it. Readers follow CURRENT, so a crash between the
// two writes leaves the previous manifest in effect. Older versions remain
// loadable with LoadVersion until DeleteVersion removes them.
package manifest
