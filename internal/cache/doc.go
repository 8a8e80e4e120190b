// Package cache provides a size-bounded LRU for immutable blob contents.
//
// Entries are keyed by blob name and charged by their length in bytes.
// The Sharded variant spreads keys over independent shards so that
// concurrent segment reads during Load do not contend on one mutex.
package cache
