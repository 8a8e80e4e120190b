package cache

import "hash/maphash"

const numShards = 16

// Sharded is an LRU split across independently locked shards.
// The capacity is divided evenly; a value larger than one shard is not cached.
type Sharded struct {
	shards [numShards]*LRU
	seed   maphash.Seed
}

// NewSharded creates a sharded cache holding about capacity bytes in total.
func NewSharded(capacity int64) *Sharded {
	per := capacity / numShards
	if per < 1 {
		per = 1
	}
	s := &Sharded{seed: maphash.MakeSeed()}
	for i := range numShards {
		s.shards[i] = NewLRU(per)
	}
	return s
}

func (s *Sharded) shard(key string) *LRU {
	return s.shards[maphash.String(s.seed, key)%numShards]
}

// Get returns the cached value for key.
func (s *Sharded) Get(key string) ([]byte, bool) {
	return s.shard(key).Get(key)
}

// Set stores value under key.
func (s *Sharded) Set(key string, value []byte) {
	s.shard(key).Set(key, value)
}

// Remove drops key from the cache.
func (s *Sharded) Remove(key string) {
	s.shard(key).Remove(key)
}

// RemovePrefix drops every key starting with prefix from all shards.
func (s *Sharded) RemovePrefix(prefix string) {
	for _, sh := range s.shards {
		sh.RemovePrefix(prefix)
	}
}

// Stats returns hit and miss counters summed over all shards.
func (s *Sharded) Stats() (hits, misses int64) {
	for _, sh := range s.shards {
		h, m := sh.Stats()
		hits += h
		misses += m
	}
	return hits, misses
}

// Size returns the cached bytes over all shards.
func (s *Sharded) Size() int64 {
	var total int64
	for _, sh := range s.shards {
		total += sh.Size()
	}
	return total
}
