package blobstore

import (
	"context"

	"github.com/hupe1980/versionfield/internal/cache"
)

// CachingStore keeps the contents of recently opened blobs in memory.
//
// Segments and versioned manifests are write-once, so a cached copy never
// goes stale. Names passed as mutable (the CURRENT pointer) always go to
// the inner store. Put, Create and Delete through this store invalidate
// the cached entry; writes by other processes to a non-mutable name are
// not observed.
type CachingStore struct {
	inner   BlobStore
	cache   *cache.Sharded
	mutable map[string]struct{}
}

var _ BlobStore = (*CachingStore)(nil)

// NewCachingStore wraps inner with a cache of about capacity bytes.
func NewCachingStore(inner BlobStore, capacity int64, mutable ...string) *CachingStore {
	m := make(map[string]struct{}, len(mutable))
	for _, name := range mutable {
		m[name] = struct{}{}
	}
	return &CachingStore{
		inner:   inner,
		cache:   cache.NewSharded(capacity),
		mutable: m,
	}
}

// Inner returns the wrapped store.
func (s *CachingStore) Inner() BlobStore { return s.inner }

// Open returns a cached copy when present; otherwise it reads the whole
// blob from the inner store and caches it.
func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, ok := s.mutable[name]; ok {
		return s.inner.Open(ctx, name)
	}
	if data, ok := s.cache.Get(name); ok {
		return bytesBlob(data), nil
	}

	data, err := Get(ctx, s.inner, name)
	if err != nil {
		return nil, err
	}
	s.cache.Set(name, data)
	return bytesBlob(data), nil
}

func (s *CachingStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	s.cache.Remove(name)
	return s.inner.Create(ctx, name)
}

func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	s.cache.Remove(name)
	return s.inner.Put(ctx, name, data)
}

func (s *CachingStore) Delete(ctx context.Context, name string) error {
	s.cache.Remove(name)
	return s.inner.Delete(ctx, name)
}

func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// Lock delegates to the inner store when it is a Locker.
func (s *CachingStore) Lock(ctx context.Context) (func() error, error) {
	if l, ok := s.inner.(Locker); ok {
		return l.Lock(ctx)
	}
	return func() error { return nil }, nil
}

// Stats returns cache hits and misses.
func (s *CachingStore) Stats() (hits, misses int64) {
	return s.cache.Stats()
}
