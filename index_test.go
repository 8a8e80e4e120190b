package versionfield

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/versionfield/blobstore"
	"github.com/hupe1980/versionfield/testutil"
	"github.com/hupe1980/versionfield/version"
)

func TestIndex(t *testing.T) {
	ctx := context.Background()

	t.Run("AddFlushSearch", func(t *testing.T) {
		ix := New()

		for i, v := range []string{"1.0.0", "1.5.0", "2.0.0"} {
			doc, err := ix.Add(ctx, v)
			require.NoError(t, err)
			assert.Equal(t, uint32(i), doc)
		}

		q, err := ix.Field().RangeQuery("1.0.0", "2.0.0", true, false)
		require.NoError(t, err)

		// Unflushed documents are not searchable.
		bm, err := ix.Search(ctx, q)
		require.NoError(t, err)
		assert.True(t, bm.IsEmpty())

		require.NoError(t, ix.Flush(ctx))

		bm, err = ix.Search(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, []uint32{0, 1}, bm.ToArray())
	})

	t.Run("MultiValued", func(t *testing.T) {
		ix := New()
		_, err := ix.Add(ctx, "2.0.0", "1.0.0", "2.0.0")
		require.NoError(t, err)
		require.NoError(t, ix.Flush(ctx))

		vs, err := ix.Values(0)
		require.NoError(t, err)
		assert.Equal(t, []string{"1.0.0", "2.0.0"}, vs)
	})

	t.Run("DocumentWithoutValues", func(t *testing.T) {
		ix := New()
		_, err := ix.Add(ctx, "1.0.0")
		require.NoError(t, err)
		doc, err := ix.Add(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint32(1), doc)
		_, err = ix.Add(ctx, "3.0.0")
		require.NoError(t, err)
		require.NoError(t, ix.Flush(ctx))

		vs, err := ix.Values(1)
		require.NoError(t, err)
		assert.Empty(t, vs)

		bm, err := ix.Search(ctx, ix.Field().ExistsQuery())
		require.NoError(t, err)
		assert.Equal(t, []uint32{0, 2}, bm.ToArray())
	})

	t.Run("MalformedRejectsDocument", func(t *testing.T) {
		ix := New()
		_, err := ix.Add(ctx, "1.0.0", "not a version")
		require.ErrorIs(t, err, ErrInvalidVersionFormat)
		assert.Equal(t, uint32(0), ix.Stats().Docs)
	})

	t.Run("IgnoreMalformed", func(t *testing.T) {
		mc := &BasicMetricsCollector{}
		ix := New(WithIgnoreMalformed(true), WithMetricsCollector(mc))
		doc, err := ix.Add(ctx, "1.0.0", "abc", "-1.0.0")
		require.NoError(t, err)
		require.NoError(t, ix.Flush(ctx))

		vs, err := ix.Values(doc)
		require.NoError(t, err)
		assert.Equal(t, []string{"1.0.0"}, vs)
		assert.Equal(t, int64(2), ix.Stats().MalformedCount)
		assert.Equal(t, int64(2), mc.GetStats().MalformedValues)
		assert.Equal(t, int64(1), mc.GetStats().IndexValues)
	})

	t.Run("ValuesNotFound", func(t *testing.T) {
		ix := New()
		_, err := ix.Add(ctx, "1.0.0")
		require.NoError(t, err)

		_, err = ix.Values(0)
		require.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, ix.Flush(ctx))
		_, err = ix.Values(0)
		require.NoError(t, err)
		_, err = ix.Values(1)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("AutoFlush", func(t *testing.T) {
		ix := New(WithFlushThreshold(1))
		_, err := ix.Add(ctx, "1.0.0")
		require.NoError(t, err)
		_, err = ix.Add(ctx, "2.0.0")
		require.NoError(t, err)

		st := ix.Stats()
		assert.Equal(t, 2, st.Segments)
		assert.Equal(t, uint32(0), st.BufferedDocs)
	})

	t.Run("Closed", func(t *testing.T) {
		ix := New()
		require.NoError(t, ix.Close())
		require.NoError(t, ix.Close())

		_, err := ix.Add(ctx, "1.0.0")
		require.ErrorIs(t, err, ErrClosed)
		require.ErrorIs(t, ix.Flush(ctx), ErrClosed)
		_, err = ix.Search(ctx, ix.Field().ExistsQuery())
		require.ErrorIs(t, err, ErrClosed)
		require.ErrorIs(t, ix.Save(ctx, blobstore.NewMemoryStore()), ErrClosed)
	})

	t.Run("CancelledContext", func(t *testing.T) {
		ix := newTestIndex(t, []string{"1.0.0"})
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := ix.Search(cctx, ix.Field().ExistsQuery())
		require.ErrorIs(t, err, context.Canceled)
		_, err = ix.Add(cctx, "2.0.0")
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestIndex_Segments(t *testing.T) {
	ctx := context.Background()
	mc := &BasicMetricsCollector{}
	ix := New(WithMetricsCollector(mc), WithSearchConcurrency(2))

	batches := [][]string{
		{"1.0.0", "1.1.0", "1.2.0"},
		{"2.0.0", "2.1.0-beta.1"},
		{"3.0.0", "3.0.1"},
	}
	for _, batch := range batches {
		for _, v := range batch {
			_, err := ix.Add(ctx, v)
			require.NoError(t, err)
		}
		require.NoError(t, ix.Flush(ctx))
	}
	require.NoError(t, ix.Flush(ctx))

	st := ix.Stats()
	assert.Equal(t, 3, st.Segments)
	assert.Equal(t, uint32(7), st.Docs)
	assert.Equal(t, 7, st.Terms)
	assert.Equal(t, int64(3), mc.GetStats().FlushCount)

	f := ix.Field()
	tests := []struct {
		name  string
		build func() (Query, error)
		want  []uint32
	}{
		{"term in second segment", func() (Query, error) { return f.TermQuery("2.0.0") }, []uint32{3}},
		{"range across segments", func() (Query, error) { return f.RangeQuery("1.2.0", "3.0.0", true, true) }, []uint32{2, 3, 4, 5}},
		{"prefix", func() (Query, error) { return f.PrefixQuery("3.") }, []uint32{5, 6}},
		{"prerelease", func() (Query, error) { return f.PreReleaseQuery(true), nil }, []uint32{4}},
		{"major", func() (Query, error) { return f.ComponentQuery(Major, 1, 1), nil }, []uint32{0, 1, 2}},
		{"no match", func() (Query, error) { return f.TermQuery("9.9.9") }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := tt.build()
			require.NoError(t, err)
			bm, err := ix.Search(ctx, q)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, bm.ToArray(), cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("docs mismatch (-want +got):\n%s", diff)
			}
		})
	}

	for doc, want := range []string{"1.0.0", "1.1.0", "1.2.0", "2.0.0", "2.1.0-beta.1", "3.0.0", "3.0.1"} {
		vs, err := ix.Values(uint32(doc))
		require.NoError(t, err)
		assert.Equal(t, []string{want}, vs)
	}
}

func TestIndex_RangeMatchesOracle(t *testing.T) {
	ctx := context.Background()

	for _, mode := range []SortMode{Lexicographic, NumericAware} {
		t.Run(mode.String(), func(t *testing.T) {
			rng := testutil.NewRNG(42)
			pool := rng.Versions(200)
			docs := rng.SkewedSample(pool, 600, 1.1)

			ix := New(WithSortMode(mode), WithFlushThreshold(2048))
			for _, v := range docs {
				_, err := ix.Add(ctx, v)
				require.NoError(t, err)
			}
			require.NoError(t, ix.Flush(ctx))
			require.Greater(t, ix.Stats().Segments, 1)

			for i := 0; i < 25; i++ {
				lo, hi := pool[rng.Intn(len(pool))], pool[rng.Intn(len(pool))]
				if c, err := version.Compare(lo, hi, mode); err == nil && c > 0 {
					lo, hi = hi, lo
				}
				incLo, incHi := rng.Intn(2) == 0, rng.Intn(2) == 0

				q, err := ix.Field().RangeQuery(lo, hi, incLo, incHi)
				require.NoError(t, err)
				bm, err := ix.Search(ctx, q)
				require.NoError(t, err)

				var want []uint32
				for doc, v := range docs {
					cl, err := version.Compare(v, lo, mode)
					require.NoError(t, err)
					ch, err := version.Compare(v, hi, mode)
					require.NoError(t, err)
					if (cl > 0 || (incLo && cl == 0)) && (ch < 0 || (incHi && ch == 0)) {
						want = append(want, uint32(doc))
					}
				}
				if diff := cmp.Diff(want, bm.ToArray(), cmpopts.EquateEmpty()); diff != "" {
					t.Fatalf("range [%s, %s] inc=%v/%v mismatch (-want +got):\n%s", lo, hi, incLo, incHi, diff)
				}
			}
		})
	}
}

func TestIndex_ConcurrentSearch(t *testing.T) {
	ctx := context.Background()
	ix := New(WithFlushThreshold(64))
	for i := 0; i < 200; i++ {
		_, err := ix.Add(ctx, "1.0."+strconv.Itoa(i))
		require.NoError(t, err)
	}
	require.NoError(t, ix.Flush(ctx))

	q, err := ix.Field().PrefixQuery("1.0.1")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := ix.Count(ctx, q)
			if err != nil {
				errs <- err
				return
			}
			// 1.0.1, 1.0.10-19, 1.0.100-199
			assert.Equal(t, uint64(111), n)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
}

func TestIndex_SaveLoad(t *testing.T) {
	ctx := context.Background()

	stores := map[string]func(t *testing.T) blobstore.BlobStore{
		"memory": func(t *testing.T) blobstore.BlobStore { return blobstore.NewMemoryStore() },
		"local":  func(t *testing.T) blobstore.BlobStore { return blobstore.NewLocalStore(t.TempDir()) },
	}

	names := make([]string, 0, len(stores))
	for name := range stores {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			store := stores[name](t)
			mc := &BasicMetricsCollector{}

			ix := New(WithSortMode(NumericAware), WithCompression(CompressionLZ4), WithMetricsCollector(mc))
			for _, v := range []string{"1.0.0-rc2", "1.0.0-rc11", "1.0.0"} {
				_, err := ix.Add(ctx, v)
				require.NoError(t, err)
			}
			require.NoError(t, ix.Save(ctx, store))
			assert.Equal(t, uint64(1), ix.Stats().ManifestID)
			assert.Greater(t, mc.GetStats().SavedBytes, int64(0))

			// Buffered documents are flushed by Save.
			_, err := ix.Add(ctx, "2.0.0")
			require.NoError(t, err)
			require.NoError(t, ix.Save(ctx, store))
			assert.Equal(t, uint64(2), ix.Stats().ManifestID)

			loaded, err := Load(ctx, store)
			require.NoError(t, err)
			defer loaded.Close()

			assert.Equal(t, NumericAware, loaded.Field().SortMode())
			st := loaded.Stats()
			assert.Equal(t, uint32(4), st.Docs)
			assert.Equal(t, 2, st.Segments)
			assert.Equal(t, uint64(2), st.ManifestID)

			q, err := loaded.Field().RangeQuery("1.0.0-rc3", "1.0.0", true, false)
			require.NoError(t, err)
			bm, err := loaded.Search(ctx, q)
			require.NoError(t, err)
			assert.Equal(t, []uint32{1}, bm.ToArray())

			vs, err := loaded.Values(3)
			require.NoError(t, err)
			assert.Equal(t, []string{"2.0.0"}, vs)

			// New documents continue the ID space.
			doc, err := loaded.Add(ctx, "3.0.0")
			require.NoError(t, err)
			assert.Equal(t, uint32(4), doc)
			require.NoError(t, loaded.Save(ctx, store))
			assert.Equal(t, uint64(3), loaded.Stats().ManifestID)

			// Older versions remain readable.
			v1, err := LoadVersion(ctx, store, 1)
			require.NoError(t, err)
			assert.Equal(t, uint32(3), v1.Stats().Docs)
		})
	}
}

// gatedStore blocks segment writes until release is closed.
type gatedStore struct {
	blobstore.BlobStore
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedStore) Put(ctx context.Context, name string, data []byte) error {
	if strings.HasPrefix(name, "segments/") {
		g.once.Do(func() { close(g.started) })
		select {
		case <-g.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return g.BlobStore.Put(ctx, name, data)
}

func TestIndex_SaveDoesNotBlockReaders(t *testing.T) {
	ctx := context.Background()
	ix := newTestIndex(t, []string{"1.0.0", "2.0.0"})

	store := &gatedStore{
		BlobStore: blobstore.NewMemoryStore(),
		started:   make(chan struct{}),
		release:   make(chan struct{}),
	}
	saved := make(chan error, 1)
	go func() { saved <- ix.Save(ctx, store) }()
	<-store.started

	done := make(chan struct{})
	go func() {
		defer close(done)
		q, err := ix.Field().TermQuery("2.0.0")
		assert.NoError(t, err)
		bm, err := ix.Search(ctx, q)
		assert.NoError(t, err)
		assert.Equal(t, []uint32{1}, bm.ToArray())

		_, err = ix.Add(ctx, "3.0.0")
		assert.NoError(t, err)
		assert.Equal(t, uint32(3), ix.Stats().Docs)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("readers blocked while segments upload")
	}

	close(store.release)
	require.NoError(t, <-saved)

	st := ix.Stats()
	assert.Equal(t, uint64(1), st.ManifestID)
	assert.Equal(t, uint32(1), st.BufferedDocs)

	loaded, err := Load(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), loaded.Stats().Docs)

	// The second save uploads only the new segment.
	store.release = make(chan struct{})
	close(store.release)
	require.NoError(t, ix.Save(ctx, store))
	loaded, err = Load(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), loaded.Stats().Docs)
	assert.Equal(t, 2, loaded.Stats().Segments)
}

func TestLoad_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("NotFound", func(t *testing.T) {
		_, err := Load(ctx, blobstore.NewMemoryStore())
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("SortModeMismatch", func(t *testing.T) {
		store := blobstore.NewMemoryStore()
		ix := newTestIndex(t, []string{"1.0.0"})
		require.NoError(t, ix.Save(ctx, store))

		_, err := Load(ctx, store, WithSortMode(NumericAware))
		require.ErrorIs(t, err, ErrSortModeMismatch)

		_, err = Load(ctx, store, WithSortMode(Lexicographic))
		require.NoError(t, err)
	})

	t.Run("CorruptSegment", func(t *testing.T) {
		store := blobstore.NewMemoryStore()
		ix := newTestIndex(t, []string{"1.0.0", "2.0.0"})
		require.NoError(t, ix.Save(ctx, store))

		names, err := store.List(ctx, "segments/")
		require.NoError(t, err)
		require.Len(t, names, 1)

		data, err := blobstore.Get(ctx, store, names[0])
		require.NoError(t, err)
		data[len(data)/2] ^= 0xFF
		require.NoError(t, store.Put(ctx, names[0], data))

		_, err = Load(ctx, store)
		require.ErrorIs(t, err, ErrCorruptSegment)
	})

	t.Run("CorruptManifest", func(t *testing.T) {
		store := blobstore.NewMemoryStore()
		require.NoError(t, store.Put(ctx, "CURRENT", []byte("MANIFEST-000001.json")))
		require.NoError(t, store.Put(ctx, "MANIFEST-000001.json", []byte("{")))

		_, err := Load(ctx, store)
		require.ErrorIs(t, err, ErrCorruptIndex)
	})
}
