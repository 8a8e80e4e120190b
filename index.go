package versionfield

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/versionfield/bitmap"
	"github.com/hupe1980/versionfield/blobstore"
	"github.com/hupe1980/versionfield/internal/compress"
	"github.com/hupe1980/versionfield/internal/manifest"
	"github.com/hupe1980/versionfield/internal/segment"
	"github.com/hupe1980/versionfield/query"
	"github.com/hupe1980/versionfield/version"
)

// ErrIndexFull is returned when the document ID space is exhausted.
var ErrIndexFull = errors.New("versionfield: document id space exhausted")

type sealed struct {
	seg  *segment.Segment
	base uint32
	info manifest.SegmentInfo
}

// Index holds the values of one version field across many documents.
//
// Documents are buffered in memory by Add and become searchable once
// Flush seals the buffer into an immutable segment. Search evaluates a
// query on every segment in parallel and returns global document IDs.
//
// An Index is safe for concurrent use.
type Index struct {
	field *Field
	opts  options
	log   *Logger

	saveMu sync.Mutex

	mu         sync.RWMutex
	mem        *segment.Builder
	memBase    uint32
	nextDoc    uint32
	segments   []*sealed
	manifestID uint64
	malformed  int64
	closed     bool
}

// New creates an empty Index.
func New(optFns ...Option) *Index {
	o := applyOptions(optFns)
	return newIndex(o)
}

func newIndex(o options) *Index {
	return &Index{
		field: newField(&o),
		opts:  o,
		log:   o.logger.WithField(o.fieldName),
		mem:   segment.NewBuilder(),
	}
}

// Field returns the field the index encodes and builds queries with.
func (ix *Index) Field() *Field { return ix.field }

// Add indexes one document holding values and returns its document ID.
//
// All values are validated before anything is stored. An invalid value
// rejects the whole document unless the index ignores malformed values, in
// which case the value is skipped and counted. A document with no values
// still receives an ID.
func (ix *Index) Add(ctx context.Context, values ...string) (uint32, error) {
	start := time.Now()

	encoded := make([]version.EncodedVersion, 0, len(values))
	malformed := 0
	for _, s := range values {
		v, err := ix.field.Encode(s)
		if err != nil {
			if ix.opts.ignoreMalformed {
				malformed++
				continue
			}
			err = translateError(err)
			ix.opts.metrics.RecordIndex(len(values), 0, time.Since(start), err)
			ix.log.LogIndex(ctx, 0, len(values), 0, err)
			return 0, err
		}
		encoded = append(encoded, v)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.closed {
		return 0, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if ix.nextDoc == math.MaxUint32 {
		return 0, ErrIndexFull
	}

	doc := ix.nextDoc
	local := doc - ix.memBase
	ix.mem.Reserve(local)
	for _, v := range encoded {
		ix.mem.Add(local, v)
	}
	ix.nextDoc++
	ix.malformed += int64(malformed)

	ix.opts.metrics.RecordIndex(len(values), malformed, time.Since(start), nil)
	ix.log.LogIndex(ctx, doc, len(values), malformed, nil)

	if ix.opts.flushThreshold > 0 && ix.mem.SizeBytes() >= ix.opts.flushThreshold {
		if err := ix.flushLocked(ctx); err != nil {
			return doc, err
		}
	}
	return doc, nil
}

// Flush seals buffered documents into a new searchable segment.
// It is a no-op when nothing is buffered.
func (ix *Index) Flush(ctx context.Context) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.closed {
		return ErrClosed
	}
	return ix.flushLocked(ctx)
}

func (ix *Index) flushLocked(ctx context.Context) error {
	if ix.nextDoc == ix.memBase {
		return nil
	}
	start := time.Now()

	seg := ix.mem.Seal(uuid.NewString())
	s := newSealed(seg, ix.memBase)
	ix.segments = append(ix.segments, s)
	ix.memBase = ix.nextDoc
	ix.mem.Reset()

	ix.opts.metrics.RecordFlush(seg.MaxDoc(), seg.NumTerms(), time.Since(start), nil)
	ix.log.LogFlush(ctx, seg.ID(), seg.MaxDoc(), seg.NumTerms(), time.Since(start), nil)
	return nil
}

func newSealed(seg *segment.Segment, base uint32) *sealed {
	info := manifest.SegmentInfo{
		Name:      seg.ID(),
		Path:      manifest.SegmentPath(seg.ID()),
		DocBase:   base,
		MaxDoc:    seg.MaxDoc(),
		NumTerms:  seg.NumTerms(),
		NumValues: seg.NumValues(),
	}
	if n := seg.NumTerms(); n > 0 {
		info.MinTerm = slices.Clone(seg.Term(0))
		info.MaxTerm = slices.Clone(seg.Term(n - 1))
	}
	return &sealed{seg: seg, base: base, info: info}
}

func (ix *Index) snapshot() ([]*sealed, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.closed {
		return nil, ErrClosed
	}
	return slices.Clone(ix.segments), nil
}

// Search returns the global IDs of flushed documents matching q.
//
// Segments whose term bounds rule out a match are skipped. The remaining
// segments are evaluated concurrently, bounded by the search concurrency.
func (ix *Index) Search(ctx context.Context, q Query) (*bitmap.Bitmap, error) {
	start := time.Now()
	kind := query.KindOf(q)

	res, evaluated, err := ix.search(ctx, q)
	if err != nil {
		err = translateError(err)
		ix.opts.metrics.RecordSearch(kind, 0, time.Since(start), err)
		ix.log.LogSearch(ctx, q.String(), 0, 0, 0, err)
		return nil, err
	}

	hits := res.Cardinality()
	ix.opts.metrics.RecordSearch(kind, hits, time.Since(start), nil)
	ix.log.LogSearch(ctx, q.String(), len(evaluated), ix.segmentCount()-len(evaluated), hits, nil)
	return res, nil
}

func (ix *Index) search(ctx context.Context, q Query) (*bitmap.Bitmap, []*sealed, error) {
	candidates, local, err := ix.matchSegments(ctx, q)
	if err != nil {
		return nil, nil, err
	}
	parts := make([]*bitmap.Bitmap, len(local))
	for i, bm := range local {
		parts[i] = bm.Shift(candidates[i].base)
	}
	return bitmap.Union(parts...), candidates, nil
}

// matchSegments evaluates q on every segment that may match and returns
// the segments with their segment-local results.
func (ix *Index) matchSegments(ctx context.Context, q Query) ([]*sealed, []*bitmap.Bitmap, error) {
	segs, err := ix.snapshot()
	if err != nil {
		return nil, nil, err
	}

	candidates := make([]*sealed, 0, len(segs))
	for _, s := range segs {
		if s.info.NumTerms == 0 || !query.MayMatch(q, s.info.MinTerm, s.info.MaxTerm) {
			continue
		}
		candidates = append(candidates, s)
	}

	parts := make([]*bitmap.Bitmap, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.opts.searchConcurrency)
	for i, s := range candidates {
		g.Go(func() error {
			bm, err := q.Execute(gctx, s.seg)
			if err != nil {
				return fmt.Errorf("segment %s: %w", s.seg.ID(), err)
			}
			parts[i] = bm
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return candidates, parts, nil
}

func (ix *Index) segmentCount() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.segments)
}

// Count returns the number of flushed documents matching q.
func (ix *Index) Count(ctx context.Context, q Query) (uint64, error) {
	bm, err := ix.Search(ctx, q)
	if err != nil {
		return 0, err
	}
	return bm.Cardinality(), nil
}

// Values returns the stored values of a flushed document as display
// strings, in ascending version order. Documents still buffered report
// ErrNotFound until the next Flush.
func (ix *Index) Values(doc uint32) ([]string, error) {
	segs, err := ix.snapshot()
	if err != nil {
		return nil, err
	}

	i := sort.Search(len(segs), func(i int) bool {
		return segs[i].base+segs[i].seg.MaxDoc() > doc
	})
	if i == len(segs) || doc < segs[i].base {
		return nil, fmt.Errorf("%w: document %d", ErrNotFound, doc)
	}

	raw := segs[i].seg.Values(doc - segs[i].base)
	out := make([]string, 0, len(raw))
	for _, b := range raw {
		out = append(out, ix.field.Format(b))
	}
	return out, nil
}

// Stats is a point-in-time summary of an Index.
type Stats struct {
	Field          string
	SortMode       SortMode
	Docs           uint32
	BufferedDocs   uint32
	Segments       int
	Terms          int
	Values         int
	MalformedCount int64
	ManifestID     uint64
}

// Stats returns a snapshot of index counters. Terms is summed per segment,
// so a value present in several segments counts once per segment.
func (ix *Index) Stats() Stats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	st := Stats{
		Field:          ix.field.Name(),
		SortMode:       ix.field.SortMode(),
		Docs:           ix.nextDoc,
		BufferedDocs:   ix.nextDoc - ix.memBase,
		Segments:       len(ix.segments),
		MalformedCount: ix.malformed,
		ManifestID:     ix.manifestID,
	}
	for _, s := range ix.segments {
		st.Terms += s.info.NumTerms
		st.Values += s.info.NumValues
	}
	return st
}

// Save flushes buffered documents and writes every segment not yet in
// store, followed by a new manifest version. Readers of store see either
// the previous or the new version, never a mix.
//
// The index stays available to Add and Search while segments upload;
// concurrent Saves run one at a time.
func (ix *Index) Save(ctx context.Context, store blobstore.BlobStore) error {
	start := time.Now()

	ix.saveMu.Lock()
	defer ix.saveMu.Unlock()

	id, segments, written, err := ix.save(ctx, store)
	err = translateError(err)
	ix.opts.metrics.RecordSave(segments, written, time.Since(start), err)
	ix.log.LogSave(ctx, id, segments, written, err)
	return err
}

// saveState is what Save needs from the index, captured under ix.mu.
type saveState struct {
	segments   []*sealed
	infos      []manifest.SegmentInfo
	nextDoc    uint32
	manifestID uint64
}

func (ix *Index) saveSnapshot(ctx context.Context) (saveState, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.closed {
		return saveState{}, ErrClosed
	}
	if err := ix.flushLocked(ctx); err != nil {
		return saveState{}, err
	}
	st := saveState{
		segments:   slices.Clone(ix.segments),
		infos:      make([]manifest.SegmentInfo, len(ix.segments)),
		nextDoc:    ix.nextDoc,
		manifestID: ix.manifestID,
	}
	for i, s := range ix.segments {
		st.infos[i] = s.info
	}
	return st, nil
}

func (ix *Index) save(ctx context.Context, store blobstore.BlobStore) (uint64, int, int64, error) {
	st, err := ix.saveSnapshot(ctx)
	if err != nil {
		return 0, 0, 0, err
	}

	if l, ok := store.(blobstore.Locker); ok {
		unlock, err := l.Lock(ctx)
		if err != nil {
			return 0, 0, 0, err
		}
		defer func() { _ = unlock() }()
	}

	existing, err := store.List(ctx, manifest.SegmentDir+"/")
	if err != nil {
		return 0, 0, 0, err
	}

	var written atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.opts.searchConcurrency)
	for i, s := range st.segments {
		info := &st.infos[i]
		if info.Size > 0 && slices.Contains(existing, info.Path) {
			continue
		}
		g.Go(func() error {
			data, err := s.seg.Marshal(ix.opts.compression)
			if err != nil {
				return fmt.Errorf("marshal segment %s: %w", info.Name, err)
			}
			if err := store.Put(gctx, info.Path, data); err != nil {
				return fmt.Errorf("write segment %s: %w", info.Name, err)
			}
			info.Size = int64(len(data))
			info.Checksum = compress.Checksum(data)
			written.Add(int64(len(data)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, 0, written.Load(), err
	}

	ms := manifest.NewStore(store)
	m := manifest.New(ix.field.SortMode().String(), ix.opts.compression.String())
	m.ID = st.manifestID
	if ids, err := ms.ListVersions(ctx); err != nil {
		return 0, 0, written.Load(), err
	} else if n := len(ids); n > 0 && ids[n-1] > m.ID {
		m.ID = ids[n-1]
	}
	m.NextDoc = st.nextDoc
	m.Segments = st.infos

	if err := ms.Save(ctx, m); err != nil {
		return 0, len(m.Segments), written.Load(), err
	}

	ix.mu.Lock()
	ix.manifestID = m.ID
	for i, s := range st.segments {
		s.info.Size = st.infos[i].Size
		s.info.Checksum = st.infos[i].Checksum
	}
	ix.mu.Unlock()

	return m.ID, len(m.Segments), written.Load(), nil
}

// Load opens the current index version saved in store.
//
// The sort mode is taken from the saved manifest. If WithSortMode is
// passed and disagrees, Load fails with ErrSortModeMismatch.
func Load(ctx context.Context, store blobstore.BlobStore, optFns ...Option) (*Index, error) {
	return LoadVersion(ctx, store, 0, optFns...)
}

// LoadVersion opens a specific saved manifest version. Version 0 follows
// the current version.
func LoadVersion(ctx context.Context, store blobstore.BlobStore, versionID uint64, optFns ...Option) (*Index, error) {
	o := applyOptions(optFns)
	log := o.logger.WithField(o.fieldName)

	ix, err := load(ctx, store, versionID, o)
	if err != nil {
		err = translateError(err)
		log.LogLoad(ctx, versionID, 0, 0, err)
		return nil, err
	}
	st := ix.Stats()
	ix.log.LogLoad(ctx, st.ManifestID, st.Segments, st.Docs, nil)
	return ix, nil
}

func load(ctx context.Context, store blobstore.BlobStore, versionID uint64, o options) (*Index, error) {
	m, err := manifest.NewStore(store).LoadVersion(ctx, versionID)
	if err != nil {
		return nil, err
	}

	mode, err := version.ParseSortMode(m.SortMode)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptIndex, err)
	}
	if o.sortModeSet && o.sortMode != mode {
		return nil, fmt.Errorf("%w: index uses %s, requested %s", ErrSortModeMismatch, mode, o.sortMode)
	}
	o.sortMode = mode

	segs := make([]*sealed, len(m.Segments))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.searchConcurrency)
	for i, info := range m.Segments {
		g.Go(func() error {
			seg, err := readSegment(gctx, store, info)
			if err != nil {
				return fmt.Errorf("segment %s: %w", info.Name, err)
			}
			segs[i] = &sealed{seg: seg, base: info.DocBase, info: info}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ix := newIndex(o)
	ix.segments = segs
	ix.nextDoc = m.NextDoc
	ix.memBase = m.NextDoc
	ix.manifestID = m.ID
	return ix, nil
}

func readSegment(ctx context.Context, store blobstore.BlobStore, info manifest.SegmentInfo) (*segment.Segment, error) {
	blob, err := store.Open(ctx, info.Path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = blob.Close() }()

	if blob.Size() != info.Size {
		return nil, fmt.Errorf("%w: size %d, manifest says %d", ErrCorruptSegment, blob.Size(), info.Size)
	}
	data, err := blobstore.ReadAll(ctx, blob)
	if err != nil {
		return nil, err
	}
	if err := compress.Verify(data, info.Checksum); err != nil {
		return nil, err
	}

	seg, err := segment.Read(info.Name, data)
	if err != nil {
		return nil, err
	}
	if seg.MaxDoc() != info.MaxDoc {
		return nil, fmt.Errorf("%w: max doc %d, manifest says %d", ErrCorruptSegment, seg.MaxDoc(), info.MaxDoc)
	}
	return seg, nil
}

// Close releases the segments. Further calls fail with ErrClosed.
func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.closed {
		return nil
	}
	ix.closed = true
	ix.segments = nil
	ix.mem.Reset()
	return nil
}
