package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/versionfield/blobstore"
)

const (
	ManifestFileName = "MANIFEST"
	CurrentFileName  = "CURRENT"
	// CurrentVersion is the version of the manifest format.
	CurrentVersion = 1
	// SegmentDir is the blob prefix segment files are stored under.
	SegmentDir = "segments"
)

// Manifest describes a saved index at a specific point in time.
type Manifest struct {
	Version     int           `json:"version"`
	ID          uint64        `json:"id"`
	CreatedAt   time.Time     `json:"created_at"`
	SortMode    string        `json:"sort_mode"`
	Compression string        `json:"compression"`
	NextDoc     uint32        `json:"next_doc"`
	Segments    []SegmentInfo `json:"segments"`
}

// New creates a new empty manifest.
func New(sortMode, compression string) *Manifest {
	return &Manifest{
		Version:     CurrentVersion,
		CreatedAt:   time.Now(),
		SortMode:    sortMode,
		Compression: compression,
	}
}

// SegmentInfo describes a single segment.
type SegmentInfo struct {
	Name string `json:"name"`
	Path string `json:"path"` // Relative to the store root
	Size int64  `json:"size"`
	// DocBase is added to segment-local doc IDs to form index doc IDs.
	DocBase   uint32 `json:"doc_base"`
	MaxDoc    uint32 `json:"max_doc"`
	NumTerms  int    `json:"num_terms"`
	NumValues int    `json:"num_values"`
	Checksum  uint32 `json:"checksum"`
	// MinTerm and MaxTerm bound the encoded terms; range searches skip
	// segments whose bounds do not overlap the query.
	MinTerm []byte `json:"min_term,omitempty"`
	MaxTerm []byte `json:"max_term,omitempty"`
}

// SegmentPath returns the blob path for a segment name.
func SegmentPath(name string) string {
	return path.Join(SegmentDir, name+".vfs")
}

// TotalValues sums the indexed values across segments.
func (m *Manifest) TotalValues() int {
	n := 0
	for _, s := range m.Segments {
		n += s.NumValues
	}
	return n
}

// Validate checks the structural invariants of m: a supported version,
// unique segment names and doc ranges that are ascending, disjoint and
// below NextDoc.
func (m *Manifest) Validate() error {
	if m.Version != CurrentVersion {
		return fmt.Errorf("%w: %d", ErrIncompatibleVersion, m.Version)
	}
	seen := make(map[string]struct{}, len(m.Segments))
	var next uint64
	for i, s := range m.Segments {
		if s.Name == "" || s.Path == "" {
			return fmt.Errorf("%w: segment %d has no name", ErrInvalid, i)
		}
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("%w: duplicate segment %s", ErrInvalid, s.Name)
		}
		seen[s.Name] = struct{}{}
		if uint64(s.DocBase) < next {
			return fmt.Errorf("%w: segment %s doc base %d overlaps previous segment", ErrInvalid, s.Name, s.DocBase)
		}
		next = uint64(s.DocBase) + uint64(s.MaxDoc)
	}
	if next > uint64(m.NextDoc) {
		return fmt.Errorf("%w: segments reach doc %d past next_doc %d", ErrInvalid, next, m.NextDoc)
	}
	return nil
}

// Store manages manifest blobs and atomic updates of CURRENT.
type Store struct {
	store blobstore.BlobStore
	mu    sync.Mutex
}

// NewStore creates a new manifest store.
func NewStore(store blobstore.BlobStore) *Store {
	return &Store{store: store}
}

func versionFile(id uint64) string {
	return fmt.Sprintf("%s-%06d.json", ManifestFileName, id)
}

// Load loads the current manifest.
func (s *Store) Load(ctx context.Context) (*Manifest, error) {
	return s.LoadVersion(ctx, 0)
}

// LoadVersion loads a specific version ID. 0 means latest.
func (s *Store) LoadVersion(ctx context.Context, versionID uint64) (*Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := versionFile(versionID)
	if versionID == 0 {
		current, err := blobstore.Get(ctx, s.store, CurrentFileName)
		if err != nil {
			if errors.Is(err, blobstore.ErrNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		name = strings.TrimSpace(string(current))
	}
	return s.read(ctx, name)
}

func (s *Store) read(ctx context.Context, name string) (*Manifest, error) {
	content, err := blobstore.Get(ctx, s.store, name)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("failed to open manifest %s: %w", name, err)
	}

	m := &Manifest{}
	if err := json.Unmarshal(content, m); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalid, name, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// ListVersions returns the IDs of all stored manifest versions, ascending.
func (s *Store) ListVersions(ctx context.Context) ([]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := s.store.List(ctx, ManifestFileName+"-")
	if err != nil {
		return nil, err
	}
	var ids []uint64
	for _, f := range files {
		var id uint64
		if _, err := fmt.Sscanf(f, ManifestFileName+"-%d.json", &id); err != nil || versionFile(id) != f {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Save assigns m the next version ID, writes it and makes it current.
func (s *Store) Save(ctx context.Context, m *Manifest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m.Version = CurrentVersion
	if err := m.Validate(); err != nil {
		return err
	}

	prev := m.ID
	m.ID++
	m.CreatedAt = time.Now()

	content, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		m.ID = prev
		return err
	}

	filename := versionFile(m.ID)
	if err := s.store.Put(ctx, filename, content); err != nil {
		m.ID = prev
		return err
	}
	// Put is atomic on every store, so CURRENT never names a partial blob.
	if err := s.store.Put(ctx, CurrentFileName, []byte(filename)); err != nil {
		m.ID = prev
		return err
	}
	return nil
}

// DeleteVersion deletes the manifest file for the given version.
func (s *Store) DeleteVersion(ctx context.Context, versionID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.Delete(ctx, versionFile(versionID))
}
