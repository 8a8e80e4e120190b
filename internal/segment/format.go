package segment

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/versionfield/bitmap"
	"github.com/hupe1980/versionfield/internal/compress"
	"github.com/hupe1980/versionfield/internal/numeric"
)

const (
	// Magic identifies a segment file ("VFS1").
	Magic = "VFS1"
	// Version is the current format version.
	Version = 1

	headerSize  = 16
	trailerSize = 4
)

var (
	// ErrCorruptSegment is returned for segment data that fails validation.
	ErrCorruptSegment = errors.New("segment: corrupt data")
	// ErrUnsupportedVersion is returned for segments written by a newer format.
	ErrUnsupportedVersion = errors.New("segment: unsupported format version")
)

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorruptSegment, fmt.Sprintf(format, args...))
}

// header layout:
//
//	[0:4]   magic
//	[4:6]   version uint16
//	[6]     compression
//	[7]     reserved
//	[8:12]  maxDoc uint32
//	[12:16] numTerms uint32
func (s *Segment) header(t compress.Type) []byte {
	h := make([]byte, headerSize)
	copy(h[0:4], Magic)
	binary.LittleEndian.PutUint16(h[4:], Version)
	h[6] = byte(t)
	binary.LittleEndian.PutUint32(h[8:], s.maxDoc)
	binary.LittleEndian.PutUint32(h[12:], uint32(len(s.terms)))
	return h
}

// WriteTo writes s with body compression t.
func (s *Segment) WriteTo(w io.Writer, t compress.Type) (int64, error) {
	if !t.Valid() {
		return 0, fmt.Errorf("segment: unknown compression %d", uint8(t))
	}
	cw := compress.NewChecksumWriter(w)
	if _, err := cw.Write(s.header(t)); err != nil {
		return cw.Len(), err
	}

	bw := compress.NewBlockWriter(cw, t, 0)
	if err := s.writeBody(bw); err != nil {
		return cw.Len(), err
	}
	if err := bw.Close(); err != nil {
		return cw.Len(), err
	}

	var trailer [trailerSize]byte
	binary.LittleEndian.PutUint32(trailer[:], cw.Sum())
	n, err := w.Write(trailer[:])
	return cw.Len() + int64(n), err
}

// Marshal returns the encoded segment.
func (s *Segment) Marshal(t compress.Type) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type bodyWriter struct {
	w   io.Writer
	buf [binary.MaxVarintLen64]byte
	err error
}

func (b *bodyWriter) uvarint(v uint64) {
	n := binary.PutUvarint(b.buf[:], v)
	b.write(b.buf[:n])
}

func (b *bodyWriter) write(p []byte) {
	if b.err == nil {
		_, b.err = b.w.Write(p)
	}
}

// section writes a length-prefixed section produced by fn.
func (b *bodyWriter) section(fn func(w io.Writer) error) {
	if b.err != nil {
		return
	}
	var sec bytes.Buffer
	if err := fn(&sec); err != nil {
		b.err = err
		return
	}
	b.uvarint(uint64(sec.Len()))
	b.write(sec.Bytes())
}

func (s *Segment) writeBody(w io.Writer) error {
	bw := &bodyWriter{w: w}

	// Terms, front coded against the previous term.
	var prev []byte
	for _, t := range s.terms {
		shared := commonPrefix(prev, t)
		bw.uvarint(uint64(shared))
		bw.uvarint(uint64(len(t) - shared))
		bw.write(t[shared:])
		prev = t
	}

	for _, p := range s.postings {
		bw.section(func(w io.Writer) error {
			_, err := p.WriteTo(w)
			return err
		})
	}

	// Doc values: per doc the ordinal count then ordinal deltas.
	for doc := range s.maxDoc {
		ords := s.DocOrds(doc)
		bw.uvarint(uint64(len(ords)))
		last := 0
		for _, o := range ords {
			bw.uvarint(uint64(o - last))
			last = o
		}
	}

	bw.section(func(w io.Writer) error {
		_, err := s.num.WriteTo(w)
		return err
	})
	for _, bm := range s.pre {
		bw.section(func(w io.Writer) error {
			_, err := bm.WriteTo(w)
			return err
		})
	}
	return bw.err
}

func commonPrefix(a, b []byte) int {
	n := min(len(a), len(b))
	for i := range n {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

// Read decodes a segment named id from data. The segment does not retain data.
func Read(id string, data []byte) (*Segment, error) {
	if len(data) < headerSize+trailerSize {
		return nil, corrupt("%d bytes is too short", len(data))
	}
	if string(data[0:4]) != Magic {
		return nil, corrupt("bad magic %q", data[0:4])
	}
	if v := binary.LittleEndian.Uint16(data[4:]); v != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}

	payload := data[:len(data)-trailerSize]
	if err := compress.Verify(payload, binary.LittleEndian.Uint32(data[len(data)-trailerSize:])); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptSegment, err)
	}

	t := compress.Type(data[6])
	if !t.Valid() {
		return nil, corrupt("unknown compression %d", data[6])
	}
	body, err := compress.DecompressAll(payload[headerSize:], t)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptSegment, err)
	}

	s := &Segment{
		id:     id,
		maxDoc: binary.LittleEndian.Uint32(data[8:]),
		num:    numeric.New(),
	}
	if err := s.readBody(body, int(binary.LittleEndian.Uint32(data[12:]))); err != nil {
		return nil, err
	}
	s.finish()
	return s, nil
}

type bodyReader struct {
	r *bytes.Reader
}

func (b *bodyReader) uvarint(what string) (uint64, error) {
	v, err := binary.ReadUvarint(b.r)
	if err != nil {
		return 0, corrupt("read %s: %v", what, err)
	}
	return v, nil
}

func (b *bodyReader) section(what string) (*bytes.Reader, error) {
	n, err := b.uvarint(what + " length")
	if err != nil {
		return nil, err
	}
	if n > uint64(b.r.Len()) {
		return nil, corrupt("%s length %d exceeds remaining %d bytes", what, n, b.r.Len())
	}
	p := make([]byte, n)
	if _, err := io.ReadFull(b.r, p); err != nil {
		return nil, corrupt("read %s: %v", what, err)
	}
	return bytes.NewReader(p), nil
}

func (s *Segment) readBody(body []byte, numTerms int) error {
	br := &bodyReader{r: bytes.NewReader(body)}
	if numTerms > len(body) || int(s.maxDoc) > len(body) {
		return corrupt("%d terms and %d docs in %d bytes", numTerms, s.maxDoc, len(body))
	}

	s.terms = make([][]byte, numTerms)
	var prev []byte
	for i := range s.terms {
		shared, err := br.uvarint("term prefix")
		if err != nil {
			return err
		}
		suffix, err := br.uvarint("term suffix")
		if err != nil {
			return err
		}
		if shared > uint64(len(prev)) || suffix > uint64(br.r.Len()) {
			return corrupt("term %d out of bounds", i)
		}
		t := make([]byte, int(shared)+int(suffix))
		copy(t, prev[:shared])
		if _, err := io.ReadFull(br.r, t[shared:]); err != nil {
			return corrupt("read term %d: %v", i, err)
		}
		if i > 0 && bytes.Compare(prev, t) >= 0 {
			return corrupt("term %d out of order", i)
		}
		s.terms[i] = t
		prev = t
	}

	s.postings = make([]*bitmap.Bitmap, numTerms)
	for i := range s.postings {
		sec, err := br.section("postings")
		if err != nil {
			return err
		}
		bm := bitmap.New()
		if _, err := bm.ReadFrom(sec); err != nil {
			return corrupt("postings %d: %v", i, err)
		}
		s.postings[i] = bm
	}

	perDoc := make([][]int, s.maxDoc)
	for doc := range perDoc {
		n, err := br.uvarint("doc value count")
		if err != nil {
			return err
		}
		if n > uint64(numTerms) {
			return corrupt("doc %d has %d values", doc, n)
		}
		ords := make([]int, n)
		last := uint64(0)
		for i := range ords {
			d, err := br.uvarint("doc value")
			if err != nil {
				return err
			}
			last += d
			if last >= uint64(numTerms) || (i > 0 && d == 0) {
				return corrupt("doc %d ordinal %d invalid", doc, last)
			}
			ords[i] = int(last)
		}
		perDoc[doc] = ords
	}
	s.setDocValues(perDoc)

	sec, err := br.section("numeric index")
	if err != nil {
		return err
	}
	if _, err := s.num.ReadFrom(sec); err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptSegment, err)
	}
	for i := range s.pre {
		sec, err := br.section("pre-release bitmap")
		if err != nil {
			return err
		}
		bm := bitmap.New()
		if _, err := bm.ReadFrom(sec); err != nil {
			return corrupt("pre-release bitmap: %v", err)
		}
		s.pre[i] = bm
	}
	if br.r.Len() != 0 {
		return corrupt("%d trailing bytes", br.r.Len())
	}
	return nil
}
