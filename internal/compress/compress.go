// Package compress implements the block compression and checksums used by
// segment files.
//
// A compressed stream is a sequence of blocks, each with an 8-byte header:
//
//	[uncompressed size uint32][compressed size uint32][data...]
//
// A compressed size of zero marks a block stored verbatim, which is
// chosen whenever compression saves less than ten percent.
package compress

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Type is a block compression algorithm.
type Type uint8

const (
	// None stores blocks verbatim.
	None Type = 0
	// LZ4 favors speed.
	LZ4 Type = 1
	// ZSTD favors ratio.
	ZSTD Type = 2
)

// DefaultBlockSize is the uncompressed size of a block.
const DefaultBlockSize = 256 * 1024

// ErrCorruptBlock is returned for blocks that fail to decode.
var ErrCorruptBlock = errors.New("compress: corrupt block")

func (t Type) String() string {
	switch t {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case ZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// Valid reports whether t is a known algorithm.
func (t Type) Valid() bool { return t <= ZSTD }

// ParseType parses "none", "lz4" or "zstd". The empty string is None.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return None, nil
	case "lz4":
		return LZ4, nil
	case "zstd":
		return ZSTD, nil
	default:
		return None, fmt.Errorf("compress: unknown type %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("compress: unknown type %d", uint8(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(text []byte) error {
	v, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

const blockHeaderSize = 8

// AppendBlock appends data as one block to dst.
func AppendBlock(dst, data []byte, t Type) ([]byte, error) {
	var compressed []byte
	switch t {
	case None:
	case LZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return dst, fmt.Errorf("compress: lz4: %w", err)
		}
		compressed = buf[:n]
	case ZSTD:
		enc := getZstdEncoder()
		compressed = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	default:
		return dst, fmt.Errorf("compress: unknown type %d", uint8(t))
	}

	var hdr [blockHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:], uint32(len(data)))
	if len(compressed) == 0 || float64(len(compressed)) > float64(len(data))*0.9 {
		dst = append(dst, hdr[:]...)
		return append(dst, data...), nil
	}
	binary.LittleEndian.PutUint32(hdr[4:], uint32(len(compressed)))
	dst = append(dst, hdr[:]...)
	return append(dst, compressed...), nil
}

// ReadBlock decodes the block at the start of data. It returns the block
// contents and the number of bytes consumed.
func ReadBlock(data []byte, t Type) ([]byte, int, error) {
	if len(data) < blockHeaderSize {
		return nil, 0, fmt.Errorf("%w: short header", ErrCorruptBlock)
	}
	rawSize := binary.LittleEndian.Uint32(data[0:])
	size := binary.LittleEndian.Uint32(data[4:])

	if size == 0 {
		end := blockHeaderSize + uint64(rawSize)
		if uint64(len(data)) < end {
			return nil, 0, fmt.Errorf("%w: block extends beyond data", ErrCorruptBlock)
		}
		return data[blockHeaderSize:end], int(end), nil
	}

	end := blockHeaderSize + uint64(size)
	if uint64(len(data)) < end {
		return nil, 0, fmt.Errorf("%w: compressed block extends beyond data", ErrCorruptBlock)
	}
	payload := data[blockHeaderSize:end]

	switch t {
	case LZ4:
		out := make([]byte, rawSize)
		n, err := lz4.UncompressBlock(payload, out)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: lz4: %w", ErrCorruptBlock, err)
		}
		if uint32(n) != rawSize {
			return nil, 0, fmt.Errorf("%w: decompressed size mismatch", ErrCorruptBlock)
		}
		return out, int(end), nil
	case ZSTD:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)
		out, err := dec.DecodeAll(payload, make([]byte, 0, rawSize))
		if err != nil {
			return nil, 0, fmt.Errorf("%w: zstd: %w", ErrCorruptBlock, err)
		}
		if uint32(len(out)) != rawSize {
			return nil, 0, fmt.Errorf("%w: decompressed size mismatch", ErrCorruptBlock)
		}
		return out, int(end), nil
	default:
		return nil, 0, fmt.Errorf("%w: compressed block with type %s", ErrCorruptBlock, t)
	}
}

// BlockWriter buffers writes and emits them as compressed blocks.
type BlockWriter struct {
	w         io.Writer
	t         Type
	blockSize int
	buf       *bytes.Buffer
	out       []byte
	written   int64
}

// NewBlockWriter creates a BlockWriter. blockSize <= 0 selects DefaultBlockSize.
func NewBlockWriter(w io.Writer, t Type, blockSize int) *BlockWriter {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return &BlockWriter{
		w:         w,
		t:         t,
		blockSize: blockSize,
		buf:       bytes.NewBuffer(make([]byte, 0, blockSize)),
	}
}

// Write implements io.Writer.
func (b *BlockWriter) Write(p []byte) (int, error) {
	total := 0
	for len(p) > 0 {
		space := b.blockSize - b.buf.Len()
		if space <= 0 {
			if err := b.flushBlock(); err != nil {
				return total, err
			}
			space = b.blockSize
		}
		n := min(len(p), space)
		b.buf.Write(p[:n])
		total += n
		p = p[n:]
	}
	return total, nil
}

func (b *BlockWriter) flushBlock() error {
	if b.buf.Len() == 0 {
		return nil
	}
	var err error
	b.out, err = AppendBlock(b.out[:0], b.buf.Bytes(), b.t)
	if err != nil {
		return err
	}
	n, err := b.w.Write(b.out)
	b.written += int64(n)
	if err != nil {
		return err
	}
	b.buf.Reset()
	return nil
}

// Close flushes the last partial block. It does not close the underlying writer.
func (b *BlockWriter) Close() error {
	return b.flushBlock()
}

// BytesWritten returns the number of bytes emitted so far.
func (b *BlockWriter) BytesWritten() int64 { return b.written }

// DecompressAll decodes a complete block stream.
func DecompressAll(data []byte, t Type) ([]byte, error) {
	var out []byte
	for len(data) > 0 {
		block, n, err := ReadBlock(data, t)
		if err != nil {
			return nil, err
		}
		out = append(out, block...)
		data = data[n:]
	}
	return out, nil
}
