package version

import (
	"bytes"
	"strings"
)

// Structural bytes of the encoded layout. Their relative order is what
// makes byte order equal version order:
// end-of-bytes < Terminator < Separator < NumericMarker < DigitRunMarker < '-' < identifier bytes.
const (
	Terminator     byte = 0x00
	Separator      byte = 0x01
	NumericMarker  byte = 0x02
	DigitRunMarker byte = 0x03
	HasPreRelease  byte = 0x04
	NoPreRelease   byte = 0x05

	lengthFlag byte = 0x80
)

// PrefixLength is the width of the fixed-size point prefix of an encoded version.
const PrefixLength = 16

// EncodedVersion is the immutable result of encoding one version string.
type EncodedVersion struct {
	b    []byte
	text string
	c    Components
}

// Bytes returns the encoded bytes. The slice must not be modified.
func (v EncodedVersion) Bytes() []byte { return v.b }

// Len returns the encoded length in bytes.
func (v EncodedVersion) Len() int { return len(v.b) }

// String returns the original version text.
func (v EncodedVersion) String() string { return v.text }

// Components returns the derived major/minor/patch/pre-release fields.
func (v EncodedVersion) Components() Components { return v.c }

// Compare orders two encoded versions by their bytes.
func (v EncodedVersion) Compare(other EncodedVersion) int {
	return bytes.Compare(v.b, other.b)
}

// Prefix returns the zero-padded fixed-width point prefix.
func (v EncodedVersion) Prefix() [PrefixLength]byte {
	return PointPrefix(v.b)
}

// PointPrefix truncates or zero-pads encoded bytes to PrefixLength.
func PointPrefix(b []byte) [PrefixLength]byte {
	var p [PrefixLength]byte
	copy(p[:], b)
	return p
}

// Encoder encodes and decodes version strings under one SortMode.
type Encoder struct {
	mode SortMode
}

// NewEncoder returns an Encoder for mode. Unknown modes encode like Lexicographic.
func NewEncoder(mode SortMode) *Encoder {
	return &Encoder{mode: mode}
}

// Mode returns the SortMode of e.
func (e *Encoder) Mode() SortMode { return e.mode }

// Encode validates s and returns its order-preserving encoding.
func (e *Encoder) Encode(s string) (EncodedVersion, error) {
	p, err := parse(s)
	if err != nil {
		return EncodedVersion{}, err
	}
	buf := make([]byte, 0, encodedSizeHint(s, p))
	buf = e.appendParsed(buf, p)
	return EncodedVersion{b: buf, text: s, c: p.components()}, nil
}

// AppendEncode appends the encoding of s to dst.
func (e *Encoder) AppendEncode(dst []byte, s string) ([]byte, error) {
	p, err := parse(s)
	if err != nil {
		return dst, err
	}
	return e.appendParsed(dst, p), nil
}

// Decode reconstructs the version text from encoded bytes.
func (e *Encoder) Decode(b []byte) (string, error) {
	v, err := e.DecodeVersion(b)
	if err != nil {
		return "", err
	}
	return v.text, nil
}

// DecodeVersion reconstructs the full EncodedVersion, including components, from bytes.
// The returned value copies b.
func (e *Encoder) DecodeVersion(b []byte) (EncodedVersion, error) {
	d := decoder{b: b, mode: e.mode}
	p, text, err := d.decode()
	if err != nil {
		return EncodedVersion{}, err
	}
	return EncodedVersion{b: bytes.Clone(b), text: text, c: p.components()}, nil
}

func (e *Encoder) appendParsed(dst []byte, p parsed) []byte {
	for i, c := range p.main {
		if i > 0 {
			dst = append(dst, Separator)
		}
		dst = appendDigits(dst, NumericMarker, c)
	}
	dst = append(dst, Terminator)

	if !p.hasPre {
		dst = append(dst, NoPreRelease)
	} else {
		dst = append(dst, HasPreRelease, '-')
		for i, id := range p.pre {
			if i > 0 {
				dst = append(dst, Separator)
			}
			if isNumeric(id) {
				dst = appendDigits(dst, NumericMarker, id)
			} else {
				dst = e.mode.appendIdentifier(dst, id)
			}
		}
		dst = append(dst, Terminator)
	}

	return append(dst, p.build...)
}

func appendDigits(dst []byte, marker byte, digits string) []byte {
	dst = append(dst, marker, lengthFlag|byte(len(digits)))
	return append(dst, digits...)
}

func encodedSizeHint(s string, p parsed) int {
	n := len(s) + 2*len(p.main) + 2
	if p.hasPre {
		n += 2*len(p.pre) + 2
	}
	return n
}

// decoder walks encoded bytes and rebuilds the text. It is strict: any
// byte sequence Encode could not have produced is rejected.
type decoder struct {
	b    []byte
	pos  int
	mode SortMode
	out  strings.Builder
}

func (d *decoder) corrupt(reason string) error {
	return &CorruptionError{Offset: d.pos, Reason: reason}
}

func (d *decoder) next() (byte, bool) {
	if d.pos >= len(d.b) {
		return 0, false
	}
	c := d.b[d.pos]
	d.pos++
	return c, true
}

func (d *decoder) peek() (byte, bool) {
	if d.pos >= len(d.b) {
		return 0, false
	}
	return d.b[d.pos], true
}

// readDigits reads a length byte and the digit string it announces.
func (d *decoder) readDigits() (string, error) {
	l, ok := d.next()
	if !ok {
		return "", d.corrupt("truncated length byte")
	}
	n := int(l &^ lengthFlag)
	if l&lengthFlag == 0 || n == 0 {
		return "", d.corrupt("invalid length byte")
	}
	if d.pos+n > len(d.b) {
		return "", d.corrupt("truncated digit string")
	}
	digits := d.b[d.pos : d.pos+n]
	for _, c := range digits {
		if !isDigit(c) {
			return "", d.corrupt("non-digit inside digit string")
		}
	}
	d.pos += n
	return string(digits), nil
}

func (d *decoder) decode() (parsed, string, error) {
	var p parsed
	d.out.Grow(len(d.b))

	for {
		m, ok := d.next()
		if !ok || m != NumericMarker {
			return p, "", d.corrupt("expected numeric marker in main version")
		}
		digits, err := d.readDigits()
		if err != nil {
			return p, "", err
		}
		d.out.WriteString(digits)
		p.main = append(p.main, digits)

		c, ok := d.next()
		if !ok {
			return p, "", d.corrupt("missing main version terminator")
		}
		if c == Separator {
			d.out.WriteByte('.')
			continue
		}
		if c != Terminator {
			return p, "", d.corrupt("unexpected byte in main version")
		}
		break
	}

	flag, ok := d.next()
	if !ok {
		return p, "", d.corrupt("missing pre-release flag")
	}
	switch flag {
	case NoPreRelease:
	case HasPreRelease:
		if c, ok := d.next(); !ok || c != '-' {
			return p, "", d.corrupt("missing pre-release dash")
		}
		d.out.WriteByte('-')
		p.hasPre = true
		if err := d.decodePreRelease(&p); err != nil {
			return p, "", err
		}
	default:
		return p, "", d.corrupt("invalid pre-release flag")
	}

	if d.pos < len(d.b) {
		build := d.b[d.pos:]
		if build[0] != '+' || len(build) == 1 {
			return p, "", d.corrupt("invalid build metadata")
		}
		for i, c := range build[1:] {
			if c < 0x20 {
				d.pos += i + 1
				return p, "", d.corrupt("control byte in build metadata")
			}
		}
		d.out.Write(build)
		p.build = string(build)
		d.pos = len(d.b)
	}

	return p, d.out.String(), nil
}

func (d *decoder) decodePreRelease(p *parsed) error {
	for {
		id, err := d.decodeIdentifier()
		if err != nil {
			return err
		}
		p.pre = append(p.pre, id)

		c, ok := d.next()
		if !ok {
			return d.corrupt("missing pre-release terminator")
		}
		if c == Separator {
			d.out.WriteByte('.')
			continue
		}
		if c != Terminator {
			return d.corrupt("unexpected byte in pre-release")
		}
		return nil
	}
}

func (d *decoder) decodeIdentifier() (string, error) {
	if c, ok := d.peek(); ok && c == NumericMarker {
		d.pos++
		digits, err := d.readDigits()
		if err != nil {
			return "", err
		}
		d.out.WriteString(digits)
		return digits, nil
	}

	var id []byte
	prevRun := false
	for {
		c, ok := d.peek()
		if !ok || c == Separator || c == Terminator {
			break
		}
		switch {
		case c == DigitRunMarker:
			if d.mode != NumericAware {
				return "", d.corrupt("digit run marker outside numeric-aware mode")
			}
			if prevRun {
				return "", d.corrupt("adjacent digit runs")
			}
			d.pos++
			digits, err := d.readDigits()
			if err != nil {
				return "", err
			}
			id = append(id, digits...)
			prevRun = true
		case isIdentChar(c):
			if isDigit(c) && d.mode == NumericAware {
				return "", d.corrupt("unmarked digit in numeric-aware identifier")
			}
			d.pos++
			id = append(id, c)
			prevRun = false
		default:
			return "", d.corrupt("invalid identifier byte")
		}
	}

	if len(id) == 0 {
		return "", d.corrupt("empty pre-release identifier")
	}
	s := string(id)
	if isNumeric(s) {
		return "", d.corrupt("numeric identifier without numeric marker")
	}
	d.out.WriteString(s)
	return s, nil
}
