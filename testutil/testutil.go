package testutil

import (
	"math"
	"math/rand"
	"strconv"
	"strings"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the seed used to initialize the RNG.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns, as an int, a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Shuffle pseudo-randomizes the order of s.
func (r *RNG) Shuffle(s []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
}

const (
	letters    = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	identChars = letters + "0123456789-"
	buildChars = identChars + ".+_~!"
)

// Version returns a random grammar-valid version string.
//
// The generator deliberately favors small alphabets and short components
// so that random pairs share prefixes often: leading zeros, hyphens inside
// identifiers, mixed digit runs and build suffixes all show up.
func (r *RNG) Version() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.versionLocked(false)
}

// SemVer returns a random version that conforms to SemVer 2.0.0:
// exactly three components, no leading zeros in numeric parts.
func (r *RNG) SemVer() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.versionLocked(true)
}

// Versions returns n random grammar-valid version strings.
func (r *RNG) Versions(n int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, n)
	for i := range out {
		out[i] = r.versionLocked(false)
	}
	return out
}

func (r *RNG) versionLocked(strict bool) string {
	var sb strings.Builder

	parts := 3
	if !strict {
		parts = 1 + r.rand.Intn(5)
	}
	for i := range parts {
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(r.numberLocked(strict))
	}

	if r.rand.Intn(2) == 0 {
		sb.WriteByte('-')
		ids := 1 + r.rand.Intn(3)
		for i := range ids {
			if i > 0 {
				sb.WriteByte('.')
			}
			if r.rand.Intn(3) == 0 {
				sb.WriteString(r.numberLocked(strict))
			} else {
				sb.WriteString(r.identifierLocked())
			}
		}
	}

	if r.rand.Intn(4) == 0 {
		sb.WriteByte('+')
		if strict {
			sb.WriteString(r.identifierLocked())
			if r.rand.Intn(2) == 0 {
				sb.WriteByte('.')
				sb.WriteString(r.identifierLocked())
			}
		} else {
			n := 1 + r.rand.Intn(6)
			for range n {
				sb.WriteByte(buildChars[r.rand.Intn(len(buildChars))])
			}
		}
	}
	return sb.String()
}

func (r *RNG) numberLocked(strict bool) string {
	switch r.rand.Intn(6) {
	case 0:
		return "0"
	case 1:
		if !strict {
			return "0" + strconv.Itoa(r.rand.Intn(20))
		}
	case 2:
		return strconv.Itoa(r.rand.Intn(1_000_000))
	}
	return strconv.Itoa(r.rand.Intn(12))
}

func (r *RNG) identifierLocked() string {
	n := 1 + r.rand.Intn(6)
	b := make([]byte, n)
	for i := range b {
		b[i] = identChars[r.rand.Intn(len(identChars))]
	}
	// Keep the identifier alphanumeric; purely numeric ones come from numberLocked.
	if strings.Trim(string(b), "0123456789") == "" {
		b[r.rand.Intn(n)] = letters[r.rand.Intn(len(letters))]
	}
	return string(b)
}

// Zipf returns a value in [0, n) following a Zipfian distribution with exponent s.
func (r *RNG) Zipf(n int, s float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n <= 1 {
		return 0
	}
	var norm float64
	for i := 1; i <= n; i++ {
		norm += 1.0 / math.Pow(float64(i), s)
	}
	target := r.rand.Float64() * norm
	var acc float64
	for i := 1; i <= n; i++ {
		acc += 1.0 / math.Pow(float64(i), s)
		if acc >= target {
			return i - 1
		}
	}
	return n - 1
}

// SkewedSample draws n values from pool with a Zipfian skew, so that a few
// values repeat across many documents.
func (r *RNG) SkewedSample(pool []string, n int, s float64) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = pool[r.Zipf(len(pool), s)]
	}
	return out
}
