package snapshot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// ErrInvalidMask is returned when a bit string contains characters other than '0' and '1'.
var ErrInvalidMask = errors.New("invalid mask")

// empty stands in for the zero Mask. It is never mutated.
var empty = bitset.New(0)

// Mask is an immutable bit sequence of fixed length.
//
// Index 0 is the first bit. Bits at or past Len read as false, so masks of
// different lengths compare as if padded with trailing zeros.
type Mask struct {
	bits *bitset.BitSet
}

// MaskFromBools copies bits into a new Mask.
// The caller keeps ownership of bits; later writes to it are not observed.
func MaskFromBools(bits []bool) Mask {
	b := bitset.New(uint(len(bits)))
	for i, v := range bits {
		if v {
			b.Set(uint(i))
		}
	}
	return Mask{bits: b}
}

// ParseMask parses a bit string such as "0110".
// The first character is bit 0. An empty string yields an empty mask.
func ParseMask(s string) (Mask, error) {
	b := bitset.New(uint(len(s)))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '0':
		case '1':
			b.Set(uint(i))
		default:
			return Mask{}, fmt.Errorf("%w: unexpected %q at position %d", ErrInvalidMask, s[i], i)
		}
	}
	return Mask{bits: b}, nil
}

// MustParseMask is like ParseMask but panics on error. Intended for tests and literals.
func MustParseMask(s string) Mask {
	m, err := ParseMask(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Mask) set() *bitset.BitSet {
	if m.bits == nil {
		return empty
	}
	return m.bits
}

// Len returns the number of stored bits.
func (m Mask) Len() int {
	return int(m.set().Len())
}

// Bit returns the bit at i, or false when i is out of range.
func (m Mask) Bit(i int) bool {
	if i < 0 {
		return false
	}
	return m.set().Test(uint(i))
}

// Count returns the number of set bits.
func (m Mask) Count() int {
	return int(m.set().Count())
}

// Clone returns a Mask backed by fresh storage.
func (m Mask) Clone() Mask {
	if m.bits == nil {
		return Mask{}
	}
	return Mask{bits: m.bits.Clone()}
}

// Bools returns the bits as a newly allocated slice.
func (m Mask) Bools() []bool {
	out := make([]bool, m.Len())
	for i := range out {
		out[i] = m.Bit(i)
	}
	return out
}

// Equal reports whether m and o have the same length and bits.
func (m Mask) Equal(o Mask) bool {
	return m.set().Equal(o.set())
}

// SameLinks reports whether m and o describe the same set links,
// treating missing trailing bits as zero.
func (m Mask) SameLinks(o Mask) bool {
	return m.set().SymmetricDifferenceCardinality(o.set()) == 0
}

// String renders the mask as a bit string, bit 0 first.
func (m Mask) String() string {
	var sb strings.Builder
	n := m.Len()
	sb.Grow(n)
	for i := 0; i < n; i++ {
		if m.Bit(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
