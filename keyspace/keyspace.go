package keyspace

import (
	"errors"
	"fmt"
	"iter"
	"math/bits"
)

// Fixed-length candidate enumeration over a fixed alphabet

const (
	DefaultCharset = "abcdefghijklmnopqrstuvwxyz"
	DefaultLength  = 5
)

var (
	ErrEmptyAlphabet     = errors.New("alphabet is empty")
	ErrDuplicateChar     = errors.New("alphabet contains duplicate characters")
	ErrInvalidLength     = errors.New("candidate length must be at least 1")
	ErrOverflow          = errors.New("keyspace size overflows uint64")
	ErrWrongLength       = errors.New("candidate has the wrong length")
	ErrCharNotInAlphabet = errors.New("candidate contains a character outside the alphabet")
)

// Alphabet is an ordered set of distinct single-byte characters
type Alphabet []byte

// Parse an alphabet, keeping the given order. Unlike a charset flag, duplicates are an error
// because they would break the index <-> candidate bijection
func NewAlphabet(chars string) (Alphabet, error) {
	if chars == "" {
		return nil, ErrEmptyAlphabet
	}

	var seen [256]bool
	for i := 0; i < len(chars); i++ {
		if seen[chars[i]] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateChar, chars[i])
		}
		seen[chars[i]] = true
	}

	return Alphabet(chars), nil
}

func (a Alphabet) String() string {
	return string(a)
}

type Keyspace struct {
	alphabet Alphabet
	length   int
	size     uint64

	// Reverse lookup for Encode, -1 for bytes outside the alphabet
	position [256]int16
}

func New(chars string, length int) (*Keyspace, error) {
	alphabet, err := NewAlphabet(chars)
	if err != nil {
		return nil, err
	}
	if length < 1 {
		return nil, fmt.Errorf("%w, got (%d)", ErrInvalidLength, length)
	}

	base := uint64(len(alphabet))
	var size uint64 = 1
	for i := 0; i < length; i++ {
		hi, lo := bits.Mul64(size, base)
		if hi != 0 {
			return nil, fmt.Errorf("%w: %d^%d", ErrOverflow, base, length)
		}
		size = lo
	}

	ks := &Keyspace{
		alphabet: alphabet,
		length:   length,
		size:     size,
	}
	for i := range ks.position {
		ks.position[i] = -1
	}
	for i, c := range alphabet {
		ks.position[c] = int16(i)
	}

	return ks, nil
}

// Lowercase a-z, length 5
func Default() *Keyspace {
	ks, err := New(DefaultCharset, DefaultLength)
	if err != nil {
		panic(err)
	}
	return ks
}

func (ks *Keyspace) Alphabet() Alphabet { return ks.alphabet }
func (ks *Keyspace) Length() int        { return ks.length }

// Total number of candidates, |alphabet|^length
func (ks *Keyspace) Size() uint64 { return ks.size }

// Decode writes the candidate for index into dst (which must hold at least Length() bytes) and
// returns dst[:Length()]. The index is read as a base-|alphabet| number whose least significant
// digit is the last character, so 0 is all first-char and Size()-1 is all last-char.
//
// index >= Size() is not checked, callers only ever pass indices from a closed range.
func (ks *Keyspace) Decode(index uint64, dst []byte) []byte {
	dst = dst[:ks.length]
	base := uint64(len(ks.alphabet))

	for i := ks.length - 1; i >= 0; i-- {
		dst[i] = ks.alphabet[index%base]
		index /= base
	}

	return dst
}

func (ks *Keyspace) Candidate(index uint64) string {
	return string(ks.Decode(index, make([]byte, ks.length)))
}

// Encode is the inverse of Decode
func (ks *Keyspace) Encode(candidate []byte) (uint64, error) {
	if len(candidate) != ks.length {
		return 0, fmt.Errorf("%w: expected (%d), got (%d)", ErrWrongLength, ks.length, len(candidate))
	}

	base := uint64(len(ks.alphabet))
	var index uint64
	for _, c := range candidate {
		pos := ks.position[c]
		if pos < 0 {
			return 0, fmt.Errorf("%w: %q", ErrCharNotInAlphabet, c)
		}
		index = index*base + uint64(pos)
	}

	return index, nil
}

// Range yields every index in [start, end) with its decoded candidate, in order. The candidate
// slice is reused between iterations, copy it if it needs to outlive the loop body
func (ks *Keyspace) Range(start, end uint64) iter.Seq2[uint64, []byte] {
	if end > ks.size {
		end = ks.size
	}

	return func(yield func(uint64, []byte) bool) {
		buf := make([]byte, ks.length)
		for i := start; i < end; i++ {
			if !yield(i, ks.Decode(i, buf)) {
				return
			}
		}
	}
}
