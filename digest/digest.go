package digest

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/minio/sha256-simd"
)

// Supported digest algorithms and the candidate matching predicate

type Algorithm uint8

const (
	MD5 Algorithm = iota + 1
	SHA256
)

var (
	ErrUnsupportedLength = errors.New("unsupported digest length")
	ErrNotHex            = errors.New("digest is not hexadecimal")
)

func (alg Algorithm) String() string {
	switch alg {
	case MD5:
		return "MD5"
	case SHA256:
		return "SHA256"
	}
	return fmt.Sprintf("Algorithm(%d)", uint8(alg))
}

// Length of the algorithm's digest when hex encoded
func (alg Algorithm) HexLen() int {
	switch alg {
	case MD5:
		return md5.Size * 2
	case SHA256:
		return sha256.Size * 2
	}
	return 0
}

// Infer the algorithm from the length of a hex digest
func AlgorithmForHex(hexDigest string) (Algorithm, error) {
	switch len(hexDigest) {
	case MD5.HexLen():
		return MD5, nil
	case SHA256.HexLen():
		return SHA256, nil
	}
	return 0, fmt.Errorf("%w: (%d) hex chars", ErrUnsupportedLength, len(hexDigest))
}

// ParseTarget normalizes a raw hash line (trimmed, lowercased) and infers its algorithm
func ParseTarget(line string) (string, Algorithm, error) {
	h := strings.ToLower(strings.TrimSpace(line))

	alg, err := AlgorithmForHex(h)
	if err != nil {
		return h, 0, err
	}

	for i := 0; i < len(h); i++ {
		c := h[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return h, 0, fmt.Errorf("%w: unexpected %q at offset (%d)", ErrNotHex, c, i)
		}
	}

	return h, alg, nil
}

// Targets maps lowercase hex digests to their algorithm. Built once, read-only afterwards
type Targets map[string]Algorithm

// Add parses line and inserts it, returning the normalized digest
func (t Targets) Add(line string) (string, error) {
	h, alg, err := ParseTarget(line)
	if err != nil {
		return h, err
	}

	t[h] = alg
	return h, nil
}

// A recovered plaintext
type Found struct {
	Digest    string
	Plaintext string
	Algorithm Algorithm
}

// Match hashes candidate with MD5, then SHA256, returning the first digest present in targets.
// A candidate whose MD5 and SHA256 are both targets is only reported under MD5 here
func Match(candidate []byte, targets Targets) (Found, bool) {
	var buf [sha256.Size * 2]byte

	m := md5.Sum(candidate)
	hex.Encode(buf[:], m[:])
	if alg, ok := targets[string(buf[:md5.Size*2])]; ok {
		return Found{Digest: string(buf[:md5.Size*2]), Plaintext: string(candidate), Algorithm: alg}, true
	}

	s := sha256.Sum256(candidate)
	hex.Encode(buf[:], s[:])
	if alg, ok := targets[string(buf[:])]; ok {
		return Found{Digest: string(buf[:]), Plaintext: string(candidate), Algorithm: alg}, true
	}

	return Found{}, false
}

// Hex digest of data under alg
func Sum(alg Algorithm, data []byte) string {
	switch alg {
	case MD5:
		s := md5.Sum(data)
		return hex.EncodeToString(s[:])
	case SHA256:
		s := sha256.Sum256(data)
		return hex.EncodeToString(s[:])
	}
	return ""
}
