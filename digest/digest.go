// Package digest computes content-integrity digests and renders them using
// the standard RFC 4648 base64 alphabet. The URL-safe alphabet is never used:
// encoded digests must stay interoperable with external verifiers that expect
// "+" and "/".
package digest

import (
	"bytes"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Supported hash algorithms.
const (
	AlgSHA256   = "sha256"
	AlgSHA512   = "sha512"
	AlgSHA3_256 = "sha3-256"
)

// Digest is an immutable content digest.
type Digest struct {
	// Alg names the hash function that produced Raw.
	Alg string
	// Raw is the fixed-length hash output (32 bytes for sha256/sha3-256,
	// 64 for sha512).
	Raw []byte
}

// Sum digests payload with SHA-256, the library's default algorithm.
// Digesting is total: every byte payload, including empty, has a digest.
func Sum(payload []byte) Digest {
	s := sha256.Sum256(payload)
	return Digest{Alg: AlgSHA256, Raw: s[:]}
}

// SumAlg digests payload with the named algorithm.
// alg must be one of: sha256, sha512, sha3-256.
func SumAlg(alg string, payload []byte) (Digest, error) {
	switch alg {
	case AlgSHA256:
		s := sha256.Sum256(payload)
		return Digest{Alg: alg, Raw: s[:]}, nil
	case AlgSHA512:
		s := sha512.Sum512(payload)
		return Digest{Alg: alg, Raw: s[:]}, nil
	case AlgSHA3_256:
		s := sha3.Sum256(payload)
		return Digest{Alg: alg, Raw: s[:]}, nil
	default:
		return Digest{}, fmt.Errorf("digest: unsupported algorithm %q", alg)
	}
}

// Encoded returns the canonical base64 rendering of Raw: standard alphabet
// (A-Z a-z 0-9 + /) with "=" padding to a multiple of 4.
func (d Digest) Encoded() string {
	return base64.StdEncoding.EncodeToString(d.Raw)
}

// String returns "alg:encoded", the form accepted by Decode.
func (d Digest) String() string {
	return d.Alg + ":" + d.Encoded()
}

// Equal reports whether two digests have the same algorithm and raw bytes.
func (d Digest) Equal(o Digest) bool {
	return d.Alg == o.Alg && bytes.Equal(d.Raw, o.Raw)
}

// Verify recomputes the digest of payload under d.Alg and compares.
func (d Digest) Verify(payload []byte) error {
	got, err := SumAlg(d.Alg, payload)
	if err != nil {
		return err
	}
	if !got.Equal(d) {
		return fmt.Errorf("digest: mismatch (want %s, got %s)", d.Encoded(), got.Encoded())
	}
	return nil
}

// Decode parses the "alg:encoded" form produced by String.
// Standard padded base64 is preferred; raw (unpadded) standard base64 is
// accepted for tolerance. The URL-safe alphabet is rejected.
func Decode(s string) (Digest, error) {
	alg, enc, ok := strings.Cut(s, ":")
	if !ok {
		return Digest{}, fmt.Errorf("digest: missing algorithm prefix in %q", s)
	}
	switch alg {
	case AlgSHA256, AlgSHA512, AlgSHA3_256:
	default:
		return Digest{}, fmt.Errorf("digest: unsupported algorithm %q", alg)
	}
	raw, err := decodeBase64(enc)
	if err != nil {
		return Digest{}, fmt.Errorf("digest: invalid base64: %w", err)
	}
	if len(raw) != rawLen(alg) {
		return Digest{}, fmt.Errorf("digest: wrong length for %s (got %d bytes)", alg, len(raw))
	}
	return Digest{Alg: alg, Raw: raw}, nil
}

func rawLen(alg string) int {
	if alg == AlgSHA512 {
		return sha512.Size
	}
	return sha256.Size
}

func decodeBase64(s string) ([]byte, error) {
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}
