// Package seal signs integrity digests for tamper evidence.
//
// A Seal binds a digest.Digest to a signing key; a receiver holding the
// public key can verify that a shipped record's digest was produced by the
// sender and not substituted in transit. Supported schemes: ed25519 and
// dilithium3 (post-quantum).
package seal

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/cloudflare/circl/sign/dilithium/mode3"

	"xdao.co/logship/digest"
)

// Supported signature algorithms.
const (
	AlgEd25519    = "ed25519"
	AlgDilithium3 = "dilithium3"
)

// ErrBadSignature is returned by Verify when the signature does not match.
var ErrBadSignature = errors.New("seal: signature invalid")

// Seal is a signature over a digest's raw bytes.
type Seal struct {
	Alg       string
	Signature []byte
}

// Encoded returns the signature in standard padded base64, like digests.
func (s Seal) Encoded() string {
	return base64.StdEncoding.EncodeToString(s.Signature)
}

// SignEd25519 signs d's raw bytes with an ed25519 private key.
func SignEd25519(d digest.Digest, priv ed25519.PrivateKey) Seal {
	return Seal{Alg: AlgEd25519, Signature: ed25519.Sign(priv, d.Raw)}
}

// SignDilithium3 signs d's raw bytes with a dilithium3 private key.
func SignDilithium3(d digest.Digest, priv *mode3.PrivateKey) (Seal, error) {
	if priv == nil {
		return Seal{}, errors.New("seal: missing private key")
	}
	sig := make([]byte, mode3.SignatureSize)
	mode3.SignTo(priv, d.Raw, sig)
	return Seal{Alg: AlgDilithium3, Signature: sig}, nil
}

// Verify checks the seal against d using pub, the raw public key bytes for
// the seal's algorithm.
func (s Seal) Verify(d digest.Digest, pub []byte) error {
	switch s.Alg {
	case AlgEd25519:
		if len(pub) != ed25519.PublicKeySize {
			return fmt.Errorf("seal: invalid ed25519 public key length %d", len(pub))
		}
		if len(s.Signature) != ed25519.SignatureSize {
			return fmt.Errorf("seal: invalid ed25519 signature length %d", len(s.Signature))
		}
		if !ed25519.Verify(ed25519.PublicKey(pub), d.Raw, s.Signature) {
			return ErrBadSignature
		}
		return nil
	case AlgDilithium3:
		var pk mode3.PublicKey
		if err := pk.UnmarshalBinary(pub); err != nil {
			return fmt.Errorf("seal: invalid dilithium3 public key: %w", err)
		}
		if len(s.Signature) != mode3.SignatureSize {
			return fmt.Errorf("seal: invalid dilithium3 signature length %d", len(s.Signature))
		}
		if !mode3.Verify(&pk, d.Raw, s.Signature) {
			return ErrBadSignature
		}
		return nil
	default:
		return fmt.Errorf("seal: unsupported algorithm %q", s.Alg)
	}
}

// Equal reports whether two seals are identical.
func (s Seal) Equal(o Seal) bool {
	return s.Alg == o.Alg && bytes.Equal(s.Signature, o.Signature)
}

// GenerateDilithium3Keypair returns a new dilithium3 keypair.
func GenerateDilithium3Keypair(rand io.Reader) (*mode3.PublicKey, *mode3.PrivateKey, error) {
	return mode3.GenerateKey(rand)
}
