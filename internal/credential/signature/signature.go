// Package signature verifies degree signatures against registered university keys.
//
// Public keys are accepted in three forms:
//
//   - a PEM "PUBLIC KEY" block or a JWK document (RSA, ECDSA or Ed25519);
//     the signature covers the message itself, hashed with SHA-256 for RSA
//     (PKCS #1 v1.5) and ECDSA (ASN.1), unhashed for Ed25519.
//   - "ed25519:<base64>", signature over SHA-256(message).
//   - "dilithium3:<base64>", Dilithium mode 3 signature over SHA-256(message).
//
// Tagged keys may name a different digest as "<alg>/<digest>:<base64>" with
// digest one of sha256, sha512 or sha3-256. Signatures are base64 (standard,
// raw or URL alphabet), or hex when written as "hex:<digits>".
package signature

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"golang.org/x/crypto/sha3"
)

var (
	errUnsupportedKey    = errors.New("unsupported public key")
	errUnsupportedDigest = errors.New("unsupported digest")
)

// Verifier checks signatures. The zero value is ready to use.
type Verifier struct{}

// NewVerifier returns a Verifier.
func NewVerifier() *Verifier {
	return &Verifier{}
}

// Verify reports whether signature is a valid signature of message under
// publicKey. Any key or signature that cannot be parsed verifies as false.
func (v *Verifier) Verify(signature, message, publicKey string) bool {
	ok, err := v.verify(signature, []byte(message), strings.TrimSpace(publicKey))
	return err == nil && ok
}

func (v *Verifier) verify(signature string, message []byte, publicKey string) (bool, error) {
	sig, err := decodeSignature(signature)
	if err != nil {
		return false, err
	}
	if alg, digestAlg, enc, ok := parseTagged(publicKey); ok {
		return verifyTagged(alg, digestAlg, enc, sig, message)
	}
	return verifyStandard(publicKey, sig, message)
}

// parseTagged splits "<alg>[/<digest>]:<base64>".
func parseTagged(publicKey string) (alg, digestAlg, enc string, ok bool) {
	head, enc, found := strings.Cut(publicKey, ":")
	if !found || strings.HasPrefix(publicKey, "-----") || strings.HasPrefix(publicKey, "{") {
		return "", "", "", false
	}
	alg, digestAlg, _ = strings.Cut(head, "/")
	if digestAlg == "" {
		digestAlg = "sha256"
	}
	switch alg {
	case "ed25519", "dilithium3":
		return alg, digestAlg, enc, true
	default:
		return "", "", "", false
	}
}

func verifyTagged(alg, digestAlg, enc string, sig, message []byte) (bool, error) {
	pub, err := decodeBase64(enc)
	if err != nil {
		return false, fmt.Errorf("decode %s key: %w", alg, err)
	}
	digest, err := digestFor(digestAlg, message)
	if err != nil {
		return false, err
	}

	switch alg {
	case "ed25519":
		if len(pub) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
			return false, nil
		}
		return ed25519.Verify(ed25519.PublicKey(pub), digest, sig), nil
	case "dilithium3":
		var pk mode3.PublicKey
		if err := pk.UnmarshalBinary(pub); err != nil {
			return false, fmt.Errorf("decode dilithium3 key: %w", err)
		}
		if len(sig) != mode3.SignatureSize {
			return false, nil
		}
		return mode3.Verify(&pk, digest, sig), nil
	default:
		return false, errUnsupportedKey
	}
}

func verifyStandard(publicKey string, sig, message []byte) (bool, error) {
	key, err := jwk.ParseKey([]byte(publicKey), jwk.WithPEM(strings.HasPrefix(publicKey, "-----")))
	if err != nil {
		return false, fmt.Errorf("parse public key: %w", err)
	}
	var raw any
	if err := key.Raw(&raw); err != nil {
		return false, fmt.Errorf("extract public key: %w", err)
	}

	switch pub := raw.(type) {
	case *rsa.PublicKey:
		digest := sha256.Sum256(message)
		return rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], sig) == nil, nil
	case *ecdsa.PublicKey:
		digest := sha256.Sum256(message)
		return ecdsa.VerifyASN1(pub, digest[:], sig), nil
	case ed25519.PublicKey:
		if len(sig) != ed25519.SignatureSize {
			return false, nil
		}
		return ed25519.Verify(pub, message, sig), nil
	default:
		return false, fmt.Errorf("%w: %T", errUnsupportedKey, raw)
	}
}

func digestFor(alg string, message []byte) ([]byte, error) {
	switch alg {
	case "sha256":
		s := sha256.Sum256(message)
		return s[:], nil
	case "sha512":
		s := sha512.Sum512(message)
		return s[:], nil
	case "sha3-256":
		s := sha3.Sum256(message)
		return s[:], nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnsupportedDigest, alg)
	}
}

// An untagged signature made only of hex digits is also valid base64, so hex
// has to be asked for.
const hexPrefix = "hex:"

func decodeSignature(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("empty signature")
	}
	if digits, ok := strings.CutPrefix(s, hexPrefix); ok {
		return hex.DecodeString(digits)
	}
	return decodeBase64(s)
}

func decodeBase64(s string) ([]byte, error) {
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		if b, err := enc.DecodeString(s); err == nil {
			return b, nil
		}
	}
	return nil, errors.New("invalid base64")
}
