package signature

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
)

// Tagged key algorithms.
const (
	AlgEd25519    = "ed25519"
	AlgDilithium3 = "dilithium3"
)

// KeyPair is an issuer key in the tagged form Verify accepts. PrivateKey is
// base64 and only ever leaves the issuer.
type KeyPair struct {
	Algorithm  string `json:"algorithm"`
	PublicKey  string `json:"public_key"`
	PrivateKey string `json:"private_key"`
}

// GenerateKeyPair creates a fresh tagged key pair for alg.
func GenerateKeyPair(alg string) (KeyPair, error) {
	switch alg {
	case AlgEd25519:
		pub, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return KeyPair{}, fmt.Errorf("generate ed25519 key: %w", err)
		}
		return KeyPair{
			Algorithm:  alg,
			PublicKey:  alg + ":" + base64.StdEncoding.EncodeToString(pub),
			PrivateKey: base64.StdEncoding.EncodeToString(priv),
		}, nil
	case AlgDilithium3:
		pub, priv, err := mode3.GenerateKey(rand.Reader)
		if err != nil {
			return KeyPair{}, fmt.Errorf("generate dilithium3 key: %w", err)
		}
		rawPub, err := pub.MarshalBinary()
		if err != nil {
			return KeyPair{}, fmt.Errorf("encode dilithium3 public key: %w", err)
		}
		rawPriv, err := priv.MarshalBinary()
		if err != nil {
			return KeyPair{}, fmt.Errorf("encode dilithium3 private key: %w", err)
		}
		return KeyPair{
			Algorithm:  alg,
			PublicKey:  alg + ":" + base64.StdEncoding.EncodeToString(rawPub),
			PrivateKey: base64.StdEncoding.EncodeToString(rawPriv),
		}, nil
	default:
		return KeyPair{}, fmt.Errorf("%w: %q", errUnsupportedKey, alg)
	}
}

// Sign signs SHA-256(message) with a private key from GenerateKeyPair and
// returns the base64 signature.
func Sign(alg, privateKey, message string) (string, error) {
	raw, err := decodeBase64(privateKey)
	if err != nil {
		return "", fmt.Errorf("decode %s private key: %w", alg, err)
	}
	digest := sha256.Sum256([]byte(message))

	switch alg {
	case AlgEd25519:
		if len(raw) != ed25519.PrivateKeySize {
			return "", fmt.Errorf("ed25519 private key must be %d bytes", ed25519.PrivateKeySize)
		}
		return base64.StdEncoding.EncodeToString(ed25519.Sign(ed25519.PrivateKey(raw), digest[:])), nil
	case AlgDilithium3:
		var sk mode3.PrivateKey
		if err := sk.UnmarshalBinary(raw); err != nil {
			return "", fmt.Errorf("decode dilithium3 private key: %w", err)
		}
		sig := make([]byte, mode3.SignatureSize)
		mode3.SignTo(&sk, digest[:], sig)
		return base64.StdEncoding.EncodeToString(sig), nil
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedKey, alg)
	}
}
