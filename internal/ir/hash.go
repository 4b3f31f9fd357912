package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix leaves room for algorithm migration.
const (
	DomainNamespace = "seasign/namespace/v1"
	DomainSigned    = "seasign/signed/v1"
	DomainSignature = "seasign/signature/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash canonically encodes v and hashes it under domain.
func Hash(domain string, v Value) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", domain, err)
	}
	return hashWithDomain(domain, canonical), nil
}

// NamespaceHash identifies a namespace-resolution input.
func NamespaceHash(v Value) (string, error) {
	return Hash(DomainNamespace, v)
}

// SignedHash identifies a whole signed tree.
func SignedHash(v Value) (string, error) {
	return Hash(DomainSigned, v)
}

// SignatureHash identifies one signature.
func SignatureHash(v Value) (string, error) {
	return Hash(DomainSignature, v)
}

// MustHash is like Hash but panics on error.
// Use only in tests or when v is known to be encodable.
func MustHash(domain string, v Value) string {
	h, err := Hash(domain, v)
	if err != nil {
		panic(err)
	}
	return h
}
