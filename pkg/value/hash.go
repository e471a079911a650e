package value

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainDocument is the domain prefix for document content hashes.
// The version suffix leaves room for a future algorithm change.
const DomainDocument = "kat/document/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash returns the content hash of a value: SHA-256 over its canonical JSON.
// Two documents that parse to the same values hash the same regardless of
// formatting, comments or key order.
func Hash(v Value) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("hash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainDocument, canonical), nil
}
