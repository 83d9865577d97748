// Package cryptox holds hashing helpers shared by services and the SDK.
package cryptox

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// FileHash returns the SHA-1 digest of content as uppercase hex without
// separators. Attachment hashes stored alongside indiagram infos use this
// exact format, so clients can compare hashes byte for byte.
func FileHash(content []byte) string {
	sum := sha1.Sum(content)
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// PasswordHash returns the SHA-256 digest of a plaintext password as
// uppercase hex. Clients compute this before sending credentials; the server
// only ever stores and compares the digest.
func PasswordHash(password string) string {
	sum := sha256.Sum256([]byte(password))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}
