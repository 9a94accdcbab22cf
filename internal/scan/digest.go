package scan

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"strings"
)

const chunkSize = 8192

// Digest returns the hex SHA-256 of the stream, reading it in fixed-size chunks.
func Digest(r io.Reader) (string, error) {
	hasher := sha256.New()
	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(hasher, r, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// NormalizeDigest lower-cases a hex digest and checks its shape.
func NormalizeDigest(digest string) (string, error) {
	digest = strings.ToLower(strings.TrimSpace(digest))
	if len(digest) != sha256.Size*2 {
		return "", errors.New("invalid digest length")
	}
	for _, c := range digest {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", errors.New("invalid digest")
		}
	}
	return digest, nil
}
