package util

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
)

// FingerprintLen is the width of a document fingerprint in hex characters.
// Citation keys embed the fingerprint, so this is a wire-format constant.
const FingerprintLen = 6

func SHA256Hex(b []byte) string {
	x := sha256.Sum256(b)
	return hex.EncodeToString(x[:])
}

func SHA256HexFromReader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Fingerprint derives the stable document fingerprint from extracted text.
// The text is sanitized first so fingerprints do not depend on extractor
// control-byte noise; identical document content always yields the same
// fingerprint regardless of filename.
func Fingerprint(text string) string {
	return SHA256Hex([]byte(SanitizeText(text)))[:FingerprintLen]
}
