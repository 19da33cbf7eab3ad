package serialization

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// Fingerprint returns the hex SHA-256 of the encoded parameters. Two
// parameter sets with the same fingerprint produce byte-identical files.
func Fingerprint(p Params) (string, error) {
	h := sha256.New()
	if err := Encode(h, p); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// FileFingerprint returns the hex SHA-256 of the file at path without
// decoding it.
func FileFingerprint(path string) (string, error) {
	//nolint:gosec // G304: model path comes from the operator
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open parameter file: %w", err)
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
