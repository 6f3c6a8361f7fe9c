package sha256

import (
	"crypto/sha256"
	"encoding/hex"
	"io"

	"stampbot/internal/hashing"
)

type SHA256Hash struct{}

const AlgorithmSHA256 = "sha256"

func init() {
	hashing.Register(AlgorithmSHA256, &SHA256Hash{})
}

func (h *SHA256Hash) Name() string {
	return AlgorithmSHA256
}

func (h *SHA256Hash) Description() string {
	return "SHA-256 is a cryptographic hash function that produces a fixed-size 256-bit (32-byte) hash value"
}

func (h *SHA256Hash) Sum(reader io.Reader) (string, error) {
	hash := sha256.New()
	if _, err := io.Copy(hash, reader); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
