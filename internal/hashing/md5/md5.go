package md5

import (
	"crypto/md5"
	"encoding/hex"
	"io"

	"stampbot/internal/hashing"
)

type MD5Hash struct{}

const AlgorithmMD5 = "md5"

func init() {
	hashing.Register(AlgorithmMD5, &MD5Hash{})
}

func (h *MD5Hash) Name() string {
	return AlgorithmMD5
}

func (h *MD5Hash) Description() string {
	return "MD5 produces a 128-bit digest; kept for matching files against older archives, not for integrity"
}

func (h *MD5Hash) Sum(reader io.Reader) (string, error) {
	hash := md5.New()
	if _, err := io.Copy(hash, reader); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
