package hashing_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stampbot/internal/hashing"
	_ "stampbot/internal/hashing/md5"
	_ "stampbot/internal/hashing/sha256"
)

func TestSum(t *testing.T) {
	tests := []struct {
		algorithm string
		want      string
	}{
		{"sha256", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{"md5", "900150983cd24fb0d6963f7d28e17f72"},
	}

	for _, tt := range tests {
		t.Run(tt.algorithm, func(t *testing.T) {
			h, err := hashing.GetHasher(tt.algorithm)
			require.NoError(t, err)
			assert.Equal(t, tt.algorithm, h.Name())

			got, err := h.Sum(strings.NewReader("abc"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			got, err = hashing.SumBytes(tt.algorithm, []byte("abc"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetHasher_Unknown(t *testing.T) {
	_, err := hashing.GetHasher("crc32")
	assert.Error(t, err)
}

func TestListSupportedAlgorithms_Sorted(t *testing.T) {
	algs := hashing.ListSupportedAlgorithms()
	require.Len(t, algs, 2)
	assert.Equal(t, "md5", algs[0].Name)
	assert.Equal(t, "sha256", algs[1].Name)
	assert.NotEmpty(t, algs[1].Description)
}
