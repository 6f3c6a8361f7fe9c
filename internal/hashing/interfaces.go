package hashing

import "io"

// Hasher computes a content digest used to identify uploads and outputs in
// logs, the archive caption and API response headers.
type Hasher interface {
	Name() string
	Description() string
	// Sum consumes reader and returns the lowercase hex digest.
	Sum(reader io.Reader) (string, error)
}
