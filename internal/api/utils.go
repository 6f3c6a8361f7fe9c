package api

import (
	"errors"
	"io"
	"net"
	"net/http"
	"strings"

	domainerrors "stampbot/internal/errors"
)

const (
	documentField = "document"
	pdfMIME       = "application/pdf"

	// formOverhead leaves room for the config part and multipart framing.
	formOverhead  = 1 << 20
	maxFormMemory = 32 << 20
)

type upload struct {
	Name string
	Data []byte
}

// readUpload reads the document part of a multipart upload and checks that
// it is a PDF no larger than maxSize.
func readUpload(w http.ResponseWriter, r *http.Request, maxSize int64) (*upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+formOverhead)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, domainerrors.Validationf("document exceeds %d bytes", maxSize)
		}
		return nil, domainerrors.Validationf("invalid multipart form: %v", err)
	}

	file, header, err := r.FormFile(documentField)
	if err != nil {
		return nil, domainerrors.Validationf("missing %q file part", documentField)
	}
	defer file.Close()

	if header.Size > maxSize {
		return nil, domainerrors.Validationf("document exceeds %d bytes", maxSize)
	}
	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		return nil, domainerrors.Validationf("failed to read document: %v", err)
	}
	if int64(len(data)) > maxSize {
		return nil, domainerrors.Validationf("document exceeds %d bytes", maxSize)
	}

	if ct := http.DetectContentType(data); !strings.HasPrefix(ct, pdfMIME) {
		return nil, domainerrors.InvalidInputType("only PDF documents are accepted, got " + ct)
	}

	return &upload{Name: header.Filename, Data: data}, nil
}

// clientIP returns the first X-Forwarded-For hop, falling back to the peer
// address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
