// Package testutil builds fixtures shared by package tests.
package testutil

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/jung-kurt/gofpdf"
)

// PageText is the marker drawn on page n of a PDF built by PDF.
func PageText(n int) string {
	return fmt.Sprintf("ORIGINAL page %d", n)
}

// PDF returns an uncompressed letter-size document with the given number of
// pages, each carrying PageText(n) so tests can find it in the raw bytes.
func PDF(t testing.TB, pages int) []byte {
	t.Helper()

	pdf := gofpdf.New("P", "pt", "Letter", "")
	pdf.SetCompression(false)
	pdf.SetFont("Helvetica", "", 12)
	for i := 1; i <= pages; i++ {
		pdf.AddPage()
		pdf.Text(72, 72, PageText(i))
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("build fixture pdf: %v", err)
	}
	return buf.Bytes()
}
