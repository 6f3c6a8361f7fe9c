package overlay

import (
	"bytes"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	domainerrors "stampbot/internal/errors"
)

// stampDescription places the overlay page unscaled over the target page's
// bottom-left corner, so overlay coordinates equal page coordinates.
const stampDescription = "position:bl, offset:0 0, scalefactor:1 abs, rotation:0, opacity:1"

var disableConfigDir sync.Once

// newConfiguration returns a fresh pdfcpu configuration. pdfcpu mutates the
// configuration during a call, so every operation gets its own.
func newConfiguration() *model.Configuration {
	disableConfigDir.Do(api.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Document is a parsed PDF: its raw bytes and page count.
type Document struct {
	data  []byte
	pages int
}

// ParseDocument reads data as a PDF. It fails with MALFORMED_DOCUMENT when the
// bytes are not a readable PDF with at least one page, and with
// UNSUPPORTED_PAGE when the document is encrypted.
func ParseDocument(data []byte) (*Document, error) {
	if len(data) == 0 {
		return nil, domainerrors.MalformedDocument("empty file")
	}

	pages, err := api.PageCount(bytes.NewReader(data), newConfiguration())
	if err != nil {
		if isEncryption(err) {
			return nil, domainerrors.Wrap(err, domainerrors.CodeUnsupportedPage, "document is encrypted")
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeMalformedDocument, "not a readable PDF")
	}
	if pages == 0 {
		return nil, domainerrors.MalformedDocument("document has no pages")
	}
	return &Document{data: data, pages: pages}, nil
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return d.pages
}

// Bytes returns the serialized document.
func (d *Document) Bytes() []byte {
	return d.data
}

func isEncryption(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "encrypt") || strings.Contains(msg, "password")
}

// Compositor merges an overlay onto every page of a document.
type Compositor struct{}

// Compose returns a new document with ov drawn on top of each page of doc, in
// page order. Existing page content is kept underneath. Any page that cannot
// take the overlay aborts the whole call with UNSUPPORTED_PAGE; doc is never
// modified.
func (c *Compositor) Compose(doc *Document, ov *Overlay) (*Document, error) {
	if doc == nil || ov == nil {
		return nil, domainerrors.Internalf("compose needs a document and an overlay")
	}

	// ":1" pins overlay page 1 for every target page.
	wm, err := api.PDFWatermark(ov.Path+":1", stampDescription, true, false, types.POINTS)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeRenderFailure, "load overlay")
	}

	var out bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(doc.data), &out, nil, wm, newConfiguration()); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeUnsupportedPage, "merge overlay")
	}

	merged, err := ParseDocument(out.Bytes())
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeUnsupportedPage, "re-read merged document")
	}
	if merged.pages != doc.pages {
		return nil, domainerrors.UnsupportedPagef("merged document has %d pages, source has %d", merged.pages, doc.pages)
	}
	return merged, nil
}
