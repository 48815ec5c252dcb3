// Package pdftext turns a timetable PDF location into the positioned text
// fragments of its first page. The source timetables carry the whole week on
// page 1; later pages are ignored.
package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/cmcnador-art/cmc-timetable/internal/layout"
)

// Reader fetches a document and decodes its first page.
type Reader struct {
	fetch *fetcher
}

// NewReader builds a reader. Locations under /files/ resolve against
// filesDir; anything else is fetched over HTTP with the given timeout.
func NewReader(filesDir string, timeout time.Duration) *Reader {
	return &Reader{fetch: newFetcher(filesDir, timeout)}
}

// PageFragments fetches the document at location and returns the positioned
// text runs of page 1.
func (r *Reader) PageFragments(ctx context.Context, location string) ([]layout.Fragment, error) {
	data, err := r.fetch.bytes(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("fetch pdf: %w", err)
	}
	return FirstPageFragments(data)
}

// FirstPageFragments decodes the positioned text runs of page 1 of a PDF.
// Fragments come back trimmed and non-empty, in content-stream order, with Y
// flipped so the top of the page is 0.
//
// The pdf library panics on some malformed content streams; that surfaces
// here as an error, not a crash.
func FirstPageFragments(data []byte) (frags []layout.Fragment, err error) {
	defer func() {
		if r := recover(); r != nil {
			frags, err = nil, fmt.Errorf("decode pdf: %v", r)
		}
	}()
	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	if reader.NumPage() < 1 {
		return nil, nil
	}
	page := reader.Page(1)
	if page.V.IsNull() {
		return nil, nil
	}

	height := pageHeight(page)
	content := page.Content()
	frags = make([]layout.Fragment, 0, len(content.Text))
	for _, t := range content.Text {
		s := strings.TrimSpace(t.S)
		if s == "" {
			continue
		}
		frags = append(frags, layout.Fragment{
			Text: s,
			X:    t.X,
			// PDF text coordinates grow bottom-up.
			Y: height - t.Y,
			W: t.W,
			H: t.FontSize,
		})
	}
	return frags, nil
}

// pageHeight reads the page's MediaBox top edge, falling back to A4 portrait
// when the box is missing or malformed.
func pageHeight(page pdflib.Page) float64 {
	box := page.V.Key("MediaBox")
	if box.Kind() == pdflib.Array && box.Len() == 4 {
		if h := box.Index(3).Float64(); h > 0 {
			return h
		}
	}
	return 842
}
