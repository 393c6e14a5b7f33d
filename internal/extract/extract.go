// Package extract pulls plain text out of parsed PDF documents while
// approximating the original reading order and paragraph structure.
//
// PDFs carry no paragraph markup, only positioned text fragments. The
// extractor compares each fragment's vertical coordinate with its
// predecessor's: any change starts a new line, and a large downward jump is
// treated as a paragraph break. This heuristic avoids full layout analysis
// and is good enough for summarization input.
package extract

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// paragraphGap is the vertical distance (in PDF units) beyond which a line
// break is promoted to a paragraph break.
const paragraphGap = 12.0

// pageSeparator joins the text of consecutive pages.
const pageSeparator = "\n\n"

// Fragment is a positioned piece of page text. Y is the fragment's vertical
// coordinate in PDF user space (origin at the bottom of the page, so reading
// order moves toward smaller Y).
type Fragment struct {
	S string
	Y float64
}

// PageText assembles the fragments of a single page into text, inserting a
// newline whenever the vertical position changes and an additional blank
// line when the downward jump exceeds paragraphGap.
//
// A page with no fragments yields the empty string.
func PageText(frags []Fragment) string {
	var b strings.Builder
	var lastY float64
	first := true

	for _, f := range frags {
		if !first && f.Y != lastY {
			b.WriteByte('\n')
			if lastY-f.Y > paragraphGap {
				b.WriteByte('\n')
			}
		}
		b.WriteString(f.S)
		lastY = f.Y
		first = false
	}

	return b.String()
}

// Extract produces a single text blob for the whole document, pages in order,
// joined with a blank line. A malformed page aborts the run with an error;
// there is no partial-document fallback, because a summary of a silently
// truncated document would be misleading.
func Extract(r io.ReaderAt, size int64) (string, error) {
	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	pages := make([]string, 0, reader.NumPage())
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}

		frags, err := pageFragments(page)
		if err != nil {
			return "", fmt.Errorf("extract page %d: %w", pageNum, err)
		}

		pages = append(pages, PageText(frags))
	}

	return strings.Join(pages, pageSeparator), nil
}

// ExtractFile is a convenience wrapper that extracts text from a PDF on disk.
func ExtractFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}

	return Extract(f, info.Size())
}

// pageFragments reads the positioned text content of one page.
// The underlying parser panics on some malformed content streams; the panic
// is converted into an error so the caller sees a normal failure.
func pageFragments(page pdf.Page) (frags []Fragment, err error) {
	defer func() {
		if r := recover(); r != nil {
			frags = nil
			err = fmt.Errorf("malformed page content: %v", r)
		}
	}()

	content := page.Content()
	frags = make([]Fragment, 0, len(content.Text))
	for _, t := range content.Text {
		frags = append(frags, Fragment{S: t.S, Y: t.Y})
	}

	return frags, nil
}
