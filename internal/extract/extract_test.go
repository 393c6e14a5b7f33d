package extract_test

import (
	"bytes"
	"testing"

	"pdfdigest/internal/extract"

	"github.com/stretchr/testify/assert"
)

func TestPageText_EmptyPage(t *testing.T) {
	assert.Equal(t, "", extract.PageText(nil))
	assert.Equal(t, "", extract.PageText([]extract.Fragment{}))
}

func TestPageText_SameLineFragmentsConcatenate(t *testing.T) {
	frags := []extract.Fragment{
		{S: "Hello ", Y: 700},
		{S: "world", Y: 700},
	}

	assert.Equal(t, "Hello world", extract.PageText(frags))
}

func TestPageText_VerticalChangeInsertsNewline(t *testing.T) {
	frags := []extract.Fragment{
		{S: "line one", Y: 700},
		{S: "line two", Y: 690},
	}

	assert.Equal(t, "line one\nline two", extract.PageText(frags))
}

func TestPageText_LargeGapInsertsParagraphBreak(t *testing.T) {
	frags := []extract.Fragment{
		{S: "paragraph one", Y: 700},
		{S: "paragraph two", Y: 680},
	}

	assert.Equal(t, "paragraph one\n\nparagraph two", extract.PageText(frags))
}

func TestPageText_GapAtThresholdIsSingleNewline(t *testing.T) {
	// Exactly 12 units is a plain line break, not a paragraph break.
	frags := []extract.Fragment{
		{S: "a", Y: 700},
		{S: "b", Y: 688},
	}

	assert.Equal(t, "a\nb", extract.PageText(frags))
}

func TestPageText_UpwardMovementIsPlainNewline(t *testing.T) {
	// Columns or footnotes can move the cursor back up the page; that is a
	// line break but never a paragraph break.
	frags := []extract.Fragment{
		{S: "bottom", Y: 100},
		{S: "top", Y: 700},
	}

	assert.Equal(t, "bottom\ntop", extract.PageText(frags))
}

func TestPageText_MixedLayout(t *testing.T) {
	frags := []extract.Fragment{
		{S: "Title", Y: 720},
		{S: "First sentence. ", Y: 700},
		{S: "Same line.", Y: 700},
		{S: "Next line.", Y: 689},
		{S: "New paragraph.", Y: 660},
	}

	want := "Title\n\nFirst sentence. Same line.\nNext line.\n\nNew paragraph."
	assert.Equal(t, want, extract.PageText(frags))
}

func TestExtract_InvalidDocument(t *testing.T) {
	data := []byte("this is not a pdf document")

	_, err := extract.Extract(bytes.NewReader(data), int64(len(data)))
	assert.Error(t, err)
}
