// Package chunk splits extracted document text into bounded-size chunks for
// per-chunk summarization. Chunks are contiguous, non-overlapping slices of
// the input in document order; their concatenation reproduces the input.
package chunk

// MaxChunkSize is the upper bound on chunk width in characters.
// A single summarization request carries at most this much document text.
const MaxChunkSize = 50_000

// targetChunks is the preferred minimum number of chunks for a document.
// Splitting even short documents keeps per-request latency low and lets
// the dispatcher stream partial results early.
const targetChunks = 4

// Chunk is a contiguous slice of the extracted document text plus its
// eventual summary. Index is the chunk's position in document order and is
// the identity used to re-associate streamed results with their source;
// matching by text content would break down for documents with repeated
// sections.
type Chunk struct {
	// Index is the zero-based position of this chunk in the document.
	Index int

	// Text is the chunk's slice of the document. Immutable once created.
	Text string

	// Title and Summary are filled in after a successful summarization
	// round trip. They stay empty when that chunk's call fails.
	Title   string
	Summary string
}

// Summarized reports whether this chunk received a summary.
func (c *Chunk) Summarized() bool {
	return c.Summary != ""
}

// Split divides text into ordered chunks of width
// min(MaxChunkSize, ceil(len/4)) characters. Short documents therefore
// yield up to four chunks and very long documents yield more chunks, each
// capped at MaxChunkSize, rather than four oversized ones.
//
// Slicing is a plain fixed-width walk over runes with no sentence or
// paragraph awareness; a boundary may fall mid-sentence. Widths are
// measured in runes so a multi-byte character never splits in half.
//
// Empty input yields zero chunks. No produced chunk is empty.
func Split(text string) []Chunk {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	width := (len(runes) + targetChunks - 1) / targetChunks
	if width > MaxChunkSize {
		width = MaxChunkSize
	}

	chunks := make([]Chunk, 0, (len(runes)+width-1)/width)
	for start := 0; start < len(runes); start += width {
		end := min(start+width, len(runes))
		chunks = append(chunks, Chunk{
			Index: len(chunks),
			Text:  string(runes[start:end]),
		})
	}

	return chunks
}
