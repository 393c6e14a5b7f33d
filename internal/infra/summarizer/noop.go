package summarizer

import (
	"context"
	"strings"
)

// NoOp is a summarizer that returns a deterministic summary without calling
// any external API. Useful for development and tests.
type NoOp struct{}

// NewNoOp creates a new NoOp summarizer.
func NewNoOp() *NoOp {
	return &NoOp{}
}

// Summarize returns the first sentence-worth of the input wrapped in a
// paragraph tag.
func (n *NoOp) Summarize(_ context.Context, inputText, _ string) (Summary, error) {
	const maxLength = 200

	runes := []rune(strings.TrimSpace(inputText))
	excerpt := string(runes)
	if len(runes) > maxLength {
		excerpt = string(runes[:maxLength]) + "..."
	}

	return Summary{
		Title:   "Summary",
		Summary: "<p>" + excerpt + "</p>",
	}, nil
}
