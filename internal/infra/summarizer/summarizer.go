// Package summarizer provides AI-powered document summarization adapters.
// It includes implementations for OpenAI and Claude (Anthropic) APIs with
// circuit breaking, outbound request pacing, per-call timeouts and
// Prometheus metrics.
//
// All adapters share the same contract: given a document excerpt and a
// target language, return a short title and an HTML-fragment summary. The
// model is instructed to answer with a strict JSON object; the raw output is
// cleaned of code-fence markup and shape-validated before anything reaches
// a caller, so malformed model output surfaces as an error, never as
// passthrough text.
package summarizer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Summary is the result of one summarization call. The Summary field is an
// HTML fragment restricted by the prompt to <p>, <ul>/<li> and <h3> tags.
type Summary struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// Summarizer generates a titled summary of the given text in the target
// language.
type Summarizer interface {
	Summarize(ctx context.Context, text, language string) (Summary, error)
}

// buildSystemPrompt constructs the instruction prompt. It is parameterized
// only by the target language; everything else is fixed so responses stay
// machine-parseable.
func buildSystemPrompt(language string) string {
	return fmt.Sprintf(`You are an expert at summarizing text.

Your task:
1. Read the document excerpt I will provide
2. Create a concise summary in %[1]s
3. Generate a short, descriptive title in %[1]s

Guidelines for the summary:
- Format the summary in HTML
- Use <p> tags for paragraphs (2-3 sentences each)
- Use <ul> and <li> tags for bullet points
- Use <h3> tags for subheadings when needed but don't repeat the initial title in the first paragraph
- Ensure proper spacing with appropriate HTML tags

The summary should be well-structured and easy to scan, while maintaining accuracy and completeness.
Please analyze the text thoroughly before starting the summary.

IMPORTANT: Output ONLY a valid JSON object with the following structure, and nothing else. Do not include markdown formatting like `+"```json"+`.
{
  "title": "The title of the summary",
  "summary": "The HTML content of the summary"
}`, language)
}

// parseModelOutput turns raw model output into a validated Summary.
// Models occasionally wrap the JSON in markdown code fences despite the
// prompt, so fences are stripped before parsing. Both fields must be
// non-empty strings.
func parseModelOutput(raw string) (Summary, error) {
	cleaned := stripCodeFence(raw)

	var s Summary
	if err := json.Unmarshal([]byte(cleaned), &s); err != nil {
		return Summary{}, fmt.Errorf("model output is not valid JSON: %w", err)
	}

	if s.Title == "" || s.Summary == "" {
		return Summary{}, fmt.Errorf("model output does not match expected shape: title and summary are required")
	}

	return s, nil
}

// stripCodeFence removes surrounding markdown code-fence markup from the
// model output and trims whitespace.
func stripCodeFence(raw string) string {
	cleaned := strings.TrimSpace(raw)

	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSpace(cleaned)
	}
	if strings.HasSuffix(cleaned, "```") {
		cleaned = strings.TrimSuffix(cleaned, "```")
		cleaned = strings.TrimSpace(cleaned)
	}

	return cleaned
}
