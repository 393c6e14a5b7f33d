// Package summarize orchestrates the per-chunk summarization fan-out and the
// final whole-document synthesis.
//
// Each chunk gets one independent gateway call; all calls launch
// concurrently and the run completes when every call has settled, success or
// failure. A failed chunk never cancels its siblings and never fails the
// run: its summary simply stays empty. Results stream to the consumer in
// completion order, tagged with the chunk index so the consumer re-associates
// them by identity rather than arrival sequence.
package summarize

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"pdfdigest/internal/chunk"
	"pdfdigest/internal/infra/summarizer"
)

// fallbackSummary is returned whenever synthesis cannot produce a real
// result. The UI renders whatever it gets, so the dispatcher degrades to a
// fixed message instead of propagating an error.
var fallbackSummary = summarizer.Summary{
	Title:   "Error generating summary",
	Summary: "<p>Could not generate summary. Please try again.</p>",
}

// Fallback returns the fixed summary used when synthesis fails.
func Fallback() summarizer.Summary {
	return fallbackSummary
}

// Result is one settled per-chunk summarization, tagged with the index of
// the chunk it belongs to.
type Result struct {
	Index   int
	Summary summarizer.Summary
}

// Service dispatches chunk summarization requests to an LLM gateway.
type Service struct {
	gateway summarizer.Summarizer
	logger  *slog.Logger
}

// NewService creates a dispatcher over the given gateway.
func NewService(gateway summarizer.Summarizer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{gateway: gateway, logger: logger}
}

// Stream launches one gateway call per chunk and returns a channel of
// results in completion order. The channel closes once every call has
// settled. A per-chunk failure is logged and swallowed; that chunk simply
// never produces a result.
//
// Cancelling ctx stops further result emission. In-flight gateway calls see
// the cancelled context and abort on a best-effort basis.
func (s *Service) Stream(ctx context.Context, chunks []chunk.Chunk, language string) <-chan Result {
	out := make(chan Result)

	go func() {
		defer close(out)

		// Workers always return nil: the errgroup is used purely as a
		// settle-all join, and isolation of per-chunk failures is the
		// contract, so nothing may cancel the group.
		g, gctx := errgroup.WithContext(ctx)

		for _, c := range chunks {
			g.Go(func() error {
				summary, err := s.gateway.Summarize(gctx, c.Text, language)
				if err != nil {
					s.logger.Warn("chunk summarization failed",
						slog.Int("chunk", c.Index),
						slog.String("error", err.Error()))
					return nil
				}

				select {
				case out <- Result{Index: c.Index, Summary: summary}:
				case <-ctx.Done():
				}
				return nil
			})
		}

		_ = g.Wait()
	}()

	return out
}

// Synthesize produces the whole-document summary from the chunk summaries
// gathered so far. Chunks without a summary are skipped. The remaining
// summaries are joined with blank lines and sent through the gateway once
// more in the target language.
//
// Synthesize never fails: when no chunk produced a summary, or the gateway
// call errors, it returns the fixed fallback summary.
func (s *Service) Synthesize(ctx context.Context, chunks []chunk.Chunk, language string) summarizer.Summary {
	var parts []string
	for _, c := range chunks {
		if c.Summarized() {
			parts = append(parts, c.Summary)
		}
	}

	if len(parts) == 0 {
		s.logger.Warn("no chunk summaries available for synthesis")
		return fallbackSummary
	}

	summary, err := s.gateway.Summarize(ctx, strings.Join(parts, "\n\n"), language)
	if err != nil {
		s.logger.Error("final synthesis failed",
			slog.Int("chunk_summaries", len(parts)),
			slog.String("error", err.Error()))
		return fallbackSummary
	}

	return summary
}

// Run executes the full pipeline: stream all chunk summaries, apply them to
// the chunk sequence by index, then synthesize the whole-document summary.
// The returned slice is the input slice with summaries filled in.
func (s *Service) Run(ctx context.Context, chunks []chunk.Chunk, language string) ([]chunk.Chunk, summarizer.Summary) {
	for result := range s.Stream(ctx, chunks, language) {
		chunks[result.Index].Title = result.Summary.Title
		chunks[result.Index].Summary = result.Summary.Summary
	}

	return chunks, s.Synthesize(ctx, chunks, language)
}
