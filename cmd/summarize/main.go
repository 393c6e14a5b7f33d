// Package main provides a CLI for summarizing a PDF file offline.
// Usage: pdfdigest-summarize --file doc.pdf [--language English] [--output json]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"pdfdigest/internal/chunk"
	"pdfdigest/internal/extract"
	"pdfdigest/internal/infra/summarizer"
	"pdfdigest/internal/observability/logging"
	"pdfdigest/internal/usecase/summarize"
	"pdfdigest/internal/utils/text"
	"pdfdigest/pkg/config"
)

// output is the JSON output format for --output json.
type output struct {
	Title   string        `json:"title"`
	Summary string        `json:"summary"`
	Chunks  []chunkOutput `json:"chunks"`
}

type chunkOutput struct {
	Index   int    `json:"index"`
	Length  int    `json:"length"`
	Title   string `json:"title,omitempty"`
	Summary string `json:"summary,omitempty"`
}

func main() {
	var (
		filePath     string
		language     string
		outputFormat string
	)

	flag.StringVar(&filePath, "file", "", "Path to the PDF file to summarize")
	flag.StringVar(&language, "language", "English", "Output language for the summary")
	flag.StringVar(&outputFormat, "output", "text", "Output format: text or json")
	flag.Parse()

	if filePath == "" {
		fmt.Fprintln(os.Stderr, "Error: --file is required")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Usage: pdfdigest-summarize --file doc.pdf [--language English] [--output json]")
		os.Exit(1)
	}
	if outputFormat != "text" && outputFormat != "json" {
		fmt.Fprintf(os.Stderr, "Error: invalid output format %q (must be 'text' or 'json')\n", outputFormat)
		os.Exit(1)
	}

	logger := logging.NewTextLogger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gateway, err := buildGateway()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: summarizer init failed: %v\n", err)
		os.Exit(1)
	}

	docText, err := extract.ExtractFile(filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not extract text from %s: %v\n", filePath, err)
		os.Exit(1)
	}

	chunks := chunk.Split(docText)
	if len(chunks) == 0 {
		fmt.Fprintln(os.Stderr, "Error: the document contains no extractable text")
		os.Exit(1)
	}

	logger.Info("document loaded",
		slog.String("file", filePath),
		slog.Int("characters", text.CountRunes(docText)),
		slog.Int("chunks", len(chunks)))

	svc := summarize.NewService(gateway, logger)

	done := 0
	for result := range svc.Stream(ctx, chunks, language) {
		chunks[result.Index].Title = result.Summary.Title
		chunks[result.Index].Summary = result.Summary.Summary
		done++
		logger.Info("chunk summarized",
			slog.Int("chunk", result.Index),
			slog.Int("done", done),
			slog.Int("total", len(chunks)))
	}

	final := svc.Synthesize(ctx, chunks, language)

	if outputFormat == "json" {
		printJSON(chunks, final)
		return
	}
	printText(chunks, final)
}

// buildGateway constructs the LLM backend selected by LLM_PROVIDER.
func buildGateway() (summarizer.Summarizer, error) {
	provider := strings.ToLower(config.GetEnvString("LLM_PROVIDER", "openai"))

	switch provider {
	case "openai":
		cfg, err := summarizer.LoadOpenAIConfig()
		if err != nil {
			return nil, err
		}
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
		return summarizer.NewOpenAI(apiKey, *cfg), nil
	case "claude":
		cfg, err := summarizer.LoadClaudeConfig()
		if err != nil {
			return nil, err
		}
		apiKey := os.Getenv("CLAUDE_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("CLAUDE_API_KEY is required for the claude provider")
		}
		return summarizer.NewClaude(apiKey, *cfg), nil
	case "noop":
		return summarizer.NewNoOp(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", provider)
	}
}

func printJSON(chunks []chunk.Chunk, final summarizer.Summary) {
	out := output{
		Title:   final.Title,
		Summary: final.Summary,
		Chunks:  make([]chunkOutput, len(chunks)),
	}
	for i, c := range chunks {
		out.Chunks[i] = chunkOutput{
			Index:   c.Index,
			Length:  text.CountRunes(c.Text),
			Title:   c.Title,
			Summary: c.Summary,
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not encode output: %v\n", err)
		os.Exit(1)
	}
}

func printText(chunks []chunk.Chunk, final summarizer.Summary) {
	fmt.Printf("# %s\n\n%s\n", final.Title, final.Summary)

	failed := 0
	for _, c := range chunks {
		if !c.Summarized() {
			failed++
		}
	}
	if failed > 0 {
		fmt.Fprintf(os.Stderr, "Warning: %d of %d chunks failed to summarize\n", failed, len(chunks))
	}
}
