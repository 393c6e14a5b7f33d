package summarizer_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pdfdigest/internal/infra/summarizer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOpenAIConfig(baseURL string) summarizer.OpenAIConfig {
	return summarizer.OpenAIConfig{
		Model:     "gpt-4o-mini",
		MaxTokens: 2048,
		Timeout:   5 * time.Second,
		BaseURL:   baseURL,
	}
}

// chatCompletionResponse builds a minimal OpenAI chat completion payload
// whose assistant message contains the given content.
func chatCompletionResponse(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{
			{
				"index": 0,
				"message": map[string]any{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": "stop",
			},
		},
	}
}

func TestOpenAI_Summarize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatCompletionResponse(
			`{"title": "Quarterly Report", "summary": "<p>Revenue grew.</p>"}`,
		))
	}))
	defer server.Close()

	client := summarizer.NewOpenAI("test-key", testOpenAIConfig(server.URL+"/v1"))

	s, err := client.Summarize(context.Background(), "full document text", "English")
	require.NoError(t, err)
	assert.Equal(t, "Quarterly Report", s.Title)
	assert.Equal(t, "<p>Revenue grew.</p>", s.Summary)
}

func TestOpenAI_StripsFencedOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatCompletionResponse(
			"```json\n{\"title\": \"T\", \"summary\": \"<p>S</p>\"}\n```",
		))
	}))
	defer server.Close()

	client := summarizer.NewOpenAI("test-key", testOpenAIConfig(server.URL+"/v1"))

	s, err := client.Summarize(context.Background(), "text", "English")
	require.NoError(t, err)
	assert.Equal(t, "T", s.Title)
}

func TestOpenAI_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "boom", "type": "server_error"}}`))
	}))
	defer server.Close()

	client := summarizer.NewOpenAI("test-key", testOpenAIConfig(server.URL+"/v1"))

	_, err := client.Summarize(context.Background(), "text", "English")
	assert.ErrorContains(t, err, "openai api error")
}

func TestOpenAI_MalformedModelOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatCompletionResponse("not json at all"))
	}))
	defer server.Close()

	client := summarizer.NewOpenAI("test-key", testOpenAIConfig(server.URL+"/v1"))

	_, err := client.Summarize(context.Background(), "text", "English")
	assert.ErrorContains(t, err, "not valid JSON")
}

func TestLoadOpenAIConfig_Defaults(t *testing.T) {
	cfg, err := summarizer.LoadOpenAIConfig()
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, 2048, cfg.MaxTokens)
	assert.Equal(t, 60*time.Second, cfg.Timeout)
}
