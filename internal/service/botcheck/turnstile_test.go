package botcheck_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"pdfdigest/internal/service/botcheck"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTurnstile_EmptySecret(t *testing.T) {
	_, err := botcheck.NewTurnstile("")
	assert.Error(t, err)
}

func TestVerify_Success(t *testing.T) {
	var gotSecret, gotResponse, gotRemoteIP string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotSecret = r.PostFormValue("secret")
		gotResponse = r.PostFormValue("response")
		gotRemoteIP = r.PostFormValue("remoteip")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": true}`))
	}))
	defer server.Close()

	verifier, err := botcheck.NewTurnstile("shh", botcheck.WithEndpoint(server.URL))
	require.NoError(t, err)

	ok, err := verifier.Verify(context.Background(), "challenge-token", "203.0.113.7")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "shh", gotSecret)
	assert.Equal(t, "challenge-token", gotResponse)
	assert.Equal(t, "203.0.113.7", gotRemoteIP)
}

func TestVerify_ChallengeFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": false, "error-codes": ["invalid-input-response"]}`))
	}))
	defer server.Close()

	verifier, err := botcheck.NewTurnstile("shh", botcheck.WithEndpoint(server.URL))
	require.NoError(t, err)

	ok, err := verifier.Verify(context.Background(), "bad-token", "203.0.113.7")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerify_ServiceUnreachable(t *testing.T) {
	verifier, err := botcheck.NewTurnstile("shh", botcheck.WithEndpoint("http://127.0.0.1:1"))
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), "token", "203.0.113.7")
	assert.Error(t, err)
}

func TestVerify_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	verifier, err := botcheck.NewTurnstile("shh", botcheck.WithEndpoint(server.URL))
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), "token", "203.0.113.7")
	assert.Error(t, err)
}
