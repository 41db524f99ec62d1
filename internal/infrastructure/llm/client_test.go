package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mansoorceksport/fitcoach/internal/domain"
	"github.com/mansoorceksport/fitcoach/internal/logger"
)

func TestOpenRouterComplete(t *testing.T) {
	var got chatRequest
	var auth, title string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		auth = r.Header.Get("Authorization")
		title = r.Header.Get("X-Title")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"weeks\":[]}"}}]}`))
	}))
	defer srv.Close()

	c := NewOpenRouterClient(Config{APIKey: "k-123", BaseURL: srv.URL + "/", Model: "primary", Title: "FitCoach"})

	out, err := c.Complete(context.Background(), domain.CompletionRequest{Prompt: "hi", JSON: true})
	require.NoError(t, err)
	assert.Equal(t, `{"weeks":[]}`, out)
	assert.Equal(t, "Bearer k-123", auth)
	assert.Equal(t, "FitCoach", title)
	assert.Equal(t, "primary", got.Model)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "hi", got.Messages[0].Content)

	_, err = c.Complete(context.Background(), domain.CompletionRequest{Prompt: "hi", Model: "cheap"})
	require.NoError(t, err)
	assert.Equal(t, "cheap", got.Model)
	assert.Nil(t, got.ResponseFormat)
}

func TestOpenRouterErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    error
	}{
		{
			name: "non-200",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`rate limited`))
			},
			want: domain.ErrUpstreamUnavailable,
		},
		{
			name: "error body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"error":{"message":"no credits","code":402}}`))
			},
			want: domain.ErrUpstreamUnavailable,
		},
		{
			name: "no choices",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"choices":[]}`))
			},
			want: domain.ErrUpstreamUnavailable,
		},
		{
			name: "slow provider",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-time.After(time.Second):
				case <-r.Context().Done():
				}
			},
			want: domain.ErrUpstreamTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			_, err := NewOpenRouterClient(Config{APIKey: "k", BaseURL: srv.URL}).
				Complete(ctx, domain.CompletionRequest{Prompt: "x"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestOllamaComplete(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"response":"Day 1: Legs","done":true}`))
	}))
	defer srv.Close()

	out, err := NewOllamaClient(Config{BaseURL: srv.URL, Model: "llama3"}).
		Complete(context.Background(), domain.CompletionRequest{Prompt: "plan", JSON: true})
	require.NoError(t, err)
	assert.Equal(t, "Day 1: Legs", out)
	assert.Equal(t, "llama3", got.Model)
	assert.Equal(t, "json", got.Format)
	assert.False(t, got.Stream)
}

func TestOllamaErrorField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"model not found"}`))
	}))
	defer srv.Close()

	_, err := NewOllamaClient(Config{BaseURL: srv.URL}).Complete(context.Background(), domain.CompletionRequest{Prompt: "x"})
	assert.True(t, errors.Is(err, domain.ErrUpstreamUnavailable))
}

func TestNew(t *testing.T) {
	_, err := New(Config{Provider: ProviderOpenRouter}, nil, logger.Nop())
	assert.Error(t, err, "api key is required")

	_, err = New(Config{Provider: "bard"}, nil, logger.Nop())
	assert.Error(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":"ok","done":true}`))
	}))
	defer srv.Close()

	c, err := New(Config{Provider: ProviderOllama, BaseURL: srv.URL}, nil, logger.Nop())
	require.NoError(t, err)
	out, err := c.Complete(context.Background(), domain.CompletionRequest{Prompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}
