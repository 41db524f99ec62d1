package domain

import "context"

// TextCompleter is an LLM text-completion provider. Callers bound each call
// with a context deadline; a missed deadline returns ErrUpstreamTimeout.
type TextCompleter interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// CompletionRequest is a single prompt sent to a TextCompleter.
type CompletionRequest struct {
	Prompt string
	// Model overrides the provider's configured model when set.
	Model string
	// JSON asks the provider for a strict JSON response where supported.
	JSON bool
}

// ContextRetriever returns ranked knowledge snippets for a query. An empty
// result is valid.
type ContextRetriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]string, error)
}
