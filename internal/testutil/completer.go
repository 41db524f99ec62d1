package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mansoorceksport/fitcoach/internal/domain"
)

// FakeCompleter is a scripted domain.TextCompleter. Responses are returned in
// order and the last one repeats; Respond, when set, takes precedence.
type FakeCompleter struct {
	mu        sync.Mutex
	Responses []string
	Err       error
	Delay     time.Duration
	Respond   func(req domain.CompletionRequest) (string, error)
	calls     []domain.CompletionRequest
}

func NewFakeCompleter(responses ...string) *FakeCompleter {
	return &FakeCompleter{Responses: responses}
}

func (f *FakeCompleter) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	delay := f.Delay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", domain.ErrUpstreamTimeout, ctx.Err())
		case <-time.After(delay):
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Respond != nil {
		return f.Respond(req)
	}
	if f.Err != nil {
		return "", f.Err
	}
	if len(f.Responses) == 0 {
		return "", errors.New("fake completer: no scripted response")
	}
	out := f.Responses[0]
	if len(f.Responses) > 1 {
		f.Responses = f.Responses[1:]
	}
	return out, nil
}

// Calls returns a copy of every request received.
func (f *FakeCompleter) Calls() []domain.CompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.CompletionRequest(nil), f.calls...)
}
