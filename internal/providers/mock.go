package providers

import (
	"context"
	"sync/atomic"
)

// MockLLMClient is an LLMClient for tests.
type MockLLMClient struct {
	ResponseText string
	ShouldFail   bool
	calls        atomic.Int64
}

// NewMockLLMClient returns a client with a canned response.
func NewMockLLMClient(response string) *MockLLMClient {
	return &MockLLMClient{ResponseText: response}
}

func (m *MockLLMClient) Name() string { return "mock" }

func (m *MockLLMClient) Calls() int64 { return m.calls.Load() }

func (m *MockLLMClient) Chat(_ context.Context, _ *ChatRequest) (*ChatResult, error) {
	m.calls.Add(1)
	if m.ShouldFail {
		return nil, errMock
	}
	return &ChatResult{Content: m.ResponseText, FinishReason: "stop"}, nil
}

func (m *MockLLMClient) ChatStream(_ context.Context, _ *ChatRequest) (<-chan string, <-chan error) {
	deltas := make(chan string, 1)
	errs := make(chan error, 1)
	m.calls.Add(1)
	if m.ShouldFail {
		deltas <- ""
		close(deltas)
		errs <- errMock
		close(errs)
		return deltas, errs
	}
	deltas <- m.ResponseText
	close(deltas)
	close(errs)
	return deltas, errs
}

var errMock = &mockError{"mock client configured to fail"}

type mockError struct{ msg string }

func (e *mockError) Error() string { return e.msg }

// MockDenseEmbedder is a DenseEmbedder for tests, returning deterministic
// vectors derived from text length so equality assertions are stable.
type MockDenseEmbedder struct {
	Dim int
}

func NewMockDenseEmbedder(dim int) *MockDenseEmbedder {
	return &MockDenseEmbedder{Dim: dim}
}

func (m *MockDenseEmbedder) Dimension() int { return m.Dim }

func (m *MockDenseEmbedder) Embed(_ context.Context, texts []string, progress func(done int)) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec := make([]float32, m.Dim)
		for j := range vec {
			vec[j] = float32(len(t)%7) / 7.0
		}
		out[i] = vec
		if progress != nil {
			progress(i + 1)
		}
	}
	return out, nil
}
