package services

import (
	"context"
	"fmt"
	"sync"
)

// MockLLMService is a scripted LLMService for tests. Responses are
// returned in order; when the script runs out, the last response
// repeats.
type MockLLMService struct {
	mu        sync.Mutex
	responses []GenerateResponse
	errs      []error
	calls     []GenerateRequest
	ReadyErr  error
}

func NewMockLLMService() *MockLLMService {
	return &MockLLMService{}
}

// Enqueue scripts the next response.
func (m *MockLLMService) Enqueue(text string) *MockLLMService {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, GenerateResponse{Text: text})
	m.errs = append(m.errs, nil)
	return m
}

// EnqueueTruncated scripts a length-limited response.
func (m *MockLLMService) EnqueueTruncated(text string) *MockLLMService {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, GenerateResponse{Text: text, Truncated: true})
	m.errs = append(m.errs, nil)
	return m
}

// EnqueueError scripts a failure.
func (m *MockLLMService) EnqueueError(err error) *MockLLMService {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, GenerateResponse{})
	m.errs = append(m.errs, err)
	return m
}

func (m *MockLLMService) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)

	if len(m.responses) == 0 {
		return nil, fmt.Errorf("mock llm has no scripted responses")
	}
	idx := len(m.calls) - 1
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	if err := m.errs[idx]; err != nil {
		return nil, err
	}
	resp := m.responses[idx]
	return &resp, nil
}

func (m *MockLLMService) IsReady(ctx context.Context) error {
	return m.ReadyErr
}

// Calls returns every request received, for assertions.
func (m *MockLLMService) Calls() []GenerateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]GenerateRequest, len(m.calls))
	copy(out, m.calls)
	return out
}
