package orchestrator

import (
	"context"
	"sync"
)

// MockGenerator is a [Generator] for tests. It records every request and
// returns Results in order, repeating the last one when exhausted. With no
// Results it echoes the prompt back as text.
type MockGenerator struct {
	mu       sync.Mutex
	Results  []Result
	Requests []Request

	// Block, when set, is waited on before returning, letting tests hold a
	// generation in flight.
	Block chan struct{}
}

// Generate implements [Generator].
func (m *MockGenerator) Generate(ctx context.Context, req Request) Result {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	n := len(m.Requests)
	block := m.Block
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return Failure("Error: " + ctx.Err().Error())
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Results) == 0 {
		return Success("generated: " + req.Prompt)
	}
	if n > len(m.Results) {
		return m.Results[len(m.Results)-1]
	}
	return m.Results[n-1]
}

// Calls returns how many requests have been made.
func (m *MockGenerator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.Requests)
}

// LastRequest returns the most recent request, or the zero Request.
func (m *MockGenerator) LastRequest() Request {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.Requests) == 0 {
		return Request{}
	}
	return m.Requests[len(m.Requests)-1]
}
