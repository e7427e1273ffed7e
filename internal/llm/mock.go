package llm

import (
	"context"
	"sync"
	"time"
)

// MockClient permite tests sin llamar a un LLM real.
// Si Responses no esta vacio se consume en orden; luego vuelve a Response.
type MockClient struct {
	Response  string
	Responses []string
	Err       error
	Delay     time.Duration

	mu      sync.Mutex
	calls   int
	prompts []string
}

func (m *MockClient) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.calls++
	m.prompts = append(m.prompts, prompt)
	resp := m.Response
	if len(m.Responses) > 0 {
		resp = m.Responses[0]
		m.Responses = m.Responses[1:]
	}
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return resp, m.Err
}

// Calls devuelve cuantas veces se llamo a Generate.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastPrompt devuelve el ultimo prompt recibido.
func (m *MockClient) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}
