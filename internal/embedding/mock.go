package embedding

import "context"

// MockProvider permite tests sin llamar a un servicio de embeddings real.
type MockProvider struct {
	Vector []float32
	Err    error
	Calls  int
}

func (m *MockProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	m.Calls++
	return m.Vector, m.Err
}
