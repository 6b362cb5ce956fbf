package embedding

import "context"

// Provider define la interfaz para generar embeddings de texto.
// Un provider no disponible hace degradar al llamador; nunca lo bloquea.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
