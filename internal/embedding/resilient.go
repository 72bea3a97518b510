package embedding

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

// Resilient wraps an Embedder so that failures yield zero vectors instead of
// errors. Downstream scoring treats a zero vector as similarity 0, so a flaky
// embedding backend degrades scores rather than failing rounds.
type Resilient struct {
	inner  Embedder
	logger *zerolog.Logger
}

func NewResilient(inner Embedder, logger *zerolog.Logger) *Resilient {
	return &Resilient{inner: inner, logger: logger}
}

func (r *Resilient) Dimension() int { return r.inner.Dimension() }

func (r *Resilient) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return make([]float32, r.inner.Dimension()), nil
	}

	vector, err := r.inner.Embed(ctx, text)
	if err != nil {
		r.logger.Warn().Err(err).Msg("embedding failed, returning zero vector")
		return make([]float32, r.inner.Dimension()), nil
	}
	return vector, nil
}

func (r *Resilient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := r.inner.EmbedBatch(ctx, texts)
	if err != nil {
		r.logger.Warn().Err(err).Int("count", len(texts)).Msg("batch embedding failed, returning zero vectors")
		vectors = make([][]float32, len(texts))
		for i := range vectors {
			vectors[i] = make([]float32, r.inner.Dimension())
		}
	}
	return vectors, nil
}
