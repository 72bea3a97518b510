// Package memory provides the semantic memory index: embedded vector
// collections scoped per model, queried by similarity with an optional
// thread filter.
package memory

import (
	"context"

	"github.com/modelarena/arena/internal/models"
)

// Index stores embedded conversation messages and answers similarity
// queries. Records are write-once; search never mutates.
type Index interface {
	// SaveMessage embeds and stores one conversation message in the
	// model-scoped collection.
	SaveMessage(ctx context.Context, record models.MemoryRecord) error

	// Search returns up to topK records from the model's collection ordered
	// by descending similarity to the query. threadID narrows the search
	// when non-empty ("*" means all threads).
	Search(ctx context.Context, modelID, query string, topK int, threadID string) ([]models.MemoryRecord, error)
}
