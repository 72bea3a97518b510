package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/modelarena/arena/internal/embedding"
	"github.com/modelarena/arena/internal/models"
	"github.com/modelarena/arena/internal/store"
	chromem "github.com/philippgille/chromem-go"
	"github.com/rs/zerolog"
)

const collectionPrefix = "model-memory-"

// ChromemIndex implements Index on chromem-go, an embeddable pure-Go vector
// database. Each model gets its own collection so similarity search is
// always scoped by model.
type ChromemIndex struct {
	db       *chromem.DB
	embedder embedding.Embedder
	logger   *zerolog.Logger
}

func NewChromemIndex(db *chromem.DB, embedder embedding.Embedder, logger *zerolog.Logger) *ChromemIndex {
	return &ChromemIndex{
		db:       db,
		embedder: embedder,
		logger:   logger,
	}
}

// NewPersistentChromemIndex opens (or creates) an index backed by gob files
// under path.
func NewPersistentChromemIndex(path string, compress bool, embedder embedding.Embedder, logger *zerolog.Logger) (*ChromemIndex, error) {
	db, err := chromem.NewPersistentDB(path, compress)
	if err != nil {
		return nil, fmt.Errorf("opening chromem DB: %w", err)
	}
	return NewChromemIndex(db, embedder, logger), nil
}

func collectionName(modelID string) string {
	return collectionPrefix + store.SanitizeID(modelID)
}

func (i *ChromemIndex) embeddingFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return i.embedder.Embed(ctx, text)
	}
}

func (i *ChromemIndex) SaveMessage(ctx context.Context, record models.MemoryRecord) error {
	collection, err := i.db.GetOrCreateCollection(collectionName(record.ModelID), nil, i.embeddingFunc())
	if err != nil {
		return fmt.Errorf("getting collection for %s: %w", record.ModelID, err)
	}

	vector, err := i.embedder.Embed(ctx, record.Text)
	if err != nil {
		return fmt.Errorf("embedding memory record: %w", err)
	}

	doc := chromem.Document{
		ID:      record.ID,
		Content: record.Text,
		Metadata: map[string]string{
			"model_id":  record.ModelID,
			"thread_id": record.ThreadID,
			"role":      record.Role,
			"timestamp": strconv.FormatInt(record.Timestamp, 10),
		},
		Embedding: vector,
	}

	if err := collection.AddDocuments(ctx, []chromem.Document{doc}, 1); err != nil {
		return fmt.Errorf("adding memory record: %w", err)
	}

	i.logger.Debug().
		Str("model_id", record.ModelID).
		Str("thread_id", record.ThreadID).
		Str("id", record.ID).
		Msg("memory record saved")

	return nil
}

func (i *ChromemIndex) Search(ctx context.Context, modelID, query string, topK int, threadID string) ([]models.MemoryRecord, error) {
	collection := i.db.GetCollection(collectionName(modelID), i.embeddingFunc())
	if collection == nil {
		return nil, nil
	}

	count := collection.Count()
	if count == 0 {
		return nil, nil
	}
	if topK > count {
		topK = count
	}

	var where map[string]string
	if threadID != "" && threadID != "*" {
		where = map[string]string{"thread_id": threadID}
	}

	vector, err := i.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results, err := collection.QueryEmbedding(ctx, vector, topK, where, nil)
	if err != nil {
		return nil, fmt.Errorf("querying collection: %w", err)
	}

	records := make([]models.MemoryRecord, 0, len(results))
	for _, result := range results {
		timestamp, _ := strconv.ParseInt(result.Metadata["timestamp"], 10, 64)
		records = append(records, models.MemoryRecord{
			ID:         result.ID,
			Text:       result.Content,
			ModelID:    result.Metadata["model_id"],
			ThreadID:   result.Metadata["thread_id"],
			Role:       result.Metadata["role"],
			Timestamp:  timestamp,
			Similarity: float64(result.Similarity),
		})
	}

	// chromem returns results ordered by similarity already; keep the
	// guarantee explicit for callers.
	sort.SliceStable(records, func(a, b int) bool {
		return records[a].Similarity > records[b].Similarity
	})

	return records, nil
}
