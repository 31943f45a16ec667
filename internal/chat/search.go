package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"qrmenu/internal/models"
)

// Embedder produces vector embeddings for texts. *openai.LLM from
// langchaingo satisfies this.
type Embedder interface {
	CreateEmbedding(ctx context.Context, inputTexts []string) ([][]float32, error)
}

// EmbeddingStore is the read side of the menu_item_embeddings table.
type EmbeddingStore interface {
	ListEmbeddings() ([]models.MenuItemEmbedding, error)
}

// Match is one semantic search hit.
type Match struct {
	MenuItemID string
	Score      float32
}

// Search ranks menu items against a free-text query by cosine similarity of
// their stored embeddings. Embeddings are populated by the offline batch job.
type Search struct {
	embedder Embedder
	store    EmbeddingStore
}

// NewSearch creates a semantic search over stored embeddings.
func NewSearch(embedder Embedder, store EmbeddingStore) *Search {
	return &Search{embedder: embedder, store: store}
}

// Query returns the top k menu items most similar to the query text.
func (s *Search) Query(ctx context.Context, query string, k int) ([]Match, error) {
	vectors, err := s.embedder.CreateEmbedding(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("chat: embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("chat: embedder returned no vectors")
	}
	queryVector := vectors[0]

	rows, err := s.store.ListEmbeddings()
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(rows))
	for _, row := range rows {
		var stored []float32
		if err := json.Unmarshal([]byte(row.Vector), &stored); err != nil {
			continue
		}
		matches = append(matches, Match{
			MenuItemID: row.MenuItemID,
			Score:      cosineSimilarity(queryVector, stored),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if k < len(matches) {
		matches = matches[:k]
	}
	return matches, nil
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct float32
	var normA float32
	var normB float32

	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / float32(math.Sqrt(float64(normA)*float64(normB)))
}
