// Package vectorstore keeps a similarity-searchable index of chat
// turns, used only to enrich prompts sent to the model.
package vectorstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	chromem "github.com/philippgille/chromem-go"
)

// metadataMessageLimit bounds how much of a message is kept in the
// document metadata.
const metadataMessageLimit = 500

// ContextStore indexes conversation turns in a chromem-go collection.
type ContextStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	mu         sync.RWMutex
}

// Config contains configuration for a ContextStore.
type Config struct {
	// CollectionName is the name of the collection to use.
	CollectionName string

	// PersistDirectory is the directory for persistence (empty for in-memory only).
	PersistDirectory string

	// EmbeddingFunc creates embeddings for stored and queried text.
	// Defaults to chromem's Ollama embedding function when nil.
	EmbeddingFunc chromem.EmbeddingFunc

	// OllamaURL is the Ollama base URL used for the default embedder.
	OllamaURL string

	// EmbeddingModel is the model used for the default embedder.
	EmbeddingModel string
}

// New creates a ContextStore.
func New(config Config) (*ContextStore, error) {
	if config.CollectionName == "" {
		config.CollectionName = "chat-history"
	}

	embeddingFunc := config.EmbeddingFunc
	if embeddingFunc == nil {
		embeddingFunc = chromem.NewEmbeddingFuncOllama(config.EmbeddingModel, config.OllamaURL+"/api")
	}

	var db *chromem.DB
	var err error
	if config.PersistDirectory != "" {
		db, err = chromem.NewPersistentDB(config.PersistDirectory, false)
	} else {
		db = chromem.NewDB()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create chromem database: %w", err)
	}

	collection, err := db.GetOrCreateCollection(config.CollectionName, nil, embeddingFunc)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	return &ContextStore{db: db, collection: collection}, nil
}

// Turn is a chat turn to index.
type Turn struct {
	ID         string
	Message    string
	Role       string
	Specialist string
	Timestamp  time.Time
}

// Result is a similarity match with its metadata.
type Result struct {
	Message    string  `json:"message"`
	Role       string  `json:"role"`
	Specialist string  `json:"specialist"`
	Timestamp  string  `json:"timestamp"`
	Score      float32 `json:"score"`
}

// Upsert indexes one chat turn. The message stored in metadata is
// truncated; the full text lives in the durable chat log.
func (s *ContextStore) Upsert(ctx context.Context, turn Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	message := turn.Message
	if len(message) > metadataMessageLimit {
		message = message[:metadataMessageLimit]
	}

	doc := chromem.Document{
		ID:      turn.ID,
		Content: turn.Message,
		Metadata: map[string]string{
			"role":       turn.Role,
			"specialist": turn.Specialist,
			"timestamp":  turn.Timestamp.UTC().Format(time.RFC3339),
			"message":    message,
		},
	}

	if err := s.collection.AddDocuments(ctx, []chromem.Document{doc}, 1); err != nil {
		return fmt.Errorf("failed to add document: %w", err)
	}
	return nil
}

// Query returns up to topK turns most similar to the query text.
func (s *ContextStore) Query(ctx context.Context, query string, topK int) ([]Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Ensure k doesn't exceed document count
	docCount := s.collection.Count()
	if topK > docCount {
		topK = docCount
	}
	if docCount == 0 {
		return []Result{}, nil
	}

	matches, err := s.collection.Query(ctx, query, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	results := make([]Result, 0, len(matches))
	for _, m := range matches {
		results = append(results, Result{
			Message:    m.Metadata["message"],
			Role:       m.Metadata["role"],
			Specialist: m.Metadata["specialist"],
			Timestamp:  m.Metadata["timestamp"],
			Score:      m.Similarity,
		})
	}
	return results, nil
}

// Count returns the number of indexed turns.
func (s *ContextStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collection.Count()
}
