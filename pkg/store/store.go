// Package store persists plans, chat history and specialist counters.
package store

import (
	"context"
	"time"

	"github.com/elyxhealth/concierge/pkg/plan"
)

// Role identifies the author of a chat message.
const (
	RoleUser  = "user"
	RoleAgent = "ai"
)

// ChatMessage is a single conversation turn. The log is append-only.
type ChatMessage struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Role        string    `json:"role"`
	Content     string    `json:"message"`
	Specialist  string    `json:"specialist_name,omitempty"`
	EmbeddingID string    `json:"embedding_id,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// SpecialistCounter accumulates per-specialist word statistics. Created
// lazily on the first generated response and updated monotonically.
type SpecialistCounter struct {
	Specialist    string         `json:"specialist_name"`
	TotalWords    int            `json:"total_words_generated"`
	TotalMessages int            `json:"total_messages_sent"`
	LastActivity  time.Time      `json:"last_activity"`
	DailyWords    map[string]int `json:"daily_word_counts"`
}

// Repository is everything the service persists. It subsumes the
// narrow plan.Store contract the core logic consumes.
type Repository interface {
	plan.Store

	// GetPlan returns a plan by id, or nil when unknown.
	GetPlan(ctx context.Context, planID string) (*plan.Plan, error)

	// SaveMessage appends a chat turn and returns its id.
	SaveMessage(ctx context.Context, msg ChatMessage) (string, error)
	// RecentMessages returns up to limit turns, most recent first.
	RecentMessages(ctx context.Context, limit int) ([]ChatMessage, error)

	// IncrementSpecialistWords adds a word delta for the specialist on
	// the given date, bumping totals and last activity.
	IncrementSpecialistWords(ctx context.Context, specialist, date string, words int) error
	// SpecialistCounters returns counters, optionally filtered by name.
	SpecialistCounters(ctx context.Context, specialist string) ([]SpecialistCounter, error)

	Ping(ctx context.Context) error
	Close() error
}
