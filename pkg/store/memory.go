package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/elyxhealth/concierge/pkg/plan"
	"github.com/google/uuid"
)

// MemoryStore is an in-memory Repository, used in tests and as a
// fallback when no database path is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	userID   string
	plans    []plan.Plan
	messages []ChatMessage
	counters map[string]*SpecialistCounter
}

// NewMemory creates an empty in-memory repository.
func NewMemory(userID string) *MemoryStore {
	return &MemoryStore{
		userID:   userID,
		counters: make(map[string]*SpecialistCounter),
	}
}

// Ping always succeeds.
func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

// CreatePlan stores a new active plan.
func (s *MemoryStore) CreatePlan(ctx context.Context, name, condition string, timelineDays int, tasks []string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	taskObjs := make([]plan.Task, len(tasks))
	for i, t := range tasks {
		taskObjs[i] = plan.Task{Name: t, CompletedDates: []string{}}
	}

	p := plan.Plan{
		ID:           uuid.New().String(),
		UserID:       s.userID,
		Name:         name,
		Condition:    condition,
		TimelineDays: plan.ClampTimeline(timelineDays),
		Tasks:        taskObjs,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	s.plans = append(s.plans, p)
	return p.ID, nil
}

// ActivePlans returns active plans, newest first.
func (s *MemoryStore) ActivePlans(ctx context.Context) ([]plan.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []plan.Plan
	for i := len(s.plans) - 1; i >= 0; i-- {
		if s.plans[i].Active {
			out = append(out, clonePlan(s.plans[i]))
		}
	}
	return out, nil
}

// GetPlan returns a plan by id, or nil when unknown.
func (s *MemoryStore) GetPlan(ctx context.Context, planID string) (*plan.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.plans {
		if s.plans[i].ID == planID {
			p := clonePlan(s.plans[i])
			return &p, nil
		}
	}
	return nil, nil
}

// MarkTaskComplete records a completion date, idempotently.
func (s *MemoryStore) MarkTaskComplete(ctx context.Context, planID, taskName, date string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.plans {
		if s.plans[i].ID != planID {
			continue
		}
		for j := range s.plans[i].Tasks {
			if s.plans[i].Tasks[j].Name != taskName {
				continue
			}
			if !s.plans[i].Tasks[j].CompletedOn(date) {
				s.plans[i].Tasks[j].CompletedDates = append(s.plans[i].Tasks[j].CompletedDates, date)
			}
			s.plans[i].UpdatedAt = time.Now().UTC()
			return true, nil
		}
		return false, nil
	}
	return false, nil
}

// DeactivatePlan flips a plan inactive.
func (s *MemoryStore) DeactivatePlan(ctx context.Context, planID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.plans {
		if s.plans[i].ID == planID && s.plans[i].Active {
			s.plans[i].Active = false
			s.plans[i].UpdatedAt = time.Now().UTC()
			return true, nil
		}
	}
	return false, nil
}

// SaveMessage appends a chat turn.
func (s *MemoryStore) SaveMessage(ctx context.Context, msg ChatMessage) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	msg.UserID = s.userID
	s.messages = append(s.messages, msg)
	return msg.ID, nil
}

// RecentMessages returns up to limit turns, most recent first.
func (s *MemoryStore) RecentMessages(ctx context.Context, limit int) ([]ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sorted := make([]ChatMessage, len(s.messages))
	copy(sorted, s.messages)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp.After(sorted[j].Timestamp) })

	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted, nil
}

// IncrementSpecialistWords adds a word delta, creating the counter lazily.
func (s *MemoryStore) IncrementSpecialistWords(ctx context.Context, specialist, date string, words int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[specialist]
	if !ok {
		c = &SpecialistCounter{Specialist: specialist, DailyWords: map[string]int{}}
		s.counters[specialist] = c
	}
	c.TotalWords += words
	c.TotalMessages++
	c.LastActivity = time.Now().UTC()
	c.DailyWords[date] += words
	return nil
}

// SpecialistCounters returns counters, optionally filtered by name.
func (s *MemoryStore) SpecialistCounters(ctx context.Context, specialist string) ([]SpecialistCounter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []SpecialistCounter
	for _, c := range s.counters {
		if specialist != "" && c.Specialist != specialist {
			continue
		}
		copied := *c
		copied.DailyWords = make(map[string]int, len(c.DailyWords))
		for k, v := range c.DailyWords {
			copied.DailyWords[k] = v
		}
		out = append(out, copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Specialist < out[j].Specialist })
	return out, nil
}

func clonePlan(p plan.Plan) plan.Plan {
	tasks := make([]plan.Task, len(p.Tasks))
	for i, t := range p.Tasks {
		dates := make([]string, len(t.CompletedDates))
		copy(dates, t.CompletedDates)
		tasks[i] = plan.Task{Name: t.Name, CompletedDates: dates}
	}
	p.Tasks = tasks
	return p
}
