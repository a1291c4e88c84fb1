package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/elyxhealth/concierge/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newRepositories returns every Repository implementation under test.
func newRepositories(t *testing.T) map[string]store.Repository {
	t.Helper()

	sqlite, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"), "test_user")
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]store.Repository{
		"sqlite": sqlite,
		"memory": store.NewMemory("test_user"),
	}
}

func TestCreateAndListPlans(t *testing.T) {
	ctx := context.Background()
	for name, repo := range newRepositories(t) {
		t.Run(name, func(t *testing.T) {
			first, err := repo.CreatePlan(ctx, "Back Pain Recovery", "back pain", 3, []string{"Day 1: stretch"})
			require.NoError(t, err)
			second, err := repo.CreatePlan(ctx, "Stress Relief Plan", "stress", 5, []string{"Day 1: meditate", "Day 2: walk"})
			require.NoError(t, err)

			plans, err := repo.ActivePlans(ctx)
			require.NoError(t, err)
			require.Len(t, plans, 2)

			// newest first
			assert.Equal(t, second, plans[0].ID)
			assert.Equal(t, first, plans[1].ID)
			assert.Equal(t, "Stress Relief Plan", plans[0].Name)
			assert.Len(t, plans[0].Tasks, 2)
			assert.True(t, plans[0].Active)
			assert.Equal(t, "test_user", plans[0].UserID)
		})
	}
}

func TestCreatePlanClampsTimeline(t *testing.T) {
	ctx := context.Background()
	for name, repo := range newRepositories(t) {
		t.Run(name, func(t *testing.T) {
			id, err := repo.CreatePlan(ctx, "Long Plan", "stress", 30, []string{"Day 1: rest"})
			require.NoError(t, err)

			p, err := repo.GetPlan(ctx, id)
			require.NoError(t, err)
			require.NotNil(t, p)
			assert.Equal(t, 7, p.TimelineDays)
		})
	}
}

func TestGetPlanUnknown(t *testing.T) {
	ctx := context.Background()
	for name, repo := range newRepositories(t) {
		t.Run(name, func(t *testing.T) {
			p, err := repo.GetPlan(ctx, "no-such-plan")
			require.NoError(t, err)
			assert.Nil(t, p)
		})
	}
}

func TestMarkTaskCompleteIdempotent(t *testing.T) {
	ctx := context.Background()
	for name, repo := range newRepositories(t) {
		t.Run(name, func(t *testing.T) {
			id, err := repo.CreatePlan(ctx, "Back Pain Recovery", "back pain", 2, []string{"Day 1: stretch", "Day 2: walk"})
			require.NoError(t, err)

			ok, err := repo.MarkTaskComplete(ctx, id, "Day 1: stretch", "2026-09-01")
			require.NoError(t, err)
			assert.True(t, ok)

			// marking the same triple again must not duplicate the date
			ok, err = repo.MarkTaskComplete(ctx, id, "Day 1: stretch", "2026-09-01")
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = repo.MarkTaskComplete(ctx, id, "Day 1: stretch", "2026-09-02")
			require.NoError(t, err)
			assert.True(t, ok)

			p, err := repo.GetPlan(ctx, id)
			require.NoError(t, err)
			require.NotNil(t, p)
			assert.Equal(t, []string{"2026-09-01", "2026-09-02"}, p.Tasks[0].CompletedDates)
			assert.Empty(t, p.Tasks[1].CompletedDates)
		})
	}
}

func TestMarkTaskCompleteUnknownTargets(t *testing.T) {
	ctx := context.Background()
	for name, repo := range newRepositories(t) {
		t.Run(name, func(t *testing.T) {
			id, err := repo.CreatePlan(ctx, "Back Pain Recovery", "back pain", 1, []string{"Day 1: stretch"})
			require.NoError(t, err)

			ok, err := repo.MarkTaskComplete(ctx, "no-such-plan", "Day 1: stretch", "2026-09-01")
			require.NoError(t, err)
			assert.False(t, ok)

			ok, err = repo.MarkTaskComplete(ctx, id, "no-such-task", "2026-09-01")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestDeactivatePlan(t *testing.T) {
	ctx := context.Background()
	for name, repo := range newRepositories(t) {
		t.Run(name, func(t *testing.T) {
			id, err := repo.CreatePlan(ctx, "Back Pain Recovery", "back pain", 1, []string{"Day 1: stretch"})
			require.NoError(t, err)

			ok, err := repo.DeactivatePlan(ctx, id)
			require.NoError(t, err)
			assert.True(t, ok)

			// already inactive
			ok, err = repo.DeactivatePlan(ctx, id)
			require.NoError(t, err)
			assert.False(t, ok)

			plans, err := repo.ActivePlans(ctx)
			require.NoError(t, err)
			assert.Empty(t, plans)

			// still retrievable for audit
			p, err := repo.GetPlan(ctx, id)
			require.NoError(t, err)
			require.NotNil(t, p)
			assert.False(t, p.Active)
		})
	}
}

func TestSaveAndListMessages(t *testing.T) {
	ctx := context.Background()
	for name, repo := range newRepositories(t) {
		t.Run(name, func(t *testing.T) {
			for _, content := range []string{"first", "second", "third"} {
				_, err := repo.SaveMessage(ctx, store.ChatMessage{
					Role:    store.RoleUser,
					Content: content,
				})
				require.NoError(t, err)
			}
			_, err := repo.SaveMessage(ctx, store.ChatMessage{
				Role:       store.RoleAgent,
				Content:    "reply",
				Specialist: "Ruby",
			})
			require.NoError(t, err)

			msgs, err := repo.RecentMessages(ctx, 2)
			require.NoError(t, err)
			require.Len(t, msgs, 2)
			assert.Equal(t, "reply", msgs[0].Content)
			assert.Equal(t, "Ruby", msgs[0].Specialist)
			assert.Equal(t, "third", msgs[1].Content)

			all, err := repo.RecentMessages(ctx, 10)
			require.NoError(t, err)
			assert.Len(t, all, 4)
		})
	}
}

func TestSpecialistCounters(t *testing.T) {
	ctx := context.Background()
	for name, repo := range newRepositories(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, repo.IncrementSpecialistWords(ctx, "Ruby", "2026-09-01", 40))
			require.NoError(t, repo.IncrementSpecialistWords(ctx, "Ruby", "2026-09-01", 10))
			require.NoError(t, repo.IncrementSpecialistWords(ctx, "Ruby", "2026-09-02", 5))
			require.NoError(t, repo.IncrementSpecialistWords(ctx, "Dr_Warren", "2026-09-01", 20))

			counters, err := repo.SpecialistCounters(ctx, "")
			require.NoError(t, err)
			require.Len(t, counters, 2)

			byName := map[string]store.SpecialistCounter{}
			for _, c := range counters {
				byName[c.Specialist] = c
			}
			ruby := byName["Ruby"]
			assert.Equal(t, 55, ruby.TotalWords)
			assert.Equal(t, 3, ruby.TotalMessages)
			assert.Equal(t, map[string]int{"2026-09-01": 50, "2026-09-02": 5}, ruby.DailyWords)
			assert.False(t, ruby.LastActivity.IsZero())

			only, err := repo.SpecialistCounters(ctx, "Dr_Warren")
			require.NoError(t, err)
			require.Len(t, only, 1)
			assert.Equal(t, 20, only[0].TotalWords)
		})
	}
}

func TestPing(t *testing.T) {
	ctx := context.Background()
	for name, repo := range newRepositories(t) {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, repo.Ping(ctx))
		})
	}
}
