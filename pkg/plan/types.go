package plan

import (
	"context"
	"time"
)

// DateFormat is the calendar-date representation used for task completions.
const DateFormat = "2006-01-02"

// MaxTimelineDays is the hard ceiling on a plan's timeline.
const MaxTimelineDays = 7

// Task is a single named daily action within a plan, tracked by the set
// of dates it was completed on.
type Task struct {
	Name           string   `json:"task_name"`
	CompletedDates []string `json:"progress"`
}

// CompletedOn reports whether the task was marked complete on the given date.
func (t Task) CompletedOn(date string) bool {
	for _, d := range t.CompletedDates {
		if d == date {
			return true
		}
	}
	return false
}

// Plan is a structured, time-boxed set of daily tasks addressing a
// stated health condition.
type Plan struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Name         string    `json:"plan_name"`
	Condition    string    `json:"condition"`
	TimelineDays int       `json:"timeline_days"`
	Tasks        []Task    `json:"tasks"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PendingTasks returns the tasks lacking a completion for the given date.
func (p *Plan) PendingTasks(date string) []Task {
	var pending []Task
	for _, t := range p.Tasks {
		if !t.CompletedOn(date) {
			pending = append(pending, t)
		}
	}
	return pending
}

// ExtractionResult is the shared contract of both plan-extraction paths.
// When HasPlan is false, Reason explains why no plan was produced.
type ExtractionResult struct {
	HasPlan      bool     `json:"needs_plan"`
	Condition    string   `json:"condition,omitempty"`
	PlanName     string   `json:"plan_name,omitempty"`
	TimelineDays int      `json:"timeline_days,omitempty"`
	Tasks        []string `json:"tasks,omitempty"`
	Reason       string   `json:"reason,omitempty"`
}

// Store is the narrow persistence surface the plan engine consumes.
// Implementations must keep MarkTaskComplete idempotent for a given
// plan/task/date triple and return ActivePlans newest-first.
type Store interface {
	CreatePlan(ctx context.Context, name, condition string, timelineDays int, tasks []string) (string, error)
	ActivePlans(ctx context.Context) ([]Plan, error)
	MarkTaskComplete(ctx context.Context, planID, taskName, date string) (bool, error)
	DeactivatePlan(ctx context.Context, planID string) (bool, error)
}

// ClampTimeline bounds a timeline length to [1, MaxTimelineDays].
func ClampTimeline(days int) int {
	if days < 1 {
		return 1
	}
	if days > MaxTimelineDays {
		return MaxTimelineDays
	}
	return days
}
