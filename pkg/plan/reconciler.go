package plan

import (
	"context"
	"strings"

	"github.com/elyxhealth/concierge/pkg/logger"
)

// Reconciler matches free-text progress statements to specific task
// completions and writes them through the plan store.
type Reconciler struct {
	store Store
	log   *logger.Logger
}

// NewReconciler creates a reconciler over the given store.
func NewReconciler(store Store) *Reconciler {
	return &Reconciler{store: store, log: logger.WithComponent("reconciler")}
}

// ReconcileOptions direct the reconciler toward a single plan instead
// of the per-task heuristic.
type ReconcileOptions struct {
	// MarkAll forces directed mode even without "mark all" phrasing.
	MarkAll bool
	// Condition filters the target plan by condition keywords.
	Condition string
}

// ReconcileResult lists what a reconciliation pass updated.
type ReconcileResult struct {
	UpdatedTasks []string
	Plan         *Plan
}

// Reconcile inspects a user message and marks matching pending tasks
// complete for the given date. Directed mode resolves one target plan
// and marks every task in it lacking a completion for the date.
// Heuristic mode marks a pending task when the message shares a
// significant word with the task name, or when it carries two or more
// generic completion indicators even without lexical overlap - a
// deliberate tolerance for casual confirmations like "yes, all done!",
// traded against false positives.
//
// Negative indicators ("didn't", "missed") are not consulted: they
// never prevent or revert a completion. Store misses are skipped
// silently; each successful match issues exactly one MarkTaskComplete
// call and a mid-loop failure leaves earlier marks in place.
func (r *Reconciler) Reconcile(ctx context.Context, message, date string, opts ReconcileOptions) ReconcileResult {
	plans, err := r.store.ActivePlans(ctx)
	if err != nil {
		r.log.Warn("failed to list active plans: %v", err)
		return ReconcileResult{}
	}
	if len(plans) == 0 {
		return ReconcileResult{}
	}

	lower := strings.ToLower(message)
	directed := opts.MarkAll || strings.Contains(lower, "mark all") || strings.Contains(lower, "all tasks")

	if directed {
		return r.reconcileDirected(ctx, lower, date, opts.Condition, plans)
	}
	return r.reconcileHeuristic(ctx, lower, date, plans)
}

// reconcileDirected resolves one target plan and marks all its pending
// tasks complete for the date.
func (r *Reconciler) reconcileDirected(ctx context.Context, lower, date, condition string, plans []Plan) ReconcileResult {
	var target *Plan
	if condition != "" {
		target = FindPlanByCondition(condition, plans)
	} else {
		target = FindMatchingPlan(lower, plans)
	}
	if target == nil {
		r.log.Debug("could not identify a target plan for directed update")
		return ReconcileResult{}
	}

	var updated []string
	for _, task := range target.Tasks {
		if task.CompletedOn(date) {
			continue
		}
		ok, err := r.store.MarkTaskComplete(ctx, target.ID, task.Name, date)
		if err != nil {
			r.log.Warn("mark task failed: %v", err)
			continue
		}
		if ok {
			updated = append(updated, task.Name)
		}
	}

	if len(updated) > 0 {
		r.log.Info("marked all %d pending tasks complete for plan %s", len(updated), target.Name)
	}
	return ReconcileResult{UpdatedTasks: updated, Plan: target}
}

// reconcileHeuristic walks every pending task across all active plans
// and marks the ones the message plausibly confirms.
func (r *Reconciler) reconcileHeuristic(ctx context.Context, lower, date string, plans []Plan) ReconcileResult {
	if !ContainsAny(lower, CompletionIndicators) {
		return ReconcileResult{}
	}

	genericConfirmation := CountIndicators(lower, CompletionIndicators) >= 2
	messageWords := SignificantWords(lower)

	var updated []string
	for i := range plans {
		for _, task := range plans[i].Tasks {
			if task.CompletedOn(date) {
				continue
			}
			if !genericConfirmation && !mentionsTask(messageWords, task.Name) {
				continue
			}
			ok, err := r.store.MarkTaskComplete(ctx, plans[i].ID, task.Name, date)
			if err != nil {
				r.log.Warn("mark task failed: %v", err)
				continue
			}
			if ok {
				updated = append(updated, task.Name)
			}
		}
	}

	if len(updated) > 0 {
		r.log.Info("marked %d tasks complete for %s", len(updated), date)
	}
	return ReconcileResult{UpdatedTasks: updated}
}

// mentionsTask reports whether any significant word of the message
// appears in the task name.
func mentionsTask(messageWords []string, taskName string) bool {
	taskLower := strings.ToLower(taskName)
	for _, word := range messageWords {
		if strings.Contains(taskLower, word) {
			return true
		}
	}
	return false
}
