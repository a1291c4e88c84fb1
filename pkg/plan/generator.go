package plan

import (
	"context"
	"strings"

	"github.com/elyxhealth/concierge/pkg/logger"
	"github.com/tmc/langchaingo/llms"
)

// Generator decides whether a message or a generated response should
// produce a new stored plan, avoiding duplicates for conditions that
// already have an active plan.
type Generator struct {
	llm   llms.Model
	store Store
	log   *logger.Logger
}

// NewGenerator creates a plan generator backed by the given model and store.
func NewGenerator(llm llms.Model, store Store) *Generator {
	return &Generator{
		llm:   llm,
		store: store,
		log:   logger.WithComponent("plan"),
	}
}

// Outcome describes the result of a plan-generation attempt.
type Outcome struct {
	Created      bool
	PlanID       string
	ExistingPlan string
	Extraction   ExtractionResult
}

// ProcessMessage analyzes a user message and creates a plan when the
// model says one is needed and no active plan already covers the
// condition. Progress-flavored messages never create plans.
func (g *Generator) ProcessMessage(ctx context.Context, message, contextText string) Outcome {
	if ContainsAny(message, ProgressKeywords) {
		g.log.Debug("progress-flavored message, skipping plan creation")
		return Outcome{Extraction: ExtractionResult{HasPlan: false, Reason: "progress request"}}
	}

	if existing := g.findExisting(ctx, strings.ToLower(message)); existing != nil {
		g.log.Info("active plan already covers this condition: %s", existing.Name)
		return Outcome{PlanID: existing.ID, ExistingPlan: existing.Name}
	}

	extraction := AnalyzeMessage(ctx, g.llm, message, contextText)
	if !extraction.HasPlan {
		g.log.Debug("no plan needed: %s", extraction.Reason)
		return Outcome{Extraction: extraction}
	}

	return g.create(ctx, extraction)
}

// ProcessResponse runs the deterministic day-pattern extractor over
// generated specialist text, used as a fallback plan source after the
// model has answered.
func (g *Generator) ProcessResponse(ctx context.Context, response string) Outcome {
	extraction := ExtractFromResponse(response)
	if !extraction.HasPlan {
		return Outcome{Extraction: extraction}
	}

	if existing := g.findExisting(ctx, strings.ToLower(extraction.Condition)); existing != nil {
		g.log.Info("active plan already exists for %s, not creating duplicate", existing.Condition)
		return Outcome{PlanID: existing.ID, ExistingPlan: existing.Name, Extraction: extraction}
	}

	return g.create(ctx, extraction)
}

// findExisting returns the first active plan whose condition shares a
// significant word with the text.
func (g *Generator) findExisting(ctx context.Context, text string) *Plan {
	plans, err := g.store.ActivePlans(ctx)
	if err != nil {
		g.log.Warn("failed to list active plans: %v", err)
		return nil
	}
	for i := range plans {
		for _, word := range SignificantWords(plans[i].Condition) {
			if strings.Contains(text, word) {
				return &plans[i]
			}
		}
	}
	return nil
}

// create persists an extracted plan. A result without tasks is demoted
// to HasPlan=false here rather than stored empty.
func (g *Generator) create(ctx context.Context, extraction ExtractionResult) Outcome {
	if len(extraction.Tasks) == 0 {
		extraction.HasPlan = false
		extraction.Reason = "no tasks found in plan data"
		return Outcome{Extraction: extraction}
	}

	name := extraction.PlanName
	if name == "" {
		name = "Health Plan"
	}
	condition := extraction.Condition
	if condition == "" {
		condition = "General Health"
	}

	planID, err := g.store.CreatePlan(ctx, name, condition, ClampTimeline(extraction.TimelineDays), extraction.Tasks)
	if err != nil {
		g.log.Error("failed to create plan: %v", err)
		extraction.HasPlan = false
		extraction.Reason = "plan could not be stored"
		return Outcome{Extraction: extraction}
	}

	g.log.Info("created plan %s (%d tasks, %d days)", name, len(extraction.Tasks), extraction.TimelineDays)
	return Outcome{Created: true, PlanID: planID, Extraction: extraction}
}
