// Package chat runs the end-to-end turn pipeline: classify the
// message, run the plan engine, route to a specialist, generate a
// response and reconcile progress.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/elyxhealth/concierge/pkg/logger"
	"github.com/elyxhealth/concierge/pkg/plan"
	"github.com/elyxhealth/concierge/pkg/specialists"
	"github.com/elyxhealth/concierge/pkg/store"
	"github.com/elyxhealth/concierge/pkg/vectorstore"
	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"
)

// apologyText is the only error surface a user ever sees from a failed
// generation.
const apologyText = "I'm sorry, I encountered an issue processing your request. Could you please try again?"

// ContextIndex is the similarity-search collaborator. It enriches
// prompts only and never drives plan logic.
type ContextIndex interface {
	Upsert(ctx context.Context, turn vectorstore.Turn) error
	Query(ctx context.Context, query string, topK int) ([]vectorstore.Result, error)
}

// Engine processes chat turns sequentially. It holds no cross-request
// state beyond what it reads fresh from the stores on each call.
type Engine struct {
	llm         llms.Model
	repo        store.Repository
	contexts    ContextIndex // may be nil
	planner     *plan.Generator
	reconciler  *plan.Reconciler
	router      *specialists.Router
	topK        int
	historySize int
	log         *logger.Logger
	now         func() time.Time
}

// NewEngine wires the turn pipeline. contexts may be nil to disable
// similarity search.
func NewEngine(llm llms.Model, repo store.Repository, contexts ContextIndex, topK, historySize int) *Engine {
	if topK <= 0 {
		topK = 3
	}
	if historySize <= 0 {
		historySize = 10
	}
	return &Engine{
		llm:         llm,
		repo:        repo,
		contexts:    contexts,
		planner:     plan.NewGenerator(llm, repo),
		reconciler:  plan.NewReconciler(repo),
		router:      specialists.NewRouter(llm),
		topK:        topK,
		historySize: historySize,
		log:         logger.WithComponent("chat"),
		now:         time.Now,
	}
}

// TurnResult is what a processed chat turn returns to the client.
type TurnResult struct {
	Message             string                 `json:"message"`
	SpecialistName      string                 `json:"specialist_name"`
	Avatar              string                 `json:"avatar"`
	Timestamp           time.Time              `json:"timestamp"`
	PlanCreated         bool                   `json:"plan_created"`
	PlanID              string                 `json:"plan_id,omitempty"`
	PlanData            *plan.ExtractionResult `json:"plan_data,omitempty"`
	PlanDeactivated     bool                   `json:"plan_deactivated"`
	DeactivatedPlanName string                 `json:"deactivated_plan_name,omitempty"`
	UpdatedTasks        []string               `json:"updated_tasks,omitempty"`
}

// ProcessTurn handles one incoming message end to end. Collaborator
// failures degrade to empty context or an apology; the turn itself
// only fails on a broken store write for the user message.
func (e *Engine) ProcessTurn(ctx context.Context, message string) (*TurnResult, error) {
	today := e.now().UTC().Format(plan.DateFormat)

	e.recordTurn(ctx, store.RoleUser, "", message)

	contextText := e.buildContext(ctx, message)

	intent := plan.Classify(message)
	e.log.Info("classified message intent: %s", intent)

	result := &TurnResult{Timestamp: e.now().UTC()}

	switch intent {
	case plan.IntentDeactivate:
		e.deactivate(ctx, message, result)
	case plan.IntentProgressReport:
		// Progress messages never create plans.
	case plan.IntentPlanCandidate:
		out := e.planner.ProcessMessage(ctx, message, contextText)
		result.PlanCreated = out.Created
		result.PlanID = out.PlanID
		if out.Created {
			result.PlanData = &out.Extraction
		}
	}

	input := e.annotateInput(message, result)

	specialistName := e.router.Route(ctx, input)
	specialist, err := specialists.Get(specialistName)
	if err != nil {
		specialist = specialists.Default()
	}

	response, err := specialists.Respond(ctx, e.llm, specialist, e.history(ctx), input)
	if err != nil {
		e.log.Error("generation failed for %s: %v", specialist.Name, err)
		specialist = specialists.Default()
		response = apologyText
	}

	// Fallback plan source: the generated text itself may lay out a
	// day-by-day plan even when the user's message didn't trigger one.
	if !result.PlanCreated && response != apologyText {
		out := e.planner.ProcessResponse(ctx, response)
		if out.Created {
			result.PlanCreated = true
			result.PlanID = out.PlanID
			result.PlanData = &out.Extraction
			response += fmt.Sprintf("\n\nI've created a personalized %d-day plan for you. You can track your progress on the dashboard.",
				out.Extraction.TimelineDays)
		}
	}

	if intent == plan.IntentProgressReport {
		rec := e.reconciler.Reconcile(ctx, message, today, plan.ReconcileOptions{})
		result.UpdatedTasks = rec.UpdatedTasks
		if len(rec.UpdatedTasks) > 0 {
			response += completionNote(rec.UpdatedTasks, today)
		}
	}

	e.recordTurn(ctx, store.RoleAgent, specialist.Name, response)
	e.countWords(ctx, specialist.Name, today, response)

	result.Message = response
	result.SpecialistName = specialist.Name
	result.Avatar = specialist.Avatar
	return result, nil
}

// DailyReport processes an explicit progress report outside the full
// chat pipeline, marking matched tasks and answering as the concierge.
func (e *Engine) DailyReport(ctx context.Context, message string, markAll bool, condition string) (string, []string) {
	today := e.now().UTC().Format(plan.DateFormat)

	e.recordTurn(ctx, store.RoleUser, "", message)

	rec := e.reconciler.Reconcile(ctx, message, today, plan.ReconcileOptions{
		MarkAll:   markAll,
		Condition: condition,
	})

	var response string
	if len(rec.UpdatedTasks) > 0 {
		var sb strings.Builder
		fmt.Fprintf(&sb, "Excellent! I've marked %d tasks as completed for today (%s):\n\n", len(rec.UpdatedTasks), today)
		for i, task := range rec.UpdatedTasks {
			if i == 5 {
				fmt.Fprintf(&sb, "... and %d more tasks!\n", len(rec.UpdatedTasks)-5)
				break
			}
			fmt.Fprintf(&sb, "%d. %s\n", i+1, truncate(task, 60))
		}
		sb.WriteString("\nFantastic progress! Keep up the excellent work!")
		response = sb.String()
	} else {
		response = "I understand. Remember that consistency is key, and it's okay to have challenging days. " +
			"Try to do what you can, and don't be too hard on yourself. Tomorrow is a new opportunity!"
	}

	e.recordTurn(ctx, store.RoleAgent, specialists.DefaultName, response)
	e.countWords(ctx, specialists.DefaultName, today, response)

	return response, rec.UpdatedTasks
}

// deactivate resolves which plan the message refers to and flips it
// inactive, leaving it in place when no plan matches.
func (e *Engine) deactivate(ctx context.Context, message string, result *TurnResult) {
	plans, err := e.repo.ActivePlans(ctx)
	if err != nil {
		e.log.Warn("failed to list plans for deactivation: %v", err)
		return
	}
	target := plan.FindMatchingPlan(message, plans)
	if target == nil {
		e.log.Debug("could not identify which plan to deactivate")
		return
	}
	ok, err := e.repo.DeactivatePlan(ctx, target.ID)
	if err != nil || !ok {
		e.log.Warn("failed to deactivate plan %s: %v", target.Name, err)
		return
	}
	result.PlanDeactivated = true
	result.DeactivatedPlanName = target.Name
	e.log.Info("deactivated plan: %s", target.Name)
}

// annotateInput appends system notes about plan changes so the
// specialist's answer reflects what actually happened.
func (e *Engine) annotateInput(message string, result *TurnResult) string {
	switch {
	case result.PlanCreated && result.PlanData != nil:
		return message + fmt.Sprintf(
			"\n\n[SYSTEM: I have created a personalized %d-day plan for %s with %d daily tasks. The user can view and track progress on their dashboard.]",
			result.PlanData.TimelineDays, result.PlanData.Condition, len(result.PlanData.Tasks))
	case result.PlanDeactivated:
		return message + fmt.Sprintf(
			"\n\n[SYSTEM: I have successfully deactivated the '%s' plan as requested. The plan is no longer active.]",
			result.DeactivatedPlanName)
	default:
		return message
	}
}

// buildContext assembles the prompt context from similarity matches and
// recent history. Either source failing degrades to whatever the other
// provides.
func (e *Engine) buildContext(ctx context.Context, message string) string {
	var parts []string

	if e.contexts != nil {
		matches, err := e.contexts.Query(ctx, message, e.topK)
		if err != nil {
			e.log.Warn("context query failed: %v", err)
		} else if len(matches) > 0 {
			parts = append(parts, "=== RELEVANT CONVERSATION HISTORY ===")
			for _, m := range matches {
				parts = append(parts, fmt.Sprintf("[%s] %s: %s", m.Timestamp, m.Role, m.Message))
			}
			parts = append(parts, "")
		}
	}

	recent, err := e.repo.RecentMessages(ctx, e.historySize)
	if err != nil {
		e.log.Warn("failed to read recent messages: %v", err)
	} else if len(recent) > 0 {
		parts = append(parts, "=== RECENT CONVERSATION ===")
		for i := len(recent) - 1; i >= 0; i-- {
			speaker := recent[i].Specialist
			if speaker == "" {
				speaker = recent[i].Role
			}
			parts = append(parts, fmt.Sprintf("%s: %s", speaker, recent[i].Content))
		}
		parts = append(parts, "")
	}

	return strings.Join(parts, "\n")
}

// history converts recent stored turns into model history, oldest first.
func (e *Engine) history(ctx context.Context) []specialists.HistoryTurn {
	recent, err := e.repo.RecentMessages(ctx, e.historySize)
	if err != nil {
		e.log.Warn("failed to load history: %v", err)
		return nil
	}
	turns := make([]specialists.HistoryTurn, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		turns = append(turns, specialists.HistoryTurn{
			FromUser: recent[i].Role == store.RoleUser,
			Content:  recent[i].Content,
		})
	}
	return turns
}

// recordTurn appends a message to the durable log and the similarity
// index. Store failures are logged, not surfaced; the turn continues.
func (e *Engine) recordTurn(ctx context.Context, role, specialist, content string) {
	msg := store.ChatMessage{
		ID:         uuid.New().String(),
		Role:       role,
		Specialist: specialist,
		Content:    content,
		Timestamp:  e.now().UTC(),
	}

	if e.contexts != nil {
		embeddingID := uuid.New().String()
		err := e.contexts.Upsert(ctx, vectorstore.Turn{
			ID:         embeddingID,
			Message:    content,
			Role:       role,
			Specialist: specialist,
			Timestamp:  msg.Timestamp,
		})
		if err != nil {
			e.log.Warn("context upsert failed: %v", err)
		} else {
			msg.EmbeddingID = embeddingID
		}
	}

	if _, err := e.repo.SaveMessage(ctx, msg); err != nil {
		e.log.Warn("failed to store %s message: %v", role, err)
	}
}

// countWords attributes the generated response to the specialist's
// counters.
func (e *Engine) countWords(ctx context.Context, specialist, date, response string) {
	words := len(strings.Fields(response))
	if err := e.repo.IncrementSpecialistWords(ctx, specialist, date, words); err != nil {
		e.log.Warn("failed to update counters for %s: %v", specialist, err)
	}
}

// completionNote summarizes what reconciliation just marked complete.
func completionNote(tasks []string, date string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "\n\nI have marked %d tasks as completed for today (%s):\n", len(tasks), date)
	for i, task := range tasks {
		if i == 3 {
			fmt.Fprintf(&sb, "... and %d more tasks!\n", len(tasks)-3)
			break
		}
		fmt.Fprintf(&sb, "%d. %s\n", i+1, truncate(task, 50))
	}
	return sb.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
