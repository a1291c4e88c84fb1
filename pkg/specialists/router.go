package specialists

import (
	"context"
	"fmt"
	"strings"

	"github.com/elyxhealth/concierge/pkg/logger"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"
)

// Router chooses which specialist should answer a message.
type Router struct {
	llm llms.Model
	log *logger.Logger
}

// NewRouter creates a router backed by the given model.
func NewRouter(llm llms.Model) *Router {
	return &Router{llm: llm, log: logger.WithComponent("router")}
}

var routerPrompt = prompts.NewPromptTemplate(`You are the dispatcher for a health concierge team. Given the user's
message, pick the single best specialist to answer it.

The team:
{{.team}}

Respond with ONLY the specialist's name, exactly as written above, and
nothing else.

User message: {{.input}}`, []string{"team", "input"})

// Route returns the name of the specialist that should handle the
// input. Any routing failure or unrecognized answer falls back to the
// concierge.
func (r *Router) Route(ctx context.Context, input string) string {
	var sb strings.Builder
	for _, s := range team {
		fmt.Fprintf(&sb, "- %s: %s\n", s.Name, s.Description)
	}

	prompt, err := routerPrompt.Format(map[string]any{
		"team":  sb.String(),
		"input": input,
	})
	if err != nil {
		r.log.Warn("router prompt build failed: %v", err)
		return DefaultName
	}

	response, err := llms.GenerateFromSinglePrompt(ctx, r.llm, prompt)
	if err != nil {
		r.log.Warn("routing call failed, using %s: %v", DefaultName, err)
		return DefaultName
	}

	name := strings.TrimSpace(response)
	if _, err := Get(name); err != nil {
		r.log.Debug("router returned unknown specialist %q, using %s", name, DefaultName)
		return DefaultName
	}

	r.log.Info("routed to specialist: %s", name)
	return name
}
