package ollama

import (
	"context"
	"fmt"
	"strings"
)

// HealthStatus reports whether the Ollama server is reachable and what
// models it serves.
type HealthStatus struct {
	Available bool
	Error     error
	Models    []Model
}

// CheckHealth verifies connectivity by listing the server's models. An
// unreachable server yields Available=false with the cause in Error,
// not a returned error; callers decide whether that is fatal.
func (c *Client) CheckHealth(ctx context.Context) *HealthStatus {
	tags, err := c.Tags(ctx)
	if err != nil {
		return &HealthStatus{
			Available: false,
			Error:     fmt.Errorf("cannot reach Ollama at %s: %w", c.baseURL, err),
		}
	}
	return &HealthStatus{Available: true, Models: tags.Models}
}

// HasModel reports whether the named model is available. A bare name
// without a tag matches any tag of that model.
func (h *HealthStatus) HasModel(name string) bool {
	for _, m := range h.Models {
		if m.Name == name || m.Model == name {
			return true
		}
		if !strings.Contains(name, ":") && strings.SplitN(m.Name, ":", 2)[0] == name {
			return true
		}
	}
	return false
}
