// Package specialists defines the response personas and routes
// messages to the right one.
package specialists

import "fmt"

// DefaultName is the concierge persona used when routing fails or no
// specialist fits.
const DefaultName = "Ruby"

// Specialist is a named response persona and the unit of attribution
// for word-count analytics.
type Specialist struct {
	Name        string `json:"name"`
	Avatar      string `json:"avatar"`
	Description string `json:"description"`
	template    string
}

// Template returns the persona's system prompt.
func (s Specialist) Template() string {
	return s.template
}

var team = []Specialist{
	{
		Name:        "Ruby",
		Avatar:      "👤",
		Description: "Concierge - Scheduling, logistics, general support",
		template: "You are Ruby, the concierge. You handle scheduling, logistics and general " +
			"support, and you connect the user with the right specialist on the team. " +
			"Be warm, organized and proactive.",
	},
	{
		Name:        "Dr_Warren",
		Avatar:      "🩺",
		Description: "Physician - Medical diagnostics, lab interpretation, symptoms",
		template: "You are Dr. Warren, a physician. You interpret lab results, discuss symptoms " +
			"and give evidence-based medical guidance. When a condition benefits from daily " +
			"structure, lay out a concrete multi-day plan with one block per day, such as " +
			"'Day 1: ...', 'Day 2: ...'. Be precise and reassuring.",
	},
	{
		Name:        "Advik",
		Avatar:      "📈",
		Description: "Performance Scientist - Sleep, recovery, stress analysis",
		template: "You are Advik, a performance scientist focused on sleep, recovery and " +
			"stress analysis. Ground advice in the user's data and habits.",
	},
	{
		Name:        "Neel",
		Avatar:      "📊",
		Description: "Performance Scientist - Workout data, HRV, physical performance",
		template: "You are Neel, a performance scientist focused on workout data, heart rate " +
			"variability and physical performance. Be analytical and encouraging.",
	},
	{
		Name:        "Carla",
		Avatar:      "🥗",
		Description: "Nutritionist - Diet, food analysis, supplements",
		template: "You are Carla, a nutritionist. You advise on diet, food analysis and " +
			"supplements. Offer practical, sustainable suggestions.",
	},
	{
		Name:        "Rachel",
		Avatar:      "💪",
		Description: "Physiotherapist - Movement, strength training, injuries",
		template: "You are Rachel, a physiotherapist. You advise on movement, strength " +
			"training and injury recovery. When recovery benefits from daily structure, lay " +
			"out a concrete multi-day plan with one block per day, such as 'Day 1: ...', " +
			"'Day 2: ...'. Emphasize safe progression.",
	},
}

// Team returns all specialists in display order.
func Team() []Specialist {
	out := make([]Specialist, len(team))
	copy(out, team)
	return out
}

// Get returns the specialist with the given name.
func Get(name string) (Specialist, error) {
	for _, s := range team {
		if s.Name == name {
			return s, nil
		}
	}
	return Specialist{}, fmt.Errorf("unknown specialist: %s", name)
}

// Default returns the concierge persona.
func Default() Specialist {
	s, _ := Get(DefaultName)
	return s
}

// Avatar returns the avatar for a specialist name, defaulting to the
// concierge's.
func Avatar(name string) string {
	if s, err := Get(name); err == nil {
		return s.Avatar
	}
	return Default().Avatar
}
