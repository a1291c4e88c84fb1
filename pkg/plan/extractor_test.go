package plan_test

import (
	"strings"

	"github.com/elyxhealth/concierge/pkg/plan"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ExtractFromResponse", func() {
	It("assembles a plan from Day N: blocks", func() {
		text := "Here is your 7-Day Back Pain Relief Plan:\n" +
			"Day 1: Gentle stretching for 10 minutes\n" +
			"Day 2: Apply heat pack twice\n" +
			"Day 3: Short walk, avoid lifting"

		result := plan.ExtractFromResponse(text)
		Expect(result.HasPlan).To(BeTrue())
		Expect(result.TimelineDays).To(Equal(3))
		Expect(result.Tasks).To(Equal([]string{
			"Day 1: Gentle stretching for 10 minutes",
			"Day 2: Apply heat pack twice",
			"Day 3: Short walk, avoid lifting",
		}))
		Expect(result.Condition).To(Equal("back pain"))
		Expect(result.PlanName).To(Equal("7-Day Back Pain Relief Plan"))
	})

	It("keeps the task count equal to the timeline when blocks exceed the cap", func() {
		var b strings.Builder
		b.WriteString("Your recovery program\n")
		for day := 1; day <= 10; day++ {
			b.WriteString("Day ")
			b.WriteString(string(rune('0' + day%10)))
			b.WriteString(": rest and hydrate\n")
		}

		result := plan.ExtractFromResponse(b.String())
		Expect(result.HasPlan).To(BeTrue())
		Expect(result.TimelineDays).To(Equal(plan.MaxTimelineDays))
		Expect(result.Tasks).To(HaveLen(plan.MaxTimelineDays))
	})

	It("collapses whitespace inside a task description", func() {
		text := "Day 1:   drink\n  water\t often"
		result := plan.ExtractFromResponse(text)
		Expect(result.Tasks).To(Equal([]string{"Day 1: drink water often"}))
	})

	It("truncates overlong task descriptions with an ellipsis", func() {
		long := strings.Repeat("stretch ", 60)
		result := plan.ExtractFromResponse("Day 1: " + long)
		Expect(result.Tasks).To(HaveLen(1))
		desc := strings.TrimPrefix(result.Tasks[0], "Day 1: ")
		Expect(len(desc)).To(Equal(200))
		Expect(desc).To(HaveSuffix("..."))
	})

	It("accepts case and spacing variations in the day marker", func() {
		text := "DAY 1 : first\nday2: second"
		result := plan.ExtractFromResponse(text)
		Expect(result.HasPlan).To(BeTrue())
		Expect(result.TimelineDays).To(Equal(2))
		Expect(result.Tasks[0]).To(HavePrefix("Day 1:"))
		Expect(result.Tasks[1]).To(HavePrefix("Day 2:"))
	})

	It("defaults the condition and name when nothing identifiable appears", func() {
		result := plan.ExtractFromResponse("Day 1: rest\nDay 2: rest more")
		Expect(result.Condition).To(Equal("health condition"))
		Expect(result.PlanName).To(Equal("Health Management Plan"))
	})

	It("reports no plan when there are no day markers", func() {
		result := plan.ExtractFromResponse("Stay hydrated and sleep well.")
		Expect(result.HasPlan).To(BeFalse())
		Expect(result.Reason).NotTo(BeEmpty())
	})
})

var _ = Describe("ParseExtraction", func() {
	It("decodes a fenced JSON block", func() {
		response := "Sure, here you go:\n```json\n" +
			`{"needs_plan": true, "condition": "stress", "plan_name": "Stress Relief Plan", "timeline_days": 5, "tasks": ["Meditate", "Walk"]}` +
			"\n```\nLet me know!"

		result := plan.ParseExtraction(response)
		Expect(result.HasPlan).To(BeTrue())
		Expect(result.Condition).To(Equal("stress"))
		Expect(result.TimelineDays).To(Equal(5))
		Expect(result.Tasks).To(Equal([]string{"Meditate", "Walk"}))
	})

	It("clamps an oversized timeline", func() {
		response := "```json\n" +
			`{"needs_plan": true, "condition": "stress", "timeline_days": 30, "tasks": ["Meditate"]}` +
			"\n```"
		result := plan.ParseExtraction(response)
		Expect(result.TimelineDays).To(Equal(plan.MaxTimelineDays))
	})

	It("passes through a needs_plan=false answer", func() {
		response := "```json\n" + `{"needs_plan": false, "reason": "general question"}` + "\n```"
		result := plan.ParseExtraction(response)
		Expect(result.HasPlan).To(BeFalse())
		Expect(result.Reason).To(Equal("general question"))
	})

	It("reports no plan when the response has no JSON block", func() {
		result := plan.ParseExtraction("I don't think you need a plan.")
		Expect(result.HasPlan).To(BeFalse())
		Expect(result.Reason).To(ContainSubstring("no JSON block"))
	})

	It("reports no plan for malformed JSON", func() {
		result := plan.ParseExtraction("```json\n{not json}\n```")
		Expect(result.HasPlan).To(BeFalse())
		Expect(result.Reason).To(ContainSubstring("JSON parsing error"))
	})
})

var _ = Describe("ClampTimeline", func() {
	It("bounds values to the valid range", func() {
		Expect(plan.ClampTimeline(0)).To(Equal(1))
		Expect(plan.ClampTimeline(-3)).To(Equal(1))
		Expect(plan.ClampTimeline(4)).To(Equal(4))
		Expect(plan.ClampTimeline(100)).To(Equal(plan.MaxTimelineDays))
	})
})
