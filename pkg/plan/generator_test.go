package plan_test

import (
	"context"
	"fmt"

	"github.com/elyxhealth/concierge/pkg/plan"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Generator", func() {
	var (
		ctx   context.Context
		store *fakeStore
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = &fakeStore{}
	})

	Describe("ProcessMessage", func() {
		It("creates a plan from a positive model answer", func() {
			llm := &mockLLM{response: "```json\n" +
				`{"needs_plan": true, "condition": "stress", "plan_name": "Stress Relief Plan", "timeline_days": 5, "tasks": ["Meditate", "Walk", "Journal"]}` +
				"\n```"}
			gen := plan.NewGenerator(llm, store)

			outcome := gen.ProcessMessage(ctx, "I've been so stressed at work", "")
			Expect(outcome.Created).To(BeTrue())
			Expect(outcome.PlanID).NotTo(BeEmpty())
			Expect(store.plans).To(HaveLen(1))
			Expect(store.plans[0].Name).To(Equal("Stress Relief Plan"))
			Expect(store.plans[0].Tasks).To(HaveLen(3))
		})

		It("includes the user message in the prompt", func() {
			llm := &mockLLM{response: "```json\n" + `{"needs_plan": false, "reason": "nope"}` + "\n```"}
			gen := plan.NewGenerator(llm, store)

			gen.ProcessMessage(ctx, "my shoulder pain is back", "previous context here")
			Expect(llm.prompts).To(HaveLen(1))
			Expect(llm.prompts[0]).To(ContainSubstring("my shoulder pain is back"))
			Expect(llm.prompts[0]).To(ContainSubstring("previous context here"))
		})

		It("never calls the model for a progress-flavored message", func() {
			llm := &mockLLM{err: fmt.Errorf("should not be called")}
			gen := plan.NewGenerator(llm, store)

			outcome := gen.ProcessMessage(ctx, "I finished my exercises", "")
			Expect(outcome.Created).To(BeFalse())
			Expect(llm.prompts).To(BeEmpty())
		})

		It("reuses an active plan covering the same condition", func() {
			_, err := store.CreatePlan(ctx, "Back Pain Recovery", "back pain", 3, []string{"Day 1: stretch"})
			Expect(err).NotTo(HaveOccurred())
			llm := &mockLLM{err: fmt.Errorf("should not be called")}
			gen := plan.NewGenerator(llm, store)

			outcome := gen.ProcessMessage(ctx, "my back hurts again", "")
			Expect(outcome.Created).To(BeFalse())
			Expect(outcome.ExistingPlan).To(Equal("Back Pain Recovery"))
			Expect(outcome.PlanID).To(Equal("plan-1"))
			Expect(store.plans).To(HaveLen(1))
		})

		It("passes through a negative model answer", func() {
			llm := &mockLLM{response: "```json\n" + `{"needs_plan": false, "reason": "general question"}` + "\n```"}
			gen := plan.NewGenerator(llm, store)

			outcome := gen.ProcessMessage(ctx, "my knee pain flared", "")
			Expect(outcome.Created).To(BeFalse())
			Expect(outcome.Extraction.Reason).To(Equal("general question"))
			Expect(store.plans).To(BeEmpty())
		})

		It("demotes a plan with no tasks instead of storing it", func() {
			llm := &mockLLM{response: "```json\n" +
				`{"needs_plan": true, "condition": "stress", "plan_name": "Empty Plan", "timeline_days": 3, "tasks": []}` +
				"\n```"}
			gen := plan.NewGenerator(llm, store)

			outcome := gen.ProcessMessage(ctx, "I feel anxious", "")
			Expect(outcome.Created).To(BeFalse())
			Expect(outcome.Extraction.HasPlan).To(BeFalse())
			Expect(store.plans).To(BeEmpty())
		})

		It("survives a model failure without creating anything", func() {
			llm := &mockLLM{err: fmt.Errorf("connection refused")}
			gen := plan.NewGenerator(llm, store)

			outcome := gen.ProcessMessage(ctx, "my neck pain is terrible", "")
			Expect(outcome.Created).To(BeFalse())
			Expect(store.plans).To(BeEmpty())
		})
	})

	Describe("ProcessResponse", func() {
		It("creates a plan from specialist text with day blocks", func() {
			gen := plan.NewGenerator(&mockLLM{}, store)

			outcome := gen.ProcessResponse(ctx, "Your 3-Day Back Pain Relief Plan:\nDay 1: stretch\nDay 2: heat pack\nDay 3: walk")
			Expect(outcome.Created).To(BeTrue())
			Expect(store.plans).To(HaveLen(1))
			Expect(store.plans[0].Condition).To(Equal("back pain"))
			Expect(store.plans[0].Tasks).To(HaveLen(3))
		})

		It("does not duplicate an active plan for the same condition", func() {
			_, err := store.CreatePlan(ctx, "Back Pain Recovery", "back pain", 3, []string{"Day 1: stretch"})
			Expect(err).NotTo(HaveOccurred())
			gen := plan.NewGenerator(&mockLLM{}, store)

			outcome := gen.ProcessResponse(ctx, "Another back pain plan\nDay 1: rest\nDay 2: walk")
			Expect(outcome.Created).To(BeFalse())
			Expect(outcome.ExistingPlan).To(Equal("Back Pain Recovery"))
			Expect(store.plans).To(HaveLen(1))
		})

		It("does nothing for text without day blocks", func() {
			gen := plan.NewGenerator(&mockLLM{}, store)

			outcome := gen.ProcessResponse(ctx, "Just rest and stay hydrated.")
			Expect(outcome.Created).To(BeFalse())
			Expect(store.plans).To(BeEmpty())
		})
	})
})
