package plan_test

import (
	"github.com/elyxhealth/concierge/pkg/plan"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("SignificantWords", func() {
	It("keeps only words longer than three characters, lowercased", func() {
		Expect(plan.SignificantWords("My BACK Pain flared up")).To(Equal([]string{"back", "pain", "flared"}))
	})

	It("returns nil for text with only short words", func() {
		Expect(plan.SignificantWords("I am ok")).To(BeNil())
	})
})

var _ = Describe("FindMatchingPlan", func() {
	plans := []plan.Plan{
		{ID: "p2", Name: "Stress Relief Plan", Condition: "stress"},
		{ID: "p1", Name: "Back Pain Recovery", Condition: "back pain"},
	}

	It("matches on a condition word", func() {
		found := plan.FindMatchingPlan("how is my stress plan going", plans)
		Expect(found).NotTo(BeNil())
		Expect(found.ID).To(Equal("p2"))
	})

	It("matches on a plan name word", func() {
		found := plan.FindMatchingPlan("the recovery one", plans)
		Expect(found).NotTo(BeNil())
		Expect(found.ID).To(Equal("p1"))
	})

	It("returns the first hit in the order given", func() {
		// "relief" and "recovery" both appear, p2 comes first
		found := plan.FindMatchingPlan("relief and recovery", plans)
		Expect(found).NotTo(BeNil())
		Expect(found.ID).To(Equal("p2"))
	})

	It("returns nil when nothing overlaps", func() {
		Expect(plan.FindMatchingPlan("tell me about nutrition", plans)).To(BeNil())
	})

	It("never matches a plan described only by short words", func() {
		short := []plan.Plan{{ID: "p3", Name: "Gym", Condition: "hip"}}
		Expect(plan.FindMatchingPlan("gym hip day", short)).To(BeNil())
	})
})

var _ = Describe("FindPlanByCondition", func() {
	plans := []plan.Plan{
		{ID: "p1", Name: "Back Pain Recovery", Condition: "lower back pain"},
		{ID: "p2", Name: "Stress Relief Plan", Condition: "chronic stress"},
	}

	It("selects the plan whose condition contains a filter word", func() {
		found := plan.FindPlanByCondition("stress", plans)
		Expect(found).NotTo(BeNil())
		Expect(found.ID).To(Equal("p2"))
	})

	It("ignores plan names entirely", func() {
		Expect(plan.FindPlanByCondition("relief", plans)).To(BeNil())
	})

	It("returns nil for an empty filter", func() {
		Expect(plan.FindPlanByCondition("", plans)).To(BeNil())
	})
})
