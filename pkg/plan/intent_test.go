package plan_test

import (
	"github.com/elyxhealth/concierge/pkg/plan"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Classify", func() {
	It("classifies deactivation requests", func() {
		Expect(plan.Classify("please deactivate my plan")).To(Equal(plan.IntentDeactivate))
		Expect(plan.Classify("I want to STOP this")).To(Equal(plan.IntentDeactivate))
		Expect(plan.Classify("cancel it")).To(Equal(plan.IntentDeactivate))
	})

	It("classifies progress reports", func() {
		Expect(plan.Classify("I finished my stretches today")).To(Equal(plan.IntentProgressReport))
		Expect(plan.Classify("mark task 2 as complete")).To(Equal(plan.IntentProgressReport))
		Expect(plan.Classify("here's an update")).To(Equal(plan.IntentProgressReport))
	})

	It("classifies plan candidates", func() {
		Expect(plan.Classify("my back pain is getting worse")).To(Equal(plan.IntentPlanCandidate))
		Expect(plan.Classify("I feel really anxious lately")).To(Equal(plan.IntentPlanCandidate))
		Expect(plan.Classify("recovering from a knee injury")).To(Equal(plan.IntentPlanCandidate))
	})

	It("falls through to plain for everything else", func() {
		Expect(plan.Classify("what should I eat for breakfast?")).To(Equal(plan.IntentPlain))
		Expect(plan.Classify("")).To(Equal(plan.IntentPlain))
	})

	It("lets deactivation outrank progress and condition signals", func() {
		// "stop" wins even though "progress" and "back pain" also match
		Expect(plan.Classify("stop tracking progress on my back pain")).To(Equal(plan.IntentDeactivate))
	})

	It("lets progress outrank condition signals", func() {
		Expect(plan.Classify("I completed my back pain exercises")).To(Equal(plan.IntentProgressReport))
	})

	It("matches substrings, not word boundaries", func() {
		// "end" inside "weekend" still reads as deactivation
		Expect(plan.Classify("see you this weekend")).To(Equal(plan.IntentDeactivate))
	})
})

var _ = Describe("Intent", func() {
	It("stringifies each value", func() {
		Expect(plan.IntentPlain.String()).To(Equal("plain"))
		Expect(plan.IntentDeactivate.String()).To(Equal("deactivate"))
		Expect(plan.IntentProgressReport.String()).To(Equal("progress_report"))
		Expect(plan.IntentPlanCandidate.String()).To(Equal("plan_candidate"))
	})
})
