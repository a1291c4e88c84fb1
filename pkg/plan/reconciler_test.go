package plan_test

import (
	"context"

	"github.com/elyxhealth/concierge/pkg/plan"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Reconciler", func() {
	var (
		ctx        context.Context
		store      *fakeStore
		reconciler *plan.Reconciler
	)

	const today = "2026-09-01"

	BeforeEach(func() {
		ctx = context.Background()
		store = &fakeStore{}
		_, err := store.CreatePlan(ctx, "Back Pain Recovery", "back pain", 3, []string{
			"Day 1: Morning stretching routine",
			"Day 2: Apply heat pack",
			"Day 3: Short walk",
		})
		Expect(err).NotTo(HaveOccurred())
		reconciler = plan.NewReconciler(store)
	})

	Describe("heuristic mode", func() {
		It("marks a task sharing a word with the message", func() {
			result := reconciler.Reconcile(ctx, "done with my stretching this morning", today, plan.ReconcileOptions{})
			Expect(result.UpdatedTasks).To(Equal([]string{"Day 1: Morning stretching routine"}))
		})

		It("marks everything pending on a generic confirmation", func() {
			result := reconciler.Reconcile(ctx, "yes, everything is done!", today, plan.ReconcileOptions{})
			Expect(result.UpdatedTasks).To(HaveLen(3))
		})

		It("does nothing without a completion indicator", func() {
			result := reconciler.Reconcile(ctx, "I went stretching this morning", today, plan.ReconcileOptions{})
			Expect(result.UpdatedTasks).To(BeEmpty())
			Expect(store.marks).To(BeEmpty())
		})

		It("skips tasks already complete for the date", func() {
			_, err := store.MarkTaskComplete(ctx, "plan-1", "Day 1: Morning stretching routine", today)
			Expect(err).NotTo(HaveOccurred())
			store.marks = nil

			result := reconciler.Reconcile(ctx, "did my stretching", today, plan.ReconcileOptions{})
			Expect(result.UpdatedTasks).To(BeEmpty())
			Expect(store.marks).To(BeEmpty())
		})

		It("still marks a task completed on a different date", func() {
			_, err := store.MarkTaskComplete(ctx, "plan-1", "Day 1: Morning stretching routine", "2026-08-31")
			Expect(err).NotTo(HaveOccurred())
			store.marks = nil

			result := reconciler.Reconcile(ctx, "did my stretching", today, plan.ReconcileOptions{})
			Expect(result.UpdatedTasks).To(Equal([]string{"Day 1: Morning stretching routine"}))
		})

		It("ignores negative phrasing around an indicator", func() {
			// "didn't" never reverts or blocks, the indicator "did" still fires
			result := reconciler.Reconcile(ctx, "didn't skip my stretching", today, plan.ReconcileOptions{})
			Expect(result.UpdatedTasks).To(Equal([]string{"Day 1: Morning stretching routine"}))
		})
	})

	Describe("directed mode", func() {
		It("marks all pending tasks when the message says so", func() {
			result := reconciler.Reconcile(ctx, "mark all tasks for my back pain done", today, plan.ReconcileOptions{})
			Expect(result.UpdatedTasks).To(HaveLen(3))
			Expect(result.Plan).NotTo(BeNil())
			Expect(result.Plan.ID).To(Equal("plan-1"))
		})

		It("targets the plan selected by the condition option", func() {
			_, err := store.CreatePlan(ctx, "Stress Relief Plan", "chronic stress", 2, []string{
				"Day 1: Meditate",
				"Day 2: Breathing exercises",
			})
			Expect(err).NotTo(HaveOccurred())

			result := reconciler.Reconcile(ctx, "all done", today, plan.ReconcileOptions{
				MarkAll:   true,
				Condition: "stress",
			})
			Expect(result.UpdatedTasks).To(ConsistOf("Day 1: Meditate", "Day 2: Breathing exercises"))
			Expect(result.Plan.Name).To(Equal("Stress Relief Plan"))
		})

		It("returns empty when no plan can be identified", func() {
			result := reconciler.Reconcile(ctx, "mark all tasks", today, plan.ReconcileOptions{})
			Expect(result.UpdatedTasks).To(BeEmpty())
			Expect(result.Plan).To(BeNil())
		})

		It("only marks tasks still pending for the date", func() {
			_, err := store.MarkTaskComplete(ctx, "plan-1", "Day 2: Apply heat pack", today)
			Expect(err).NotTo(HaveOccurred())
			store.marks = nil

			result := reconciler.Reconcile(ctx, "mark all my back pain tasks", today, plan.ReconcileOptions{})
			Expect(result.UpdatedTasks).To(ConsistOf(
				"Day 1: Morning stretching routine",
				"Day 3: Short walk",
			))
		})
	})

	It("returns empty when there are no active plans", func() {
		empty := &fakeStore{}
		r := plan.NewReconciler(empty)
		result := r.Reconcile(ctx, "all done", today, plan.ReconcileOptions{})
		Expect(result.UpdatedTasks).To(BeEmpty())
	})

	It("returns empty when the store cannot list plans", func() {
		store.failList = true
		result := reconciler.Reconcile(ctx, "all done", today, plan.ReconcileOptions{})
		Expect(result.UpdatedTasks).To(BeEmpty())
	})

	It("never touches a deactivated plan", func() {
		_, err := store.DeactivatePlan(ctx, "plan-1")
		Expect(err).NotTo(HaveOccurred())

		result := reconciler.Reconcile(ctx, "finished my stretching, all done", today, plan.ReconcileOptions{})
		Expect(result.UpdatedTasks).To(BeEmpty())
		Expect(store.marks).To(BeEmpty())
	})
})
