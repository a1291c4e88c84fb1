package server

import (
	"encoding/json"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/elyxhealth/concierge/pkg/analytics"
	"github.com/elyxhealth/concierge/pkg/plan"
	"github.com/elyxhealth/concierge/pkg/specialists"
	"github.com/go-chi/chi/v5"
)

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		Error(w, http.StatusBadRequest, "message is required")
		return
	}

	result, err := s.engine.ProcessTurn(r.Context(), req.Message)
	if err != nil {
		s.log.Error("chat turn failed: %v", err)
		Error(w, http.StatusInternalServerError, "failed to process message")
		return
	}
	JSON(w, http.StatusOK, result)
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)

	messages, err := s.repo.RecentMessages(r.Context(), limit+offset)
	if err != nil {
		s.log.Error("failed to read history: %v", err)
		// Graceful fallback: an empty history rather than a failed page.
		JSON(w, http.StatusOK, []struct{}{})
		return
	}

	if offset < len(messages) {
		messages = messages[offset:]
	} else {
		messages = nil
	}

	// Chronological order, oldest first.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	JSON(w, http.StatusOK, messages)
}

func (s *Server) handleSpecialists(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, specialists.Team())
}

func (s *Server) handleSpecialistStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.repo.SpecialistCounters(r.Context(), r.URL.Query().Get("specialist_name"))
	if err != nil {
		Error(w, http.StatusInternalServerError, "failed to read specialist stats")
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"specialist_stats": stats})
}

func (s *Server) handlePlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.repo.ActivePlans(r.Context())
	if err != nil {
		Error(w, http.StatusInternalServerError, "failed to fetch plans")
		return
	}
	if plans == nil {
		plans = []plan.Plan{}
	}
	JSON(w, http.StatusOK, plans)
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	p, err := s.repo.GetPlan(r.Context(), chi.URLParam(r, "planID"))
	if err != nil {
		Error(w, http.StatusInternalServerError, "failed to fetch plan")
		return
	}
	if p == nil {
		Error(w, http.StatusNotFound, "plan not found")
		return
	}
	JSON(w, http.StatusOK, p)
}

func (s *Server) handleDeactivatePlan(w http.ResponseWriter, r *http.Request) {
	ok, err := s.repo.DeactivatePlan(r.Context(), chi.URLParam(r, "planID"))
	if err != nil {
		Error(w, http.StatusInternalServerError, "failed to deactivate plan")
		return
	}
	if !ok {
		Error(w, http.StatusNotFound, "plan not found")
		return
	}
	JSON(w, http.StatusOK, map[string]string{"message": "Plan deactivated successfully"})
}

type markProgressRequest struct {
	TaskName string `json:"task_name"`
	Date     string `json:"date,omitempty"`
}

func (s *Server) handleMarkProgress(w http.ResponseWriter, r *http.Request) {
	var req markProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TaskName == "" {
		Error(w, http.StatusBadRequest, "task_name is required")
		return
	}
	if req.Date == "" {
		req.Date = time.Now().UTC().Format(plan.DateFormat)
	}

	ok, err := s.repo.MarkTaskComplete(r.Context(), chi.URLParam(r, "planID"), req.TaskName, req.Date)
	if err != nil {
		Error(w, http.StatusInternalServerError, "failed to update progress")
		return
	}
	if !ok {
		Error(w, http.StatusNotFound, "plan or task not found")
		return
	}
	JSON(w, http.StatusOK, map[string]string{"message": "Progress updated successfully"})
}

type dailyProgressEntry struct {
	Date      string `json:"date"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
}

type planProgressResponse struct {
	PlanID             string               `json:"plan_id"`
	PlanName           string               `json:"plan_name"`
	Condition          string               `json:"condition"`
	TimelineDays       int                  `json:"timeline_days"`
	TotalTasks         int                  `json:"total_tasks"`
	CompletedTasks     int                  `json:"completed_tasks"`
	ProgressPercentage float64              `json:"progress_percentage"`
	DailyProgress      []dailyProgressEntry `json:"daily_progress"`
}

func (s *Server) handlePlanProgress(w http.ResponseWriter, r *http.Request) {
	p, err := s.repo.GetPlan(r.Context(), chi.URLParam(r, "planID"))
	if err != nil {
		Error(w, http.StatusInternalServerError, "failed to fetch plan")
		return
	}
	if p == nil {
		Error(w, http.StatusNotFound, "plan not found")
		return
	}

	totalTasks := len(p.Tasks)
	tasksWithProgress := 0
	perDate := map[string]int{}
	for _, task := range p.Tasks {
		if len(task.CompletedDates) > 0 {
			tasksWithProgress++
		}
		for _, date := range task.CompletedDates {
			perDate[date]++
		}
	}

	daily := make([]dailyProgressEntry, 0, len(perDate))
	for date, completed := range perDate {
		daily = append(daily, dailyProgressEntry{Date: date, Completed: completed, Total: totalTasks})
	}
	sort.Slice(daily, func(i, j int) bool { return daily[i].Date < daily[j].Date })

	percentage := 0.0
	if totalTasks > 0 {
		percentage = float64(tasksWithProgress) / float64(totalTasks) * 100
	}

	JSON(w, http.StatusOK, planProgressResponse{
		PlanID:             p.ID,
		PlanName:           p.Name,
		Condition:          p.Condition,
		TimelineDays:       p.TimelineDays,
		TotalTasks:         totalTasks,
		CompletedTasks:     tasksWithProgress,
		ProgressPercentage: percentage,
		DailyProgress:      daily,
	})
}

type activityEntry struct {
	Date     string `json:"date"`
	PlanName string `json:"plan_name"`
	TaskName string `json:"task_name"`
	Type     string `json:"type"`
}

func (s *Server) handleDashboardSummary(w http.ResponseWriter, r *http.Request) {
	plans, err := s.repo.ActivePlans(r.Context())
	if err != nil {
		Error(w, http.StatusInternalServerError, "failed to fetch plans")
		return
	}

	totalTasks := 0
	completedTasks := 0
	recent := []activityEntry{}

	for _, p := range plans {
		totalTasks += len(p.Tasks)
		for _, task := range p.Tasks {
			if len(task.CompletedDates) > 0 {
				completedTasks++
			}
			dates := task.CompletedDates
			if len(dates) > 3 {
				dates = dates[len(dates)-3:]
			}
			for _, date := range dates {
				recent = append(recent, activityEntry{
					Date:     date,
					PlanName: p.Name,
					TaskName: task.Name,
					Type:     "task_completed",
				})
			}
		}
	}

	sort.Slice(recent, func(i, j int) bool { return recent[i].Date > recent[j].Date })
	if len(recent) > 10 {
		recent = recent[:10]
	}

	overall := 0.0
	if totalTasks > 0 {
		overall = float64(completedTasks) / float64(totalTasks) * 100
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"total_active_plans": len(plans),
		"total_tasks":        totalTasks,
		"completed_tasks":    completedTasks,
		"overall_progress":   round1(overall),
		"recent_activity":    recent,
	})
}

type pendingTask struct {
	PlanID   string `json:"plan_id"`
	PlanName string `json:"plan_name"`
	TaskName string `json:"task_name"`
}

func (s *Server) handleCheckDaily(w http.ResponseWriter, r *http.Request) {
	plans, err := s.repo.ActivePlans(r.Context())
	if err != nil {
		Error(w, http.StatusInternalServerError, "failed to fetch plans")
		return
	}
	if len(plans) == 0 {
		JSON(w, http.StatusOK, map[string]interface{}{"should_ask": false, "message": "No active plans"})
		return
	}

	today := time.Now().UTC().Format(plan.DateFormat)
	var pending []pendingTask
	for _, p := range plans {
		for _, task := range p.PendingTasks(today) {
			pending = append(pending, pendingTask{PlanID: p.ID, PlanName: p.Name, TaskName: task.Name})
		}
	}

	if len(pending) > 0 {
		JSON(w, http.StatusOK, map[string]interface{}{
			"should_ask":    true,
			"message":       "You have " + strconv.Itoa(len(pending)) + " pending tasks for today!",
			"pending_tasks": pending,
			"date":          today,
		})
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"should_ask": false,
		"message":    "All tasks completed for today! Great job!",
	})
}

type dailyReportRequest struct {
	Message               string `json:"message"`
	MarkAllComplete       bool   `json:"mark_all_complete,omitempty"`
	SpecificPlanCondition string `json:"specific_plan_condition,omitempty"`
}

func (s *Server) handleDailyReport(w http.ResponseWriter, r *http.Request) {
	var req dailyReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		Error(w, http.StatusBadRequest, "message is required")
		return
	}

	response, updated := s.engine.DailyReport(r.Context(), req.Message, req.MarkAllComplete, req.SpecificPlanCondition)
	JSON(w, http.StatusOK, map[string]interface{}{
		"message":       response,
		"updated_tasks": len(updated),
		"tasks_marked":  updated,
	})
}

func (s *Server) handleTimeSpent(w http.ResponseWriter, r *http.Request) {
	window, err := s.agg.TrailingWindow(r.Context(), analytics.DefaultWindowDays, time.Now().UTC())
	if err != nil {
		Error(w, http.StatusInternalServerError, "failed to compute time analytics")
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"daily_time_data": window,
		"summary":         analytics.Summarize(window),
	})
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	trends, totals, err := s.agg.SpecialistTrends(r.Context(), analytics.DefaultWindowDays, time.Now().UTC())
	if err != nil {
		Error(w, http.StatusInternalServerError, "failed to compute trends")
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"specialist_trends": trends,
		"specialist_totals": totals,
	})
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
