// Package analytics derives time-spent and trend series from the
// per-specialist word counters.
package analytics

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/elyxhealth/concierge/pkg/plan"
	"github.com/elyxhealth/concierge/pkg/store"
)

// wordsPerSecond is the fixed reading-speed model converting generated
// words into time spent.
const wordsPerSecond = 1.5

// DefaultWindowDays is the trailing-window length used by the API.
const DefaultWindowDays = 7

// CounterSource is the read side of the counters store.
type CounterSource interface {
	SpecialistCounters(ctx context.Context, specialist string) ([]store.SpecialistCounter, error)
}

// DayEntry is one day of aggregated activity. Days with no recorded
// words still appear, zero-filled.
type DayEntry struct {
	Date             string         `json:"date"`
	DisplayDate      string         `json:"display_date"`
	TotalWords       int            `json:"total_words"`
	TimeSpentMinutes float64        `json:"time_spent_minutes"`
	TimeSpentSeconds float64        `json:"time_spent_seconds"`
	Breakdown        map[string]int `json:"specialist_breakdown"`
}

// TrendPoint is one day of a specialist's word-generation series.
type TrendPoint struct {
	Date        string  `json:"date"`
	DisplayDate string  `json:"display_date"`
	Words       int     `json:"words"`
	TimeMinutes float64 `json:"time_minutes"`
}

// SpecialistTotal summarizes a specialist's lifetime counters.
type SpecialistTotal struct {
	Specialist    string    `json:"specialist_name"`
	TotalWords    int       `json:"total_words"`
	TotalMessages int       `json:"total_messages"`
	LastActivity  time.Time `json:"last_activity"`
}

// Summary aggregates a trailing window into headline numbers.
type Summary struct {
	TotalTimeMinutes     float64        `json:"total_time_minutes"`
	TotalWordsGenerated  int            `json:"total_words_generated"`
	AverageDailyMinutes  float64        `json:"average_daily_time_minutes"`
	DaysWithActivity     int            `json:"days_with_activity"`
	SpecialistWordTotals map[string]int `json:"specialist_word_totals"`
}

// Aggregator converts accumulated counters into chart-ready series.
type Aggregator struct {
	counters CounterSource
}

// New creates an aggregator over the given counter source.
func New(counters CounterSource) *Aggregator {
	return &Aggregator{counters: counters}
}

// TrailingWindow returns exactly nDays entries ending at now's date, in
// chronological order. Sparse counters are zero-filled so every client
// series shares the same date axis.
func (a *Aggregator) TrailingWindow(ctx context.Context, nDays int, now time.Time) ([]DayEntry, error) {
	counters, err := a.counters.SpecialistCounters(ctx, "")
	if err != nil {
		return nil, err
	}

	entries := make([]DayEntry, 0, nDays)
	for i := nDays - 1; i >= 0; i-- {
		day := now.AddDate(0, 0, -i)
		date := day.Format(plan.DateFormat)

		total := 0
		breakdown := map[string]int{}
		for _, c := range counters {
			if words := c.DailyWords[date]; words > 0 {
				total += words
				breakdown[c.Specialist] = words
			}
		}

		seconds := float64(total) / wordsPerSecond
		entries = append(entries, DayEntry{
			Date:             date,
			DisplayDate:      day.Format("Jan 02"),
			TotalWords:       total,
			TimeSpentMinutes: round1(seconds / 60),
			TimeSpentSeconds: round1(seconds),
			Breakdown:        breakdown,
		})
	}
	return entries, nil
}

// SpecialistTrends returns per-specialist series over the same trailing
// window, zero-filled onto the identical date axis, plus lifetime
// totals per specialist.
func (a *Aggregator) SpecialistTrends(ctx context.Context, nDays int, now time.Time) (map[string][]TrendPoint, []SpecialistTotal, error) {
	counters, err := a.counters.SpecialistCounters(ctx, "")
	if err != nil {
		return nil, nil, err
	}

	window, err := a.TrailingWindow(ctx, nDays, now)
	if err != nil {
		return nil, nil, err
	}

	trends := map[string][]TrendPoint{}
	for _, day := range window {
		for specialist, words := range day.Breakdown {
			trends[specialist] = append(trends[specialist], TrendPoint{
				Date:        day.Date,
				DisplayDate: day.DisplayDate,
				Words:       words,
				TimeMinutes: round1(float64(words) / wordsPerSecond / 60),
			})
		}
	}

	// Zero-fill missing days so all series align for charting.
	for specialist, points := range trends {
		seen := make(map[string]bool, len(points))
		for _, p := range points {
			seen[p.Date] = true
		}
		for _, day := range window {
			if !seen[day.Date] {
				points = append(points, TrendPoint{Date: day.Date, DisplayDate: day.DisplayDate})
			}
		}
		sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
		trends[specialist] = points
	}

	totals := make([]SpecialistTotal, 0, len(counters))
	for _, c := range counters {
		totals = append(totals, SpecialistTotal{
			Specialist:    c.Specialist,
			TotalWords:    c.TotalWords,
			TotalMessages: c.TotalMessages,
			LastActivity:  c.LastActivity,
		})
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Specialist < totals[j].Specialist })

	return trends, totals, nil
}

// Summarize reduces a window to headline statistics.
func Summarize(entries []DayEntry) Summary {
	s := Summary{SpecialistWordTotals: map[string]int{}}
	for _, day := range entries {
		s.TotalTimeMinutes += day.TimeSpentMinutes
		s.TotalWordsGenerated += day.TotalWords
		if day.TotalWords > 0 {
			s.DaysWithActivity++
		}
		for specialist, words := range day.Breakdown {
			s.SpecialistWordTotals[specialist] += words
		}
	}
	s.TotalTimeMinutes = round1(s.TotalTimeMinutes)
	if len(entries) > 0 {
		s.AverageDailyMinutes = round1(s.TotalTimeMinutes / float64(len(entries)))
	}
	return s
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
