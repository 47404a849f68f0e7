// Package summary reduces a user's wellness history into the bounded
// aggregate view injected into model prompts. All functions are pure;
// callers pass the full log set and receive fixed-size output regardless
// of history length.
package summary

import (
	"fmt"
	"sort"
)

// Caps keeping the summary (and therefore any prompt built from it)
// bounded. These are policy constants, not user-controlled.
const (
	maxRecentEntries = 5
	maxCommonFoods   = 5
	maxRecentFoods   = 3
	maxRecentNotes   = 2
	noteSnippetLen   = 80

	// A mood entry with no usable score counts as neutral.
	neutralMood = 3

	// Second-half mean must differ from first-half mean by more than
	// this before the trend is called directional.
	trendThreshold = 0.5

	// Daily water average assumes the supplied logs cover one week.
	waterWindowDays = 7
)

// Trend classifies the direction of a mood sequence.
type Trend string

const (
	TrendImproving    Trend = "improving"
	TrendDeclining    Trend = "declining"
	TrendStable       Trend = "stable"
	TrendInsufficient Trend = "insufficient_data"
)

// FoodCount pairs a food name with how often it was logged.
type FoodCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// FoodSummary aggregates meal logs.
type FoodSummary struct {
	TotalEntries  int                  `json:"total_entries"`
	TotalCalories float64              `json:"total_calories"`
	AvgCalories   float64              `json:"avg_calories"`
	ByTimeOfDay   map[string][]FoodLog `json:"-"`
	CommonFoods   []FoodCount          `json:"common_foods"`
	RecentMeals   []FoodLog            `json:"recent_meals"`
}

// MoodSummary aggregates mood logs.
type MoodSummary struct {
	TotalEntries int       `json:"total_entries"`
	AvgMood      float64   `json:"avg_mood"`
	Trend        Trend     `json:"mood_trend"`
	RecentMoods  []MoodLog `json:"recent_moods"`
}

// WaterSummary aggregates water logs.
type WaterSummary struct {
	TotalEntries  int        `json:"total_entries"`
	TotalWater    float64    `json:"total_water"`
	AvgDailyWater float64    `json:"avg_daily_water"`
	RecentWater   []WaterLog `json:"recent_water"`
}

// ContextSummary is the ephemeral aggregate view over one user's logs.
// Computed fresh per request and never persisted.
type ContextSummary struct {
	Food  FoodSummary  `json:"food_summary"`
	Mood  MoodSummary  `json:"mood_summary"`
	Water WaterSummary `json:"water_summary"`

	NoteCount int `json:"note_count"`

	// Small samples formatted for free-text prompt inclusion.
	RecentFoods []string `json:"recent_foods"`
	RecentNotes []string `json:"recent_notes"`
}

// Summarize computes the full aggregate view. Empty collections yield
// zero-valued aggregates, never an error.
func Summarize(logs Logs) ContextSummary {
	return ContextSummary{
		Food:        summarizeFood(logs.Food),
		Mood:        summarizeMood(logs.Mood),
		Water:       summarizeWater(logs.Water),
		NoteCount:   len(logs.Notes),
		RecentFoods: recentFoodLabels(logs.Food),
		RecentNotes: noteSnippets(logs.Notes),
	}
}

func summarizeFood(food []FoodLog) FoodSummary {
	s := FoodSummary{
		TotalEntries: len(food),
		ByTimeOfDay:  make(map[string][]FoodLog),
		RecentMeals:  tail(food, maxRecentEntries),
	}
	for _, f := range food {
		s.TotalCalories += f.Calories
		tod := f.TimeOfDay
		if tod == "" {
			tod = "snack"
		}
		s.ByTimeOfDay[tod] = append(s.ByTimeOfDay[tod], f)
	}
	if len(food) > 0 {
		s.AvgCalories = s.TotalCalories / float64(len(food))
	}
	s.CommonFoods = commonFoods(food)
	return s
}

// commonFoods returns the most frequently logged food names, most common
// first. Ties break alphabetically for deterministic output.
func commonFoods(food []FoodLog) []FoodCount {
	counts := make(map[string]int)
	for _, f := range food {
		name := f.Name
		if name == "" {
			name = "Unknown"
		}
		counts[name]++
	}
	ranked := make([]FoodCount, 0, len(counts))
	for name, n := range counts {
		ranked = append(ranked, FoodCount{Name: name, Count: n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Name < ranked[j].Name
	})
	if len(ranked) > maxCommonFoods {
		ranked = ranked[:maxCommonFoods]
	}
	return ranked
}

func summarizeMood(moods []MoodLog) MoodSummary {
	s := MoodSummary{
		TotalEntries: len(moods),
		Trend:        MoodTrend(moods),
		RecentMoods:  tail(moods, maxRecentEntries),
	}
	if len(moods) == 0 {
		return s
	}
	var total float64
	for _, m := range moods {
		total += float64(moodScore(m))
	}
	s.AvgMood = total / float64(len(moods))
	return s
}

// MoodTrend compares the mean of the first half of the sequence against
// the mean of the second half. Fewer than 2 entries is always
// insufficient_data, never a computed trend.
func MoodTrend(moods []MoodLog) Trend {
	if len(moods) < 2 {
		return TrendInsufficient
	}
	mid := len(moods) / 2
	first := meanMood(moods[:mid])
	second := meanMood(moods[mid:])
	switch {
	case second > first+trendThreshold:
		return TrendImproving
	case second < first-trendThreshold:
		return TrendDeclining
	default:
		return TrendStable
	}
}

func meanMood(moods []MoodLog) float64 {
	var total float64
	for _, m := range moods {
		total += float64(moodScore(m))
	}
	return total / float64(len(moods))
}

func moodScore(m MoodLog) int {
	if m.Mood < 1 || m.Mood > 5 {
		return neutralMood
	}
	return m.Mood
}

func summarizeWater(water []WaterLog) WaterSummary {
	s := WaterSummary{
		TotalEntries: len(water),
		RecentWater:  tail(water, maxRecentEntries),
	}
	for _, w := range water {
		s.TotalWater += w.Amount
	}
	if len(water) > 0 {
		s.AvgDailyWater = s.TotalWater / waterWindowDays
	}
	return s
}

func recentFoodLabels(food []FoodLog) []string {
	recent := tail(food, maxRecentFoods)
	labels := make([]string, 0, len(recent))
	for _, f := range recent {
		name := f.Name
		if name == "" {
			name = "Unknown"
		}
		tod := f.TimeOfDay
		if tod == "" {
			tod = "snack"
		}
		labels = append(labels, fmt.Sprintf("%s (%s)", name, tod))
	}
	return labels
}

func noteSnippets(notes []Note) []string {
	recent := tail(notes, maxRecentNotes)
	snippets := make([]string, 0, len(recent))
	for _, n := range recent {
		content := n.Content
		if len(content) > noteSnippetLen {
			content = content[:noteSnippetLen] + "..."
		}
		snippets = append(snippets, content)
	}
	return snippets
}

// tail returns the last n elements without copying the backing array.
func tail[T any](s []T, n int) []T {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
