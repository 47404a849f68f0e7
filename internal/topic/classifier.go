// Package topic classifies free-text questions into the fixed set of
// wellness subjects used to select context and curated resources.
package topic

import "strings"

// Topic is one of the closed set of subject categories.
type Topic string

const (
	Nutrition Topic = "nutrition"
	Mood      Topic = "mood"
	Hydration Topic = "hydration"
	Exercise  Topic = "exercise"
	Wellness  Topic = "wellness"
	General   Topic = "general"
)

// rules are evaluated in order; the first topic with a keyword match wins.
// The ordering is a policy decision: text containing both a nutrition and
// a mood keyword always classifies as nutrition. Do not reorder without
// redefining the expected result for ambiguous inputs.
var rules = []struct {
	topic    Topic
	keywords []string
}{
	{Nutrition, []string{"energy", "energizing", "boost", "power", "fuel", "calorie", "calories", "weight", "diet", "meal", "eating", "food"}},
	{Mood, []string{"mood", "feel", "emotion", "happy", "sad", "stress", "anxiety", "depression"}},
	{Hydration, []string{"water", "hydrate", "drink", "fluid", "dehydrated"}},
	{Exercise, []string{"exercise", "workout", "fitness", "activity", "training"}},
	{Wellness, []string{"health", "wellness", "habit", "lifestyle", "goal"}},
}

// Classify returns the topic of the given text. Always returns a topic;
// text matching no keyword list classifies as General.
func Classify(text string) Topic {
	lower := strings.ToLower(text)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.topic
			}
		}
	}
	return General
}

// All lists every topic in priority order, General last.
func All() []Topic {
	return []Topic{Nutrition, Mood, Hydration, Exercise, Wellness, General}
}
