// Package composer assembles the bounded-length prompts sent to the model
// backend: the free-text coach prompt and the strict-schema analysis
// prompt.
package composer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kiwellness/coach/internal/resources"
	"github.com/kiwellness/coach/internal/summary"
	"github.com/kiwellness/coach/internal/topic"
)

// defaultMaxPromptChars is the hard budget for an assembled chat prompt.
// A prompt exceeding it is discarded wholesale in favor of the minimal
// template; context richness is traded for a predictable worst-case size.
const defaultMaxPromptChars = 1000

// Bundle is the finished prompt plus assembly metadata.
type Bundle struct {
	Text       string
	Topic      topic.Topic
	ContextLen int
	Truncated  bool
}

// Composer builds prompts under a fixed character budget.
type Composer struct {
	MaxPromptChars int
}

// New creates a Composer with the given character budget for chat prompts.
// If maxPromptChars <= 0, the default (1000) is used.
func New(maxPromptChars int) *Composer {
	if maxPromptChars <= 0 {
		maxPromptChars = defaultMaxPromptChars
	}
	return &Composer{MaxPromptChars: maxPromptChars}
}

const formattingInstructions = `Provide a short, helpful response (max 2-3 sentences) and include relevant links. Format your response as:

[Your helpful response here]

📚 Helpful Resources:
- [Link 1: Brief description]
- [Link 2: Brief description]

Always include at least one link to our Medium blog (kiwellness.medium.com) when relevant, and cite authoritative health sources like Mayo Clinic, WebMD, or Harvard Health for medical advice.`

// BuildChatPrompt assembles the coach prompt from the question, the user
// profile, the context summary (nil when no history was supplied), and the
// classified topic. The returned text never exceeds MaxPromptChars: when
// the rich prompt runs over budget it is replaced entirely by the minimal
// template, dropping context and resource lines.
func (c *Composer) BuildChatPrompt(question string, profile summary.Profile, ctx *summary.ContextSummary, tp topic.Topic) Bundle {
	name := profile.Name
	if name == "" {
		name = "User"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "You are a supportive AI Health Coach for %s. Keep responses short, helpful, and actionable.\n\nQuestion: %s\n\n", name, question)

	snippet := relevantContext(ctx, tp)
	if snippet != "" {
		fmt.Fprintf(&sb, "Relevant Data: %s\n", snippet)
	}

	sb.WriteString(resources.FormatForPrompt(resources.ForTopic(tp)))
	sb.WriteString(formattingInstructions)

	text := sb.String()
	if len(text) <= c.MaxPromptChars {
		return Bundle{Text: text, Topic: tp, ContextLen: len(snippet)}
	}

	// Over budget: hard cutover to the minimal template.
	minimal := fmt.Sprintf("You are a supportive AI Health Coach for %s. Keep responses short, helpful, and actionable.\n\nQuestion: %s\n\n%s", name, question, formattingInstructions)
	return Bundle{Text: minimal, Topic: tp, Truncated: true}
}

// relevantContext surfaces only the aggregates matching the question's
// topic: food numbers for nutrition questions, mood numbers for mood
// questions, water numbers for hydration. Other topics get no snippet.
func relevantContext(ctx *summary.ContextSummary, tp topic.Topic) string {
	if ctx == nil {
		return ""
	}

	var parts []string
	switch tp {
	case topic.Nutrition:
		if ctx.Food.TotalEntries == 0 {
			return ""
		}
		parts = append(parts, fmt.Sprintf("Logged %d meals", ctx.Food.TotalEntries))
		if ctx.Food.AvgCalories > 0 {
			parts = append(parts, fmt.Sprintf("avg %.0f cal/meal", ctx.Food.AvgCalories))
		}
	case topic.Mood:
		if ctx.Mood.TotalEntries == 0 {
			return ""
		}
		parts = append(parts, fmt.Sprintf("Average mood: %.1f/5", ctx.Mood.AvgMood))
		parts = append(parts, fmt.Sprintf("Logged %d mood entries", ctx.Mood.TotalEntries))
	case topic.Hydration:
		if ctx.Water.TotalEntries == 0 {
			return ""
		}
		parts = append(parts, fmt.Sprintf("Daily water average: %.1f cups", ctx.Water.AvgDailyWater))
		parts = append(parts, fmt.Sprintf("Total logged: %.1f cups", ctx.Water.TotalWater))
	}
	return strings.Join(parts, " | ")
}

const analysisTemplate = `Health Coach Analysis - concise, evidence-based, grounded in local knowledge.

USER: %s | Age: %s | Goals: %s | Health Concerns: %s

DATA SUMMARY (last 30 days):
- Food: %d entries, ~%.0f kcal/day
- Water: %d entries, ~%.1f cups/day
- Mood: %d entries, ~%.1f/5
- Notes: %d entries

RECENT ACTIVITY:
- Food (most recent): %s
- Mood (most recent): %s
- Notes (snippets): %s

TASK:
- Find specific, data-backed patterns connecting mood & notes to food & water intake (e.g., low water -> lower mood next day, high sugar late at night -> poorer mood).
- Provide short explanations for likely reasons behind how the user is feeling based on these links.
- Create 2-3 actionable, personalized suggestions to try this week.
- Ground suggestions in resources the model was trained on (nutrition, hydration, behavior change). Include brief source citations.

OUTPUT STRICT JSON ONLY:
{
  "patterns": [
    {"title": "Pattern Title", "description": "Brief description of the data-backed link (mood vs. notes, food, water)."}
  ],
  "suggestions": [
    {
      "title": "Suggestion Title",
      "description": "Brief, actionable advice tailored to the user's situation.",
      "sources": [
        {"title": "Short Source Name", "url": "https://example.com"}
      ]
    }
  ]
}`

// BuildAnalysisPrompt fills the fixed strict-JSON analysis template with
// profile fields, aggregates, and the small recent-activity samples. The
// model's response is parsed and repaired by the invoker, not here.
func (c *Composer) BuildAnalysisPrompt(profile summary.Profile, s summary.ContextSummary) string {
	name := orDefault(profile.Name, "User")
	age := orDefault(profile.Age, "N/A")
	goals := orDefault(profile.Goals, "Not specified")
	ailments := orDefault(profile.Ailments, "Not specified")

	recent := s.Mood.RecentMoods
	if len(recent) > 2 {
		recent = recent[len(recent)-2:]
	}
	recentMoods := make([]int, 0, len(recent))
	for _, m := range recent {
		recentMoods = append(recentMoods, m.Mood)
	}

	return fmt.Sprintf(analysisTemplate,
		name, age, goals, ailments,
		s.Food.TotalEntries, s.Food.AvgCalories,
		s.Water.TotalEntries, s.Water.AvgDailyWater,
		s.Mood.TotalEntries, s.Mood.AvgMood,
		s.NoteCount,
		mustJSON(s.RecentFoods),
		mustJSON(recentMoods),
		mustJSON(s.RecentNotes),
	)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// mustJSON marshals prompt sample lists; the inputs are plain slices of
// strings and ints, which cannot fail to marshal.
func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}
