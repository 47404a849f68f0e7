package composer

import (
	"strings"
	"testing"

	"github.com/kiwellness/coach/internal/summary"
	"github.com/kiwellness/coach/internal/topic"
)

func nutritionSummary() *summary.ContextSummary {
	s := summary.Summarize(summary.Logs{Food: []summary.FoodLog{
		{Name: "Oatmeal", Calories: 500, TimeOfDay: "breakfast"},
		{Name: "Salad", Calories: 500, TimeOfDay: "lunch"},
		{Name: "Pasta", Calories: 500, TimeOfDay: "dinner"},
	}})
	return &s
}

func TestBuildChatPrompt_NutritionContext(t *testing.T) {
	c := New(2000)
	b := c.BuildChatPrompt("What should I eat for energy?", summary.Profile{Name: "Sam"}, nutritionSummary(), topic.Nutrition)

	if b.Truncated {
		t.Fatal("prompt unexpectedly truncated")
	}
	for _, want := range []string{"Sam", "What should I eat for energy?", "Logged 3 meals", "avg 500 cal/meal", "Available Resources:", "Mayo Clinic"} {
		if !strings.Contains(b.Text, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildChatPrompt_ContextTypeMustMatchTopic(t *testing.T) {
	c := New(2000)
	// Food data supplied but the question is about mood: no food numbers
	// may leak into the prompt.
	b := c.BuildChatPrompt("why do I feel sad", summary.Profile{}, nutritionSummary(), topic.Mood)
	if strings.Contains(b.Text, "Relevant Data") {
		t.Errorf("mood question surfaced non-mood context: %s", b.Text)
	}
}

func TestBuildChatPrompt_NeverExceedsBudget(t *testing.T) {
	c := New(0) // default 1000
	b := c.BuildChatPrompt("What should I eat for energy?", summary.Profile{Name: "Sam"}, nutritionSummary(), topic.Nutrition)

	if len(b.Text) > c.MaxPromptChars {
		t.Fatalf("prompt length %d exceeds budget %d", len(b.Text), c.MaxPromptChars)
	}
}

func TestBuildChatPrompt_OversizeHardCutover(t *testing.T) {
	c := New(400) // small budget forces the cutover
	question := "What should I eat for energy?"
	b := c.BuildChatPrompt(question, summary.Profile{Name: "Sam"}, nutritionSummary(), topic.Nutrition)

	if !b.Truncated {
		t.Fatal("expected truncated bundle")
	}
	if !strings.Contains(b.Text, question) {
		t.Error("fallback template must keep the literal question")
	}
	if !strings.Contains(b.Text, "Helpful Resources:") {
		t.Error("fallback template must keep formatting instructions")
	}
	if strings.Contains(b.Text, "Relevant Data") || strings.Contains(b.Text, "Available Resources:") {
		t.Error("fallback template must drop context and resource lines")
	}
}

func TestBuildChatPrompt_EmptyProfileName(t *testing.T) {
	c := New(2000)
	b := c.BuildChatPrompt("hi", summary.Profile{}, nil, topic.General)
	if !strings.Contains(b.Text, "AI Health Coach for User") {
		t.Errorf("expected default user name, got: %s", b.Text[:80])
	}
}

func TestBuildAnalysisPrompt(t *testing.T) {
	c := New(0)
	s := summary.Summarize(summary.Logs{
		Food:  []summary.FoodLog{{Name: "Rice", Calories: 600, TimeOfDay: "dinner"}},
		Mood:  []summary.MoodLog{{Mood: 2}, {Mood: 4}},
		Water: []summary.WaterLog{{Amount: 7}},
		Notes: []summary.Note{{Content: "slept badly"}},
	})

	out := c.BuildAnalysisPrompt(summary.Profile{Name: "Sam", Goals: "sleep better"}, s)
	for _, want := range []string{
		"USER: Sam",
		"Goals: sleep better",
		"Food: 1 entries",
		"Mood: 2 entries",
		"OUTPUT STRICT JSON ONLY",
		`"Rice (dinner)"`,
		`"slept badly"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("analysis prompt missing %q", want)
		}
	}
}

func TestBuildAnalysisPrompt_EmptyProfileDefaults(t *testing.T) {
	c := New(0)
	out := c.BuildAnalysisPrompt(summary.Profile{}, summary.Summarize(summary.Logs{}))
	for _, want := range []string{"USER: User", "Age: N/A", "Goals: Not specified", "Health Concerns: Not specified"} {
		if !strings.Contains(out, want) {
			t.Errorf("analysis prompt missing default %q", want)
		}
	}
}
