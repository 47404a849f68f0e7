package coach

import "strings"

// Canned replies served when the model backend is unreachable. Matching is
// keyword-based and ordered: the anti-inflammation check runs before the
// broader nutrition check so "anti-inflammatory meal" doesn't land on the
// generic energy advice.
const (
	fallbackInflammation = `For anti-inflammatory meals, focus on foods rich in omega-3s, antioxidants, and fiber. Try a salmon salad with leafy greens, berries, and walnuts, or a turmeric-spiced lentil soup with ginger.

📚 Helpful Resources:
- [Anti-Inflammatory Diet Guide](https://kiwellness.medium.com/anti-inflammatory-foods) - Ki Wellness blog
- [Mayo Clinic: Anti-inflammatory diet](https://www.mayoclinic.org/healthy-lifestyle/nutrition-and-healthy-eating/in-depth/anti-inflammatory-diet/art-20457586) - Medical guidance`

	fallbackNutrition = `For sustained energy, combine complex carbs with protein and healthy fats. Try oatmeal with nuts and berries, or a quinoa bowl with vegetables and lean protein.

📚 Helpful Resources:
- [Energy-Boosting Foods](https://kiwellness.medium.com/energy-foods) - Ki Wellness blog
- [Harvard Health: Foods that fight fatigue](https://www.health.harvard.edu/healthbeat/foods-that-fight-fatigue) - Expert advice`

	fallbackHydration = `Stay hydrated by drinking water throughout the day. Aim for 8-10 glasses daily, and include hydrating foods like cucumbers, watermelon, and citrus fruits.

📚 Helpful Resources:
- [Hydration Tips](https://kiwellness.medium.com/hydration-guide) - Ki Wellness blog
- [WebMD: How much water should you drink?](https://www.webmd.com/diet/how-much-water-to-drink) - Daily recommendations`

	fallbackMood = `Support your mood with regular exercise, adequate sleep, and mood-boosting foods like dark chocolate, fatty fish, and leafy greens. Practice stress management techniques daily.

📚 Helpful Resources:
- [Mood-Boosting Habits](https://kiwellness.medium.com/mood-wellness) - Ki Wellness blog
- [Mayo Clinic: Stress management](https://www.mayoclinic.org/healthy-lifestyle/stress-management) - Expert guidance`

	fallbackGeneric = `I'm here to support your wellness journey! For personalized guidance, try logging your meals, water intake, and mood regularly. This helps identify patterns and make informed health decisions.

📚 Helpful Resources:
- [Wellness Tips](https://kiwellness.medium.com/wellness-guide) - Ki Wellness blog
- [Personalized Health Coaching](https://kiwellness.org/human-help) - Book a session with our certified nutritionist`
)

// fallbackNote is attached to responses served from the canned table.
const fallbackNote = "Using fallback response - AI model temporarily unavailable"

// fallbackResponse picks the canned reply matching the question's keywords.
func fallbackResponse(message string) string {
	m := strings.ToLower(message)

	switch {
	case containsAny(m, "anti-inflammation", "anti-inflammatory", "inflammation"):
		return fallbackInflammation
	case containsAny(m, "energy", "energizing", "boost", "meal", "food", "nutrition"):
		return fallbackNutrition
	case containsAny(m, "water", "hydrate", "drink"):
		return fallbackHydration
	case containsAny(m, "mood", "feel", "stress", "anxiety", "wellness"):
		return fallbackMood
	default:
		return fallbackGeneric
	}
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// fallbackAnalysis is served when the model backend is unreachable during
// analysis generation.
func fallbackAnalysis() Analysis {
	return Analysis{
		Patterns: []Pattern{{
			Title:       "Getting Started",
			Description: "Welcome to your AI Health Coach! Start logging your food, water, and mood to get personalized insights.",
		}},
		Suggestions: []Suggestion{{
			Title:       "Complete Your Profile",
			Description: "Add your health goals to your profile to get personalized suggestions.",
		}},
	}
}

// repairedAnalysis replaces model output that was not valid JSON.
func repairedAnalysis() Analysis {
	return Analysis{
		Patterns: []Pattern{{
			Title:       "Data Analysis",
			Description: "We're analyzing your wellness patterns. Keep logging to get more personalized insights!",
		}},
		Suggestions: []Suggestion{{
			Title:       "Complete Your Profile",
			Description: "Add your health goals to your profile to get personalized suggestions.",
		}},
	}
}
