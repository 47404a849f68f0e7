// Package resources holds the curated link catalog surfaced in coach
// responses. The tables are static and read-only after process start, so
// concurrent lookups need no locking.
package resources

import (
	"fmt"
	"strings"

	"github.com/kiwellness/coach/internal/topic"
)

// Resource is one curated link.
type Resource struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

const (
	maxBlogResources   = 2
	maxAuthoritative   = 1
	generalBlogEntries = 1
)

// blogResources are Ki Wellness Medium posts, grouped by topic.
var blogResources = map[topic.Topic][]Resource{
	topic.Nutrition: {
		{
			Title:       "10 Energy-Boosting Foods for Better Performance",
			URL:         "https://kiwellness.medium.com/10-energy-boosting-foods-for-better-performance",
			Description: "Discover the best foods to fuel your day",
		},
		{
			Title:       "The Complete Guide to Healthy Meal Planning",
			URL:         "https://kiwellness.medium.com/complete-guide-to-healthy-meal-planning",
			Description: "Learn how to plan nutritious meals that support your goals",
		},
		{
			Title:       "Understanding Calories: Quality vs Quantity",
			URL:         "https://kiwellness.medium.com/understanding-calories-quality-vs-quantity",
			Description: "Why the quality of your calories matters more than the number",
		},
	},
	topic.Mood: {
		{
			Title:       "5 Simple Ways to Boost Your Mood Naturally",
			URL:         "https://kiwellness.medium.com/5-simple-ways-to-boost-your-mood-naturally",
			Description: "Natural strategies for improving your mental wellbeing",
		},
		{
			Title:       "The Connection Between Diet and Mental Health",
			URL:         "https://kiwellness.medium.com/diet-and-mental-health-connection",
			Description: "How what you eat affects how you feel",
		},
		{
			Title:       "Tracking Your Mood: A Beginner's Guide",
			URL:         "https://kiwellness.medium.com/tracking-your-mood-beginners-guide",
			Description: "Learn how to monitor and improve your emotional health",
		},
	},
	topic.Hydration: {
		{
			Title:       "Hydration 101: How Much Water Do You Really Need?",
			URL:         "https://kiwellness.medium.com/hydration-101-how-much-water-do-you-really-need",
			Description: "The science behind proper hydration",
		},
		{
			Title:       "Signs You're Not Drinking Enough Water",
			URL:         "https://kiwellness.medium.com/signs-youre-not-drinking-enough-water",
			Description: "Recognize the warning signs of dehydration",
		},
		{
			Title:       "Creative Ways to Stay Hydrated Throughout the Day",
			URL:         "https://kiwellness.medium.com/creative-ways-to-stay-hydrated",
			Description: "Fun and effective hydration strategies",
		},
	},
	topic.Wellness: {
		{
			Title:       "Building Healthy Habits That Actually Stick",
			URL:         "https://kiwellness.medium.com/building-healthy-habits-that-actually-stick",
			Description: "The psychology behind lasting behavior change",
		},
		{
			Title:       "Self-Care for Busy People: 5-Minute Wellness Rituals",
			URL:         "https://kiwellness.medium.com/self-care-for-busy-people",
			Description: "Quick wellness practices for your busy lifestyle",
		},
		{
			Title:       "The Power of Small Changes in Your Health Journey",
			URL:         "https://kiwellness.medium.com/power-of-small-changes-in-health-journey",
			Description: "Why incremental improvements lead to lasting results",
		},
	},
	topic.General: {
		{
			Title:       "Getting Started with Ki Wellness: Your Complete Guide",
			URL:         "https://kiwellness.medium.com/getting-started-with-ki-wellness",
			Description: "Everything you need to know to begin your wellness journey",
		},
		{
			Title:       "The Science Behind Self Health Tracking",
			URL:         "https://kiwellness.medium.com/science-behind-self-health-tracking",
			Description: "Why tracking your health data leads to better outcomes",
		},
	},
}

// authoritativeSources are external medical references, grouped by topic.
var authoritativeSources = map[topic.Topic][]Resource{
	topic.Nutrition: {
		{
			Title:       "Nutrition Basics - Mayo Clinic",
			URL:         "https://www.mayoclinic.org/healthy-lifestyle/nutrition-and-healthy-eating/basics/nutrition-basics/hlv-20049477",
			Description: "Comprehensive nutrition information from Mayo Clinic",
		},
		{
			Title:       "Healthy Eating - Harvard Health",
			URL:         "https://www.health.harvard.edu/topics/healthy-eating",
			Description: "Evidence-based nutrition advice from Harvard Medical School",
		},
	},
	topic.Mood: {
		{
			Title:       "Mental Health - Mayo Clinic",
			URL:         "https://www.mayoclinic.org/healthy-lifestyle/adult-health/in-depth/mental-health/art-20044098",
			Description: "Mental health resources and information",
		},
		{
			Title:       "Depression and Anxiety - WebMD",
			URL:         "https://www.webmd.com/depression/default.htm",
			Description: "Understanding and managing mood disorders",
		},
	},
	topic.Hydration: {
		{
			Title:       "Water: How Much Should You Drink? - Mayo Clinic",
			URL:         "https://www.mayoclinic.org/healthy-lifestyle/nutrition-and-healthy-eating/in-depth/water/art-20044256",
			Description: "Official hydration guidelines from Mayo Clinic",
		},
		{
			Title:       "Hydration - Harvard Health",
			URL:         "https://www.health.harvard.edu/staying-healthy/how-much-water-should-you-drink",
			Description: "Research-based hydration advice",
		},
	},
	topic.Exercise: {
		{
			Title:       "Exercise - Mayo Clinic",
			URL:         "https://www.mayoclinic.org/healthy-lifestyle/fitness/in-depth/exercise/art-20048389",
			Description: "Exercise guidelines and benefits",
		},
		{
			Title:       "Physical Activity - CDC",
			URL:         "https://www.cdc.gov/physicalactivity/basics/index.htm",
			Description: "Official physical activity recommendations",
		},
	},
}

// ForTopic returns up to 2 blog resources for the topic (degrading to the
// general list when the topic has no blog entries) plus up to 1
// authoritative source when one is defined. Never errors; an unknown topic
// behaves like General. At most 3 resources are returned.
func ForTopic(t topic.Topic) []Resource {
	var out []Resource

	if blogs, ok := blogResources[t]; ok {
		out = append(out, capped(blogs, maxBlogResources)...)
	} else {
		out = append(out, capped(blogResources[topic.General], generalBlogEntries)...)
	}

	if sources, ok := authoritativeSources[t]; ok {
		out = append(out, capped(sources, maxAuthoritative)...)
	}

	return out
}

// FormatForPrompt renders the resources as a numbered block for prompt
// inclusion. Empty input yields an empty string.
func FormatForPrompt(rs []Resource) string {
	if len(rs) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("\n\nAvailable Resources:\n")
	for i, r := range rs {
		fmt.Fprintf(&sb, "%d. %s - %s\n", i+1, r.Title, r.URL)
	}
	return sb.String()
}

func capped(rs []Resource, n int) []Resource {
	if len(rs) > n {
		return rs[:n]
	}
	return rs
}
