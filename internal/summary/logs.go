package summary

// FoodLog is one logged meal or snack.
type FoodLog struct {
	Name      string  `json:"name"`
	Calories  float64 `json:"calories"`
	Date      string  `json:"date"`
	TimeOfDay string  `json:"time_of_day"`
}

// WaterLog is one logged water intake, in cups.
type WaterLog struct {
	Amount float64 `json:"amount"`
	Date   string  `json:"date"`
}

// MoodLog is one logged mood observation on a 1–5 scale.
type MoodLog struct {
	Mood int    `json:"mood"`
	Date string `json:"date"`
}

// Note is one free-text journal entry.
type Note struct {
	Content string `json:"content"`
	Date    string `json:"date"`
}

// Logs holds a user's wellness history, each slice ordered oldest first.
type Logs struct {
	Food  []FoodLog  `json:"food_logs"`
	Water []WaterLog `json:"water_logs"`
	Mood  []MoodLog  `json:"mood_logs"`
	Notes []Note     `json:"notes"`
}

// Profile carries the free-text user fields used as template values.
type Profile struct {
	Name     string `json:"name"`
	Age      string `json:"age"`
	Goals    string `json:"health_goals"`
	Ailments string `json:"ailments_concerns"`
}
