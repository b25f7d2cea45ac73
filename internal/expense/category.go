package expense

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Expense categories.
const (
	CategoryFood          = "Alimentação"
	CategoryTransport     = "Deslocamento"
	CategoryAccommodation = "Hospedagem"
	CategoryOther         = "Outros"
)

// Meal-window spending caps, in BRL. Only Alimentação is capped.
const (
	BreakfastCap = 30.00
	MealCap      = 60.00
)

// breakfastEnd is the cutoff between the breakfast and lunch windows.
const breakfastEnd = 10*60 + 30 // minutes since midnight

// Value bounds for a single launch.
const (
	MinValue             = 0.01
	MaxValue             = 999999
	MaxDescriptionLength = 100
)

var categoryKeywords = map[string][]string{
	CategoryFood: {
		"restaurante", "lanchonete", "padaria", "café", "bar",
		"refeição", "almoço", "jantar", "café da manhã",
		"food", "meal", "breakfast", "lunch", "dinner",
	},
	CategoryTransport: {
		"uber", "taxi", "99", "transporte", "passagem",
		"combustível", "gasolina", "pedágio", "estacionamento",
		"transport", "fuel", "parking", "toll",
	},
	CategoryAccommodation: {
		"hotel", "pousada", "hospedagem", "diária",
		"accommodation", "lodging", "stay",
	},
}

// Matches 14:30, 14h30 and 14.30.
var timeRE = regexp.MustCompile(`\b([0-1]?[0-9]|2[0-3])[:h.]([0-5][0-9])\b`)

// SuggestCategory picks a category from description keywords, falling back to
// Alimentação when the time of day lands in a meal window, else Outros.
func SuggestCategory(description string, at time.Time) string {
	if description == "" {
		return CategoryOther
	}

	lower := strings.ToLower(description)
	for _, category := range []string{CategoryFood, CategoryTransport, CategoryAccommodation} {
		for _, keyword := range categoryKeywords[category] {
			if strings.Contains(lower, keyword) {
				return category
			}
		}
	}

	if _, ok := extractMinutes(description); ok {
		return CategoryFood
	}
	if !at.IsZero() && clockMinutes(at) > 0 {
		return CategoryFood
	}

	return CategoryOther
}

// CapFor returns the spending ceiling for a launch, or 0 when the category is
// uncapped. The meal window comes from a time found in the description, then
// from the expense timestamp's clock, defaulting to the lunch/dinner cap.
func CapFor(category, description string, at time.Time) float64 {
	if category != CategoryFood {
		return 0
	}
	if minutes, ok := extractMinutes(description); ok {
		return capForMinutes(minutes)
	}
	if m := clockMinutes(at); m > 0 {
		return capForMinutes(m)
	}
	return MealCap
}

func capForMinutes(minutes int) float64 {
	if minutes < breakfastEnd {
		return BreakfastCap
	}
	return MealCap
}

// ConfidenceScore grades how well the description supports the category,
// 0-100. Proportional keyword matches plus a bonus for any specific category.
func ConfidenceScore(description, category string) int {
	if description == "" || category == "" {
		return 0
	}

	lower := strings.ToLower(description)
	keywords := categoryKeywords[category]

	matches := 0
	for _, keyword := range keywords {
		if strings.Contains(lower, keyword) {
			matches++
		}
	}

	score := 0
	if len(keywords) > 0 {
		score = matches * 100 / len(keywords)
	}
	if category != CategoryOther {
		score += 20
	}
	if score > 100 {
		score = 100
	}
	return score
}

// extractMinutes finds a clock time inside the description.
func extractMinutes(description string) (int, bool) {
	match := timeRE.FindStringSubmatch(description)
	if match == nil {
		return 0, false
	}
	hours, _ := strconv.Atoi(match[1])
	minutes, _ := strconv.Atoi(match[2])
	return hours*60 + minutes, true
}

func clockMinutes(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
