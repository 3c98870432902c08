package planner

import (
	"sort"

	"github.com/petervd13-web/Recipe33/internal/recipe"
)

// DayPlan binds one saved recipe variation to one calendar day.
type DayPlan struct {
	Date      Date                 `json:"date"`
	RecipeID  string               `json:"recipe_id"`
	Variation recipe.VariationKind `json:"variation"`
}

// WeekPlan is the full schedule: at most one entry per date, kept in
// chronological order. Methods return a new slice rather than mutating
// in place so callers can treat plans as values.
type WeekPlan []DayPlan

// Assign replaces whatever was planned on entry.Date with entry.
// Planning over an occupied day is a single replace, never a merge.
func (p WeekPlan) Assign(entry DayPlan) WeekPlan {
	next := make(WeekPlan, 0, len(p)+1)
	for _, dp := range p {
		if dp.Date != entry.Date {
			next = append(next, dp)
		}
	}
	next = append(next, entry)
	sort.Slice(next, func(i, j int) bool { return next[i].Date < next[j].Date })
	return next
}

// Clear removes the entry for date, if any.
func (p WeekPlan) Clear(date Date) WeekPlan {
	next := make(WeekPlan, 0, len(p))
	for _, dp := range p {
		if dp.Date != date {
			next = append(next, dp)
		}
	}
	return next
}

// Get returns the entry planned on date.
func (p WeekPlan) Get(date Date) (DayPlan, bool) {
	for _, dp := range p {
		if dp.Date == date {
			return dp, true
		}
	}
	return DayPlan{}, false
}

// InRange returns the entries with from <= date <= to, in order.
func (p WeekPlan) InRange(from, to Date) []DayPlan {
	var out []DayPlan
	for _, dp := range p {
		if dp.Date >= from && dp.Date <= to {
			out = append(out, dp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
