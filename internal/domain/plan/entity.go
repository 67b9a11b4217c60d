// Package plan contains the core domain logic for weekly meal planning.
// A WeeklyPlan is the aggregate root; it owns exactly 7 PlanDays, each of
// which owns exactly one PlanMeal per meal type.
package plan

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MealType identifies one of the four fixed meal slots of a day.
type MealType string

const (
	MealTypeBreakfast MealType = "breakfast"
	MealTypeLunch     MealType = "lunch"
	MealTypeDinner    MealType = "dinner"
	MealTypeSnack     MealType = "snack"
)

// MealSlots is the canonical slot ordering. The slice index doubles as the
// meal index fed to the slot assigner and as the tie-break order in output.
var MealSlots = [...]MealType{
	MealTypeBreakfast,
	MealTypeLunch,
	MealTypeDinner,
	MealTypeSnack,
}

// DaysPerWeek and SlotsPerDay fix the shape of every generated plan.
const (
	DaysPerWeek = 7
	SlotsPerDay = len(MealSlots)
)

// ParseMealType validates a wire-level meal type string.
func ParseMealType(s string) (MealType, error) {
	for _, mt := range MealSlots {
		if string(mt) == s {
			return mt, nil
		}
	}
	return "", ErrUnknownMealType
}

// Index returns the canonical position of the meal type, or -1.
func (m MealType) Index() int {
	for i, mt := range MealSlots {
		if mt == m {
			return i
		}
	}
	return -1
}

// GenerationInputs is the snapshot of everything a generation request
// carried, kept on the plan row for reproducibility and debugging.
type GenerationInputs struct {
	TargetKcal           int
	ProteinG             *int
	CarbsG               *int
	FatG                 *int
	TrainingScheduleJSON *string
	PreferencesJSON      *string
}

// WeeklyPlan is the aggregate root for one (user, week-start) pair.
type WeeklyPlan struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	WeekStart time.Time
	Inputs    GenerationInputs
	Days      []PlanDay
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PlanDay is one calendar day inside the plan's 7-day window.
type PlanDay struct {
	ID     uuid.UUID
	PlanID uuid.UUID
	Date   time.Time
	Meals  []PlanMeal
}

// PlanMeal assigns a recipe to one (date, meal-type) slot.
type PlanMeal struct {
	ID       uuid.UUID
	DayID    uuid.UUID
	MealType MealType
	RecipeID uuid.UUID
	Servings decimal.Decimal
	Locked   bool
}

// SlotKey addresses one meal slot inside a week.
type SlotKey struct {
	Date     string // ISO date, see DateKey
	MealType MealType
}

// LockedMeal is the state a locked slot carries across a regeneration.
type LockedMeal struct {
	RecipeID uuid.UUID
	Servings decimal.Decimal
}

// DateLayout is the wire and key format for plan dates.
const DateLayout = "2006-01-02"

// NormalizeDate truncates a timestamp to midnight UTC so dates compare and
// persist consistently regardless of the caller's location.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateKey renders a date in the canonical key format.
func DateKey(t time.Time) string {
	return NormalizeDate(t).Format(DateLayout)
}

// IsMonday reports whether the date anchors an ISO week.
func IsMonday(t time.Time) bool {
	return NormalizeDate(t).Weekday() == time.Monday
}

// WithinWeek reports whether date falls in [weekStart, weekStart+6].
func WithinWeek(weekStart, date time.Time) bool {
	ws := NormalizeDate(weekStart)
	d := NormalizeDate(date)
	return !d.Before(ws) && !d.After(ws.AddDate(0, 0, DaysPerWeek-1))
}

// DefaultServings is assigned to every freshly generated, unlocked slot.
func DefaultServings() decimal.Decimal {
	return decimal.NewFromInt(1)
}

// NewWeeklyPlan creates an empty plan row for a user and week.
func NewWeeklyPlan(userID uuid.UUID, weekStart time.Time, inputs GenerationInputs) *WeeklyPlan {
	return &WeeklyPlan{
		ID:        uuid.New(),
		UserID:    userID,
		WeekStart: NormalizeDate(weekStart),
		Inputs:    inputs,
	}
}

// LockedSnapshot captures every locked slot keyed by (date, meal type).
// Regeneration copies these entries forward verbatim.
func (p *WeeklyPlan) LockedSnapshot() map[SlotKey]LockedMeal {
	snapshot := make(map[SlotKey]LockedMeal)
	for _, day := range p.Days {
		for _, meal := range day.Meals {
			if !meal.Locked {
				continue
			}
			snapshot[SlotKey{Date: DateKey(day.Date), MealType: meal.MealType}] = LockedMeal{
				RecipeID: meal.RecipeID,
				Servings: meal.Servings,
			}
		}
	}
	return snapshot
}

// MealAt finds the meal occupying a (date, meal-type) slot.
func (p *WeeklyPlan) MealAt(date time.Time, mealType MealType) (*PlanDay, *PlanMeal) {
	key := DateKey(date)
	for di := range p.Days {
		if DateKey(p.Days[di].Date) != key {
			continue
		}
		day := &p.Days[di]
		for mi := range day.Meals {
			if day.Meals[mi].MealType == mealType {
				return day, &day.Meals[mi]
			}
		}
		return day, nil
	}
	return nil, nil
}

// MealByID finds a meal anywhere in the plan by its identifier.
func (p *WeeklyPlan) MealByID(mealID uuid.UUID) *PlanMeal {
	for di := range p.Days {
		for mi := range p.Days[di].Meals {
			if p.Days[di].Meals[mi].ID == mealID {
				return &p.Days[di].Meals[mi]
			}
		}
	}
	return nil
}

// Validate checks the structural invariants of a fully generated plan:
// 7 unique in-window days, 4 meals per day, strictly positive servings.
func (p *WeeklyPlan) Validate() error {
	if len(p.Days) != DaysPerWeek {
		return ErrMalformedPlan
	}
	seen := make(map[string]struct{}, DaysPerWeek)
	for _, day := range p.Days {
		key := DateKey(day.Date)
		if _, dup := seen[key]; dup {
			return ErrMalformedPlan
		}
		seen[key] = struct{}{}
		if !WithinWeek(p.WeekStart, day.Date) {
			return ErrMalformedPlan
		}
		if len(day.Meals) != SlotsPerDay {
			return ErrMalformedPlan
		}
		for _, meal := range day.Meals {
			if !meal.Servings.IsPositive() {
				return ErrInvalidServings
			}
		}
	}
	return nil
}
