// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the use cases the application exposes to transports.
package inbound

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlanService is the transport-agnostic surface of the planning engine.
type PlanService interface {
	// GeneratePlan creates or regenerates the plan for (user, week).
	// Locked slots survive verbatim; everything else is replaced.
	GeneratePlan(ctx context.Context, cmd GeneratePlanCommand) (*PlanDTO, error)

	// SwapMeal substitutes the recipe of one slot. A swap pins the slot
	// unless the caller opts out.
	SwapMeal(ctx context.Context, cmd SwapMealCommand) (*PlanDTO, error)

	// SetMealLock toggles the locked flag of one meal by id.
	SetMealLock(ctx context.Context, userID uuid.UUID, weekStart time.Time, mealID uuid.UUID, locked bool) (*PlanDTO, error)

	// GetPlan returns the committed plan for (user, week).
	GetPlan(ctx context.Context, userID uuid.UUID, weekStart time.Time) (*PlanDTO, error)

	// DeletePlan removes the plan and children. Grocery checks are
	// independently owned and untouched.
	DeletePlan(ctx context.Context, userID uuid.UUID, weekStart time.Time) error

	// GetGroceryList aggregates the plan into a shopping list merged
	// with the persisted checked overlay.
	GetGroceryList(ctx context.Context, userID uuid.UUID, weekStart time.Time) (*GroceryListDTO, error)

	// SetGroceryChecks bulk-upserts checked flags by stable item key.
	SetGroceryChecks(ctx context.Context, userID uuid.UUID, weekStart time.Time, checks []GroceryCheckUpdate) error
}

// MacroGramsCommand carries optional absolute macro targets.
type MacroGramsCommand struct {
	ProteinG *int
	CarbsG   *int
	FatG     *int
}

// TrainingDayCommand is one entry of the optional training schedule.
type TrainingDayCommand struct {
	Date time.Time
	Name string
}

// GeneratePlanCommand carries everything a generation needs.
type GeneratePlanCommand struct {
	UserID           uuid.UUID
	WeekStart        time.Time
	TargetKcal       int
	MacroGrams       *MacroGramsCommand
	TrainingSchedule []TrainingDayCommand
	Preferences      map[string]any
}

// SwapMealCommand targets one (date, meal-type) slot.
type SwapMealCommand struct {
	UserID      uuid.UUID
	WeekStart   time.Time
	Date        time.Time
	MealType    string
	NewRecipeID uuid.UUID
	// Lock defaults to true: a swap is an explicit pin unless the
	// caller opts out.
	Lock *bool
}

// GroceryCheckUpdate sets one checked flag.
type GroceryCheckUpdate struct {
	ItemKey string
	Checked bool
}

// PlanMealDTO is the wire view of one meal slot.
type PlanMealDTO struct {
	ID       uuid.UUID       `json:"id"`
	MealType string          `json:"meal_type"`
	RecipeID uuid.UUID       `json:"recipe_id"`
	Servings decimal.Decimal `json:"servings"`
	Locked   bool            `json:"locked"`
}

// PlanDayDTO is the wire view of one plan day.
type PlanDayDTO struct {
	ID    uuid.UUID     `json:"id"`
	Date  string        `json:"date"`
	Meals []PlanMealDTO `json:"meals"`
}

// PlanDTO is the wire view of a weekly plan.
type PlanDTO struct {
	ID         uuid.UUID    `json:"id"`
	WeekStart  string       `json:"week_start"`
	TargetKcal int          `json:"target_kcal"`
	ProteinG   *int         `json:"protein_g"`
	CarbsG     *int         `json:"carbs_g"`
	FatG       *int         `json:"fat_g"`
	Days       []PlanDayDTO `json:"days"`
}

// GroceryContributionDTO is one recipe's share of an ingredient total.
type GroceryContributionDTO struct {
	RecipeID   uuid.UUID       `json:"recipe_id"`
	RecipeName string          `json:"recipe_name"`
	Servings   decimal.Decimal `json:"servings"`
	Grams      decimal.Decimal `json:"grams"`
}

// GroceryItemDTO is one consolidated shopping list entry.
type GroceryItemDTO struct {
	ItemKey    string                   `json:"item_key"`
	FoodID     uuid.UUID                `json:"food_id"`
	FoodName   string                   `json:"food_name"`
	TotalGrams decimal.Decimal          `json:"total_grams"`
	Checked    bool                     `json:"checked"`
	PerRecipe  []GroceryContributionDTO `json:"per_recipe"`
}

// GroceryListDTO is the wire view of the aggregated shopping list.
type GroceryListDTO struct {
	WeekStart string           `json:"week_start"`
	Items     []GroceryItemDTO `json:"items"`
}
