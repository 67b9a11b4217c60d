// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application uses to interact with external systems
package outbound

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mealsmith/v1/internal/domain/catalog"
	"github.com/mealsmith/v1/internal/domain/plan"
)

// PlanRepository persists the WeeklyPlan aggregate. All mutating methods
// assume they run inside a unit of work; the delete/insert pair of a
// regeneration must share one transaction.
type PlanRepository interface {
	// LockWeek acquires the advisory critical section for (user, week).
	// The lock is transaction-scoped and released at commit or rollback,
	// on every exit path. It exists independently of any plan row so the
	// first-ever generation for a week is serialized too.
	LockWeek(ctx context.Context, userID uuid.UUID, weekStart time.Time) error

	// FindByUserWeek loads the plan with days and meals, or nil.
	FindByUserWeek(ctx context.Context, userID uuid.UUID, weekStart time.Time) (*plan.WeeklyPlan, error)

	// FindByUserWeekForUpdate is FindByUserWeek with a write-intent lock
	// on the plan row, guarding against writers outside the advisory gate.
	FindByUserWeekForUpdate(ctx context.Context, userID uuid.UUID, weekStart time.Time) (*plan.WeeklyPlan, error)

	// LockedMeals re-reads the locked slots of a plan from persisted
	// state, not from any in-memory copy, so out-of-band edits survive.
	LockedMeals(ctx context.Context, planID uuid.UUID) (map[plan.SlotKey]plan.LockedMeal, error)

	// Create inserts the plan row only (no children).
	Create(ctx context.Context, p *plan.WeeklyPlan) error

	// UpdateInputs rewrites the generation input snapshot in place,
	// keeping the plan identity stable.
	UpdateInputs(ctx context.Context, p *plan.WeeklyPlan) error

	// ReplaceChildren deletes all of the plan's meals and days and
	// inserts the given replacement set.
	ReplaceChildren(ctx context.Context, planID uuid.UUID, days []plan.PlanDay) error

	// UpdateMeal persists a single meal's recipe/locked mutation.
	UpdateMeal(ctx context.Context, meal *plan.PlanMeal) error

	// DeleteByUserWeek removes the plan and its children.
	DeleteByUserWeek(ctx context.Context, userID uuid.UUID, weekStart time.Time) error
}

// RecipeCatalog is the read adapter over the collaborator-owned catalog.
type RecipeCatalog interface {
	// ListByUser returns the user's recipes without items, sorted by
	// ascending UUID string. That ordering is the assigner's tie-break
	// contract.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*catalog.Recipe, error)

	// FindByIDForUser resolves a recipe inside the user's own scope.
	// Returns catalog.ErrRecipeNotFound for other users' recipes; their
	// existence is not leaked.
	FindByIDForUser(ctx context.Context, userID, recipeID uuid.UUID) (*catalog.Recipe, error)

	// ListWithItems loads the given recipes of the user including items.
	ListWithItems(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]*catalog.Recipe, error)

	// ResolveFood resolves a food in the user's visible scope: the
	// user's own foods plus globally shared ones.
	ResolveFood(ctx context.Context, userID, foodID uuid.UUID) (*catalog.Food, error)
}

// GroceryCheck is one persisted checked flag.
type GroceryCheck struct {
	ItemKey string
	Checked bool
}

// GroceryCheckRepository persists the checked-state overlay. Its lifecycle
// is independent of the plan: rows survive plan regeneration and deletion.
type GroceryCheckRepository interface {
	BulkUpsert(ctx context.Context, userID uuid.UUID, weekStart time.Time, checks []GroceryCheck) error
	GetMap(ctx context.Context, userID uuid.UUID, weekStart time.Time) (map[string]bool, error)
}

// Repositories bundles the transaction-scoped adapters handed to a unit of
// work callback.
type Repositories struct {
	Plans   PlanRepository
	Catalog RecipeCatalog
	Checks  GroceryCheckRepository
}

// UnitOfWork runs fn inside one atomic transaction. A non-nil error from
// fn rolls everything back; the caller observes either the fully-old or
// the fully-new state, never a mixture.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(r Repositories) error) error
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
