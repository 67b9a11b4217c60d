// Package catalog holds the read-side view of the recipe catalog the
// planning engine consumes. The catalog is owned by a collaborating
// service; nothing in this module mutates it.
package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Food is an ingredient reference. UserID is nil for globally shared foods.
type Food struct {
	ID     uuid.UUID
	UserID *uuid.UUID
	Name   string
	Brand  *string

	// Macro density per 100g, carried for the nutrition collaborators.
	Kcal100g    decimal.Decimal
	Protein100g decimal.Decimal
	Carbs100g   decimal.Decimal
	Fat100g     decimal.Decimal
}

// Recipe is a user's saved recipe with its serving count.
type Recipe struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Name      string
	Servings  int
	Items     []RecipeItem
	CreatedAt time.Time
}

// RecipeItem names one ingredient of a recipe and its quantity in grams.
type RecipeItem struct {
	ID       uuid.UUID
	RecipeID uuid.UUID
	FoodID   uuid.UUID
	Grams    decimal.Decimal
}
