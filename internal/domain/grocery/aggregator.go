// Package grocery derives a consolidated shopping list from a finalized
// weekly plan. The pipeline is pure: it works on data the caller has
// already loaded and produces bit-stable output for identical input.
package grocery

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mealsmith/v1/internal/domain/catalog"
	"github.com/mealsmith/v1/internal/domain/plan"
)

// Contribution records one recipe's share of an ingredient total.
type Contribution struct {
	RecipeID   uuid.UUID
	RecipeName string
	Servings   decimal.Decimal
	Grams      decimal.Decimal
}

// Item is one consolidated grocery list entry.
type Item struct {
	ItemKey    string
	FoodID     uuid.UUID
	FoodName   string
	TotalGrams decimal.Decimal
	Checked    bool
	PerRecipe  []Contribution
}

// ServingsDemand sums, per recipe referenced anywhere in the plan, the
// total servings consumed across all 28 meal slots.
func ServingsDemand(p *plan.WeeklyPlan) map[uuid.UUID]decimal.Decimal {
	demand := make(map[uuid.UUID]decimal.Decimal)
	for _, day := range p.Days {
		for _, meal := range day.Meals {
			demand[meal.RecipeID] = demand[meal.RecipeID].Add(meal.Servings)
		}
	}
	return demand
}

// Aggregate walks the demanded recipes and accumulates ingredient totals
// scaled by servings consumed.
//
// Ordering contract: recipes are visited in ascending UUID-string order and
// items within a recipe in ascending item-UUID-string order, so repeated
// calls on the same plan produce identical output. Each contribution is
// rounded to 2 decimals (half-up) before it is added to the running total.
//
// Returns ErrDanglingIngredient when a recipe item references a food that
// is missing from the resolved scope.
func Aggregate(
	demand map[uuid.UUID]decimal.Decimal,
	recipes []*catalog.Recipe,
	foods map[uuid.UUID]*catalog.Food,
) ([]Item, error) {
	sorted := make([]*catalog.Recipe, len(recipes))
	copy(sorted, recipes)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ID.String() < sorted[j].ID.String()
	})

	totals := make(map[uuid.UUID]decimal.Decimal)
	breakdown := make(map[uuid.UUID][]Contribution)

	for _, r := range sorted {
		totalServings, ok := demand[r.ID]
		if !ok || !totalServings.IsPositive() {
			continue
		}
		factor := totalServings.Div(decimal.NewFromInt(int64(r.Servings)))

		items := make([]catalog.RecipeItem, len(r.Items))
		copy(items, r.Items)
		sort.Slice(items, func(i, j int) bool {
			return items[i].ID.String() < items[j].ID.String()
		})

		for _, item := range items {
			food, ok := foods[item.FoodID]
			if !ok {
				return nil, fmt.Errorf("%w: food_id=%s", ErrDanglingIngredient, item.FoodID)
			}
			grams := item.Grams.Mul(factor).Round(2)
			totals[food.ID] = totals[food.ID].Add(grams)
			breakdown[food.ID] = append(breakdown[food.ID], Contribution{
				RecipeID:   r.ID,
				RecipeName: r.Name,
				Servings:   totalServings,
				Grams:      grams,
			})
		}
	}

	foodIDs := make([]uuid.UUID, 0, len(totals))
	for id := range totals {
		foodIDs = append(foodIDs, id)
	}
	sort.Slice(foodIDs, func(i, j int) bool {
		return foodIDs[i].String() < foodIDs[j].String()
	})

	result := make([]Item, 0, len(foodIDs))
	for _, id := range foodIDs {
		result = append(result, Item{
			ItemKey:    ItemKey(id),
			FoodID:     id,
			FoodName:   foods[id].Name,
			TotalGrams: totals[id],
			PerRecipe:  breakdown[id],
		})
	}
	return result, nil
}
