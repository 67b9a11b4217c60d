package grocery

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealsmith/v1/internal/domain/catalog"
	"github.com/mealsmith/v1/internal/domain/plan"
)

func TestItemKeyRoundTrip(t *testing.T) {
	foodID := uuid.New()
	key := ItemKey(foodID)
	assert.Equal(t, "food_id:"+foodID.String(), key)

	got, ok := ParseItemKey(key)
	require.True(t, ok)
	assert.Equal(t, foodID, got)

	_, ok = ParseItemKey("garbage")
	assert.False(t, ok)
	_, ok = ParseItemKey("food_id:not-a-uuid")
	assert.False(t, ok)
}

func TestServingsDemand(t *testing.T) {
	ws := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	recipeA := uuid.New()
	recipeB := uuid.New()

	p := &plan.WeeklyPlan{WeekStart: ws}
	for offset := 0; offset < plan.DaysPerWeek; offset++ {
		day := plan.PlanDay{Date: ws.AddDate(0, 0, offset)}
		for i, mt := range plan.MealSlots {
			recipeID := recipeA
			if i%2 == 1 {
				recipeID = recipeB
			}
			day.Meals = append(day.Meals, plan.PlanMeal{
				MealType: mt,
				RecipeID: recipeID,
				Servings: decimal.NewFromInt(1),
			})
		}
		p.Days = append(p.Days, day)
	}

	demand := ServingsDemand(p)
	require.Len(t, demand, 2)
	assert.True(t, demand[recipeA].Equal(decimal.NewFromInt(14)))
	assert.True(t, demand[recipeB].Equal(decimal.NewFromInt(14)))
}

func TestAggregateScalesByServings(t *testing.T) {
	// A recipe yielding 2 servings with a 200g ingredient, consumed once
	// per slot across the full week: 28 servings / 2 * 200g = 2800.00g.
	foodID := uuid.New()
	recipeID := uuid.New()

	recipes := []*catalog.Recipe{{
		ID:       recipeID,
		Name:     "Chili",
		Servings: 2,
		Items: []catalog.RecipeItem{
			{ID: uuid.New(), RecipeID: recipeID, FoodID: foodID, Grams: decimal.NewFromInt(200)},
		},
	}}
	foods := map[uuid.UUID]*catalog.Food{
		foodID: {ID: foodID, Name: "Kidney Beans"},
	}
	demand := map[uuid.UUID]decimal.Decimal{
		recipeID: decimal.NewFromInt(28),
	}

	items, err := Aggregate(demand, recipes, foods)
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, ItemKey(foodID), item.ItemKey)
	assert.Equal(t, "Kidney Beans", item.FoodName)
	assert.Equal(t, "2800", item.TotalGrams.String())
	require.Len(t, item.PerRecipe, 1)
	assert.Equal(t, "Chili", item.PerRecipe[0].RecipeName)
	assert.True(t, item.PerRecipe[0].Servings.Equal(decimal.NewFromInt(28)))
}

func TestAggregateMergesAcrossRecipes(t *testing.T) {
	foodID := uuid.New()
	recipeA := uuid.New()
	recipeB := uuid.New()

	recipes := []*catalog.Recipe{
		{
			ID:       recipeA,
			Name:     "Oatmeal",
			Servings: 1,
			Items: []catalog.RecipeItem{
				{ID: uuid.New(), RecipeID: recipeA, FoodID: foodID, Grams: decimal.NewFromInt(80)},
			},
		},
		{
			ID:       recipeB,
			Name:     "Granola",
			Servings: 4,
			Items: []catalog.RecipeItem{
				{ID: uuid.New(), RecipeID: recipeB, FoodID: foodID, Grams: decimal.NewFromInt(100)},
			},
		},
	}
	foods := map[uuid.UUID]*catalog.Food{
		foodID: {ID: foodID, Name: "Oats"},
	}
	demand := map[uuid.UUID]decimal.Decimal{
		recipeA: decimal.NewFromInt(3), // 3 * 80 = 240
		recipeB: decimal.NewFromInt(2), // 2/4 * 100 = 50
	}

	items, err := Aggregate(demand, recipes, foods)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "290", items[0].TotalGrams.String())
	assert.Len(t, items[0].PerRecipe, 2)
}

func TestAggregateRoundsContributions(t *testing.T) {
	foodID := uuid.New()
	recipeID := uuid.New()

	recipes := []*catalog.Recipe{{
		ID:       recipeID,
		Name:     "Soup",
		Servings: 3,
		Items: []catalog.RecipeItem{
			{ID: uuid.New(), RecipeID: recipeID, FoodID: foodID, Grams: decimal.NewFromInt(100)},
		},
	}}
	foods := map[uuid.UUID]*catalog.Food{foodID: {ID: foodID, Name: "Lentils"}}
	demand := map[uuid.UUID]decimal.Decimal{recipeID: decimal.NewFromInt(1)}

	items, err := Aggregate(demand, recipes, foods)
	require.NoError(t, err)
	require.Len(t, items, 1)
	// 100/3 rounded to 2 decimals at the contribution level
	assert.Equal(t, "33.33", items[0].TotalGrams.String())
}

func TestAggregateDeterministicOrder(t *testing.T) {
	foods := map[uuid.UUID]*catalog.Food{}
	recipes := make([]*catalog.Recipe, 0, 5)
	demand := map[uuid.UUID]decimal.Decimal{}

	for i := 0; i < 5; i++ {
		foodID := uuid.New()
		recipeID := uuid.New()
		foods[foodID] = &catalog.Food{ID: foodID, Name: "F"}
		recipes = append(recipes, &catalog.Recipe{
			ID:       recipeID,
			Servings: 1,
			Items: []catalog.RecipeItem{
				{ID: uuid.New(), RecipeID: recipeID, FoodID: foodID, Grams: decimal.NewFromInt(10)},
			},
		})
		demand[recipeID] = decimal.NewFromInt(1)
	}

	first, err := Aggregate(demand, recipes, foods)
	require.NoError(t, err)
	second, err := Aggregate(demand, recipes, foods)
	require.NoError(t, err)
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].FoodID, second[i].FoodID)
	}
	for i := 1; i < len(first); i++ {
		assert.Less(t, first[i-1].FoodID.String(), first[i].FoodID.String())
	}
}

func TestAggregateDanglingIngredient(t *testing.T) {
	recipeID := uuid.New()
	missing := uuid.New()

	recipes := []*catalog.Recipe{{
		ID:       recipeID,
		Servings: 1,
		Items: []catalog.RecipeItem{
			{ID: uuid.New(), RecipeID: recipeID, FoodID: missing, Grams: decimal.NewFromInt(50)},
		},
	}}
	demand := map[uuid.UUID]decimal.Decimal{recipeID: decimal.NewFromInt(1)}

	_, err := Aggregate(demand, recipes, map[uuid.UUID]*catalog.Food{})
	assert.ErrorIs(t, err, ErrDanglingIngredient)
}

func TestAggregateSkipsUndemandedRecipes(t *testing.T) {
	foodID := uuid.New()
	recipeID := uuid.New()

	recipes := []*catalog.Recipe{{
		ID:       recipeID,
		Servings: 1,
		Items: []catalog.RecipeItem{
			{ID: uuid.New(), RecipeID: recipeID, FoodID: foodID, Grams: decimal.NewFromInt(50)},
		},
	}}
	foods := map[uuid.UUID]*catalog.Food{foodID: {ID: foodID, Name: "F"}}

	items, err := Aggregate(map[uuid.UUID]decimal.Decimal{}, recipes, foods)
	require.NoError(t, err)
	assert.Empty(t, items)
}
