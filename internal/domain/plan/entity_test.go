package plan

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMealType(t *testing.T) {
	for _, mt := range MealSlots {
		got, err := ParseMealType(string(mt))
		require.NoError(t, err)
		assert.Equal(t, mt, got)
	}

	_, err := ParseMealType("brunch")
	assert.ErrorIs(t, err, ErrUnknownMealType)

	_, err = ParseMealType("Breakfast")
	assert.ErrorIs(t, err, ErrUnknownMealType, "meal types are case sensitive")
}

func TestMealTypeIndex(t *testing.T) {
	assert.Equal(t, 0, MealTypeBreakfast.Index())
	assert.Equal(t, 1, MealTypeLunch.Index())
	assert.Equal(t, 2, MealTypeDinner.Index())
	assert.Equal(t, 3, MealTypeSnack.Index())
	assert.Equal(t, -1, MealType("brunch").Index())
}

func TestNormalizeDate(t *testing.T) {
	est := time.FixedZone("EST", -5*60*60)
	late := time.Date(2025, 3, 10, 23, 30, 0, 0, est) // already 11th in UTC

	got := NormalizeDate(late)
	assert.Equal(t, time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), got)
	assert.Equal(t, "2025-03-11", DateKey(late))
}

func TestIsMonday(t *testing.T) {
	mon := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	assert.True(t, IsMonday(mon))
	assert.False(t, IsMonday(mon.AddDate(0, 0, 1)))
	assert.False(t, IsMonday(mon.AddDate(0, 0, 6)))
}

func TestWithinWeek(t *testing.T) {
	ws := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	assert.True(t, WithinWeek(ws, ws))
	assert.True(t, WithinWeek(ws, ws.AddDate(0, 0, 6)))
	assert.False(t, WithinWeek(ws, ws.AddDate(0, 0, 7)))
	assert.False(t, WithinWeek(ws, ws.AddDate(0, 0, -1)))
}

func buildFullPlan(t *testing.T) *WeeklyPlan {
	t.Helper()
	ws := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	p := NewWeeklyPlan(uuid.New(), ws, GenerationInputs{TargetKcal: 2400})
	recipeID := uuid.New()

	for offset := 0; offset < DaysPerWeek; offset++ {
		day := PlanDay{ID: uuid.New(), PlanID: p.ID, Date: ws.AddDate(0, 0, offset)}
		for _, mt := range MealSlots {
			day.Meals = append(day.Meals, PlanMeal{
				ID:       uuid.New(),
				DayID:    day.ID,
				MealType: mt,
				RecipeID: recipeID,
				Servings: DefaultServings(),
			})
		}
		p.Days = append(p.Days, day)
	}
	return p
}

func TestValidate(t *testing.T) {
	p := buildFullPlan(t)
	require.NoError(t, p.Validate())

	t.Run("missing day", func(t *testing.T) {
		broken := buildFullPlan(t)
		broken.Days = broken.Days[:6]
		assert.ErrorIs(t, broken.Validate(), ErrMalformedPlan)
	})

	t.Run("duplicate day", func(t *testing.T) {
		broken := buildFullPlan(t)
		broken.Days[6].Date = broken.Days[0].Date
		assert.ErrorIs(t, broken.Validate(), ErrMalformedPlan)
	})

	t.Run("day outside window", func(t *testing.T) {
		broken := buildFullPlan(t)
		broken.Days[6].Date = broken.Days[6].Date.AddDate(0, 0, 3)
		assert.ErrorIs(t, broken.Validate(), ErrMalformedPlan)
	})

	t.Run("missing meal", func(t *testing.T) {
		broken := buildFullPlan(t)
		broken.Days[2].Meals = broken.Days[2].Meals[:3]
		assert.ErrorIs(t, broken.Validate(), ErrMalformedPlan)
	})

	t.Run("non-positive servings", func(t *testing.T) {
		broken := buildFullPlan(t)
		broken.Days[3].Meals[1].Servings = decimal.Zero
		assert.ErrorIs(t, broken.Validate(), ErrInvalidServings)
	})
}

func TestLockedSnapshot(t *testing.T) {
	p := buildFullPlan(t)

	pinned := uuid.New()
	p.Days[1].Meals[2].Locked = true
	p.Days[1].Meals[2].RecipeID = pinned
	p.Days[1].Meals[2].Servings = decimal.RequireFromString("2.5")

	snap := p.LockedSnapshot()
	require.Len(t, snap, 1)

	key := SlotKey{Date: DateKey(p.Days[1].Date), MealType: MealTypeDinner}
	got, ok := snap[key]
	require.True(t, ok)
	assert.Equal(t, pinned, got.RecipeID)
	assert.True(t, got.Servings.Equal(decimal.RequireFromString("2.5")))
}

func TestMealAt(t *testing.T) {
	p := buildFullPlan(t)

	day, meal := p.MealAt(p.Days[4].Date, MealTypeLunch)
	require.NotNil(t, day)
	require.NotNil(t, meal)
	assert.Equal(t, MealTypeLunch, meal.MealType)

	day, meal = p.MealAt(p.WeekStart.AddDate(0, 0, 30), MealTypeLunch)
	assert.Nil(t, day)
	assert.Nil(t, meal)
}

func TestMealByID(t *testing.T) {
	p := buildFullPlan(t)

	target := p.Days[5].Meals[0]
	got := p.MealByID(target.ID)
	require.NotNil(t, got)
	assert.Equal(t, target.ID, got.ID)

	assert.Nil(t, p.MealByID(uuid.New()))
}
