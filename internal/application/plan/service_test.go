package plan

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	plandomain "github.com/mealsmith/v1/internal/domain/plan"
	gormRepo "github.com/mealsmith/v1/internal/infrastructure/persistence/gorm"
	"github.com/mealsmith/v1/internal/infrastructure/persistence/memory"
	"github.com/mealsmith/v1/internal/ports/inbound"
	apperrors "github.com/mealsmith/v1/pkg/errors"
	"github.com/mealsmith/v1/test/testutils"
)

// PlanServiceTestSuite exercises the plan use cases on a real database
type PlanServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	factory *testutils.CatalogFactory
	service inbound.PlanService
	userID  uuid.UUID
	week    time.Time
	ctx     context.Context
}

func TestPlanServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PlanServiceTestSuite))
}

// SetupTest gives every test a fresh database and catalog
func (s *PlanServiceTestSuite) SetupTest() {
	s.db = testutils.SetupTestDatabase(s.T())
	s.factory = testutils.NewCatalogFactory(s.T(), s.db)
	s.service = NewPlanService(
		gormRepo.NewUnitOfWork(s.db),
		gormRepo.NewRepositories(s.db),
		memory.NewCacheRepository(time.Minute),
		zap.NewNop(),
	)
	s.userID = s.factory.CreateUser()
	s.week = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC) // a Monday
	s.ctx = context.Background()
}

func (s *PlanServiceTestSuite) generate(kcal int) *inbound.PlanDTO {
	dto, err := s.service.GeneratePlan(s.ctx, inbound.GeneratePlanCommand{
		UserID:     s.userID,
		WeekStart:  s.week,
		TargetKcal: kcal,
	})
	s.Require().NoError(err)
	return dto
}

func (s *PlanServiceTestSuite) mealAt(dto *inbound.PlanDTO, date, mealType string) *inbound.PlanMealDTO {
	for i := range dto.Days {
		if dto.Days[i].Date != date {
			continue
		}
		for j := range dto.Days[i].Meals {
			if dto.Days[i].Meals[j].MealType == mealType {
				return &dto.Days[i].Meals[j]
			}
		}
	}
	return nil
}

func (s *PlanServiceTestSuite) assertCode(err error, code apperrors.ErrorCode) {
	s.Require().Error(err)
	s.Equal(code, apperrors.GetCode(err))
}

func (s *PlanServiceTestSuite) TestGenerateCreatesFullWeek() {
	s.factory.CreateSimpleRecipes(s.userID, 3)

	dto := s.generate(2400)

	s.Equal("2025-03-10", dto.WeekStart)
	s.Equal(2400, dto.TargetKcal)
	s.Require().Len(dto.Days, 7)
	for i, day := range dto.Days {
		s.Equal(s.week.AddDate(0, 0, i).Format(plandomain.DateLayout), day.Date)
		s.Require().Len(day.Meals, 4)
		s.Equal("breakfast", day.Meals[0].MealType)
		s.Equal("lunch", day.Meals[1].MealType)
		s.Equal("dinner", day.Meals[2].MealType)
		s.Equal("snack", day.Meals[3].MealType)
		for _, meal := range day.Meals {
			s.True(meal.Servings.Equal(decimal.NewFromInt(1)))
			s.False(meal.Locked)
		}
	}
}

func (s *PlanServiceTestSuite) TestGenerateIsDeterministic() {
	s.factory.CreateSimpleRecipes(s.userID, 5)

	first := s.generate(2400)
	second := s.generate(2400)

	s.Equal(first.ID, second.ID, "regeneration keeps the plan identity")
	for i := range first.Days {
		for j := range first.Days[i].Meals {
			s.Equal(
				first.Days[i].Meals[j].RecipeID,
				second.Days[i].Meals[j].RecipeID,
				"slot %s/%s must get the same recipe", first.Days[i].Date, first.Days[i].Meals[j].MealType,
			)
		}
	}
}

func (s *PlanServiceTestSuite) TestGenerateRejectsNonMonday() {
	s.factory.CreateSimpleRecipes(s.userID, 1)

	_, err := s.service.GeneratePlan(s.ctx, inbound.GeneratePlanCommand{
		UserID:     s.userID,
		WeekStart:  s.week.AddDate(0, 0, 1),
		TargetKcal: 2400,
	})
	s.assertCode(err, apperrors.CodeInvalidWeekStart)
}

func (s *PlanServiceTestSuite) TestGenerateRejectsNonPositiveTarget() {
	s.factory.CreateSimpleRecipes(s.userID, 1)

	_, err := s.service.GeneratePlan(s.ctx, inbound.GeneratePlanCommand{
		UserID:     s.userID,
		WeekStart:  s.week,
		TargetKcal: 0,
	})
	s.assertCode(err, apperrors.CodeValidationFailed)
}

func (s *PlanServiceTestSuite) TestGenerateWithEmptyCatalog() {
	_, err := s.service.GeneratePlan(s.ctx, inbound.GeneratePlanCommand{
		UserID:     s.userID,
		WeekStart:  s.week,
		TargetKcal: 2400,
	})
	s.assertCode(err, apperrors.CodeNoRecipes)

	// Nothing must be left behind by the rolled-back generation
	var count int64
	s.db.Model(&gormRepo.WeeklyPlanModel{}).Count(&count)
	s.Zero(count)
}

func (s *PlanServiceTestSuite) TestGenerateSnapshotsInputs() {
	s.factory.CreateSimpleRecipes(s.userID, 2)
	protein := 180

	dto, err := s.service.GeneratePlan(s.ctx, inbound.GeneratePlanCommand{
		UserID:     s.userID,
		WeekStart:  s.week,
		TargetKcal: 2800,
		MacroGrams: &inbound.MacroGramsCommand{ProteinG: &protein},
		TrainingSchedule: []inbound.TrainingDayCommand{
			{Date: s.week.AddDate(0, 0, 2), Name: "intervals"},
		},
		Preferences: map[string]any{"cuisine": "thai"},
	})
	s.Require().NoError(err)
	s.Require().NotNil(dto.ProteinG)
	s.Equal(180, *dto.ProteinG)

	var model gormRepo.WeeklyPlanModel
	s.Require().NoError(s.db.First(&model, "id = ?", dto.ID).Error)
	s.Require().NotNil(model.TrainingScheduleJSON)
	s.Contains(*model.TrainingScheduleJSON, "2025-03-12")
	s.Require().NotNil(model.PreferencesJSON)
	s.Contains(*model.PreferencesJSON, "thai")
}

func (s *PlanServiceTestSuite) TestSwapPinsSlotAcrossRegeneration() {
	recipes := s.factory.CreateSimpleRecipes(s.userID, 4)
	s.generate(2400)

	target := recipes[3]
	dto, err := s.service.SwapMeal(s.ctx, inbound.SwapMealCommand{
		UserID:      s.userID,
		WeekStart:   s.week,
		Date:        s.week.AddDate(0, 0, 2),
		MealType:    "dinner",
		NewRecipeID: target,
	})
	s.Require().NoError(err)

	meal := s.mealAt(dto, "2025-03-12", "dinner")
	s.Require().NotNil(meal)
	s.Equal(target, meal.RecipeID)
	s.True(meal.Locked, "swap pins the slot by default")

	// Regenerate with a different calorie target: every unlocked slot may
	// move, the pinned one must not.
	regen := s.generate(3000)
	meal = s.mealAt(regen, "2025-03-12", "dinner")
	s.Require().NotNil(meal)
	s.Equal(target, meal.RecipeID)
	s.True(meal.Locked)
}

func (s *PlanServiceTestSuite) TestSwapPinsMondayBreakfast() {
	recipes := s.factory.CreateSimpleRecipes(s.userID, 3)
	s.generate(2200)

	target := recipes[2]
	dto, err := s.service.SwapMeal(s.ctx, inbound.SwapMealCommand{
		UserID:      s.userID,
		WeekStart:   s.week,
		Date:        s.week,
		MealType:    "breakfast",
		NewRecipeID: target,
	})
	s.Require().NoError(err)

	meal := s.mealAt(dto, "2025-03-10", "breakfast")
	s.Require().NotNil(meal)
	s.Equal(target, meal.RecipeID)
	s.True(meal.Locked)

	regen := s.generate(2600)
	meal = s.mealAt(regen, "2025-03-10", "breakfast")
	s.Require().NotNil(meal)
	s.Equal(target, meal.RecipeID)
	s.True(meal.Locked)
}

func (s *PlanServiceTestSuite) TestSwapWithoutPin() {
	recipes := s.factory.CreateSimpleRecipes(s.userID, 3)
	s.generate(2400)

	noLock := false
	dto, err := s.service.SwapMeal(s.ctx, inbound.SwapMealCommand{
		UserID:      s.userID,
		WeekStart:   s.week,
		Date:        s.week,
		MealType:    "lunch",
		NewRecipeID: recipes[0],
		Lock:        &noLock,
	})
	s.Require().NoError(err)

	meal := s.mealAt(dto, "2025-03-10", "lunch")
	s.Require().NotNil(meal)
	s.Equal(recipes[0], meal.RecipeID)
	s.False(meal.Locked)
}

func (s *PlanServiceTestSuite) TestSwapRejectsDateOutsideWeek() {
	recipes := s.factory.CreateSimpleRecipes(s.userID, 2)
	s.generate(2400)

	_, err := s.service.SwapMeal(s.ctx, inbound.SwapMealCommand{
		UserID:      s.userID,
		WeekStart:   s.week,
		Date:        s.week.AddDate(0, 0, 7),
		MealType:    "lunch",
		NewRecipeID: recipes[0],
	})
	s.assertCode(err, apperrors.CodeValidationFailed)
}

func (s *PlanServiceTestSuite) TestSwapRejectsUnknownMealType() {
	recipes := s.factory.CreateSimpleRecipes(s.userID, 2)
	s.generate(2400)

	_, err := s.service.SwapMeal(s.ctx, inbound.SwapMealCommand{
		UserID:      s.userID,
		WeekStart:   s.week,
		Date:        s.week,
		MealType:    "brunch",
		NewRecipeID: recipes[0],
	})
	s.assertCode(err, apperrors.CodeValidationFailed)
}

func (s *PlanServiceTestSuite) TestSwapHidesForeignRecipes() {
	s.factory.CreateSimpleRecipes(s.userID, 2)
	s.generate(2400)

	other := s.factory.CreateUser()
	foreign := s.factory.CreateSimpleRecipes(other, 1)[0]

	_, err := s.service.SwapMeal(s.ctx, inbound.SwapMealCommand{
		UserID:      s.userID,
		WeekStart:   s.week,
		Date:        s.week,
		MealType:    "dinner",
		NewRecipeID: foreign,
	})
	s.assertCode(err, apperrors.CodeRecipeNotFound)
}

func (s *PlanServiceTestSuite) TestSwapWithoutPlan() {
	recipes := s.factory.CreateSimpleRecipes(s.userID, 1)

	_, err := s.service.SwapMeal(s.ctx, inbound.SwapMealCommand{
		UserID:      s.userID,
		WeekStart:   s.week,
		Date:        s.week,
		MealType:    "dinner",
		NewRecipeID: recipes[0],
	})
	s.assertCode(err, apperrors.CodePlanNotFound)
}

func (s *PlanServiceTestSuite) TestSetMealLock() {
	s.factory.CreateSimpleRecipes(s.userID, 3)
	dto := s.generate(2400)

	meal := s.mealAt(dto, "2025-03-11", "breakfast")
	s.Require().NotNil(meal)

	locked, err := s.service.SetMealLock(s.ctx, s.userID, s.week, meal.ID, true)
	s.Require().NoError(err)
	got := s.mealAt(locked, "2025-03-11", "breakfast")
	s.Require().NotNil(got)
	s.True(got.Locked)

	// Locked slot survives regeneration with its current recipe
	regen := s.generate(2400)
	got = s.mealAt(regen, "2025-03-11", "breakfast")
	s.Require().NotNil(got)
	s.True(got.Locked)
	s.Equal(meal.RecipeID, got.RecipeID)

	// And can be unpinned again
	unlocked, err := s.service.SetMealLock(s.ctx, s.userID, s.week, got.ID, false)
	s.Require().NoError(err)
	got = s.mealAt(unlocked, "2025-03-11", "breakfast")
	s.Require().NotNil(got)
	s.False(got.Locked)
}

func (s *PlanServiceTestSuite) TestSetMealLockUnknownMeal() {
	s.factory.CreateSimpleRecipes(s.userID, 1)
	s.generate(2400)

	_, err := s.service.SetMealLock(s.ctx, s.userID, s.week, uuid.New(), true)
	s.assertCode(err, apperrors.CodeNotFound)
}

func (s *PlanServiceTestSuite) TestGetPlan() {
	s.factory.CreateSimpleRecipes(s.userID, 2)
	generated := s.generate(2400)

	dto, err := s.service.GetPlan(s.ctx, s.userID, s.week)
	s.Require().NoError(err)
	s.Equal(generated.ID, dto.ID)
	s.Len(dto.Days, 7)

	// Second read is served from cache and must agree
	again, err := s.service.GetPlan(s.ctx, s.userID, s.week)
	s.Require().NoError(err)
	s.Equal(dto.ID, again.ID)
}

func (s *PlanServiceTestSuite) TestGetPlanNotFound() {
	_, err := s.service.GetPlan(s.ctx, s.userID, s.week)
	s.assertCode(err, apperrors.CodePlanNotFound)
}

func (s *PlanServiceTestSuite) TestPlansAreScopedPerUser() {
	s.factory.CreateSimpleRecipes(s.userID, 2)
	s.generate(2400)

	other := s.factory.CreateUser()
	_, err := s.service.GetPlan(s.ctx, other, s.week)
	s.assertCode(err, apperrors.CodePlanNotFound)
}

func (s *PlanServiceTestSuite) TestDeletePlan() {
	s.factory.CreateSimpleRecipes(s.userID, 2)
	s.generate(2400)

	s.Require().NoError(s.service.DeletePlan(s.ctx, s.userID, s.week))

	_, err := s.service.GetPlan(s.ctx, s.userID, s.week)
	s.assertCode(err, apperrors.CodePlanNotFound)

	var days, meals int64
	s.db.Model(&gormRepo.WeeklyPlanDayModel{}).Count(&days)
	s.db.Model(&gormRepo.WeeklyPlanMealModel{}).Count(&meals)
	s.Zero(days)
	s.Zero(meals)

	err = s.service.DeletePlan(s.ctx, s.userID, s.week)
	s.assertCode(err, apperrors.CodePlanNotFound)
}

func (s *PlanServiceTestSuite) TestGroceryListAggregation() {
	beans := s.factory.CreateFood("Beans")
	rice := s.factory.CreateFood("Rice")
	s.factory.CreateRecipe(s.userID, testutils.RecipeSpec{
		Name:     "Beans and Rice",
		Servings: 2,
		Items: map[uuid.UUID]decimal.Decimal{
			beans: decimal.NewFromInt(200),
			rice:  decimal.NewFromInt(150),
		},
	})
	s.generate(2400)

	list, err := s.service.GetGroceryList(s.ctx, s.userID, s.week)
	s.Require().NoError(err)
	s.Equal("2025-03-10", list.WeekStart)
	s.Require().Len(list.Items, 2)

	// Single recipe across all 28 slots at 1 serving each: factor 14
	totals := map[string]string{}
	for _, item := range list.Items {
		totals[item.FoodName] = item.TotalGrams.String()
		s.False(item.Checked)
		s.Require().Len(item.PerRecipe, 1)
		s.Equal("Beans and Rice", item.PerRecipe[0].RecipeName)
	}
	s.Equal("2800", totals["Beans"])
	s.Equal("2100", totals["Rice"])
}

func (s *PlanServiceTestSuite) TestGroceryChecksSurviveRegeneration() {
	s.factory.CreateSimpleRecipes(s.userID, 2)
	s.generate(2400)

	list, err := s.service.GetGroceryList(s.ctx, s.userID, s.week)
	s.Require().NoError(err)
	s.Require().NotEmpty(list.Items)
	key := list.Items[0].ItemKey

	err = s.service.SetGroceryChecks(s.ctx, s.userID, s.week, []inbound.GroceryCheckUpdate{
		{ItemKey: key, Checked: true},
	})
	s.Require().NoError(err)

	// Regenerate and re-read: the checked flag keys on the food identity,
	// not on any plan row, so it must still be set.
	s.generate(2600)
	list, err = s.service.GetGroceryList(s.ctx, s.userID, s.week)
	s.Require().NoError(err)
	for _, item := range list.Items {
		if item.ItemKey == key {
			s.True(item.Checked)
			return
		}
	}
	s.Fail("checked item missing from regenerated list", "key %s", key)
}

func (s *PlanServiceTestSuite) TestSetGroceryChecksIsIdempotent() {
	s.factory.CreateSimpleRecipes(s.userID, 1)
	s.generate(2400)

	list, err := s.service.GetGroceryList(s.ctx, s.userID, s.week)
	s.Require().NoError(err)
	key := list.Items[0].ItemKey

	update := []inbound.GroceryCheckUpdate{{ItemKey: key, Checked: true}}
	s.Require().NoError(s.service.SetGroceryChecks(s.ctx, s.userID, s.week, update))
	s.Require().NoError(s.service.SetGroceryChecks(s.ctx, s.userID, s.week, update))

	var count int64
	s.db.Model(&gormRepo.GroceryCheckModel{}).
		Where("user_id = ? AND item_key = ?", s.userID, key).
		Count(&count)
	s.Equal(int64(1), count)
}

func (s *PlanServiceTestSuite) TestSetGroceryChecksWithoutPlan() {
	err := s.service.SetGroceryChecks(s.ctx, s.userID, s.week, []inbound.GroceryCheckUpdate{
		{ItemKey: "food_id:" + uuid.NewString(), Checked: true},
	})
	s.assertCode(err, apperrors.CodePlanNotFound)
}

func (s *PlanServiceTestSuite) TestGroceryChecksSurviveDelete() {
	s.factory.CreateSimpleRecipes(s.userID, 1)
	s.generate(2400)

	list, err := s.service.GetGroceryList(s.ctx, s.userID, s.week)
	s.Require().NoError(err)
	key := list.Items[0].ItemKey
	s.Require().NoError(s.service.SetGroceryChecks(s.ctx, s.userID, s.week, []inbound.GroceryCheckUpdate{
		{ItemKey: key, Checked: true},
	}))

	s.Require().NoError(s.service.DeletePlan(s.ctx, s.userID, s.week))

	var count int64
	s.db.Model(&gormRepo.GroceryCheckModel{}).
		Where("user_id = ? AND item_key = ? AND checked = ?", s.userID, key, true).
		Count(&count)
	s.Equal(int64(1), count)

	// A fresh plan for the same week picks the overlay back up
	s.generate(2400)
	list, err = s.service.GetGroceryList(s.ctx, s.userID, s.week)
	s.Require().NoError(err)
	for _, item := range list.Items {
		if item.ItemKey == key {
			s.True(item.Checked)
			return
		}
	}
	s.Fail("checked item missing after plan recreation")
}
