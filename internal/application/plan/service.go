// Package plan provides the application layer for weekly meal planning.
// This implements the use cases defined in the inbound ports.
package plan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mealsmith/v1/internal/domain/catalog"
	"github.com/mealsmith/v1/internal/domain/grocery"
	plandomain "github.com/mealsmith/v1/internal/domain/plan"
	"github.com/mealsmith/v1/internal/ports/inbound"
	"github.com/mealsmith/v1/internal/ports/outbound"
	apperrors "github.com/mealsmith/v1/pkg/errors"
)

// planViewTTL bounds staleness of the cached plan view. Every mutation of
// the same (user, week) invalidates the entry eagerly.
const planViewTTL = 5 * time.Minute

// PlanService implements the weekly plan use cases.
type PlanService struct {
	uow    outbound.UnitOfWork
	reads  outbound.Repositories
	cache  outbound.CacheRepository
	logger *zap.Logger
}

// NewPlanService creates a new plan service.
func NewPlanService(
	uow outbound.UnitOfWork,
	reads outbound.Repositories,
	cache outbound.CacheRepository,
	logger *zap.Logger,
) inbound.PlanService {
	return &PlanService{
		uow:    uow,
		reads:  reads,
		cache:  cache,
		logger: logger.Named("plan-service"),
	}
}

type trainingDayJSON struct {
	Date string `json:"date"`
	Name string `json:"name,omitempty"`
}

// GeneratePlan creates or regenerates the weekly plan for (user, week).
//
// The whole read-modify-write runs inside one unit of work holding the
// per-(user, week) advisory lock, so concurrent regenerations cannot
// interleave their delete/insert phases. Locked slots are re-read from
// persisted state and copied forward verbatim; every other slot is
// reassigned deterministically.
func (s *PlanService) GeneratePlan(ctx context.Context, cmd inbound.GeneratePlanCommand) (*inbound.PlanDTO, error) {
	weekStart := plandomain.NormalizeDate(cmd.WeekStart)
	if !plandomain.IsMonday(weekStart) {
		return nil, apperrors.NewInvalidWeekStartError(plandomain.DateKey(weekStart))
	}
	if cmd.TargetKcal <= 0 {
		return nil, apperrors.NewValidationError(plandomain.ErrInvalidTarget.Error())
	}

	inputs, err := snapshotInputs(cmd)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to snapshot generation inputs")
	}

	s.logger.Info("Generating weekly plan",
		zap.String("user_id", cmd.UserID.String()),
		zap.String("week_start", plandomain.DateKey(weekStart)),
		zap.Int("target_kcal", cmd.TargetKcal),
	)

	var result *plandomain.WeeklyPlan
	err = s.uow.Do(ctx, func(r outbound.Repositories) error {
		if err := r.Plans.LockWeek(ctx, cmd.UserID, weekStart); err != nil {
			return apperrors.NewDatabaseError("acquire week lock", err)
		}

		recipes, err := r.Catalog.ListByUser(ctx, cmd.UserID)
		if err != nil {
			return apperrors.NewDatabaseError("list recipes", err)
		}
		if len(recipes) == 0 {
			return apperrors.NewNoRecipesError()
		}
		candidates := make([]uuid.UUID, len(recipes))
		for i, rec := range recipes {
			candidates[i] = rec.ID
		}

		seed := plandomain.Seed(cmd.UserID, weekStart, cmd.TargetKcal)

		existing, err := r.Plans.FindByUserWeekForUpdate(ctx, cmd.UserID, weekStart)
		if err != nil {
			return apperrors.NewDatabaseError("load plan", err)
		}

		locked := map[plandomain.SlotKey]plandomain.LockedMeal{}
		var p *plandomain.WeeklyPlan
		if existing == nil {
			p = plandomain.NewWeeklyPlan(cmd.UserID, weekStart, inputs)
			if err := r.Plans.Create(ctx, p); err != nil {
				return apperrors.NewDatabaseError("create plan", err)
			}
		} else {
			p = existing
			// Snapshot locked slots from persisted state, not the loaded
			// aggregate: out-of-band edits may have landed since.
			locked, err = r.Plans.LockedMeals(ctx, p.ID)
			if err != nil {
				return apperrors.NewDatabaseError("snapshot locked meals", err)
			}
			p.Inputs = inputs
			if err := r.Plans.UpdateInputs(ctx, p); err != nil {
				return apperrors.NewDatabaseError("update plan inputs", err)
			}
		}

		days := make([]plandomain.PlanDay, 0, plandomain.DaysPerWeek)
		for offset := 0; offset < plandomain.DaysPerWeek; offset++ {
			date := weekStart.AddDate(0, 0, offset)
			day := plandomain.PlanDay{ID: uuid.New(), PlanID: p.ID, Date: date}
			for mealIdx, mealType := range plandomain.MealSlots {
				meal := plandomain.PlanMeal{
					ID:       uuid.New(),
					DayID:    day.ID,
					MealType: mealType,
				}
				if lm, ok := locked[plandomain.SlotKey{Date: plandomain.DateKey(date), MealType: mealType}]; ok {
					meal.RecipeID = lm.RecipeID
					meal.Servings = lm.Servings
					meal.Locked = true
				} else {
					recipeID, err := plandomain.AssignSlot(seed, offset, mealIdx, candidates)
					if err != nil {
						return apperrors.Wrap(err, "slot assignment failed")
					}
					meal.RecipeID = recipeID
					meal.Servings = plandomain.DefaultServings()
					meal.Locked = false
				}
				day.Meals = append(day.Meals, meal)
			}
			days = append(days, day)
		}

		if err := r.Plans.ReplaceChildren(ctx, p.ID, days); err != nil {
			return apperrors.NewDatabaseError("replace plan children", err)
		}
		p.Days = days

		if err := p.Validate(); err != nil {
			return apperrors.Wrap(err, "generated plan violates invariants")
		}

		result = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidatePlanView(ctx, cmd.UserID, weekStart)

	s.logger.Info("Weekly plan generated",
		zap.String("plan_id", result.ID.String()),
		zap.String("week_start", plandomain.DateKey(weekStart)),
	)

	return toPlanDTO(result), nil
}

// SwapMeal substitutes the recipe on one (date, meal-type) slot. The slot
// is pinned by default; servings and every other slot are untouched.
func (s *PlanService) SwapMeal(ctx context.Context, cmd inbound.SwapMealCommand) (*inbound.PlanDTO, error) {
	weekStart := plandomain.NormalizeDate(cmd.WeekStart)
	date := plandomain.NormalizeDate(cmd.Date)

	if !plandomain.WithinWeek(weekStart, date) {
		return nil, apperrors.NewValidationError(plandomain.ErrOutOfWeekRange.Error())
	}
	mealType, err := plandomain.ParseMealType(cmd.MealType)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	lock := true
	if cmd.Lock != nil {
		lock = *cmd.Lock
	}

	var result *plandomain.WeeklyPlan
	err = s.uow.Do(ctx, func(r outbound.Repositories) error {
		if err := r.Plans.LockWeek(ctx, cmd.UserID, weekStart); err != nil {
			return apperrors.NewDatabaseError("acquire week lock", err)
		}

		recipe, err := r.Catalog.FindByIDForUser(ctx, cmd.UserID, cmd.NewRecipeID)
		if err != nil {
			if errors.Is(err, catalog.ErrRecipeNotFound) {
				return apperrors.NewRecipeNotFoundError(cmd.NewRecipeID.String())
			}
			return apperrors.NewDatabaseError("resolve recipe", err)
		}

		p, err := r.Plans.FindByUserWeekForUpdate(ctx, cmd.UserID, weekStart)
		if err != nil {
			return apperrors.NewDatabaseError("load plan", err)
		}
		if p == nil {
			return apperrors.NewPlanNotFoundError(plandomain.DateKey(weekStart))
		}

		day, meal := p.MealAt(date, mealType)
		if day == nil {
			return apperrors.NewNotFoundError("weekly plan day")
		}
		if meal == nil {
			return apperrors.NewMealSlotNotFoundError(plandomain.DateKey(date), string(mealType))
		}

		meal.RecipeID = recipe.ID
		meal.Locked = lock
		if err := r.Plans.UpdateMeal(ctx, meal); err != nil {
			return apperrors.NewDatabaseError("update meal", err)
		}

		result = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidatePlanView(ctx, cmd.UserID, weekStart)

	s.logger.Info("Meal swapped",
		zap.String("plan_id", result.ID.String()),
		zap.String("date", plandomain.DateKey(date)),
		zap.String("meal_type", string(mealType)),
		zap.Bool("locked", lock),
	)

	return toPlanDTO(result), nil
}

// SetMealLock toggles the locked flag of one meal by id.
func (s *PlanService) SetMealLock(ctx context.Context, userID uuid.UUID, weekStart time.Time, mealID uuid.UUID, locked bool) (*inbound.PlanDTO, error) {
	ws := plandomain.NormalizeDate(weekStart)

	var result *plandomain.WeeklyPlan
	err := s.uow.Do(ctx, func(r outbound.Repositories) error {
		if err := r.Plans.LockWeek(ctx, userID, ws); err != nil {
			return apperrors.NewDatabaseError("acquire week lock", err)
		}

		p, err := r.Plans.FindByUserWeekForUpdate(ctx, userID, ws)
		if err != nil {
			return apperrors.NewDatabaseError("load plan", err)
		}
		if p == nil {
			return apperrors.NewPlanNotFoundError(plandomain.DateKey(ws))
		}

		meal := p.MealByID(mealID)
		if meal == nil {
			return apperrors.NewNotFoundError("weekly plan meal")
		}

		meal.Locked = locked
		if err := r.Plans.UpdateMeal(ctx, meal); err != nil {
			return apperrors.NewDatabaseError("update meal", err)
		}

		result = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidatePlanView(ctx, userID, ws)
	return toPlanDTO(result), nil
}

// GetPlan returns the committed plan for (user, week). Reads do not take
// the advisory lock; they may observe either side of a concurrent
// regeneration depending on commit timing.
func (s *PlanService) GetPlan(ctx context.Context, userID uuid.UUID, weekStart time.Time) (*inbound.PlanDTO, error) {
	ws := plandomain.NormalizeDate(weekStart)

	if cached, err := s.cache.Get(ctx, planViewKey(userID, ws)); err == nil && cached != nil {
		var dto inbound.PlanDTO
		if err := json.Unmarshal(cached, &dto); err == nil {
			return &dto, nil
		}
	}

	p, err := s.reads.Plans.FindByUserWeek(ctx, userID, ws)
	if err != nil {
		return nil, apperrors.NewDatabaseError("load plan", err)
	}
	if p == nil {
		return nil, apperrors.NewPlanNotFoundError(plandomain.DateKey(ws))
	}

	dto := toPlanDTO(p)
	if raw, err := json.Marshal(dto); err == nil {
		if err := s.cache.Set(ctx, planViewKey(userID, ws), raw, planViewTTL); err != nil {
			s.logger.Warn("Failed to cache plan view", zap.Error(err))
		}
	}
	return dto, nil
}

// DeletePlan removes the plan and its children. The checked-state overlay
// is independently owned and survives.
func (s *PlanService) DeletePlan(ctx context.Context, userID uuid.UUID, weekStart time.Time) error {
	ws := plandomain.NormalizeDate(weekStart)

	err := s.uow.Do(ctx, func(r outbound.Repositories) error {
		if err := r.Plans.LockWeek(ctx, userID, ws); err != nil {
			return apperrors.NewDatabaseError("acquire week lock", err)
		}
		p, err := r.Plans.FindByUserWeekForUpdate(ctx, userID, ws)
		if err != nil {
			return apperrors.NewDatabaseError("load plan", err)
		}
		if p == nil {
			return apperrors.NewPlanNotFoundError(plandomain.DateKey(ws))
		}
		if err := r.Plans.DeleteByUserWeek(ctx, userID, ws); err != nil {
			return apperrors.NewDatabaseError("delete plan", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidatePlanView(ctx, userID, ws)
	return nil
}

// GetGroceryList aggregates the committed plan into a consolidated
// shopping list and merges in the persisted checked overlay.
func (s *PlanService) GetGroceryList(ctx context.Context, userID uuid.UUID, weekStart time.Time) (*inbound.GroceryListDTO, error) {
	ws := plandomain.NormalizeDate(weekStart)

	p, err := s.reads.Plans.FindByUserWeek(ctx, userID, ws)
	if err != nil {
		return nil, apperrors.NewDatabaseError("load plan", err)
	}
	if p == nil {
		return nil, apperrors.NewPlanNotFoundError(plandomain.DateKey(ws))
	}

	demand := grocery.ServingsDemand(p)
	recipeIDs := make([]uuid.UUID, 0, len(demand))
	for id := range demand {
		recipeIDs = append(recipeIDs, id)
	}

	recipes, err := s.reads.Catalog.ListWithItems(ctx, userID, recipeIDs)
	if err != nil {
		return nil, apperrors.NewDatabaseError("load recipes", err)
	}

	foods := make(map[uuid.UUID]*catalog.Food)
	for _, rec := range recipes {
		for _, item := range rec.Items {
			if _, ok := foods[item.FoodID]; ok {
				continue
			}
			food, err := s.reads.Catalog.ResolveFood(ctx, userID, item.FoodID)
			if err != nil {
				if errors.Is(err, catalog.ErrFoodNotFound) {
					return nil, apperrors.NewDanglingIngredientError(item.FoodID.String())
				}
				return nil, apperrors.NewDatabaseError("resolve food", err)
			}
			foods[item.FoodID] = food
		}
	}

	items, err := grocery.Aggregate(demand, recipes, foods)
	if err != nil {
		return nil, apperrors.Wrap(err, "grocery aggregation failed")
	}

	checked, err := s.reads.Checks.GetMap(ctx, userID, ws)
	if err != nil {
		return nil, apperrors.NewDatabaseError("load grocery checks", err)
	}

	dto := &inbound.GroceryListDTO{
		WeekStart: plandomain.DateKey(ws),
		Items:     make([]inbound.GroceryItemDTO, 0, len(items)),
	}
	for _, item := range items {
		perRecipe := make([]inbound.GroceryContributionDTO, 0, len(item.PerRecipe))
		for _, c := range item.PerRecipe {
			perRecipe = append(perRecipe, inbound.GroceryContributionDTO{
				RecipeID:   c.RecipeID,
				RecipeName: c.RecipeName,
				Servings:   c.Servings,
				Grams:      c.Grams,
			})
		}
		dto.Items = append(dto.Items, inbound.GroceryItemDTO{
			ItemKey:    item.ItemKey,
			FoodID:     item.FoodID,
			FoodName:   item.FoodName,
			TotalGrams: item.TotalGrams,
			Checked:    checked[item.ItemKey],
			PerRecipe:  perRecipe,
		})
	}
	return dto, nil
}

// SetGroceryChecks bulk-upserts checked flags by stable item key. The
// overlay does not take the plan's critical section; it is independently
// owned.
func (s *PlanService) SetGroceryChecks(ctx context.Context, userID uuid.UUID, weekStart time.Time, checks []inbound.GroceryCheckUpdate) error {
	ws := plandomain.NormalizeDate(weekStart)

	p, err := s.reads.Plans.FindByUserWeek(ctx, userID, ws)
	if err != nil {
		return apperrors.NewDatabaseError("load plan", err)
	}
	if p == nil {
		return apperrors.NewPlanNotFoundError(plandomain.DateKey(ws))
	}

	rows := make([]outbound.GroceryCheck, 0, len(checks))
	for _, c := range checks {
		rows = append(rows, outbound.GroceryCheck{ItemKey: c.ItemKey, Checked: c.Checked})
	}
	if err := s.reads.Checks.BulkUpsert(ctx, userID, ws, rows); err != nil {
		return apperrors.NewDatabaseError("upsert grocery checks", err)
	}
	return nil
}

// Helper methods

func snapshotInputs(cmd inbound.GeneratePlanCommand) (plandomain.GenerationInputs, error) {
	inputs := plandomain.GenerationInputs{TargetKcal: cmd.TargetKcal}
	if cmd.MacroGrams != nil {
		inputs.ProteinG = cmd.MacroGrams.ProteinG
		inputs.CarbsG = cmd.MacroGrams.CarbsG
		inputs.FatG = cmd.MacroGrams.FatG
	}
	if len(cmd.TrainingSchedule) > 0 {
		days := make([]trainingDayJSON, 0, len(cmd.TrainingSchedule))
		for _, td := range cmd.TrainingSchedule {
			days = append(days, trainingDayJSON{Date: plandomain.DateKey(td.Date), Name: td.Name})
		}
		raw, err := json.Marshal(days)
		if err != nil {
			return inputs, err
		}
		s := string(raw)
		inputs.TrainingScheduleJSON = &s
	}
	if cmd.Preferences != nil {
		raw, err := json.Marshal(cmd.Preferences)
		if err != nil {
			return inputs, err
		}
		s := string(raw)
		inputs.PreferencesJSON = &s
	}
	return inputs, nil
}

func planViewKey(userID uuid.UUID, weekStart time.Time) string {
	return fmt.Sprintf("plan:%s:%s", userID, plandomain.DateKey(weekStart))
}

func (s *PlanService) invalidatePlanView(ctx context.Context, userID uuid.UUID, weekStart time.Time) {
	if err := s.cache.Delete(ctx, planViewKey(userID, weekStart)); err != nil {
		s.logger.Warn("Failed to invalidate plan view cache", zap.Error(err))
	}
}

func toPlanDTO(p *plandomain.WeeklyPlan) *inbound.PlanDTO {
	dto := &inbound.PlanDTO{
		ID:         p.ID,
		WeekStart:  plandomain.DateKey(p.WeekStart),
		TargetKcal: p.Inputs.TargetKcal,
		ProteinG:   p.Inputs.ProteinG,
		CarbsG:     p.Inputs.CarbsG,
		FatG:       p.Inputs.FatG,
		Days:       make([]inbound.PlanDayDTO, 0, len(p.Days)),
	}

	days := make([]plandomain.PlanDay, len(p.Days))
	copy(days, p.Days)
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })

	for _, day := range days {
		meals := make([]plandomain.PlanMeal, len(day.Meals))
		copy(meals, day.Meals)
		sort.Slice(meals, func(i, j int) bool {
			return meals[i].MealType.Index() < meals[j].MealType.Index()
		})

		dayDTO := inbound.PlanDayDTO{
			ID:    day.ID,
			Date:  plandomain.DateKey(day.Date),
			Meals: make([]inbound.PlanMealDTO, 0, len(meals)),
		}
		for _, meal := range meals {
			dayDTO.Meals = append(dayDTO.Meals, inbound.PlanMealDTO{
				ID:       meal.ID,
				MealType: string(meal.MealType),
				RecipeID: meal.RecipeID,
				Servings: meal.Servings,
				Locked:   meal.Locked,
			})
		}
		dto.Days = append(dto.Days, dayDTO)
	}
	return dto
}
