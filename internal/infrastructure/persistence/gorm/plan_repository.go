package gorm

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mealsmith/v1/internal/domain/plan"
	"github.com/mealsmith/v1/internal/ports/outbound"
)

// PlanRepository implements the plan repository interface using GORM
type PlanRepository struct {
	db *gorm.DB
}

// NewPlanRepository creates a new plan repository
func NewPlanRepository(db *gorm.DB) outbound.PlanRepository {
	return &PlanRepository{db: db}
}

// LockWeek acquires the transaction-scoped advisory lock for (user, week).
// Postgres releases the lock automatically at commit or rollback. SQLite
// serializes writers on its own, so the call is a no-op there.
func (r *PlanRepository) LockWeek(ctx context.Context, userID uuid.UUID, weekStart time.Time) error {
	if r.db.Dialector.Name() != "postgres" {
		return nil
	}
	k1, k2 := plan.WeekLockKeys(userID, weekStart)
	return r.db.WithContext(ctx).
		Exec("SELECT pg_advisory_xact_lock(?, ?)", int32(k1), int32(k2)).Error
}

// FindByUserWeek loads the plan with days and meals, or nil when absent.
func (r *PlanRepository) FindByUserWeek(ctx context.Context, userID uuid.UUID, weekStart time.Time) (*plan.WeeklyPlan, error) {
	return r.findByUserWeek(ctx, userID, weekStart, false)
}

// FindByUserWeekForUpdate loads the plan holding a row-level write lock.
func (r *PlanRepository) FindByUserWeekForUpdate(ctx context.Context, userID uuid.UUID, weekStart time.Time) (*plan.WeeklyPlan, error) {
	return r.findByUserWeek(ctx, userID, weekStart, true)
}

func (r *PlanRepository) findByUserWeek(ctx context.Context, userID uuid.UUID, weekStart time.Time, forUpdate bool) (*plan.WeeklyPlan, error) {
	var model WeeklyPlanModel

	query := r.db.WithContext(ctx).
		Preload("Days", func(db *gorm.DB) *gorm.DB {
			return db.Order("date ASC")
		}).
		Preload("Days.Meals")
	if forUpdate && r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	result := query.First(&model, "user_id = ? AND week_start = ?", userID, plan.NormalizeDate(weekStart))
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}

	return PlanFromModel(&model), nil
}

// LockedMeals reads the locked slots of a plan straight from the database.
// The snapshot deliberately ignores any in-memory copy of the aggregate so
// locks toggled by a concurrent request still survive a regeneration.
func (r *PlanRepository) LockedMeals(ctx context.Context, planID uuid.UUID) (map[plan.SlotKey]plan.LockedMeal, error) {
	var meals []WeeklyPlanMealModel
	var days []WeeklyPlanDayModel

	if err := r.db.WithContext(ctx).
		Where("plan_id = ?", planID).
		Find(&days).Error; err != nil {
		return nil, err
	}
	if len(days) == 0 {
		return map[plan.SlotKey]plan.LockedMeal{}, nil
	}

	dayIDs := make([]uuid.UUID, 0, len(days))
	dateByDay := make(map[uuid.UUID]time.Time, len(days))
	for _, d := range days {
		dayIDs = append(dayIDs, d.ID)
		dateByDay[d.ID] = d.Date
	}

	if err := r.db.WithContext(ctx).
		Where("day_id IN ? AND locked = ?", dayIDs, true).
		Find(&meals).Error; err != nil {
		return nil, err
	}

	snapshot := make(map[plan.SlotKey]plan.LockedMeal, len(meals))
	for _, m := range meals {
		key := plan.SlotKey{
			Date:     plan.DateKey(dateByDay[m.DayID]),
			MealType: plan.MealType(m.MealType),
		}
		snapshot[key] = plan.LockedMeal{RecipeID: m.RecipeID, Servings: m.Servings}
	}
	return snapshot, nil
}

// Create inserts the plan row without children.
func (r *PlanRepository) Create(ctx context.Context, p *plan.WeeklyPlan) error {
	model := PlanToModel(p)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	p.ID = model.ID
	p.CreatedAt = model.CreatedAt
	p.UpdatedAt = model.UpdatedAt
	return nil
}

// UpdateInputs rewrites the generation input snapshot. A map update is
// used so nil pointers clear their columns instead of being skipped.
func (r *PlanRepository) UpdateInputs(ctx context.Context, p *plan.WeeklyPlan) error {
	return r.db.WithContext(ctx).
		Model(&WeeklyPlanModel{}).
		Where("id = ?", p.ID).
		Updates(map[string]interface{}{
			"target_kcal":            p.Inputs.TargetKcal,
			"protein_g":              p.Inputs.ProteinG,
			"carbs_g":                p.Inputs.CarbsG,
			"fat_g":                  p.Inputs.FatG,
			"training_schedule_json": p.Inputs.TrainingScheduleJSON,
			"preferences_json":       p.Inputs.PreferencesJSON,
		}).Error
}

// ReplaceChildren deletes every meal and day of the plan and inserts the
// replacement set. Must run inside the caller's transaction so readers
// never observe the gap between delete and insert.
func (r *PlanRepository) ReplaceChildren(ctx context.Context, planID uuid.UUID, days []plan.PlanDay) error {
	tx := r.db.WithContext(ctx)

	dayIDs := tx.Model(&WeeklyPlanDayModel{}).
		Select("id").
		Where("plan_id = ?", planID)

	if err := tx.Where("day_id IN (?)", dayIDs).
		Delete(&WeeklyPlanMealModel{}).Error; err != nil {
		return err
	}
	if err := tx.Where("plan_id = ?", planID).
		Delete(&WeeklyPlanDayModel{}).Error; err != nil {
		return err
	}

	for i := range days {
		model := dayToModel(&days[i])
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		days[i].ID = model.ID
		for j := range days[i].Meals {
			days[i].Meals[j].ID = model.Meals[j].ID
			days[i].Meals[j].DayID = model.ID
		}
	}
	return nil
}

// UpdateMeal persists a single meal's recipe, servings and locked flag.
func (r *PlanRepository) UpdateMeal(ctx context.Context, meal *plan.PlanMeal) error {
	result := r.db.WithContext(ctx).
		Model(&WeeklyPlanMealModel{}).
		Where("id = ?", meal.ID).
		Updates(map[string]interface{}{
			"recipe_id": meal.RecipeID,
			"servings":  meal.Servings,
			"locked":    meal.Locked,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return plan.ErrMealNotFound
	}
	return nil
}

// DeleteByUserWeek removes the plan and all of its children.
func (r *PlanRepository) DeleteByUserWeek(ctx context.Context, userID uuid.UUID, weekStart time.Time) error {
	tx := r.db.WithContext(ctx)

	var model WeeklyPlanModel
	result := tx.First(&model, "user_id = ? AND week_start = ?", userID, plan.NormalizeDate(weekStart))
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return plan.ErrPlanNotFound
		}
		return result.Error
	}

	dayIDs := tx.Model(&WeeklyPlanDayModel{}).
		Select("id").
		Where("plan_id = ?", model.ID)
	if err := tx.Where("day_id IN (?)", dayIDs).
		Delete(&WeeklyPlanMealModel{}).Error; err != nil {
		return err
	}
	if err := tx.Where("plan_id = ?", model.ID).
		Delete(&WeeklyPlanDayModel{}).Error; err != nil {
		return err
	}
	return tx.Delete(&WeeklyPlanModel{}, "id = ?", model.ID).Error
}
