package gorm

import (
	"github.com/mealsmith/v1/internal/domain/catalog"
	"github.com/mealsmith/v1/internal/domain/plan"
)

// PlanToModel converts a domain plan to a GORM model without children.
// Children are managed explicitly through ReplaceChildren.
func PlanToModel(p *plan.WeeklyPlan) *WeeklyPlanModel {
	return &WeeklyPlanModel{
		ID:                   p.ID,
		UserID:               p.UserID,
		WeekStart:            plan.NormalizeDate(p.WeekStart),
		TargetKcal:           p.Inputs.TargetKcal,
		ProteinG:             p.Inputs.ProteinG,
		CarbsG:               p.Inputs.CarbsG,
		FatG:                 p.Inputs.FatG,
		TrainingScheduleJSON: p.Inputs.TrainingScheduleJSON,
		PreferencesJSON:      p.Inputs.PreferencesJSON,
	}
}

// PlanFromModel converts a GORM model with preloaded days and meals back
// into the domain aggregate.
func PlanFromModel(m *WeeklyPlanModel) *plan.WeeklyPlan {
	p := &plan.WeeklyPlan{
		ID:        m.ID,
		UserID:    m.UserID,
		WeekStart: plan.NormalizeDate(m.WeekStart),
		Inputs: plan.GenerationInputs{
			TargetKcal:           m.TargetKcal,
			ProteinG:             m.ProteinG,
			CarbsG:               m.CarbsG,
			FatG:                 m.FatG,
			TrainingScheduleJSON: m.TrainingScheduleJSON,
			PreferencesJSON:      m.PreferencesJSON,
		},
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	p.Days = make([]plan.PlanDay, 0, len(m.Days))
	for _, dm := range m.Days {
		p.Days = append(p.Days, dayFromModel(&dm))
	}
	return p
}

func dayFromModel(m *WeeklyPlanDayModel) plan.PlanDay {
	day := plan.PlanDay{
		ID:     m.ID,
		PlanID: m.PlanID,
		Date:   plan.NormalizeDate(m.Date),
		Meals:  make([]plan.PlanMeal, 0, len(m.Meals)),
	}
	for _, mm := range m.Meals {
		day.Meals = append(day.Meals, plan.PlanMeal{
			ID:       mm.ID,
			DayID:    mm.DayID,
			MealType: plan.MealType(mm.MealType),
			RecipeID: mm.RecipeID,
			Servings: mm.Servings,
			Locked:   mm.Locked,
		})
	}
	return day
}

func dayToModel(d *plan.PlanDay) *WeeklyPlanDayModel {
	model := &WeeklyPlanDayModel{
		ID:     d.ID,
		PlanID: d.PlanID,
		Date:   plan.NormalizeDate(d.Date),
	}
	model.Meals = make([]WeeklyPlanMealModel, 0, len(d.Meals))
	for _, meal := range d.Meals {
		model.Meals = append(model.Meals, WeeklyPlanMealModel{
			ID:       meal.ID,
			DayID:    meal.DayID,
			MealType: string(meal.MealType),
			RecipeID: meal.RecipeID,
			Servings: meal.Servings,
			Locked:   meal.Locked,
		})
	}
	return model
}

// RecipeFromModel converts a catalog recipe model to the domain view.
func RecipeFromModel(m *RecipeModel) *catalog.Recipe {
	r := &catalog.Recipe{
		ID:        m.ID,
		UserID:    m.UserID,
		Name:      m.Name,
		Servings:  m.Servings,
		CreatedAt: m.CreatedAt,
	}
	r.Items = make([]catalog.RecipeItem, 0, len(m.Items))
	for _, im := range m.Items {
		r.Items = append(r.Items, catalog.RecipeItem{
			ID:       im.ID,
			RecipeID: im.RecipeID,
			FoodID:   im.FoodID,
			Grams:    im.Grams,
		})
	}
	return r
}

// FoodFromModel converts a food model to the domain view.
func FoodFromModel(m *FoodModel) *catalog.Food {
	return &catalog.Food{
		ID:          m.ID,
		UserID:      m.UserID,
		Name:        m.Name,
		Brand:       m.Brand,
		Kcal100g:    m.Kcal100g,
		Protein100g: m.Protein100g,
		Carbs100g:   m.Carbs100g,
		Fat100g:     m.Fat100g,
	}
}
