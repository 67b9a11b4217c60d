// Package gorm provides GORM model definitions and repository
// implementations for the planning engine.
package gorm

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UserModel represents the GORM model for users. The planning engine only
// needs the identity column; account management lives elsewhere.
type UserModel struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	Name      string    `gorm:"type:varchar(255);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FoodModel represents the GORM model for foods. A NULL user_id marks a
// globally shared food visible to every user.
type FoodModel struct {
	ID     uuid.UUID  `gorm:"type:char(36);primaryKey"`
	UserID *uuid.UUID `gorm:"type:char(36);index"`
	Name   string     `gorm:"type:varchar(200);not null;index"`
	Brand  *string    `gorm:"type:varchar(120)"`

	// Macro density per 100g
	Kcal100g    decimal.Decimal `gorm:"type:numeric(7,2);not null"`
	Protein100g decimal.Decimal `gorm:"type:numeric(7,2);not null"`
	Carbs100g   decimal.Decimal `gorm:"type:numeric(7,2);not null"`
	Fat100g     decimal.Decimal `gorm:"type:numeric(7,2);not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// RecipeModel represents the GORM model for recipes
type RecipeModel struct {
	ID       uuid.UUID `gorm:"type:char(36);primaryKey"`
	UserID   uuid.UUID `gorm:"type:char(36);not null;index"`
	Name     string    `gorm:"type:varchar(200);not null;index"`
	Servings int       `gorm:"not null;check:servings > 0"`

	CreatedAt time.Time
	UpdatedAt time.Time

	// Relationships
	Items []RecipeItemModel `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
}

// RecipeItemModel represents one ingredient line of a recipe
type RecipeItemModel struct {
	ID       uuid.UUID       `gorm:"type:char(36);primaryKey"`
	RecipeID uuid.UUID       `gorm:"type:char(36);not null;index"`
	FoodID   uuid.UUID       `gorm:"type:char(36);not null;index"`
	Grams    decimal.Decimal `gorm:"type:numeric(10,2);not null;check:grams > 0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// WeeklyPlanModel represents the GORM model for weekly plans. Exactly one
// row exists per (user, week_start); the composite unique index enforces it.
type WeeklyPlanModel struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey"`
	UserID    uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:uq_weekly_plans_user_week,priority:1"`
	WeekStart time.Time `gorm:"type:date;not null;uniqueIndex:uq_weekly_plans_user_week,priority:2;index"`

	// Generation input snapshot, kept for reproducibility/debugging
	TargetKcal           int     `gorm:"not null"`
	ProteinG             *int    `gorm:""`
	CarbsG               *int    `gorm:""`
	FatG                 *int    `gorm:""`
	TrainingScheduleJSON *string `gorm:"type:varchar(2000)"`
	PreferencesJSON      *string `gorm:"type:varchar(4000)"`

	CreatedAt time.Time
	UpdatedAt time.Time

	// Relationships
	Days []WeeklyPlanDayModel `gorm:"foreignKey:PlanID;constraint:OnDelete:CASCADE"`
}

// WeeklyPlanDayModel represents one calendar day of a plan
type WeeklyPlanDayModel struct {
	ID     uuid.UUID `gorm:"type:char(36);primaryKey"`
	PlanID uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:uq_weekly_plan_days_plan_date,priority:1;index"`
	Date   time.Time `gorm:"type:date;not null;uniqueIndex:uq_weekly_plan_days_plan_date,priority:2"`

	CreatedAt time.Time
	UpdatedAt time.Time

	// Relationships
	Meals []WeeklyPlanMealModel `gorm:"foreignKey:DayID;constraint:OnDelete:CASCADE"`
}

// WeeklyPlanMealModel represents one meal slot of a plan day
type WeeklyPlanMealModel struct {
	ID       uuid.UUID       `gorm:"type:char(36);primaryKey"`
	DayID    uuid.UUID       `gorm:"type:char(36);not null;uniqueIndex:uq_weekly_plan_meals_day_type,priority:1;index"`
	MealType string          `gorm:"type:varchar(20);not null;uniqueIndex:uq_weekly_plan_meals_day_type,priority:2"`
	RecipeID uuid.UUID       `gorm:"type:char(36);not null;index"`
	Servings decimal.Decimal `gorm:"type:numeric(10,2);not null;check:servings > 0"`
	Locked   bool            `gorm:"not null;default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// GroceryCheckModel persists the checked flag of one grocery list item.
// Lifecycle is independent of the plan: no foreign key to weekly_plans, so
// regeneration and deletion leave these rows alone.
type GroceryCheckModel struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey"`
	UserID    uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:uq_grocery_checks_user_week_key,priority:1"`
	WeekStart time.Time `gorm:"type:date;not null;uniqueIndex:uq_grocery_checks_user_week_key,priority:2;index"`
	ItemKey   string    `gorm:"type:varchar(300);not null;uniqueIndex:uq_grocery_checks_user_week_key,priority:3"`
	Checked   bool      `gorm:"not null;default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// BeforeCreate hook for UserModel
func (u *UserModel) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// BeforeCreate hook for FoodModel
func (f *FoodModel) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// BeforeCreate hook for RecipeModel
func (r *RecipeModel) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// BeforeCreate hook for RecipeItemModel
func (r *RecipeItemModel) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// BeforeCreate hook for WeeklyPlanModel
func (p *WeeklyPlanModel) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// BeforeCreate hook for WeeklyPlanDayModel
func (d *WeeklyPlanDayModel) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// BeforeCreate hook for WeeklyPlanMealModel
func (m *WeeklyPlanMealModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// BeforeCreate hook for GroceryCheckModel
func (g *GroceryCheckModel) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// TableName methods for custom table names
func (UserModel) TableName() string {
	return "users"
}

func (FoodModel) TableName() string {
	return "foods"
}

func (RecipeModel) TableName() string {
	return "recipes"
}

func (RecipeItemModel) TableName() string {
	return "recipe_items"
}

func (WeeklyPlanModel) TableName() string {
	return "weekly_plans"
}

func (WeeklyPlanDayModel) TableName() string {
	return "weekly_plan_days"
}

func (WeeklyPlanMealModel) TableName() string {
	return "weekly_plan_meals"
}

func (GroceryCheckModel) TableName() string {
	return "grocery_list_item_checks"
}
