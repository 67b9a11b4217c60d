package gorm

import (
	"fmt"

	"gorm.io/gorm"
)

// Migrate runs auto-migration for every planning engine table
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&UserModel{},
		&FoodModel{},
		&RecipeModel{},
		&RecipeItemModel{},
		&WeeklyPlanModel{},
		&WeeklyPlanDayModel{},
		&WeeklyPlanMealModel{},
		&GroceryCheckModel{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
