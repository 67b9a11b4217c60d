// Package sqlite provides SQLite database setup and configuration
package sqlite

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	gormModels "github.com/mealsmith/v1/internal/infrastructure/persistence/gorm"
)

// SetupDatabase creates and configures the SQLite database
func SetupDatabase(dbPath string, logLevel logger.LogLevel) (*gorm.DB, error) {
	// Use in-memory database if no path provided
	if dbPath == "" {
		dbPath = ":memory:"
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := gormModels.Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// SeedDatabase populates the database with a small demo catalog
func SeedDatabase(db *gorm.DB) error {
	// Check if data already exists
	var userCount int64
	db.Model(&gormModels.UserModel{}).Count(&userCount)
	if userCount > 0 {
		return nil // Already seeded
	}

	demoUser := gormModels.UserModel{
		ID:    uuid.New(),
		Email: "demo@mealsmith.dev",
		Name:  "Demo User",
	}
	if err := db.Create(&demoUser).Error; err != nil {
		return fmt.Errorf("failed to create demo user: %w", err)
	}

	// Globally shared foods (user_id NULL) plus one user-owned food
	oats := gormModels.FoodModel{
		ID:          uuid.New(),
		Name:        "Rolled Oats",
		Kcal100g:    decimal.NewFromInt(379),
		Protein100g: decimal.RequireFromString("13.2"),
		Carbs100g:   decimal.RequireFromString("67.7"),
		Fat100g:     decimal.RequireFromString("6.5"),
	}
	chicken := gormModels.FoodModel{
		ID:          uuid.New(),
		Name:        "Chicken Breast",
		Kcal100g:    decimal.NewFromInt(120),
		Protein100g: decimal.RequireFromString("22.5"),
		Carbs100g:   decimal.Zero,
		Fat100g:     decimal.RequireFromString("2.6"),
	}
	rice := gormModels.FoodModel{
		ID:          uuid.New(),
		Name:        "Basmati Rice",
		Kcal100g:    decimal.NewFromInt(356),
		Protein100g: decimal.RequireFromString("8.1"),
		Carbs100g:   decimal.RequireFromString("78.0"),
		Fat100g:     decimal.RequireFromString("0.7"),
	}
	wheyBrand := "BulkStuff"
	whey := gormModels.FoodModel{
		ID:          uuid.New(),
		UserID:      &demoUser.ID,
		Name:        "Whey Protein",
		Brand:       &wheyBrand,
		Kcal100g:    decimal.NewFromInt(390),
		Protein100g: decimal.NewFromInt(78),
		Carbs100g:   decimal.NewFromInt(6),
		Fat100g:     decimal.NewFromInt(5),
	}
	for _, f := range []*gormModels.FoodModel{&oats, &chicken, &rice, &whey} {
		if err := db.Create(f).Error; err != nil {
			return fmt.Errorf("failed to create demo food: %w", err)
		}
	}

	demoRecipes := []gormModels.RecipeModel{
		{
			ID:       uuid.New(),
			UserID:   demoUser.ID,
			Name:     "Overnight Oats",
			Servings: 2,
			Items: []gormModels.RecipeItemModel{
				{ID: uuid.New(), FoodID: oats.ID, Grams: decimal.NewFromInt(160)},
				{ID: uuid.New(), FoodID: whey.ID, Grams: decimal.NewFromInt(60)},
			},
		},
		{
			ID:       uuid.New(),
			UserID:   demoUser.ID,
			Name:     "Chicken and Rice",
			Servings: 4,
			Items: []gormModels.RecipeItemModel{
				{ID: uuid.New(), FoodID: chicken.ID, Grams: decimal.NewFromInt(600)},
				{ID: uuid.New(), FoodID: rice.ID, Grams: decimal.NewFromInt(320)},
			},
		},
		{
			ID:       uuid.New(),
			UserID:   demoUser.ID,
			Name:     "Protein Shake",
			Servings: 1,
			Items: []gormModels.RecipeItemModel{
				{ID: uuid.New(), FoodID: whey.ID, Grams: decimal.NewFromInt(35)},
			},
		},
	}
	for i := range demoRecipes {
		if err := db.Create(&demoRecipes[i]).Error; err != nil {
			return fmt.Errorf("failed to create demo recipe: %w", err)
		}
	}

	return nil
}
