package gorm

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mealsmith/v1/internal/domain/catalog"
	"github.com/mealsmith/v1/internal/ports/outbound"
)

// CatalogRepository implements the read-side recipe catalog using GORM
type CatalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db *gorm.DB) outbound.RecipeCatalog {
	return &CatalogRepository{db: db}
}

// ListByUser returns the user's recipes without items, ordered by ascending
// UUID string. The ordering is load-bearing: the slot assigner indexes into
// this list, so it has to be identical on every load.
func (r *CatalogRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*catalog.Recipe, error) {
	var models []RecipeModel

	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}

	recipes := make([]*catalog.Recipe, 0, len(models))
	for i := range models {
		recipes = append(recipes, RecipeFromModel(&models[i]))
	}
	return recipes, nil
}

// FindByIDForUser resolves a recipe owned by the user. Recipes of other
// users come back as not-found so their catalogs are never leaked.
func (r *CatalogRepository) FindByIDForUser(ctx context.Context, userID, recipeID uuid.UUID) (*catalog.Recipe, error) {
	var model RecipeModel

	result := r.db.WithContext(ctx).
		First(&model, "id = ? AND user_id = ?", recipeID, userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrRecipeNotFound
		}
		return nil, result.Error
	}

	return RecipeFromModel(&model), nil
}

// ListWithItems loads the given recipes of the user including their items.
func (r *CatalogRepository) ListWithItems(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]*catalog.Recipe, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var models []RecipeModel
	result := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ? AND id IN ?", userID, ids).
		Order("id ASC").
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}

	recipes := make([]*catalog.Recipe, 0, len(models))
	for i := range models {
		recipes = append(recipes, RecipeFromModel(&models[i]))
	}
	return recipes, nil
}

// ResolveFood resolves a food visible to the user: the user's own foods
// plus globally shared ones (user_id IS NULL).
func (r *CatalogRepository) ResolveFood(ctx context.Context, userID, foodID uuid.UUID) (*catalog.Food, error) {
	var model FoodModel

	result := r.db.WithContext(ctx).
		First(&model, "id = ? AND (user_id = ? OR user_id IS NULL)", foodID, userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrFoodNotFound
		}
		return nil, result.Error
	}

	return FoodFromModel(&model), nil
}
