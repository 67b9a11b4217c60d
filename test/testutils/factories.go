package testutils

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	gormRepo "github.com/mealsmith/v1/internal/infrastructure/persistence/gorm"
)

// CatalogFactory seeds users, foods and recipes for tests
type CatalogFactory struct {
	faker *gofakeit.Faker
	db    *gorm.DB
	t     *testing.T
}

// NewCatalogFactory creates a factory with a seeded faker so fixture names
// are reproducible across runs.
func NewCatalogFactory(t *testing.T, db *gorm.DB) *CatalogFactory {
	return &CatalogFactory{
		faker: gofakeit.New(42),
		db:    db,
		t:     t,
	}
}

// CreateUser inserts a user row and returns its id
func (f *CatalogFactory) CreateUser() uuid.UUID {
	user := gormRepo.UserModel{
		ID:    uuid.New(),
		Email: f.faker.Email(),
		Name:  f.faker.Name(),
	}
	require.NoError(f.t, f.db.Create(&user).Error)
	return user.ID
}

// CreateFood inserts a globally shared food
func (f *CatalogFactory) CreateFood(name string) uuid.UUID {
	return f.createFood(name, nil)
}

// CreateUserFood inserts a food owned by one user
func (f *CatalogFactory) CreateUserFood(name string, userID uuid.UUID) uuid.UUID {
	return f.createFood(name, &userID)
}

func (f *CatalogFactory) createFood(name string, userID *uuid.UUID) uuid.UUID {
	if name == "" {
		name = f.faker.Fruit()
	}
	food := gormRepo.FoodModel{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        name,
		Kcal100g:    decimal.NewFromInt(int64(f.faker.Number(50, 500))),
		Protein100g: decimal.NewFromInt(int64(f.faker.Number(0, 40))),
		Carbs100g:   decimal.NewFromInt(int64(f.faker.Number(0, 80))),
		Fat100g:     decimal.NewFromInt(int64(f.faker.Number(0, 40))),
	}
	require.NoError(f.t, f.db.Create(&food).Error)
	return food.ID
}

// RecipeSpec describes one recipe fixture
type RecipeSpec struct {
	Name     string
	Servings int
	Items    map[uuid.UUID]decimal.Decimal // food id -> grams
}

// CreateRecipe inserts a recipe with its items and returns its id
func (f *CatalogFactory) CreateRecipe(userID uuid.UUID, spec RecipeSpec) uuid.UUID {
	if spec.Name == "" {
		spec.Name = f.faker.Dinner()
	}
	if spec.Servings == 0 {
		spec.Servings = 1
	}

	recipe := gormRepo.RecipeModel{
		ID:       uuid.New(),
		UserID:   userID,
		Name:     spec.Name,
		Servings: spec.Servings,
	}
	for foodID, grams := range spec.Items {
		recipe.Items = append(recipe.Items, gormRepo.RecipeItemModel{
			ID:     uuid.New(),
			FoodID: foodID,
			Grams:  grams,
		})
	}
	require.NoError(f.t, f.db.Create(&recipe).Error)
	return recipe.ID
}

// CreateSimpleRecipes inserts n one-item recipes sharing a single food and
// returns the recipe ids.
func (f *CatalogFactory) CreateSimpleRecipes(userID uuid.UUID, n int) []uuid.UUID {
	foodID := f.CreateFood("")
	ids := make([]uuid.UUID, 0, n)
	for i := 0; i < n; i++ {
		ids = append(ids, f.CreateRecipe(userID, RecipeSpec{
			Servings: 1,
			Items:    map[uuid.UUID]decimal.Decimal{foodID: decimal.NewFromInt(100)},
		}))
	}
	return ids
}
