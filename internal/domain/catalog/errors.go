package catalog

import "errors"

var (
	ErrRecipeNotFound = errors.New("recipe not found")
	ErrFoodNotFound   = errors.New("food not found")
)
