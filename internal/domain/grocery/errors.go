package grocery

import "errors"

// ErrDanglingIngredient marks a recipe item whose food reference cannot be
// resolved in the user's visible scope. This is a data-integrity violation
// in the catalog, not a user error; aggregation aborts rather than silently
// undercounting.
var ErrDanglingIngredient = errors.New("recipe item references an unknown food")
