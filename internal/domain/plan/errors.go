package plan

import "errors"

// Domain errors for weekly plan operations

var (
	// Input validation errors
	ErrNotMonday       = errors.New("week_start must be a Monday")
	ErrOutOfWeekRange  = errors.New("date must be within the specified week")
	ErrUnknownMealType = errors.New("unknown meal type")
	ErrInvalidServings = errors.New("servings must be greater than 0")
	ErrInvalidTarget   = errors.New("target_kcal must be greater than 0")

	// Generation errors
	ErrNoCandidates = errors.New("candidate recipe list is empty")
	ErrNoRecipes    = errors.New("no recipes available to generate a plan")

	// Lookup errors
	ErrPlanNotFound     = errors.New("weekly plan not found")
	ErrDayNotFound      = errors.New("weekly plan day not found")
	ErrMealSlotNotFound = errors.New("weekly plan meal slot not found")
	ErrMealNotFound     = errors.New("weekly plan meal not found")

	// Structural invariant violations
	ErrMalformedPlan = errors.New("plan must have 7 unique in-window days with 4 meals each")
)
