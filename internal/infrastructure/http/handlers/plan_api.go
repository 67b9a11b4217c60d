// Package handlers provides HTTP handlers for the REST API
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mealsmith/v1/internal/domain/plan"
	"github.com/mealsmith/v1/internal/infrastructure/http/middleware"
	"github.com/mealsmith/v1/internal/infrastructure/monitoring"
	"github.com/mealsmith/v1/internal/ports/inbound"
	apperrors "github.com/mealsmith/v1/pkg/errors"
)

// PlanAPIHandlers handles the weekly plan REST API
type PlanAPIHandlers struct {
	planService inbound.PlanService
	metrics     *monitoring.Metrics
	logger      *zap.Logger
	validate    *validator.Validate
}

// NewPlanAPIHandlers creates a new plan API handlers instance
func NewPlanAPIHandlers(
	planService inbound.PlanService,
	metrics *monitoring.Metrics,
	logger *zap.Logger,
) *PlanAPIHandlers {
	return &PlanAPIHandlers{
		planService: planService,
		metrics:     metrics,
		logger:      logger,
		validate:    validator.New(),
	}
}

// generatePlanRequest is the body of POST /plans/{weekStart}/generate
type generatePlanRequest struct {
	TargetKcal int                  `json:"target_kcal" validate:"required,gt=0"`
	MacroGrams *macroGramsRequest   `json:"macro_grams" validate:"omitempty"`
	Training   []trainingDayRequest `json:"training_schedule" validate:"omitempty,dive"`
	Prefs      map[string]any       `json:"preferences"`
}

type macroGramsRequest struct {
	ProteinG *int `json:"protein_g" validate:"omitempty,gte=0"`
	CarbsG   *int `json:"carbs_g" validate:"omitempty,gte=0"`
	FatG     *int `json:"fat_g" validate:"omitempty,gte=0"`
}

type trainingDayRequest struct {
	Date string `json:"date" validate:"required"`
	Name string `json:"name" validate:"required,max=120"`
}

// swapMealRequest is the body of POST /plans/{weekStart}/swap
type swapMealRequest struct {
	Date        string `json:"date" validate:"required"`
	MealType    string `json:"meal_type" validate:"required"`
	NewRecipeID string `json:"new_recipe_id" validate:"required,uuid"`
	Lock        *bool  `json:"lock"`
}

// setLockRequest is the body of PUT /plans/{weekStart}/meals/{mealID}/lock
type setLockRequest struct {
	Locked bool `json:"locked"`
}

// groceryChecksRequest is the body of PUT /plans/{weekStart}/grocery-list/checks
type groceryChecksRequest struct {
	Checks []groceryCheckRequest `json:"checks" validate:"required,dive"`
}

type groceryCheckRequest struct {
	ItemKey string `json:"item_key" validate:"required,max=300"`
	Checked bool   `json:"checked"`
}

// GeneratePlan handles POST /api/v1/plans/{weekStart}/generate
func (h *PlanAPIHandlers) GeneratePlan(w http.ResponseWriter, r *http.Request) {
	defer h.metrics.ObservePlanOp("generate", time.Now())

	userID, weekStart, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	var req generatePlanRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	cmd := inbound.GeneratePlanCommand{
		UserID:      userID,
		WeekStart:   weekStart,
		TargetKcal:  req.TargetKcal,
		Preferences: req.Prefs,
	}
	if req.MacroGrams != nil {
		cmd.MacroGrams = &inbound.MacroGramsCommand{
			ProteinG: req.MacroGrams.ProteinG,
			CarbsG:   req.MacroGrams.CarbsG,
			FatG:     req.MacroGrams.FatG,
		}
	}
	for _, td := range req.Training {
		date, err := time.Parse(plan.DateLayout, td.Date)
		if err != nil {
			h.writeError(w, r, apperrors.NewValidationError("training_schedule.date must be YYYY-MM-DD"))
			return
		}
		cmd.TrainingSchedule = append(cmd.TrainingSchedule, inbound.TrainingDayCommand{
			Date: date,
			Name: td.Name,
		})
	}

	dto, err := h.planService.GeneratePlan(r.Context(), cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, dto)
}

// GetPlan handles GET /api/v1/plans/{weekStart}
func (h *PlanAPIHandlers) GetPlan(w http.ResponseWriter, r *http.Request) {
	defer h.metrics.ObservePlanOp("get", time.Now())

	userID, weekStart, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	dto, err := h.planService.GetPlan(r.Context(), userID, weekStart)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, dto)
}

// DeletePlan handles DELETE /api/v1/plans/{weekStart}
func (h *PlanAPIHandlers) DeletePlan(w http.ResponseWriter, r *http.Request) {
	defer h.metrics.ObservePlanOp("delete", time.Now())

	userID, weekStart, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	if err := h.planService.DeletePlan(r.Context(), userID, weekStart); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SwapMeal handles POST /api/v1/plans/{weekStart}/swap
func (h *PlanAPIHandlers) SwapMeal(w http.ResponseWriter, r *http.Request) {
	defer h.metrics.ObservePlanOp("swap", time.Now())

	userID, weekStart, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	var req swapMealRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	date, err := time.Parse(plan.DateLayout, req.Date)
	if err != nil {
		h.writeError(w, r, apperrors.NewValidationError("date must be YYYY-MM-DD"))
		return
	}
	recipeID, err := uuid.Parse(req.NewRecipeID)
	if err != nil {
		h.writeError(w, r, apperrors.NewValidationError("new_recipe_id must be a valid UUID"))
		return
	}

	dto, err := h.planService.SwapMeal(r.Context(), inbound.SwapMealCommand{
		UserID:      userID,
		WeekStart:   weekStart,
		Date:        date,
		MealType:    req.MealType,
		NewRecipeID: recipeID,
		Lock:        req.Lock,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, dto)
}

// SetMealLock handles PUT /api/v1/plans/{weekStart}/meals/{mealID}/lock
func (h *PlanAPIHandlers) SetMealLock(w http.ResponseWriter, r *http.Request) {
	defer h.metrics.ObservePlanOp("set_lock", time.Now())

	userID, weekStart, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	mealID, err := uuid.Parse(chi.URLParam(r, "mealID"))
	if err != nil {
		h.writeError(w, r, apperrors.NewValidationError("mealID must be a valid UUID"))
		return
	}

	var req setLockRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	dto, err := h.planService.SetMealLock(r.Context(), userID, weekStart, mealID, req.Locked)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, dto)
}

// GetGroceryList handles GET /api/v1/plans/{weekStart}/grocery-list
func (h *PlanAPIHandlers) GetGroceryList(w http.ResponseWriter, r *http.Request) {
	defer h.metrics.ObservePlanOp("grocery_list", time.Now())

	userID, weekStart, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	dto, err := h.planService.GetGroceryList(r.Context(), userID, weekStart)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, dto)
}

// SetGroceryChecks handles PUT /api/v1/plans/{weekStart}/grocery-list/checks
func (h *PlanAPIHandlers) SetGroceryChecks(w http.ResponseWriter, r *http.Request) {
	defer h.metrics.ObservePlanOp("grocery_checks", time.Now())

	userID, weekStart, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	var req groceryChecksRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	checks := make([]inbound.GroceryCheckUpdate, 0, len(req.Checks))
	for _, c := range req.Checks {
		checks = append(checks, inbound.GroceryCheckUpdate{
			ItemKey: c.ItemKey,
			Checked: c.Checked,
		})
	}

	if err := h.planService.SetGroceryChecks(r.Context(), userID, weekStart, checks); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// requestScope pulls the acting user and week start out of the request.
func (h *PlanAPIHandlers) requestScope(w http.ResponseWriter, r *http.Request) (uuid.UUID, time.Time, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, r, apperrors.NewUnauthorizedError(""))
		return uuid.Nil, time.Time{}, false
	}

	weekStart, err := time.Parse(plan.DateLayout, chi.URLParam(r, "weekStart"))
	if err != nil {
		h.writeError(w, r, apperrors.NewValidationError("weekStart must be YYYY-MM-DD"))
		return uuid.Nil, time.Time{}, false
	}

	return userID, weekStart, true
}

func (h *PlanAPIHandlers) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeError(w, r, apperrors.NewBadRequestError("Invalid JSON body"))
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.writeError(w, r, apperrors.NewValidationError(err.Error()))
		return false
	}
	return true
}

func (h *PlanAPIHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (h *PlanAPIHandlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		h.logger.Error("Unhandled error", zap.Error(err))
		appErr = apperrors.NewInternalError("")
	}

	h.metrics.IncError(string(appErr.Code))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode())
	resp := apperrors.ToErrorResponse(appErr, chimiddleware.GetReqID(r.Context()))
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("Failed to encode error response", zap.Error(err))
	}
}
