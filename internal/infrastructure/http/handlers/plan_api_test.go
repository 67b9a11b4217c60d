package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mealsmith/v1/internal/infrastructure/http/middleware"
	"github.com/mealsmith/v1/internal/infrastructure/monitoring"
	"github.com/mealsmith/v1/internal/ports/inbound"
	apperrors "github.com/mealsmith/v1/pkg/errors"
)

// stubPlanService records calls and returns canned results
type stubPlanService struct {
	plan        *inbound.PlanDTO
	groceryList *inbound.GroceryListDTO
	err         error

	lastGenerate *inbound.GeneratePlanCommand
	lastSwap     *inbound.SwapMealCommand
	lastChecks   []inbound.GroceryCheckUpdate
}

func (s *stubPlanService) GeneratePlan(ctx context.Context, cmd inbound.GeneratePlanCommand) (*inbound.PlanDTO, error) {
	s.lastGenerate = &cmd
	return s.plan, s.err
}

func (s *stubPlanService) SwapMeal(ctx context.Context, cmd inbound.SwapMealCommand) (*inbound.PlanDTO, error) {
	s.lastSwap = &cmd
	return s.plan, s.err
}

func (s *stubPlanService) SetMealLock(ctx context.Context, userID uuid.UUID, weekStart time.Time, mealID uuid.UUID, locked bool) (*inbound.PlanDTO, error) {
	return s.plan, s.err
}

func (s *stubPlanService) GetPlan(ctx context.Context, userID uuid.UUID, weekStart time.Time) (*inbound.PlanDTO, error) {
	return s.plan, s.err
}

func (s *stubPlanService) DeletePlan(ctx context.Context, userID uuid.UUID, weekStart time.Time) error {
	return s.err
}

func (s *stubPlanService) GetGroceryList(ctx context.Context, userID uuid.UUID, weekStart time.Time) (*inbound.GroceryListDTO, error) {
	return s.groceryList, s.err
}

func (s *stubPlanService) SetGroceryChecks(ctx context.Context, userID uuid.UUID, weekStart time.Time, checks []inbound.GroceryCheckUpdate) error {
	s.lastChecks = checks
	return s.err
}

func newTestRouter(svc inbound.PlanService) *chi.Mux {
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	h := NewPlanAPIHandlers(svc, metrics, zap.NewNop())

	r := chi.NewRouter()
	r.Route("/api/v1/plans/{weekStart}", func(r chi.Router) {
		r.Use(middleware.Identity())
		r.Post("/generate", h.GeneratePlan)
		r.Get("/", h.GetPlan)
		r.Delete("/", h.DeletePlan)
		r.Post("/swap", h.SwapMeal)
		r.Put("/meals/{mealID}/lock", h.SetMealLock)
		r.Get("/grocery-list", h.GetGroceryList)
		r.Put("/grocery-list/checks", h.SetGroceryChecks)
	})
	return r
}

func doRequest(t *testing.T, router http.Handler, method, path string, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return string(resp.Error.Code)
}

func TestGeneratePlanEndpoint(t *testing.T) {
	svc := &stubPlanService{plan: &inbound.PlanDTO{ID: uuid.New(), WeekStart: "2025-03-10"}}
	router := newTestRouter(svc)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/plans/2025-03-10/generate", uuid.NewString(),
		map[string]any{"target_kcal": 2400})

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.lastGenerate)
	assert.Equal(t, 2400, svc.lastGenerate.TargetKcal)
	assert.Equal(t, "2025-03-10", svc.lastGenerate.WeekStart.Format("2006-01-02"))
}

func TestGeneratePlanRequiresIdentity(t *testing.T) {
	router := newTestRouter(&stubPlanService{})

	rec := doRequest(t, router, http.MethodPost, "/api/v1/plans/2025-03-10/generate", "",
		map[string]any{"target_kcal": 2400})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decodeErrorCode(t, rec))
}

func TestGeneratePlanRejectsMalformedIdentity(t *testing.T) {
	router := newTestRouter(&stubPlanService{})

	rec := doRequest(t, router, http.MethodPost, "/api/v1/plans/2025-03-10/generate", "not-a-uuid",
		map[string]any{"target_kcal": 2400})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGeneratePlanValidatesBody(t *testing.T) {
	router := newTestRouter(&stubPlanService{})

	rec := doRequest(t, router, http.MethodPost, "/api/v1/plans/2025-03-10/generate", uuid.NewString(),
		map[string]any{"target_kcal": 0})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", decodeErrorCode(t, rec))
}

func TestGeneratePlanRejectsBadWeekStart(t *testing.T) {
	router := newTestRouter(&stubPlanService{})

	rec := doRequest(t, router, http.MethodPost, "/api/v1/plans/tuesday/generate", uuid.NewString(),
		map[string]any{"target_kcal": 2400})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestGetPlanMapsDomainErrors(t *testing.T) {
	svc := &stubPlanService{err: apperrors.NewPlanNotFoundError("2025-03-10")}
	router := newTestRouter(svc)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/plans/2025-03-10/", uuid.NewString(), nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "PLAN_NOT_FOUND", decodeErrorCode(t, rec))
}

func TestSwapMealEndpoint(t *testing.T) {
	svc := &stubPlanService{plan: &inbound.PlanDTO{ID: uuid.New()}}
	router := newTestRouter(svc)
	recipeID := uuid.New()

	rec := doRequest(t, router, http.MethodPost, "/api/v1/plans/2025-03-10/swap", uuid.NewString(),
		map[string]any{
			"date":          "2025-03-12",
			"meal_type":     "dinner",
			"new_recipe_id": recipeID.String(),
		})

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.lastSwap)
	assert.Equal(t, recipeID, svc.lastSwap.NewRecipeID)
	assert.Equal(t, "dinner", svc.lastSwap.MealType)
	assert.Nil(t, svc.lastSwap.Lock)
}

func TestSwapMealRejectsBadRecipeID(t *testing.T) {
	router := newTestRouter(&stubPlanService{})

	rec := doRequest(t, router, http.MethodPost, "/api/v1/plans/2025-03-10/swap", uuid.NewString(),
		map[string]any{
			"date":          "2025-03-12",
			"meal_type":     "dinner",
			"new_recipe_id": "nope",
		})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestDeletePlanEndpoint(t *testing.T) {
	router := newTestRouter(&stubPlanService{})

	rec := doRequest(t, router, http.MethodDelete, "/api/v1/plans/2025-03-10/", uuid.NewString(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSetGroceryChecksEndpoint(t *testing.T) {
	svc := &stubPlanService{}
	router := newTestRouter(svc)

	rec := doRequest(t, router, http.MethodPut, "/api/v1/plans/2025-03-10/grocery-list/checks", uuid.NewString(),
		map[string]any{
			"checks": []map[string]any{
				{"item_key": "food_id:" + uuid.NewString(), "checked": true},
			},
		})

	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.Len(t, svc.lastChecks, 1)
	assert.True(t, svc.lastChecks[0].Checked)
}

func TestGetGroceryListEndpoint(t *testing.T) {
	svc := &stubPlanService{groceryList: &inbound.GroceryListDTO{WeekStart: "2025-03-10"}}
	router := newTestRouter(svc)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/plans/2025-03-10/grocery-list", uuid.NewString(), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	var dto inbound.GroceryListDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, "2025-03-10", dto.WeekStart)
}
