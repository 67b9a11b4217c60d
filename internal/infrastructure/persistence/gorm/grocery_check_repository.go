package gorm

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mealsmith/v1/internal/domain/plan"
	"github.com/mealsmith/v1/internal/ports/outbound"
)

// GroceryCheckRepository implements the checked-state overlay using GORM
type GroceryCheckRepository struct {
	db *gorm.DB
}

// NewGroceryCheckRepository creates a new grocery check repository
func NewGroceryCheckRepository(db *gorm.DB) outbound.GroceryCheckRepository {
	return &GroceryCheckRepository{db: db}
}

// BulkUpsert writes the given checked flags for (user, week), inserting
// missing rows and updating existing ones. Idempotent: repeating the same
// payload leaves the same state.
func (r *GroceryCheckRepository) BulkUpsert(ctx context.Context, userID uuid.UUID, weekStart time.Time, checks []outbound.GroceryCheck) error {
	if len(checks) == 0 {
		return nil
	}

	week := plan.NormalizeDate(weekStart)
	models := make([]GroceryCheckModel, 0, len(checks))
	for _, c := range checks {
		models = append(models, GroceryCheckModel{
			ID:        uuid.New(),
			UserID:    userID,
			WeekStart: week,
			ItemKey:   c.ItemKey,
			Checked:   c.Checked,
		})
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "user_id"},
				{Name: "week_start"},
				{Name: "item_key"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"checked", "updated_at"}),
		}).
		Create(&models).Error
}

// GetMap returns every persisted checked flag for (user, week) keyed by
// item key. Stale keys from older plan revisions are included; the caller
// decides which ones still matter.
func (r *GroceryCheckRepository) GetMap(ctx context.Context, userID uuid.UUID, weekStart time.Time) (map[string]bool, error) {
	var models []GroceryCheckModel

	result := r.db.WithContext(ctx).
		Where("user_id = ? AND week_start = ?", userID, plan.NormalizeDate(weekStart)).
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}

	checks := make(map[string]bool, len(models))
	for _, m := range models {
		checks[m.ItemKey] = m.Checked
	}
	return checks, nil
}
