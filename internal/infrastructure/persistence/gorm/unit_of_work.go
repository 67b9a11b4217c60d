package gorm

import (
	"context"

	"gorm.io/gorm"

	"github.com/mealsmith/v1/internal/ports/outbound"
)

// NewRepositories bundles the three adapters over one database handle.
// Handed a transaction handle it yields transaction-scoped repositories.
func NewRepositories(db *gorm.DB) outbound.Repositories {
	return outbound.Repositories{
		Plans:   NewPlanRepository(db),
		Catalog: NewCatalogRepository(db),
		Checks:  NewGroceryCheckRepository(db),
	}
}

// UnitOfWork runs callbacks inside a single GORM transaction
type UnitOfWork struct {
	db *gorm.DB
}

// NewUnitOfWork creates a new unit of work over the shared handle
func NewUnitOfWork(db *gorm.DB) outbound.UnitOfWork {
	return &UnitOfWork{db: db}
}

// Do opens a transaction, hands fn repositories bound to it, and commits
// when fn returns nil. Any error, including a panic, rolls everything back.
func (u *UnitOfWork) Do(ctx context.Context, fn func(r outbound.Repositories) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}
