// Package catalog holds the mutation entry points used by the request layer
// and the import tools. Every operation validates its input, persists it and
// dispatches the matching recalculation inside one transaction, scoped to a
// single tenant.
package catalog

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"fourneau/internal/composition"
	"fourneau/internal/dbctx"
	"fourneau/internal/recalc"
)

type Service struct {
	db         *gorm.DB
	dispatcher *recalc.Dispatcher
	validator  *composition.Validator
}

func NewService(db *gorm.DB) *Service {
	return &Service{
		db:         db,
		dispatcher: recalc.NewDispatcher(db),
		validator:  composition.NewValidator(db),
	}
}

// Dispatcher exposes the dispatcher bound to the same database.
func (s *Service) Dispatcher() *recalc.Dispatcher {
	return s.dispatcher
}

// inTx runs fn in a transaction and hands it a context carrying that
// transaction, so the validator and dispatcher join it.
func (s *Service) inTx(dbc dbctx.Context, op string, fn func(dbctx.Context, *gorm.DB) error) error {
	err := dbc.InTx(s.db, func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: dbc.Context(), Tx: tx}, tx)
	})
	return mapError(op, err)
}

// owned loads a tenant scoped row into dest, reporting ErrNotFound for rows of
// other tenants.
func owned(tx *gorm.DB, tenantID, id uint, dest any, kind string) error {
	err := tx.Where("tenant_id = ?", tenantID).First(dest, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(kind, id)
	}
	if err != nil {
		return fmt.Errorf("load %s %d: %w", kind, id, err)
	}
	return nil
}
