package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context bundles a request context with an optional GORM transaction.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}

// New returns a Context without a transaction.
func New(ctx context.Context) Context {
	return Context{Ctx: ctx}
}

// Context returns the request context, never nil.
func (c Context) Context() context.Context {
	if c.Ctx == nil {
		return context.Background()
	}
	return c.Ctx
}

// Conn returns the transaction when one is open, db otherwise, bound to the
// request context.
func (c Context) Conn(db *gorm.DB) *gorm.DB {
	if c.Tx != nil {
		return c.Tx.WithContext(c.Context())
	}
	return db.WithContext(c.Context())
}

// InTx runs fn inside the open transaction, or starts one on db.
func (c Context) InTx(db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if c.Tx != nil {
		return fn(c.Tx.WithContext(c.Context()))
	}
	return db.WithContext(c.Context()).Transaction(fn)
}
