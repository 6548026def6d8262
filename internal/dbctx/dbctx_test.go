package dbctx

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"fourneau/internal/testutil"
	"fourneau/models"
)

func TestInTxRollsBackOnError(t *testing.T) {
	t.Parallel()

	db := testutil.OpenDB(t)
	boom := errors.New("boom")

	err := New(context.Background()).InTx(db, func(tx *gorm.DB) error {
		if err := tx.Create(&models.Tenant{Email: "chef@example.com", PasswordHash: "x"}).Error; err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected the callback error, got %v", err)
	}

	var count int64
	db.Model(&models.Tenant{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected the insert to be rolled back, found %d tenants", count)
	}
}

func TestInTxReusesOpenTransaction(t *testing.T) {
	t.Parallel()

	db := testutil.OpenDB(t)
	err := db.Transaction(func(outer *gorm.DB) error {
		dbc := Context{Ctx: context.Background(), Tx: outer}
		if err := dbc.InTx(db, func(tx *gorm.DB) error {
			return tx.Create(&models.Tenant{Email: "chef@example.com", PasswordHash: "x"}).Error
		}); err != nil {
			return err
		}

		// The pool holds a single connection, so this only succeeds on the
		// outer transaction.
		var count int64
		if err := dbc.Conn(db).Model(&models.Tenant{}).Count(&count).Error; err != nil {
			return err
		}
		if count != 1 {
			t.Errorf("expected the tenant to be visible inside the transaction, got %d", count)
		}
		return errors.New("rollback")
	})
	if err == nil {
		t.Fatal("expected the outer transaction to report the rollback")
	}

	var count int64
	db.Model(&models.Tenant{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected the outer rollback to discard the tenant, found %d", count)
	}
}

func TestContextDefaults(t *testing.T) {
	t.Parallel()

	if (Context{}).Context() == nil {
		t.Fatal("expected a background context when none is set")
	}
}
