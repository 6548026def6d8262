package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"fourneau/internal/composition"
	"fourneau/models"
)

var (
	// ErrValidation indicates the caller sent input that breaks a rule.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound indicates the record does not exist for the tenant.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a uniqueness clash, usually a duplicate name.
	ErrConflict = errors.New("conflict")
	// ErrInUse indicates the record is still referenced elsewhere.
	ErrInUse = errors.New("in use")
)

func validationError(msg string) error {
	return errors.Join(ErrValidation, errors.New(strings.TrimSpace(msg)))
}

func notFound(kind string, id uint) error {
	return errors.Join(ErrNotFound, fmt.Errorf("%s %d", kind, id))
}

func inUse(msg string) error {
	return errors.Join(ErrInUse, errors.New(strings.TrimSpace(msg)))
}

// mapError tags infrastructure and model failures with the catalog error
// kinds. Errors already tagged pass through.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range []error{ErrValidation, ErrNotFound, ErrConflict, ErrInUse} {
		if errors.Is(err, kind) {
			return err
		}
	}

	var invalid *models.ValidationError
	switch {
	case errors.As(err, &invalid), errors.Is(err, composition.ErrValidation):
		return errors.Join(ErrValidation, err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errors.Join(ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505":
			return errors.Join(ErrConflict, err) // unique_violation
		case "23503":
			return errors.Join(ErrInUse, err) // foreign_key_violation
		case "23514":
			return errors.Join(ErrValidation, err) // check_violation
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "unique constraint failed"):
		return errors.Join(ErrConflict, err)
	case strings.Contains(msg, "foreign key constraint failed"):
		return errors.Join(ErrInUse, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
