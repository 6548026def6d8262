package composition

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation tags every rejected component mutation.
	ErrValidation = errors.New("invalid composition")

	ErrInvalidComponent   = errors.New("invalid component")
	ErrSelfReference      = errors.New("recipe cannot contain itself")
	ErrDuplicateComponent = errors.New("component already present in recipe")
	ErrTargetNotFound     = errors.New("component target not found")
	ErrTenantMismatch     = errors.New("component belongs to another tenant")
	ErrNotSellable        = errors.New("recipe is not sellable as a component")
	ErrCircularReference  = errors.New("sub-recipe already contains the parent recipe")
	ErrMaxDepth           = errors.New("sub-recipes cannot be nested more than one level")
)

// Violation is a rejected component mutation. It matches both ErrValidation
// and the rule that failed.
type Violation struct {
	Rule   error
	Detail string
}

func (v *Violation) Error() string {
	if v.Detail == "" {
		return v.Rule.Error()
	}
	return fmt.Sprintf("%s: %s", v.Rule, v.Detail)
}

func (v *Violation) Unwrap() []error {
	return []error{ErrValidation, v.Rule}
}

func violation(rule error, format string, args ...any) error {
	return &Violation{Rule: rule, Detail: fmt.Sprintf(format, args...)}
}
