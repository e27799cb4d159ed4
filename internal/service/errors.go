package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/YLCALP/ciftlik360-master-sub000/internal/model"
)

// ValidationError rejects malformed input before any write happens.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func invalid(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// fieldErrors accumulates validation failures so callers see all of them.
type fieldErrors map[string]string

func (f fieldErrors) add(field, msg string) {
	if _, exists := f[field]; !exists {
		f[field] = msg
	}
}

// Column scales: money is stored with 2 decimals, quantities and rates
// with 3.
const (
	moneyScale    int32 = 2
	quantityScale int32 = 3
)

// scale rejects a value with more decimals than its column keeps, so what
// is validated is exactly what gets stored.
func (f fieldErrors) scale(field string, d decimal.Decimal, places int32) {
	if !d.Equal(d.Truncate(places)) {
		f.add(field, fmt.Sprintf("at most %d decimal places", places))
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}

// InsufficientStockError is returned by hard-fail deductions.
type InsufficientStockError struct {
	FeedLotID uuid.UUID
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock in feed lot %s: available %s, requested %s",
		e.FeedLotID, e.Available.String(), e.Requested.String())
}

// InvalidTransitionError rejects status changes out of a terminal state.
type InvalidTransitionError struct {
	AnimalID uuid.UUID
	From     model.AnimalStatus
	To       model.AnimalStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("animal %s cannot move from %s to %s", e.AnimalID, e.From, e.To)
}

// NotFoundError means the id does not exist for the calling owner.
type NotFoundError struct {
	Resource string
	ID       uuid.UUID
}

func (e *NotFoundError) Error() string {
	if e.ID == uuid.Nil {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ConflictError rejects a well-formed request that the current state of the
// resource does not allow (referenced lot, locked animal, double reversal).
type ConflictError struct {
	Resource string
	ID       uuid.UUID
	Reason   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Resource, e.ID, e.Reason)
}

// notFoundOr converts gorm.ErrRecordNotFound into a NotFoundError and wraps
// anything else.
func notFoundOr(err error, resource string, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Resource: resource, ID: id}
	}
	return fmt.Errorf("load %s %s: %w", resource, id, err)
}
