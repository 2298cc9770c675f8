// Package repository defines the storage contract behind every scoped
// entity collection and its remote implementation over gorm.
package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/XTREM35000/core-toolkit-app-sub001/internal/entity"

	"gorm.io/gorm"
)

// Scope restricts an operation to one tenant. The zero Scope is unscoped.
type Scope struct {
	TenantID string
}

// Scoped reports whether a tenant filter applies
func (s Scope) Scoped() bool {
	return s.TenantID != ""
}

// Repository stores the rows of one entity
type Repository interface {
	List(ctx context.Context, scope Scope) ([]entity.Record, error)
	Create(ctx context.Context, scope Scope, rec entity.Record) (entity.Record, error)
	Update(ctx context.Context, scope Scope, id string, patch entity.Record) (entity.Record, error)
	Remove(ctx context.Context, scope Scope, id string) error
}

// Kind classifies a failed query
type Kind string

const (
	// KindUnavailable means the store could not be reached
	KindUnavailable Kind = "unavailable"
	// KindNotFound means no row matched the id (and tenant)
	KindNotFound Kind = "not_found"
	// KindRejected means the store answered with an error
	KindRejected Kind = "rejected"
)

// ErrNotFound is wrapped by not_found query errors
var ErrNotFound = errors.New("record not found")

// QueryError is returned by every Repository method on failure
type QueryError struct {
	Op    string
	Table string
	Kind  Kind
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Table, e.Kind, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a QueryError anywhere in err's chain, or "".
func KindOf(err error) Kind {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Kind
	}
	return ""
}

// IsNotFound reports whether err is a not_found query error
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// Wrap builds a QueryError, classifying err when kind is empty
func Wrap(op, table string, kind Kind, err error) error {
	if err == nil {
		return nil
	}
	if kind == "" {
		kind = classify(err)
	}
	return &QueryError{Op: op, Table: table, Kind: kind, Err: err}
}

func classify(err error) Kind {
	var netErr net.Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.As(err, &netErr):
		return KindUnavailable
	default:
		return KindRejected
	}
}
