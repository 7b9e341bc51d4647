package repository

import (
	"errors"

	"github.com/amirasaad/ledger/pkg/domain/account"
	"gorm.io/gorm"
)

// MapGormErrorToDomain converts GORM errors raised by account queries to domain errors.
// This keeps infrastructure concerns (database errors) within the infrastructure layer.
// Traverses the error chain to find GORM errors and maps them to appropriate domain errors.
func MapGormErrorToDomain(err error) error {
	return mapGormError(err, account.ErrAccountNotFound, account.ErrAccountAlreadyExists)
}

// mapTransactionError converts GORM errors raised by log queries. A duplicate row in the
// log means the record id or idempotency key was already committed.
func mapTransactionError(err error) error {
	return mapGormError(err, account.ErrTransactionNotFound, account.ErrConflict)
}

func mapGormError(err, notFound, duplicated error) error {
	if err == nil {
		return nil
	}

	// GORM wraps database errors, so we check each level
	currentErr := err
	for currentErr != nil {
		switch {
		case errors.Is(currentErr, gorm.ErrDuplicatedKey):
			return duplicated
		case errors.Is(currentErr, gorm.ErrRecordNotFound):
			return notFound
		}

		currentErr = errors.Unwrap(currentErr)
	}

	// Return original error if no mapping found
	return err
}

// WrapError wraps a GORM operation and automatically maps errors.
//
// Usage:
//
//	err := WrapError(func() error {
//	    return r.db.WithContext(ctx).Create(&m).Error
//	})
func WrapError(op func() error) error {
	return MapGormErrorToDomain(op())
}
