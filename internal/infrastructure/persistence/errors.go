package persistence

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

type errorKind int

const (
	kindNone errorKind = iota
	kindDuplicate
	kindTransient // serialization failure, deadlock, sqlite busy: safe to rerun the transaction
	kindLockTimeout
	kindTimeout
)

// classify inspects driver errors structurally. Message text is never matched.
func classify(err error) errorKind {
	if err == nil {
		return kindNone
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return kindDuplicate
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return kindDuplicate
		case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected:
			return kindTransient
		case pgerrcode.LockNotAvailable:
			return kindLockTimeout
		case pgerrcode.QueryCanceled:
			return kindTimeout
		}
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return kindDuplicate
		}
		switch liteErr.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return kindTransient
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return kindTimeout
	}
	return kindNone
}

// isTransient reports whether the whole transaction may be rerun
func isTransient(err error) bool {
	return classify(err) == kindTransient
}

// translate maps driver failures onto domain errors. Errors that are
// already domain errors, and unclassified errors, pass through unchanged.
func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}
	switch classify(err) {
	case kindDuplicate:
		return shared.WrapDomainError(shared.CodeAlreadyExists, what+" already exists", err)
	case kindTransient:
		return shared.WrapDomainError(shared.CodeRetryable, "Concurrent update conflict, please retry", err)
	case kindLockTimeout:
		return shared.WrapDomainError(shared.CodeRetryable, "Timed out waiting for a lock, please retry", err)
	case kindTimeout:
		return shared.WrapDomainError(shared.CodeRetryable, "Operation timed out, please retry", err)
	}
	return err
}

// notFound converts gorm.ErrRecordNotFound into a NOT_FOUND domain error
func notFound(err error, resource string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.NewNotFoundError(resource, id)
	}
	return translate(err, resource)
}
