package database

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

// InTx runs fn as one unit of work.
//
// When db is already a transaction handle (fn of an enclosing InTx), fn joins
// it: the statements commit or roll back with the outer unit. Otherwise InTx
// checks out one connection, issues BEGIN, and COMMITs if fn returns nil or
// ROLLBACKs if fn returns an error or panics. The connection goes back to the
// pool on every path.
func InTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if IsTx(db) {
		return fn(db.WithContext(ctx))
	}
	return db.WithContext(ctx).Transaction(fn)
}

// IsTx reports whether db is bound to an open transaction.
func IsTx(db *gorm.DB) bool {
	committer, ok := db.Statement.ConnPool.(gorm.TxCommitter)
	return ok && committer != nil
}

// IsUniqueViolation reports whether err came from a UNIQUE constraint.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || // sqlite
		strings.Contains(msg, "duplicate key value") || // postgres
		strings.Contains(msg, "SQLSTATE 23505")
}
