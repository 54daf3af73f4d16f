// Copyright (c) 2026 Gatekeeper. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/gatekeeper/internal/platform/apperr"
)

// IsNoRows reports whether err means the query matched no row.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsUniqueViolation reports whether err is a Postgres unique_violation (23505).
func IsUniqueViolation(err error) bool {
	return hasSQLState(err, pgerrcode.UniqueViolation)
}

// IsInvalidInput reports whether Postgres rejected a parameter's text form,
// e.g. a malformed uuid.
func IsInvalidInput(err error) bool {
	return hasSQLState(err, pgerrcode.InvalidTextRepresentation)
}

func hasSQLState(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

// Wrap inspects a database error and classifies it as an [apperr.AppError].
//
// Unique violations become Conflict with conflictMessage; missing rows and
// unparsable keys become NotFound for resource. Anything else is tagged with
// action and surfaced as Internal so the cause is logged but never sent.
func Wrap(err error, action, resource, conflictMessage string) error {
	if err == nil {
		return nil
	}

	switch {
	case IsNoRows(err), IsInvalidInput(err):
		return apperr.NotFound(resource)
	case IsUniqueViolation(err):
		return apperr.Conflict(conflictMessage)
	default:
		return apperr.Internal(fmt.Errorf("%s: %w", action, err))
	}
}
