// Copyright (c) 2026 Gatekeeper. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/taibuivan/gatekeeper/internal/platform/database/schema"
	"github.com/taibuivan/gatekeeper/internal/platform/dberr"
	"github.com/taibuivan/gatekeeper/internal/platform/postgres"
	"github.com/taibuivan/gatekeeper/pkg/pagination"
)

// # Repository Implementation

// PostgresRepository implements [Repository] on the users.account table.
type PostgresRepository struct {
	db postgres.Querier
}

// NewPostgresRepository creates a repository over a pool (or any [postgres.Querier]).
func NewPostgresRepository(db postgres.Querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// columns is shorthand for the users.account identifiers.
var columns = schema.UserAccount

var (
	queryFindByEmail = fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s = $1 AND %s = FALSE`,
		columns.SelectList(), columns.Table, columns.Email, columns.Archived)

	queryFindByID = fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s = $1 AND %s = FALSE`,
		columns.SelectList(), columns.Table, columns.ID, columns.Archived)

	queryCountLive = fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = FALSE`,
		columns.Table, columns.Archived)

	queryListLive = fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s = FALSE
		ORDER BY %s DESC, %s DESC
		LIMIT $1 OFFSET $2`,
		columns.SelectList(), columns.Table, columns.Archived, columns.CreatedAt, columns.ID)

	queryInsert = fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, FALSE, $5, $6)`,
		columns.Table, columns.ID, columns.Email, columns.FullName, columns.PasswordHash,
		columns.Archived, columns.CreatedAt, columns.UpdatedAt)

	queryUpdate = fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = $4, %s = $5
		WHERE %s = $1 AND %s = FALSE`,
		columns.Table, columns.Email, columns.FullName, columns.PasswordHash, columns.UpdatedAt,
		columns.ID, columns.Archived)

	querySoftDelete = fmt.Sprintf(`
		UPDATE %s
		SET %s = TRUE, %s = NOW()
		WHERE %s = $1 AND %s = FALSE`,
		columns.Table, columns.Archived, columns.UpdatedAt, columns.ID, columns.Archived)
)

/*
FindByEmail retrieves a live account by email.

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	user, err := scanUser(repository.db.QueryRow(ctx, queryFindByEmail, email))
	if err != nil {
		return nil, dberr.Wrap(err, "postgres_account_find_by_email_failed", resourceUser, msgEmailTaken)
	}
	return user, nil
}

/*
FindByID retrieves a live account by primary key.

A malformed id is reported by Postgres as invalid_text_representation and
surfaces as NotFound.
*/
func (repository *PostgresRepository) FindByID(ctx context.Context, id string) (*User, error) {
	user, err := scanUser(repository.db.QueryRow(ctx, queryFindByID, id))
	if err != nil {
		return nil, dberr.Wrap(err, "postgres_account_find_by_id_failed", resourceUser, msgEmailTaken)
	}
	return user, nil
}

// List returns one page of live accounts, newest first, plus the live total.
func (repository *PostgresRepository) List(ctx context.Context, params pagination.Params) ([]User, int, error) {
	var total int
	if err := repository.db.QueryRow(ctx, queryCountLive).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "postgres_account_count_failed", resourceUser, msgEmailTaken)
	}

	rows, err := repository.db.Query(ctx, queryListLive, params.Limit, params.Offset())
	if err != nil {
		return nil, 0, dberr.Wrap(err, "postgres_account_list_failed", resourceUser, msgEmailTaken)
	}
	defer rows.Close()

	users := make([]User, 0, params.Limit)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "postgres_account_list_scan_failed", resourceUser, msgEmailTaken)
		}
		users = append(users, *user)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "postgres_account_list_rows_failed", resourceUser, msgEmailTaken)
	}

	return users, total, nil
}

/*
Create inserts a new account row.

The partial unique index on live emails turns a concurrent duplicate into a
unique_violation, which is reported as Conflict.
*/
func (repository *PostgresRepository) Create(ctx context.Context, user *User) error {
	_, err := repository.db.Exec(ctx, queryInsert,
		user.ID,
		user.Email,
		user.FullName,
		nullable(user.PasswordHash),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, "postgres_account_create_failed", resourceUser, msgEmailTaken)
	}
	return nil
}

// Update persists the mutable fields of a live account.
func (repository *PostgresRepository) Update(ctx context.Context, user *User) error {
	tag, err := repository.db.Exec(ctx, queryUpdate,
		user.ID,
		user.Email,
		user.FullName,
		nullable(user.PasswordHash),
		user.UpdatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, "postgres_account_update_failed", resourceUser, msgEmailTaken)
	}

	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SoftDelete archives a live account.
func (repository *PostgresRepository) SoftDelete(ctx context.Context, id string) error {
	tag, err := repository.db.Exec(ctx, querySoftDelete, id)
	if err != nil {
		return dberr.Wrap(err, "postgres_account_soft_delete_failed", resourceUser, msgEmailTaken)
	}

	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// # Helpers

// scanUser hydrates a User in [schema.UserAccountTable.Columns] order.
func scanUser(row pgx.Row) (*User, error) {
	var (
		user         User
		passwordHash *string
	)

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.FullName,
		&passwordHash,
		&user.Archived,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if passwordHash != nil {
		user.PasswordHash = *passwordHash
	}
	return &user, nil
}

// nullable maps the empty string to SQL NULL.
func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
