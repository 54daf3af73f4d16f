// Copyright (c) 2026 Gatekeeper. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package schema holds table and column identifiers for hand-written SQL.
package schema

import (
	"strings"

	"github.com/taibuivan/gatekeeper/internal/platform/constants"
)

// UserAccountTable represents the 'users.account' table
type UserAccountTable struct {
	Table        string
	ID           string
	Email        string
	FullName     string
	PasswordHash string
	Archived     string
	CreatedAt    string
	UpdatedAt    string
}

// UserAccount is the schema definition for users.account
var UserAccount = UserAccountTable{
	Table:        constants.SchemaUsers + ".account",
	ID:           "id",
	Email:        "email",
	FullName:     "fullname",
	PasswordHash: "passwordhash",
	Archived:     "archived",
	CreatedAt:    "createdat",
	UpdatedAt:    "updatedat",
}

// Columns returns the columns every account read selects, in scan order.
func (t UserAccountTable) Columns() []string {
	return []string{
		t.ID, t.Email, t.FullName, t.PasswordHash, t.Archived, t.CreatedAt, t.UpdatedAt,
	}
}

// SelectList returns [UserAccountTable.Columns] as a comma-separated list.
func (t UserAccountTable) SelectList() string {
	return strings.Join(t.Columns(), ", ")
}
