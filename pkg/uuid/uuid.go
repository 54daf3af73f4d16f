// Copyright (c) 2026 Gatekeeper. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package uuid provides the identifier helpers used across Gatekeeper.

Account ids are Version 7 values: time-ordered, so the users.account primary key
index stays append-friendly and "newest first" listings follow insertion order.
Token ids (jti) and request ids reuse the same generator.
*/
package uuid

import "github.com/google/uuid"

// # Generators

// New generates a new UUIDv7 string.
func New() string {
	id, err := uuid.NewV7()

	// entropy failure is an unrecoverable system-level error
	if err != nil {
		panic("uuid: failed to generate UUIDv7: " + err.Error())
	}

	return id.String()
}

// # Validation

// IsValid reports whether s is a well-formed UUID in canonical form.
func IsValid(s string) bool {
	if len(s) != 36 {
		return false
	}
	return uuid.Validate(s) == nil
}
