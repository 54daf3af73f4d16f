// Copyright (c) 2026 Gatekeeper. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package normalize cleans user-supplied display text before it is stored.
//
// # Usage
//
// Full names arrive from registration forms and identity providers in arbitrary
// Unicode forms. Storing them in NFC with collapsed whitespace keeps equal-looking
// names byte-equal.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Name converts s to NFC, treats control characters as spaces, and collapses
// runs of whitespace into a single space. Leading and trailing space is trimmed.
func Name(s string) string {
	result := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, norm.NFC.String(s))

	return strings.Join(strings.Fields(result), " ")
}

// Email trims surrounding whitespace. The local part is case-sensitive, so the
// address is otherwise stored as given.
func Email(s string) string {
	return strings.TrimSpace(s)
}
