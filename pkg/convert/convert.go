// Copyright (c) 2026 Gatekeeper. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package convert provides fault-tolerant string conversions for request parsing.

Do not use this package if distinguishing between malformed data and zero values
is important in your domain logic; use [strconv] directly instead.
*/
package convert

import "strconv"

// IntOr parses s as a base-10 integer, returning fallback when s is empty or
// malformed.
func IntOr(s string, fallback int) int {
	if s == "" {
		return fallback
	}

	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return fallback
}
