// Copyright (c) 2026 Gatekeeper. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes and compares passwords with bcrypt.
type Hasher struct {
	cost int

	// dummy is compared against when an account has no usable hash, so the
	// caller spends the same time whether or not the account exists.
	dummy []byte
}

// NewHasher creates a [Hasher]. A cost outside bcrypt's range falls back to
// [bcrypt.DefaultCost].
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("gatekeeper-timing-equalizer"), cost)
	if err != nil {
		panic("sec: failed to prepare dummy hash: " + err.Error())
	}

	return &Hasher{cost: cost, dummy: dummy}
}

// Hash hashes a plain-text password.
func (hasher *Hasher) Hash(plainTextPassword string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plainTextPassword), hasher.cost)
	if err != nil {
		return "", fmt.Errorf("sec: failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// Compare reports whether plainTextPassword matches existingHash.
//
// An empty hash never matches, but still costs one bcrypt comparison.
func (hasher *Hasher) Compare(existingHash, plainTextPassword string) bool {
	if existingHash == "" {
		_ = bcrypt.CompareHashAndPassword(hasher.dummy, []byte(plainTextPassword))
		return false
	}

	err := bcrypt.CompareHashAndPassword([]byte(existingHash), []byte(plainTextPassword))
	return err == nil
}
