// Copyright (c) 2026 Gatekeeper. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/gatekeeper/internal/platform/sec"
)

func TestHasher_HashAndCompare(t *testing.T) {
	hasher := sec.NewHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("correct horse")
	require.NoError(t, err)

	assert.NotEqual(t, "correct horse", hash)
	assert.True(t, hasher.Compare(hash, "correct horse"))
	assert.False(t, hasher.Compare(hash, "battery staple"))
}

func TestHasher_Salted(t *testing.T) {
	hasher := sec.NewHasher(bcrypt.MinCost)

	first, err := hasher.Hash("same")
	require.NoError(t, err)
	second, err := hasher.Hash("same")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestHasher_EmptyHashNeverMatches(t *testing.T) {
	hasher := sec.NewHasher(bcrypt.MinCost)

	assert.False(t, hasher.Compare("", ""))
	assert.False(t, hasher.Compare("", "anything"))
	assert.False(t, hasher.Compare("not-a-bcrypt-hash", "anything"))
}
