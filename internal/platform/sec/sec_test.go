// Copyright (c) 2026 Inkpress. All rights reserved.
// Author: dev@inkpress.app

package sec_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkpress/inkpress/internal/platform/sec"
)

/*
TestHashSecret_RoundTrip verifies hashing and constant-time comparison.
*/
func TestHashSecret_RoundTrip(t *testing.T) {
	hash, err := sec.HashSecret("longenough1")
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	assert.True(t, sec.CompareSecret("longenough1", hash))
	assert.False(t, sec.CompareSecret("wrong-secret", hash))
	assert.False(t, sec.CompareSecret("", hash))
}

/*
TestHashSecret_Salted verifies two hashes of the same input differ.
*/
func TestHashSecret_Salted(t *testing.T) {
	first, err := sec.HashSecret("123456")
	require.NoError(t, err)
	second, err := sec.HashSecret("123456")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

/*
TestGenerateOTP_Range verifies codes are always six digits and never start
with a zero — values below 100000 must be unreachable.
*/
func TestGenerateOTP_Range(t *testing.T) {
	for i := 0; i < 500; i++ {
		code, err := sec.GenerateOTP()
		require.NoError(t, err)
		require.Len(t, code, sec.OTPLength)

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 100000)
		assert.LessOrEqual(t, n, 999999)
	}
}

/*
TestGenerateToken verifies token length and hex rendering.
*/
func TestGenerateToken(t *testing.T) {
	token, err := sec.GenerateToken(32)
	require.NoError(t, err)

	// 32 random bytes render as 64 hex characters
	assert.Len(t, token, 64)

	other, err := sec.GenerateToken(32)
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}
