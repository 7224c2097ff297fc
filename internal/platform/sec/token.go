// Copyright (c) 2026 Inkpress. All rights reserved.
// Author: dev@inkpress.app

package sec

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

// # Secure Random Generation

const (
	// otpMin is the smallest issuable one-time code. The generator range is
	// [otpMin, otpMax), so every code has exactly six digits and a leading
	// zero is impossible by construction.
	otpMin = 100000
	otpMax = 1000000

	// OTPLength is the digit count of issued one-time codes.
	OTPLength = 6
)

// GenerateOTP returns a uniformly random six-digit numeric code as a string.
//
// The value is drawn from crypto/rand; values below 100000 are unreachable.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpMax-otpMin))
	if err != nil {
		return "", fmt.Errorf("sec: failed to generate one-time code: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+otpMin), nil
}

// GenerateToken returns byteLength cryptographically random bytes rendered
// as lowercase hex. Used for reset tokens and opaque session identifiers.
func GenerateToken(byteLength int) (string, error) {
	buf := make([]byte, byteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("sec: failed to generate random token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
