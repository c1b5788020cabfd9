package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	otpMin   = 1000
	otpRange = 9000
)

// GenerateOTP returns a uniformly random 4-digit code in the range 1000-9999.
// Codes are not unique across quests.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpRange))
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}
	return fmt.Sprintf("%d", otpMin+n.Int64()), nil
}
