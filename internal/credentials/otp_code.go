package credentials

import (
	"crypto/rand"
	"math/big"
	"strconv"
)

const (
	// MinOTPCode and MaxOTPCode bound the six-digit codes mailed to users.
	MinOTPCode = 100000
	MaxOTPCode = 999999
)

var otpSpan = big.NewInt(MaxOTPCode - MinOTPCode + 1)

// GenerateOTPCode returns a uniformly random six-digit code in
// [MinOTPCode, MaxOTPCode], so it never has a leading zero.
func GenerateOTPCode() (string, error) {
	num, err := rand.Int(rand.Reader, otpSpan)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(num.Int64()+MinOTPCode, 10), nil
}
