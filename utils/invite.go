package utils

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// InviteCodeLength is fixed at 6; codes are shared verbally between
// teammates so ambiguous characters (0/O, 1/I) are excluded.
const (
	InviteCodeLength  = 6
	inviteCodeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// GenerateInviteCode returns a 6-character uppercase code. Uniqueness is
// enforced by the database index; callers retry on collision.
func GenerateInviteCode() (string, error) {
	code := make([]byte, InviteCodeLength)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(inviteCodeCharset))))
		if err != nil {
			return "", err
		}
		code[i] = inviteCodeCharset[num.Int64()]
	}
	return string(code), nil
}

// NormalizeInviteCode uppercases a user-supplied code so lookup is
// case-insensitive.
func NormalizeInviteCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
