package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateInviteCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := GenerateInviteCode()
		require.NoError(t, err)
		assert.Len(t, code, InviteCodeLength)
		for _, ch := range code {
			assert.True(t, strings.ContainsRune(inviteCodeCharset, ch),
				"unexpected character %q in code %s", ch, code)
		}
		assert.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}
}

func TestNormalizeInviteCode(t *testing.T) {
	assert.Equal(t, "AB23CD", NormalizeInviteCode("  ab23cd "))
	assert.Equal(t, "XYZXYZ", NormalizeInviteCode("XYZXYZ"))
}
