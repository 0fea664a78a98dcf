package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInviteCode(t *testing.T) {
	t.Run("fixed_length_from_alphabet", func(t *testing.T) {
		for i := 0; i < 100; i++ {
			code := NewInviteCode()
			require.Len(t, code, inviteCodeLength)
			for _, r := range code {
				assert.True(t, strings.ContainsRune(inviteCodeAlphabet, r), "unexpected character %q", r)
			}
		}
	})

	t.Run("no_immediate_collisions", func(t *testing.T) {
		seen := map[string]bool{}
		for i := 0; i < 1000; i++ {
			code := NewInviteCode()
			require.False(t, seen[code], "collision on %s", code)
			seen[code] = true
		}
	})
}
