package crypto

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRandBytes_RejectsEmpty(t *testing.T) {
	_, err := RandBytes(nil)
	require.Error(t, err)
}

func TestNewToken_IsHexAndUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		tok, err := NewToken()
		require.NoError(t, err)
		require.Len(t, tok, 32)
		require.False(t, seen[tok])
		seen[tok] = true
	}
}

func TestNewPairingCode_SixDigits(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := NewPairingCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		require.GreaterOrEqual(t, n, 100000)
		require.LessOrEqual(t, n, 999999)
	}
}
