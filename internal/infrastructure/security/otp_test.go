package security

import (
	"bytes"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOTPGenerator_CodeRangeAndExpiry(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	g := NewOTPGenerator(0)
	g.now = func() time.Time { return now }

	for i := 0; i < 500; i++ {
		ch, err := g.Issue()
		require.NoError(t, err)
		require.Len(t, ch.Code, 4)

		n, err := strconv.Atoi(ch.Code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 1000)
		assert.LessOrEqual(t, n, 9999)
		assert.Equal(t, now.Add(10*time.Minute), ch.ExpiresAt)
	}
}

func TestOTPGenerator_CustomTTL(t *testing.T) {
	now := time.Now().UTC()
	g := NewOTPGenerator(time.Minute)
	g.now = func() time.Time { return now }

	ch, err := g.Issue()
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Minute), ch.ExpiresAt)
}

func TestOTPGenerator_RandomSourceFailure(t *testing.T) {
	g := NewOTPGenerator(0)
	g.random = bytes.NewReader(nil)

	_, err := g.Issue()
	assert.Error(t, err)
}
