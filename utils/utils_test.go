package utils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestSeenSet(t *testing.T) {
	s := NewSeenSet()
	assert.True(t, s.Add("Delta|$432|8:00 AM"))
	assert.False(t, s.Add("Delta|$432|8:00 AM"))
	assert.True(t, s.Add("Delta|$399|8:00 AM"))
	assert.False(t, s.Add("Delta|$399|8:00 AM"))
	assert.True(t, s.Add(""))
	assert.Len(t, s, 3)
}

func TestRateLimiterSpacesRequests(t *testing.T) {
	r := NewRateLimiter(50)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, r.Wait(ctx))
	require.NoError(t, r.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestRateLimiterHonoursCancellation(t *testing.T) {
	r := NewRateLimiter(int(time.Hour / time.Millisecond))
	require.NoError(t, r.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, r.Wait(ctx))
}

func TestRateLimiterDisabled(t *testing.T) {
	r := NewRateLimiter(0)
	for i := 0; i < 5; i++ {
		require.NoError(t, r.Wait(context.Background()))
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))

	l := NewNopLogger().With("run_id", "abc")
	l.Info("nothing %d", 1)
	l.Sync()
}
