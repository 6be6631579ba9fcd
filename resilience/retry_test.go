package resilience

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryConfig_DelayCurve(t *testing.T) {
	cfg := RetryConfig{BaseDelay: 250 * time.Millisecond, MaxDelay: 5 * time.Second}

	want := []time.Duration{
		250 * time.Millisecond,
		500 * time.Millisecond,
		time.Second,
		2 * time.Second,
		4 * time.Second,
		5 * time.Second, // capped
		5 * time.Second,
	}
	for i, w := range want {
		assert.Equal(t, w, cfg.Delay(i+1), "attempt %d", i+1)
	}
}

func TestRetryConfig_JitterBounds(t *testing.T) {
	cfg := RetryConfig{BaseDelay: time.Second, MaxDelay: time.Minute, JitterFraction: 0.2}

	for i := 0; i < 200; i++ {
		d := cfg.Delay(1)
		assert.GreaterOrEqual(t, d, 800*time.Millisecond)
		assert.LessOrEqual(t, d, 1200*time.Millisecond)
	}
}

func TestRetryConfig_DelayFloorsAttempt(t *testing.T) {
	cfg := RetryConfig{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second}
	assert.Equal(t, cfg.Delay(1), cfg.Delay(0), "attempts below 1 are treated as the first attempt")
}

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.BaseDelay)
	assert.Equal(t, 5*time.Second, cfg.MaxDelay)
	assert.Equal(t, 0.2, cfg.JitterFraction)
}
