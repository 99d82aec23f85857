package backoff_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/leaddesk/authkit/pkg/backoff"
)

func TestExponential_NextDelay(t *testing.T) {
	t.Parallel()

	t.Run("doubles per attempt", func(t *testing.T) {
		t.Parallel()

		s := backoff.Exponential{Base: time.Second, Max: 8 * time.Second, Multiplier: 2}

		assert.Equal(t, 1*time.Second, s.NextDelay(1))
		assert.Equal(t, 2*time.Second, s.NextDelay(2))
		assert.Equal(t, 4*time.Second, s.NextDelay(3))
		assert.Equal(t, 8*time.Second, s.NextDelay(4))
	})

	t.Run("caps at max", func(t *testing.T) {
		t.Parallel()

		s := backoff.Exponential{Base: time.Second, Max: 8 * time.Second, Multiplier: 2}

		assert.Equal(t, 8*time.Second, s.NextDelay(10))
	})

	t.Run("zero for non-positive attempt", func(t *testing.T) {
		t.Parallel()

		s := backoff.Exponential{Base: time.Second}

		assert.Equal(t, time.Duration(0), s.NextDelay(0))
		assert.Equal(t, time.Duration(0), s.NextDelay(-1))
	})

	t.Run("jitter stays within bounds", func(t *testing.T) {
		t.Parallel()

		s := backoff.Exponential{Base: time.Second, Max: time.Minute, Multiplier: 2, Jitter: 0.1}

		for range 100 {
			d := s.NextDelay(2)
			assert.GreaterOrEqual(t, d, time.Duration(float64(2*time.Second)*0.9))
			assert.LessOrEqual(t, d, time.Duration(float64(2*time.Second)*1.1))
		}
	})

	t.Run("defaults applied for zero values", func(t *testing.T) {
		t.Parallel()

		s := backoff.Exponential{}

		assert.Equal(t, time.Second, s.NextDelay(1))
		assert.Equal(t, 8*time.Second, s.NextDelay(5))
	})
}

func TestFixed_NextDelay(t *testing.T) {
	t.Parallel()

	s := backoff.Fixed{Interval: 3 * time.Second}

	assert.Equal(t, 3*time.Second, s.NextDelay(1))
	assert.Equal(t, 3*time.Second, s.NextDelay(7))
	assert.Equal(t, time.Duration(0), s.NextDelay(0))
}
