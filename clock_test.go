package astits

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTimeValue_Before(t *testing.T) {
	a := TimeValue{Sec: 1, Nanosec: 500}
	b := TimeValue{Sec: 1, Nanosec: 501}
	c := TimeValue{Sec: 2, Nanosec: 0}

	assert.True(t, a.Before(b))
	assert.False(t, b.Before(a))
	assert.True(t, b.Before(c))
	assert.False(t, a.Before(a))
	assert.True(t, a.BeforeOrEqual(a))
}

func TestTimeValue_AddNanos_carries(t *testing.T) {
	a := TimeValue{Sec: 1, Nanosec: nanosPerSec - 1}
	got := a.AddNanos(2)
	assert.Equal(t, TimeValue{Sec: 2, Nanosec: 1}, got)
}

func TestTimeValue_AddFraction(t *testing.T) {
	var zero TimeValue
	got := zero.AddFraction(188*8, 1000000) // 1504 bits at 1 Mbit/s
	assert.Equal(t, uint32(0), got.Sec)
	assert.Equal(t, uint32(1504000), got.Nanosec)
}

func TestTimeValue_AddFraction_zeroDenominator(t *testing.T) {
	a := TimeValue{Sec: 5, Nanosec: 5}
	got := a.AddFraction(100, 0)
	assert.Equal(t, a, got)
}

func TestTimeValue_Zero(t *testing.T) {
	assert.True(t, TimeValue{}.Zero())
	assert.False(t, TimeValue{Nanosec: 1}.Zero())
}
