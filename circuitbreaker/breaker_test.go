// Copyright 2025 AndeLabs. All rights reserved.
// See the file LICENSE for licensing terms.

package circuitbreaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func withFakeClock(t *testing.T, start time.Time) func(advance time.Duration) {
	t.Helper()
	now := start
	nowFunc = func() time.Time { return now }
	t.Cleanup(func() { nowFunc = time.Now })
	return func(advance time.Duration) { now = now.Add(advance) }
}

func TestTripsOnExactlyThreshold(t *testing.T) {
	advance := withFakeClock(t, time.Unix(0, 0))
	b := New(5, 30*time.Second)

	for i := 0; i < 4; i++ {
		b.RecordFailure()
		require.Equal(t, Closed, b.State())
	}
	advance(0)
	b.RecordFailure()
	require.Equal(t, Open, b.State())
	require.True(t, b.IsOpen())
}

func TestHalfOpenAfterTimeout(t *testing.T) {
	advance := withFakeClock(t, time.Unix(0, 0))
	b := New(1, 30*time.Second)
	b.RecordFailure()
	require.True(t, b.IsOpen())

	advance(30*time.Second + time.Nanosecond)
	require.False(t, b.IsOpen())
	require.Equal(t, HalfOpen, b.State())
}

func TestHalfOpenSuccessCloses(t *testing.T) {
	advance := withFakeClock(t, time.Unix(0, 0))
	b := New(1, 30*time.Second)
	b.RecordFailure()
	advance(31 * time.Second)
	require.False(t, b.IsOpen())
	b.RecordSuccess()
	require.Equal(t, Closed, b.State())
	require.Equal(t, int64(0), b.Failures())
}

func TestHalfOpenFailureReopens(t *testing.T) {
	advance := withFakeClock(t, time.Unix(0, 0))
	b := New(1, 30*time.Second)
	b.RecordFailure()
	advance(31 * time.Second)
	require.False(t, b.IsOpen())
	b.RecordFailure()
	require.Equal(t, Open, b.State())
}

func TestClosedSuccessResetsFailures(t *testing.T) {
	b := New(5, 30*time.Second)
	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()
	require.Equal(t, int64(0), b.Failures())
	require.Equal(t, Closed, b.State())
}
