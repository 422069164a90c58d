package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestScheduler_ScheduleRepublish(t *testing.T) {
	t.Run("returns job id for valid interval", func(t *testing.T) {
		s, err := NewScheduler()
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Stop() })

		id, err := s.ScheduleRepublish(10*time.Second, func() {})
		require.NoError(t, err)
		require.NotEmpty(t, id)
	})

	t.Run("rejects non-positive interval", func(t *testing.T) {
		s, err := NewScheduler()
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Stop() })

		_, err = s.ScheduleRepublish(0, func() {})
		require.Error(t, err)
	})
}

func TestScheduler_RunsJobOnInterval(t *testing.T) {
	s, err := NewScheduler()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })

	ticks := make(chan struct{}, 16)
	_, err = s.ScheduleRepublish(50*time.Millisecond, func() {
		select {
		case ticks <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)
	s.Start()

	for i := 0; i < 2; i++ {
		select {
		case <-ticks:
		case <-time.After(3 * time.Second):
			t.Fatalf("tick %d did not fire", i+1)
		}
	}
}
