package lifecycle

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allStatuses = []string{StatusConfirmed, StatusSeated, StatusCompleted, StatusCancelled, StatusNoShow}

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		from, to string
		ok       bool
	}{
		{StatusConfirmed, StatusSeated, true},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusNoShow, true},
		{StatusSeated, StatusCompleted, true},
		{StatusNoShow, StatusConfirmed, true},

		{StatusSeated, StatusCancelled, false},
		{StatusSeated, StatusNoShow, false},
		{StatusCompleted, StatusConfirmed, false},
		{StatusCompleted, StatusSeated, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCancelled, StatusCompleted, false},
		{StatusNoShow, StatusCompleted, false},
		{StatusNoShow, StatusCancelled, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

// TestRandomSequencesStayOnEdges drives the machine with random
// transition attempts and verifies the reachable status is always the
// result of a legal edge. Completed and cancelled must be inescapable.
func TestRandomSequencesStayOnEdges(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for run := 0; run < 200; run++ {
		status := []string{StatusConfirmed, StatusSeated}[rng.Intn(2)]
		for step := 0; step < 50; step++ {
			next := allStatuses[rng.Intn(len(allStatuses))]
			if CanTransition(status, next) {
				require.True(t, Valid(next))
				if status == StatusCompleted || status == StatusCancelled {
					t.Fatalf("escaped terminal state %s -> %s", status, next)
				}
				status = next
			}
		}
	}
}

func TestCompleteGuards(t *testing.T) {
	require.NoError(t, Complete(StatusConfirmed))
	require.NoError(t, Complete(StatusSeated))
	assert.ErrorIs(t, Complete(StatusCompleted), ErrAlreadySettled)
	assert.ErrorIs(t, Complete(StatusCancelled), ErrAlreadySettled)
	assert.ErrorIs(t, Complete(StatusNoShow), ErrAlreadySettled)
}

func TestCancelWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	buffer := 2 * time.Hour

	// Start in one hour: inside the buffer, must be refused.
	err := Cancel(StatusConfirmed, now.Add(1*time.Hour), now, buffer)
	assert.ErrorIs(t, err, ErrCancellationWindowExpired)

	// Start in three hours: outside the buffer, allowed.
	require.NoError(t, Cancel(StatusConfirmed, now.Add(3*time.Hour), now, buffer))

	// Zero buffer disables the guard explicitly.
	require.NoError(t, Cancel(StatusConfirmed, now.Add(1*time.Minute), now, 0))

	// Window never rescues an illegal edge.
	assert.ErrorIs(t, Cancel(StatusSeated, now.Add(24*time.Hour), now, buffer), ErrInvalidTransition)
	assert.ErrorIs(t, Cancel(StatusCompleted, now.Add(24*time.Hour), now, buffer), ErrInvalidTransition)
}

func TestNoShowAndForgive(t *testing.T) {
	require.NoError(t, MarkNoShow(StatusConfirmed))
	assert.ErrorIs(t, MarkNoShow(StatusSeated), ErrInvalidTransition)
	assert.ErrorIs(t, MarkNoShow(StatusCompleted), ErrInvalidTransition)

	require.NoError(t, Forgive(StatusNoShow))
	assert.ErrorIs(t, Forgive(StatusCancelled), ErrInvalidTransition)
	assert.ErrorIs(t, Forgive(StatusCompleted), ErrInvalidTransition)
}
