package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusCanLogin(t *testing.T) {
	t.Parallel()

	require.True(t, StatusApproved.CanLogin())
	require.False(t, StatusPending.CanLogin())
	require.False(t, StatusAgePending.CanLogin())
	require.False(t, StatusSuspended.CanLogin())
}

func TestStatusTransitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from, to Status
		ok       bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusSuspended, true},
		{StatusAgePending, StatusApproved, true},
		{StatusApproved, StatusSuspended, true},
		{StatusSuspended, StatusApproved, true},
		{StatusApproved, StatusPending, false},
		{StatusSuspended, StatusPending, false},
		{StatusApproved, StatusApproved, false},
		{StatusPending, Status("deleted"), false},
	}

	for _, tc := range tests {
		require.Equal(t, tc.ok, tc.from.CanTransition(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestStatusValid(t *testing.T) {
	t.Parallel()

	require.True(t, StatusAgePending.Valid())
	require.False(t, Status("banned").Valid())
}
