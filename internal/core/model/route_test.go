package model

import (
	"math/rand"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoute_Visitation(t *testing.T) {
	tests := []struct {
		name     string
		route    Route
		expected []string
	}{
		{
			name:     "permutation applied to collections",
			route:    Route{Collections: []string{"A", "B", "C"}, OptimizedOrder: []int{2, 0, 1}},
			expected: []string{"C", "A", "B"},
		},
		{
			name:     "identity order",
			route:    Route{Collections: []string{"A", "B"}, OptimizedOrder: []int{0, 1}},
			expected: []string{"A", "B"},
		},
		{
			name:     "empty route",
			route:    Route{},
			expected: []string{},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.expected, test.route.Visitation())
		})
	}
}

func TestRoute_Reconcile(t *testing.T) {
	tests := []struct {
		name          string
		route         Route
		expectedOrder []int
		expectedErr   error
	}{
		{
			name:          "shorter order is repaired to identity",
			route:         Route{Collections: []string{"a", "b", "c"}, OptimizedOrder: []int{1}},
			expectedOrder: []int{0, 1, 2},
		},
		{
			name:          "longer order is repaired to identity",
			route:         Route{Collections: []string{"a"}, OptimizedOrder: []int{0, 1}},
			expectedOrder: []int{0},
		},
		{
			name:          "order left over on an empty route is dropped",
			route:         Route{OptimizedOrder: []int{0}},
			expectedOrder: []int{},
		},
		{
			name:          "valid permutation is kept",
			route:         Route{Collections: []string{"a", "b", "c"}, OptimizedOrder: []int{2, 0, 1}},
			expectedOrder: []int{2, 0, 1},
		},
		{
			name:        "duplicate index is rejected",
			route:       Route{Collections: []string{"a", "b"}, OptimizedOrder: []int{1, 1}},
			expectedErr: ErrOrderingInvariant,
		},
		{
			name:        "out of range index is rejected",
			route:       Route{Collections: []string{"a", "b"}, OptimizedOrder: []int{0, 2}},
			expectedErr: ErrOrderingInvariant,
		},
		{
			name:        "negative index is rejected",
			route:       Route{Collections: []string{"a", "b"}, OptimizedOrder: []int{-1, 0}},
			expectedErr: ErrOrderingInvariant,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.route.Reconcile()
			if test.expectedErr != nil {
				assert.ErrorIs(t, err, test.expectedErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, test.expectedOrder, test.route.OptimizedOrder)
			require.NotNil(t, test.route.Collections)
		})
	}
}

func TestRoute_AddCollection(t *testing.T) {
	route := &Route{Collections: []string{"a", "b"}, OptimizedOrder: []int{1, 0}}

	require.True(t, route.AddCollection("c"))
	require.Equal(t, []string{"a", "b", "c"}, route.Collections)
	require.Equal(t, []int{0, 1, 2}, route.OptimizedOrder)

	require.False(t, route.AddCollection("b"), "members are not duplicated")
	require.Equal(t, []string{"a", "b", "c"}, route.Collections)
}

func TestRoute_RemoveCollection(t *testing.T) {
	t.Run("removing the only collection empties both slices", func(t *testing.T) {
		route := &Route{Collections: []string{"a"}, OptimizedOrder: []int{0}}
		require.True(t, route.RemoveCollection("a"))
		require.Equal(t, []string{}, route.Collections)
		require.Equal(t, []int{}, route.OptimizedOrder)
	})

	t.Run("removal resets the order to identity", func(t *testing.T) {
		route := &Route{Collections: []string{"a", "b", "c"}, OptimizedOrder: []int{2, 1, 0}}
		require.True(t, route.RemoveCollection("b"))
		require.Equal(t, []string{"a", "c"}, route.Collections)
		require.Equal(t, []int{0, 1}, route.OptimizedOrder)
	})

	t.Run("non member is a no-op", func(t *testing.T) {
		route := &Route{Collections: []string{"a", "b"}, OptimizedOrder: []int{1, 0}}
		require.False(t, route.RemoveCollection("z"))
		require.Equal(t, []int{1, 0}, route.OptimizedOrder)
	})

	t.Run("does not alias the previous backing array", func(t *testing.T) {
		route := &Route{Collections: []string{"a", "b", "c"}, OptimizedOrder: []int{0, 1, 2}}
		before := route.Clone()
		route.RemoveCollection("a")
		require.Equal(t, []string{"a", "b", "c"}, before.Collections)
	})
}

func TestRoute_MembershipSequencesKeepPermutation(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	route := &Route{}
	for step := 0; step < 500; step++ {
		id := "r" + strconv.Itoa(rnd.Intn(12))
		if rnd.Intn(2) == 0 {
			route.AddCollection(id)
		} else {
			route.RemoveCollection(id)
		}
		require.NoError(t, route.Reconcile())
		require.Len(t, route.OptimizedOrder, len(route.Collections))
		require.NoError(t, ValidatePermutation(route.OptimizedOrder, len(route.Collections)))
	}
}

func TestRoute_Advance(t *testing.T) {
	tests := []struct {
		name        string
		from        RouteStatus
		to          RouteStatus
		expectedErr error
	}{
		{name: "planned to active", from: RoutePlanned, to: RouteActive},
		{name: "active to completed", from: RouteActive, to: RouteCompleted},
		{name: "planned to completed skips a step", from: RoutePlanned, to: RouteCompleted, expectedErr: ErrInvalidTransition},
		{name: "active back to planned", from: RouteActive, to: RoutePlanned, expectedErr: ErrInvalidTransition},
		{name: "completed is terminal", from: RouteCompleted, to: RouteActive, expectedErr: ErrInvalidTransition},
		{name: "same status", from: RoutePlanned, to: RoutePlanned, expectedErr: ErrInvalidTransition},
		{name: "unknown status", from: RoutePlanned, to: "archived", expectedErr: ErrInvalidTransition},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			route := &Route{Status: test.from}
			err := route.Advance(test.to)
			if test.expectedErr != nil {
				assert.ErrorIs(t, err, test.expectedErr)
				require.Equal(t, test.from, route.Status)
				return
			}
			require.NoError(t, err)
			require.Equal(t, test.to, route.Status)
		})
	}

	route := &Route{Status: RoutePlanned}
	require.NoError(t, route.Advance(RouteActive))
	require.NoError(t, route.Advance(RouteCompleted))
}

func TestDay(t *testing.T) {
	cet := time.FixedZone("CET", 60*60)

	morning := time.Date(2026, 3, 4, 7, 30, 0, 0, time.UTC)
	evening := time.Date(2026, 3, 4, 22, 15, 0, 0, time.UTC)
	require.Equal(t, Day(morning, time.UTC), Day(evening, time.UTC))
	require.Equal(t, time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), Day(evening, nil))

	// 23:30 UTC is already the next day in CET
	late := time.Date(2026, 3, 4, 23, 30, 0, 0, time.UTC)
	require.Equal(t, time.Date(2026, 3, 5, 0, 0, 0, 0, cet), Day(late, cet))
}
