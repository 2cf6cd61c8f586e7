package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zillah777/fixia.com.ar-sub001/internal/model"
)

func TestCanTransition(t *testing.T) {
	terminals := []model.MatchStatus{
		model.StatusCompleted,
		model.StatusDisputed,
		model.StatusCancelled,
		model.StatusUnsuccessful,
	}

	for _, to := range terminals {
		require.True(t, CanTransition(model.StatusActive, to), "active -> %s must be allowed", to)
	}

	// Terminal states admit no outgoing transitions, not even back to
	// active or to another terminal.
	all := append([]model.MatchStatus{model.StatusActive}, terminals...)
	for _, from := range terminals {
		for _, to := range all {
			require.False(t, CanTransition(from, to), "%s -> %s must be rejected", from, to)
		}
	}

	require.False(t, CanTransition(model.StatusActive, model.StatusActive))
	require.False(t, CanTransition("bogus", model.StatusCancelled))
}
