// Package lifecycle owns the match state machine and the bilateral
// completion-confirmation protocol. All mutations of a match's status
// and completion columns go through the Manager; nothing else in the
// service writes them.
package lifecycle

import "github.com/zillah777/fixia.com.ar-sub001/internal/model"

// transitions is the closed transition table of the match state
// machine. Every terminal state has an empty row: no transition ever
// leaves it. StatusCompleted is reachable only through the
// confirm-completion protocol, never through a direct status update,
// which is why UpdateStatus additionally refuses it as a target.
var transitions = map[model.MatchStatus][]model.MatchStatus{
	model.StatusActive: {
		model.StatusCompleted,
		model.StatusDisputed,
		model.StatusCancelled,
		model.StatusUnsuccessful,
	},
	model.StatusCompleted:    {},
	model.StatusDisputed:     {},
	model.StatusCancelled:    {},
	model.StatusUnsuccessful: {},
}

// CanTransition reports whether the state machine permits moving a
// match from one status to another.
func CanTransition(from, to model.MatchStatus) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}
