package vote

import "consultlink.id/forum/internal/entity"

type Action string

const (
	ActionAdded   Action = "added"
	ActionRemoved Action = "removed"
	ActionChanged Action = "changed"
)

// Transition is one step of the per (actor, target) vote state machine together with
// the counter and karma deltas it implies.
type Transition struct {
	Action        Action
	Next          *entity.VoteType
	UpvoteDelta   int
	DownvoteDelta int
	KarmaDelta    int
}

func weight(t entity.VoteType) int {
	if t == entity.Upvote {
		return 1
	}
	return -1
}

func counterDelta(t entity.VoteType, n int) (up, down int) {
	if t == entity.Upvote {
		return n, 0
	}
	return 0, n
}

// NextState computes the transition for an incoming vote given the actor's current vote
// (nil when none). Re-submitting the current type toggles the vote off.
func NextState(current *entity.VoteType, incoming entity.VoteType) Transition {
	switch {
	case current == nil:
		up, down := counterDelta(incoming, 1)
		next := incoming
		return Transition{
			Action:        ActionAdded,
			Next:          &next,
			UpvoteDelta:   up,
			DownvoteDelta: down,
			KarmaDelta:    weight(incoming),
		}
	case *current == incoming:
		up, down := counterDelta(incoming, -1)
		return Transition{
			Action:        ActionRemoved,
			UpvoteDelta:   up,
			DownvoteDelta: down,
			KarmaDelta:    -weight(incoming),
		}
	default:
		removeUp, removeDown := counterDelta(*current, -1)
		addUp, addDown := counterDelta(incoming, 1)
		next := incoming
		return Transition{
			Action:        ActionChanged,
			Next:          &next,
			UpvoteDelta:   removeUp + addUp,
			DownvoteDelta: removeDown + addDown,
			KarmaDelta:    weight(incoming) - weight(*current),
		}
	}
}
