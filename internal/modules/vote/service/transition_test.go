package vote

import (
	"testing"

	"consultlink.id/forum/internal/entity"
)

func TestNextState(t *testing.T) {
	up, down := entity.Upvote, entity.Downvote

	tests := []struct {
		name      string
		current   *entity.VoteType
		incoming  entity.VoteType
		action    Action
		next      *entity.VoteType
		upDelta   int
		downDelta int
		karma     int
	}{
		{"none to upvote", nil, up, ActionAdded, &up, 1, 0, 1},
		{"none to downvote", nil, down, ActionAdded, &down, 0, 1, -1},
		{"upvote toggled off", &up, up, ActionRemoved, nil, -1, 0, -1},
		{"downvote toggled off", &down, down, ActionRemoved, nil, 0, -1, 1},
		{"upvote to downvote", &up, down, ActionChanged, &down, -1, 1, -2},
		{"downvote to upvote", &down, up, ActionChanged, &up, 1, -1, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextState(tt.current, tt.incoming)

			if got.Action != tt.action {
				t.Errorf("action = %q, want %q", got.Action, tt.action)
			}
			if (got.Next == nil) != (tt.next == nil) || (got.Next != nil && *got.Next != *tt.next) {
				t.Errorf("next = %v, want %v", got.Next, tt.next)
			}
			if got.UpvoteDelta != tt.upDelta || got.DownvoteDelta != tt.downDelta {
				t.Errorf("counter deltas = (%d, %d), want (%d, %d)", got.UpvoteDelta, got.DownvoteDelta, tt.upDelta, tt.downDelta)
			}
			if got.KarmaDelta != tt.karma {
				t.Errorf("karma delta = %d, want %d", got.KarmaDelta, tt.karma)
			}
		})
	}
}

func TestNextStateRoundTripConservesKarma(t *testing.T) {
	for _, vt := range []entity.VoteType{entity.Upvote, entity.Downvote} {
		first := NextState(nil, vt)
		second := NextState(first.Next, vt)
		if sum := first.KarmaDelta + second.KarmaDelta; sum != 0 {
			t.Errorf("%s round trip karma = %d, want 0", vt, sum)
		}
		if second.Next != nil {
			t.Errorf("%s round trip should end with no vote", vt)
		}
	}
}
