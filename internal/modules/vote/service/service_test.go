package vote

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"consultlink.id/forum/internal/entity"
	contentRepo "consultlink.id/forum/internal/modules/content/repository"
	karma "consultlink.id/forum/internal/modules/karma/service"
	modRepo "consultlink.id/forum/internal/modules/moderation/repository"
	moderation "consultlink.id/forum/internal/modules/moderation/service"
	threadRepo "consultlink.id/forum/internal/modules/thread/repository"
	userRepo "consultlink.id/forum/internal/modules/user/repository"
	voteDto "consultlink.id/forum/internal/modules/vote/dto"
	voteRepo "consultlink.id/forum/internal/modules/vote/repository"
	"consultlink.id/forum/internal/testutil"
	"consultlink.id/forum/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*gorm.DB, VoteService) {
	t.Helper()
	db := testutil.NewDB(t)
	modSvc := moderation.NewModerationService(modRepo.NewModerationRepository(db))
	karmaSvc := karma.NewKarmaService(db, userRepo.NewUserRepository(db), modSvc, nil)
	svc := NewVoteService(db, voteRepo.NewVoteRepository(db), contentRepo.NewContentRepository(db), karmaSvc, threadRepo.NewRepository(db), nil)
	return db, svc
}

type recordingSearch struct {
	mu      sync.Mutex
	indexed []entity.Thread
}

func (r *recordingSearch) IndexThread(thread *entity.Thread) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.indexed = append(r.indexed, *thread)
	return nil
}

func (r *recordingSearch) DeleteThread(string) error { return nil }

func (r *recordingSearch) GenerateSearchToken() (string, error) { return "", nil }

func setKarma(t *testing.T, db *gorm.DB, userID uuid.UUID, karma int) {
	t.Helper()
	if err := db.Model(&entity.User{}).Where("id = ?", userID).UpdateColumn("karma", karma).Error; err != nil {
		t.Fatalf("set karma: %v", err)
	}
}

func castVote(t *testing.T, svc VoteService, actor uuid.UUID, target entity.Target, vt entity.VoteType) *voteDto.CastVoteResponse {
	t.Helper()
	res, err := svc.CastVote(context.Background(), actor, voteDto.CastVoteRequest{
		TargetID:   target.ID.String(),
		TargetType: string(target.Type),
		Type:       string(vt),
	})
	if err != nil {
		t.Fatalf("CastVote(%s) error = %v", vt, err)
	}
	return res
}

func countVotes(t *testing.T, db *gorm.DB, target entity.Target) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&entity.Vote{}).Where("target_id = ? AND target_type = ?", target.ID, target.Type).Count(&n).Error; err != nil {
		t.Fatalf("count votes: %v", err)
	}
	return n
}

func TestCastVoteRoundTrip(t *testing.T) {
	db, svc := newTestService(t)
	author := testutil.CreateUser(t, db, entity.RoleConsultant)
	voter := testutil.CreateUser(t, db, entity.RoleClient)
	setKarma(t, db, author.ID, 5)
	thread := testutil.CreateThread(t, db, author.ID)
	target := entity.ThreadTarget(thread.ID)

	res := castVote(t, svc, voter.ID, target, entity.Upvote)
	if res.Action != string(ActionAdded) || res.Vote == nil {
		t.Fatalf("first vote = %+v, want added with a vote", res)
	}
	if res.Votes.Upvotes != 1 || res.NetVotes != 1 {
		t.Fatalf("votes after upvote = %+v", res.Votes)
	}
	if got := testutil.ReloadUser(t, db, author.ID).Karma; got != 6 {
		t.Fatalf("karma after upvote = %d, want 6", got)
	}

	res = castVote(t, svc, voter.ID, target, entity.Upvote)
	if res.Action != string(ActionRemoved) || res.Vote != nil {
		t.Fatalf("second vote = %+v, want removed without a vote", res)
	}

	stored := testutil.ReloadThread(t, db, thread.ID)
	if stored.Votes.Upvotes != 0 || stored.Votes.Downvotes != 0 {
		t.Fatalf("stored counters = %+v, want zero", stored.Votes)
	}
	if n := countVotes(t, db, target); n != 0 {
		t.Fatalf("vote rows = %d, want 0", n)
	}
	if got := testutil.ReloadUser(t, db, author.ID).Karma; got != 5 {
		t.Fatalf("karma after round trip = %d, want 5", got)
	}
}

func TestCastVoteChangeMovesKarmaByTwo(t *testing.T) {
	db, svc := newTestService(t)
	author := testutil.CreateUser(t, db, entity.RoleConsultant)
	voter := testutil.CreateUser(t, db, entity.RoleClient)
	setKarma(t, db, author.ID, 10)
	thread := testutil.CreateThread(t, db, author.ID)
	comment := testutil.CreateComment(t, db, thread.ID, author.ID)
	target := entity.CommentTarget(comment.ID)

	castVote(t, svc, voter.ID, target, entity.Upvote)
	upvoted := testutil.ReloadUser(t, db, author.ID).Karma

	res := castVote(t, svc, voter.ID, target, entity.Downvote)
	if res.Action != string(ActionChanged) || res.Vote == nil || res.Vote.Type != string(entity.Downvote) {
		t.Fatalf("change = %+v", res)
	}
	if got := testutil.ReloadUser(t, db, author.ID).Karma; got != upvoted-2 {
		t.Fatalf("karma after change = %d, want %d", got, upvoted-2)
	}

	castVote(t, svc, voter.ID, target, entity.Upvote)
	if got := testutil.ReloadUser(t, db, author.ID).Karma; got != upvoted {
		t.Fatalf("karma after changing back = %d, want %d", got, upvoted)
	}

	stored := testutil.ReloadComment(t, db, comment.ID)
	if stored.Votes.Upvotes != 1 || stored.Votes.Downvotes != 0 {
		t.Fatalf("stored counters = %+v, want {1 0}", stored.Votes)
	}
	if n := countVotes(t, db, target); n != 1 {
		t.Fatalf("vote rows = %d, want 1", n)
	}
}

func TestCastVoteRejectsSelfVote(t *testing.T) {
	db, svc := newTestService(t)
	author := testutil.CreateUser(t, db, entity.RoleConsultant)
	other := testutil.CreateUser(t, db, entity.RoleClient)
	thread := testutil.CreateThread(t, db, author.ID)
	target := entity.ThreadTarget(thread.ID)

	// a prior vote by someone else must not change the outcome
	castVote(t, svc, other.ID, target, entity.Upvote)

	for _, vt := range []entity.VoteType{entity.Upvote, entity.Downvote} {
		_, err := svc.CastVote(context.Background(), author.ID, voteDto.CastVoteRequest{
			TargetID:   thread.ID.String(),
			TargetType: string(entity.TargetThread),
			Type:       string(vt),
		})
		if !errors.Is(err, apperror.ErrForbidden) {
			t.Fatalf("self %s error = %v, want forbidden", vt, err)
		}
	}

	if n := countVotes(t, db, target); n != 1 {
		t.Fatalf("vote rows = %d, want 1", n)
	}
}

func TestCastVoteKarmaFloor(t *testing.T) {
	db, svc := newTestService(t)
	author := testutil.CreateUser(t, db, entity.RoleConsultant)
	voter := testutil.CreateUser(t, db, entity.RoleClient)
	thread := testutil.CreateThread(t, db, author.ID)

	castVote(t, svc, voter.ID, entity.ThreadTarget(thread.ID), entity.Downvote)

	if got := testutil.ReloadUser(t, db, author.ID).Karma; got != 0 {
		t.Fatalf("karma = %d, want 0", got)
	}
	stored := testutil.ReloadThread(t, db, thread.ID)
	if stored.Votes.Downvotes != 1 {
		t.Fatalf("downvotes = %d, want 1", stored.Votes.Downvotes)
	}
}

func TestCastVoteMissingOrDeletedTarget(t *testing.T) {
	db, svc := newTestService(t)
	author := testutil.CreateUser(t, db, entity.RoleConsultant)
	voter := testutil.CreateUser(t, db, entity.RoleClient)
	thread := testutil.CreateThread(t, db, author.ID)
	now := time.Now()
	if err := db.Model(&entity.Thread{}).Where("id = ?", thread.ID).
		UpdateColumns(map[string]any{"is_deleted": true, "deleted_at": &now}).Error; err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	for name, id := range map[string]uuid.UUID{"deleted": thread.ID, "missing": uuid.New()} {
		_, err := svc.CastVote(context.Background(), voter.ID, voteDto.CastVoteRequest{
			TargetID:   id.String(),
			TargetType: string(entity.TargetThread),
			Type:       string(entity.Upvote),
		})
		if !errors.Is(err, apperror.ErrNotFound) {
			t.Errorf("%s target error = %v, want not found", name, err)
		}
	}
}

func TestCastVoteValidatesInput(t *testing.T) {
	_, svc := newTestService(t)
	actor := uuid.New()

	tests := []voteDto.CastVoteRequest{
		{TargetID: uuid.NewString(), TargetType: "user", Type: "upvote"},
		{TargetID: uuid.NewString(), TargetType: "thread", Type: "sideways"},
		{TargetID: "not-a-uuid", TargetType: "thread", Type: "upvote"},
	}
	for _, req := range tests {
		if _, err := svc.CastVote(context.Background(), actor, req); !errors.Is(err, apperror.ErrInvalidInput) {
			t.Errorf("CastVote(%+v) error = %v, want invalid input", req, err)
		}
	}
}

func TestCastVoteConcurrentVotersOnOneTarget(t *testing.T) {
	db, svc := newTestService(t)
	author := testutil.CreateUser(t, db, entity.RoleConsultant)
	thread := testutil.CreateThread(t, db, author.ID)
	target := entity.ThreadTarget(thread.ID)

	const voters = 8
	ids := make([]uuid.UUID, voters)
	for i := range ids {
		ids[i] = testutil.CreateUser(t, db, entity.RoleClient).ID
	}

	var wg sync.WaitGroup
	errs := make(chan error, voters)
	for _, id := range ids {
		wg.Add(1)
		go func(actor uuid.UUID) {
			defer wg.Done()
			_, err := svc.CastVote(context.Background(), actor, voteDto.CastVoteRequest{
				TargetID:   thread.ID.String(),
				TargetType: string(entity.TargetThread),
				Type:       string(entity.Upvote),
			})
			errs <- err
		}(id)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent vote error = %v", err)
		}
	}

	stored := testutil.ReloadThread(t, db, thread.ID)
	if stored.Votes.Upvotes != voters {
		t.Fatalf("upvotes = %d, want %d", stored.Votes.Upvotes, voters)
	}
	if n := countVotes(t, db, target); n != voters {
		t.Fatalf("vote rows = %d, want %d", n, voters)
	}
	if got := testutil.ReloadUser(t, db, author.ID).Karma; got != voters {
		t.Fatalf("karma = %d, want %d", got, voters)
	}
}

func TestReconcileCountersRepairsDrift(t *testing.T) {
	db, svc := newTestService(t)
	author := testutil.CreateUser(t, db, entity.RoleConsultant)
	voter := testutil.CreateUser(t, db, entity.RoleClient)
	thread := testutil.CreateThread(t, db, author.ID)

	castVote(t, svc, voter.ID, entity.ThreadTarget(thread.ID), entity.Upvote)
	if err := db.Model(&entity.Thread{}).Where("id = ?", thread.ID).
		UpdateColumns(map[string]any{"upvotes": 7, "downvotes": 3}).Error; err != nil {
		t.Fatalf("corrupt counters: %v", err)
	}

	fixed, err := svc.ReconcileCounters(context.Background())
	if err != nil {
		t.Fatalf("ReconcileCounters() error = %v", err)
	}
	if fixed != 1 {
		t.Fatalf("repaired rows = %d, want 1", fixed)
	}

	stored := testutil.ReloadThread(t, db, thread.ID)
	if stored.Votes.Upvotes != 1 || stored.Votes.Downvotes != 0 {
		t.Fatalf("counters = %+v, want {1 0}", stored.Votes)
	}

	fixed, err = svc.ReconcileCounters(context.Background())
	if err != nil || fixed != 0 {
		t.Fatalf("second pass = (%d, %v), want (0, nil)", fixed, err)
	}
}

func TestCastVoteRollsBackWhenKarmaWriteFails(t *testing.T) {
	db, svc := newTestService(t)
	author := testutil.CreateUser(t, db, entity.RoleConsultant)
	voter := testutil.CreateUser(t, db, entity.RoleClient)
	thread := testutil.CreateThread(t, db, author.ID)
	target := entity.ThreadTarget(thread.ID)
	setKarma(t, db, author.ID, 3)

	injected := testutil.FailUpdates(t, db, "users")

	_, err := svc.CastVote(context.Background(), voter.ID, voteDto.CastVoteRequest{
		TargetID:   thread.ID.String(),
		TargetType: string(entity.TargetThread),
		Type:       string(entity.Upvote),
	})
	if !errors.Is(err, injected) {
		t.Fatalf("CastVote() error = %v, want the karma write failure", err)
	}

	if n := countVotes(t, db, target); n != 0 {
		t.Errorf("vote rows = %d, want 0", n)
	}
	if got := testutil.ReloadThread(t, db, thread.ID).Votes; got != (entity.VoteCounts{}) {
		t.Errorf("counters = %+v, want {0 0}", got)
	}
	if got := testutil.ReloadUser(t, db, author.ID).Karma; got != 3 {
		t.Errorf("karma = %d, want 3", got)
	}
}

func TestCastVoteRollsBackWhenCounterWriteFails(t *testing.T) {
	db, svc := newTestService(t)
	author := testutil.CreateUser(t, db, entity.RoleConsultant)
	voter := testutil.CreateUser(t, db, entity.RoleClient)
	thread := testutil.CreateThread(t, db, author.ID)
	comment := testutil.CreateComment(t, db, thread.ID, author.ID)
	target := entity.CommentTarget(comment.ID)

	injected := testutil.FailUpdates(t, db, "comments")

	_, err := svc.CastVote(context.Background(), voter.ID, voteDto.CastVoteRequest{
		TargetID:   comment.ID.String(),
		TargetType: string(entity.TargetComment),
		Type:       string(entity.Downvote),
	})
	if !errors.Is(err, injected) {
		t.Fatalf("CastVote() error = %v, want the counter write failure", err)
	}
	if n := countVotes(t, db, target); n != 0 {
		t.Errorf("vote rows = %d, want 0", n)
	}
	if got := testutil.ReloadUser(t, db, author.ID).Karma; got != 0 {
		t.Errorf("karma = %d, want 0", got)
	}
}

func TestReconcileCountersConcurrentWithVotes(t *testing.T) {
	db, svc := newTestService(t)
	author := testutil.CreateUser(t, db, entity.RoleConsultant)
	thread := testutil.CreateThread(t, db, author.ID)
	target := entity.ThreadTarget(thread.ID)

	const voters = 6
	users := make([]*entity.User, voters)
	for i := range users {
		users[i] = testutil.CreateUser(t, db, entity.RoleClient)
	}

	var wg sync.WaitGroup
	errs := make(chan error, voters+3)
	for _, u := range users {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			_, err := svc.CastVote(context.Background(), id, voteDto.CastVoteRequest{
				TargetID:   thread.ID.String(),
				TargetType: string(entity.TargetThread),
				Type:       string(entity.Upvote),
			})
			errs <- err
		}(u.ID)
	}
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ReconcileCounters(context.Background())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent call error = %v", err)
		}
	}

	if got := testutil.ReloadThread(t, db, thread.ID).Votes; got.Upvotes != voters || got.Downvotes != 0 {
		t.Fatalf("counters = %+v, want {%d 0}", got, voters)
	}
	if n := countVotes(t, db, target); n != voters {
		t.Fatalf("vote rows = %d, want %d", n, voters)
	}
	if fixed, err := svc.ReconcileCounters(context.Background()); err != nil || fixed != 0 {
		t.Fatalf("final pass = (%d, %v), want (0, nil)", fixed, err)
	}
}

func TestReconcileCountersRepairsComments(t *testing.T) {
	db, svc := newTestService(t)
	author := testutil.CreateUser(t, db, entity.RoleConsultant)
	voter := testutil.CreateUser(t, db, entity.RoleClient)
	thread := testutil.CreateThread(t, db, author.ID)
	healthy := testutil.CreateComment(t, db, thread.ID, author.ID)
	drifted := testutil.CreateComment(t, db, thread.ID, author.ID)

	castVote(t, svc, voter.ID, entity.CommentTarget(healthy.ID), entity.Upvote)
	castVote(t, svc, voter.ID, entity.CommentTarget(drifted.ID), entity.Downvote)
	if err := db.Model(&entity.Comment{}).Where("id = ?", drifted.ID).UpdateColumn("downvotes", 4).Error; err != nil {
		t.Fatalf("corrupt counters: %v", err)
	}

	fixed, err := svc.ReconcileCounters(context.Background())
	if err != nil || fixed != 1 {
		t.Fatalf("ReconcileCounters() = (%d, %v), want (1, nil)", fixed, err)
	}
	if got := testutil.ReloadComment(t, db, drifted.ID).Votes; got.Upvotes != 0 || got.Downvotes != 1 {
		t.Fatalf("drifted counters = %+v, want {0 1}", got)
	}
	if got := testutil.ReloadComment(t, db, healthy.ID).Votes; got.Upvotes != 1 || got.Downvotes != 0 {
		t.Fatalf("healthy counters = %+v, want {1 0}", got)
	}
}

func TestCastVoteReindexesThread(t *testing.T) {
	db := testutil.NewDB(t)
	modSvc := moderation.NewModerationService(modRepo.NewModerationRepository(db))
	karmaSvc := karma.NewKarmaService(db, userRepo.NewUserRepository(db), modSvc, nil)
	meili := &recordingSearch{}
	svc := NewVoteService(db, voteRepo.NewVoteRepository(db), contentRepo.NewContentRepository(db), karmaSvc, threadRepo.NewRepository(db), meili)

	author := testutil.CreateUser(t, db, entity.RoleConsultant)
	voter := testutil.CreateUser(t, db, entity.RoleClient)
	thread := testutil.CreateThread(t, db, author.ID)
	comment := testutil.CreateComment(t, db, thread.ID, author.ID)

	castVote(t, svc, voter.ID, entity.ThreadTarget(thread.ID), entity.Upvote)
	castVote(t, svc, voter.ID, entity.CommentTarget(comment.ID), entity.Upvote)

	if len(meili.indexed) != 1 {
		t.Fatalf("indexed documents = %d, want 1 (thread votes only)", len(meili.indexed))
	}
	doc := meili.indexed[0]
	if doc.ID != thread.ID || doc.Votes.Upvotes != 1 {
		t.Fatalf("indexed thread = %s votes %+v, want %s with 1 upvote", doc.ID, doc.Votes, thread.ID)
	}
	if doc.Author.ID != author.ID {
		t.Fatalf("indexed author = %s, want %s", doc.Author.ID, author.ID)
	}
}
