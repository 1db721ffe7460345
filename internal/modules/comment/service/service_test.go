package comment

import (
	"context"
	"errors"
	"strings"
	"testing"

	"consultlink.id/forum/internal/entity"
	commentDto "consultlink.id/forum/internal/modules/comment/dto"
	commentRepo "consultlink.id/forum/internal/modules/comment/repository"
	modRepo "consultlink.id/forum/internal/modules/moderation/repository"
	moderation "consultlink.id/forum/internal/modules/moderation/service"
	repo "consultlink.id/forum/internal/modules/thread/repository"
	userRepo "consultlink.id/forum/internal/modules/user/repository"
	"consultlink.id/forum/internal/testutil"
	"consultlink.id/forum/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*gorm.DB, CommentService) {
	t.Helper()
	db := testutil.NewDB(t)
	modSvc := moderation.NewModerationService(modRepo.NewModerationRepository(db))
	svc := NewCommentService(db, commentRepo.NewCommentRepository(db), repo.NewRepository(db), userRepo.NewUserRepository(db), modSvc, nil)
	return db, svc
}

func TestCreateComment(t *testing.T) {
	db, svc := newTestService(t)
	author := testutil.CreateUser(t, db, entity.RoleConsultant)
	thread := testutil.CreateThread(t, db, author.ID)

	res, err := svc.CreateComment(context.Background(), author.ID, commentDto.CreateCommentRequest{
		ThreadID: thread.ID.String(),
		Content:  "  Happy to share our template.  ",
	})
	if err != nil {
		t.Fatalf("CreateComment() error = %v", err)
	}
	if res.Content != "Happy to share our template." || res.ThreadID != thread.ID {
		t.Fatalf("comment = %+v", res)
	}
	if res.Author.ID != author.ID || res.Author.Username != author.Username {
		t.Errorf("author = %+v", res.Author)
	}
}

func TestCreateCommentValidation(t *testing.T) {
	db, svc := newTestService(t)
	author := testutil.CreateUser(t, db, entity.RoleConsultant)
	thread := testutil.CreateThread(t, db, author.ID)

	tests := map[string]commentDto.CreateCommentRequest{
		"blank content": {ThreadID: thread.ID.String(), Content: "   "},
		"long content":  {ThreadID: thread.ID.String(), Content: strings.Repeat("c", 5001)},
		"bad thread id": {ThreadID: "nope", Content: "fine"},
	}
	for name, req := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := svc.CreateComment(context.Background(), author.ID, req); !errors.Is(err, apperror.ErrInvalidInput) {
				t.Fatalf("error = %v, want invalid input", err)
			}
		})
	}

	_, err := svc.CreateComment(context.Background(), author.ID, commentDto.CreateCommentRequest{
		ThreadID: uuid.NewString(),
		Content:  "orphan",
	})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("unknown thread error = %v, want not found", err)
	}
}

func TestCreateCommentOnLockedThread(t *testing.T) {
	db, svc := newTestService(t)
	author := testutil.CreateUser(t, db, entity.RoleConsultant)
	thread := testutil.CreateThread(t, db, author.ID)
	req := commentDto.CreateCommentRequest{ThreadID: thread.ID.String(), Content: "Following."}

	db.Model(&entity.Thread{}).Where("id = ?", thread.ID).UpdateColumn("status", entity.ThreadLocked)
	_, err := svc.CreateComment(context.Background(), author.ID, req)
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("locked thread error = %v, want forbidden", err)
	}
	if msg := apperror.Message(err); msg != "cannot comment on locked thread" {
		t.Errorf("message = %q", msg)
	}

	db.Model(&entity.Thread{}).Where("id = ?", thread.ID).UpdateColumn("status", entity.ThreadOpen)
	if _, err := svc.CreateComment(context.Background(), author.ID, req); err != nil {
		t.Fatalf("unlocked thread error = %v", err)
	}
}

func TestUpdateComment(t *testing.T) {
	ctx := context.Background()

	t.Run("author edit is not logged", func(t *testing.T) {
		db, svc := newTestService(t)
		author := testutil.CreateUser(t, db, entity.RoleConsultant)
		thread := testutil.CreateThread(t, db, author.ID)
		comment := testutil.CreateComment(t, db, thread.ID, author.ID)

		res, err := svc.UpdateComment(ctx, author.ID, comment.ID, commentDto.UpdateCommentRequest{Content: "Edited."})
		if err != nil {
			t.Fatalf("UpdateComment() error = %v", err)
		}
		if res.Content != "Edited." {
			t.Fatalf("content = %q", res.Content)
		}
		if logs := testutil.ModerationLogs(t, db); len(logs) != 0 {
			t.Fatalf("log entries = %d, want 0", len(logs))
		}
	})

	t.Run("admin edit is logged", func(t *testing.T) {
		db, svc := newTestService(t)
		admin := testutil.CreateUser(t, db, entity.RoleAdmin)
		author := testutil.CreateUser(t, db, entity.RoleConsultant)
		thread := testutil.CreateThread(t, db, author.ID)
		comment := testutil.CreateComment(t, db, thread.ID, author.ID)

		if _, err := svc.UpdateComment(ctx, admin.ID, comment.ID, commentDto.UpdateCommentRequest{Content: "[removed link]"}); err != nil {
			t.Fatalf("UpdateComment() error = %v", err)
		}
		logs := testutil.ModerationLogs(t, db)
		if len(logs) != 1 || logs[0].ActionType != entity.ActionEdit || logs[0].TargetType != entity.TargetComment {
			t.Fatalf("logs = %+v, want one comment edit", logs)
		}
		if string(logs[0].NewValue) != `{"content":"[removed link]"}` {
			t.Errorf("new value = %s", logs[0].NewValue)
		}
	})

	t.Run("other users are forbidden", func(t *testing.T) {
		db, svc := newTestService(t)
		author := testutil.CreateUser(t, db, entity.RoleConsultant)
		other := testutil.CreateUser(t, db, entity.RoleClient)
		thread := testutil.CreateThread(t, db, author.ID)
		comment := testutil.CreateComment(t, db, thread.ID, author.ID)

		_, err := svc.UpdateComment(ctx, other.ID, comment.ID, commentDto.UpdateCommentRequest{Content: "hijack"})
		if !errors.Is(err, apperror.ErrForbidden) {
			t.Fatalf("error = %v, want forbidden", err)
		}
	})
}

func TestAdminDeleteCommentIsLoggedAndHidden(t *testing.T) {
	db, svc := newTestService(t)
	admin := testutil.CreateUser(t, db, entity.RoleAdmin)
	author := testutil.CreateUser(t, db, entity.RoleConsultant)
	thread := testutil.CreateThread(t, db, author.ID)
	comment := testutil.CreateComment(t, db, thread.ID, author.ID)
	ctx := context.Background()

	if err := svc.DeleteComment(ctx, admin.ID, comment.ID); err != nil {
		t.Fatalf("DeleteComment() error = %v", err)
	}

	stored := testutil.ReloadComment(t, db, comment.ID)
	if !stored.IsDeleted || stored.DeletedAt == nil {
		t.Fatalf("comment = %+v, want soft deleted", stored)
	}

	logs := testutil.ModerationLogs(t, db)
	if len(logs) != 1 {
		t.Fatalf("log entries = %d, want 1", len(logs))
	}
	if logs[0].ActionType != entity.ActionDelete || logs[0].TargetType != entity.TargetComment || logs[0].TargetID != comment.ID {
		t.Fatalf("log entry = %+v", logs[0])
	}

	live, err := commentRepo.NewCommentRepository(db).FindByThreadID(ctx, thread.ID)
	if err != nil {
		t.Fatalf("FindByThreadID() error = %v", err)
	}
	if len(live) != 0 {
		t.Fatalf("live comments = %d, want 0", len(live))
	}

	if err := svc.DeleteComment(ctx, admin.ID, comment.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("second delete error = %v, want not found", err)
	}
}

func TestAuthorDeleteCommentIsNotLogged(t *testing.T) {
	db, svc := newTestService(t)
	author := testutil.CreateUser(t, db, entity.RoleConsultant)
	thread := testutil.CreateThread(t, db, author.ID)
	comment := testutil.CreateComment(t, db, thread.ID, author.ID)

	if err := svc.DeleteComment(context.Background(), author.ID, comment.ID); err != nil {
		t.Fatalf("DeleteComment() error = %v", err)
	}
	if logs := testutil.ModerationLogs(t, db); len(logs) != 0 {
		t.Fatalf("log entries = %d, want 0", len(logs))
	}
}

func TestAdminDeleteOwnCommentIsLogged(t *testing.T) {
	db, svc := newTestService(t)
	admin := testutil.CreateUser(t, db, entity.RoleAdmin)
	thread := testutil.CreateThread(t, db, admin.ID)
	comment := testutil.CreateComment(t, db, thread.ID, admin.ID)

	if err := svc.DeleteComment(context.Background(), admin.ID, comment.ID); err != nil {
		t.Fatalf("DeleteComment() error = %v", err)
	}
	if !testutil.ReloadComment(t, db, comment.ID).IsDeleted {
		t.Fatal("comment should be deleted")
	}
	logs := testutil.ModerationLogs(t, db)
	if len(logs) != 1 || logs[0].ActionType != entity.ActionDelete || logs[0].TargetID != comment.ID {
		t.Fatalf("log entries = %+v, want one delete of the comment", logs)
	}
}

func TestAdminDeleteCommentRollsBackWhenLogFails(t *testing.T) {
	db, svc := newTestService(t)
	admin := testutil.CreateUser(t, db, entity.RoleAdmin)
	author := testutil.CreateUser(t, db, entity.RoleClient)
	thread := testutil.CreateThread(t, db, author.ID)
	comment := testutil.CreateComment(t, db, thread.ID, author.ID)

	injected := testutil.FailCreates(t, db, "moderation_log")

	if err := svc.DeleteComment(context.Background(), admin.ID, comment.ID); !errors.Is(err, injected) {
		t.Fatalf("DeleteComment() error = %v, want the log write failure", err)
	}
	if testutil.ReloadComment(t, db, comment.ID).IsDeleted {
		t.Fatal("comment delete should have rolled back")
	}
}
