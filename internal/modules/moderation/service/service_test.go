package moderation

import (
	"context"
	"errors"
	"testing"

	"consultlink.id/forum/internal/entity"
	modDto "consultlink.id/forum/internal/modules/moderation/dto"
	modRepo "consultlink.id/forum/internal/modules/moderation/repository"
	"consultlink.id/forum/internal/testutil"
	"consultlink.id/forum/pkg/apperror"
	commonDto "consultlink.id/forum/pkg/dto"
	"github.com/google/uuid"
)

func TestRecordAndList(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewModerationService(modRepo.NewModerationRepository(db))
	admin := testutil.CreateUser(t, db, entity.RoleAdmin)
	threadID := uuid.New()
	ctx := context.Background()

	if _, err := svc.Record(ctx, nil, RecordInput{
		AdminID:  admin.ID,
		Action:   entity.ActionLock,
		Target:   entity.ThreadTarget(threadID),
		Previous: map[string]any{"status": "open"},
		New:      map[string]any{"status": "locked"},
	}); err != nil {
		t.Fatalf("Record(lock) error = %v", err)
	}
	if _, err := svc.Record(ctx, nil, RecordInput{
		AdminID: admin.ID,
		Action:  entity.ActionDelete,
		Target:  entity.CommentTarget(uuid.New()),
		Reason:  "Admin deletion",
	}); err != nil {
		t.Fatalf("Record(delete) error = %v", err)
	}

	all, err := svc.ListLogs(ctx, modDto.ListLogsQuery{})
	if err != nil {
		t.Fatalf("ListLogs() error = %v", err)
	}
	if all.Meta.TotalItems != 2 || len(all.Data) != 2 {
		t.Fatalf("entries = %d (total %d), want 2", len(all.Data), all.Meta.TotalItems)
	}
	if all.Data[0].ActionType != string(entity.ActionDelete) {
		t.Errorf("newest entry = %q, want delete", all.Data[0].ActionType)
	}
	if all.Data[0].Admin.Username != admin.Username {
		t.Errorf("admin = %+v, want %s", all.Data[0].Admin, admin.Username)
	}

	locks, err := svc.ListLogs(ctx, modDto.ListLogsQuery{
		PageQuery:  commonDto.PageQuery{Page: 1, Limit: 10},
		ActionType: string(entity.ActionLock),
		TargetType: string(entity.TargetThread),
		AdminID:    admin.ID.String(),
	})
	if err != nil {
		t.Fatalf("ListLogs(filtered) error = %v", err)
	}
	if len(locks.Data) != 1 || locks.Data[0].TargetID != threadID {
		t.Fatalf("filtered entries = %+v", locks.Data)
	}
	if string(locks.Data[0].NewValue) != `{"status":"locked"}` {
		t.Errorf("new value = %s", locks.Data[0].NewValue)
	}

	byTarget, err := svc.ListLogs(ctx, modDto.ListLogsQuery{TargetID: threadID.String()})
	if err != nil {
		t.Fatalf("ListLogs(targetId) error = %v", err)
	}
	if byTarget.Meta.TotalItems != 1 || byTarget.Data[0].TargetID != threadID {
		t.Fatalf("entries for target = %+v", byTarget.Data)
	}

	if _, err := svc.ListLogs(ctx, modDto.ListLogsQuery{TargetID: "not-a-uuid"}); !errors.Is(err, apperror.ErrInvalidInput) {
		t.Fatalf("ListLogs(bad targetId) error = %v, want invalid input", err)
	}
}

func TestRecordRejectsUnknownAction(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewModerationService(modRepo.NewModerationRepository(db))

	_, err := svc.Record(context.Background(), nil, RecordInput{
		AdminID: uuid.New(),
		Action:  entity.ModerationAction("ban"),
		Target:  entity.UserTarget(uuid.New()),
	})
	if !errors.Is(err, apperror.ErrInvalidInput) {
		t.Fatalf("error = %v, want invalid input", err)
	}
}

func TestLogEntriesAreAppendOnly(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewModerationService(modRepo.NewModerationRepository(db))
	admin := testutil.CreateUser(t, db, entity.RoleAdmin)

	entry, err := svc.Record(context.Background(), nil, RecordInput{
		AdminID: admin.ID,
		Action:  entity.ActionPin,
		Target:  entity.ThreadTarget(uuid.New()),
	})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	entry.Reason = "rewritten"
	if err := db.Save(entry).Error; !errors.Is(err, entity.ErrModerationLogImmutable) {
		t.Errorf("Save() error = %v, want immutable", err)
	}
	if err := db.Delete(entry).Error; !errors.Is(err, entity.ErrModerationLogImmutable) {
		t.Errorf("Delete() error = %v, want immutable", err)
	}

	if logs := testutil.ModerationLogs(t, db); len(logs) != 1 || logs[0].Reason != "" {
		t.Fatalf("stored entries = %+v", logs)
	}
}
