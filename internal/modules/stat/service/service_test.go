package stat

import (
	"context"
	"testing"
	"time"

	"consultlink.id/forum/internal/entity"
	statRepo "consultlink.id/forum/internal/modules/stat/repository"
	"consultlink.id/forum/internal/testutil"
)

func TestGetOverview(t *testing.T) {
	db := testutil.NewDB(t)
	admin := testutil.CreateUser(t, db, entity.RoleAdmin)
	author := testutil.CreateUser(t, db, entity.RoleConsultant)

	open := testutil.CreateThread(t, db, author.ID)
	locked := testutil.CreateThread(t, db, author.ID)
	gone := testutil.CreateThread(t, db, author.ID)
	db.Model(&entity.Thread{}).Where("id = ?", locked.ID).UpdateColumn("status", entity.ThreadLocked)
	db.Model(&entity.Thread{}).Where("id = ?", gone.ID).UpdateColumn("is_deleted", true)

	testutil.CreateComment(t, db, open.ID, author.ID)
	deleted := testutil.CreateComment(t, db, open.ID, author.ID)
	db.Model(&entity.Comment{}).Where("id = ?", deleted.ID).UpdateColumn("is_deleted", true)

	if err := db.Create(&entity.Report{
		ReporterID: admin.ID,
		TargetID:   open.ID,
		TargetType: entity.TargetThread,
		Reason:     "off-topic advertising",
	}).Error; err != nil {
		t.Fatalf("create report: %v", err)
	}

	svc := NewStatService(statRepo.NewStatRepository(db))
	res, err := svc.GetOverview(context.Background())
	if err != nil {
		t.Fatalf("GetOverview: %v", err)
	}

	if res.TotalUsers != 2 {
		t.Errorf("TotalUsers = %d, want 2", res.TotalUsers)
	}
	if res.LiveThreads != 2 || res.LockedThreads != 1 {
		t.Errorf("threads = %d live / %d locked, want 2 / 1", res.LiveThreads, res.LockedThreads)
	}
	if res.LiveComments != 1 {
		t.Errorf("LiveComments = %d, want 1", res.LiveComments)
	}
	if res.PendingReports != 1 {
		t.Errorf("PendingReports = %d, want 1", res.PendingReports)
	}
	if res.ModerationActions != 0 {
		t.Errorf("ModerationActions = %d, want 0", res.ModerationActions)
	}
	if res.Window != (24 * time.Hour).String() {
		t.Errorf("Window = %q", res.Window)
	}
}
