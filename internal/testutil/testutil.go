// Package testutil builds real gorm stacks on in-memory sqlite for service and HTTP tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"

	"consultlink.id/forum/internal/bootstrap"
	"consultlink.id/forum/internal/entity"
	"consultlink.id/forum/pkg/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NewDB returns a migrated database with the default roles seeded. Each call gets its own
// in-memory database, closed when the test ends.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	db, err := database.OpenMemory(fmt.Sprintf("%s_%s", name, uuid.NewString()[:8]))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if err := bootstrap.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := bootstrap.SeedRoles(db); err != nil {
		t.Fatalf("seed roles: %v", err)
	}
	return db
}

// CreateUser inserts a user with the given role name and karma 0.
func CreateUser(t *testing.T, db *gorm.DB, role string) *entity.User {
	t.Helper()

	var r entity.Role
	if err := db.Where("name = ?", role).First(&r).Error; err != nil {
		t.Fatalf("find role %q: %v", role, err)
	}

	suffix := uuid.NewString()[:8]
	user := &entity.User{
		Username:     role + "_" + suffix,
		Email:        role + "_" + suffix + "@example.com",
		PasswordHash: "x",
		RoleID:       &r.ID,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	user.Role = r
	return user
}

func CreateThread(t *testing.T, db *gorm.DB, authorID uuid.UUID) *entity.Thread {
	t.Helper()

	thread := &entity.Thread{
		AuthorID: authorID,
		Title:    "How do you price retainers?",
		Content:  "Looking for advice on monthly retainer pricing.",
	}
	if err := db.Create(thread).Error; err != nil {
		t.Fatalf("create thread: %v", err)
	}
	return thread
}

func CreateComment(t *testing.T, db *gorm.DB, threadID, authorID uuid.UUID) *entity.Comment {
	t.Helper()

	comment := &entity.Comment{
		ThreadID: threadID,
		AuthorID: authorID,
		Content:  "We bill a fixed monthly fee.",
	}
	if err := db.Create(comment).Error; err != nil {
		t.Fatalf("create comment: %v", err)
	}
	return comment
}

func ReloadUser(t *testing.T, db *gorm.DB, id uuid.UUID) *entity.User {
	t.Helper()

	var user entity.User
	if err := db.Preload("Role").First(&user, "id = ?", id).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	return &user
}

func ReloadThread(t *testing.T, db *gorm.DB, id uuid.UUID) *entity.Thread {
	t.Helper()

	var thread entity.Thread
	if err := db.First(&thread, "id = ?", id).Error; err != nil {
		t.Fatalf("reload thread: %v", err)
	}
	return &thread
}

func ReloadComment(t *testing.T, db *gorm.DB, id uuid.UUID) *entity.Comment {
	t.Helper()

	var comment entity.Comment
	if err := db.First(&comment, "id = ?", id).Error; err != nil {
		t.Fatalf("reload comment: %v", err)
	}
	return &comment
}

// ModerationLogs returns every audit entry, oldest first.
func ModerationLogs(t *testing.T, db *gorm.DB) []entity.ModerationLog {
	t.Helper()

	var logs []entity.ModerationLog
	if err := db.Order("created_at ASC").Order("id ASC").Find(&logs).Error; err != nil {
		t.Fatalf("list moderation logs: %v", err)
	}
	return logs
}

// FailCreates makes every INSERT into table fail with the returned error for the rest of the test.
func FailCreates(t *testing.T, db *gorm.DB, table string) error {
	t.Helper()
	injected := fmt.Errorf("insert into %s failed", table)
	if err := db.Callback().Create().Before("gorm:create").Register("testutil:fail_create_"+table, failOn(table, injected)); err != nil {
		t.Fatalf("register create callback: %v", err)
	}
	return injected
}

// FailUpdates makes every UPDATE of table fail with the returned error for the rest of the test.
func FailUpdates(t *testing.T, db *gorm.DB, table string) error {
	t.Helper()
	injected := fmt.Errorf("update of %s failed", table)
	if err := db.Callback().Update().Before("gorm:update").Register("testutil:fail_update_"+table, failOn(table, injected)); err != nil {
		t.Fatalf("register update callback: %v", err)
	}
	return injected
}

func failOn(table string, err error) func(*gorm.DB) {
	return func(tx *gorm.DB) {
		if tx.Statement.Table == table {
			_ = tx.AddError(err)
		}
	}
}
