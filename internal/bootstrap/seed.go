package bootstrap

import (
	"context"

	"consultlink.id/forum/internal/entity"
	userRepo "consultlink.id/forum/internal/modules/user/repository"
	"consultlink.id/forum/pkg/database"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	DevAdminEmail    = "admin@consultlink.id"
	DevAdminPassword = "admin123"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.Role{},
		&entity.User{},
		&entity.Thread{},
		&entity.ThreadTag{},
		&entity.Comment{},
		&entity.Vote{},
		&entity.Report{},
		&entity.ModerationLog{},
	)
}

func SeedRoles(db *gorm.DB) error {
	defaultRoles := []entity.Role{
		{Name: entity.RoleAdmin, Description: "Forum administrator"},
		{Name: entity.RoleConsultant, Description: "Consultant"},
		{Name: entity.RoleClient, Description: "Client"},
	}

	for _, role := range defaultRoles {
		var count int64
		if err := db.Model(&entity.Role{}).
			Where("name = ?", role.Name).
			Count(&count).Error; err != nil {
			return err
		}

		if count == 0 {
			if err := db.Create(&role).Error; err != nil {
				return err
			}
		}
	}

	return nil
}

func SeedAdminUser(ctx context.Context, db *gorm.DB) error {
	users := userRepo.NewUserRepository(db)

	adminRole, err := users.FindRoleByName(ctx, entity.RoleAdmin)
	if err != nil {
		return err
	}

	if _, err := users.FindByEmail(ctx, DevAdminEmail); err == nil {
		log.Debug("admin user already exists, skipping seed")
		return nil
	} else if !database.IsNotFound(err) {
		return err
	}

	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(DevAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	adminUser := &entity.User{
		Username:     "admin",
		Email:        DevAdminEmail,
		PasswordHash: string(hashedPasswordBytes),
		RoleID:       &adminRole.ID,
	}
	if err := users.Create(ctx, adminUser); err != nil {
		return err
	}

	log.WithField("email", DevAdminEmail).Info("admin user seeded")
	return nil
}
