// Package bootstrap prepares the database and Redis for a process and applies
// development-only fixtures.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"amity/internal/cache"
	"amity/internal/config"
	"amity/internal/database"
	"amity/internal/middleware"
	"amity/internal/models"
	"amity/internal/repository"
	"amity/internal/seed"
	"amity/internal/service"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const defaultStaffEmail = "staff@amity.local"

// InitRuntime connects to the database and Redis and applies development
// fixtures. The Redis client is nil when Redis is unreachable.
func InitRuntime(ctx context.Context, cfg *config.Config) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	rdb := cache.InitRedis(cfg.RedisURL)

	if err := EnsureDevStaff(ctx, cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development staff user: %w", err)
	}
	if err := seedDemo(ctx, cfg, db, rdb); err != nil {
		return nil, nil, fmt.Errorf("failed to seed demo scenario: %w", err)
	}

	return db, rdb, nil
}

// EnsureDevStaff creates or promotes the configured staff account in development.
func EnsureDevStaff(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapStaff {
		return nil
	}

	email := models.NormalizeEmail(cfg.DevStaffEmail)
	if email == "" {
		email = defaultStaffEmail
	}
	if cfg.DevStaffPassword == "" {
		return errors.New("DEV_STAFF_PASSWORD must be set when DEV_BOOTSTRAP_STAFF is enabled")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(cfg.DevStaffPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash staff password: %w", err)
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var staff models.User
		findErr := tx.Where("email = ?", email).First(&staff).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			staff = models.User{
				Email:     email,
				FirstName: "Staff",
				LastName:  "Account",
				Password:  string(hashed),
				IsActive:  true,
				IsStaff:   true,
			}
			return tx.Create(&staff).Error
		case findErr != nil:
			return findErr
		default:
			return tx.Model(&models.User{}).Where("id = ?", staff.ID).
				Updates(map[string]any{"is_staff": true, "is_active": true, "password": string(hashed)}).Error
		}
	})
	if err != nil {
		return err
	}

	middleware.Logger.Info("development staff bootstrap ensured", "email", email)
	return nil
}

// seedDemo applies the demo scenario once, on an empty development database.
func seedDemo(ctx context.Context, cfg *config.Config, db *gorm.DB, rdb *redis.Client) error {
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevSeedDemo {
		return nil
	}

	sc, err := seed.DemoScenario()
	if err != nil {
		return err
	}
	var existing int64
	emails := make([]string, 0, len(sc.Users))
	for _, u := range sc.Users {
		emails = append(emails, models.NormalizeEmail(u.Email))
	}
	if err := db.WithContext(ctx).Model(&models.User{}).Where("email IN ?", emails).Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		middleware.Logger.Info("demo scenario already present", "users", existing)
		return nil
	}

	friendRepo := repository.NewFriendRepository(db, cfg.TxTimeout())
	userRepo := repository.NewUserRepository(db, cache.NewAside(rdb))
	friends := service.NewFriendService(friendRepo, userRepo, cache.NewCooldownStore(rdb), cfg.FriendRequestCooldown())

	seeder, err := seed.NewSeeder(db, friends, friendRepo, seed.Options{})
	if err != nil {
		return err
	}
	_, err = seeder.ApplyScenario(ctx, sc)
	return err
}
