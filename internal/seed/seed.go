// Package seed populates the database with demo users and relationships for
// development and testing. Relationships are created through the friend
// service so seeded data obeys the same rules as live traffic.
package seed

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"amity/internal/middleware"
	"amity/internal/models"
	"amity/internal/repository"
	"amity/internal/service"

	"gorm.io/gorm"
)

// Options configures the seeder.
type Options struct {
	NumUsers   int
	BatchSize  int
	Seed       int64
	SkipBcrypt bool
}

// Seeder creates users and drives relationship transitions between them.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
	friends *service.FriendService
	repo    repository.FriendRepository
	opts    Options
	rng     *rand.Rand
}

// NewSeeder returns a Seeder bound to db. friends and repo must share db.
func NewSeeder(db *gorm.DB, friends *service.FriendService, repo repository.FriendRepository, opts Options) (*Seeder, error) {
	factory, err := NewFactory(db, opts.Seed, opts.SkipBcrypt)
	if err != nil {
		return nil, err
	}
	seed := opts.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	return &Seeder{
		db:      db,
		factory: factory,
		friends: friends,
		repo:    repo,
		opts:    opts,
		//nolint:gosec // seeding does not need a secure source
		rng: rand.New(rand.NewSource(seed)),
	}, nil
}

// ClearAll removes every user and relationship row, children first.
func (s *Seeder) ClearAll(ctx context.Context) error {
	middleware.Logger.Info("clearing existing data")
	for _, table := range []string{"blocked_users", "friendships", "friend_requests", "users"} {
		if err := s.db.WithContext(ctx).Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

// MeshStats counts what SeedSocialMesh produced.
type MeshStats struct {
	Users       int
	Friendships int
	Pending     int
	Rejected    int
	Blocks      int
}

// SeedSocialMesh creates n users and connects each to a few random others.
// Most requests are accepted, some stay pending, a few are rejected and
// roughly one user in ten blocks someone.
func (s *Seeder) SeedSocialMesh(ctx context.Context, n int) ([]*models.User, *MeshStats, error) {
	if n <= 0 {
		n = s.opts.NumUsers
	}
	users, err := s.factory.CreateUsers(ctx, n, s.opts.BatchSize)
	if err != nil {
		return nil, nil, err
	}
	stats := &MeshStats{Users: len(users)}
	if len(users) < 2 {
		return users, stats, nil
	}

	for i, sender := range users {
		for range 1 + s.rng.Intn(3) {
			receiver := users[s.rng.Intn(len(users))]
			if receiver.ID == sender.ID {
				continue
			}
			req, err := s.friends.SendRequest(ctx, sender.ID, receiver.ID)
			if err != nil {
				if skippable(err) {
					continue
				}
				return nil, nil, err
			}

			switch roll := s.rng.Intn(10); {
			case roll < 6:
				if _, err := s.friends.RespondToRequest(ctx, receiver.ID, req.ID, service.ActionAccept); err != nil {
					return nil, nil, err
				}
				stats.Friendships++
			case roll < 9:
				stats.Pending++
			default:
				if _, err := s.friends.RespondToRequest(ctx, receiver.ID, req.ID, service.ActionReject); err != nil {
					return nil, nil, err
				}
				stats.Rejected++
			}
		}

		if i%10 == 9 {
			target := users[s.rng.Intn(len(users))]
			if target.ID != sender.ID {
				if _, err := s.friends.Block(ctx, sender.ID, target.ID); err != nil {
					return nil, nil, err
				}
				stats.Blocks++
			}
		}
	}

	middleware.Logger.Info("social mesh seeded",
		"users", stats.Users, "friendships", stats.Friendships,
		"pending", stats.Pending, "rejected", stats.Rejected, "blocks", stats.Blocks)
	return users, stats, nil
}

// skippable reports whether a random pairing hit a rule the mesh should simply skip.
func skippable(err error) bool {
	for _, rule := range []error{
		service.ErrDuplicateRequest, service.ErrAlreadyFriends, service.ErrCooldown,
		service.ErrBlocked, service.ErrBlockingReceiver,
	} {
		if errors.Is(err, rule) {
			return true
		}
	}
	return false
}
