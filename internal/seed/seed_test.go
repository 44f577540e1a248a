package seed

import (
	"context"
	"strings"
	"testing"
	"time"

	"amity/internal/cache"
	"amity/internal/models"
	"amity/internal/repository"
	"amity/internal/service"
	"amity/internal/testutil"

	"gorm.io/gorm"
)

func newTestSeeder(t *testing.T) (*Seeder, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	repo := repository.NewFriendRepository(db, 5*time.Second)
	users := repository.NewUserRepository(db, cache.NewAside(nil))
	friends := service.NewFriendService(repo, users, cache.NewMemoryCooldownStore(), time.Hour)
	s, err := NewSeeder(db, friends, repo, Options{Seed: 42, SkipBcrypt: true, BatchSize: 10})
	if err != nil {
		t.Fatalf("new seeder: %v", err)
	}
	return s, db
}

func count(t *testing.T, db *gorm.DB, model any, where ...any) int64 {
	t.Helper()
	var n int64
	q := db.Model(model)
	if len(where) > 0 {
		q = q.Where(where[0], where[1:]...)
	}
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestSeedSocialMesh(t *testing.T) {
	s, db := newTestSeeder(t)
	ctx := context.Background()

	users, stats, err := s.SeedSocialMesh(ctx, 30)
	if err != nil {
		t.Fatalf("seed social mesh: %v", err)
	}
	if len(users) != 30 || stats.Users != 30 {
		t.Fatalf("expected 30 users, got %d", len(users))
	}

	// Blocks made after an acceptance can remove friendships, so rows are an upper bound.
	friendships := count(t, db, &models.Friendship{})
	if friendships%2 != 0 {
		t.Fatalf("friendship rows must come in mirrored pairs, got %d", friendships)
	}
	if friendships > int64(2*stats.Friendships) {
		t.Fatalf("expected at most %d friendship rows, got %d", 2*stats.Friendships, friendships)
	}
	if blocks := count(t, db, &models.BlockedUser{}); blocks > int64(stats.Blocks) {
		t.Fatalf("expected at most %d blocks, got %d", stats.Blocks, blocks)
	}
	if pending := count(t, db, &models.FriendRequest{}, "status = ?", models.FriendRequestStatusPending); pending > int64(stats.Pending) {
		t.Fatalf("expected at most %d pending requests, got %d", stats.Pending, pending)
	}
}

func TestApplyDemoScenario(t *testing.T) {
	s, db := newTestSeeder(t)
	ctx := context.Background()

	sc, err := DemoScenario()
	if err != nil {
		t.Fatalf("load demo scenario: %v", err)
	}
	users, err := s.ApplyScenario(ctx, sc)
	if err != nil {
		t.Fatalf("apply scenario: %v", err)
	}
	if len(users) != len(sc.Users) {
		t.Fatalf("expected %d users, got %d", len(sc.Users), len(users))
	}
	if !users["alice"].IsStaff {
		t.Fatal("alice should be staff")
	}

	if n := count(t, db, &models.Friendship{}); n != 2 {
		t.Fatalf("expected one mirrored friendship, got %d rows", n)
	}
	if n := count(t, db, &models.FriendRequest{}, "status = ?", models.FriendRequestStatusPending); n != 1 {
		t.Fatalf("expected carol's request to stay pending, got %d", n)
	}
	if n := count(t, db, &models.BlockedUser{}); n != 1 {
		t.Fatalf("expected only bob's block to remain, got %d", n)
	}
}

func TestParseScenario_Rejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown action", "name: x\nusers: [{key: a, email: a@x.io}, {key: b, email: b@x.io}]\nsteps: [{action: poke, actor: a, target: b}]", "unknown action"},
		{"unknown user", "name: x\nusers: [{key: a, email: a@x.io}]\nsteps: [{action: send, actor: a, target: z}]", "unknown user"},
		{"duplicate key", "name: x\nusers: [{key: a, email: a@x.io}, {key: a, email: b@x.io}]", "duplicate user key"},
		{"bad yaml", "users: [", "parse scenario"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestApplyScenario_UnexpectedOutcome(t *testing.T) {
	s, _ := newTestSeeder(t)
	sc, err := LoadScenario(strings.NewReader(`
name: wrong-expectation
users:
  - {key: a, email: a@example.com}
  - {key: b, email: b@example.com}
steps:
  - {action: send, actor: a, target: b, expect: BLOCKED}
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := s.ApplyScenario(context.Background(), sc); err == nil || !strings.Contains(err.Error(), "expected BLOCKED") {
		t.Fatalf("expected an expectation failure, got %v", err)
	}
}

func TestClearAll(t *testing.T) {
	s, db := newTestSeeder(t)
	ctx := context.Background()
	if _, _, err := s.SeedSocialMesh(ctx, 10); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := s.ClearAll(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if n := count(t, db, &models.User{}); n != 0 {
		t.Fatalf("expected no users, got %d", n)
	}
}

func TestFactoryBuildUser(t *testing.T) {
	f, err := NewFactory(nil, 7, true)
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	a, b := f.BuildUser(), f.BuildUser(func(u *models.User) { u.Email = "  Mixed@Case.IO " })
	if a.Email == "" || a.FirstName == "" || a.LastName == "" {
		t.Fatalf("expected fake details, got %+v", a)
	}
	if a.Email != strings.ToLower(a.Email) {
		t.Fatalf("email not normalized: %s", a.Email)
	}
	if b.Email != "mixed@case.io" {
		t.Fatalf("override not normalized: %q", b.Email)
	}
	if !a.IsActive {
		t.Fatal("seeded users are active")
	}
}
