// Command main runs the database seeder for Amity.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"amity/internal/cache"
	"amity/internal/config"
	"amity/internal/database"
	"amity/internal/repository"
	"amity/internal/seed"
	"amity/internal/service"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create for the random mesh")
	shouldClean := flag.Bool("clean", false, "Delete all users and relationships before seeding")
	scenario := flag.String("scenario", "", "YAML scenario file to apply instead of the random mesh (\"demo\" for the built-in one)")
	seedValue := flag.Int64("seed", 0, "Random seed (0 picks one)")
	fast := flag.Bool("fast", false, "Skip password hashing; seeded users cannot log in")
	flag.Parse()

	log.Println("🌱 Database Seeder")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	rdb := cache.InitRedis(cfg.RedisURL)

	friendRepo := repository.NewFriendRepository(db, cfg.TxTimeout())
	userRepo := repository.NewUserRepository(db, cache.NewAside(rdb))
	friends := service.NewFriendService(friendRepo, userRepo, cache.NewCooldownStore(rdb), cfg.FriendRequestCooldown())

	s, err := seed.NewSeeder(db, friends, friendRepo, seed.Options{
		NumUsers:   *numUsers,
		Seed:       *seedValue,
		SkipBcrypt: *fast,
	})
	if err != nil {
		log.Fatalf("Failed to create seeder: %v", err)
	}

	ctx := context.Background()
	if *shouldClean {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	switch *scenario {
	case "":
		if _, _, err := s.SeedSocialMesh(ctx, *numUsers); err != nil {
			log.Fatalf("❌ Mesh seeding failed: %v", err)
		}
	default:
		sc, err := loadScenario(*scenario)
		if err != nil {
			log.Fatalf("❌ Could not load scenario: %v", err)
		}
		if _, err := s.ApplyScenario(ctx, sc); err != nil {
			log.Fatalf("❌ Scenario %q failed: %v", sc.Name, err)
		}
	}

	log.Println("✨ All done! Your database is now populated with test data.")
	if !*fast {
		log.Printf("📧 All seeded users have the password: %s", seed.DefaultPassword)
	}
}

func loadScenario(name string) (*seed.Scenario, error) {
	if name == "demo" {
		return seed.DemoScenario()
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return seed.LoadScenario(f)
}
