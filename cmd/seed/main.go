// Command seed loads demo data into a SQL-backed TourismCam store.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"tourismcam/internal/cache"
	"tourismcam/internal/config"
	"tourismcam/internal/database"
	"tourismcam/internal/repository"
	"tourismcam/internal/seed"
)

func main() {
	fakePosts := flag.Int("fake-posts", 0, "Number of random posts to add after the demo fixtures")
	clean := flag.Bool("clean", false, "Drop and recreate all tables before seeding")
	seedValue := flag.Int64("seed", 0, "Random seed for fake posts (0 uses the clock)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.StoreDriver == config.StoreMemory {
		log.Fatalf("STORE_DRIVER is %q; the memory store is seeded by the server at startup", cfg.StoreDriver)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if *clean {
		if err := database.Reset(db); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
		log.Println("Dropped and recreated all tables")
	}

	rdb := cache.Connect(cfg.RedisURL)
	store := repository.NewGormStore(db, cache.New(rdb))
	ctx := context.Background()

	if _, err := seed.Demo(ctx, store); err != nil {
		log.Fatalf("Demo seeding failed: %v", err)
	}

	if *fakePosts > 0 {
		s := *seedValue
		if s == 0 {
			s = time.Now().UnixNano()
		}
		n, err := seed.FakePosts(ctx, store, *fakePosts, s)
		if err != nil {
			log.Fatalf("Fake post seeding failed after %d posts: %v", n, err)
		}
		log.Printf("Created %d fake posts", n)
	}

	if rdb != nil {
		// Recreated tables reuse ids, so cached rows are stale.
		if *clean {
			if err := rdb.FlushDB(ctx).Err(); err != nil {
				log.Printf("Redis flush warning: %v", err)
			}
		}
		_ = rdb.Close()
	}
	log.Println("Done. Demo login: demo@example.com / password123")
}
