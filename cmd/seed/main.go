// Command seed loads sample users, restaurants and menus from a YAML file.
// Staff accounts (restaurant owners, delivery people, admins) can only be
// created this way.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/MikeMC777/foodapp/internal/config"
	"github.com/MikeMC777/foodapp/internal/db"
	"github.com/MikeMC777/foodapp/internal/restaurant"
	"github.com/MikeMC777/foodapp/internal/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[seed] %v", err)
	}
	path := flag.String("file", cfg.SeedFile, "seed YAML file")
	flag.Parse()

	fh, err := os.Open(*path)
	if err != nil {
		log.Fatalf("[seed] open: %v", err)
	}
	defer fh.Close()
	f, err := parseSeed(fh)
	if err != nil {
		log.Fatalf("[seed] %s: %v", *path, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := db.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("[seed] %v", err)
	}
	defer pool.Close()
	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatalf("[seed] %v", err)
	}

	if err := apply(ctx, user.NewPGRepo(pool), restaurant.NewPGRepo(pool), f); err != nil {
		log.Fatalf("[seed] %v", err)
	}
	log.Printf("[seed] done: %d users, %d restaurants", len(f.Users), len(f.Restaurants))
}
