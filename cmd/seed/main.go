// Command seed populates the database with demo users, communities and posts.
package main

import (
	"flag"
	"log"

	"unihub/internal/config"
	"unihub/internal/database"
	"unihub/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 8, "number of generated users (fixtures are added on top)")
	numPosts := flag.Int("posts", 40, "number of generated posts")
	clean := flag.Bool("clean", false, "delete existing data before seeding")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := seed.Seed(db, seed.Options{
		NumUsers:    *numUsers,
		NumPosts:    *numPosts,
		ShouldClean: *clean,
	}); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("Seeding complete.")
	log.Println("Fixture accounts: user1/user123 and admin/admin123. Generated users have the password: password123")
}
