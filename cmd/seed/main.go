// Command main runs the database seeder for Triplog.
package main

import (
	"flag"
	"log"

	"triplog/internal/config"
	"triplog/internal/database"
	"triplog/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	numTrips := flag.Int("trips", 200, "Number of trips to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Println("Database Seeder")
	log.Printf("Target: %d users, %d trips, clean=%v\n", *numUsers, *numTrips, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db)
	if err := s.Run(seed.Options{
		NumUsers:    *numUsers,
		NumTrips:    *numTrips,
		ShouldClean: *shouldClean,
	}); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("Seeding complete")
}
