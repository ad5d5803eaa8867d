// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"triplog/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumTrips    int
	ShouldClean bool
}

// Seeder populates the database with generated users, trips, comments, and follows.
type Seeder struct {
	db  *gorm.DB
	rng *rand.Rand
}

// NewSeeder creates a Seeder bound to the given database.
func NewSeeder(db *gorm.DB) *Seeder {
	gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{
		db:  db,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ClearAll removes all seeded rows. Order matters because of foreign keys.
func (s *Seeder) ClearAll() error {
	log.Println("Cleaning database...")
	tables := []interface{}{
		&models.Notification{},
		&models.Follow{},
		&models.Comment{},
		&models.Trip{},
		&models.User{},
	}
	for _, table := range tables {
		if err := s.db.Unscoped().Where("1 = 1").Delete(table).Error; err != nil {
			return fmt.Errorf("cleanup failed: %w", err)
		}
	}
	return nil
}

// Run seeds users, trips, comments, likes, and follows according to opts.
func (s *Seeder) Run(opts Options) error {
	if opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			return err
		}
	}

	users, err := s.SeedUsers(opts.NumUsers)
	if err != nil {
		return err
	}
	log.Printf("Created %d users", len(users))

	trips, err := s.SeedTrips(users, opts.NumTrips)
	if err != nil {
		return err
	}
	log.Printf("Created %d trips", len(trips))

	numComments, err := s.SeedComments(users, trips)
	if err != nil {
		return err
	}
	log.Printf("Created %d comment threads", numComments)

	numFollows, err := s.SeedFollows(users)
	if err != nil {
		return err
	}
	log.Printf("Created %d follows", numFollows)

	return nil
}

// SeedUsers creates n users with bcrypt-hashed passwords. All seeded accounts
// share the password "password123" for local development.
func (s *Seeder) SeedUsers(n int) ([]*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		nickname := fmt.Sprintf("%s%d", strings.ToLower(gofakeit.Username()), i)
		user := &models.User{
			Nickname:        nickname,
			Email:           fmt.Sprintf("%s@%s", nickname, gofakeit.DomainName()),
			Password:        string(hashed),
			Bio:             gofakeit.Sentence(8),
			ProfileImageURL: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
		}
		if err := s.db.Create(user).Error; err != nil {
			return nil, fmt.Errorf("seeding user %d: %w", i, err)
		}
		users = append(users, user)
	}
	return users, nil
}

// SeedTrips creates n trips spread across the given users.
func (s *Seeder) SeedTrips(users []*models.User, n int) ([]*models.Trip, error) {
	if len(users) == 0 {
		return nil, fmt.Errorf("no users to own trips")
	}

	trips := make([]*models.Trip, 0, n)
	for i := 0; i < n; i++ {
		owner := users[s.rng.Intn(len(users))]
		country := gofakeit.Country()
		city := gofakeit.City()

		trip := &models.Trip{
			UserID:    owner.ID,
			Title:     fmt.Sprintf("%s days in %s", gofakeit.HipsterWord(), city),
			Content:   gofakeit.Paragraph(2, 4, 12, "\n"),
			Country:   country,
			Address:   fmt.Sprintf("%s, %s", city, country),
			Latitude:  gofakeit.Latitude(),
			Longitude: gofakeit.Longitude(),
			Hashtags:  models.StringList{gofakeit.HipsterWord(), strings.ToLower(country)},
			ImageURLs: models.StringList{fmt.Sprintf("https://picsum.photos/seed/%s/800/600", gofakeit.UUID())},
			IsPublic:  s.rng.Intn(10) > 1,
		}
		if err := s.db.Create(trip).Error; err != nil {
			return nil, fmt.Errorf("seeding trip %d: %w", i, err)
		}
		trips = append(trips, trip)
	}
	return trips, nil
}

// SeedComments creates comment threads with replies and likes on the given
// trips. Returns the number of top-level comments created.
func (s *Seeder) SeedComments(users []*models.User, trips []*models.Trip) (int, error) {
	created := 0
	for _, trip := range trips {
		numThreads := s.rng.Intn(5)
		for i := 0; i < numThreads; i++ {
			author := users[s.rng.Intn(len(users))]
			content := gofakeit.Sentence(s.rng.Intn(12) + 3)

			comment := &models.Comment{
				TripID:  trip.ID,
				UserID:  author.ID,
				Content: &content,
				Version: 1,
			}

			// Some comments collect likes
			for j := 0; j < s.rng.Intn(4); j++ {
				liker := users[s.rng.Intn(len(users))]
				_, _ = comment.ToggleLike(liker.ID)
			}

			// And some gather replies
			numReplies := s.rng.Intn(3)
			for j := 0; j < numReplies; j++ {
				replier := users[s.rng.Intn(len(users))]
				replyContent := gofakeit.Sentence(s.rng.Intn(8) + 2)
				reply := models.Comment{
					TripID:  trip.ID,
					UserID:  replier.ID,
					Content: &replyContent,
				}
				if j > 0 && s.rng.Intn(2) == 0 {
					mentioned := comment.Children[s.rng.Intn(j)].UserID
					reply.ReplyToUserID = &mentioned
				}
				comment.Children = append(comment.Children, reply)
			}

			if err := s.db.Create(comment).Error; err != nil {
				return created, fmt.Errorf("seeding comment on trip %d: %w", trip.ID, err)
			}
			created++
		}
	}
	return created, nil
}

// SeedFollows creates follow edges between users.
func (s *Seeder) SeedFollows(users []*models.User) (int, error) {
	created := 0
	for _, follower := range users {
		numFollowing := s.rng.Intn(6)
		for i := 0; i < numFollowing; i++ {
			target := users[s.rng.Intn(len(users))]
			if target.ID == follower.ID {
				continue
			}
			follow := &models.Follow{FollowerID: follower.ID, FollowingID: target.ID}
			// Duplicate edges are rejected by the unique index; skip them.
			if err := s.db.Create(follow).Error; err != nil {
				continue
			}
			created++
		}
	}
	return created, nil
}
