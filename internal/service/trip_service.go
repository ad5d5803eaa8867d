package service

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"triplog/internal/cache"
	"triplog/internal/geocode"
	"triplog/internal/models"
	"triplog/internal/repository"
	"triplog/internal/storage"
)

const defaultCountryRankSize = 10

// TripService manages travel write-ups: CRUD, visibility, image storage,
// reverse geocoding, and the country-frequency ranking.
type TripService struct {
	tripRepo    repository.TripRepository
	commentRepo repository.CommentRepository
	store       storage.ObjectStore
	geocoder    geocode.Geocoder
	isAdmin     func(userID uint) bool
}

// NewTripService wires a TripService. store and geocoder may be nil; the
// corresponding features degrade gracefully.
func NewTripService(
	tripRepo repository.TripRepository,
	commentRepo repository.CommentRepository,
	store storage.ObjectStore,
	geocoder geocode.Geocoder,
	isAdmin func(userID uint) bool,
) *TripService {
	if isAdmin == nil {
		isAdmin = func(uint) bool { return false }
	}
	return &TripService{
		tripRepo:    tripRepo,
		commentRepo: commentRepo,
		store:       store,
		geocoder:    geocoder,
		isAdmin:     isAdmin,
	}
}

type CreateTripInput struct {
	UserID    uint
	Title     string
	Content   string
	Country   string
	Address   string
	Latitude  float64
	Longitude float64
	Hashtags  []string
	ImageURLs []string
	IsPublic  bool
}

type UpdateTripInput struct {
	UserID    uint
	TripID    uint
	Title     string
	Content   string
	Country   string
	Address   string
	Latitude  float64
	Longitude float64
	Hashtags  []string
	ImageURLs []string
	IsPublic  bool
}

func (s *TripService) CreateTrip(ctx context.Context, in CreateTripInput) (*models.Trip, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, models.NewValidationError("Content is required")
	}

	country := in.Country
	address := in.Address
	if country == "" && s.geocoder != nil && (in.Latitude != 0 || in.Longitude != 0) {
		place, err := s.geocoder.Reverse(ctx, in.Latitude, in.Longitude)
		if err != nil {
			slog.WarnContext(ctx, "reverse geocoding failed", "lat", in.Latitude, "lng", in.Longitude, "error", err)
		} else {
			country = place.Country
			if address == "" {
				address = place.Address
			}
		}
	}

	trip := &models.Trip{
		UserID:    in.UserID,
		Title:     in.Title,
		Content:   in.Content,
		Country:   country,
		Address:   address,
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		Hashtags:  in.Hashtags,
		ImageURLs: in.ImageURLs,
		IsPublic:  in.IsPublic,
	}
	if err := s.tripRepo.Create(ctx, trip); err != nil {
		return nil, err
	}
	return s.tripRepo.GetByID(ctx, trip.ID)
}

// UploadImage stores one trip image and returns its public URL.
func (s *TripService) UploadImage(ctx context.Context, userID uint, filename, contentType string, body io.Reader) (string, error) {
	if s.store == nil {
		return "", models.NewValidationError("image storage is not configured")
	}
	key := storage.NewImageKey(userID, filename)
	return s.store.Upload(ctx, key, contentType, body)
}

// GetTrip returns a trip visible to the viewer. Public trips are served
// through the cache.
func (s *TripService) GetTrip(ctx context.Context, id uint, viewer models.Viewer) (*models.Trip, error) {
	var trip models.Trip
	found, err := cache.GetJSON(ctx, cache.TripKey(id), &trip)
	if err != nil {
		slog.WarnContext(ctx, "trip cache read failed", "trip_id", id, "error", err)
		found = false
	}
	if !found {
		loaded, err := s.tripRepo.GetByID(ctx, id)
		if err != nil {
			return nil, notFoundOr(err, "trip", id)
		}
		trip = *loaded
		if trip.IsPublic && !trip.IsHidden {
			_ = cache.SetJSON(ctx, cache.TripKey(id), &trip, cache.TripTTL)
		}
	}

	if !trip.VisibleTo(viewer) && trip.UserID != viewer.ID {
		return nil, models.NewNotFoundError("trip", id)
	}
	return &trip, nil
}

// ListTrips returns public trips, newest first.
func (s *TripService) ListTrips(ctx context.Context, page, pageSize int) ([]*models.Trip, error) {
	page, pageSize = normalizePage(page, pageSize)
	return s.tripRepo.List(ctx, pageSize, (page-1)*pageSize)
}

// ListByUser returns a user's trips, newest first.
func (s *TripService) ListByUser(ctx context.Context, userID uint, page, pageSize int) ([]*models.Trip, error) {
	page, pageSize = normalizePage(page, pageSize)
	return s.tripRepo.GetByUserID(ctx, userID, pageSize, (page-1)*pageSize)
}

// SearchTrips matches public trips against title, content, country and hashtags.
func (s *TripService) SearchTrips(ctx context.Context, query string, page, pageSize int) ([]*models.Trip, error) {
	if strings.TrimSpace(query) == "" {
		return nil, models.NewValidationError("Search query is required")
	}
	page, pageSize = normalizePage(page, pageSize)
	return s.tripRepo.Search(ctx, query, pageSize, (page-1)*pageSize)
}

func (s *TripService) UpdateTrip(ctx context.Context, in UpdateTripInput) (*models.Trip, error) {
	trip, err := s.tripRepo.GetByID(ctx, in.TripID)
	if err != nil {
		return nil, notFoundOr(err, "trip", in.TripID)
	}
	if trip.UserID != in.UserID {
		return nil, models.NewUnauthorizedError("you can only update your own trips")
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, models.NewValidationError("Content is required")
	}

	trip.Title = in.Title
	trip.Content = in.Content
	trip.Country = in.Country
	trip.Address = in.Address
	trip.Latitude = in.Latitude
	trip.Longitude = in.Longitude
	trip.Hashtags = in.Hashtags
	trip.ImageURLs = in.ImageURLs
	trip.IsPublic = in.IsPublic

	if err := s.tripRepo.Update(ctx, trip); err != nil {
		return nil, err
	}
	return s.tripRepo.GetByID(ctx, trip.ID)
}

// DeleteTrip destroys a trip along with its comment tree and stored images.
// Comments are the only hard delete reachable from user actions.
func (s *TripService) DeleteTrip(ctx context.Context, userID, tripID uint) error {
	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return notFoundOr(err, "trip", tripID)
	}
	if trip.UserID != userID && !s.isAdmin(userID) {
		return models.NewUnauthorizedError("you can only delete your own trips")
	}

	if err := s.commentRepo.DeleteByTrip(ctx, tripID); err != nil {
		return err
	}
	if s.store != nil {
		for _, url := range trip.ImageURLs {
			if err := s.store.Delete(ctx, url); err != nil {
				slog.WarnContext(ctx, "failed to delete trip image", "trip_id", tripID, "url", url, "error", err)
			}
		}
	}
	return s.tripRepo.Delete(ctx, tripID)
}

// ToggleVisibility flips a trip between public and private.
func (s *TripService) ToggleVisibility(ctx context.Context, userID, tripID uint) (*models.Trip, error) {
	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, notFoundOr(err, "trip", tripID)
	}
	if trip.UserID != userID {
		return nil, models.NewUnauthorizedError("you can only change your own trips")
	}
	trip.IsPublic = !trip.IsPublic
	if err := s.tripRepo.Update(ctx, trip); err != nil {
		return nil, err
	}
	return trip, nil
}

// SetHidden applies or lifts the administrative moderation flag.
func (s *TripService) SetHidden(ctx context.Context, adminID, tripID uint, hidden bool) error {
	if !s.isAdmin(adminID) {
		return models.NewUnauthorizedError("administrator access required")
	}
	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return notFoundOr(err, "trip", tripID)
	}
	trip.IsHidden = hidden
	return s.tripRepo.Update(ctx, trip)
}

// TopCountries ranks countries by trip frequency, served through the cache.
func (s *TripService) TopCountries(ctx context.Context, limit int) ([]models.CountryCount, error) {
	if limit <= 0 || limit > defaultCountryRankSize {
		limit = defaultCountryRankSize
	}

	var ranks []models.CountryCount
	err := cache.Aside(ctx, cache.CountryRankKey(), &ranks, cache.CountryRankTTL, func() error {
		fetched, err := s.tripRepo.CountriesByFrequency(ctx, defaultCountryRankSize)
		if err != nil {
			return err
		}
		ranks = fetched
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(ranks) > limit {
		ranks = ranks[:limit]
	}
	return ranks, nil
}
