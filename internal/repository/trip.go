package repository

import (
	"context"

	"triplog/internal/cache"
	"triplog/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TripRepository defines the interface for trip data operations
type TripRepository interface {
	Create(ctx context.Context, trip *models.Trip) error
	GetByID(ctx context.Context, id uint) (*models.Trip, error)
	GetByUserID(ctx context.Context, userID uint, limit, offset int) ([]*models.Trip, error)
	List(ctx context.Context, limit, offset int) ([]*models.Trip, error)
	Search(ctx context.Context, query string, limit, offset int) ([]*models.Trip, error)
	CountriesByFrequency(ctx context.Context, limit int) ([]models.CountryCount, error)
	Update(ctx context.Context, trip *models.Trip) error
	Delete(ctx context.Context, id uint) error
}

// tripRepository implements TripRepository
type tripRepository struct {
	db *gorm.DB
}

// NewTripRepository creates a new trip repository
func NewTripRepository(db *gorm.DB) TripRepository {
	return &tripRepository{db: db}
}

func (r *tripRepository) Create(ctx context.Context, trip *models.Trip) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(trip).Error
	if err == nil {
		cache.Invalidate(ctx, cache.CountryRankKey())
	}
	return err
}

func (r *tripRepository) GetByID(ctx context.Context, id uint) (*models.Trip, error) {
	var trip models.Trip
	err := r.applyTripDetails(r.db.WithContext(ctx)).
		Preload("User").
		First(&trip, id).Error
	if err != nil {
		return nil, err
	}
	return &trip, nil
}

func (r *tripRepository) GetByUserID(ctx context.Context, userID uint, limit, offset int) ([]*models.Trip, error) {
	var trips []*models.Trip
	err := r.applyTripDetails(r.db.WithContext(ctx)).
		Preload("User").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&trips).Error
	return trips, err
}

func (r *tripRepository) List(ctx context.Context, limit, offset int) ([]*models.Trip, error) {
	var trips []*models.Trip
	err := r.applyTripDetails(r.db.WithContext(ctx)).
		Preload("User").
		Where("is_public = ? AND is_hidden = ?", true, false).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&trips).Error
	return trips, err
}

func (r *tripRepository) Search(ctx context.Context, query string, limit, offset int) ([]*models.Trip, error) {
	var trips []*models.Trip
	like := "%" + query + "%"
	err := r.applyTripDetails(r.db.WithContext(ctx)).
		Preload("User").
		Where("is_public = ? AND is_hidden = ?", true, false).
		Where("title LIKE ? OR content LIKE ? OR country LIKE ? OR hashtags LIKE ?", like, like, like, like).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&trips).Error
	return trips, err
}

// CountriesByFrequency ranks countries by how many visible trips mention them.
// Each country appears once, most-visited first.
func (r *tripRepository) CountriesByFrequency(ctx context.Context, limit int) ([]models.CountryCount, error) {
	var rows []models.CountryCount
	err := r.db.WithContext(ctx).
		Model(&models.Trip{}).
		Select("country, COUNT(*) as count").
		Where("is_public = ? AND is_hidden = ? AND country <> ''", true, false).
		Group("country").
		Order("count DESC, country ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// applyTripDetails adds subqueries to fetch counts in a single query.
func (r *tripRepository) applyTripDetails(db *gorm.DB) *gorm.DB {
	return db.Select("trips.*, " +
		"(SELECT COUNT(*) FROM comments WHERE comments.trip_id = trips.id AND comments.is_deleted = false) as comments_count")
}

func (r *tripRepository) Update(ctx context.Context, trip *models.Trip) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(trip).Error; err != nil {
		return err
	}
	cache.InvalidateTrip(ctx, trip.ID)
	return nil
}

func (r *tripRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Trip{}, id).Error; err != nil {
		return err
	}
	cache.InvalidateTrip(ctx, id)
	return nil
}
