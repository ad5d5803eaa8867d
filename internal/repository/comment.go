// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"

	"triplog/internal/middleware"
	"triplog/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommentRepository is the comment tree store. A top-level comment and its
// embedded children form one aggregate: children are never saved on their
// own, a child mutation is persisted by re-saving its parent.
type CommentRepository interface {
	// GetByID loads a top-level aggregate with its children and author records.
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListByTrip(ctx context.Context, tripID uint) ([]*models.Comment, error)
	CountByTrip(ctx context.Context, tripID uint) (int64, error)
	ListAll(ctx context.Context) ([]*models.Comment, error)
	// Save upserts the whole aggregate. Updates are guarded by a
	// compare-and-swap on the version column; a concurrent writer wins the
	// race and the loser receives a CONFLICT error to reload and retry.
	Save(ctx context.Context, comment *models.Comment) error
	Delete(ctx context.Context, id uint) error
	// DeleteByTrip purges every comment row of a trip. This is the only hard
	// delete reachable from user actions, applied when a trip is destroyed.
	DeleteByTrip(ctx context.Context, tripID uint) error
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Children", func(db *gorm.DB) *gorm.DB {
			return db.Order("comments.created_at ASC")
		}).
		Preload("Children.User").
		Where("parent_id IS NULL").
		First(&comment, id).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) ListByTrip(ctx context.Context, tripID uint) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Children", func(db *gorm.DB) *gorm.DB {
			return db.Order("comments.created_at ASC")
		}).
		Preload("Children.User").
		Where("trip_id = ? AND parent_id IS NULL", tripID).
		Order("created_at ASC").
		Find(&comments).Error
	return comments, err
}

func (r *commentRepository) CountByTrip(ctx context.Context, tripID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("trip_id = ?", tripID).
		Count(&count).Error
	return count, err
}

func (r *commentRepository) ListAll(ctx context.Context) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Children", func(db *gorm.DB) *gorm.DB {
			return db.Order("comments.created_at ASC")
		}).
		Preload("Children.User").
		Where("parent_id IS NULL").
		Order("created_at ASC").
		Find(&comments).Error
	return comments, err
}

func (r *commentRepository) Save(ctx context.Context, comment *models.Comment) error {
	if comment.ID == 0 {
		comment.Version = 1
		return r.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error
	}

	loadedVersion := comment.Version
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Comment{}).
			Where("id = ? AND version = ?", comment.ID, loadedVersion).
			Updates(map[string]interface{}{
				"content":          comment.Content,
				"like_count":       comment.LikeCount,
				"liked_by":         comment.LikedBy,
				"reply_to_user_id": comment.ReplyToUserID,
				"is_deleted":       comment.IsDeleted,
				"updated_at":       comment.UpdatedAt,
				"version":          loadedVersion + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			middleware.CommentSaveConflicts.Inc()
			return models.NewConflictError("comment", comment.ID)
		}

		for i := range comment.Children {
			child := &comment.Children[i]
			child.TripID = comment.TripID
			child.ParentID = &comment.ID
			if child.ID == 0 {
				if err := tx.Omit(clause.Associations).Create(child).Error; err != nil {
					return err
				}
			} else {
				if err := tx.Omit(clause.Associations).Save(child).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	comment.Version = loadedVersion + 1
	return nil
}

func (r *commentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("parent_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Comment{}, id).Error
	})
}

func (r *commentRepository) DeleteByTrip(ctx context.Context, tripID uint) error {
	return r.db.WithContext(ctx).Where("trip_id = ?", tripID).Delete(&models.Comment{}).Error
}
