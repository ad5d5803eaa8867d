package service

import (
	"context"
	"fmt"

	"triplog/internal/models"
	"triplog/internal/notifications"
	"triplog/internal/repository"
)

// FollowService manages follower relationships.
type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
	sender     notifications.Sender
}

func NewFollowService(
	followRepo repository.FollowRepository,
	userRepo repository.UserRepository,
	sender notifications.Sender,
) *FollowService {
	return &FollowService{followRepo: followRepo, userRepo: userRepo, sender: sender}
}

// FollowStatus summarizes the relationship between two users.
type FollowStatus struct {
	IsFollowing    bool  `json:"is_following"`
	FollowerCount  int64 `json:"follower_count"`
	FollowingCount int64 `json:"following_count"`
}

// Follow creates the relationship and notifies the followed user.
func (s *FollowService) Follow(ctx context.Context, followerID, followingID uint) error {
	if followerID == followingID {
		return models.NewValidationError("you cannot follow yourself")
	}
	target, err := s.userRepo.GetByID(ctx, followingID)
	if err != nil {
		return notFoundOr(err, "user", followingID)
	}

	exists, err := s.followRepo.ExistsByFollowerAndFollowing(ctx, followerID, followingID)
	if err != nil {
		return err
	}
	if exists {
		return models.NewValidationError("already following this user")
	}

	if err := s.followRepo.Create(ctx, &models.Follow{
		FollowerID:  followerID,
		FollowingID: followingID,
	}); err != nil {
		return err
	}

	if s.sender != nil {
		follower, err := s.userRepo.GetByID(ctx, followerID)
		nickname := "Someone"
		if err == nil {
			nickname = follower.Nickname
		}
		s.sender.Dispatch(ctx, &models.Notification{
			RecipientID: target.ID,
			SenderID:    followerID,
			Type:        models.NotificationFollow,
			Title:       "New follower",
			Body:        fmt.Sprintf("%s started following you", nickname),
		})
	}
	return nil
}

// Unfollow removes the relationship; removing a non-existent one is not found.
func (s *FollowService) Unfollow(ctx context.Context, followerID, followingID uint) error {
	removed, err := s.followRepo.Delete(ctx, followerID, followingID)
	if err != nil {
		return err
	}
	if !removed {
		return models.NewNotFoundError("follow", followingID)
	}
	return nil
}

// Status reports whether viewer follows target, plus target's counts.
func (s *FollowService) Status(ctx context.Context, viewerID, targetID uint) (*FollowStatus, error) {
	status := &FollowStatus{}
	if viewerID != 0 {
		following, err := s.followRepo.ExistsByFollowerAndFollowing(ctx, viewerID, targetID)
		if err != nil {
			return nil, err
		}
		status.IsFollowing = following
	}

	followers, err := s.followRepo.CountFollowers(ctx, targetID)
	if err != nil {
		return nil, err
	}
	following, err := s.followRepo.CountFollowing(ctx, targetID)
	if err != nil {
		return nil, err
	}
	status.FollowerCount = followers
	status.FollowingCount = following
	return status, nil
}

// ListFollowers returns the users following userID.
func (s *FollowService) ListFollowers(ctx context.Context, userID uint, page, pageSize int) ([]*models.User, error) {
	page, pageSize = normalizePage(page, pageSize)
	follows, err := s.followRepo.ListFollowers(ctx, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	users := make([]*models.User, 0, len(follows))
	for _, f := range follows {
		u := f.Follower
		users = append(users, &u)
	}
	return users, nil
}

// ListFollowing returns the users userID follows.
func (s *FollowService) ListFollowing(ctx context.Context, userID uint, page, pageSize int) ([]*models.User, error) {
	page, pageSize = normalizePage(page, pageSize)
	follows, err := s.followRepo.ListFollowing(ctx, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	users := make([]*models.User, 0, len(follows))
	for _, f := range follows {
		u := f.Following
		users = append(users, &u)
	}
	return users, nil
}
