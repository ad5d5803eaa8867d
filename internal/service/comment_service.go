package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"triplog/internal/models"
	"triplog/internal/notifications"
	"triplog/internal/repository"

	"gorm.io/gorm"
)

// maxSaveAttempts bounds the reload-and-retry loop around optimistic-lock
// conflicts on aggregate saves.
const maxSaveAttempts = 3

// CommentService orchestrates the comment tree: authorization, visibility,
// tree mutation, like toggling, soft deletion, and pagination.
type CommentService struct {
	commentRepo repository.CommentRepository
	tripRepo    repository.TripRepository
	userRepo    repository.UserRepository
	sender      notifications.Sender
	isAdmin     func(userID uint) bool
}

// NewCommentService wires a CommentService from its collaborators. sender may
// be nil, which disables notification dispatch.
func NewCommentService(
	commentRepo repository.CommentRepository,
	tripRepo repository.TripRepository,
	userRepo repository.UserRepository,
	sender notifications.Sender,
	isAdmin func(userID uint) bool,
) *CommentService {
	if isAdmin == nil {
		isAdmin = func(uint) bool { return false }
	}
	return &CommentService{
		commentRepo: commentRepo,
		tripRepo:    tripRepo,
		userRepo:    userRepo,
		sender:      sender,
		isAdmin:     isAdmin,
	}
}

// CommentView is the presentation shape of a comment. Deleted comments are
// serialized with the placeholder content here; the domain model keeps the
// original distinction between missing and redacted content.
type CommentView struct {
	ID                uint          `json:"id"`
	AuthorNickname    string        `json:"author_nickname"`
	AuthorProfileURL  string        `json:"author_profile_url"`
	TripID            uint          `json:"trip_id"`
	ParentID          *uint         `json:"parent_id,omitempty"`
	Content           string        `json:"content"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
	MentionedNickname string        `json:"mentioned_nickname,omitempty"`
	IsDeleted         bool          `json:"is_deleted"`
	IsLiked           bool          `json:"is_liked"`
	LikeCount         int           `json:"like_count"`
	Children          []CommentView `json:"children,omitempty"`
}

// PageInfo describes one page of a flattened comment listing.
type PageInfo struct {
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
	PageSize    int `json:"page_size"`
}

type CreateCommentInput struct {
	UserID  uint
	TripID  uint
	Content *string
}

type CreateReplyInput struct {
	UserID            uint
	TripID            uint
	ParentID          uint
	Content           *string
	MentionedNickname string
}

type UpdateCommentInput struct {
	UserID    uint
	CommentID uint
	ParentID  *uint
	Content   *string
}

type DeleteCommentInput struct {
	UserID    uint
	CommentID uint
	ParentID  *uint
}

type ToggleLikeInput struct {
	UserID    uint
	CommentID uint
	ParentID  *uint
}

// visibleTrip loads a trip and applies the viewer's visibility rules,
// collapsing invisible trips into not-found.
func (s *CommentService) visibleTrip(ctx context.Context, tripID uint, viewer models.Viewer) (*models.Trip, error) {
	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, notFoundOr(err, "trip", tripID)
	}
	if !trip.VisibleTo(viewer) {
		return nil, models.NewNotFoundError("trip", tripID)
	}
	return trip, nil
}

// ListByTrip returns the full comment tree of a trip as views. When the
// viewer is a registered member their liked state is attached per comment.
func (s *CommentService) ListByTrip(ctx context.Context, tripID uint, viewer models.Viewer) ([]CommentView, error) {
	if _, err := s.visibleTrip(ctx, tripID, viewer); err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	views := make([]CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, s.toView(ctx, c, viewer.ID))
	}
	return views, nil
}

// ListWithLikedState is the member-facing listing with per-comment isLiked.
func (s *CommentService) ListWithLikedState(ctx context.Context, viewerID, tripID uint) ([]CommentView, error) {
	return s.ListByTrip(ctx, tripID, models.Member(viewerID))
}

// ListAllPaginated is the administrative listing across all trips, flattened
// and paginated.
func (s *CommentService) ListAllPaginated(ctx context.Context, page, pageSize int) ([]CommentView, PageInfo, error) {
	comments, err := s.commentRepo.ListAll(ctx)
	if err != nil {
		return nil, PageInfo{}, err
	}
	views := make([]CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, s.toView(ctx, c, 0))
	}
	items, info := Paginate(views, page, pageSize)
	return items, info, nil
}

// CreateComment persists a new top-level comment and notifies the trip owner.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*CommentView, error) {
	trip, err := s.visibleTrip(ctx, in.TripID, models.Member(in.UserID))
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		TripID:  in.TripID,
		UserID:  in.UserID,
		Content: in.Content,
	}
	if err := s.commentRepo.Save(ctx, comment); err != nil {
		return nil, err
	}

	saved, err := s.commentRepo.GetByID(ctx, comment.ID)
	if err != nil {
		return nil, notFoundOr(err, "comment", comment.ID)
	}

	if trip.UserID != in.UserID && trip.IsPublic {
		s.dispatch(ctx, &models.Notification{
			RecipientID: trip.UserID,
			SenderID:    in.UserID,
			Type:        models.NotificationComment,
			Title:       "New comment on your trip",
			Body:        fmt.Sprintf("%s commented: %s", saved.User.Nickname, snippet(in.Content)),
			TripID:      trip.ID,
			CommentID:   &saved.ID,
		})
	}

	view := s.toView(ctx, saved, in.UserID)
	return &view, nil
}

// CreateReply appends a child to a top-level comment and notifies the
// deduplicated set of interested users.
func (s *CommentService) CreateReply(ctx context.Context, in CreateReplyInput) (*CommentView, error) {
	trip, err := s.visibleTrip(ctx, in.TripID, models.Member(in.UserID))
	if err != nil {
		return nil, err
	}

	var mentioned *models.User
	if in.MentionedNickname != "" {
		mentioned, err = s.userRepo.GetByNickname(ctx, in.MentionedNickname)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, models.NewNotFoundError("user", in.MentionedNickname)
			}
			return nil, err
		}
	}

	var parentAuthorID uint
	var childID uint
	parent, err := s.saveWithRetry(ctx, in.ParentID, func(parent *models.Comment) error {
		if parent.TripID != in.TripID {
			return models.NewNotFoundError("comment", in.ParentID)
		}
		parentAuthorID = parent.UserID
		child := models.Comment{
			TripID:  in.TripID,
			UserID:  in.UserID,
			Content: in.Content,
		}
		if mentioned != nil {
			child.ReplyToUserID = &mentioned.ID
		}
		parent.Children = append(parent.Children, child)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if n := len(parent.Children); n > 0 {
		childID = parent.Children[n-1].ID
	}

	if trip.IsPublic {
		recipients := dedupRecipients(in.UserID, trip.UserID, parentAuthorID, mentionedID(mentioned))
		for _, recipient := range recipients {
			s.dispatch(ctx, &models.Notification{
				RecipientID: recipient,
				SenderID:    in.UserID,
				Type:        models.NotificationReply,
				Title:       "New reply",
				Body:        fmt.Sprintf("%s replied: %s", s.nickname(ctx, in.UserID), snippet(in.Content)),
				TripID:      trip.ID,
				CommentID:   &childID,
				ParentID:    &parent.ID,
			})
		}
	}

	// Return the whole parent including the new child.
	saved, err := s.commentRepo.GetByID(ctx, parent.ID)
	if err != nil {
		return nil, notFoundOr(err, "comment", parent.ID)
	}
	view := s.toView(ctx, saved, in.UserID)
	return &view, nil
}

// UpdateComment replaces the content of a comment or reply. Only the author
// may update, and never once the comment is deleted.
func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*CommentView, error) {
	aggregateID := in.CommentID
	if in.ParentID != nil {
		aggregateID = *in.ParentID
	}

	parent, err := s.saveWithRetry(ctx, aggregateID, func(parent *models.Comment) error {
		target := s.target(parent, in.CommentID, in.ParentID)
		if target == nil {
			return models.NewNotFoundError("comment", in.CommentID)
		}
		if _, err := s.tripRepo.GetByID(ctx, target.TripID); err != nil {
			return notFoundOr(err, "trip", target.TripID)
		}
		if target.UserID != in.UserID {
			return models.NewUnauthorizedError("you can only update your own comments")
		}
		if target.IsDeleted {
			return models.ErrCommentDeleted
		}
		target.Content = in.Content
		target.UpdatedAt = time.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	view := s.viewOf(ctx, parent, in.CommentID, in.ParentID, in.UserID)
	return view, nil
}

// DeleteComment soft-deletes a comment or reply. Non-admin requesters must be
// the author, may not delete twice, and may not touch comments on another
// user's private trip. Administrators delete unconditionally, including
// re-applying the deletion.
func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) error {
	aggregateID := in.CommentID
	if in.ParentID != nil {
		aggregateID = *in.ParentID
	}
	admin := s.isAdmin(in.UserID)

	_, err := s.saveWithRetry(ctx, aggregateID, func(parent *models.Comment) error {
		target := s.target(parent, in.CommentID, in.ParentID)
		if target == nil {
			return models.NewNotFoundError("comment", in.CommentID)
		}
		if !admin {
			if target.IsDeleted {
				return models.NewUnauthorizedError("comment is already deleted")
			}
			trip, err := s.tripRepo.GetByID(ctx, target.TripID)
			if err != nil {
				return notFoundOr(err, "trip", target.TripID)
			}
			if !trip.IsPublic && trip.UserID != in.UserID {
				return models.NewUnauthorizedError("you cannot delete comments on a private trip")
			}
			if target.UserID != in.UserID {
				return models.NewUnauthorizedError("you can only delete your own comments")
			}
		}
		target.SoftDelete()
		target.UpdatedAt = time.Now()
		return nil
	})
	return err
}

// ToggleLike flips the requester's like on a comment or reply and notifies
// the author on a fresh like.
func (s *CommentService) ToggleLike(ctx context.Context, in ToggleLikeInput) (*CommentView, error) {
	aggregateID := in.CommentID
	if in.ParentID != nil {
		aggregateID = *in.ParentID
	}

	var added bool
	var authorID uint
	var tripID uint
	parent, err := s.saveWithRetry(ctx, aggregateID, func(parent *models.Comment) error {
		target := s.target(parent, in.CommentID, in.ParentID)
		if target == nil {
			return models.NewNotFoundError("comment", in.CommentID)
		}
		trip, err := s.tripRepo.GetByID(ctx, target.TripID)
		if err != nil {
			return notFoundOr(err, "trip", target.TripID)
		}
		if !trip.IsPublic && trip.UserID != in.UserID {
			return models.NewUnauthorizedError("you cannot like comments on a private trip")
		}
		wasAdded, err := target.ToggleLike(in.UserID)
		if err != nil {
			return err
		}
		added = wasAdded
		authorID = target.UserID
		tripID = target.TripID
		return nil
	})
	if err != nil {
		return nil, err
	}

	if added && authorID != in.UserID {
		s.dispatch(ctx, &models.Notification{
			RecipientID: authorID,
			SenderID:    in.UserID,
			Type:        models.NotificationCommentLike,
			Title:       "Your comment was liked",
			Body:        fmt.Sprintf("%s liked your comment", s.nickname(ctx, in.UserID)),
			TripID:      tripID,
			CommentID:   &in.CommentID,
		})
	}

	view := s.viewOf(ctx, parent, in.CommentID, in.ParentID, in.UserID)
	return view, nil
}

// Paginate flattens each parent followed immediately by its children, orders
// parent groups newest-updated first, and slices out one page. Out-of-range
// pages yield an empty page, not an error.
func Paginate(parents []CommentView, page, pageSize int) ([]CommentView, PageInfo) {
	page, pageSize = normalizePage(page, pageSize)

	sorted := make([]CommentView, len(parents))
	copy(sorted, parents)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].UpdatedAt.After(sorted[j].UpdatedAt)
	})

	flat := make([]CommentView, 0, len(sorted))
	for _, p := range sorted {
		children := p.Children
		p.Children = nil
		flat = append(flat, p)
		flat = append(flat, children...)
	}

	total := len(flat)
	totalPages := (total + pageSize - 1) / pageSize
	info := PageInfo{CurrentPage: page, TotalPages: totalPages, PageSize: pageSize}

	start := (page - 1) * pageSize
	if start >= total {
		return []CommentView{}, info
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return flat[start:end], info
}

// saveWithRetry loads the aggregate, applies mutate, and saves. A concurrent
// writer losing the version race causes a reload and re-apply, bounded by
// maxSaveAttempts; the final conflict surfaces to the caller.
func (s *CommentService) saveWithRetry(
	ctx context.Context, aggregateID uint, mutate func(*models.Comment) error,
) (*models.Comment, error) {
	var lastErr error
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		parent, err := s.commentRepo.GetByID(ctx, aggregateID)
		if err != nil {
			return nil, notFoundOr(err, "comment", aggregateID)
		}
		if err := mutate(parent); err != nil {
			return nil, err
		}
		err = s.commentRepo.Save(ctx, parent)
		if err == nil {
			return parent, nil
		}
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == models.CodeConflict {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

// target resolves the mutation target inside an aggregate: the parent itself,
// or the addressed child when a parent id was supplied.
func (s *CommentService) target(parent *models.Comment, commentID uint, parentID *uint) *models.Comment {
	if parentID == nil {
		if parent.ID != commentID {
			return nil
		}
		return parent
	}
	return parent.Child(commentID)
}

func (s *CommentService) viewOf(ctx context.Context, parent *models.Comment, commentID uint, parentID *uint, viewerID uint) *CommentView {
	target := s.target(parent, commentID, parentID)
	if target == nil {
		target = parent
	}
	view := s.toView(ctx, target, viewerID)
	return &view
}

func (s *CommentService) toView(ctx context.Context, c *models.Comment, viewerID uint) CommentView {
	view := CommentView{
		ID:               c.ID,
		AuthorNickname:   c.User.Nickname,
		AuthorProfileURL: c.User.ProfileURL(),
		TripID:           c.TripID,
		ParentID:         c.ParentID,
		Content:          viewContent(c),
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
		IsDeleted:        c.IsDeleted,
		LikeCount:        c.LikeCount,
	}
	if viewerID != 0 {
		view.IsLiked = c.LikedBy.Contains(viewerID)
	}
	if c.ReplyToUserID != nil {
		if mentioned, err := s.userRepo.GetByID(ctx, *c.ReplyToUserID); err == nil {
			view.MentionedNickname = mentioned.Nickname
		}
	}
	for i := range c.Children {
		view.Children = append(view.Children, s.toView(ctx, &c.Children[i], viewerID))
	}
	return view
}

func (s *CommentService) dispatch(ctx context.Context, n *models.Notification) {
	if s.sender == nil {
		return
	}
	s.sender.Dispatch(ctx, n)
}

func (s *CommentService) nickname(ctx context.Context, userID uint) string {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "Someone"
	}
	return user.Nickname
}

func viewContent(c *models.Comment) string {
	if c.IsDeleted {
		return models.DeletedCommentPlaceholder
	}
	if c.Content == nil {
		return ""
	}
	return *c.Content
}

func snippet(content *string) string {
	if content == nil {
		return ""
	}
	runes := []rune(*content)
	if len(runes) <= 50 {
		return *content
	}
	return string(runes[:50]) + "..."
}

func dedupRecipients(authorID uint, candidates ...uint) []uint {
	seen := map[uint]struct{}{authorID: {}, 0: {}}
	var out []uint
	for _, id := range candidates {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func mentionedID(u *models.User) uint {
	if u == nil {
		return 0
	}
	return u.ID
}
