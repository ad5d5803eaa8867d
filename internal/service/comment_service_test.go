package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"triplog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	getByIDFn      func(context.Context, uint) (*models.Comment, error)
	listByTripFn   func(context.Context, uint) ([]*models.Comment, error)
	countByTripFn  func(context.Context, uint) (int64, error)
	listAllFn      func(context.Context) ([]*models.Comment, error)
	saveFn         func(context.Context, *models.Comment) error
	deleteFn       func(context.Context, uint) error
	deleteByTripFn func(context.Context, uint) error
}

func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListByTrip(ctx context.Context, tripID uint) ([]*models.Comment, error) {
	return s.listByTripFn(ctx, tripID)
}
func (s *commentRepoStub) CountByTrip(ctx context.Context, tripID uint) (int64, error) {
	return s.countByTripFn(ctx, tripID)
}
func (s *commentRepoStub) ListAll(ctx context.Context) ([]*models.Comment, error) {
	return s.listAllFn(ctx)
}
func (s *commentRepoStub) Save(ctx context.Context, comment *models.Comment) error {
	return s.saveFn(ctx, comment)
}
func (s *commentRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *commentRepoStub) DeleteByTrip(ctx context.Context, tripID uint) error {
	return s.deleteByTripFn(ctx, tripID)
}

func cloneComment(c *models.Comment) *models.Comment {
	cp := *c
	cp.LikedBy = append(models.UserIDSet(nil), c.LikedBy...)
	if c.Content != nil {
		v := *c.Content
		cp.Content = &v
	}
	cp.Children = make([]models.Comment, len(c.Children))
	for i := range c.Children {
		child := c.Children[i]
		child.LikedBy = append(models.UserIDSet(nil), c.Children[i].LikedBy...)
		if c.Children[i].Content != nil {
			v := *c.Children[i].Content
			child.Content = &v
		}
		cp.Children[i] = child
	}
	return &cp
}

// memCommentRepo is a map-backed fake that mirrors the real store's
// aggregate-load and version-checked-save behavior.
func memCommentRepo(seed ...*models.Comment) *commentRepoStub {
	store := map[uint]*models.Comment{}
	var nextID uint = 100
	for _, c := range seed {
		if c.ID == 0 {
			nextID++
			c.ID = nextID
		}
		if c.Version == 0 {
			c.Version = 1
		}
		for i := range c.Children {
			if c.Children[i].ID == 0 {
				nextID++
				c.Children[i].ID = nextID
			}
			c.Children[i].ParentID = &c.ID
			c.Children[i].TripID = c.TripID
		}
		store[c.ID] = cloneComment(c)
	}

	return &commentRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.Comment, error) {
			stored, ok := store[id]
			if !ok || stored.ParentID != nil {
				return nil, gorm.ErrRecordNotFound
			}
			return cloneComment(stored), nil
		},
		listByTripFn: func(_ context.Context, tripID uint) ([]*models.Comment, error) {
			var out []*models.Comment
			for _, c := range store {
				if c.TripID == tripID && c.ParentID == nil {
					out = append(out, cloneComment(c))
				}
			}
			return out, nil
		},
		countByTripFn: func(_ context.Context, tripID uint) (int64, error) {
			var n int64
			for _, c := range store {
				if c.TripID == tripID {
					n++
					n += int64(len(c.Children))
				}
			}
			return n, nil
		},
		listAllFn: func(_ context.Context) ([]*models.Comment, error) {
			var out []*models.Comment
			for _, c := range store {
				if c.ParentID == nil {
					out = append(out, cloneComment(c))
				}
			}
			return out, nil
		},
		saveFn: func(_ context.Context, c *models.Comment) error {
			if c.ID == 0 {
				nextID++
				c.ID = nextID
				c.Version = 1
				store[c.ID] = cloneComment(c)
				return nil
			}
			stored, ok := store[c.ID]
			if !ok {
				return gorm.ErrRecordNotFound
			}
			if stored.Version != c.Version {
				return models.NewConflictError("comment", c.ID)
			}
			c.Version++
			for i := range c.Children {
				child := &c.Children[i]
				if child.ID == 0 {
					nextID++
					child.ID = nextID
				}
				child.ParentID = &c.ID
				child.TripID = c.TripID
			}
			store[c.ID] = cloneComment(c)
			return nil
		},
		deleteFn: func(_ context.Context, id uint) error {
			delete(store, id)
			return nil
		},
		deleteByTripFn: func(_ context.Context, tripID uint) error {
			for id, c := range store {
				if c.TripID == tripID {
					delete(store, id)
				}
			}
			return nil
		},
	}
}

// tripRepoStub is a stub for repository.TripRepository.
type tripRepoStub struct {
	getByIDFn func(context.Context, uint) (*models.Trip, error)
	deleteFn  func(context.Context, uint) error
}

func (s *tripRepoStub) Create(context.Context, *models.Trip) error { return nil }
func (s *tripRepoStub) GetByID(ctx context.Context, id uint) (*models.Trip, error) {
	return s.getByIDFn(ctx, id)
}
func (s *tripRepoStub) GetByUserID(context.Context, uint, int, int) ([]*models.Trip, error) {
	return nil, nil
}
func (s *tripRepoStub) List(context.Context, int, int) ([]*models.Trip, error) { return nil, nil }
func (s *tripRepoStub) Search(context.Context, string, int, int) ([]*models.Trip, error) {
	return nil, nil
}
func (s *tripRepoStub) CountriesByFrequency(context.Context, int) ([]models.CountryCount, error) {
	return nil, nil
}
func (s *tripRepoStub) Update(context.Context, *models.Trip) error { return nil }
func (s *tripRepoStub) Delete(ctx context.Context, id uint) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id)
	}
	return nil
}

func publicTripRepo(ownerID uint) *tripRepoStub {
	return &tripRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.Trip, error) {
			return &models.Trip{ID: id, UserID: ownerID, IsPublic: true}, nil
		},
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	createFn        func(context.Context, *models.User) error
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getByEmailFn    func(context.Context, string) (*models.User, error)
	getByNicknameFn func(context.Context, string) (*models.User, error)
	getByExternalFn func(context.Context, string) (*models.User, error)
	updateFn        func(context.Context, *models.User) error
}

func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	if s.createFn != nil {
		return s.createFn(ctx, user)
	}
	return nil
}
func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	if s.getByIDFn != nil {
		return s.getByIDFn(ctx, id)
	}
	return &models.User{ID: id, Nickname: fmt.Sprintf("user%d", id)}, nil
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.getByEmailFn != nil {
		return s.getByEmailFn(ctx, email)
	}
	return nil, gorm.ErrRecordNotFound
}
func (s *userRepoStub) GetByNickname(ctx context.Context, nickname string) (*models.User, error) {
	if s.getByNicknameFn != nil {
		return s.getByNicknameFn(ctx, nickname)
	}
	return nil, gorm.ErrRecordNotFound
}
func (s *userRepoStub) GetByExternalMemberID(ctx context.Context, memberID string) (*models.User, error) {
	if s.getByExternalFn != nil {
		return s.getByExternalFn(ctx, memberID)
	}
	return nil, gorm.ErrRecordNotFound
}
func (s *userRepoStub) List(context.Context, int, int) ([]*models.User, error) { return nil, nil }
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	if s.updateFn != nil {
		return s.updateFn(ctx, user)
	}
	return nil
}
func (s *userRepoStub) Delete(context.Context, uint) error { return nil }

// senderStub records dispatched notifications.
type senderStub struct {
	sent []*models.Notification
}

func (s *senderStub) Dispatch(_ context.Context, n *models.Notification) {
	s.sent = append(s.sent, n)
}

func (s *senderStub) recipients() []uint {
	out := make([]uint, 0, len(s.sent))
	for _, n := range s.sent {
		out = append(out, n.RecipientID)
	}
	return out
}

func strptr(s string) *string { return &s }

func noAdmin(uint) bool { return false }

func TestCommentService_CreateComment_NotifiesTripOwner(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("other author on public trip notifies owner once", func(t *testing.T) {
		t.Parallel()
		sender := &senderStub{}
		svc := NewCommentService(memCommentRepo(), publicTripRepo(2), &userRepoStub{}, sender, noAdmin)

		view, err := svc.CreateComment(ctx, CreateCommentInput{UserID: 1, TripID: 10, Content: strptr("nice trip")})
		require.NoError(t, err)
		assert.Equal(t, "nice trip", view.Content)
		require.Len(t, sender.sent, 1)
		assert.Equal(t, uint(2), sender.sent[0].RecipientID)
		assert.Equal(t, models.NotificationComment, sender.sent[0].Type)
	})

	t.Run("author commenting own trip sends nothing", func(t *testing.T) {
		t.Parallel()
		sender := &senderStub{}
		svc := NewCommentService(memCommentRepo(), publicTripRepo(1), &userRepoStub{}, sender, noAdmin)

		_, err := svc.CreateComment(ctx, CreateCommentInput{UserID: 1, TripID: 10, Content: strptr("my trip")})
		require.NoError(t, err)
		assert.Empty(t, sender.sent)
	})

	t.Run("private trip sends nothing", func(t *testing.T) {
		t.Parallel()
		sender := &senderStub{}
		tripRepo := &tripRepoStub{getByIDFn: func(_ context.Context, id uint) (*models.Trip, error) {
			return &models.Trip{ID: id, UserID: 2, IsPublic: false}, nil
		}}
		svc := NewCommentService(memCommentRepo(), tripRepo, &userRepoStub{}, sender, noAdmin)

		_, err := svc.CreateComment(ctx, CreateCommentInput{UserID: 1, TripID: 10, Content: strptr("hello")})
		require.NoError(t, err)
		assert.Empty(t, sender.sent)
	})

	t.Run("hidden trip is not found", func(t *testing.T) {
		t.Parallel()
		tripRepo := &tripRepoStub{getByIDFn: func(_ context.Context, id uint) (*models.Trip, error) {
			return &models.Trip{ID: id, UserID: 2, IsPublic: true, IsHidden: true}, nil
		}}
		svc := NewCommentService(memCommentRepo(), tripRepo, &userRepoStub{}, nil, noAdmin)

		_, err := svc.CreateComment(ctx, CreateCommentInput{UserID: 1, TripID: 10, Content: strptr("hello")})
		assertAppErrorCode(t, err, models.CodeNotFound)
	})
}

func TestCommentService_CreateReply_RecipientDedup(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	userC := &models.User{ID: 3, Nickname: "carol"}
	userRepo := &userRepoStub{
		getByNicknameFn: func(_ context.Context, nickname string) (*models.User, error) {
			if nickname == "carol" {
				return userC, nil
			}
			return nil, gorm.ErrRecordNotFound
		},
	}

	t.Run("owner, parent author and mention all distinct", func(t *testing.T) {
		t.Parallel()
		// trip owned by 4, parent comment by 2, reply by 1 mentioning carol (3)
		repo := memCommentRepo(&models.Comment{ID: 50, TripID: 10, UserID: 2, Content: strptr("first")})
		sender := &senderStub{}
		svc := NewCommentService(repo, publicTripRepo(4), userRepo, sender, noAdmin)

		view, err := svc.CreateReply(ctx, CreateReplyInput{
			UserID: 1, TripID: 10, ParentID: 50,
			Content: strptr("welcome"), MentionedNickname: "carol",
		})
		require.NoError(t, err)
		require.Len(t, view.Children, 1)
		assert.Equal(t, "carol", view.Children[0].MentionedNickname)
		assert.ElementsMatch(t, []uint{2, 3, 4}, sender.recipients())
	})

	t.Run("parent author is the trip owner", func(t *testing.T) {
		t.Parallel()
		repo := memCommentRepo(&models.Comment{ID: 50, TripID: 10, UserID: 4, Content: strptr("first")})
		sender := &senderStub{}
		svc := NewCommentService(repo, publicTripRepo(4), userRepo, sender, noAdmin)

		_, err := svc.CreateReply(ctx, CreateReplyInput{
			UserID: 1, TripID: 10, ParentID: 50,
			Content: strptr("welcome"), MentionedNickname: "carol",
		})
		require.NoError(t, err)
		assert.ElementsMatch(t, []uint{3, 4}, sender.recipients())
	})

	t.Run("unknown mention is not found", func(t *testing.T) {
		t.Parallel()
		repo := memCommentRepo(&models.Comment{ID: 50, TripID: 10, UserID: 2, Content: strptr("first")})
		svc := NewCommentService(repo, publicTripRepo(4), userRepo, nil, noAdmin)

		_, err := svc.CreateReply(ctx, CreateReplyInput{
			UserID: 1, TripID: 10, ParentID: 50,
			Content: strptr("welcome"), MentionedNickname: "nobody",
		})
		assertAppErrorCode(t, err, models.CodeNotFound)
	})

	t.Run("private trip skips notifications entirely", func(t *testing.T) {
		t.Parallel()
		repo := memCommentRepo(&models.Comment{ID: 50, TripID: 10, UserID: 4, Content: strptr("first")})
		sender := &senderStub{}
		tripRepo := &tripRepoStub{getByIDFn: func(_ context.Context, id uint) (*models.Trip, error) {
			return &models.Trip{ID: id, UserID: 4, IsPublic: false}, nil
		}}
		svc := NewCommentService(repo, tripRepo, userRepo, sender, noAdmin)

		_, err := svc.CreateReply(ctx, CreateReplyInput{
			UserID: 4, TripID: 10, ParentID: 50, Content: strptr("mine"),
		})
		require.NoError(t, err)
		assert.Empty(t, sender.sent)
	})
}

func TestCommentService_UpdateComment_Authorization(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("non-author is rejected", func(t *testing.T) {
		t.Parallel()
		repo := memCommentRepo(&models.Comment{ID: 50, TripID: 10, UserID: 2, Content: strptr("original")})
		svc := NewCommentService(repo, publicTripRepo(2), &userRepoStub{}, nil, noAdmin)

		_, err := svc.UpdateComment(ctx, UpdateCommentInput{UserID: 1, CommentID: 50, Content: strptr("hijacked")})
		assertAppErrorCode(t, err, models.CodeUnauthorized)

		stored, _ := repo.GetByID(ctx, 50)
		assert.Equal(t, "original", *stored.Content)
	})

	t.Run("deleted comment is immutable", func(t *testing.T) {
		t.Parallel()
		deleted := &models.Comment{ID: 50, TripID: 10, UserID: 1, IsDeleted: true}
		deleted.SoftDelete()
		repo := memCommentRepo(deleted)
		svc := NewCommentService(repo, publicTripRepo(2), &userRepoStub{}, nil, noAdmin)

		_, err := svc.UpdateComment(ctx, UpdateCommentInput{UserID: 1, CommentID: 50, Content: strptr("resurrect")})
		assertAppErrorCode(t, err, models.CodeUnauthorized)
	})

	t.Run("author updates a reply through the parent", func(t *testing.T) {
		t.Parallel()
		parent := &models.Comment{ID: 50, TripID: 10, UserID: 2, Content: strptr("first"), Children: []models.Comment{
			{ID: 51, UserID: 1, Content: strptr("old reply")},
		}}
		repo := memCommentRepo(parent)
		svc := NewCommentService(repo, publicTripRepo(2), &userRepoStub{}, nil, noAdmin)

		pid := uint(50)
		view, err := svc.UpdateComment(ctx, UpdateCommentInput{UserID: 1, CommentID: 51, ParentID: &pid, Content: strptr("new reply")})
		require.NoError(t, err)
		assert.Equal(t, "new reply", view.Content)

		stored, _ := repo.GetByID(ctx, 50)
		assert.Equal(t, "new reply", *stored.Child(51).Content)
	})
}

func TestCommentService_DeleteComment_AdminAsymmetry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	adminOnly999 := func(id uint) bool { return id == 999 }

	t.Run("non-admin double delete is rejected", func(t *testing.T) {
		t.Parallel()
		repo := memCommentRepo(&models.Comment{ID: 50, TripID: 10, UserID: 1, Content: strptr("bye"), LikedBy: models.UserIDSet{7}, LikeCount: 1})
		svc := NewCommentService(repo, publicTripRepo(2), &userRepoStub{}, nil, adminOnly999)

		require.NoError(t, svc.DeleteComment(ctx, DeleteCommentInput{UserID: 1, CommentID: 50}))

		stored, _ := repo.GetByID(ctx, 50)
		assert.True(t, stored.IsDeleted)
		assert.Equal(t, models.DeletedCommentPlaceholder, *stored.Content)
		assert.Empty(t, stored.LikedBy)
		assert.Zero(t, stored.LikeCount)

		err := svc.DeleteComment(ctx, DeleteCommentInput{UserID: 1, CommentID: 50})
		assertAppErrorCode(t, err, models.CodeUnauthorized)
	})

	t.Run("admin delete is re-applicable", func(t *testing.T) {
		t.Parallel()
		repo := memCommentRepo(&models.Comment{ID: 50, TripID: 10, UserID: 1, Content: strptr("bye")})
		svc := NewCommentService(repo, publicTripRepo(2), &userRepoStub{}, nil, adminOnly999)

		require.NoError(t, svc.DeleteComment(ctx, DeleteCommentInput{UserID: 999, CommentID: 50}))
		require.NoError(t, svc.DeleteComment(ctx, DeleteCommentInput{UserID: 999, CommentID: 50}))

		stored, _ := repo.GetByID(ctx, 50)
		assert.True(t, stored.IsDeleted)
	})

	t.Run("non-author cannot delete", func(t *testing.T) {
		t.Parallel()
		repo := memCommentRepo(&models.Comment{ID: 50, TripID: 10, UserID: 2, Content: strptr("keep")})
		svc := NewCommentService(repo, publicTripRepo(2), &userRepoStub{}, nil, adminOnly999)

		err := svc.DeleteComment(ctx, DeleteCommentInput{UserID: 1, CommentID: 50})
		assertAppErrorCode(t, err, models.CodeUnauthorized)
	})

	t.Run("private trip blocks non-owner", func(t *testing.T) {
		t.Parallel()
		repo := memCommentRepo(&models.Comment{ID: 50, TripID: 10, UserID: 1, Content: strptr("keep")})
		tripRepo := &tripRepoStub{getByIDFn: func(_ context.Context, id uint) (*models.Trip, error) {
			return &models.Trip{ID: id, UserID: 2, IsPublic: false}, nil
		}}
		svc := NewCommentService(repo, tripRepo, &userRepoStub{}, nil, adminOnly999)

		err := svc.DeleteComment(ctx, DeleteCommentInput{UserID: 1, CommentID: 50})
		assertAppErrorCode(t, err, models.CodeUnauthorized)
	})
}

func TestCommentService_ToggleLike(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("round trip restores state and notifies once", func(t *testing.T) {
		t.Parallel()
		repo := memCommentRepo(&models.Comment{ID: 50, TripID: 10, UserID: 2, Content: strptr("likeable")})
		sender := &senderStub{}
		svc := NewCommentService(repo, publicTripRepo(2), &userRepoStub{}, sender, noAdmin)

		view, err := svc.ToggleLike(ctx, ToggleLikeInput{UserID: 1, CommentID: 50})
		require.NoError(t, err)
		assert.True(t, view.IsLiked)
		assert.Equal(t, 1, view.LikeCount)
		require.Len(t, sender.sent, 1)
		assert.Equal(t, models.NotificationCommentLike, sender.sent[0].Type)

		view, err = svc.ToggleLike(ctx, ToggleLikeInput{UserID: 1, CommentID: 50})
		require.NoError(t, err)
		assert.False(t, view.IsLiked)
		assert.Zero(t, view.LikeCount)
		// unlike does not notify again
		assert.Len(t, sender.sent, 1)

		stored, _ := repo.GetByID(ctx, 50)
		assert.Empty(t, stored.LikedBy)
		assert.Len(t, stored.LikedBy, stored.LikeCount)
	})

	t.Run("self-like sends no notification", func(t *testing.T) {
		t.Parallel()
		repo := memCommentRepo(&models.Comment{ID: 50, TripID: 10, UserID: 1, Content: strptr("mine")})
		sender := &senderStub{}
		svc := NewCommentService(repo, publicTripRepo(2), &userRepoStub{}, sender, noAdmin)

		_, err := svc.ToggleLike(ctx, ToggleLikeInput{UserID: 1, CommentID: 50})
		require.NoError(t, err)
		assert.Empty(t, sender.sent)
	})

	t.Run("deleted comment rejects like before any mutation", func(t *testing.T) {
		t.Parallel()
		deleted := &models.Comment{ID: 50, TripID: 10, UserID: 2}
		deleted.SoftDelete()
		repo := memCommentRepo(deleted)
		svc := NewCommentService(repo, publicTripRepo(2), &userRepoStub{}, nil, noAdmin)

		_, err := svc.ToggleLike(ctx, ToggleLikeInput{UserID: 1, CommentID: 50})
		assertAppErrorCode(t, err, models.CodeUnauthorized)

		stored, _ := repo.GetByID(ctx, 50)
		assert.Empty(t, stored.LikedBy)
		assert.Zero(t, stored.LikeCount)
	})

	t.Run("like on a reply addresses the child", func(t *testing.T) {
		t.Parallel()
		parent := &models.Comment{ID: 50, TripID: 10, UserID: 2, Content: strptr("first"), Children: []models.Comment{
			{ID: 51, UserID: 3, Content: strptr("reply")},
		}}
		repo := memCommentRepo(parent)
		sender := &senderStub{}
		svc := NewCommentService(repo, publicTripRepo(2), &userRepoStub{}, sender, noAdmin)

		pid := uint(50)
		view, err := svc.ToggleLike(ctx, ToggleLikeInput{UserID: 1, CommentID: 51, ParentID: &pid})
		require.NoError(t, err)
		assert.Equal(t, uint(51), view.ID)
		assert.Equal(t, 1, view.LikeCount)
		require.Len(t, sender.sent, 1)
		assert.Equal(t, uint(3), sender.sent[0].RecipientID)
	})
}

func TestCommentService_SaveConflictRetry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("transient conflicts are retried", func(t *testing.T) {
		t.Parallel()
		repo := memCommentRepo(&models.Comment{ID: 50, TripID: 10, UserID: 2, Content: strptr("contended")})
		failures := 2
		innerSave := repo.saveFn
		repo.saveFn = func(ctx context.Context, c *models.Comment) error {
			if failures > 0 {
				failures--
				return models.NewConflictError("comment", c.ID)
			}
			return innerSave(ctx, c)
		}
		svc := NewCommentService(repo, publicTripRepo(2), &userRepoStub{}, nil, noAdmin)

		view, err := svc.ToggleLike(ctx, ToggleLikeInput{UserID: 1, CommentID: 50})
		require.NoError(t, err)
		assert.Equal(t, 1, view.LikeCount)
	})

	t.Run("persistent conflict surfaces", func(t *testing.T) {
		t.Parallel()
		repo := memCommentRepo(&models.Comment{ID: 50, TripID: 10, UserID: 2, Content: strptr("contended")})
		repo.saveFn = func(_ context.Context, c *models.Comment) error {
			return models.NewConflictError("comment", c.ID)
		}
		svc := NewCommentService(repo, publicTripRepo(2), &userRepoStub{}, nil, noAdmin)

		_, err := svc.ToggleLike(ctx, ToggleLikeInput{UserID: 1, CommentID: 50})
		assertAppErrorCode(t, err, models.CodeConflict)
	})
}

func TestCommentService_ListByTrip_Visibility(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("guest sees public trip comments without liked state", func(t *testing.T) {
		t.Parallel()
		repo := memCommentRepo(&models.Comment{ID: 50, TripID: 10, UserID: 2, Content: strptr("hello"), LikedBy: models.UserIDSet{1}, LikeCount: 1})
		svc := NewCommentService(repo, publicTripRepo(2), &userRepoStub{}, nil, noAdmin)

		views, err := svc.ListByTrip(ctx, 10, models.Guest)
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.False(t, views[0].IsLiked)
		assert.Equal(t, 1, views[0].LikeCount)
	})

	t.Run("member gets liked state", func(t *testing.T) {
		t.Parallel()
		repo := memCommentRepo(&models.Comment{ID: 50, TripID: 10, UserID: 2, Content: strptr("hello"), LikedBy: models.UserIDSet{1}, LikeCount: 1})
		svc := NewCommentService(repo, publicTripRepo(2), &userRepoStub{}, nil, noAdmin)

		views, err := svc.ListWithLikedState(ctx, 1, 10)
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.True(t, views[0].IsLiked)
	})

	t.Run("guest cannot list a private trip", func(t *testing.T) {
		t.Parallel()
		tripRepo := &tripRepoStub{getByIDFn: func(_ context.Context, id uint) (*models.Trip, error) {
			return &models.Trip{ID: id, UserID: 2, IsPublic: false}, nil
		}}
		svc := NewCommentService(memCommentRepo(), tripRepo, &userRepoStub{}, nil, noAdmin)

		_, err := svc.ListByTrip(ctx, 10, models.Guest)
		assertAppErrorCode(t, err, models.CodeNotFound)
	})

	t.Run("hidden trip is invisible to admins too", func(t *testing.T) {
		t.Parallel()
		tripRepo := &tripRepoStub{getByIDFn: func(_ context.Context, id uint) (*models.Trip, error) {
			return &models.Trip{ID: id, UserID: 2, IsPublic: true, IsHidden: true}, nil
		}}
		svc := NewCommentService(memCommentRepo(), tripRepo, &userRepoStub{}, nil, noAdmin)

		_, err := svc.ListByTrip(ctx, 10, models.Admin(999))
		assertAppErrorCode(t, err, models.CodeNotFound)
	})

	t.Run("deleted comments serialize the placeholder", func(t *testing.T) {
		t.Parallel()
		deleted := &models.Comment{ID: 50, TripID: 10, UserID: 2}
		deleted.SoftDelete()
		repo := memCommentRepo(deleted)
		svc := NewCommentService(repo, publicTripRepo(2), &userRepoStub{}, nil, noAdmin)

		views, err := svc.ListByTrip(ctx, 10, models.Guest)
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.True(t, views[0].IsDeleted)
		assert.Equal(t, models.DeletedCommentPlaceholder, views[0].Content)
	})
}

func TestPaginate(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("page math over 25 flattened comments", func(t *testing.T) {
		t.Parallel()
		// 25 flattened entries: 5 parents with 4 children each
		var parents []CommentView
		for i := 0; i < 5; i++ {
			p := CommentView{ID: uint(i * 10), UpdatedAt: base.Add(time.Duration(i) * time.Hour)}
			for j := 1; j <= 4; j++ {
				p.Children = append(p.Children, CommentView{ID: uint(i*10 + j)})
			}
			parents = append(parents, p)
		}

		items, info := Paginate(parents, 1, 10)
		assert.Len(t, items, 10)
		assert.Equal(t, PageInfo{CurrentPage: 1, TotalPages: 3, PageSize: 10}, info)

		items, _ = Paginate(parents, 3, 10)
		assert.Len(t, items, 5)

		items, info = Paginate(parents, 4, 10)
		assert.Empty(t, items)
		assert.Equal(t, 3, info.TotalPages)
	})

	t.Run("reply contiguity survives sorting", func(t *testing.T) {
		t.Parallel()
		parents := []CommentView{
			{ID: 1, UpdatedAt: base, Children: []CommentView{{ID: 11}, {ID: 12}}},
			{ID: 2, UpdatedAt: base.Add(time.Hour), Children: []CommentView{{ID: 21}}},
		}

		items, _ := Paginate(parents, 1, 10)
		ids := make([]uint, len(items))
		for i, v := range items {
			ids[i] = v.ID
		}
		// newest-updated parent first, each followed immediately by its children
		assert.Equal(t, []uint{2, 21, 1, 11, 12}, ids)
	})

	t.Run("stable order for equal timestamps", func(t *testing.T) {
		t.Parallel()
		parents := []CommentView{
			{ID: 1, UpdatedAt: base},
			{ID: 2, UpdatedAt: base},
			{ID: 3, UpdatedAt: base},
		}
		items, _ := Paginate(parents, 1, 10)
		assert.Equal(t, uint(1), items[0].ID)
		assert.Equal(t, uint(2), items[1].ID)
		assert.Equal(t, uint(3), items[2].ID)
	})
}

func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok, "expected *models.AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}
