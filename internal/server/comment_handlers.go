// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"strings"
	"unicode/utf8"

	"triplog/internal/models"
	"triplog/internal/service"

	"github.com/gofiber/fiber/v2"
)

const maxCommentLength = 200

// validateCommentContent enforces the comment body contract at the HTTP
// boundary: present, non-blank, and at most 200 characters.
func validateCommentContent(content *string) error {
	if content == nil || strings.TrimSpace(*content) == "" {
		return models.NewValidationError("Comment content is required")
	}
	if utf8.RuneCountInString(*content) > maxCommentLength {
		return models.NewValidationError("Comment content must be 200 characters or fewer")
	}
	return nil
}

// commentViewer decides how the requester sees a trip's comments: admin,
// member, or guest.
func (s *Server) commentViewer(userID uint) models.Viewer {
	if userID == 0 {
		return models.Guest
	}
	if s.config.IsAdmin(userID) {
		return models.Admin(userID)
	}
	return models.Member(userID)
}

// GetComments handles GET /api/trips/:id/comments
// Public endpoint; a valid bearer token attaches per-comment liked state.
func (s *Server) GetComments(c *fiber.Ctx) error {
	tripID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	viewer := s.commentViewer(s.optionalUserID(c))

	views, err := s.commentService.ListByTrip(c.Context(), tripID, viewer)
	if err != nil {
		return respondServiceError(c, err)
	}

	pq := parsePageQuery(c)
	items, info := service.Paginate(views, pq.Page, pq.PageSize)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"comments":  items,
		"page_info": info,
	})
}

// CreateComment handles POST /api/trips/:id/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	tripID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Content *string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if err := validateCommentContent(req.Content); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	view, err := s.commentService.CreateComment(c.Context(), service.CreateCommentInput{
		UserID:  currentUserID(c),
		TripID:  tripID,
		Content: req.Content,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(view)
}

// CreateReply handles POST /api/trips/:id/comments/:commentId/replies
func (s *Server) CreateReply(c *fiber.Ctx) error {
	tripID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	parentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	var req struct {
		Content           *string `json:"content"`
		MentionedNickname string  `json:"mentioned_nickname"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if err := validateCommentContent(req.Content); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	view, err := s.commentService.CreateReply(c.Context(), service.CreateReplyInput{
		UserID:            currentUserID(c),
		TripID:            tripID,
		ParentID:          parentID,
		Content:           req.Content,
		MentionedNickname: req.MentionedNickname,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(view)
}

// UpdateComment handles PUT /api/trips/:id/comments/:commentId
// For replies the parent aggregate is addressed with ?parent_id=.
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	if _, err := s.parseID(c, "id"); err != nil {
		return nil
	}
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	var req struct {
		Content *string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if err := validateCommentContent(req.Content); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	view, err := s.commentService.UpdateComment(c.Context(), service.UpdateCommentInput{
		UserID:    currentUserID(c),
		CommentID: commentID,
		ParentID:  parentIDQuery(c),
		Content:   req.Content,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(view)
}

// DeleteComment handles DELETE /api/trips/:id/comments/:commentId
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	if _, err := s.parseID(c, "id"); err != nil {
		return nil
	}
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	err = s.commentService.DeleteComment(c.Context(), service.DeleteCommentInput{
		UserID:    currentUserID(c),
		CommentID: commentID,
		ParentID:  parentIDQuery(c),
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Comment deleted"})
}

// ToggleCommentLike handles POST /api/trips/:id/comments/:commentId/like
func (s *Server) ToggleCommentLike(c *fiber.Ctx) error {
	if _, err := s.parseID(c, "id"); err != nil {
		return nil
	}
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	view, err := s.commentService.ToggleLike(c.Context(), service.ToggleLikeInput{
		UserID:    currentUserID(c),
		CommentID: commentID,
		ParentID:  parentIDQuery(c),
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(view)
}

// GetAllComments handles GET /api/admin/comments
func (s *Server) GetAllComments(c *fiber.Ctx) error {
	pq := parsePageQuery(c)

	items, info, err := s.commentService.ListAllPaginated(c.Context(), pq.Page, pq.PageSize)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"comments":  items,
		"page_info": info,
	})
}

// parentIDQuery reads the optional ?parent_id= query parameter used when the
// target comment is a reply inside a parent aggregate.
func parentIDQuery(c *fiber.Ctx) *uint {
	v := c.QueryInt("parent_id", 0)
	if v <= 0 {
		return nil
	}
	id := uint(v)
	return &id
}
