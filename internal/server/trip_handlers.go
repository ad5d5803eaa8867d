// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"triplog/internal/models"
	"triplog/internal/service"

	"github.com/gofiber/fiber/v2"
)

type tripRequest struct {
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Country   string   `json:"country"`
	Address   string   `json:"address"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Hashtags  []string `json:"hashtags"`
	ImageURLs []string `json:"image_urls"`
	IsPublic  *bool    `json:"is_public"`
}

// CreateTrip handles POST /api/trips
func (s *Server) CreateTrip(c *fiber.Ctx) error {
	var req tripRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	trip, err := s.tripService.CreateTrip(c.Context(), service.CreateTripInput{
		UserID:    currentUserID(c),
		Title:     req.Title,
		Content:   req.Content,
		Country:   req.Country,
		Address:   req.Address,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Hashtags:  req.Hashtags,
		ImageURLs: req.ImageURLs,
		IsPublic:  isPublic,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(trip)
}

// GetTrips handles GET /api/trips
func (s *Server) GetTrips(c *fiber.Ctx) error {
	pq := parsePageQuery(c)

	trips, err := s.tripService.ListTrips(c.Context(), pq.Page, pq.PageSize)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"trips": trips})
}

// SearchTrips handles GET /api/trips/search?q=
func (s *Server) SearchTrips(c *fiber.Ctx) error {
	query := c.Query("q")
	pq := parsePageQuery(c)

	trips, err := s.tripService.SearchTrips(c.Context(), query, pq.Page, pq.PageSize)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"trips": trips})
}

// GetTopCountries handles GET /api/trips/countries
func (s *Server) GetTopCountries(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 10)

	countries, err := s.tripService.TopCountries(c.Context(), limit)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"countries": countries})
}

// GetTrip handles GET /api/trips/:id
// Public endpoint; a valid bearer token lets owners and admins see
// non-public trips.
func (s *Server) GetTrip(c *fiber.Ctx) error {
	tripID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	viewer := s.commentViewer(s.optionalUserID(c))

	trip, err := s.tripService.GetTrip(c.Context(), tripID, viewer)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(trip)
}

// GetUserTrips handles GET /api/users/:id/trips
func (s *Server) GetUserTrips(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	pq := parsePageQuery(c)

	trips, err := s.tripService.ListByUser(c.Context(), userID, pq.Page, pq.PageSize)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"trips": trips})
}

// UpdateTrip handles PUT /api/trips/:id
func (s *Server) UpdateTrip(c *fiber.Ctx) error {
	tripID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req tripRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	trip, err := s.tripService.UpdateTrip(c.Context(), service.UpdateTripInput{
		UserID:    currentUserID(c),
		TripID:    tripID,
		Title:     req.Title,
		Content:   req.Content,
		Country:   req.Country,
		Address:   req.Address,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Hashtags:  req.Hashtags,
		ImageURLs: req.ImageURLs,
		IsPublic:  isPublic,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(trip)
}

// DeleteTrip handles DELETE /api/trips/:id
func (s *Server) DeleteTrip(c *fiber.Ctx) error {
	tripID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.tripService.DeleteTrip(c.Context(), currentUserID(c), tripID); err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Trip deleted"})
}

// ToggleTripVisibility handles POST /api/trips/:id/visibility
func (s *Server) ToggleTripVisibility(c *fiber.Ctx) error {
	tripID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	trip, err := s.tripService.ToggleVisibility(c.Context(), currentUserID(c), tripID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(trip)
}

// UploadTripImage handles POST /api/trips/images (multipart form, field "image")
func (s *Server) UploadTripImage(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("image file is required"))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("could not read image file"))
	}
	defer file.Close()

	url, err := s.tripService.UploadImage(c.Context(), currentUserID(c),
		fileHeader.Filename, fileHeader.Header.Get("Content-Type"), file)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"url": url})
}

// HideTrip handles POST /api/admin/trips/:id/hide
func (s *Server) HideTrip(c *fiber.Ctx) error {
	return s.setTripHidden(c, true)
}

// UnhideTrip handles POST /api/admin/trips/:id/unhide
func (s *Server) UnhideTrip(c *fiber.Ctx) error {
	return s.setTripHidden(c, false)
}

func (s *Server) setTripHidden(c *fiber.Ctx, hidden bool) error {
	tripID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.tripService.SetHidden(c.Context(), currentUserID(c), tripID, hidden); err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"hidden": hidden})
}
