package handlers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/vecinomarket/publicar-flow/internal/middleware"
	"github.com/vecinomarket/publicar-flow/internal/models"
)

// ListingHandler is the sample publish-only surface behind RequireSession.
// The twin does not run a real catalog; it accepts the listing and echoes a
// created record so clients can exercise the gated path end to end.
type ListingHandler struct{}

// NewListingHandler creates a new listing handler.
func NewListingHandler() *ListingHandler {
	return &ListingHandler{}
}

// CreateListing handles POST /api/listings.
func (h *ListingHandler) CreateListing(c *fiber.Ctx) error {
	session, ok := c.Locals(middleware.SessionLocal).(*models.PublishSession)
	if !ok {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	var payload struct {
		Title string  `json:"title"`
		Price float64 `json:"price"`
	}
	if err := c.BodyParser(&payload); err != nil || payload.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "a title is required",
		})
	}

	listingID := "LST" + uuid.NewString()[:8]
	log.Printf("📦 Listing %s created by %s: %q", listingID, session.PhoneE164, payload.Title)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":        listingID,
		"title":     payload.Title,
		"price":     payload.Price,
		"seller":    session.PhoneLocal,
		"createdAt": time.Now().Format(time.RFC3339),
	})
}
