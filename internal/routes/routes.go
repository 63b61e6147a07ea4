package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vecinomarket/publicar-flow/internal/handlers"
	"github.com/vecinomarket/publicar-flow/internal/middleware"
	"github.com/vecinomarket/publicar-flow/internal/services"
	"github.com/vecinomarket/publicar-flow/internal/storage"
)

// SetupRoutes configures the twin's API routes.
func SetupRoutes(app *fiber.App, store storage.Store, otpService *services.OTPService) {
	otpHandler := handlers.NewOTPHandler(otpService)
	sessionHandler := handlers.NewSessionHandler(store)
	listingHandler := handlers.NewListingHandler()

	api := app.Group("/api")

	otp := api.Group("/otp")
	otp.Post("/request", otpHandler.RequestCode)
	otp.Post("/verify", otpHandler.VerifyCode)

	api.Get("/publish-session", sessionHandler.GetSession)

	// Publish-only surface: the credential cookie is the only key.
	api.Post("/listings", middleware.RequireSession(store), listingHandler.CreateListing)
}
