package handlers

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/vecinomarket/publicar-flow/internal/middleware"
	"github.com/vecinomarket/publicar-flow/internal/services"
)

// OTPHandler serves the code request/verify endpoints.
type OTPHandler struct {
	otpService *services.OTPService
}

// NewOTPHandler creates a new OTP handler.
func NewOTPHandler(otpService *services.OTPService) *OTPHandler {
	return &OTPHandler{otpService: otpService}
}

// RequestCode handles POST /api/otp/request.
func (h *OTPHandler) RequestCode(c *fiber.Ctx) error {
	var payload struct {
		Phone   string `json:"phone"`
		Channel string `json:"channel"`
	}
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	phone := strings.TrimSpace(payload.Phone)
	if !strings.HasPrefix(phone, "+") || len(phone) < 12 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "phone must be in E.164 format",
		})
	}

	otp, err := h.otpService.RequestCode(phone, payload.Channel)
	if err != nil {
		var cooldown *services.CooldownError
		if errors.As(err, &cooldown) {
			// The client parses this marker to show the remaining wait.
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": fmt.Sprintf("COOLDOWN_%d", cooldown.Remaining),
			})
		}
		log.Printf("❌ Failed to send code to %s: %v", phone, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "could not send code",
		})
	}

	return c.JSON(fiber.Map{
		"otpSessionId":    otp.SessionID,
		"phoneE164":       otp.PhoneE164,
		"cooldownSeconds": int(services.ResendCooldown.Seconds()),
	})
}

// VerifyCode handles POST /api/otp/verify. On success it sets the publish
// session cookie; the response body carries nothing the client needs.
func (h *OTPHandler) VerifyCode(c *fiber.Ctx) error {
	var payload struct {
		OTPSessionID string `json:"otpSessionId"`
		Code         string `json:"code"`
	}
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if payload.OTPSessionID == "" || len(payload.Code) != 6 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "otpSessionId and a 6-digit code are required",
		})
	}

	session, err := h.otpService.VerifyCode(payload.OTPSessionID, payload.Code)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCodeInvalid):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid code",
			})
		case errors.Is(err, services.ErrCodeExpired), errors.Is(err, services.ErrTooManyAttempts):
			return c.Status(fiber.StatusGone).JSON(fiber.Map{
				"error": "code expired",
			})
		default:
			log.Printf("❌ Verify failed for session %s: %v", payload.OTPSessionID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "could not verify code",
			})
		}
	}

	token, err := middleware.MintSessionToken(session.SessionID, session.ExpiresAt)
	if err != nil {
		log.Printf("❌ Failed to mint session token: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "could not create session",
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Expires:  session.ExpiresAt,
		HTTPOnly: true,
		SameSite: "Lax",
		Path:     "/",
	})

	log.Printf("✅ Phone %s verified, publish session %s", session.PhoneE164, session.SessionID)
	return c.JSON(fiber.Map{"ok": true})
}
