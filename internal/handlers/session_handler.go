package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/vecinomarket/publicar-flow/internal/middleware"
	"github.com/vecinomarket/publicar-flow/internal/storage"
)

// SessionHandler serves the authoritative publish-session lookup.
type SessionHandler struct {
	store storage.Store
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(store storage.Store) *SessionHandler {
	return &SessionHandler{store: store}
}

// GetSession handles GET /api/publish-session. A missing, invalid, or
// expired credential is a plain 401 — "no session" is an ordinary answer
// here, not a fault.
func (h *SessionHandler) GetSession(c *fiber.Ctx) error {
	cookie := c.Cookies(middleware.SessionCookie)
	if cookie == "" {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	sid, err := middleware.ParseSessionToken(cookie)
	if err != nil {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	session, err := h.store.GetPublishSession(sid)
	if err != nil || time.Now().After(session.ExpiresAt) {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	return c.JSON(session.Remote())
}
