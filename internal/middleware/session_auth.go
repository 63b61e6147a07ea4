package middleware

import (
	"fmt"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/vecinomarket/publicar-flow/internal/storage"
)

// SessionCookie is the name of the credential cookie the twin sets on a
// successful verification. The client never reads it; the cookie jar just
// carries it.
const SessionCookie = "vm_publish_session"

// SessionLocal is the fiber.Ctx local under which RequireSession stores the
// loaded *models.PublishSession.
const SessionLocal = "publishSession"

func sessionSecret() []byte {
	secret := os.Getenv("PUBLISH_SESSION_SECRET")
	if secret == "" {
		secret = "vecino-dev-secret"
	}
	return []byte(secret)
}

// MintSessionToken signs the opaque credential for a publish session.
func MintSessionToken(sessionID string, expiresAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sid": sessionID,
		"exp": expiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(sessionSecret())
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// ParseSessionToken validates the credential and returns the session id.
func ParseSessionToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return sessionSecret(), nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid session token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid session claims")
	}
	sid, ok := claims["sid"].(string)
	if !ok || sid == "" {
		return "", fmt.Errorf("session token missing sid")
	}
	return sid, nil
}

// RequireSession gates publish-only endpoints on a valid credential cookie
// backed by a live session row. Anything less is a 401.
func RequireSession(store storage.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cookie := c.Cookies(SessionCookie)
		if cookie == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing publish session",
			})
		}

		sid, err := ParseSessionToken(cookie)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid publish session",
			})
		}

		session, err := store.GetPublishSession(sid)
		if err != nil || time.Now().After(session.ExpiresAt) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "publish session expired",
			})
		}

		c.Locals(SessionLocal, session)
		return c.Next()
	}
}
