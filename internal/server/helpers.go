package server

import (
	"context"
	"errors"
	"time"

	"unihub/internal/middleware"
	"unihub/internal/models"
	"unihub/internal/session"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// wantsJSON reports whether the client asked for JSON. Only the Accept header
// decides; anything else, including an absent header, means HTML.
func wantsJSON(c *fiber.Ctx) bool {
	return c.Accepts("text/html", "application/json") == "application/json"
}

// currentUserID returns the authenticated user's ID. Valid only behind
// AuthRequired.
func currentUserID(c *fiber.Ctx) uint {
	userID, _ := c.Locals("userID").(uint)
	return userID
}

func loggedIn(c *fiber.Ctx) bool {
	return currentUserID(c) != 0
}

// render wraps c.Render with the shared layout and navigation state.
func (s *Server) render(c *fiber.Ctx, page string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if _, ok := data["LoggedIn"]; !ok {
		data["LoggedIn"] = loggedIn(c)
	}
	return c.Render("pages/"+page, data, "layouts/main")
}

// respondError answers with the negotiated representation of err: JSON
// clients get the standard error body, browsers get the error page.
func (s *Server) respondError(c *fiber.Ctx, err error) error {
	status := models.StatusForError(err)
	if status == fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			"path", c.Path(), "error", err)
	}

	if wantsJSON(c) {
		return models.RespondWithError(c, status, err)
	}

	message := "Internal server error"
	if appErr, ok := err.(*models.AppError); ok && appErr.Code != "INTERNAL_ERROR" {
		message = appErr.Message
	}
	return c.Status(status).Render("pages/error", fiber.Map{
		"Message":  message,
		"LoggedIn": loggedIn(c),
	}, "layouts/main")
}

// parseID extracts a route parameter as a positive uint. On failure it writes
// a 400 response and returns errResponseWritten; callers should then return
// nil.
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = s.respondError(c, models.NewValidationError("Invalid ID"))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// setSessionCookie issues the opaque session cookie for the new session ID.
func (s *Server) setSessionCookie(c *fiber.Ctx, id string) {
	c.Cookie(&fiber.Cookie{
		Name:     session.CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   s.config.SessionTTLMins * 60,
		HTTPOnly: true,
		Secure:   s.config.Env == "production",
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// openSession creates a session for the user and sets the cookie.
func (s *Server) openSession(c *fiber.Ctx, userID uint) error {
	id, err := s.sessions.Create(c.Context(), userID)
	if err != nil {
		return models.NewInternalError(err)
	}
	s.setSessionCookie(c, id)
	middleware.SessionsCreated.Inc()
	return nil
}

// AuthRequired resolves the session cookie to a user. JSON clients get a 401,
// browsers are redirected to the login page. Valid sessions slide their
// expiry on every request.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Cookies(session.CookieName)
		if id == "" {
			return s.unauthenticated(c)
		}

		userID, ok, err := s.sessions.UserID(c.Context(), id)
		if err != nil {
			return s.respondError(c, models.NewInternalError(err))
		}
		if !ok {
			s.clearSessionCookie(c)
			return s.unauthenticated(c)
		}

		// Sliding expiry; a refresh failure never blocks the request.
		_ = s.sessions.Refresh(c.Context(), id)

		c.Locals("userID", userID)
		c.Locals("sessionID", id)
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, userID)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

func (s *Server) unauthenticated(c *fiber.Ctx) error {
	if wantsJSON(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Not authenticated",
		})
	}
	return c.Redirect("/login", fiber.StatusFound)
}

// safeUser is the projection of a user sent to clients; the password hash
// never leaves the model thanks to its json:"-" tag, this trims the rest.
func safeUser(user *models.User) fiber.Map {
	return fiber.Map{
		"id":           user.ID,
		"username":     user.Username,
		"email":        user.Email,
		"role":         user.Role,
		"first_name":   user.FirstName,
		"last_name":    user.LastName,
		"avatar_url":   user.AvatarURL,
		"bio":          user.Bio,
		"display_name": user.DisplayName(),
	}
}
