package server

import (
	"unihub/internal/models"
	"unihub/internal/service"
	"unihub/internal/session"

	"github.com/gofiber/fiber/v2"
)

// Welcome handles GET /welcome. It answers JSON for every client; the
// external uptime checks depend on this exact body.
func (s *Server) Welcome(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Welcome!",
	})
}

// TestRedirect handles GET /test.
func (s *Server) TestRedirect(c *fiber.Ctx) error {
	return c.Redirect("/login", fiber.StatusFound)
}

// RootRedirect sends authenticated users home and everyone else to login.
func (s *Server) RootRedirect(c *fiber.Ctx) error {
	if id := c.Cookies(session.CookieName); id != "" {
		if _, ok, err := s.sessions.UserID(c.Context(), id); err == nil && ok {
			return c.Redirect("/home", fiber.StatusFound)
		}
	}
	return c.Redirect("/login", fiber.StatusFound)
}

// GetLogin handles GET /login.
func (s *Server) GetLogin(c *fiber.Ctx) error {
	return s.render(c, "login", fiber.Map{})
}

// PostLogin handles POST /login.
func (s *Server) PostLogin(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username" form:"username"`
		Password string `json:"password" form:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return s.loginError(c, models.NewValidationError("Invalid request body"))
	}

	user, err := s.authService.Login(c.Context(), req.Username, req.Password)
	if err != nil {
		return s.loginError(c, err)
	}

	if err := s.openSession(c, user.ID); err != nil {
		return s.respondError(c, err)
	}

	if wantsJSON(c) {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Logged in",
			"user":    safeUser(user),
		})
	}
	return c.Redirect("/home", fiber.StatusFound)
}

// loginError re-renders the login page for browsers instead of the generic
// error page.
func (s *Server) loginError(c *fiber.Ctx, err error) error {
	if wantsJSON(c) {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	message := "Invalid username or password"
	if appErr, ok := err.(*models.AppError); ok && appErr.Code != "INTERNAL_ERROR" {
		message = appErr.Message
	}
	return c.Status(models.StatusForError(err)).Render("pages/login", fiber.Map{
		"Error": message,
	}, "layouts/main")
}

// GetRegister handles GET /register.
func (s *Server) GetRegister(c *fiber.Ctx) error {
	return s.render(c, "register", fiber.Map{})
}

// PostRegister handles POST /register.
func (s *Server) PostRegister(c *fiber.Ctx) error {
	var req struct {
		Email     string `json:"email" form:"email"`
		Username  string `json:"username" form:"username"`
		Password  string `json:"password" form:"password"`
		FirstName string `json:"first_name" form:"first_name"`
		LastName  string `json:"last_name" form:"last_name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return s.registerError(c, models.NewValidationError("Invalid request body"))
	}

	err := s.authService.Register(c.Context(), service.RegisterInput{
		Email:     req.Email,
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return s.registerError(c, err)
	}

	const message = "Registration submitted. Check your email to verify your account."
	if wantsJSON(c) {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": message})
	}
	return c.Status(fiber.StatusOK).Render("pages/register", fiber.Map{
		"Message": message,
	}, "layouts/main")
}

func (s *Server) registerError(c *fiber.Ctx, err error) error {
	if wantsJSON(c) {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	message := "Registration failed"
	if appErr, ok := err.(*models.AppError); ok && appErr.Code != "INTERNAL_ERROR" {
		message = appErr.Message
	}
	return c.Status(models.StatusForError(err)).Render("pages/register", fiber.Map{
		"Error": message,
	}, "layouts/main")
}

// VerifyEmail handles GET /verify-email?token=... A redeemed token logs the
// new user straight in.
func (s *Server) VerifyEmail(c *fiber.Ctx) error {
	user, err := s.authService.VerifyEmail(c.Context(), c.Query("token"))
	if err != nil {
		return s.respondError(c, err)
	}

	if err := s.openSession(c, user.ID); err != nil {
		return s.respondError(c, err)
	}

	if wantsJSON(c) {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Email verified",
			"user":    safeUser(user),
		})
	}
	return c.Redirect("/home", fiber.StatusFound)
}

// Logout handles GET /logout. The session is destroyed unconditionally.
func (s *Server) Logout(c *fiber.Ctx) error {
	if id := c.Cookies(session.CookieName); id != "" {
		_ = s.sessions.Destroy(c.Context(), id)
	}
	s.clearSessionCookie(c)

	if wantsJSON(c) {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Logged out"})
	}
	return c.Redirect("/login", fiber.StatusFound)
}
