package server

import (
	"unihub/internal/models"
	"unihub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetProfile handles GET /profile.
func (s *Server) GetProfile(c *fiber.Ctx) error {
	user, err := s.userService.GetProfile(c.Context(), currentUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}

	if wantsJSON(c) {
		return c.Status(fiber.StatusOK).JSON(safeUser(user))
	}
	return s.render(c, "profile", fiber.Map{
		"User":        user,
		"DisplayName": user.DisplayName(),
	})
}

// UpdateProfile handles POST /profile.
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	var req struct {
		Bio       string `json:"bio" form:"bio"`
		AvatarURL string `json:"avatar_url" form:"avatar_url"`
	}
	if err := c.BodyParser(&req); err != nil {
		return s.respondError(c, models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.UpdateProfile(c.Context(), service.UpdateProfileInput{
		UserID:    currentUserID(c),
		Bio:       req.Bio,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		return s.respondError(c, err)
	}

	if wantsJSON(c) {
		return c.Status(fiber.StatusOK).JSON(safeUser(user))
	}
	return s.render(c, "profile", fiber.Map{
		"User":        user,
		"DisplayName": user.DisplayName(),
		"Message":     "Profile updated",
	})
}

// ListUsers handles GET /users. Admin-only moderation listing.
func (s *Server) ListUsers(c *fiber.Ctx) error {
	admin, err := s.userService.IsAdmin(c.Context(), currentUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	if !admin {
		return s.respondError(c, models.NewForbiddenError("Admin access required"))
	}

	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	users, err := s.userService.ListUsers(c.Context(), limit, offset)
	if err != nil {
		return s.respondError(c, err)
	}

	out := make([]fiber.Map, 0, len(users))
	for i := range users {
		out = append(out, safeUser(&users[i]))
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"users": out})
}

// ChangePassword handles POST /profile/change-password.
func (s *Server) ChangePassword(c *fiber.Ctx) error {
	var req struct {
		CurrentPassword string `json:"current_password" form:"current_password"`
		NewPassword     string `json:"new_password" form:"new_password"`
		ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return s.respondError(c, models.NewValidationError("Invalid request body"))
	}

	err := s.authService.ChangePassword(c.Context(),
		currentUserID(c), req.CurrentPassword, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		return s.respondError(c, err)
	}

	if wantsJSON(c) {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Password changed"})
	}

	user, err := s.userService.GetProfile(c.Context(), currentUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return s.render(c, "profile", fiber.Map{
		"User":        user,
		"DisplayName": user.DisplayName(),
		"Message":     "Password changed",
	})
}
