package server

import (
	"github.com/gofiber/fiber/v2"
)

// Home handles GET /home: the most recent posts across the user's
// communities.
func (s *Server) Home(c *fiber.Ctx) error {
	posts, err := s.postService.HomeFeed(c.Context(), currentUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}

	if wantsJSON(c) {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"posts": posts})
	}
	return s.render(c, "home", fiber.Map{"Posts": posts})
}

// Activity handles GET /activity: every post across the user's communities.
func (s *Server) Activity(c *fiber.Ctx) error {
	posts, err := s.postService.Activity(c.Context(), currentUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}

	if wantsJSON(c) {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"posts": posts})
	}
	return s.render(c, "activity", fiber.Map{"Posts": posts})
}
