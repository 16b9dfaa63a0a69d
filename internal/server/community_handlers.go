package server

import (
	"unihub/internal/models"
	"unihub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListCommunities handles GET /communities.
func (s *Server) ListCommunities(c *fiber.Ctx) error {
	communities, err := s.communityService.ListCommunities(c.Context(), currentUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}

	if wantsJSON(c) {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"communities": communities})
	}
	return s.render(c, "communities", fiber.Map{"Communities": communities})
}

// CreateCommunity handles POST /communities/new.
func (s *Server) CreateCommunity(c *fiber.Ctx) error {
	var req struct {
		Name          string `json:"name" form:"name"`
		Description   string `json:"description" form:"description"`
		CommunityType string `json:"community_type" form:"community_type"`
	}
	if err := c.BodyParser(&req); err != nil {
		return s.respondError(c, models.NewValidationError("Invalid request body"))
	}

	community, err := s.communityService.CreateCommunity(c.Context(), service.CreateCommunityInput{
		UserID:        currentUserID(c),
		Name:          req.Name,
		Description:   req.Description,
		CommunityType: req.CommunityType,
	})
	if err != nil {
		return s.communityListError(c, err)
	}

	if wantsJSON(c) {
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"community": community})
	}
	return c.Redirect("/communities", fiber.StatusFound)
}

// communityListError re-renders the communities page with the error inline;
// JSON clients get the standard body, including the existing community on a
// duplicate name.
func (s *Server) communityListError(c *fiber.Ctx, err error) error {
	if wantsJSON(c) {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	message := "Could not create the community"
	if appErr, ok := err.(*models.AppError); ok && appErr.Code != "INTERNAL_ERROR" {
		message = appErr.Message
	}
	communities, listErr := s.communityService.ListCommunities(c.Context(), currentUserID(c))
	if listErr != nil {
		return s.respondError(c, listErr)
	}
	return c.Status(models.StatusForError(err)).Render("pages/communities", fiber.Map{
		"Communities": communities,
		"Error":       message,
		"LoggedIn":    true,
	}, "layouts/main")
}

// GetCommunity handles GET /communities/:id.
func (s *Server) GetCommunity(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	userID := currentUserID(c)
	community, err := s.communityService.GetCommunity(c.Context(), id, userID)
	if err != nil {
		return s.respondError(c, err)
	}

	posts, err := s.postService.CommunityPosts(c.Context(), id, userID)
	if err != nil {
		return s.respondError(c, err)
	}

	if wantsJSON(c) {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"community": community,
			"posts":     posts,
		})
	}

	canDelete := community.CreatedByID == userID
	if !canDelete {
		canDelete, _ = s.userService.IsAdmin(c.Context(), userID)
	}
	return s.render(c, "community", fiber.Map{
		"Community": community,
		"Posts":     posts,
		"CanDelete": canDelete,
	})
}

// JoinCommunity handles POST /communities/:id/join. Joining twice is a no-op.
func (s *Server) JoinCommunity(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.communityService.JoinCommunity(c.Context(), currentUserID(c), id); err != nil {
		return s.respondError(c, err)
	}

	if wantsJSON(c) {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Joined"})
	}
	return c.Redirect(c.Get("Referer", "/communities"), fiber.StatusFound)
}

// LeaveCommunity handles POST /communities/:id/leave.
func (s *Server) LeaveCommunity(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.communityService.LeaveCommunity(c.Context(), currentUserID(c), id); err != nil {
		return s.respondError(c, err)
	}

	if wantsJSON(c) {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Left"})
	}
	return c.Redirect(c.Get("Referer", "/communities"), fiber.StatusFound)
}

// DeleteCommunity handles POST /communities/:id/delete.
func (s *Server) DeleteCommunity(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.communityService.DeleteCommunity(c.Context(), currentUserID(c), id); err != nil {
		return s.respondError(c, err)
	}

	if wantsJSON(c) {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Community deleted"})
	}
	return c.Redirect("/communities", fiber.StatusFound)
}

// Explore handles GET /explore: communities the user has not joined.
func (s *Server) Explore(c *fiber.Ctx) error {
	communities, err := s.communityService.Explore(c.Context(), currentUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}

	if wantsJSON(c) {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"communities": communities})
	}
	return s.render(c, "explore", fiber.Map{"Communities": communities})
}
