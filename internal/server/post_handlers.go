package server

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"unihub/internal/models"
	"unihub/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var allowedImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// CreatePost handles POST /communities/create-post (multipart form with an
// optional post_image file).
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req struct {
		Text        string `json:"post_text" form:"post_text"`
		CommunityID uint   `json:"community_id" form:"community_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return s.respondError(c, models.NewValidationError("Invalid request body"))
	}
	if req.CommunityID == 0 {
		return s.respondError(c, models.NewValidationError("community_id is required"))
	}

	imageURL, err := s.savePostImage(c)
	if err != nil {
		return s.respondError(c, err)
	}

	post, err := s.postService.CreatePost(c.Context(), service.CreatePostInput{
		UserID:      currentUserID(c),
		CommunityID: req.CommunityID,
		Text:        req.Text,
		ImageURL:    imageURL,
	})
	if err != nil {
		return s.respondError(c, err)
	}

	if wantsJSON(c) {
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"post": post})
	}
	return c.Redirect(fmt.Sprintf("/communities/%d", req.CommunityID), fiber.StatusFound)
}

// savePostImage stores the optional post_image upload under the uploads dir
// with a random filename and returns its public URL. No file is not an error.
func (s *Server) savePostImage(c *fiber.Ctx) (string, error) {
	file, err := c.FormFile("post_image")
	if err != nil || file == nil || file.Size == 0 {
		return "", nil
	}

	maxBytes := int64(s.config.MaxUploadMB) * 1024 * 1024
	if maxBytes > 0 && file.Size > maxBytes {
		return "", models.NewValidationError(
			fmt.Sprintf("Image too large (max %dMB)", s.config.MaxUploadMB))
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedImageExtensions[ext] {
		return "", models.NewValidationError("Unsupported image type")
	}

	if err := os.MkdirAll(s.config.UploadDir, 0o755); err != nil {
		return "", models.NewInternalError(err)
	}

	// Random name so uploads can never collide or traverse paths.
	name := uuid.NewString() + ext
	if err := c.SaveFile(file, filepath.Join(s.config.UploadDir, name)); err != nil {
		return "", models.NewInternalError(err)
	}

	return "/uploads/" + name, nil
}

// LikePost handles POST /posts/:id/like. Liking twice leaves the count
// unchanged; the response always carries the current count.
func (s *Server) LikePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	count, err := s.postService.LikePost(c.Context(), currentUserID(c), id)
	if err != nil {
		return s.respondError(c, err)
	}

	if wantsJSON(c) {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"message":    "Liked",
			"like_count": count,
		})
	}
	return c.Redirect(c.Get("Referer", "/home"), fiber.StatusFound)
}

// DeletePost handles POST /posts/:id/delete.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.DeletePost(c.Context(), currentUserID(c), id); err != nil {
		return s.respondError(c, err)
	}

	if wantsJSON(c) {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Post deleted"})
	}
	return c.Redirect(c.Get("Referer", "/home"), fiber.StatusFound)
}
