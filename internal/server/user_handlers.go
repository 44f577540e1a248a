package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/users/me
// @Summary Current user profile
// @Tags users
// @Produce json
// @Success 200 {object} models.UserProfile
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/me [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	profile, err := s.userService.Profile(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(profile)
}

// GetUserProfile handles GET /api/users/:id
// @Summary User profile
// @Description Users separated from the caller by a block are reported as not found
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.UserProfile
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/{id} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	viewerID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	profile, err := s.userService.VisibleProfile(c.UserContext(), viewerID, id)
	if err != nil {
		return err
	}
	return c.JSON(profile)
}

// SearchUsers handles GET /api/users/search?q=...
// @Summary Search users
// @Description Exact email match first, otherwise substring match on email and names
// @Tags users
// @Produce json
// @Param q query string true "Search query"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} models.Page[models.UserProfile]
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/search [get]
func (s *Server) SearchUsers(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	page, err := s.userService.Search(c.UserContext(), userID, c.Query("q"), parsePage(c))
	if err != nil {
		return err
	}
	return c.JSON(page)
}

// GetFeatureFlags handles GET /api/users/me/flags
// @Summary Feature flags
// @Description Configured feature flags and their evaluated state for the caller
// @Tags users
// @Produce json
// @Success 200 {object} object{raw=map[string]string,evaluated=map[string]bool}
// @Security BearerAuth
// @Router /users/me/flags [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"raw":       s.featureFlags.Raw(),
		"evaluated": s.featureFlags.Snapshot(userID),
	})
}
