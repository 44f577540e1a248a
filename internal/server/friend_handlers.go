package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetFriends handles GET /api/friends
// @Summary List friends
// @Description Friends sorted by first then last name, optionally filtered by q
// @Tags friends
// @Produce json
// @Param q query string false "Substring of email, first or last name"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} models.Page[models.FriendEntry]
// @Security BearerAuth
// @Router /friends [get]
func (s *Server) GetFriends(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	page, err := s.friendQueries.ListFriends(c.UserContext(), userID, parseListQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(page)
}

// SendFriendRequest handles POST /api/friends/requests
// @Summary Send friend request
// @Tags friends
// @Accept json
// @Produce json
// @Param request body object{receiver=int} true "Receiver user ID"
// @Success 201 {object} models.FriendRequest
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /friends/requests [post]
func (s *Server) SendFriendRequest(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req struct {
		Receiver uint `json:"receiver"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}

	friendRequest, err := s.friendService.SendRequest(c.UserContext(), userID, req.Receiver)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(friendRequest)
}

// GetPendingRequests handles GET /api/friends/requests/pending
// @Summary Incoming pending requests
// @Tags friends
// @Produce json
// @Param q query string false "Substring of the sender's email, first or last name"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} models.Page[models.RequestEntry]
// @Security BearerAuth
// @Router /friends/requests/pending [get]
func (s *Server) GetPendingRequests(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	page, err := s.friendQueries.ListPendingRequests(c.UserContext(), userID, parseListQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(page)
}

// GetSentRequests handles GET /api/friends/requests/sent
// @Summary Outgoing pending requests
// @Tags friends
// @Produce json
// @Success 200 {object} models.Page[models.RequestEntry]
// @Security BearerAuth
// @Router /friends/requests/sent [get]
func (s *Server) GetSentRequests(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	page, err := s.friendQueries.ListSentRequests(c.UserContext(), userID, parseListQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(page)
}

// RespondToFriendRequest handles POST /api/friends/requests/:id
// @Summary Accept or reject a friend request
// @Tags friends
// @Accept json
// @Produce json
// @Param id path int true "Request ID"
// @Param request body object{action=string} true "accept or reject"
// @Success 200 {object} models.RespondResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /friends/requests/{id} [post]
func (s *Server) RespondToFriendRequest(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	requestID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req struct {
		Action string `json:"action"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}

	result, err := s.friendService.RespondToRequest(c.UserContext(), userID, requestID, req.Action)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// GetFriendshipStatus handles GET /api/friends/status/:userId
// @Summary Relationship status
// @Tags friends
// @Produce json
// @Param userId path int true "Other user ID"
// @Success 200 {object} models.RelationshipStatus
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /friends/status/{userId} [get]
func (s *Server) GetFriendshipStatus(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	otherID, err := parseID(c, "userId")
	if err != nil {
		return err
	}

	status, err := s.friendQueries.Status(c.UserContext(), userID, otherID)
	if err != nil {
		return err
	}
	return c.JSON(status)
}

// BlockUser handles POST /api/friends/block/:userId
// @Summary Block a user
// @Description Removes any friendship and pending requests with the user. Blocking twice succeeds.
// @Tags friends
// @Produce json
// @Param userId path int true "User ID"
// @Success 200 {object} object{detail=string}
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /friends/block/{userId} [post]
func (s *Server) BlockUser(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	targetID, err := parseID(c, "userId")
	if err != nil {
		return err
	}

	if _, err := s.friendService.Block(c.UserContext(), userID, targetID); err != nil {
		return err
	}
	return detail(c, "User blocked successfully.")
}

// UnblockUser handles DELETE /api/friends/block/:userId
// @Summary Unblock a user
// @Tags friends
// @Produce json
// @Param userId path int true "User ID"
// @Success 200 {object} object{detail=string}
// @Security BearerAuth
// @Router /friends/block/{userId} [delete]
func (s *Server) UnblockUser(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	targetID, err := parseID(c, "userId")
	if err != nil {
		return err
	}

	if err := s.friendService.Unblock(c.UserContext(), userID, targetID); err != nil {
		return err
	}
	return detail(c, "User unblocked successfully.")
}

// GetBlockedUsers handles GET /api/friends/blocked
// @Summary Blocked users
// @Tags friends
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} models.Page[models.BlockedEntry]
// @Security BearerAuth
// @Router /friends/blocked [get]
func (s *Server) GetBlockedUsers(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	page, err := s.friendQueries.ListBlocked(c.UserContext(), userID, parsePage(c))
	if err != nil {
		return err
	}
	return c.JSON(page)
}
