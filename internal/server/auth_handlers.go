package server

import (
	"context"
	"errors"
	"strconv"
	"time"

	"amity/internal/middleware"
	"amity/internal/models"
	"amity/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const refreshTokenTTL = 7 * 24 * time.Hour

var errRevocationUnavailable = errors.New("token revocation store unavailable")

// TokenPair is returned by a successful login.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Register handles POST /api/register
// @Summary Register
// @Description Create an account. The email is trimmed and lower-cased.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.RegisterInput true "Registration"
// @Success 201 {object} object{email=string,first_name=string,last_name=string}
// @Failure 400 {object} models.ErrorResponse
// @Router /register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req service.RegisterInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, err := s.userService.Register(c.UserContext(), req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"email":      user.Email,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
	})
}

// Login handles POST /api/login
// @Summary Login
// @Description Authenticate with email and password and receive an access/refresh token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string,password=string} true "Login credentials"
// @Success 200 {object} TokenPair
// @Failure 401 {object} models.ErrorResponse
// @Router /login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Email == "" || req.Password == "" {
		return models.NewValidationError("Email and password are required")
	}

	user, err := s.userService.Authenticate(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	pair, err := s.issueTokens(user.ID)
	if err != nil {
		return models.NewInternalError(err)
	}
	return c.JSON(pair)
}

// RefreshToken handles POST /api/token/refresh
// @Summary Refresh access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{refresh=string} true "Refresh token"
// @Success 200 {object} object{access=string}
// @Failure 401 {object} models.ErrorResponse
// @Router /token/refresh [post]
func (s *Server) RefreshToken(c *fiber.Ctx) error {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}

	claims, err := middleware.ParseToken(s.config.JWTSecret, req.Refresh, middleware.TokenTypeRefresh)
	if err != nil {
		return models.NewUnauthorizedError("Token is invalid or expired")
	}
	if middleware.IsRevoked(c.UserContext(), s.redis, claims.JTI) {
		return models.NewUnauthorizedError("Token has been revoked")
	}
	if _, err := s.userService.ActiveUser(c.UserContext(), claims.UserID); err != nil {
		if models.KindOf(err) == models.KindNotFound {
			return models.NewUnauthorizedError("User not found")
		}
		return err
	}

	access, err := s.signToken(claims.UserID, middleware.TokenTypeAccess, s.config.TokenTTL())
	if err != nil {
		return models.NewInternalError(err)
	}
	return c.JSON(fiber.Map{"access": access})
}

// Logout handles POST /api/logout
// @Summary Logout
// @Description Revoke the current access token and, if supplied, the refresh token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{refresh=string} false "Refresh token to revoke"
// @Success 200 {object} object{detail=string}
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	ctx := c.UserContext()
	jti, exp := middleware.CurrentToken(c)
	if err := s.revoke(ctx, jti, exp); err != nil {
		return models.NewInternalError(err)
	}

	var req struct {
		Refresh string `json:"refresh"`
	}
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return err
		}
	}
	if req.Refresh != "" {
		if claims, err := middleware.ParseToken(s.config.JWTSecret, req.Refresh, middleware.TokenTypeRefresh); err == nil {
			if err := s.revoke(ctx, claims.JTI, claims.ExpiresAt); err != nil {
				return models.NewInternalError(err)
			}
		}
	}

	return detail(c, "Successfully logged out.")
}

// revoke marks a token ID revoked until the token would have expired anyway.
func (s *Server) revoke(ctx context.Context, jti string, exp time.Time) error {
	if jti == "" {
		return nil
	}
	ttl := time.Until(exp)
	if ttl <= 0 {
		return nil
	}
	if s.redis == nil {
		return errRevocationUnavailable
	}
	return s.redis.Set(ctx, middleware.RevocationKey(jti), "1", ttl).Err()
}

func (s *Server) issueTokens(userID uint) (*TokenPair, error) {
	access, err := s.signToken(userID, middleware.TokenTypeAccess, s.config.TokenTTL())
	if err != nil {
		return nil, err
	}
	refresh, err := s.signToken(userID, middleware.TokenTypeRefresh, refreshTokenTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}

// signToken creates an HS256 token of the given type for userID.
func (s *Server) signToken(userID uint, tokenType string, ttl time.Duration) (string, error) {
	if s.config.JWTSecret == "" {
		return "", errors.New("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"typ": tokenType,
		"iss": middleware.TokenIssuer,
		"aud": middleware.TokenAudience,
		"exp": now.Add(ttl).Unix(),
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"jti": uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}
