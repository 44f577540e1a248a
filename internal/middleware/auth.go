// Package middleware provides authentication, logging, rate limiting and
// instrumentation middleware for the HTTP layer.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"amity/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

const (
	TokenIssuer   = "amity-api"
	TokenAudience = "amity-client"

	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"

	localsUserID   = "userID"
	localsTokenJTI = "tokenJTI"
	localsTokenExp = "tokenExp"
)

// TokenClaims are the validated claims of an issued token.
type TokenClaims struct {
	UserID    uint
	JTI       string
	ExpiresAt time.Time
}

// RevocationKey is the Redis key marking a token ID as revoked.
func RevocationKey(jti string) string {
	return "blacklist:" + jti
}

// ParseToken validates signature, issuer, audience and token type and returns the claims.
func ParseToken(secret, tokenString, tokenType string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	},
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	if typ, _ := claims["typ"].(string); typ != tokenType {
		return nil, errors.New("wrong token type")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return nil, errors.New("invalid subject claim")
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return nil, errors.New("invalid user ID in token")
	}

	out := &TokenClaims{UserID: uint(userID)}
	out.JTI, _ = claims["jti"].(string)
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}

// IsRevoked reports whether the token ID was revoked. A nil client or a Redis
// failure counts as not revoked.
func IsRevoked(ctx context.Context, rdb *redis.Client, jti string) bool {
	if rdb == nil || jti == "" {
		return false
	}
	n, err := rdb.Exists(ctx, RevocationKey(jti)).Result()
	return err == nil && n > 0
}

// AuthRequired validates the bearer access token and stores the caller in locals
// and in the request context.
func AuthRequired(secret string, rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := bearerToken(c.Get("Authorization"))
		if tokenString == "" {
			return models.RespondWithError(c,
				models.NewUnauthorizedError("Authentication credentials were not provided."))
		}

		claims, err := ParseToken(secret, tokenString, TokenTypeAccess)
		if err != nil {
			return models.RespondWithError(c,
				models.NewUnauthorizedError("Given token not valid for any token type"))
		}
		if IsRevoked(c.UserContext(), rdb, claims.JTI) {
			return models.RespondWithError(c,
				models.NewUnauthorizedError("Token has been revoked"))
		}

		c.Locals(localsUserID, claims.UserID)
		c.Locals(localsTokenJTI, claims.JTI)
		c.Locals(localsTokenExp, claims.ExpiresAt)
		c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, claims.UserID))

		return c.Next()
	}
}

// CurrentUser returns the authenticated caller or an unauthorized error.
func CurrentUser(c *fiber.Ctx) (uint, error) {
	if uid, ok := c.Locals(localsUserID).(uint); ok && uid != 0 {
		return uid, nil
	}
	return 0, models.NewUnauthorizedError("Authentication credentials were not provided.")
}

// CurrentToken returns the JTI and expiry of the token that authenticated the request.
func CurrentToken(c *fiber.Ctx) (string, time.Time) {
	jti, _ := c.Locals(localsTokenJTI).(string)
	exp, _ := c.Locals(localsTokenExp).(time.Time)
	return jti, exp
}

func bearerToken(header string) string {
	parts := strings.Fields(header)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
