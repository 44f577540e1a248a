package server

import (
	"strings"
	"unicode"

	"amity/internal/middleware"
	"amity/internal/models"

	"github.com/gofiber/fiber/v2"
)

var errInvalidBody = models.NewValidationError("Invalid request body")

// parseID extracts a route parameter by name as a positive uint.
// The error message is derived from the parameter name (e.g. "id" -> "Invalid ID",
// "userId" -> "Invalid user ID").
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		return 0, models.NewValidationError("Invalid " + humanizeParam(param))
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if prefix, ok := strings.CutSuffix(param, "Id"); ok {
		return strings.ToLower(strings.Join(splitCamel(prefix), " ")) + " ID"
	}
	return param
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	return append(words, s[start:])
}

// parsePage reads page and page_size query parameters.
func parsePage(c *fiber.Ctx) models.PageParams {
	return models.PageParams{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", models.DefaultPageSize),
	}.Normalize()
}

// parseListQuery reads the optional q filter together with the page.
func parseListQuery(c *fiber.Ctx) models.ListQuery {
	return models.ListQuery{
		Search: strings.TrimSpace(c.Query("q")),
		Page:   parsePage(c),
	}
}

// parseBody decodes the JSON body into dst.
func parseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return errInvalidBody
	}
	return nil
}

// detail is the body of operations that only report what happened.
func detail(c *fiber.Ctx, message string) error {
	return c.JSON(fiber.Map{"detail": message})
}

// currentUser is the caller resolved by AuthRequired.
func currentUser(c *fiber.Ctx) (uint, error) {
	return middleware.CurrentUser(c)
}
