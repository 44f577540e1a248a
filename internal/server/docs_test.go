package server

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"
	"testing"

	"amity/docs"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var routeParam = regexp.MustCompile(`:(\w+)`)

func TestSwaggerDocMatchesRoutes(t *testing.T) {
	env := newTestEnv(t)

	var doc struct {
		BasePath string                                `json:"basePath"`
		Paths    map[string]map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(docs.SwaggerInfo.ReadDoc()), &doc))
	require.Equal(t, "/api", doc.BasePath)

	undocumented := map[string]bool{
		"/swagger/*":         true,
		"/metrics/dashboard": true,
		"/v1/healthcheck":    true,
	}
	methods := map[string]bool{fiber.MethodGet: true, fiber.MethodPost: true, fiber.MethodDelete: true}

	var routed []string
	for _, r := range env.app.GetRoutes(true) {
		if !methods[r.Method] || !strings.HasPrefix(r.Path, doc.BasePath+"/") {
			continue
		}
		path := strings.TrimSuffix(strings.TrimPrefix(r.Path, doc.BasePath), "/")
		if undocumented[path] {
			continue
		}
		routed = append(routed, strings.ToLower(r.Method)+" "+routeParam.ReplaceAllString(path, "{$1}"))
	}

	var documented []string
	for path, ops := range doc.Paths {
		for method := range ops {
			documented = append(documented, method+" "+path)
		}
	}

	sort.Strings(routed)
	sort.Strings(documented)
	assert.Equal(t, documented, routed)
}
