package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	helper "github.com/shahid-afrid/tutorlivework-sub001/internals/helpers"
)

const testSecret = "s3cret-for-tests"

func newScopedApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: helper.ErrorHandler})
	admin := app.Group("/api/a/:department",
		AuthMiddleware(testSecret, zap.NewNop()),
		OnlyRoles("", RoleAdmin, RoleSuperAdmin),
		DepartmentScope("department"),
	)
	admin.Get("/whoami", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"tenant": TenantKey(c), "actor": Actor(c)})
	})
	sa := app.Group("/api/sa", AuthMiddleware(testSecret, zap.NewNop()), RequireSuperAdmin())
	sa.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })
	return app
}

func do(t *testing.T, app *fiber.App, path string, tc *TokenClaims) int {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, path, nil)
	if tc != nil {
		tok, err := IssueToken(testSecret, *tc, time.Hour)
		require.NoError(t, err)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+tok)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestDepartmentScope(t *testing.T) {
	app := newScopedApp()
	cseAdmin := &TokenClaims{UserID: "a1", UserName: "ravi", Role: RoleAdmin, Department: "CSE (DS)"}
	root := &TokenClaims{UserID: "r1", UserName: "root", Role: RoleSuperAdmin}

	assert.Equal(t, fiber.StatusUnauthorized, do(t, app, "/api/a/CSEDS/whoami", nil))
	assert.Equal(t, fiber.StatusOK, do(t, app, "/api/a/cse-ds/whoami", cseAdmin))
	assert.Equal(t, fiber.StatusForbidden, do(t, app, "/api/a/ECE/whoami", cseAdmin))
	assert.Equal(t, fiber.StatusOK, do(t, app, "/api/a/ECE/whoami", root))
	assert.Equal(t, fiber.StatusBadRequest, do(t, app, "/api/a/%3B%3B/whoami", root))

	student := &TokenClaims{UserID: "s1", Role: "student", Department: "CSEDS"}
	assert.Equal(t, fiber.StatusForbidden, do(t, app, "/api/a/CSEDS/whoami", student))
}

func TestRequireSuperAdmin(t *testing.T) {
	app := newScopedApp()
	assert.Equal(t, fiber.StatusOK, do(t, app, "/api/sa/ping", &TokenClaims{UserID: "r1", Role: RoleSuperAdmin}))
	assert.Equal(t, fiber.StatusForbidden, do(t, app, "/api/sa/ping", &TokenClaims{UserID: "a1", Role: RoleAdmin, Department: "ECE"}))
}

func TestAuthMiddleware_RejectsForeignSignature(t *testing.T) {
	app := newScopedApp()
	tok, err := IssueToken("another-secret", TokenClaims{UserID: "r1", Role: RoleSuperAdmin}, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(fiber.MethodGet, "/api/sa/ping", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+tok)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddleware_RejectsExpired(t *testing.T) {
	app := newScopedApp()
	tok, err := IssueToken(testSecret, TokenClaims{UserID: "r1", Role: RoleSuperAdmin}, -time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(fiber.MethodGet, "/api/sa/ping", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+tok)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
