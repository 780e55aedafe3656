package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nyumbakumi/internal/core/domain"
)

type stubAuth map[string]domain.Actor

func (s stubAuth) Authenticate(_ context.Context, token string) (domain.Actor, error) {
	if actor, ok := s[token]; ok {
		return actor, nil
	}
	return domain.Anonymous(), domain.NewError(domain.ErrUnauthenticated, "invalid access token")
}

func newAuthApp() *fiber.App {
	auth := stubAuth{
		"leader-token":    {ID: "l-1", Role: domain.RoleLeader},
		"household-token": {ID: "h-1", Role: domain.RoleHousehold},
	}
	whoami := func(c *fiber.Ctx) error {
		actor := ActorFrom(c)
		if actor.IsAnonymous() {
			return c.SendString("anonymous")
		}
		return c.SendString(actor.ID)
	}

	app := fiber.New()
	app.Get("/private", AuthMiddleware(auth), LeaderOrAdmin(), whoami)
	app.Get("/cached", PublicCache(time.Minute), whoami)
	return app
}

func get(t *testing.T, app *fiber.App, path string, mutate func(*http.Request)) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if mutate != nil {
		mutate(req)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func bearer(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func TestAuthMiddleware(t *testing.T) {
	app := newAuthApp()

	assert.Equal(t, fiber.StatusUnauthorized, get(t, app, "/private", nil).StatusCode)
	assert.Equal(t, fiber.StatusUnauthorized, get(t, app, "/private", bearer("bogus")).StatusCode)
	assert.Equal(t, fiber.StatusForbidden, get(t, app, "/private", bearer("household-token")).StatusCode)
	assert.Equal(t, fiber.StatusOK, get(t, app, "/private", bearer("leader-token")).StatusCode)

	resp := get(t, app, "/private", func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "leader-token"})
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestPublicCache(t *testing.T) {
	app := newAuthApp()

	resp := get(t, app, "/cached", nil)
	assert.Equal(t, "public, max-age=60", resp.Header.Get(fiber.HeaderCacheControl))
}
