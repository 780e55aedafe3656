package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nyumbakumi/internal/core/domain"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.Validationf("name is required"), fiber.StatusBadRequest},
		{domain.ErrTaskNotCompleted, fiber.StatusBadRequest},
		{domain.ErrNothingToUpdate, fiber.StatusBadRequest},
		{domain.ErrInvalidCredentials, fiber.StatusUnauthorized},
		{domain.ErrNotAuthorized, fiber.StatusForbidden},
		{domain.ErrZoneNotFound, fiber.StatusNotFound},
		{domain.ErrRatingExists, fiber.StatusConflict},
		{fmt.Errorf("list: %w", domain.ErrTransientStore), fiber.StatusServiceUnavailable},
		{errors.New("boom"), fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StatusFor(tc.err), tc.err.Error())
	}
}

func TestFromError_Envelope(t *testing.T) {
	app := fiber.New()
	app.Get("/dup", func(c *fiber.Ctx) error { return FromError(c, domain.ErrRatingExists) })
	app.Get("/boom", func(c *fiber.Ctx) error { return FromError(c, errors.New("db password leaked")) })

	resp, err := app.Test(httptest.NewRequest("GET", "/dup", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	var body Response
	raw, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.False(t, body.Success)
	assert.Contains(t, body.Message, "already rated")

	resp, err = app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	raw, _ = io.ReadAll(resp.Body)
	assert.NotContains(t, string(raw), "leaked")
}
