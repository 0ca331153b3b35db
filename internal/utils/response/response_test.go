package response

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	apperrors "crewpay/internal/errors"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	assert.Equal(t, fiber.StatusBadRequest, StatusFor(apperrors.KindValidation))
	assert.Equal(t, fiber.StatusNotFound, StatusFor(apperrors.KindNotFound))
	assert.Equal(t, fiber.StatusForbidden, StatusFor(apperrors.KindForbidden))
	assert.Equal(t, fiber.StatusConflict, StatusFor(apperrors.KindInvalidTransition))
	assert.Equal(t, fiber.StatusConflict, StatusFor(apperrors.KindConflict))
	assert.Equal(t, fiber.StatusInternalServerError, StatusFor(apperrors.Kind("UNKNOWN")))
}

func TestFromError(t *testing.T) {
	app := fiber.New()
	app.Get("/domain", func(c *fiber.Ctx) error {
		return FromError(c, &apperrors.DomainError{
			Kind: apperrors.KindInvalidTransition, Code: "PM_INVALID_TRANSITION",
			Message: "bad edge", From: "DRAFT", To: "APPROVED",
		})
	})
	app.Get("/plain", func(c *fiber.Ctx) error {
		return FromError(c, errors.New("db exploded"))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/domain", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "PM_INVALID_TRANSITION", body["code"])
	assert.Equal(t, "DRAFT", body["from"])
	assert.Equal(t, "APPROVED", body["to"])

	resp, err = app.Test(httptest.NewRequest("GET", "/plain", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	body = map[string]string{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "internal error", body["error"])
}
