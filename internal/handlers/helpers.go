package handlers

import (
	"strconv"

	"crewpay/internal/middleware"
	"crewpay/internal/models"
	"crewpay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

func parseID(c *fiber.Ctx, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(param), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// withActor resolves the caller and the :id route parameter before
// calling fn.
func withActor(c *fiber.Ctx, fn func(actor models.Actor, id uint) error) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return response.Unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid id")
	}
	return fn(actor, id)
}
