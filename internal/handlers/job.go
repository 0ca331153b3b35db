package handlers

import (
	"crewpay/internal/models"
	"crewpay/internal/services/payout"
	"crewpay/internal/services/refund"
	"crewpay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// JobHandler exposes the job-level money movements.
type JobHandler struct {
	refunds *refund.Service
	payouts *payout.Service
}

func NewJobHandler(refunds *refund.Service, payouts *payout.Service) *JobHandler {
	return &JobHandler{refunds: refunds, payouts: payouts}
}

// Refund answers 200 for every outcome; the kind field tells the caller
// whether money moved.
func (h *JobHandler) Refund(c *fiber.Ctx) error {
	return withActor(c, func(actor models.Actor, id uint) error {
		out, err := h.refunds.RefundJob(c.UserContext(), actor, id)
		if err != nil {
			return response.FromError(c, err)
		}
		return c.JSON(fiber.Map{
			"message": "Refund processed",
			"kind":    out.Kind(),
			"data":    out,
		})
	})
}

func (h *JobHandler) ReleasePayout(c *fiber.Ctx) error {
	return withActor(c, func(actor models.Actor, id uint) error {
		res, err := h.payouts.ReleaseJob(c.UserContext(), actor, id)
		if err != nil {
			return response.FromError(c, err)
		}
		return response.Success(c, "Payout released", res)
	})
}
