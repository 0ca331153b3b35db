package handlers

import (
	"crewpay/internal/middleware"
	"crewpay/internal/models"
	"crewpay/internal/services/pmrequest"
	"crewpay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type PMRequestHandler struct {
	service *pmrequest.Service
}

func NewPMRequestHandler(service *pmrequest.Service) *PMRequestHandler {
	return &PMRequestHandler{service: service}
}

func (h *PMRequestHandler) Create(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return response.Unauthorized(c)
	}
	var input pmrequest.CreateInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}
	req, err := h.service.Create(c.UserContext(), actor, input)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, "PM request created", req)
}

func (h *PMRequestHandler) Get(c *fiber.Ctx) error {
	return withActor(c, func(actor models.Actor, id uint) error {
		req, err := h.service.Get(c.UserContext(), actor, id)
		if err != nil {
			return response.FromError(c, err)
		}
		return response.Success(c, "PM request retrieved", req)
	})
}

func (h *PMRequestHandler) History(c *fiber.Ctx) error {
	return withActor(c, func(actor models.Actor, id uint) error {
		audits, err := h.service.History(c.UserContext(), actor, id)
		if err != nil {
			return response.FromError(c, err)
		}
		return response.Success(c, "PM request history retrieved", audits)
	})
}

func (h *PMRequestHandler) AddLineItem(c *fiber.Ctx) error {
	return withActor(c, func(actor models.Actor, id uint) error {
		var input pmrequest.LineItemInput
		if err := c.BodyParser(&input); err != nil {
			return response.BadRequest(c, "Invalid request format")
		}
		req, err := h.service.AddLineItem(c.UserContext(), actor, id, input)
		if err != nil {
			return response.FromError(c, err)
		}
		return response.Success(c, "Line item added", req)
	})
}

func (h *PMRequestHandler) SetManualTotal(c *fiber.Ctx) error {
	return withActor(c, func(actor models.Actor, id uint) error {
		var input struct {
			ManualTotalCents *int64 `json:"manual_total_cents"`
		}
		if err := c.BodyParser(&input); err != nil {
			return response.BadRequest(c, "Invalid request format")
		}
		req, err := h.service.SetManualTotal(c.UserContext(), actor, id, input.ManualTotalCents)
		if err != nil {
			return response.FromError(c, err)
		}
		return response.Success(c, "Manual total updated", req)
	})
}

// transition wraps the operations that take no body beyond the id.
func (h *PMRequestHandler) transition(op func(c *fiber.Ctx, actor models.Actor, id uint) (*pmrequest.Result, error), message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return withActor(c, func(actor models.Actor, id uint) error {
			res, err := op(c, actor, id)
			if err != nil {
				return response.FromError(c, err)
			}
			return response.Success(c, message, res)
		})
	}
}

func (h *PMRequestHandler) Submit() fiber.Handler {
	return h.transition(func(c *fiber.Ctx, actor models.Actor, id uint) (*pmrequest.Result, error) {
		return h.service.Submit(c.UserContext(), actor, id)
	}, "PM request submitted")
}

func (h *PMRequestHandler) Approve() fiber.Handler {
	return h.transition(func(c *fiber.Ctx, actor models.Actor, id uint) (*pmrequest.Result, error) {
		return h.service.Approve(c.UserContext(), actor, id)
	}, "PM request approved")
}

func (h *PMRequestHandler) Reject() fiber.Handler {
	return h.transition(func(c *fiber.Ctx, actor models.Actor, id uint) (*pmrequest.Result, error) {
		return h.service.Reject(c.UserContext(), actor, id)
	}, "PM request rejected")
}

func (h *PMRequestHandler) Revise() fiber.Handler {
	return h.transition(func(c *fiber.Ctx, actor models.Actor, id uint) (*pmrequest.Result, error) {
		return h.service.Revise(c.UserContext(), actor, id)
	}, "PM request reopened for editing")
}

func (h *PMRequestHandler) StartPayment() fiber.Handler {
	return h.transition(func(c *fiber.Ctx, actor models.Actor, id uint) (*pmrequest.Result, error) {
		return h.service.StartPayment(c.UserContext(), actor, id)
	}, "Payment started")
}

func (h *PMRequestHandler) SubmitReceipts() fiber.Handler {
	return h.transition(func(c *fiber.Ctx, actor models.Actor, id uint) (*pmrequest.Result, error) {
		return h.service.SubmitReceipts(c.UserContext(), actor, id)
	}, "Receipts submitted")
}

func (h *PMRequestHandler) RequestAmendment(c *fiber.Ctx) error {
	return withActor(c, func(actor models.Actor, id uint) error {
		var input struct {
			Reason              string `json:"reason"`
			ProposedBudgetCents *int64 `json:"proposed_budget_cents"`
		}
		if err := c.BodyParser(&input); err != nil {
			return response.BadRequest(c, "Invalid request format")
		}
		res, err := h.service.RequestAmendment(c.UserContext(), actor, id, input.Reason, input.ProposedBudgetCents)
		if err != nil {
			return response.FromError(c, err)
		}
		return response.Success(c, "Amendment requested", res)
	})
}

func (h *PMRequestHandler) ConfirmFunding(c *fiber.Ctx) error {
	return withActor(c, func(actor models.Actor, id uint) error {
		var input struct {
			EscrowRef string `json:"escrow_ref"`
		}
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&input); err != nil {
				return response.BadRequest(c, "Invalid request format")
			}
		}
		res, err := h.service.ConfirmFunding(c.UserContext(), actor, id, input.EscrowRef)
		if err != nil {
			return response.FromError(c, err)
		}
		return response.Success(c, "Funding confirmed", res)
	})
}

func (h *PMRequestHandler) AddReceipt(c *fiber.Ctx) error {
	return withActor(c, func(actor models.Actor, id uint) error {
		var input pmrequest.ReceiptInput
		if err := c.BodyParser(&input); err != nil {
			return response.BadRequest(c, "Invalid request format")
		}
		receipt, err := h.service.AddReceipt(c.UserContext(), actor, id, input)
		if err != nil {
			return response.FromError(c, err)
		}
		return response.Created(c, "Receipt added", receipt)
	})
}

func (h *PMRequestHandler) VerifyReceipts(c *fiber.Ctx) error {
	return withActor(c, func(actor models.Actor, id uint) error {
		var input struct {
			Overrides []struct {
				ReceiptID          uint  `json:"receipt_id"`
				VerifiedTotalCents int64 `json:"verified_total_cents"`
			} `json:"overrides"`
		}
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&input); err != nil {
				return response.BadRequest(c, "Invalid request format")
			}
		}
		overrides := make(map[uint]int64, len(input.Overrides))
		for _, o := range input.Overrides {
			overrides[o.ReceiptID] = o.VerifiedTotalCents
		}
		res, err := h.service.VerifyReceipts(c.UserContext(), actor, id, overrides)
		if err != nil {
			return response.FromError(c, err)
		}
		return response.Success(c, "Receipts verified", res)
	})
}

func (h *PMRequestHandler) ReleaseFunds(c *fiber.Ctx) error {
	return withActor(c, func(actor models.Actor, id uint) error {
		res, err := h.service.ReleaseFunds(c.UserContext(), actor, id)
		if err != nil {
			return response.FromError(c, err)
		}
		return response.Success(c, "Funds released", res)
	})
}
