package handlers

import (
	"crewpay/internal/middleware"
	"crewpay/internal/models"
	"crewpay/internal/services/dispute"
	"crewpay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type DisputeHandler struct {
	disputeService *dispute.Service
}

func NewDisputeHandler(disputeService *dispute.Service) *DisputeHandler {
	return &DisputeHandler{disputeService: disputeService}
}

func (h *DisputeHandler) Escalate(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return response.Unauthorized(c)
	}
	var input dispute.EscalateInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}
	d, err := h.disputeService.Escalate(c.UserContext(), actor, input)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, "Dispute opened", d)
}

func (h *DisputeHandler) Get(c *fiber.Ctx) error {
	return withActor(c, func(actor models.Actor, id uint) error {
		d, err := h.disputeService.Get(c.UserContext(), actor, id)
		if err != nil {
			return response.FromError(c, err)
		}
		return response.Success(c, "Dispute retrieved", d)
	})
}

type voteInput struct {
	Vote      string `json:"vote"`
	Rationale string `json:"rationale"`
}

func (h *DisputeHandler) CastVote(c *fiber.Ctx) error {
	return withActor(c, func(actor models.Actor, id uint) error {
		var input voteInput
		if err := c.BodyParser(&input); err != nil {
			return response.BadRequest(c, "Invalid request format")
		}
		vote, err := h.disputeService.CastVote(c.UserContext(), actor, id, input.Vote, input.Rationale)
		if err != nil {
			return response.FromError(c, err)
		}
		return response.Created(c, "Vote recorded", vote)
	})
}

func (h *DisputeHandler) RecordAIOpinion(c *fiber.Ctx) error {
	return withActor(c, func(actor models.Actor, id uint) error {
		var input voteInput
		if err := c.BodyParser(&input); err != nil {
			return response.BadRequest(c, "Invalid request format")
		}
		vote, err := h.disputeService.RecordAIOpinion(c.UserContext(), actor, id, input.Vote, input.Rationale)
		if err != nil {
			return response.FromError(c, err)
		}
		return response.Created(c, "Advisory opinion recorded", vote)
	})
}

func (h *DisputeHandler) Tally(c *fiber.Ctx) error {
	return withActor(c, func(actor models.Actor, id uint) error {
		summary, err := h.disputeService.Tally(c.UserContext(), actor, id)
		if err != nil {
			return response.FromError(c, err)
		}
		return response.Success(c, "Vote tally", summary)
	})
}

func (h *DisputeHandler) Transition(c *fiber.Ctx) error {
	return withActor(c, func(actor models.Actor, id uint) error {
		var input dispute.TransitionInput
		if err := c.BodyParser(&input); err != nil {
			return response.BadRequest(c, "Invalid request format")
		}
		res, err := h.disputeService.Transition(c.UserContext(), actor, id, input)
		if err != nil {
			return response.FromError(c, err)
		}
		return response.Success(c, "Dispute updated", res)
	})
}
