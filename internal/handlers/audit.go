package handlers

import (
	"crewpay/internal/middleware"
	"crewpay/internal/services/audit"
	"crewpay/internal/utils/pagination"
	"crewpay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type AuditHandler struct {
	auditor *audit.Auditor
}

func NewAuditHandler(auditor *audit.Auditor) *AuditHandler {
	return &AuditHandler{auditor: auditor}
}

// PayoutIntegrity runs the auditor and pages through its violations.
// Summary and grouping always describe the whole report.
func (h *AuditHandler) PayoutIntegrity(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return response.Unauthorized(c)
	}
	opts := audit.Options{
		Take:       c.QueryInt("take", audit.DefaultTake),
		OrphanDays: c.QueryInt("orphan_days", audit.DefaultOrphanDays),
		Fresh:      c.QueryBool("fresh"),
	}
	report, err := h.auditor.Run(c.UserContext(), actor, opts)
	if err != nil {
		return response.FromError(c, err)
	}

	p := pagination.ParseFromRequest(c)
	p.Total = int64(len(report.Violations))
	start, end := p.Bounds(len(report.Violations))

	body := pagination.Response(p, report.Violations[start:end])
	body["run_id"] = report.RunID
	body["generated_at"] = report.GeneratedAt
	body["options"] = report.Options
	body["summary"] = report.Summary
	body["by_job"] = report.ByJob
	return c.JSON(body)
}
