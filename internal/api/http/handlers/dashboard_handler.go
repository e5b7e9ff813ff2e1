package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/service"
	"github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// DashboardHandler serves the stats aggregation.
type DashboardHandler struct {
	service *service.TicketService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(ticketService *service.TicketService) *DashboardHandler {
	return &DashboardHandler{service: ticketService}
}

// Stats GET /dashboard/stats. Role scoping matches the list endpoint; the
// optional list filters do not apply here.
func (h *DashboardHandler) Stats(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return errorutil.NewUnauthorized("authentication required")
	}

	stats, err := h.service.Stats(c.Context(), user, c.Query("myTickets") == "true")
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"stats": stats})
}
