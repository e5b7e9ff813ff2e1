package handlers

import (
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/service"
	"github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// TicketsHandler manages the ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// List GET /tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return errorutil.NewUnauthorized("authentication required")
	}

	query := service.TicketListQuery{
		MyTickets: c.Query("myTickets") == "true",
		Page:      parseInt(c.Query("page"), 1),
		PageSize:  parseInt(c.Query("page_size"), 20),
	}
	if v := c.Query("department"); v != "" {
		dept := domain.Department(v)
		query.Department = &dept
	}
	if v := c.Query("priority"); v != "" {
		priority := domain.TicketPriority(v)
		query.Priority = &priority
	}
	if v := c.Query("status"); v != "" {
		status := domain.TicketStatus(v)
		query.Status = &status
	}
	if v := c.Query("search"); v != "" {
		query.Search = &v
	}

	tickets, err := h.service.List(c.Context(), user, query)
	if err != nil {
		return err
	}

	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, h.ticketResponse(c, &tickets[i]))
	}
	return c.JSON(fiber.Map{"tickets": items})
}

// Create POST /tickets (multipart form).
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return errorutil.NewUnauthorized("authentication required")
	}

	form, err := c.MultipartForm()
	if err != nil {
		return errorutil.NewValidationError("invalid multipart payload", nil)
	}

	input := service.TicketCreateInput{
		Subject:     formValue(form, "subject"),
		Description: formValue(form, "description"),
		Department:  domain.Department(formValue(form, "department")),
		Priority:    domain.TicketPriority(formValue(form, "priority")),
		Category:    formValue(form, "category"),
		Subcategory: formValue(form, "subcategory"),
	}

	var opened []multipart.File
	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()
	for _, header := range form.File["files"] {
		file, err := header.Open()
		if err != nil {
			return errorutil.NewValidationError("unreadable attachment", map[string]any{"file": header.Filename})
		}
		opened = append(opened, file)
		input.Files = append(input.Files, service.AttachmentUpload{
			FileName:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Body:        file,
		})
	}

	ticket, err := h.service.Create(c.Context(), user, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"ticket": h.ticketResponse(c, ticket)})
}

// Get GET /tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return errorutil.NewUnauthorized("authentication required")
	}
	id, err := ticketID(c)
	if err != nil {
		return err
	}

	ticket, err := h.service.Get(c.Context(), user, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ticket": h.ticketResponse(c, ticket)})
}

// Update PUT /tickets/:id.
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return errorutil.NewUnauthorized("authentication required")
	}
	id, err := ticketID(c)
	if err != nil {
		return err
	}

	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid payload", nil)
	}

	input := service.TicketUpdateInput{
		Subject:     req.Subject,
		Description: req.Description,
		Category:    req.Category,
		Subcategory: req.Subcategory,
	}
	if req.Department != nil {
		dept := domain.Department(*req.Department)
		input.Department = &dept
	}
	if req.Priority != nil {
		priority := domain.TicketPriority(*req.Priority)
		input.Priority = &priority
	}
	if req.Status != nil {
		status := domain.TicketStatus(*req.Status)
		input.Status = &status
	}
	if req.Comment != nil {
		input.Comment = *req.Comment
	}

	ticket, err := h.service.Update(c.Context(), user, id, input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ticket": h.ticketResponse(c, ticket)})
}

// Delete DELETE /tickets/:id.
func (h *TicketsHandler) Delete(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return errorutil.NewUnauthorized("authentication required")
	}
	id, err := ticketID(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Context(), user, id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Ticket deleted successfully"})
}

func (h *TicketsHandler) ticketResponse(c *fiber.Ctx, ticket *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:          ticket.ID,
		Subject:     ticket.Subject,
		Description: ticket.Description,
		Department:  ticket.Department,
		Category:    ticket.Category,
		Subcategory: ticket.Subcategory,
		Priority:    ticket.Priority,
		Status:      ticket.Status,
		CreatedBy:   ticket.CreatedBy,
		Attachments: h.service.AttachmentLinks(c.Context(), ticket),
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
		User:        ticket.Creator,
	}
}

func ticketID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, errorutil.NewValidationError("invalid ticket id", nil)
	}
	return id, nil
}

func formValue(form *multipart.Form, key string) string {
	values := form.Value[key]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
