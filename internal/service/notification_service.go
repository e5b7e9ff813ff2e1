package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/observability"
)

var statusLabels = map[domain.TicketStatus]string{
	domain.TicketStatusOpen:       "Open",
	domain.TicketStatusInProgress: "In Progress",
	domain.TicketStatusOnHold:     "On Hold",
	domain.TicketStatusCancelled:  "Cancelled",
	domain.TicketStatusClosed:     "Closed",
}

var priorityLabels = map[domain.TicketPriority]string{
	domain.TicketPriorityLow:    "Low",
	domain.TicketPriorityMedium: "Medium",
	domain.TicketPriorityHigh:   "High",
}

var departmentLabels = map[domain.Department]string{
	domain.DepartmentAdmin:   "Administration",
	domain.DepartmentFinance: "Finance",
	domain.DepartmentHR:      "Human Resources",
}

const createdEmailTemplate = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>New Support Ticket Created</h2>
  <p>A new support ticket has been submitted to the {{.Department}} department.</p>
  <table cellpadding="6">
    <tr><td><strong>Ticket</strong></td><td>#{{.ID}}</td></tr>
    <tr><td><strong>Subject</strong></td><td>{{.Subject}}</td></tr>
    <tr><td><strong>Priority</strong></td><td>{{.Priority}}</td></tr>
    <tr><td><strong>Status</strong></td><td>{{.Status}}</td></tr>
    <tr><td><strong>Created By</strong></td><td>{{.CreatorName}} ({{.CreatorRole}})</td></tr>
    {{if .Category}}<tr><td><strong>Category</strong></td><td>{{.Category}}</td></tr>{{end}}
    {{if .Subcategory}}<tr><td><strong>Subcategory</strong></td><td>{{.Subcategory}}</td></tr>{{end}}
  </table>
  <h3>Description</h3>
  <p>{{.Description}}</p>
  {{if .HighPriority}}<p style="color: #dc2626;"><strong>HIGH PRIORITY:</strong> this ticket requires immediate attention.</p>{{end}}
  <p><a href="{{.DashboardURL}}">View Ticket in Dashboard</a></p>
  <hr>
  <p style="font-size: 12px; color: #6b7280;">This is an automated notification. Please do not reply to this email.</p>
</body>
</html>`

const statusEmailTemplate = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>Your Ticket Status Was Updated</h2>
  <table cellpadding="6">
    <tr><td><strong>Ticket</strong></td><td>#{{.ID}}</td></tr>
    <tr><td><strong>Subject</strong></td><td>{{.Subject}}</td></tr>
    <tr><td><strong>Status</strong></td><td>{{.OldStatus}} &rarr; {{.NewStatus}}</td></tr>
    {{if .Comment}}<tr><td><strong>Comment</strong></td><td>{{.Comment}}</td></tr>{{end}}
  </table>
  <p><a href="{{.DashboardURL}}">View Ticket in Dashboard</a></p>
  <hr>
  <p style="font-size: 12px; color: #6b7280;">This is an automated notification. Please do not reply to this email.</p>
</body>
</html>`

// NotificationService turns ticket events into department and requester
// emails. Delivery is best effort: failures are logged and counted, never
// propagated to the request that triggered them.
type NotificationService struct {
	cfg         config.EmailConfig
	logger      *zap.Logger
	metrics     *observability.Metrics
	createdTmpl *template.Template
	statusTmpl  *template.Template
}

// NewNotificationService creates the service.
func NewNotificationService(cfg config.EmailConfig, logger *zap.Logger, metrics *observability.Metrics) *NotificationService {
	return &NotificationService{
		cfg:         cfg,
		logger:      logger,
		metrics:     metrics,
		createdTmpl: template.Must(template.New("ticket_created").Parse(createdEmailTemplate)),
		statusTmpl:  template.Must(template.New("ticket_status").Parse(statusEmailTemplate)),
	}
}

// RegisterHandlers subscribes to lifecycle events.
func (n *NotificationService) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
}

func (n *NotificationService) handleTicketCreated(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok || payload.Ticket == nil {
		return fmt.Errorf("unexpected payload for %s", event.Type)
	}
	ticket := payload.Ticket

	recipient := n.cfg.DepartmentInbox[ticket.Department]
	if recipient == "" {
		n.logger.Warn("no inbox configured for department", zap.String("department", string(ticket.Department)))
		return nil
	}

	var body bytes.Buffer
	err := n.createdTmpl.Execute(&body, map[string]any{
		"ID":           ticket.ID,
		"Subject":      ticket.Subject,
		"Priority":     priorityLabels[ticket.Priority],
		"Status":       statusLabels[ticket.Status],
		"Department":   departmentLabels[ticket.Department],
		"CreatorName":  payload.Creator.Name,
		"CreatorRole":  payload.Creator.Role,
		"Category":     ticket.Category,
		"Subcategory":  ticket.Subcategory,
		"Description":  ticket.Description,
		"HighPriority": ticket.Priority == domain.TicketPriorityHigh,
		"DashboardURL": n.cfg.DashboardBaseURL,
	})
	if err != nil {
		n.recordFailure(event, err)
		return nil
	}

	subject := fmt.Sprintf("New Support Ticket #%d: %s", ticket.ID, ticket.Subject)
	if err := n.send(recipient, subject, body.String()); err != nil {
		n.recordFailure(event, err)
		return nil
	}
	n.logger.Info("ticket created email sent",
		zap.Int64("ticket_id", ticket.ID),
		zap.String("department", string(ticket.Department)))
	return nil
}

func (n *NotificationService) handleTicketStatusChanged(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok || payload.Ticket == nil {
		return fmt.Errorf("unexpected payload for %s", event.Type)
	}
	ticket := payload.Ticket

	// The requester's username is their email address.
	recipient := payload.Creator.Username
	if recipient == "" {
		n.logger.Warn("ticket creator has no address", zap.Int64("ticket_id", ticket.ID))
		return nil
	}

	var body bytes.Buffer
	err := n.statusTmpl.Execute(&body, map[string]any{
		"ID":           ticket.ID,
		"Subject":      ticket.Subject,
		"OldStatus":    statusLabels[payload.OldStatus],
		"NewStatus":    statusLabels[payload.NewStatus],
		"Comment":      payload.Comment,
		"DashboardURL": n.cfg.DashboardBaseURL,
	})
	if err != nil {
		n.recordFailure(event, err)
		return nil
	}

	subject := fmt.Sprintf("Ticket #%d Status Updated: %s", ticket.ID, statusLabels[payload.NewStatus])
	if err := n.send(recipient, subject, body.String()); err != nil {
		n.recordFailure(event, err)
		return nil
	}
	n.logger.Info("status change email sent", zap.Int64("ticket_id", ticket.ID))
	return nil
}

func (n *NotificationService) send(to, subject, htmlBody string) error {
	if n.cfg.SMTPHost == "" {
		n.logger.Debug("smtp not configured; dropping email",
			zap.String("to", to),
			zap.String("subject", subject))
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", n.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	dialer := gomail.NewDialer(n.cfg.SMTPHost, n.cfg.SMTPPort, n.cfg.SMTPUser, n.cfg.SMTPPassword)
	return dialer.DialAndSend(msg)
}

func (n *NotificationService) recordFailure(event events.Event, err error) {
	n.metrics.RecordNotificationFailure(string(event.Type))
	n.logger.Error("notification failed",
		zap.String("event_type", string(event.Type)),
		zap.Int64("ticket_id", event.TicketID),
		zap.Error(err))
}
