package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/storage"
	"github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// TicketService implements the ticket lifecycle: creation, field-gated
// updates, deletion, role-scoped listing and the dashboard reduction.
type TicketService struct {
	tickets    repository.TicketRepository
	store      storage.ObjectStore
	dispatcher events.Dispatcher
	logger     *zap.Logger
	presignTTL time.Duration
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Store      storage.ObjectStore
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	PresignTTL time.Duration
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	ttl := deps.PresignTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		presignTTL: ttl,
	}
}

// AttachmentUpload is one file from the multipart create request.
type AttachmentUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// TicketCreateInput describes the creation payload.
type TicketCreateInput struct {
	Subject     string
	Description string
	Department  domain.Department
	Priority    domain.TicketPriority
	Category    string
	Subcategory string
	Files       []AttachmentUpload
}

// TicketUpdateInput is the PUT payload; nil means "not supplied". Comment is
// forwarded to the status-change notification and never persisted.
type TicketUpdateInput struct {
	Subject     *string
	Description *string
	Department  *domain.Department
	Priority    *domain.TicketPriority
	Status      *domain.TicketStatus
	Category    *string
	Subcategory *string
	Comment     string
}

// TicketListQuery captures list filters; all are optional and ANDed onto the
// role scope.
type TicketListQuery struct {
	MyTickets  bool
	Department *domain.Department
	Priority   *domain.TicketPriority
	Status     *domain.TicketStatus
	Search     *string
	Page       int
	PageSize   int
}

// Create validates the payload, uploads every attachment, persists the
// ticket and emits TicketCreated. All uploads must succeed before the row is
// written so the stored key list never references missing objects.
func (s *TicketService) Create(ctx context.Context, actor *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	if input.Subject == "" || input.Description == "" || input.Department == "" || input.Priority == "" {
		return nil, errorutil.NewValidationError("missing required fields", map[string]any{
			"required": []string{"subject", "description", "department", "priority"},
		})
	}
	if !domain.ValidDepartment(input.Department) {
		return nil, errorutil.NewValidationError("unknown department", map[string]any{"department": input.Department})
	}
	if !domain.ValidPriority(input.Priority) {
		return nil, errorutil.NewValidationError("unknown priority", map[string]any{"priority": input.Priority})
	}
	s.checkTaxonomy(input.Department, input.Category, input.Subcategory)

	keys, err := s.uploadAttachments(ctx, input.Files)
	if err != nil {
		return nil, errorutil.NewInternalError(fmt.Errorf("upload attachments: %w", err))
	}

	ticket := &domain.Ticket{
		Subject:     ComposeSubject(input.Subject, input.Category, input.Subcategory),
		Description: trimmed(input.Description),
		Department:  input.Department,
		Category:    input.Category,
		Subcategory: input.Subcategory,
		Priority:    input.Priority,
		Status:      domain.TicketStatusOpen,
		CreatedBy:   actor.ID,
		Attachments: keys,
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, errorutil.MapError(err)
	}
	creator := actor.Summary()
	ticket.Creator = &creator

	s.publish(events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload: events.TicketCreatedPayload{
			Ticket:  ticket,
			Creator: creator,
		},
	})
	return ticket, nil
}

// Get fetches a single ticket, applying the combined access rule.
func (s *TicketService) Get(ctx context.Context, actor *domain.User, id int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, errorutil.MapError(err)
	}
	if !domain.CanAccess(actor, ticket) {
		return nil, errorutil.NewForbidden("access denied")
	}
	return ticket, nil
}

// Update applies the field-gated update rules: managers may set status at
// any time, owners may edit content fields while the ticket is OPEN.
func (s *TicketService) Update(ctx context.Context, actor *domain.User, id int64, input TicketUpdateInput) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, errorutil.MapError(err)
	}

	isOwner := domain.IsOwner(actor, ticket)
	isManager := domain.CanManageDepartment(actor.Role, actor.Department, ticket.Department)

	if !isOwner && !isManager {
		return nil, errorutil.NewForbidden("access denied")
	}
	if isOwner && !isManager && ticket.Status != domain.TicketStatusOpen {
		return nil, errorutil.NewInvalidState("only open tickets may be edited by their owner")
	}

	var patch repository.TicketPatch

	if isManager && input.Status != nil {
		if !domain.ValidStatus(*input.Status) {
			return nil, errorutil.NewValidationError("unknown status", map[string]any{"status": *input.Status})
		}
		patch.Status = input.Status
	}

	if isOwner && ticket.Status == domain.TicketStatusOpen {
		if input.Subject != nil {
			category, subcategory := ticket.Category, ticket.Subcategory
			if input.Category != nil {
				category = *input.Category
			}
			if input.Subcategory != nil {
				subcategory = *input.Subcategory
			}
			composed := ComposeSubject(*input.Subject, category, subcategory)
			patch.Subject = &composed
		}
		if input.Description != nil {
			desc := trimmed(*input.Description)
			patch.Description = &desc
		}
		if input.Department != nil {
			if !domain.ValidDepartment(*input.Department) {
				return nil, errorutil.NewValidationError("unknown department", map[string]any{"department": *input.Department})
			}
			patch.Department = input.Department
		}
		if input.Priority != nil {
			if !domain.ValidPriority(*input.Priority) {
				return nil, errorutil.NewValidationError("unknown priority", map[string]any{"priority": *input.Priority})
			}
			patch.Priority = input.Priority
		}
		if input.Category != nil {
			patch.Category = input.Category
		}
		if input.Subcategory != nil {
			patch.Subcategory = input.Subcategory
		}
		dept := ticket.Department
		if patch.Department != nil {
			dept = *patch.Department
		}
		s.checkTaxonomy(dept, valueOr(patch.Category, ticket.Category), valueOr(patch.Subcategory, ticket.Subcategory))
	}

	if patch.Empty() {
		return nil, errorutil.NewNoValidFields()
	}

	if err := s.tickets.Update(ctx, ticket.ID, patch); err != nil {
		return nil, errorutil.MapError(err)
	}

	updated, err := s.tickets.GetByID(ctx, ticket.ID)
	if err != nil {
		return nil, errorutil.MapError(err)
	}

	if patch.Status != nil && *patch.Status != ticket.Status {
		var creator domain.UserSummary
		if updated.Creator != nil {
			creator = *updated.Creator
		}
		s.publish(events.Event{
			Type:     events.EventTicketStatusChanged,
			TicketID: updated.ID,
			ActorID:  actor.ID,
			Payload: events.TicketStatusChangedPayload{
				Ticket:    updated,
				Creator:   creator,
				OldStatus: ticket.Status,
				NewStatus: *patch.Status,
				Comment:   input.Comment,
			},
		})
	}
	return updated, nil
}

// Delete removes a ticket permanently after the combined access check.
func (s *TicketService) Delete(ctx context.Context, actor *domain.User, id int64) error {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return errorutil.MapError(err)
	}
	if !domain.CanAccess(actor, ticket) {
		return errorutil.NewForbidden("access denied")
	}
	if err := s.tickets.Delete(ctx, ticket.ID); err != nil {
		return errorutil.MapError(err)
	}
	return nil
}

// List returns the role-scoped, filtered ticket set, newest first.
func (s *TicketService) List(ctx context.Context, actor *domain.User, q TicketListQuery) ([]domain.Ticket, error) {
	filter, empty := scopedFilter(actor, q)
	if empty {
		return []domain.Ticket{}, nil
	}
	if q.PageSize > 0 {
		filter.Limit = q.PageSize
		page := q.Page
		if page < 1 {
			page = 1
		}
		filter.Offset = (page - 1) * q.PageSize
	}
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, errorutil.MapError(err)
	}
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	return tickets, nil
}

// Stats aggregates counts over the role-scoped set. The optional list
// filters do not apply here; only the myTickets scope does.
func (s *TicketService) Stats(ctx context.Context, actor *domain.User, myTickets bool) (*domain.DashboardStats, error) {
	filter, _ := scopedFilter(actor, TicketListQuery{MyTickets: myTickets})
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, errorutil.MapError(err)
	}
	stats := &domain.DashboardStats{}
	for i := range tickets {
		stats.Tally(&tickets[i])
	}
	return stats, nil
}

// AttachmentLinks converts the ticket's stored keys into presigned download
// URLs. Signing failures are logged and the key is skipped; links are a
// best-effort enrichment, never a request-level error.
func (s *TicketService) AttachmentLinks(ctx context.Context, ticket *domain.Ticket) []string {
	links := make([]string, 0, len(ticket.Attachments))
	for _, key := range ticket.Attachments {
		url, err := s.store.PresignGet(ctx, key, s.presignTTL)
		if err != nil {
			s.logger.Warn("presign attachment failed",
				zap.Int64("ticket_id", ticket.ID),
				zap.String("key", key),
				zap.Error(err))
			continue
		}
		links = append(links, url)
	}
	return links
}

// scopedFilter builds the read predicate for the actor. Precedence: explicit
// myTickets, then employee self-scope, then manager department scope; any
// remaining role (a system administrator without department) reads the
// unfiltered base set. The explicit department filter is ANDed with the
// manager scope: when they disagree the result set is provably empty and the
// query is skipped.
func scopedFilter(actor *domain.User, q TicketListQuery) (repository.TicketFilter, bool) {
	filter := repository.TicketFilter{
		Priority: q.Priority,
		Status:   q.Status,
		Search:   q.Search,
	}

	switch {
	case q.MyTickets:
		id := actor.ID
		filter.CreatedBy = &id
	case actor.Role == domain.RoleEmployee:
		id := actor.ID
		filter.CreatedBy = &id
	case domain.IsManagerRole(actor.Role) && actor.Department != nil:
		filter.Department = actor.Department
	}

	if q.Department != nil {
		if filter.Department != nil && *filter.Department != *q.Department {
			return repository.TicketFilter{}, true
		}
		filter.Department = q.Department
	}
	return filter, false
}

func (s *TicketService) uploadAttachments(ctx context.Context, files []AttachmentUpload) ([]string, error) {
	keys := make([]string, 0, len(files))
	for _, file := range files {
		key := fmt.Sprintf("tickets/%d-%s", time.Now().UnixMilli(), file.FileName)
		if err := s.store.Put(ctx, key, file.Body, file.Size, file.ContentType); err != nil {
			return nil, fmt.Errorf("upload %s: %w", file.FileName, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// checkTaxonomy logs category/subcategory values that fall outside the
// taxonomy for the department. The mismatch is accepted; the taxonomy is
// advisory for form dropdowns, not a hard constraint.
func (s *TicketService) checkTaxonomy(dept domain.Department, category, subcategory string) {
	if category == "" {
		return
	}
	if !domain.TaxonomyHasCategory(dept, category) {
		s.logger.Warn("category outside taxonomy",
			zap.String("department", string(dept)),
			zap.String("category", category))
		return
	}
	if subcategory != "" && !domain.TaxonomyHasSubcategory(dept, category, subcategory) {
		s.logger.Warn("subcategory outside taxonomy",
			zap.String("department", string(dept)),
			zap.String("category", category),
			zap.String("subcategory", subcategory))
	}
}

func (s *TicketService) publish(event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	s.dispatcher.Publish(context.Background(), event)
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}

func valueOr(p *string, fallback string) string {
	if p != nil {
		return *p
	}
	return fallback
}
