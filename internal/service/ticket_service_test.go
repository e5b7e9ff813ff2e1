package service

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// mockTicketRepo keeps tickets in memory and applies TicketFilter the way the
// SQL layer does: set fields are ANDed, search is a case-insensitive substring
// match on subject and description, rows come back newest first.
type mockTicketRepo struct {
	tickets map[int64]*domain.Ticket
	users   map[string]domain.UserSummary
	nextID  int64
}

func newMockTicketRepo() *mockTicketRepo {
	return &mockTicketRepo{
		tickets: make(map[int64]*domain.Ticket),
		users:   make(map[string]domain.UserSummary),
	}
}

func (m *mockTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	m.nextID++
	ticket.ID = m.nextID
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Unix(1700000000, 0).Add(time.Duration(m.nextID) * time.Minute)
	}
	ticket.UpdatedAt = ticket.CreatedAt
	copied := *ticket
	m.tickets[ticket.ID] = &copied
	return nil
}

func (m *mockTicketRepo) Update(_ context.Context, id int64, patch repository.TicketPatch) error {
	t, ok := m.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if patch.Subject != nil {
		t.Subject = *patch.Subject
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Department != nil {
		t.Department = *patch.Department
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	if patch.Category != nil {
		t.Category = *patch.Category
	}
	if patch.Subcategory != nil {
		t.Subcategory = *patch.Subcategory
	}
	t.UpdatedAt = t.CreatedAt.Add(time.Hour)
	return nil
}

func (m *mockTicketRepo) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	t, ok := m.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *t
	if summary, ok := m.users[t.CreatedBy]; ok {
		s := summary
		copied.Creator = &s
	}
	return &copied, nil
}

func (m *mockTicketRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.tickets, id)
	return nil
}

func (m *mockTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	var out []domain.Ticket
	for _, t := range m.tickets {
		if filter.CreatedBy != nil && t.CreatedBy != *filter.CreatedBy {
			continue
		}
		if filter.Department != nil && t.Department != *filter.Department {
			continue
		}
		if filter.Priority != nil && t.Priority != *filter.Priority {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.Search != nil {
			needle := strings.ToLower(*filter.Search)
			if !strings.Contains(strings.ToLower(t.Subject), needle) &&
				!strings.Contains(strings.ToLower(t.Description), needle) {
				continue
			}
		}
		copied := *t
		if summary, ok := m.users[t.CreatedBy]; ok {
			s := summary
			copied.Creator = &s
		}
		out = append(out, copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

type mockObjectStore struct {
	objects map[string]string
	putErr  error
}

func newMockObjectStore() *mockObjectStore {
	return &mockObjectStore{objects: make(map[string]string)}
}

func (m *mockObjectStore) Put(_ context.Context, key string, body io.Reader, _ int64, contentType string) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.objects[key] = contentType
	return nil
}

func (m *mockObjectStore) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://files.test/" + key, nil
}

// captureDispatcher records events synchronously so tests can assert on them.
type captureDispatcher struct {
	published []events.Event
}

func (d *captureDispatcher) Publish(_ context.Context, event events.Event) {
	d.published = append(d.published, event)
}

func (d *captureDispatcher) Subscribe(events.EventType, events.EventHandler) {}

type ticketFixture struct {
	svc        *TicketService
	repo       *mockTicketRepo
	store      *mockObjectStore
	dispatcher *captureDispatcher
}

func newTicketFixture() *ticketFixture {
	repo := newMockTicketRepo()
	store := newMockObjectStore()
	dispatcher := &captureDispatcher{}
	svc := NewTicketService(TicketDependencies{
		TicketRepo: repo,
		Store:      store,
		Dispatcher: dispatcher,
		Logger:     zap.NewNop(),
	})
	return &ticketFixture{svc: svc, repo: repo, store: store, dispatcher: dispatcher}
}

func deptPtr(d domain.Department) *domain.Department { return &d }

func testUser(id string, role domain.Role, dept *domain.Department) *domain.User {
	return &domain.User{ID: id, Name: "User " + id, Username: id + "@example.com", Role: role, Department: dept}
}

func (f *ticketFixture) seedUser(u *domain.User) {
	f.repo.users[u.ID] = u.Summary()
}

func (f *ticketFixture) mustCreate(t *testing.T, actor *domain.User, input TicketCreateInput) *domain.Ticket {
	t.Helper()
	f.seedUser(actor)
	ticket, err := f.svc.Create(context.Background(), actor, input)
	if err != nil {
		t.Fatalf("create ticket: %v", err)
	}
	return ticket
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	var de *errorutil.DomainError
	if !errors.As(err, &de) {
		t.Fatalf("expected DomainError, got %T: %v", err, err)
	}
	if de.Code != code {
		t.Fatalf("error code = %s, want %s", de.Code, code)
	}
}

func hrTicketInput() TicketCreateInput {
	return TicketCreateInput{
		Subject:     "need my slip",
		Description: "please share last month's slip",
		Department:  domain.DepartmentHR,
		Priority:    domain.TicketPriorityLow,
		Category:    "Payroll",
		Subcategory: "Salary Slip",
	}
}

func TestTicketCreate(t *testing.T) {
	f := newTicketFixture()
	employee := testUser("emp-1", domain.RoleEmployee, nil)

	ticket := f.mustCreate(t, employee, hrTicketInput())

	if ticket.ID == 0 {
		t.Error("expected assigned id")
	}
	if ticket.Status != domain.TicketStatusOpen {
		t.Errorf("status = %s, want OPEN", ticket.Status)
	}
	if ticket.CreatedBy != employee.ID {
		t.Errorf("createdBy = %s, want %s", ticket.CreatedBy, employee.ID)
	}
	if want := "[Payroll - Salary Slip] need my slip"; ticket.Subject != want {
		t.Errorf("subject = %q, want %q", ticket.Subject, want)
	}

	if len(f.dispatcher.published) != 1 {
		t.Fatalf("published %d events, want 1", len(f.dispatcher.published))
	}
	event := f.dispatcher.published[0]
	if event.Type != events.EventTicketCreated {
		t.Errorf("event type = %s, want %s", event.Type, events.EventTicketCreated)
	}
	if event.TicketID != ticket.ID || event.ActorID != employee.ID {
		t.Errorf("event identity = (%d, %s), want (%d, %s)", event.TicketID, event.ActorID, ticket.ID, employee.ID)
	}
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		t.Fatalf("payload type = %T", event.Payload)
	}
	if payload.Creator.ID != employee.ID {
		t.Errorf("payload creator = %s, want %s", payload.Creator.ID, employee.ID)
	}
}

func TestTicketCreateMissingFields(t *testing.T) {
	f := newTicketFixture()
	employee := testUser("emp-1", domain.RoleEmployee, nil)

	cases := []struct {
		name   string
		mutate func(*TicketCreateInput)
	}{
		{"no subject", func(in *TicketCreateInput) { in.Subject = "" }},
		{"no description", func(in *TicketCreateInput) { in.Description = "" }},
		{"no department", func(in *TicketCreateInput) { in.Department = "" }},
		{"no priority", func(in *TicketCreateInput) { in.Priority = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := hrTicketInput()
			tc.mutate(&input)
			_, err := f.svc.Create(context.Background(), employee, input)
			assertCode(t, err, "VALIDATION_FAILED")
		})
	}

	input := hrTicketInput()
	input.Department = "OPERATIONS"
	_, err := f.svc.Create(context.Background(), employee, input)
	assertCode(t, err, "VALIDATION_FAILED")

	input = hrTicketInput()
	input.Priority = "CRITICAL"
	_, err = f.svc.Create(context.Background(), employee, input)
	assertCode(t, err, "VALIDATION_FAILED")

	if len(f.dispatcher.published) != 0 {
		t.Errorf("rejected creates must not publish events, got %d", len(f.dispatcher.published))
	}
}

func TestTicketCreateUploadsAttachmentsFirst(t *testing.T) {
	f := newTicketFixture()
	employee := testUser("emp-1", domain.RoleEmployee, nil)

	input := hrTicketInput()
	input.Files = []AttachmentUpload{
		{FileName: "report.pdf", ContentType: "application/pdf", Size: 4, Body: strings.NewReader("data")},
	}
	ticket := f.mustCreate(t, employee, input)

	if len(ticket.Attachments) != 1 {
		t.Fatalf("attachments = %d, want 1", len(ticket.Attachments))
	}
	key := ticket.Attachments[0]
	if !strings.HasPrefix(key, "tickets/") || !strings.HasSuffix(key, "-report.pdf") {
		t.Errorf("unexpected attachment key %q", key)
	}
	if _, ok := f.store.objects[key]; !ok {
		t.Errorf("object %q not stored", key)
	}
}

func TestTicketCreateAbortsOnUploadFailure(t *testing.T) {
	f := newTicketFixture()
	f.store.putErr = errors.New("bucket unavailable")
	employee := testUser("emp-1", domain.RoleEmployee, nil)

	input := hrTicketInput()
	input.Files = []AttachmentUpload{
		{FileName: "report.pdf", ContentType: "application/pdf", Size: 4, Body: strings.NewReader("data")},
	}
	_, err := f.svc.Create(context.Background(), employee, input)
	assertCode(t, err, "INTERNAL_ERROR")

	if len(f.repo.tickets) != 0 {
		t.Errorf("ticket row written despite failed upload")
	}
	if len(f.dispatcher.published) != 0 {
		t.Errorf("event published despite failed upload")
	}
}

func TestTicketGetAccess(t *testing.T) {
	f := newTicketFixture()
	owner := testUser("emp-1", domain.RoleEmployee, nil)
	ticket := f.mustCreate(t, owner, hrTicketInput())

	ctx := context.Background()

	if _, err := f.svc.Get(ctx, owner, ticket.ID); err != nil {
		t.Errorf("owner get: %v", err)
	}
	hrManager := testUser("mgr-hr", domain.RoleHRManager, deptPtr(domain.DepartmentHR))
	if _, err := f.svc.Get(ctx, hrManager, ticket.ID); err != nil {
		t.Errorf("HR manager get: %v", err)
	}
	sysAdmin := testUser("admin", domain.RoleSystemAdmin, nil)
	if _, err := f.svc.Get(ctx, sysAdmin, ticket.ID); err != nil {
		t.Errorf("system admin get: %v", err)
	}

	financeManager := testUser("mgr-fin", domain.RoleFinanceManager, deptPtr(domain.DepartmentFinance))
	_, err := f.svc.Get(ctx, financeManager, ticket.ID)
	assertCode(t, err, "FORBIDDEN")

	stranger := testUser("emp-2", domain.RoleEmployee, nil)
	_, err = f.svc.Get(ctx, stranger, ticket.ID)
	assertCode(t, err, "FORBIDDEN")

	_, err = f.svc.Get(ctx, owner, 9999)
	assertCode(t, err, "NOT_FOUND")
}

func TestTicketUpdateOwnerWhileOpen(t *testing.T) {
	f := newTicketFixture()
	owner := testUser("emp-1", domain.RoleEmployee, nil)
	ticket := f.mustCreate(t, owner, hrTicketInput())

	subject := "need my tax form"
	subcategory := "Tax Declaration"
	updated, err := f.svc.Update(context.Background(), owner, ticket.ID, TicketUpdateInput{
		Subject:     &subject,
		Subcategory: &subcategory,
	})
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if want := "[Payroll - Tax Declaration] need my tax form"; updated.Subject != want {
		t.Errorf("subject = %q, want %q", updated.Subject, want)
	}
	if updated.Subcategory != subcategory {
		t.Errorf("subcategory = %q, want %q", updated.Subcategory, subcategory)
	}
	if !updated.UpdatedAt.After(ticket.UpdatedAt) {
		t.Errorf("updatedAt not advanced")
	}
	// Content edits never raise status events.
	if len(f.dispatcher.published) != 1 {
		t.Errorf("published %d events, want only the create event", len(f.dispatcher.published))
	}
}

func TestTicketUpdateResanitizesSubject(t *testing.T) {
	f := newTicketFixture()
	owner := testUser("emp-1", domain.RoleEmployee, nil)
	ticket := f.mustCreate(t, owner, hrTicketInput())

	// Edited subjects run through the same scrubbing as creation: the
	// 8+ letter word is dropped.
	subject := "need my tax declaration"
	updated, err := f.svc.Update(context.Background(), owner, ticket.ID, TicketUpdateInput{Subject: &subject})
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if want := "[Payroll - Salary Slip] need my tax"; updated.Subject != want {
		t.Errorf("subject = %q, want %q", updated.Subject, want)
	}
}

func TestTicketUpdateOwnerLockedAfterOpen(t *testing.T) {
	f := newTicketFixture()
	owner := testUser("emp-1", domain.RoleEmployee, nil)
	ticket := f.mustCreate(t, owner, hrTicketInput())

	inProgress := domain.TicketStatusInProgress
	manager := testUser("mgr-hr", domain.RoleHRManager, deptPtr(domain.DepartmentHR))
	if _, err := f.svc.Update(context.Background(), manager, ticket.ID, TicketUpdateInput{Status: &inProgress}); err != nil {
		t.Fatalf("manager status update: %v", err)
	}

	subject := "changed my mind"
	_, err := f.svc.Update(context.Background(), owner, ticket.ID, TicketUpdateInput{Subject: &subject})
	assertCode(t, err, "INVALID_STATE")
}

func TestTicketUpdateStatusIgnoredForNonManagers(t *testing.T) {
	f := newTicketFixture()
	owner := testUser("emp-1", domain.RoleEmployee, nil)
	ticket := f.mustCreate(t, owner, hrTicketInput())

	// A status-only patch from the owner has no effective fields.
	closed := domain.TicketStatusClosed
	_, err := f.svc.Update(context.Background(), owner, ticket.ID, TicketUpdateInput{Status: &closed})
	assertCode(t, err, "NO_VALID_FIELDS")

	got, err := f.svc.Get(context.Background(), owner, ticket.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.TicketStatusOpen {
		t.Errorf("status = %s, want OPEN", got.Status)
	}
}

func TestTicketUpdateCommentAloneIsNotAField(t *testing.T) {
	f := newTicketFixture()
	owner := testUser("emp-1", domain.RoleEmployee, nil)
	ticket := f.mustCreate(t, owner, hrTicketInput())

	manager := testUser("mgr-hr", domain.RoleHRManager, deptPtr(domain.DepartmentHR))
	_, err := f.svc.Update(context.Background(), manager, ticket.ID, TicketUpdateInput{Comment: "looking into it"})
	assertCode(t, err, "NO_VALID_FIELDS")
}

func TestTicketUpdateManagerStatusChangeEmitsEvent(t *testing.T) {
	f := newTicketFixture()
	owner := testUser("emp-1", domain.RoleEmployee, nil)
	ticket := f.mustCreate(t, owner, hrTicketInput())

	manager := testUser("mgr-hr", domain.RoleHRManager, deptPtr(domain.DepartmentHR))
	inProgress := domain.TicketStatusInProgress
	updated, err := f.svc.Update(context.Background(), manager, ticket.ID, TicketUpdateInput{
		Status:  &inProgress,
		Comment: "assigned to payroll team",
	})
	if err != nil {
		t.Fatalf("manager update: %v", err)
	}
	if updated.Status != domain.TicketStatusInProgress {
		t.Errorf("status = %s, want IN_PROGRESS", updated.Status)
	}

	if len(f.dispatcher.published) != 2 {
		t.Fatalf("published %d events, want create + status change", len(f.dispatcher.published))
	}
	event := f.dispatcher.published[1]
	if event.Type != events.EventTicketStatusChanged {
		t.Fatalf("event type = %s", event.Type)
	}
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		t.Fatalf("payload type = %T", event.Payload)
	}
	if payload.OldStatus != domain.TicketStatusOpen || payload.NewStatus != domain.TicketStatusInProgress {
		t.Errorf("transition = %s -> %s, want OPEN -> IN_PROGRESS", payload.OldStatus, payload.NewStatus)
	}
	if payload.Comment != "assigned to payroll team" {
		t.Errorf("comment = %q", payload.Comment)
	}
	if payload.Creator.ID != owner.ID {
		t.Errorf("payload creator = %s, want ticket owner %s", payload.Creator.ID, owner.ID)
	}
}

func TestTicketUpdateReopensClosedTicket(t *testing.T) {
	f := newTicketFixture()
	owner := testUser("emp-1", domain.RoleEmployee, nil)
	ticket := f.mustCreate(t, owner, hrTicketInput())

	manager := testUser("mgr-hr", domain.RoleHRManager, deptPtr(domain.DepartmentHR))
	ctx := context.Background()

	closed := domain.TicketStatusClosed
	if _, err := f.svc.Update(ctx, manager, ticket.ID, TicketUpdateInput{Status: &closed}); err != nil {
		t.Fatalf("close: %v", err)
	}

	// No transition graph: CLOSED is not terminal for managers.
	open := domain.TicketStatusOpen
	updated, err := f.svc.Update(ctx, manager, ticket.ID, TicketUpdateInput{Status: &open})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if updated.Status != domain.TicketStatusOpen {
		t.Errorf("status = %s, want OPEN", updated.Status)
	}

	if len(f.dispatcher.published) != 3 {
		t.Fatalf("published %d events, want create + close + reopen", len(f.dispatcher.published))
	}
	event := f.dispatcher.published[2]
	if event.Type != events.EventTicketStatusChanged {
		t.Fatalf("event type = %s", event.Type)
	}
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		t.Fatalf("payload type = %T", event.Payload)
	}
	if payload.OldStatus != domain.TicketStatusClosed || payload.NewStatus != domain.TicketStatusOpen {
		t.Errorf("transition = %s -> %s, want CLOSED -> OPEN", payload.OldStatus, payload.NewStatus)
	}
}

func TestTicketUpdateSameStatusEmitsNothing(t *testing.T) {
	f := newTicketFixture()
	owner := testUser("emp-1", domain.RoleEmployee, nil)
	ticket := f.mustCreate(t, owner, hrTicketInput())

	manager := testUser("mgr-hr", domain.RoleHRManager, deptPtr(domain.DepartmentHR))
	open := domain.TicketStatusOpen
	if _, err := f.svc.Update(context.Background(), manager, ticket.ID, TicketUpdateInput{Status: &open}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(f.dispatcher.published) != 1 {
		t.Errorf("published %d events, want only the create event", len(f.dispatcher.published))
	}
}

func TestTicketUpdateForbiddenForOutsiders(t *testing.T) {
	f := newTicketFixture()
	owner := testUser("emp-1", domain.RoleEmployee, nil)
	ticket := f.mustCreate(t, owner, hrTicketInput())

	financeManager := testUser("mgr-fin", domain.RoleFinanceManager, deptPtr(domain.DepartmentFinance))
	inProgress := domain.TicketStatusInProgress
	_, err := f.svc.Update(context.Background(), financeManager, ticket.ID, TicketUpdateInput{Status: &inProgress})
	assertCode(t, err, "FORBIDDEN")
}

func TestTicketDelete(t *testing.T) {
	f := newTicketFixture()
	owner := testUser("emp-1", domain.RoleEmployee, nil)
	ticket := f.mustCreate(t, owner, hrTicketInput())

	ctx := context.Background()

	stranger := testUser("emp-2", domain.RoleEmployee, nil)
	assertCode(t, f.svc.Delete(ctx, stranger, ticket.ID), "FORBIDDEN")

	financeManager := testUser("mgr-fin", domain.RoleFinanceManager, deptPtr(domain.DepartmentFinance))
	assertCode(t, f.svc.Delete(ctx, financeManager, ticket.ID), "FORBIDDEN")

	if err := f.svc.Delete(ctx, owner, ticket.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	assertCode(t, f.svc.Delete(ctx, owner, ticket.ID), "NOT_FOUND")

	second := f.mustCreate(t, owner, hrTicketInput())
	hrManager := testUser("mgr-hr", domain.RoleHRManager, deptPtr(domain.DepartmentHR))
	if err := f.svc.Delete(ctx, hrManager, second.ID); err != nil {
		t.Fatalf("manager delete: %v", err)
	}
}

func seedScopingFixture(t *testing.T) (*ticketFixture, *domain.User, *domain.User) {
	t.Helper()
	f := newTicketFixture()
	emp1 := testUser("emp-1", domain.RoleEmployee, nil)
	emp2 := testUser("emp-2", domain.RoleEmployee, nil)

	f.mustCreate(t, emp1, hrTicketInput())

	finance := TicketCreateInput{
		Subject:     "travel expense claim",
		Description: "conference travel reimbursement",
		Department:  domain.DepartmentFinance,
		Priority:    domain.TicketPriorityHigh,
		Category:    "Reimbursement",
		Subcategory: "Travel Expense",
	}
	f.mustCreate(t, emp2, finance)

	adminInput := TicketCreateInput{
		Subject:     "new desk chair",
		Description: "current chair is broken",
		Department:  domain.DepartmentAdmin,
		Priority:    domain.TicketPriorityMedium,
	}
	f.mustCreate(t, emp1, adminInput)

	return f, emp1, emp2
}

func TestTicketListScoping(t *testing.T) {
	f, emp1, emp2 := seedScopingFixture(t)
	ctx := context.Background()

	// Employees only see their own tickets.
	got, err := f.svc.List(ctx, emp1, TicketListQuery{})
	if err != nil {
		t.Fatalf("employee list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("emp-1 sees %d tickets, want 2", len(got))
	}
	for _, ticket := range got {
		if ticket.CreatedBy != emp1.ID {
			t.Errorf("emp-1 saw ticket owned by %s", ticket.CreatedBy)
		}
	}

	// Managers see their department, regardless of creator.
	hrManager := testUser("mgr-hr", domain.RoleHRManager, deptPtr(domain.DepartmentHR))
	got, err = f.svc.List(ctx, hrManager, TicketListQuery{})
	if err != nil {
		t.Fatalf("manager list: %v", err)
	}
	if len(got) != 1 || got[0].Department != domain.DepartmentHR {
		t.Fatalf("HR manager scope wrong: %+v", got)
	}

	financeManager := testUser("mgr-fin", domain.RoleFinanceManager, deptPtr(domain.DepartmentFinance))
	got, err = f.svc.List(ctx, financeManager, TicketListQuery{})
	if err != nil {
		t.Fatalf("manager list: %v", err)
	}
	if len(got) != 1 || got[0].CreatedBy != emp2.ID {
		t.Fatalf("finance manager scope wrong: %+v", got)
	}

	// System administrators read everything, newest first.
	sysAdmin := testUser("admin", domain.RoleSystemAdmin, nil)
	got, err = f.svc.List(ctx, sysAdmin, TicketListQuery{})
	if err != nil {
		t.Fatalf("sysadmin list: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("sysadmin sees %d tickets, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].CreatedAt.After(got[i-1].CreatedAt) {
			t.Errorf("list not newest first at index %d", i)
		}
	}
}

func TestTicketListMyTicketsOverridesScope(t *testing.T) {
	f, _, _ := seedScopingFixture(t)
	ctx := context.Background()

	hrManager := testUser("mgr-hr", domain.RoleHRManager, deptPtr(domain.DepartmentHR))
	f.mustCreate(t, hrManager, TicketCreateInput{
		Subject:     "vendor invoice pending",
		Description: "own request outside my department",
		Department:  domain.DepartmentFinance,
		Priority:    domain.TicketPriorityLow,
	})

	got, err := f.svc.List(ctx, hrManager, TicketListQuery{MyTickets: true})
	if err != nil {
		t.Fatalf("myTickets list: %v", err)
	}
	if len(got) != 1 || got[0].CreatedBy != hrManager.ID {
		t.Fatalf("myTickets scope wrong: %+v", got)
	}
}

func TestTicketListDepartmentFilterANDsWithScope(t *testing.T) {
	f, _, _ := seedScopingFixture(t)
	ctx := context.Background()

	hrManager := testUser("mgr-hr", domain.RoleHRManager, deptPtr(domain.DepartmentHR))

	// Matching explicit filter behaves like the plain scope.
	got, err := f.svc.List(ctx, hrManager, TicketListQuery{Department: deptPtr(domain.DepartmentHR)})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("matching filter: %d tickets, want 1", len(got))
	}

	// Conflicting filter can never match anything inside the scope.
	got, err = f.svc.List(ctx, hrManager, TicketListQuery{Department: deptPtr(domain.DepartmentFinance)})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("conflicting filter: %d tickets, want 0", len(got))
	}

	// Unscoped readers use the explicit filter directly.
	sysAdmin := testUser("admin", domain.RoleSystemAdmin, nil)
	got, err = f.svc.List(ctx, sysAdmin, TicketListQuery{Department: deptPtr(domain.DepartmentFinance)})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].Department != domain.DepartmentFinance {
		t.Fatalf("sysadmin filter wrong: %+v", got)
	}
}

func TestTicketListFiltersAndPagination(t *testing.T) {
	f, emp1, _ := seedScopingFixture(t)
	ctx := context.Background()
	sysAdmin := testUser("admin", domain.RoleSystemAdmin, nil)

	high := domain.TicketPriorityHigh
	got, err := f.svc.List(ctx, sysAdmin, TicketListQuery{Priority: &high})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].Priority != high {
		t.Fatalf("priority filter wrong: %+v", got)
	}

	search := "CHAIR"
	got, err = f.svc.List(ctx, sysAdmin, TicketListQuery{Search: &search})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].CreatedBy != emp1.ID {
		t.Fatalf("search filter wrong: %+v", got)
	}

	page1, err := f.svc.List(ctx, sysAdmin, TicketListQuery{Page: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	page2, err := f.svc.List(ctx, sysAdmin, TicketListQuery{Page: 2, PageSize: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page1) != 2 || len(page2) != 1 {
		t.Fatalf("pagination = %d + %d, want 2 + 1", len(page1), len(page2))
	}
	if page1[0].ID == page2[0].ID {
		t.Errorf("pages overlap")
	}
}

func TestTicketStats(t *testing.T) {
	f := newTicketFixture()
	ctx := context.Background()
	employee := testUser("emp-1", domain.RoleEmployee, nil)
	manager := testUser("mgr-hr", domain.RoleHRManager, deptPtr(domain.DepartmentHR))

	inputs := []struct {
		priority domain.TicketPriority
		status   domain.TicketStatus
	}{
		{domain.TicketPriorityLow, domain.TicketStatusOpen},
		{domain.TicketPriorityHigh, domain.TicketStatusOpen},
		{domain.TicketPriorityHigh, domain.TicketStatusClosed},
	}
	for _, in := range inputs {
		create := hrTicketInput()
		create.Priority = in.priority
		ticket := f.mustCreate(t, employee, create)
		if in.status != domain.TicketStatusOpen {
			status := in.status
			if _, err := f.svc.Update(ctx, manager, ticket.ID, TicketUpdateInput{Status: &status}); err != nil {
				t.Fatalf("set status: %v", err)
			}
		}
	}

	stats, err := f.svc.Stats(ctx, manager, false)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 3 || stats.Open != 2 || stats.Closed != 1 {
		t.Errorf("counts = total:%d open:%d closed:%d, want 3/2/1", stats.Total, stats.Open, stats.Closed)
	}
	if stats.ByPriority.Low != 1 || stats.ByPriority.High != 2 {
		t.Errorf("byPriority = %+v, want low:1 high:2", stats.ByPriority)
	}
	if stats.ByDepartment.HR != 3 {
		t.Errorf("byDepartment.HR = %d, want 3", stats.ByDepartment.HR)
	}

	// A finance manager's aggregate excludes HR tickets entirely.
	financeManager := testUser("mgr-fin", domain.RoleFinanceManager, deptPtr(domain.DepartmentFinance))
	stats, err = f.svc.Stats(ctx, financeManager, false)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 0 {
		t.Errorf("finance manager total = %d, want 0", stats.Total)
	}
}

func TestAttachmentLinks(t *testing.T) {
	f := newTicketFixture()
	ticket := &domain.Ticket{
		ID:          7,
		Attachments: []string{"tickets/1-report.pdf", "tickets/2-photo.png"},
	}
	links := f.svc.AttachmentLinks(context.Background(), ticket)
	if len(links) != 2 {
		t.Fatalf("links = %d, want 2", len(links))
	}
	if links[0] != "https://files.test/tickets/1-report.pdf" {
		t.Errorf("link = %q", links[0])
	}
}
