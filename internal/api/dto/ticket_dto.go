package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// TicketResponse is the wire shape of a ticket. Attachments carry presigned
// download links, not raw storage keys.
type TicketResponse struct {
	ID          int64                  `json:"id"`
	Subject     string                 `json:"subject"`
	Description string                 `json:"description"`
	Department  domain.Department      `json:"department"`
	Category    string                 `json:"category,omitempty"`
	Subcategory string                 `json:"subcategory,omitempty"`
	Priority    domain.TicketPriority  `json:"priority"`
	Status      domain.TicketStatus    `json:"status"`
	CreatedBy   string                 `json:"createdBy"`
	Attachments []string               `json:"attachments"`
	CreatedAt   time.Time              `json:"createdAt"`
	UpdatedAt   time.Time              `json:"updatedAt"`
	User        *domain.UserSummary    `json:"user,omitempty"`
}

// UpdateTicketRequest is the PUT payload; omitted fields stay untouched.
type UpdateTicketRequest struct {
	Subject     *string `json:"subject"`
	Description *string `json:"description"`
	Department  *string `json:"department"`
	Priority    *string `json:"priority"`
	Status      *string `json:"status"`
	Category    *string `json:"category"`
	Subcategory *string `json:"subcategory"`
	Comment     *string `json:"comment"`
}

// DepartmentTaxonomy describes one department's category tree for UI
// option population.
type DepartmentTaxonomy struct {
	Department domain.Department   `json:"department"`
	Label      string              `json:"label"`
	Categories map[string][]string `json:"categories"`
}
