package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

var departmentDisplay = map[domain.Department]string{
	domain.DepartmentAdmin:   "Administration",
	domain.DepartmentFinance: "Finance",
	domain.DepartmentHR:      "Human Resources",
}

// TaxonomyHandler exposes the department/category structure consumed by the
// ticket forms.
type TaxonomyHandler struct{}

// NewTaxonomyHandler constructs handler.
func NewTaxonomyHandler() *TaxonomyHandler {
	return &TaxonomyHandler{}
}

// Departments GET /departments.
func (h *TaxonomyHandler) Departments(c *fiber.Ctx) error {
	if _, ok := auth.UserFromContext(c); !ok {
		return errorutil.NewUnauthorized("authentication required")
	}

	items := make([]dto.DepartmentTaxonomy, 0, len(domain.Departments))
	for _, dept := range domain.Departments {
		items = append(items, dto.DepartmentTaxonomy{
			Department: dept,
			Label:      departmentDisplay[dept],
			Categories: domain.CategoriesFor(dept),
		})
	}
	return c.JSON(fiber.Map{"departments": items})
}
