package domain

import "testing"

func TestTaxonomyCoversAllDepartments(t *testing.T) {
	for _, dept := range Departments {
		cats := CategoriesFor(dept)
		if len(cats) == 0 {
			t.Errorf("department %s has no categories", dept)
		}
		for cat, subs := range cats {
			if len(subs) == 0 {
				t.Errorf("%s/%s has no subcategories", dept, cat)
			}
		}
	}
}

func TestTaxonomyLookups(t *testing.T) {
	if !TaxonomyHasCategory(DepartmentHR, "Payroll") {
		t.Error("expected HR/Payroll to exist")
	}
	if !TaxonomyHasSubcategory(DepartmentHR, "Payroll", "Salary Slip") {
		t.Error("expected HR/Payroll/Salary Slip to exist")
	}
	if TaxonomyHasCategory(DepartmentHR, "Invoicing") {
		t.Error("Invoicing belongs to FINANCE, not HR")
	}
	if TaxonomyHasSubcategory(DepartmentFinance, "Payments", "Salary Slip") {
		t.Error("Salary Slip is not a Payments subcategory")
	}
	if TaxonomyHasCategory("UNKNOWN", "Payroll") {
		t.Error("unknown department must have no categories")
	}
}

func TestTallyReduction(t *testing.T) {
	var stats DashboardStats
	tickets := []Ticket{
		{Status: TicketStatusOpen, Priority: TicketPriorityLow, Department: DepartmentHR},
		{Status: TicketStatusOpen, Priority: TicketPriorityHigh, Department: DepartmentFinance},
		{Status: TicketStatusClosed, Priority: TicketPriorityHigh, Department: DepartmentFinance},
	}
	for i := range tickets {
		stats.Tally(&tickets[i])
	}

	if stats.Total != 3 {
		t.Errorf("total = %d, want 3", stats.Total)
	}
	if stats.Open != 2 || stats.Closed != 1 {
		t.Errorf("open/closed = %d/%d, want 2/1", stats.Open, stats.Closed)
	}
	if stats.InProgress != 0 || stats.OnHold != 0 || stats.Cancelled != 0 {
		t.Errorf("unexpected nonzero buckets: %+v", stats)
	}
	if stats.ByPriority.Low != 1 || stats.ByPriority.Medium != 0 || stats.ByPriority.High != 2 {
		t.Errorf("byPriority = %+v, want low:1 medium:0 high:2", stats.ByPriority)
	}
	if stats.ByDepartment.HR != 1 || stats.ByDepartment.Finance != 2 || stats.ByDepartment.Admin != 0 {
		t.Errorf("byDepartment = %+v, want hr:1 finance:2 admin:0", stats.ByDepartment)
	}
}
