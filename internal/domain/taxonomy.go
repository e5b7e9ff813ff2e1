package domain

// Taxonomy maps department -> category -> subcategories. Static data consumed
// by input validation and the UI option endpoint.
var Taxonomy = map[Department]map[string][]string{
	DepartmentAdmin: {
		"Facilities": {"Desk Setup", "Office Supplies", "Cleaning", "Parking"},
		"IT Support": {"Hardware", "Software", "Network", "Email Access"},
		"Travel":     {"Travel Request", "Cab Booking", "Accommodation"},
	},
	DepartmentFinance: {
		"Reimbursement": {"Travel Expense", "Food Expense", "Other Expense"},
		"Invoicing":     {"Client Invoice", "Vendor Invoice"},
		"Payments":      {"Salary Advance", "Vendor Payment"},
	},
	DepartmentHR: {
		"Payroll":    {"Salary Slip", "Tax Declaration", "PF Withdrawal"},
		"Leave":      {"Leave Balance", "Leave Application"},
		"Onboarding": {"Documents", "ID Card", "Induction"},
	},
}

// CategoriesFor returns the category -> subcategories map for a department,
// or nil when the department is unknown.
func CategoriesFor(dept Department) map[string][]string {
	return Taxonomy[dept]
}

// TaxonomyHasCategory reports whether the category exists under the department.
func TaxonomyHasCategory(dept Department, category string) bool {
	_, ok := Taxonomy[dept][category]
	return ok
}

// TaxonomyHasSubcategory reports whether the subcategory is listed under the
// (department, category) pair.
func TaxonomyHasSubcategory(dept Department, category, subcategory string) bool {
	for _, sub := range Taxonomy[dept][category] {
		if sub == subcategory {
			return true
		}
	}
	return false
}
