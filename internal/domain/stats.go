package domain

// DepartmentCounts tallies tickets per department.
type DepartmentCounts struct {
	Admin   int `json:"admin"`
	Finance int `json:"finance"`
	HR      int `json:"hr"`
}

// PriorityCounts tallies tickets per priority.
type PriorityCounts struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
}

// DashboardStats aggregates counts over a role-scoped ticket set.
type DashboardStats struct {
	Total        int              `json:"total"`
	Open         int              `json:"open"`
	InProgress   int              `json:"inProgress"`
	OnHold       int              `json:"onHold"`
	Cancelled    int              `json:"cancelled"`
	Closed       int              `json:"closed"`
	ByDepartment DepartmentCounts `json:"byDepartment"`
	ByPriority   PriorityCounts   `json:"byPriority"`
}

// Tally folds a ticket into the aggregate. Pure reduction; unknown values are
// counted in Total only.
func (s *DashboardStats) Tally(t *Ticket) {
	s.Total++

	switch t.Status {
	case TicketStatusOpen:
		s.Open++
	case TicketStatusInProgress:
		s.InProgress++
	case TicketStatusOnHold:
		s.OnHold++
	case TicketStatusCancelled:
		s.Cancelled++
	case TicketStatusClosed:
		s.Closed++
	}

	switch t.Department {
	case DepartmentAdmin:
		s.ByDepartment.Admin++
	case DepartmentFinance:
		s.ByDepartment.Finance++
	case DepartmentHR:
		s.ByDepartment.HR++
	}

	switch t.Priority {
	case TicketPriorityLow:
		s.ByPriority.Low++
	case TicketPriorityMedium:
		s.ByPriority.Medium++
	case TicketPriorityHigh:
		s.ByPriority.High++
	}
}
