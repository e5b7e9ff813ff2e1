package domain

import "time"

// User is an authenticated account. Username doubles as the email address
// used for ticket notifications.
type User struct {
	ID           string
	Name         string
	Username     string
	PasswordHash string
	Role         Role
	Department   *Department
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserSummary is the creator projection joined onto tickets.
type UserSummary struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Username   string      `json:"username"`
	Role       Role        `json:"role"`
	Department *Department `json:"department"`
}

// Summary returns the projection of the user embedded in ticket responses.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:         u.ID,
		Name:       u.Name,
		Username:   u.Username,
		Role:       u.Role,
		Department: u.Department,
	}
}
