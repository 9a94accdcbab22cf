package domain

import "time"

// UserRole captures who filed or reviews complaints.
type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleFaculty UserRole = "faculty"
	RoleStaff   UserRole = "staff"
	RoleAdmin   UserRole = "admin"
)

// SelfRegistrable reports whether the role can be chosen at sign-up.
func (r UserRole) SelfRegistrable() bool {
	switch r {
	case RoleStudent, RoleFaculty, RoleStaff:
		return true
	}
	return false
}

// User is the domain model for people who submit complaints.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         UserRole
	StudentID    string
	Department   string
	CreatedAt    time.Time
}

// IsAdmin reports whether the user may review every complaint.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
