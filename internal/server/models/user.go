package models

import "time"

// Staff account roles.
const (
	RoleAdmin  = "admin"
	RoleStaff  = "staff"
	RoleMember = "member"
)

// User is a staff account that operates the system (front desk, admins).
// Distinct from Member, which is a gym member being provisioned.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
}
