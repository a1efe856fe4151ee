package models

import "time"

// Member account statuses. Deleted members are soft-deleted rows kept for
// reference; only active members may be provisioned.
const (
	MemberStatusActive    = "active"
	MemberStatusSuspended = "suspended"
	MemberStatusDeleted   = "deleted"
)

type Member struct {
	ID             int64
	Name           string
	Email          string
	Phone          string
	MembershipType string
	Status         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
