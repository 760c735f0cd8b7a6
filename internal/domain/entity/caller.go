package entity

import "github.com/google/uuid"

// Caller is the authenticated identity handed to the core by the delivery layer
type Caller struct {
	UserID uuid.UUID
	RoleID int
}

func (c Caller) IsAdmin() bool {
	return c.RoleID == RoleIDAdmin
}

func (c Caller) IsDoctor() bool {
	return c.RoleID == RoleIDDoctor
}
