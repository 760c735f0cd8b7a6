package entity

import (
	"time"

	"github.com/google/uuid"
)

// User represents the centralized identity table shared with the auth service.
// The appointment core only reads activation and approval state from it.
type User struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	RoleID     int       `gorm:"not null;index" json:"role_id"`
	Email      string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	FullName   string    `gorm:"type:varchar(255);not null" json:"full_name"`
	IsActive   *bool     `gorm:"not null;default:true;index" json:"is_active"`
	IsApproved *bool     `gorm:"not null;default:false" json:"is_approved"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Role          Role           `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	DoctorProfile *DoctorProfile `gorm:"foreignKey:UserID" json:"doctor_profile,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// Active reports whether the account is enabled
func (u *User) Active() bool {
	return u.IsActive != nil && *u.IsActive
}

// Approved reports whether an administrator approved the account
func (u *User) Approved() bool {
	return u.IsApproved != nil && *u.IsApproved
}
