package entity

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DoctorProfile represents doctor-specific profile data
type DoctorProfile struct {
	UserID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"user_id"`
	Specialization  string          `gorm:"type:varchar(100);not null;index" json:"specialization"`
	Qualification   string          `gorm:"type:varchar(255)" json:"qualification,omitempty"`
	ConsultationFee decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"consultation_fee"`
	Biography       string          `gorm:"type:text" json:"biography,omitempty"`

	// Relationships
	User         User               `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Availability []AvailabilitySlot `gorm:"foreignKey:DoctorID" json:"availability,omitempty"`
}

func (DoctorProfile) TableName() string {
	return "doctor_profiles"
}

// IsBookable reports whether patients may book this doctor at all.
// Both the active and approved flags live on the user row.
func (d *DoctorProfile) IsBookable() bool {
	return d.User.Active() && d.User.Approved()
}
