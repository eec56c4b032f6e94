package model

import "time"

// User represents a technician account.
type User struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;size:256;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	FirstName    string    `gorm:"size:128;not null" json:"firstName"`
	LastName     string    `gorm:"size:128;not null" json:"lastName"`
	Active       bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt    time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"not null" json:"updatedAt"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`

	// Associations
	Audits []Audit `gorm:"foreignKey:TechnicianID" json:"-"`
}

// FullName returns the technician's display name.
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}
