package model

import "time"

// AuditStatus is the lifecycle state of an audit.
type AuditStatus string

const (
	AuditStatusActive    AuditStatus = "active"
	AuditStatusCompleted AuditStatus = "completed"
	AuditStatusCancelled AuditStatus = "cancelled"
	AuditStatusDeleted   AuditStatus = "deleted"
)

// Valid reports whether s is one of the persisted audit statuses.
func (s AuditStatus) Valid() bool {
	switch s {
	case AuditStatusActive, AuditStatusCompleted, AuditStatusCancelled, AuditStatusDeleted:
		return true
	}
	return false
}

// CanTransitionTo reports whether a status change from s to target is allowed.
// All transitions leave "active"; completed, cancelled and deleted are terminal.
func (s AuditStatus) CanTransitionTo(target AuditStatus) bool {
	if s != AuditStatusActive {
		return false
	}
	switch target {
	case AuditStatusCompleted, AuditStatusCancelled, AuditStatusDeleted:
		return true
	}
	return false
}

// Audit represents one technician's walkthrough session of a data hall.
// Audits are soft-deleted by status, never physically removed.
type Audit struct {
	ID            string      `gorm:"type:uuid;primaryKey" json:"id"`
	TechnicianID  string      `gorm:"type:uuid;index;not null" json:"technicianId"`
	Datacenter    string      `gorm:"size:128;not null" json:"datacenter"`
	DataHall      string      `gorm:"size:128;not null" json:"dataHall"`
	WalkthroughID string      `gorm:"size:128" json:"walkthroughId,omitempty"`
	Status        AuditStatus `gorm:"size:32;not null;default:active;index" json:"status"`
	CreatedAt     time.Time   `gorm:"not null;index" json:"createdAt"`
	UpdatedAt     time.Time   `gorm:"not null" json:"updatedAt"`
	CompletedAt   *time.Time  `json:"completedAt,omitempty"`

	// Associations
	Technician User    `gorm:"foreignKey:TechnicianID" json:"-"`
	Issues     []Issue `gorm:"foreignKey:AuditID;constraint:OnDelete:CASCADE" json:"-"`
}
