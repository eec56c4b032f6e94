package model

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"
)

// IssueStatus is the lifecycle state of an issue.
type IssueStatus string

const (
	IssueStatusOpen     IssueStatus = "open"
	IssueStatusResolved IssueStatus = "resolved"
	IssueStatusClosed   IssueStatus = "closed"
)

// Valid reports whether s is one of the persisted issue statuses.
func (s IssueStatus) Valid() bool {
	switch s {
	case IssueStatusOpen, IssueStatusResolved, IssueStatusClosed:
		return true
	}
	return false
}

// DeviceType identifies the kind of equipment an issue was reported against.
type DeviceType string

const (
	DevicePowerSupplyUnit       DeviceType = "power_supply_unit"
	DevicePowerDistributionUnit DeviceType = "power_distribution_unit"
	DeviceRearDoorHeatExchanger DeviceType = "rear_door_heat_exchanger"
)

// Valid reports whether t is a recognized device type.
func (t DeviceType) Valid() bool {
	switch t {
	case DevicePowerSupplyUnit, DevicePowerDistributionUnit, DeviceRearDoorHeatExchanger:
		return true
	}
	return false
}

// Severity classifies an issue at creation time.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityHealthy  Severity = "healthy"
)

// Valid reports whether s is a recognized severity.
func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityWarning, SeverityHealthy:
		return true
	}
	return false
}

// JSONText holds a free-form JSON document stored in a text column.
type JSONText []byte

// Value implements driver.Valuer.
func (j JSONText) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return string(j), nil
}

// Scan implements sql.Scanner.
func (j *JSONText) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*j = nil
	case string:
		*j = JSONText(v)
	case []byte:
		*j = append((*j)[:0], v...)
	default:
		return fmt.Errorf("unsupported type %T for JSONText", src)
	}
	return nil
}

// MarshalJSON returns the stored document verbatim.
func (j JSONText) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return j, nil
}

// UnmarshalJSON stores the raw document.
func (j *JSONText) UnmarshalJSON(data []byte) error {
	if data == nil {
		return errors.New("JSONText: UnmarshalJSON on nil data")
	}
	*j = append((*j)[:0], data...)
	return nil
}

// Issue represents a single reported equipment defect within an audit.
type Issue struct {
	ID            string      `gorm:"type:uuid;primaryKey" json:"id"`
	AuditID       string      `gorm:"type:uuid;index;not null" json:"auditId"`
	RackLocation  string      `gorm:"size:128;not null" json:"rackLocation"`
	DeviceType    DeviceType  `gorm:"size:64;not null" json:"deviceType"`
	DeviceDetails JSONText    `gorm:"type:text" json:"deviceDetails,omitempty"`
	Status        IssueStatus `gorm:"size:32;not null;default:open;index" json:"status"`
	PSUID         string      `gorm:"column:psu_id;size:64" json:"psuId,omitempty"`
	UHeight       int         `gorm:"column:u_height" json:"uHeight,omitempty"`
	Severity      Severity    `gorm:"size:32;not null;index" json:"severity"`
	Comments      string      `gorm:"type:text" json:"comments,omitempty"`
	CreatedAt     time.Time   `gorm:"not null;index" json:"createdAt"`
	UpdatedAt     time.Time   `gorm:"not null" json:"updatedAt"`
	ResolvedAt    *time.Time  `json:"resolvedAt,omitempty"`

	// Associations
	Audit Audit `gorm:"foreignKey:AuditID" json:"-"`
}

// IsIncident reports whether the issue is surfaced through the incident
// management endpoints.
func (i Issue) IsIncident() bool {
	return i.Severity == SeverityCritical
}
