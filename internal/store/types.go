package store

import (
	"time"

	"datacenter-audit-backend/internal/model"
)

// AuditFilter narrows an audit listing. Nil fields impose no constraint, so
// partial filter sets compose safely across callers.
type AuditFilter struct {
	Datacenter   *string
	DataHall     *string
	Status       *model.AuditStatus
	TechnicianID *string
	StartDate    *time.Time
	EndDate      *time.Time
	Limit        int
	Offset       int
}

// IssueFilter narrows an issue listing. Nil fields impose no constraint.
// Datacenter, DataHall and TechnicianID apply to the issue's parent audit.
type IssueFilter struct {
	AuditID      *string
	Datacenter   *string
	DataHall     *string
	Status       *model.IssueStatus
	Severity     *model.Severity
	DeviceType   *model.DeviceType
	TechnicianID *string
	StartDate    *time.Time
	EndDate      *time.Time
	Limit        int
	Offset       int
}

// UserUpdate carries optional profile fields; nil fields are left unchanged.
type UserUpdate struct {
	FirstName *string
	LastName  *string
	Email     *string
}

// IssueUpdate carries optional issue fields; nil fields are left unchanged.
// This is the only path through which an issue can reach status "closed".
type IssueUpdate struct {
	RackLocation  *string
	DeviceType    *model.DeviceType
	DeviceDetails model.JSONText
	Status        *model.IssueStatus
	PSUID         *string
	UHeight       *int
	Severity      *model.Severity
	Comments      *string
}

// AuditRecord is an audit row joined with its technician and issue count.
type AuditRecord struct {
	model.Audit
	TechnicianName  string `json:"technicianName"`
	TechnicianEmail string `json:"technicianEmail"`
	IssueCount      int64  `json:"issueCount"`
}

// IssueRecord is an issue row joined with its parent audit's location and
// the owning technician's name.
type IssueRecord struct {
	model.Issue
	Datacenter     string `json:"datacenter"`
	DataHall       string `json:"dataHall"`
	WalkthroughID  string `json:"walkthroughId,omitempty"`
	TechnicianID   string `json:"technicianId"`
	TechnicianName string `json:"technicianName"`
}

// IssueStatistics aggregates counts over one filtered issue set.
type IssueStatistics struct {
	Total      int64                       `json:"total"`
	ByStatus   map[model.IssueStatus]int64 `json:"byStatus"`
	BySeverity map[model.Severity]int64    `json:"bySeverity"`
}

// DashboardCounts backs the dashboard metrics endpoint.
type DashboardCounts struct {
	CompletedAudits int64 `json:"completedAudits"`
	ActiveIncidents int64 `json:"activeIncidents"`
	TotalIssues     int64 `json:"totalIssues"`
	CriticalIssues  int64 `json:"criticalIssues"`
}
