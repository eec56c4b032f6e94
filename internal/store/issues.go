package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"datacenter-audit-backend/internal/model"
)

const issueColumns = "issues.*, " +
	"audits.datacenter AS datacenter, audits.data_hall AS data_hall, " +
	"audits.walkthrough_id AS walkthrough_id, audits.technician_id AS technician_id, " +
	"users.first_name || ' ' || users.last_name AS technician_name"

// issueQuery is the base read query: issues joined with their parent audit
// and the owning technician.
func (s *gormStore) issueQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("issues").
		Select(issueColumns).
		Joins("JOIN audits ON audits.id = issues.audit_id").
		Joins("JOIN users ON users.id = audits.technician_id")
}

// applyIssueFilter folds the supplied filter fields into the query.
// Absent fields impose no constraint.
func applyIssueFilter(q *gorm.DB, f IssueFilter) *gorm.DB {
	if f.AuditID != nil {
		q = q.Where("issues.audit_id = ?", *f.AuditID)
	}
	if f.Status != nil {
		q = q.Where("issues.status = ?", *f.Status)
	}
	if f.Severity != nil {
		q = q.Where("issues.severity = ?", *f.Severity)
	}
	if f.DeviceType != nil {
		q = q.Where("issues.device_type = ?", *f.DeviceType)
	}
	if f.Datacenter != nil {
		q = q.Where("audits.datacenter = ?", *f.Datacenter)
	}
	if f.DataHall != nil {
		q = q.Where("audits.data_hall = ?", *f.DataHall)
	}
	if f.TechnicianID != nil {
		q = q.Where("audits.technician_id = ?", *f.TechnicianID)
	}
	if f.StartDate != nil {
		q = q.Where("issues.created_at >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		q = q.Where("issues.created_at <= ?", *f.EndDate)
	}
	return q
}

// CreateIssue inserts a new issue with a server-generated id. Status defaults
// to "open" when unset. The parent-audit-is-active check belongs to the caller.
func (s *gormStore) CreateIssue(ctx context.Context, i *model.Issue) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Status == "" {
		i.Status = model.IssueStatusOpen
	}
	if i.Status == model.IssueStatusResolved {
		now := time.Now().UTC()
		i.ResolvedAt = &now
	} else {
		i.ResolvedAt = nil
	}
	if err := s.db.WithContext(ctx).Create(i).Error; err != nil {
		return fmt.Errorf("create issue: %w", translate(err))
	}
	return nil
}

func (s *gormStore) IssueByID(ctx context.Context, id string) (*IssueRecord, error) {
	var rec IssueRecord
	err := s.issueQuery(ctx).Where("issues.id = ?", id).First(&rec).Error
	if err != nil {
		return nil, translate(err)
	}
	return &rec, nil
}

// Issues lists issues matching the filter, newest first.
func (s *gormStore) Issues(ctx context.Context, f IssueFilter) ([]IssueRecord, error) {
	q := applyIssueFilter(s.issueQuery(ctx), f)
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var records []IssueRecord
	if err := q.Order("issues.created_at DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list issues: %w", translate(err))
	}
	return records, nil
}

// issueStatusUpdates builds the column updates for a status change,
// keeping resolved_at non-null exactly while the issue is resolved.
func issueStatusUpdates(status model.IssueStatus) map[string]any {
	updates := map[string]any{"status": status}
	if status == model.IssueStatusResolved {
		updates["resolved_at"] = time.Now().UTC()
	} else {
		updates["resolved_at"] = nil
	}
	return updates
}

// UpdateIssueStatus applies a status change and stamps or clears resolved_at.
func (s *gormStore) UpdateIssueStatus(ctx context.Context, id string, status model.IssueStatus) (*IssueRecord, error) {
	res := s.db.WithContext(ctx).Model(&model.Issue{}).Where("id = ?", id).
		Updates(issueStatusUpdates(status))
	if res.Error != nil {
		return nil, fmt.Errorf("update issue status: %w", translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.IssueByID(ctx, id)
}

// UpdateIssue applies the supplied fields and returns the updated record.
func (s *gormStore) UpdateIssue(ctx context.Context, id string, fields IssueUpdate) (*IssueRecord, error) {
	updates := map[string]any{}
	if fields.RackLocation != nil {
		updates["rack_location"] = *fields.RackLocation
	}
	if fields.DeviceType != nil {
		updates["device_type"] = *fields.DeviceType
	}
	if fields.DeviceDetails != nil {
		updates["device_details"] = string(fields.DeviceDetails)
	}
	if fields.PSUID != nil {
		updates["psu_id"] = *fields.PSUID
	}
	if fields.UHeight != nil {
		updates["u_height"] = *fields.UHeight
	}
	if fields.Severity != nil {
		updates["severity"] = *fields.Severity
	}
	if fields.Comments != nil {
		updates["comments"] = *fields.Comments
	}
	if fields.Status != nil {
		for k, v := range issueStatusUpdates(*fields.Status) {
			updates[k] = v
		}
	}

	if len(updates) > 0 {
		res := s.db.WithContext(ctx).Model(&model.Issue{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, fmt.Errorf("update issue: %w", translate(res.Error))
		}
		if res.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}
	return s.IssueByID(ctx, id)
}
