package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"datacenter-audit-backend/internal/model"
)

const auditColumns = "audits.*, " +
	"users.first_name || ' ' || users.last_name AS technician_name, " +
	"users.email AS technician_email, " +
	"(SELECT COUNT(*) FROM issues WHERE issues.audit_id = audits.id) AS issue_count"

// auditQuery is the base read query: audits joined with their technician.
func (s *gormStore) auditQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("audits").
		Select(auditColumns).
		Joins("JOIN users ON users.id = audits.technician_id")
}

// CreateAudit inserts a new walkthrough session with a server-generated id.
// New audits always start active.
func (s *gormStore) CreateAudit(ctx context.Context, a *model.Audit) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.Status = model.AuditStatusActive
	a.CompletedAt = nil
	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("create audit: %w", translate(err))
	}
	return nil
}

func (s *gormStore) AuditByID(ctx context.Context, id string) (*AuditRecord, error) {
	var rec AuditRecord
	err := s.auditQuery(ctx).Where("audits.id = ?", id).First(&rec).Error
	if err != nil {
		return nil, translate(err)
	}
	return &rec, nil
}

// Audits lists audits matching the filter, newest first. Soft-deleted audits
// are excluded unless the filter asks for them by status.
func (s *gormStore) Audits(ctx context.Context, f AuditFilter) ([]AuditRecord, error) {
	q := s.auditQuery(ctx)

	if f.Status != nil {
		q = q.Where("audits.status = ?", *f.Status)
	} else {
		q = q.Where("audits.status <> ?", model.AuditStatusDeleted)
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
		q = q.Where("audits.created_at >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		q = q.Where("audits.created_at <= ?", *f.EndDate)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var records []AuditRecord
	if err := q.Order("audits.created_at DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list audits: %w", translate(err))
	}
	return records, nil
}

// UpdateAuditStatus applies a status change and its side effects:
// completed_at is stamped exactly when the audit enters "completed".
// Transition validity and ownership are checked by the caller.
func (s *gormStore) UpdateAuditStatus(ctx context.Context, id string, status model.AuditStatus) (*AuditRecord, error) {
	updates := map[string]any{"status": status}
	if status == model.AuditStatusCompleted {
		updates["completed_at"] = time.Now().UTC()
	}

	res := s.db.WithContext(ctx).Model(&model.Audit{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("update audit status: %w", translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.AuditByID(ctx, id)
}
