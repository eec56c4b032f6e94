package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"datacenter-audit-backend/internal/model"
)

// IssueStatistics aggregates counts over the filtered issue set. Pagination
// fields on the filter are ignored: the aggregate covers the whole set.
func (s *gormStore) IssueStatistics(ctx context.Context, f IssueFilter) (*IssueStatistics, error) {
	stats := &IssueStatistics{
		ByStatus:   make(map[model.IssueStatus]int64),
		BySeverity: make(map[model.Severity]int64),
	}

	base := func() *gorm.DB {
		return applyIssueFilter(s.issueQuery(ctx), f)
	}

	if err := base().Count(&stats.Total).Error; err != nil {
		return nil, fmt.Errorf("count issues: %w", translate(err))
	}

	type countRow struct {
		Key   string
		Count int64
	}

	var byStatus []countRow
	if err := base().
		Select("issues.status AS key, COUNT(*) AS count").
		Group("issues.status").
		Scan(&byStatus).Error; err != nil {
		return nil, fmt.Errorf("aggregate by status: %w", translate(err))
	}
	for _, row := range byStatus {
		stats.ByStatus[model.IssueStatus(row.Key)] = row.Count
	}

	var bySeverity []countRow
	if err := base().
		Select("issues.severity AS key, COUNT(*) AS count").
		Group("issues.severity").
		Scan(&bySeverity).Error; err != nil {
		return nil, fmt.Errorf("aggregate by severity: %w", translate(err))
	}
	for _, row := range bySeverity {
		stats.BySeverity[model.Severity(row.Key)] = row.Count
	}

	return stats, nil
}

// DashboardCounts computes the four headline dashboard numbers.
func (s *gormStore) DashboardCounts(ctx context.Context) (*DashboardCounts, error) {
	var counts DashboardCounts

	if err := s.db.WithContext(ctx).Model(&model.Audit{}).
		Where("status = ?", model.AuditStatusCompleted).
		Count(&counts.CompletedAudits).Error; err != nil {
		return nil, fmt.Errorf("count completed audits: %w", translate(err))
	}
	if err := s.db.WithContext(ctx).Model(&model.Issue{}).
		Count(&counts.TotalIssues).Error; err != nil {
		return nil, fmt.Errorf("count issues: %w", translate(err))
	}
	if err := s.db.WithContext(ctx).Model(&model.Issue{}).
		Where("severity = ?", model.SeverityCritical).
		Count(&counts.CriticalIssues).Error; err != nil {
		return nil, fmt.Errorf("count critical issues: %w", translate(err))
	}
	if err := s.db.WithContext(ctx).Model(&model.Issue{}).
		Where("severity = ? AND status = ?", model.SeverityCritical, model.IssueStatusOpen).
		Count(&counts.ActiveIncidents).Error; err != nil {
		return nil, fmt.Errorf("count active incidents: %w", translate(err))
	}

	return &counts, nil
}
