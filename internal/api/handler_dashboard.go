package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"datacenter-audit-backend/internal/model"
	"datacenter-audit-backend/internal/store"
)

const dashboardListSize = 5

// DashboardMetrics handles GET /api/dashboard/metrics: headline counts plus
// the most recent audits and currently open incidents.
func (h *Handler) DashboardMetrics(c *gin.Context) {
	ctx := c.Request.Context()

	counts, err := h.store.DashboardCounts(ctx)
	if err != nil {
		failFromStore(c, err)
		return
	}

	recentAudits, err := h.store.Audits(ctx, store.AuditFilter{Limit: dashboardListSize})
	if err != nil {
		failFromStore(c, err)
		return
	}

	critical := model.SeverityCritical
	open := model.IssueStatusOpen
	activeIncidents, err := h.store.Issues(ctx, store.IssueFilter{
		Severity: &critical,
		Status:   &open,
		Limit:    dashboardListSize,
	})
	if err != nil {
		failFromStore(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"metrics":         counts,
		"recentAudits":    recentAudits,
		"activeIncidents": activeIncidents,
	})
}
