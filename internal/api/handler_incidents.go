package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"datacenter-audit-backend/internal/model"
)

// Incidents are not a stored entity: they are the view of issues with
// severity "critical", managed through a dedicated surface.

// ListIncidents handles GET /api/incidents. Severity is forced to critical
// server-side regardless of the query string.
func (h *Handler) ListIncidents(c *gin.Context) {
	f, err := issueFilterFromQuery(c)
	if err != nil {
		failValidation(c, err.Error(), "")
		return
	}
	critical := model.SeverityCritical
	f.Severity = &critical

	p, err := paginationFromQuery(c)
	if err != nil {
		failValidation(c, err.Error(), "")
		return
	}
	f.Limit = p.Limit
	f.Offset = p.Offset()

	incidents, err := h.store.Issues(c.Request.Context(), f)
	if err != nil {
		failFromStore(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"incidents":  incidents,
		"pagination": p.body(len(incidents)),
	})
}

// GetIncident handles GET /api/incidents/:id. Non-critical issues are not
// addressable through this surface.
func (h *Handler) GetIncident(c *gin.Context) {
	issue, err := h.store.IssueByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		failFromStore(c, err)
		return
	}
	if !issue.IsIncident() {
		fail(c, http.StatusNotFound, "resource not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "incident": issue})
}

type updateIncidentStatusRequest struct {
	Status model.IssueStatus `json:"status" binding:"required"`
}

// UpdateIncidentStatus handles PUT /api/incidents/:id/status. Only the
// open/resolved pair is reachable here; closing requires the general issue
// update.
func (h *Handler) UpdateIncidentStatus(c *gin.Context) {
	var req updateIncidentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failValidation(c, "invalid request", err.Error())
		return
	}
	if req.Status != model.IssueStatusOpen && req.Status != model.IssueStatusResolved {
		failValidation(c, fmt.Sprintf("incident status must be open or resolved, got %q", req.Status), "")
		return
	}

	issue, err := h.store.IssueByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		failFromStore(c, err)
		return
	}
	if !issue.IsIncident() {
		fail(c, http.StatusNotFound, "resource not found")
		return
	}
	if issue.Status == req.Status {
		fail(c, http.StatusConflict, fmt.Sprintf("incident is already %s", req.Status))
		return
	}
	if issue.Status == model.IssueStatusClosed {
		fail(c, http.StatusConflict, "a closed incident cannot change status here")
		return
	}

	updated, err := h.store.UpdateIssueStatus(c.Request.Context(), issue.ID, req.Status)
	if err != nil {
		failFromStore(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "incident": updated})
}
