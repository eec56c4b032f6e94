package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"datacenter-audit-backend/internal/model"
	"datacenter-audit-backend/internal/mw"
	"datacenter-audit-backend/internal/store"
)

type createIssueRequest struct {
	AuditID       string            `json:"auditId" binding:"required"`
	RackLocation  string            `json:"rackLocation" binding:"required"`
	DeviceType    model.DeviceType  `json:"deviceType" binding:"required"`
	DeviceDetails model.JSONText    `json:"deviceDetails"`
	Severity      model.Severity    `json:"severity" binding:"required"`
	Status        model.IssueStatus `json:"status"`
	PSUID         string            `json:"psuId"`
	UHeight       int               `json:"uHeight"`
	Comments      string            `json:"comments"`
}

// CreateIssue handles POST /api/issues. Issues may only be added to active
// audits, and only by the audit's own technician.
func (h *Handler) CreateIssue(c *gin.Context) {
	var req createIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failValidation(c, "invalid request", err.Error())
		return
	}
	if !req.DeviceType.Valid() {
		failValidation(c, fmt.Sprintf("invalid deviceType %q", req.DeviceType), "")
		return
	}
	if !req.Severity.Valid() {
		failValidation(c, fmt.Sprintf("invalid severity %q", req.Severity), "")
		return
	}
	switch req.Status {
	case "", model.IssueStatusOpen, model.IssueStatusResolved:
	case model.IssueStatusClosed:
		failValidation(c, "an issue cannot be created closed", "")
		return
	default:
		failValidation(c, fmt.Sprintf("invalid status %q", req.Status), "")
		return
	}

	audit, err := h.store.AuditByID(c.Request.Context(), req.AuditID)
	if err != nil {
		failFromStore(c, err)
		return
	}
	if audit.TechnicianID != mw.Identity(c).UserID {
		fail(c, http.StatusForbidden, "only the audit's technician may add issues")
		return
	}
	if audit.Status != model.AuditStatusActive {
		failValidation(c, fmt.Sprintf("cannot add issues to a %s audit", audit.Status), "")
		return
	}

	issue := model.Issue{
		AuditID:       req.AuditID,
		RackLocation:  req.RackLocation,
		DeviceType:    req.DeviceType,
		DeviceDetails: req.DeviceDetails,
		Status:        req.Status,
		PSUID:         req.PSUID,
		UHeight:       req.UHeight,
		Severity:      req.Severity,
		Comments:      req.Comments,
	}
	if err := h.store.CreateIssue(c.Request.Context(), &issue); err != nil {
		failFromStore(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "issue": issue})
}

func issueFilterFromQuery(c *gin.Context) (store.IssueFilter, error) {
	var f store.IssueFilter
	if v := c.Query("auditId"); v != "" {
		f.AuditID = &v
	}
	if v := c.Query("datacenter"); v != "" {
		f.Datacenter = &v
	}
	if v := c.Query("dataHall"); v != "" {
		f.DataHall = &v
	}
	if v := c.Query("technicianId"); v != "" {
		f.TechnicianID = &v
	}
	if v := c.Query("status"); v != "" {
		status := model.IssueStatus(v)
		if !status.Valid() {
			return f, fmt.Errorf("invalid status %q", v)
		}
		f.Status = &status
	}
	if v := c.Query("severity"); v != "" {
		severity := model.Severity(v)
		if !severity.Valid() {
			return f, fmt.Errorf("invalid severity %q", v)
		}
		f.Severity = &severity
	}
	if v := c.Query("deviceType"); v != "" {
		deviceType := model.DeviceType(v)
		if !deviceType.Valid() {
			return f, fmt.Errorf("invalid deviceType %q", v)
		}
		f.DeviceType = &deviceType
	}
	if v := c.Query("startDate"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return f, fmt.Errorf("invalid startDate %q", v)
		}
		f.StartDate = &t
	}
	if v := c.Query("endDate"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return f, fmt.Errorf("invalid endDate %q", v)
		}
		f.EndDate = &t
	}
	return f, nil
}

// ListIssues handles GET /api/issues.
func (h *Handler) ListIssues(c *gin.Context) {
	f, err := issueFilterFromQuery(c)
	if err != nil {
		failValidation(c, err.Error(), "")
		return
	}
	p, err := paginationFromQuery(c)
	if err != nil {
		failValidation(c, err.Error(), "")
		return
	}
	f.Limit = p.Limit
	f.Offset = p.Offset()

	issues, err := h.store.Issues(c.Request.Context(), f)
	if err != nil {
		failFromStore(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"issues":     issues,
		"pagination": p.body(len(issues)),
	})
}

// GetIssue handles GET /api/issues/:id.
func (h *Handler) GetIssue(c *gin.Context) {
	issue, err := h.store.IssueByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		failFromStore(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "issue": issue})
}

type updateIssueRequest struct {
	RackLocation  *string            `json:"rackLocation"`
	DeviceType    *model.DeviceType  `json:"deviceType"`
	DeviceDetails model.JSONText     `json:"deviceDetails"`
	Status        *model.IssueStatus `json:"status"`
	PSUID         *string            `json:"psuId"`
	UHeight       *int               `json:"uHeight"`
	Severity      *model.Severity    `json:"severity"`
	Comments      *string            `json:"comments"`
}

// UpdateIssue handles PUT /api/issues/:id, the general field update. This is
// the only route through which an issue can be closed.
func (h *Handler) UpdateIssue(c *gin.Context) {
	var req updateIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failValidation(c, "invalid request", err.Error())
		return
	}
	if req.DeviceType != nil && !req.DeviceType.Valid() {
		failValidation(c, fmt.Sprintf("invalid deviceType %q", *req.DeviceType), "")
		return
	}
	if req.Status != nil && !req.Status.Valid() {
		failValidation(c, fmt.Sprintf("invalid status %q", *req.Status), "")
		return
	}
	if req.Severity != nil && !req.Severity.Valid() {
		failValidation(c, fmt.Sprintf("invalid severity %q", *req.Severity), "")
		return
	}

	issue, err := h.store.UpdateIssue(c.Request.Context(), c.Param("id"), store.IssueUpdate{
		RackLocation:  req.RackLocation,
		DeviceType:    req.DeviceType,
		DeviceDetails: req.DeviceDetails,
		Status:        req.Status,
		PSUID:         req.PSUID,
		UHeight:       req.UHeight,
		Severity:      req.Severity,
		Comments:      req.Comments,
	})
	if err != nil {
		failFromStore(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "issue": issue})
}

// changeIssueStatus applies a dedicated resolve/reopen action after checking
// the transition is meaningful for the issue's current state.
func (h *Handler) changeIssueStatus(c *gin.Context, id string, target model.IssueStatus) {
	issue, err := h.store.IssueByID(c.Request.Context(), id)
	if err != nil {
		failFromStore(c, err)
		return
	}
	if issue.Status == target {
		fail(c, http.StatusConflict, fmt.Sprintf("issue is already %s", target))
		return
	}
	if issue.Status == model.IssueStatusClosed {
		fail(c, http.StatusConflict, "a closed issue cannot be resolved or reopened")
		return
	}

	updated, err := h.store.UpdateIssueStatus(c.Request.Context(), id, target)
	if err != nil {
		failFromStore(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "issue": updated})
}

// ResolveIssue handles POST /api/issues/:id/resolve.
func (h *Handler) ResolveIssue(c *gin.Context) {
	h.changeIssueStatus(c, c.Param("id"), model.IssueStatusResolved)
}

// ReopenIssue handles POST /api/issues/:id/reopen.
func (h *Handler) ReopenIssue(c *gin.Context) {
	h.changeIssueStatus(c, c.Param("id"), model.IssueStatusOpen)
}

// IssueStatistics handles GET /api/issues/statistics.
func (h *Handler) IssueStatistics(c *gin.Context) {
	f, err := issueFilterFromQuery(c)
	if err != nil {
		failValidation(c, err.Error(), "")
		return
	}

	stats, err := h.store.IssueStatistics(c.Request.Context(), f)
	if err != nil {
		failFromStore(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "statistics": stats})
}
