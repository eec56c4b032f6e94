package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"datacenter-audit-backend/internal/model"
	"datacenter-audit-backend/internal/mw"
	"datacenter-audit-backend/internal/store"
)

type createAuditRequest struct {
	Datacenter    string `json:"datacenter" binding:"required"`
	DataHall      string `json:"dataHall" binding:"required"`
	WalkthroughID string `json:"walkthroughId"`
}

// CreateAudit handles POST /api/audits. The technician is the caller.
func (h *Handler) CreateAudit(c *gin.Context) {
	var req createAuditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failValidation(c, "invalid request", err.Error())
		return
	}

	audit := model.Audit{
		TechnicianID:  mw.Identity(c).UserID,
		Datacenter:    req.Datacenter,
		DataHall:      req.DataHall,
		WalkthroughID: req.WalkthroughID,
	}
	if err := h.store.CreateAudit(c.Request.Context(), &audit); err != nil {
		failFromStore(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "audit": audit})
}

func auditFilterFromQuery(c *gin.Context) (store.AuditFilter, error) {
	var f store.AuditFilter
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
		status := model.AuditStatus(v)
		if !status.Valid() {
			return f, fmt.Errorf("invalid status %q", v)
		}
		f.Status = &status
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

// ListAudits handles GET /api/audits.
func (h *Handler) ListAudits(c *gin.Context) {
	f, err := auditFilterFromQuery(c)
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

	audits, err := h.store.Audits(c.Request.Context(), f)
	if err != nil {
		failFromStore(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"audits":     audits,
		"pagination": p.body(len(audits)),
	})
}

// GetAudit handles GET /api/audits/:id.
func (h *Handler) GetAudit(c *gin.Context) {
	audit, err := h.store.AuditByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		failFromStore(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "audit": audit})
}

type updateAuditStatusRequest struct {
	Status model.AuditStatus `json:"status" binding:"required"`
}

// changeAuditStatus fetches the audit, enforces ownership and transition
// rules, then applies the change. Every audit mutation funnels through here.
func (h *Handler) changeAuditStatus(c *gin.Context, id string, target model.AuditStatus) {
	audit, err := h.store.AuditByID(c.Request.Context(), id)
	if err != nil {
		failFromStore(c, err)
		return
	}
	if audit.TechnicianID != mw.Identity(c).UserID {
		fail(c, http.StatusForbidden, "only the audit's technician may modify it")
		return
	}
	if !audit.Status.CanTransitionTo(target) {
		fail(c, http.StatusConflict,
			fmt.Sprintf("cannot change audit status from %s to %s", audit.Status, target))
		return
	}

	updated, err := h.store.UpdateAuditStatus(c.Request.Context(), id, target)
	if err != nil {
		failFromStore(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "audit": updated})
}

// UpdateAuditStatus handles PUT /api/audits/:id.
func (h *Handler) UpdateAuditStatus(c *gin.Context) {
	var req updateAuditStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failValidation(c, "invalid request", err.Error())
		return
	}
	if !req.Status.Valid() {
		failValidation(c, fmt.Sprintf("invalid status %q", req.Status), "")
		return
	}
	h.changeAuditStatus(c, c.Param("id"), req.Status)
}

// CompleteAudit handles POST /api/audits/:id/complete.
func (h *Handler) CompleteAudit(c *gin.Context) {
	h.changeAuditStatus(c, c.Param("id"), model.AuditStatusCompleted)
}

// DeleteAudit handles DELETE /api/audits/:id. Deletion is a status flag;
// the row is never physically removed.
func (h *Handler) DeleteAudit(c *gin.Context) {
	h.changeAuditStatus(c, c.Param("id"), model.AuditStatusDeleted)
}
