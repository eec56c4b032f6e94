package api

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"datacenter-audit-backend/internal/report"
)

// GenerateReport handles GET /api/reports/generate: a bulk CSV export of the
// filtered issue set. Not paginated; the row count is capped by config.
func (h *Handler) GenerateReport(c *gin.Context) {
	f, err := issueFilterFromQuery(c)
	if err != nil {
		failValidation(c, err.Error(), "")
		return
	}
	f.Limit = h.reportMaxRows

	rows, err := h.store.Issues(c.Request.Context(), f)
	if err != nil {
		failFromStore(c, err)
		return
	}

	filename := fmt.Sprintf("audit-report-%s.csv", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)

	if err := report.WriteCSV(c.Writer, rows); err != nil {
		// headers are already out; all we can do is log
		log.Printf("report write failed: %v", err)
	}
}
