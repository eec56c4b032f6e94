package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"datacenter-audit-backend/internal/store"
)

// Every error response shares the envelope {success:false, error, details?}.
// Success responses carry success:true plus endpoint-specific fields.

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": message})
}

func failValidation(c *gin.Context, message, details string) {
	body := gin.H{"success": false, "error": message}
	if details != "" {
		body["details"] = details
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, body)
}

// failFromStore maps store-level errors to the HTTP error taxonomy. Unknown
// errors become a 500 with the message suppressed.
func failFromStore(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		fail(c, http.StatusNotFound, "resource not found")
	case errors.Is(err, store.ErrDuplicate):
		fail(c, http.StatusConflict, "resource already exists")
	default:
		log.Printf("unexpected error handling %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		fail(c, http.StatusInternalServerError, "internal server error")
	}
}

// pagination is the page/limit pair parsed from the query string.
type pagination struct {
	Page  int
	Limit int
}

func (p pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

// body shapes the pagination object of list responses. hasMore is the
// approximate contract: a full page implies more pages may exist.
func (p pagination) body(returned int) gin.H {
	return gin.H{
		"page":    p.Page,
		"limit":   p.Limit,
		"hasMore": returned == p.Limit,
	}
}

func paginationFromQuery(c *gin.Context) (pagination, error) {
	p := pagination{Page: 1, Limit: 20}
	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return p, errors.New("page must be a positive integer")
		}
		p.Page = page
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 100 {
			return p, errors.New("limit must be between 1 and 100")
		}
		p.Limit = limit
	}
	return p, nil
}

// parseDate accepts RFC3339 timestamps and bare dates.
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}
