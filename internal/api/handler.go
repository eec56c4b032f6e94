package api

import (
	"datacenter-audit-backend/internal/auth"
	"datacenter-audit-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store         store.Store
	hasher        auth.PasswordHasher
	tokens        auth.TokenManager
	reportMaxRows int
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, hasher auth.PasswordHasher, tokens auth.TokenManager, reportMaxRows int) *Handler {
	if reportMaxRows <= 0 {
		reportMaxRows = 10000
	}
	return &Handler{
		store:         s,
		hasher:        hasher,
		tokens:        tokens,
		reportMaxRows: reportMaxRows,
	}
}
