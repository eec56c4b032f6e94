package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"datacenter-audit-backend/internal/model"
	"datacenter-audit-backend/internal/mw"
	"datacenter-audit-backend/internal/store"
)

type registerRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
}

// Register handles POST /api/auth/register.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failValidation(c, "invalid request", err.Error())
		return
	}

	hash, err := h.hasher.Hash(req.Password)
	if err != nil {
		failFromStore(c, err)
		return
	}

	user := model.User{
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
	}
	if err := h.store.CreateUser(c.Request.Context(), &user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			fail(c, http.StatusConflict, "an account with this email already exists")
			return
		}
		failFromStore(c, err)
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Email)
	if err != nil {
		failFromStore(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "token": token, "user": user})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failValidation(c, "invalid request", err.Error())
		return
	}

	user, err := h.store.UserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fail(c, http.StatusUnauthorized, "invalid credentials")
			return
		}
		failFromStore(c, err)
		return
	}
	if err := h.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		fail(c, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if !user.Active {
		fail(c, http.StatusForbidden, "account is deactivated")
		return
	}

	now := time.Now().UTC()
	if err := h.store.TouchLastLogin(c.Request.Context(), user.ID, now); err != nil {
		failFromStore(c, err)
		return
	}
	user.LastLoginAt = &now

	token, err := h.tokens.Issue(user.ID, user.Email)
	if err != nil {
		failFromStore(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "token": token, "user": user})
}

// GetProfile handles GET /api/auth/profile.
func (h *Handler) GetProfile(c *gin.Context) {
	identity := mw.Identity(c)
	user, err := h.store.UserByID(c.Request.Context(), identity.UserID)
	if err != nil {
		failFromStore(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

type updateProfileRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Email     *string `json:"email" binding:"omitempty,email"`
}

// UpdateProfile handles PUT /api/auth/profile.
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failValidation(c, "invalid request", err.Error())
		return
	}

	identity := mw.Identity(c)
	user, err := h.store.UpdateUser(c.Request.Context(), identity.UserID, store.UserUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	})
	if err != nil {
		failFromStore(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

// DeactivateAccount handles DELETE /api/auth/profile. Accounts are flagged
// inactive, never removed.
func (h *Handler) DeactivateAccount(c *gin.Context) {
	identity := mw.Identity(c)
	if err := h.store.DeactivateUser(c.Request.Context(), identity.UserID); err != nil {
		failFromStore(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
