package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pizzastore/accounts"
	"pizzastore/middleware"
)

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// GetProfile returns the authenticated user's profile
func (h *Handler) GetProfile(c *gin.Context) {
	p := middleware.GetPrincipal(c)
	h.profile(c, p.Login)
}

// GetUser returns another user's profile (drivers and managers)
func (h *Handler) GetUser(c *gin.Context) {
	h.profile(c, c.Param("login"))
}

func (h *Handler) profile(c *gin.Context, login string) {
	user, err := h.Accounts.Profile(c.Request.Context(), middleware.GetPrincipal(c), login)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userView(user)})
}

// UpdateProfile changes the caller's favorite items and/or phone number
func (h *Handler) UpdateProfile(c *gin.Context) {
	var upd accounts.ProfileUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		badRequest(c, err)
		return
	}
	p := middleware.GetPrincipal(c)
	if err := h.Accounts.UpdateOwnProfile(c.Request.Context(), p, upd); err != nil {
		respondError(c, err)
		return
	}
	h.profile(c, p.Login)
}

// ChangePassword verifies the current password and stores the new one
func (h *Handler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	err := h.Accounts.ChangePassword(c.Request.Context(), middleware.GetPrincipal(c),
		req.CurrentPassword, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}
