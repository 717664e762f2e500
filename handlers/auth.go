package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pizzastore/models"
)

type RegisterRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
	PhoneNum string `json:"phone_num"`
}

type LoginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func userView(u models.User) gin.H {
	return gin.H{
		"login":          u.Login,
		"role":           u.Role,
		"favorite_items": u.FavoriteItems,
		"phone_num":      u.PhoneNum,
	}
}

// Register creates a new customer account
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, err := h.Accounts.CreateUser(c.Request.Context(), req.Login, req.Password, req.PhoneNum)
	if err != nil {
		respondError(c, err)
		return
	}
	token, err := h.Tokens.GenerateToken(user.Login)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Profile has been created",
		"token":   token,
		"user":    userView(user),
	})
}

// Login authenticates a user and returns a JWT
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, err := h.Accounts.Authenticate(c.Request.Context(), req.Login, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	token, err := h.Tokens.GenerateToken(user.Login)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    userView(user),
	})
}
