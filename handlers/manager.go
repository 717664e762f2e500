package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"pizzastore/accounts"
	"pizzastore/catalog"
	"pizzastore/middleware"
	"pizzastore/models"
)

type ForceStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

type AddItemRequest struct {
	ItemName    string          `json:"item_name" binding:"required"`
	Ingredients string          `json:"ingredients"`
	TypeOfItem  string          `json:"type_of_item" binding:"required"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
}

// ForceOrderStatus lets a manager override any order state
func (h *Handler) ForceOrderStatus(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	var req ForceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	change, err := h.Orders.ForceStatus(c.Request.Context(), middleware.GetPrincipal(c), id, req.Status, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":         "Order status force-updated by manager",
		"order_id":        change.OrderID,
		"previous_status": change.From,
		"new_status":      change.To,
	})
}

// AddMenuItem adds an item to the menu
func (h *Handler) AddMenuItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	item, err := h.Catalog.AddItem(c.Request.Context(), middleware.GetPrincipal(c), models.Item{
		ItemName:    req.ItemName,
		Ingredients: req.Ingredients,
		TypeOfItem:  req.TypeOfItem,
		Price:       req.Price,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Menu item added", "item": item})
}

// UpdateMenuItem edits or renames a menu item
func (h *Handler) UpdateMenuItem(c *gin.Context) {
	var upd catalog.ItemUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		badRequest(c, err)
		return
	}
	item, err := h.Catalog.UpdateItem(c.Request.Context(), middleware.GetPrincipal(c), c.Param("name"), upd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Menu item updated", "item": item})
}

// ListUsers returns all users, optionally filtered by role
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.Accounts.ListUsers(c.Request.Context(), middleware.GetPrincipal(c), c.Query("role"))
	if err != nil {
		respondError(c, err)
		return
	}
	views := make([]gin.H, len(users))
	for i, u := range users {
		views[i] = userView(u)
	}
	c.JSON(http.StatusOK, gin.H{"count": len(users), "users": views})
}

// UpdateUser changes a user's login, role, favorite items or phone number
func (h *Handler) UpdateUser(c *gin.Context) {
	var upd accounts.UserUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		badRequest(c, err)
		return
	}
	user, err := h.Accounts.UpdateUser(c.Request.Context(), middleware.GetPrincipal(c), c.Param("login"), upd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User updated", "user": userView(user)})
}
