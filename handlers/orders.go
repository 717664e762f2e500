package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pizzastore/middleware"
	"pizzastore/orders"
)

type PlaceOrderRequest struct {
	StoreID int `json:"store_id" binding:"required"`
	Items   []struct {
		ItemName string `json:"item_name" binding:"required"`
		Quantity int    `json:"quantity" binding:"required,min=1"`
	} `json:"items" binding:"required,min=1,dive"`
}

// PlaceOrder creates a new order for the caller
func (h *Handler) PlaceOrder(c *gin.Context) {
	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cart := make([]orders.CartLine, len(req.Items))
	for i, it := range req.Items {
		cart[i] = orders.CartLine{ItemName: it.ItemName, Quantity: it.Quantity}
	}
	order, err := h.Orders.PlaceOrder(c.Request.Context(), middleware.GetPrincipal(c), req.StoreID, cart)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":     "Your order has been placed",
		"order_id":    order.OrderID,
		"total_price": order.TotalPrice.StringFixed(2),
		"order":       order,
	})
}

// targetLogin is the ?login= query, defaulting to the caller.
func targetLogin(c *gin.Context) string {
	if login := c.Query("login"); login != "" {
		return login
	}
	return middleware.GetPrincipal(c).Login
}

// GetOrderHistory returns every order of a user, oldest first
func (h *Handler) GetOrderHistory(c *gin.Context) {
	list, err := h.Orders.History(c.Request.Context(), middleware.GetPrincipal(c), targetLogin(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(list), "orders": list})
}

// GetRecentOrders returns the newest orders of a user
func (h *Handler) GetRecentOrders(c *gin.Context) {
	limit, ok := intQuery(c, "limit")
	if !ok {
		return
	}
	list, err := h.Orders.Recent(c.Request.Context(), middleware.GetPrincipal(c), targetLogin(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(list), "orders": list})
}

// GetOrderDetail returns a single order's full detail with history
func (h *Handler) GetOrderDetail(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	order, err := h.Orders.Detail(c.Request.Context(), middleware.GetPrincipal(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}
