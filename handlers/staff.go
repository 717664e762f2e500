package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pizzastore/middleware"
	"pizzastore/orders"
	"pizzastore/statemachine"
)

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

// UpdateOrderStatus advances an order through the state machine (drivers and managers)
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p := middleware.GetPrincipal(c)
	change, err := h.Orders.UpdateStatus(c.Request.Context(), p, id, req.Status, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":           "Order status updated",
		"order_id":          change.OrderID,
		"previous_status":   change.From,
		"new_status":        change.To,
		"valid_next_states": statemachine.ValidTransitionsFor(change.To, p.Role),
	})
}

// ListOrders is the staff work queue, filterable by status and login
func (h *Handler) ListOrders(c *gin.Context) {
	limit, ok := intQuery(c, "limit")
	if !ok {
		return
	}
	f := orders.ListFilter{Status: c.Query("status"), Login: c.Query("login"), Limit: limit}
	list, err := h.Orders.ListAll(c.Request.Context(), middleware.GetPrincipal(c), f)
	if err != nil {
		respondError(c, err)
		return
	}
	summary := map[string]int{}
	for _, o := range list {
		summary[string(o.OrderStatus)]++
	}
	c.JSON(http.StatusOK, gin.H{
		"order_summary": summary,
		"count":         len(list),
		"orders":        list,
	})
}
