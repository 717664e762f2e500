package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"pizzastore/catalog"
	"pizzastore/statemachine"
)

// ListMenu returns menu items (public)
func (h *Handler) ListMenu(c *gin.Context) {
	var f catalog.Filter
	f.Type = c.Query("type")
	if raw := c.Query("max_price"); raw != "" {
		max, err := decimal.NewFromString(raw)
		if err != nil {
			badRequest(c, errors.New("max_price must be a number"))
			return
		}
		f.MaxPrice = &max
	}
	sort, err := catalog.ParseSort(c.Query("sort"))
	if err != nil {
		respondError(c, err)
		return
	}
	items, err := h.Catalog.ListItems(c.Request.Context(), f, sort)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(items), "menu": items})
}

// GetMenuItem returns a single menu item
func (h *Handler) GetMenuItem(c *gin.Context) {
	item, err := h.Catalog.FindItem(c.Request.Context(), c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item})
}

// ListStores returns every store (public)
func (h *Handler) ListStores(c *gin.Context) {
	stores, err := h.Catalog.ListStores(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(stores), "stores": stores})
}

// GetStore returns a single store
func (h *Handler) GetStore(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	store, err := h.Catalog.FindStore(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"store": store})
}

// GetStateMachineInfo returns the full state machine for informational purposes
func (h *Handler) GetStateMachineInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"state_machine":   statemachine.GetAllTransitions(),
		"terminal_states": statemachine.TerminalStates(),
		"description":     "Pizza order lifecycle",
	})
}

// Health pings the data store
func (h *Handler) Health(c *gin.Context) {
	if err := h.Gateway.Ping(c.Request.Context()); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "pizzastore",
	})
}
