package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pizzastore/accounts"
	"pizzastore/apperr"
	"pizzastore/catalog"
	"pizzastore/gateway"
	"pizzastore/middleware"
	"pizzastore/orders"
)

// Handler serves the JSON API over the domain services.
type Handler struct {
	Accounts *accounts.Directory
	Catalog  *catalog.Catalog
	Orders   *orders.Engine
	Tokens   *middleware.Tokens
	Gateway  *gateway.Gateway
}

var statusByKind = map[apperr.Kind]int{
	apperr.NotFound:        http.StatusNotFound,
	apperr.Unauthorized:    http.StatusForbidden,
	apperr.Unauthenticated: http.StatusUnauthorized,
	apperr.Conflict:        http.StatusConflict,
	apperr.Validation:      http.StatusBadRequest,
	apperr.StoreError:      http.StatusInternalServerError,
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(err error) int {
	if s, ok := statusByKind[apperr.KindOf(err)]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// respondError writes err as JSON. Store failures hide driver detail.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	status := StatusFor(err)
	msg := apperr.Message(err)
	if status == http.StatusInternalServerError {
		msg = "Internal error, please retry later"
	}
	c.JSON(status, gin.H{"error": msg})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func intParam(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		badRequest(c, errors.New(name+" must be an integer"))
		return 0, false
	}
	return v, true
}

func intQuery(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, errors.New(name+" must be an integer"))
		return 0, false
	}
	return v, true
}
