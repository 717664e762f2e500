package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pizzastore/handlers"
	"pizzastore/middleware"
	"pizzastore/policy"
)

// NewEngine builds the gin engine with recovery, request logging and CORS.
func NewEngine(h *handlers.Handler, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log), middleware.CORS())
	SetupRoutes(r, h, middleware.AuthRequired(h.Tokens, h.Accounts))
	return r
}

func SetupRoutes(r *gin.Engine, h *handlers.Handler, authRequired gin.HandlerFunc) {
	r.GET("/health", h.Health)

	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		// Auth
		public.POST("/auth/register", h.Register)
		public.POST("/auth/login", h.Login)

		// Menu & stores (no auth needed)
		public.GET("/menu", h.ListMenu)
		public.GET("/menu/:name", h.GetMenuItem)
		public.GET("/stores", h.ListStores)
		public.GET("/stores/:id", h.GetStore)

		public.GET("/order-states", h.GetStateMachineInfo)
	}

	// ── Authenticated routes ───────────────────────────────────────
	auth := r.Group("/api")
	auth.Use(authRequired)
	{
		auth.GET("/profile", h.GetProfile)
		auth.PATCH("/profile", h.UpdateProfile)
		auth.PUT("/profile/password", h.ChangePassword)
		auth.GET("/users/:login", h.GetUser)

		auth.POST("/orders", h.PlaceOrder)
		auth.GET("/orders", h.GetOrderHistory)
		auth.GET("/orders/recent", h.GetRecentOrders)
		auth.GET("/orders/:id", h.GetOrderDetail)
		auth.PUT("/orders/:id/status", middleware.RequirePermission(policy.UpdateOrderStatus), h.UpdateOrderStatus)
	}

	// ── Staff routes ───────────────────────────────────────────────
	staff := r.Group("/api/staff")
	staff.Use(authRequired, middleware.RequirePermission(policy.ViewOthers))
	{
		staff.GET("/orders", h.ListOrders)
	}

	// ── Manager routes ─────────────────────────────────────────────
	manager := r.Group("/api/manager")
	manager.Use(authRequired)
	{
		manager.PUT("/orders/:id/status", middleware.RequirePermission(policy.OverrideOrderStatus), h.ForceOrderStatus)
		manager.POST("/menu", middleware.RequirePermission(policy.UpdateMenu), h.AddMenuItem)
		manager.PATCH("/menu/:name", middleware.RequirePermission(policy.UpdateMenu), h.UpdateMenuItem)
		manager.GET("/users", middleware.RequirePermission(policy.UpdateUsers), h.ListUsers)
		manager.PATCH("/users/:login", middleware.RequirePermission(policy.UpdateUsers), h.UpdateUser)
	}
}
