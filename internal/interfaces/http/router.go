package http

import (
	"github.com/gin-gonic/gin"

	"github.com/RobertLogos32/bto-prova/internal/infrastructure/metrics"
	"github.com/RobertLogos32/bto-prova/internal/interfaces/http/handlers"
	"github.com/RobertLogos32/bto-prova/internal/interfaces/http/middleware"
	"github.com/RobertLogos32/bto-prova/internal/shared/logger"
)

// RouterDeps holds what the router mounts. Admin may be nil, in which case
// /api/admin is not served.
type RouterDeps struct {
	Health         *handlers.HealthHandler
	Admin          *handlers.AdminHandler
	AdminAuth      *middleware.AdminAuthMiddleware
	AllowedOrigins []string
	Logger         logger.Interface
}

// Router represents the HTTP router configuration
type Router struct {
	engine *gin.Engine
	deps   RouterDeps
}

func NewRouter(deps RouterDeps) *Router {
	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.Logger(deps.Logger),
		middleware.Recovery(deps.Logger),
	)
	return &Router{engine: engine, deps: deps}
}

// SetupRoutes mounts health, metrics and, when configured, the admin API.
func (r *Router) SetupRoutes() {
	r.engine.GET("/health", r.deps.Health.Health)
	r.engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	if r.deps.Admin == nil || r.deps.AdminAuth == nil {
		return
	}

	h := r.deps.Admin
	admin := r.engine.Group("/api/admin")
	admin.Use(
		middleware.SecurityHeaders(),
		middleware.CORS(r.deps.AllowedOrigins),
		r.deps.AdminAuth.RequireOperator(),
	)
	{
		clients := admin.Group("/clients")
		clients.GET("/pending", h.ListPendingClients)
		clients.GET("/:platform_id", h.GetClient)
		clients.POST("/:platform_id/decision", h.DecideClient)

		requests := admin.Group("/requests")
		requests.GET("/pending", h.ListPendingRequests)
		requests.GET("/unallocated", h.ListUnallocatedRequests)
		requests.POST("/:sid/decision", h.DecideRequest)
		requests.POST("/:sid/allocate", h.AllocateRequest)

		admin.POST("/allocations/:sid/await", h.AwaitCode)
		admin.GET("/provider/balance", h.GetProviderBalance)
	}
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
