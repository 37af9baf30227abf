package http

import (
	"context"

	"github.com/RobertLogos32/bto-prova/internal/interfaces/http/handlers"
	"github.com/RobertLogos32/bto-prova/internal/interfaces/http/middleware"
)

func (c *Container) initRouter() {
	checks := map[string]handlers.HealthCheck{
		"database": func(ctx context.Context) error {
			sqlDB, err := c.db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if c.redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return c.redis.Ping(ctx).Err()
		}
	}

	deps := RouterDeps{
		Health: handlers.NewHealthHandler(checks, c.log.With("component", "http.health")),
		Logger: c.log.With("component", "http"),
	}

	if c.cfg.AdminAPI.Enabled {
		var announcer handlers.DecisionAnnouncer
		if c.announcer != nil {
			announcer = c.announcer
		}
		deps.Admin = handlers.NewAdminHandler(handlers.AdminUseCases{
			ListPending:        c.ucs.ListPending,
			DecideClient:       c.ucs.DecideClient,
			ClientOverview:     c.ucs.ClientOverview,
			DenyRequest:        c.ucs.DecideRequest,
			ApproveAndAllocate: c.ucs.ApproveAndAllocate,
			RetryAllocation:    c.ucs.RetryAllocation,
			ListUnallocated:    c.ucs.ListUnallocated,
			GetBalance:         c.ucs.GetBalance,
			AwaitCode:          c.ucs.AwaitCode,
		}, announcer, c.log.With("component", "http.admin"))
		deps.AdminAuth = middleware.NewAdminAuthMiddleware(c.cfg.AdminAPI.Token, c.ucs.Operators, c.log)
		deps.AllowedOrigins = c.cfg.AdminAPI.AllowedOrigins
	}

	c.router = NewRouter(deps)
	c.router.SetupRoutes()
}
