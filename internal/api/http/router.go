package http

import (
	"github.com/adimlabs/workspace-hub/internal/api/http/handler"
	"github.com/adimlabs/workspace-hub/internal/api/http/middleware"
	"github.com/adimlabs/workspace-hub/internal/auth"
	"github.com/adimlabs/workspace-hub/internal/metrics"
	"github.com/adimlabs/workspace-hub/internal/otp"
	"github.com/adimlabs/workspace-hub/internal/provlog"
	"github.com/adimlabs/workspace-hub/internal/workspaces"
	"github.com/gin-gonic/gin"
)

type Services struct {
	Auth       *auth.Service
	Workspaces *workspaces.Service
	Otps       *otp.Service
	Logs       *provlog.Service
	Metrics    *metrics.Metrics
}

func SetupRoute(engine *gin.Engine, cfg *Config, jwtSecret string, srvs *Services) {
	engine.Use(middleware.RequestLogger())

	healthHandler := handler.NewHealthHandler()
	engine.GET("/health", healthHandler.Check)
	engine.GET("/metrics", gin.WrapH(srvs.Metrics.Handler()))

	authHandler := handler.NewAuthHandler(srvs.Auth)
	workspaceHandler := handler.NewWorkspaceHandler(srvs.Workspaces, srvs.Otps, srvs.Logs)
	otpHandler := handler.NewOTPHandler(srvs.Otps)
	adminHandler := handler.NewAdminHandler(srvs.Workspaces, srvs.Logs)

	api := engine.Group("/api")
	{
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)

		// The code itself is the credential here, so no token is required.
		api.POST("/otps/validate", otpHandler.Validate)

		authorized := api.Group("")
		authorized.Use(middleware.JWTAuth(jwtSecret))
		{
			authorized.POST("/workspaces", workspaceHandler.Create)
			authorized.GET("/workspaces", workspaceHandler.List)
			authorized.GET("/workspaces/:id", workspaceHandler.Get)
			authorized.POST("/workspaces/:id/transition", workspaceHandler.Transition)
			authorized.POST("/workspaces/:id/generate_otp", workspaceHandler.GenerateOTP)
			authorized.GET("/workspaces/:id/otps", workspaceHandler.ListOTPs)
			authorized.GET("/workspaces/:id/logs", workspaceHandler.ListLogs)
			authorized.DELETE("/otps/:id", otpHandler.Revoke)
		}

		admin := api.Group("/admin")
		admin.Use(middleware.APIKeyAuth(cfg.AdminAPIKey))
		{
			admin.POST("/workspaces/:id/logs", adminHandler.AppendLog)
			admin.PUT("/workspaces/:id/endpoints", adminHandler.UpdateEndpoints)
			admin.POST("/workspaces/:id/transition", adminHandler.Transition)
		}
	}
}
