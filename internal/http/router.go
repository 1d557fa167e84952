package http

import (
	"log/slog"
	"time"

	"github.com/docaidkit/medkit/internal/auth"
	"github.com/docaidkit/medkit/internal/config"
	"github.com/docaidkit/medkit/internal/domain/account"
	"github.com/docaidkit/medkit/internal/http/handlers"
	"github.com/docaidkit/medkit/internal/http/middlewares"
	"github.com/docaidkit/medkit/internal/observability"
	"github.com/docaidkit/medkit/internal/prefs"
	"github.com/docaidkit/medkit/internal/proxy"
	"github.com/docaidkit/medkit/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type Deps struct {
	Cfg      config.Config
	Auth     *auth.Service
	Users    *store.UsersStore
	Prefs    *prefs.Store
	Chat     *proxy.ChatRelay
	Drugs    *proxy.DrugsClient
	Imaging  proxy.Predictor
	Prom     *observability.Prom
	Registry *prometheus.Registry
	Ping     func() error
}

func NewRouter(log *slog.Logger, deps Deps) *gin.Engine {
	if deps.Cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(deps.Cfg.AllowedOrigins))
	r.Use(otelgin.Middleware("medkit-api"))

	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}

	// health + metrics

	h := handlers.NewHealthHandler(deps.Ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if deps.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

	// wire up handlers

	authHandler := handlers.NewAuthHandler(deps.Auth)
	profileHandler := handlers.NewProfileHandler(deps.Auth)
	adminHandler := handlers.NewAdminUsersHandler(deps.Users)
	prefsHandler := handlers.NewPrefsHandler(deps.Prefs)
	toolsHandler := handlers.NewToolsHandler(deps.Chat, deps.Drugs, deps.Imaging)

	gate := middlewares.NewSessionGate(deps.Auth)
	loginLimiter := middlewares.NewRateLimiter(10, time.Minute)

	jsonBody := []gin.HandlerFunc{
		middlewares.RequireJSON(),
		middlewares.MaxBodyBytes(1 << 20),
	}

	// auth
	authGroup := r.Group("/auth", jsonBody...)
	authGroup.POST("/login", loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Login)
	authGroup.POST("/logout", authHandler.Logout)
	authGroup.GET("/session", authHandler.Session)

	// preferences
	prefsGroup := r.Group("/prefs", jsonBody...)
	prefsGroup.GET("", prefsHandler.Get)
	prefsGroup.PUT("", prefsHandler.Update)

	// profile self-service: any authenticated user
	profileGroup := r.Group("/profile", jsonBody...)
	profileGroup.Use(gate.RequireAuth(""))
	profileGroup.GET("", profileHandler.Get)
	profileGroup.PUT("/name", profileHandler.UpdateName)
	profileGroup.PUT("/password", profileHandler.UpdatePassword)

	// administrative user management
	adminGroup := r.Group("/admin/users", jsonBody...)
	adminGroup.Use(gate.RequireAuth(account.RoleAdmin))
	adminGroup.GET("", adminHandler.List)
	adminGroup.POST("", adminHandler.Create)
	adminGroup.PUT("/:id/status", adminHandler.UpdateStatus)
	adminGroup.PUT("/:id/password", adminHandler.ResetPassword)
	adminGroup.DELETE("/:id", adminHandler.Delete)

	// public tools
	r.POST("/tools/chat", middlewares.RequireJSON(), middlewares.MaxBodyBytes(64<<10), toolsHandler.Chat)
	r.POST("/tools/drugs/search", middlewares.RequireJSON(), middlewares.MaxBodyBytes(64<<10), toolsHandler.DrugSearch)
	r.GET("/tools/drugs/description", toolsHandler.DrugDescription)

	// doctor tools (admin passes via elevation)
	doctorTools := r.Group("/tools")
	doctorTools.Use(gate.RequireAuth(account.RoleDoctor))
	doctorTools.POST("/drugs/interaction", middlewares.RequireJSON(), middlewares.MaxBodyBytes(64<<10), toolsHandler.DrugInteraction)
	doctorTools.POST("/imaging/:tool", middlewares.MaxBodyBytes(12<<20), toolsHandler.ImagingPredict)

	log.Debug("router initialized", "env", deps.Cfg.Env)

	return r
}
