package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/core/domain"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/core/port"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/infra/config"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/transport/http/handlers"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/transport/http/middleware"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth         *usecase.AuthService
	Registration *usecase.RegistrationService
	Reset        *usecase.PasswordResetService
	Sessions     *usecase.SessionService
	OAuth        *usecase.OAuthService
	Users        *usecase.UserService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config   *config.AppConfig
	Logger   *zap.Logger
	Services ServiceSet
	Limiters handlers.FlowLimiters
	Store    port.BlobStore
	Metrics  *middleware.HTTPMetrics
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	cookies := handlers.CookieWriter{
		Name:   deps.Config.Cookie.Name,
		Domain: deps.Config.Cookie.Domain,
		Secure: deps.Config.Production(),
	}

	healthHandler := handlers.NewHealthHandler(deps.Store, deps.Config.App.Name, deps.Config.App.Env)
	healthHandler.RegisterRoutes(r)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		authGroup := api.Group("/auth")

		authHandler := handlers.NewAuthHandler(
			deps.Services.Auth,
			deps.Services.Registration,
			deps.Services.Reset,
			deps.Services.Sessions,
			deps.Limiters,
			cookies,
		)
		authHandler.RegisterRoutes(authGroup)

		if deps.Services.OAuth != nil {
			oauthHandler := handlers.NewOAuthHandler(deps.Services.OAuth, deps.Services.Sessions, cookies)
			oauthHandler.RegisterRoutes(authGroup)
		}

		adminGroup := api.Group("/admin",
			middleware.RequireSession(deps.Services.Sessions, deps.Config.Cookie.Name),
			middleware.RequireRole(domain.RoleAdmin),
		)
		adminHandler := handlers.NewAdminHandler(deps.Services.Users)
		adminHandler.RegisterRoutes(adminGroup)
	}

	return r
}
