package app

import (
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/http"
	httpH "github.com/Abhishek-Hiremath49/Ads-Manager/internal/http/handlers"
	httpMW "github.com/Abhishek-Hiremath49/Ads-Manager/internal/http/middleware"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health      *httpH.HealthHandler
	OAuth       *httpH.OAuthHandler
	Integration *httpH.IntegrationHandler
	Publication *httpH.PublicationHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:      httpH.NewHealthHandler(),
		OAuth:       httpH.NewOAuthHandler(services.OAuth, services.Integrations),
		Integration: httpH.NewIntegrationHandler(services.Integrations, services.Tokens, services.Analytics),
		Publication: httpH.NewPublicationHandler(services.Publication),
	}
}

func wireMiddleware(log *logger.Logger, cfg Config) Middleware {
	log.Info("Wiring middleware...")
	if cfg.JWTSecretKey == "" {
		log.Warn("JWT_SECRET_KEY not set; every authenticated route will answer 401")
	}
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, cfg.JWTSecretKey),
	}
}

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware) *http.Server {
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return http.NewServer(http.RouterConfig{
		Log:                log,
		ServiceName:        serviceName,
		AllowedOrigins:     cfg.AllowedOrigins,
		AuthMiddleware:     middleware.Auth,
		OAuthHandler:       handlers.OAuth,
		IntegrationHandler: handlers.Integration,
		PublicationHandler: handlers.Publication,
		HealthHandler:      handlers.Health,
	})
}
