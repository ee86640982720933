package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/Abhishek-Hiremath49/Ads-Manager/internal/http/handlers"
	httpMW "github.com/Abhishek-Hiremath49/Ads-Manager/internal/http/middleware"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowedOrigins []string
	AuthMiddleware *httpMW.AuthMiddleware

	OAuthHandler       *httpH.OAuthHandler
	IntegrationHandler *httpH.IntegrationHandler
	PublicationHandler *httpH.PublicationHandler
	HealthHandler      *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(log))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// The platform redirects the browser here without our bearer token.
		if cfg.OAuthHandler != nil {
			api.GET("/oauth/callback/:platform", cfg.OAuthHandler.Callback)
		}
	}

	protected := api.Group("")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}
	{
		if cfg.OAuthHandler != nil {
			protected.POST("/oauth/initiate", cfg.OAuthHandler.Initiate)
			protected.GET("/oauth/sessions/:session/accounts", cfg.OAuthHandler.AvailableAccounts)
			protected.POST("/oauth/sessions/:session/connect", cfg.OAuthHandler.Connect)
		}

		if cfg.IntegrationHandler != nil {
			h := cfg.IntegrationHandler
			protected.GET("/integrations/:id", h.Get)
			protected.POST("/integrations/:id/disconnect", h.Disconnect)
			protected.POST("/integrations/:id/validate", h.Validate)
			protected.POST("/integrations/:id/sync-campaigns", h.SyncCampaigns)
			protected.POST("/integrations/:id/refresh-token", h.RefreshToken)
			protected.GET("/integrations/:id/token-status", h.TokenStatus)
			protected.POST("/integrations/:id/account-info", h.RefreshAccountInfo)
			protected.GET("/integrations/:id/pages", h.Pages)
			protected.GET("/integrations/:id/analytics/summary", h.AnalyticsSummary)
			protected.POST("/integrations/:id/analytics/fetch", h.FetchAnalytics)
		}

		if cfg.PublicationHandler != nil {
			h := cfg.PublicationHandler
			protected.POST("/campaigns/:id/publish", h.PublishCampaign)
			protected.POST("/campaigns/:id/launch", h.LaunchCampaign)
			protected.POST("/campaigns/:id/transition", h.TransitionCampaign)
			protected.POST("/ad-sets/:id/publish", h.PublishAdSet)
			protected.POST("/creatives/:id/upload-media", h.UploadCreativeMedia)
			protected.POST("/creatives/:id/publish", h.PublishCreative)
			protected.POST("/ads/:id/publish", h.PublishAd)
		}
	}

	return r
}
