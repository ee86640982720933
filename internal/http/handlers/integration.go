package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/http/response"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/services"
)

type IntegrationHandler struct {
	integrations services.IntegrationService
	tokens       services.TokenService
	analytics    services.AnalyticsService
}

func NewIntegrationHandler(
	integrations services.IntegrationService,
	tokens services.TokenService,
	analytics services.AnalyticsService,
) *IntegrationHandler {
	return &IntegrationHandler{integrations: integrations, tokens: tokens, analytics: analytics}
}

// GET /api/integrations/:id
func (h *IntegrationHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	in, err := h.integrations.Get(c.Request.Context(), id, currentUser(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"integration": in})
}

// POST /api/integrations/:id/disconnect
func (h *IntegrationHandler) Disconnect(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.integrations.Disconnect(c.Request.Context(), id, currentUser(c)); err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true, "message": "Integration disconnected successfully"})
}

// POST /api/integrations/:id/validate
func (h *IntegrationHandler) Validate(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	res, err := h.integrations.ValidateCredentials(c.Request.Context(), id, currentUser(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, res)
}

// POST /api/integrations/:id/sync-campaigns
func (h *IntegrationHandler) SyncCampaigns(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	res, err := h.integrations.SyncCampaigns(c.Request.Context(), id, currentUser(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, res)
}

// POST /api/integrations/:id/refresh-token
func (h *IntegrationHandler) RefreshToken(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	in, err := h.tokens.RefreshToken(c.Request.Context(), id, currentUser(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"integration": in})
}

// GET /api/integrations/:id/token-status
func (h *IntegrationHandler) TokenStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	res, err := h.tokens.CheckValidity(c.Request.Context(), id, currentUser(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, res)
}

// POST /api/integrations/:id/account-info
func (h *IntegrationHandler) RefreshAccountInfo(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	in, err := h.integrations.RefreshAccountInfo(c.Request.Context(), id, currentUser(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"integration": in})
}

// GET /api/integrations/:id/pages?q=
func (h *IntegrationHandler) Pages(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	pages, err := h.integrations.ListPages(c.Request.Context(), id, c.Query("q"), currentUser(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	if pages == nil {
		pages = []services.PageOption{}
	}
	response.RespondOK(c, gin.H{"pages": pages})
}

// GET /api/integrations/:id/analytics/summary?days=30
func (h *IntegrationHandler) AnalyticsSummary(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	days := services.DefaultSummaryDays
	if raw := strings.TrimSpace(c.Query("days")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 365 {
			badRequest(c, errBadDays)
			return
		}
		days = n
	}
	res, err := h.analytics.Summary(c.Request.Context(), id, days, currentUser(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, res)
}

// POST /api/integrations/:id/analytics/fetch
func (h *IntegrationHandler) FetchAnalytics(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	row, err := h.analytics.FetchAccountAnalytics(c.Request.Context(), id, currentUser(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"analytics": row})
}
