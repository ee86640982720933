package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/http/response"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/services"
)

type OAuthHandler struct {
	oauth        services.OAuthService
	integrations services.IntegrationService
}

func NewOAuthHandler(oauth services.OAuthService, integrations services.IntegrationService) *OAuthHandler {
	return &OAuthHandler{oauth: oauth, integrations: integrations}
}

// POST /api/oauth/initiate
// body: { "platform": "facebook", "account_name": "...", "account_description": "...", "organization": "..." }
func (h *OAuthHandler) Initiate(c *gin.Context) {
	var req services.InitiateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.oauth.Initiate(c.Request.Context(), req, currentUser(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, res)
}

// GET /api/oauth/callback/:platform
// Unauthenticated; the state parameter identifies the user.
func (h *OAuthHandler) Callback(c *gin.Context) {
	location := h.oauth.HandleCallback(c.Request.Context(), c.Param("platform"), services.CallbackParams{
		Code:             c.Query("code"),
		State:            c.Query("state"),
		Error:            c.Query("error"),
		ErrorDescription: c.Query("error_description"),
	})
	c.Header("Cache-Control", "no-store")
	c.Redirect(http.StatusFound, location)
}

// GET /api/oauth/sessions/:session/accounts
func (h *OAuthHandler) AvailableAccounts(c *gin.Context) {
	res, err := h.integrations.AvailableAccounts(c.Request.Context(), c.Param("session"), currentUser(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, res)
}

// POST /api/oauth/sessions/:session/connect
// body: { "account_index": 0 }
func (h *OAuthHandler) Connect(c *gin.Context) {
	var req struct {
		AccountIndex *int `json:"account_index"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.AccountIndex == nil {
		badRequest(c, errors.New("account_index is required"))
		return
	}
	in, err := h.integrations.SelectAccount(c.Request.Context(), c.Param("session"), *req.AccountIndex, currentUser(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"integration": in})
}
