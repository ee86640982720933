package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/domain/ads"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/http/response"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/services"
)

// PublicationHandler exposes the publish stages and the campaign lifecycle.
type PublicationHandler struct {
	publication services.PublicationService
}

func NewPublicationHandler(publication services.PublicationService) *PublicationHandler {
	return &PublicationHandler{publication: publication}
}

// POST /api/campaigns/:id/publish
func (h *PublicationHandler) PublishCampaign(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	out, err := h.publication.CreateCampaign(c.Request.Context(), id, currentUser(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"campaign": out})
}

// POST /api/campaigns/:id/launch
// A launch whose campaign stage fails is still a 200; the result carries the
// Failed status and the failure list.
func (h *PublicationHandler) LaunchCampaign(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	res, err := h.publication.LaunchCampaign(c.Request.Context(), id, currentUser(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	if res.Failures == nil {
		res.Failures = []string{}
	}
	response.RespondOK(c, res)
}

// POST /api/campaigns/:id/transition
// body: { "status": "Scheduled" }
func (h *PublicationHandler) TransitionCampaign(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	to, err := ads.ParseCampaignStatus(req.Status)
	if err != nil {
		badRequest(c, err)
		return
	}
	var out *ads.Campaign
	if to == ads.CampaignCancelled {
		out, err = h.publication.CancelCampaign(c.Request.Context(), id, currentUser(c))
	} else {
		out, err = h.publication.TransitionCampaign(c.Request.Context(), id, to, currentUser(c))
	}
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"campaign": out})
}

// POST /api/ad-sets/:id/publish
func (h *PublicationHandler) PublishAdSet(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	out, err := h.publication.CreateAdSet(c.Request.Context(), id, currentUser(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ad_set": out})
}

// POST /api/creatives/:id/upload-media
func (h *PublicationHandler) UploadCreativeMedia(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	out, err := h.publication.UploadMedia(c.Request.Context(), id, currentUser(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"creative": out})
}

// POST /api/creatives/:id/publish
func (h *PublicationHandler) PublishCreative(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	out, err := h.publication.CreateCreative(c.Request.Context(), id, currentUser(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"creative": out})
}

// POST /api/ads/:id/publish?stage=ad
// Without stage=ad the creative is published first when needed.
func (h *PublicationHandler) PublishAd(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var (
		out *ads.Ad
		err error
	)
	switch stage := c.DefaultQuery("stage", "post"); stage {
	case "post":
		out, err = h.publication.PublishAdPost(c.Request.Context(), id, currentUser(c))
	case "ad":
		out, err = h.publication.CreateAd(c.Request.Context(), id, currentUser(c))
	default:
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", fmt.Errorf("unknown stage %q", stage))
		return
	}
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ad": out})
}
