package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/data/repos"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/domain/ads"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/http/response"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/apierr"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/ctxutil"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/media"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/services"
)

var (
	errBadID   = errors.New("id must be a uuid")
	errBadDays = errors.New("days must be between 1 and 365")
)

// toAPIError maps service and domain errors onto status codes.
func toAPIError(err error) *apierr.Error {
	if ae, ok := apierr.As(err); ok {
		return ae
	}
	var re *services.RemoteError
	switch {
	case errors.As(err, &re):
		return apierr.Unprocessable("remote_error", errors.New(re.Message))
	case errors.Is(err, services.ErrRemoteUnavailable):
		return apierr.BadGateway("remote_unavailable", services.ErrRemoteUnavailable)
	case errors.Is(err, ads.ErrUnsupportedPlatform):
		return apierr.BadRequest("unsupported_platform", err)
	case errors.Is(err, ads.ErrBudgetTooLow):
		return apierr.BadRequest("budget_too_low", err)
	case errors.Is(err, ads.ErrInvalidTransition):
		return apierr.BadRequest("invalid_transition", err)
	case errors.Is(err, services.ErrSessionInvalid):
		return apierr.BadRequest("session_invalid", services.ErrSessionInvalid)
	case errors.Is(err, services.ErrInvalidArgument),
		errors.Is(err, services.ErrNoImage),
		errors.Is(err, services.ErrNoPage),
		errors.Is(err, services.ErrParentMissing),
		errors.Is(err, ads.ErrNegativeAmount),
		errors.Is(err, ads.ErrInvalidPageLabel),
		errors.Is(err, ads.ErrInvalidAccountID),
		errors.Is(err, media.ErrTooLarge),
		errors.Is(err, media.ErrInvalidRef),
		errors.Is(err, media.ErrNotFound):
		return apierr.BadRequest("invalid_argument", err)
	case errors.Is(err, services.ErrForbidden):
		return apierr.Forbidden(err)
	case errors.Is(err, services.ErrNotFound), errors.Is(err, repos.ErrNotFound):
		return apierr.NotFound(err)
	case errors.Is(err, services.ErrNotConnected):
		return apierr.Conflict("not_connected", err)
	case repos.IsUniqueViolation(err):
		return apierr.Conflict("duplicate_account", errors.New("ad account is already connected"))
	case errors.Is(err, services.ErrLimitReached):
		return apierr.New(http.StatusTooManyRequests, "limit_reached", err)
	case errors.Is(err, services.ErrNotConfigured):
		return apierr.New(http.StatusServiceUnavailable, "not_configured", err)
	}
	return apierr.Internal(err)
}

func respondErr(c *gin.Context, err error) {
	response.RespondAPIError(c, toAPIError(err))
}

func badRequest(c *gin.Context, err error) {
	response.RespondError(c, http.StatusBadRequest, "invalid_argument", err)
}

func currentUser(c *gin.Context) string {
	return ctxutil.UserID(c.Request.Context())
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		badRequest(c, errBadID)
		return uuid.Nil, false
	}
	return id, true
}
