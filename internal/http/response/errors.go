package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/nutriplan-backend/internal/modules/exchange"
	apperrors "github.com/yungbote/nutriplan-backend/internal/pkg/errors"
	"github.com/yungbote/nutriplan-backend/internal/platform/apierr"
)

// FromError maps service errors onto HTTP status and error codes. fallback
// is the code used for anything unrecognised.
func FromError(err error, fallback string) *apierr.Error {
	if err == nil {
		return nil
	}
	if ae, ok := apierr.As(err); ok {
		return ae
	}
	switch {
	case errors.Is(err, exchange.ErrInvalidTargets):
		return apierr.New(http.StatusBadRequest, "invalid_targets", err)
	case errors.Is(err, apperrors.ErrInvalidArgument):
		return apierr.New(http.StatusBadRequest, "invalid_request", err)
	case errors.Is(err, exchange.ErrNoProfileVersion):
		return apierr.New(http.StatusNotFound, "no_profile_version", err)
	case errors.Is(err, apperrors.ErrNotFound):
		return apierr.New(http.StatusNotFound, "not_found", err)
	case errors.Is(err, exchange.ErrDataIntegrity):
		return apierr.New(http.StatusUnprocessableEntity, "data_integrity", err)
	default:
		return apierr.New(http.StatusInternalServerError, fallback, err)
	}
}

// RespondErr renders err with the status FromError picks. Internal error
// details are not echoed to the client.
func RespondErr(c *gin.Context, err error, fallback string) {
	ae := FromError(err, fallback)
	if ae == nil {
		ae = apierr.New(http.StatusInternalServerError, fallback, nil)
	}
	_ = c.Error(err)
	status := ae.HTTPStatus()
	if status >= http.StatusInternalServerError {
		RespondError(c, status, ae.Code, errors.New(http.StatusText(status)))
		return
	}
	RespondError(c, status, ae.Code, ae)
}
