package studiohttp

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/uniedit/reelgen/internal/domain/pool"
	"github.com/uniedit/reelgen/internal/domain/studio"
	"github.com/uniedit/reelgen/internal/port/outbound"
	apperrors "github.com/uniedit/reelgen/internal/utils/errors"
)

// handleStudioError maps domain errors to HTTP responses.
func handleStudioError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, studio.ErrProjectNotFound):
		respondError(c, apperrors.NotFound("project"))
	case errors.Is(err, studio.ErrRunNotFound):
		respondError(c, apperrors.NotFound("generation run"))
	case errors.Is(err, pool.ErrSetNotFound):
		respondError(c, apperrors.NotFound("media set"))
	case errors.Is(err, pool.ErrRefNotFound):
		respondError(c, apperrors.NotFound("media item"))
	case errors.Is(err, studio.ErrRunActive):
		respondError(c, apperrors.Conflict(err.Error()))
	case errors.Is(err, studio.ErrNothingToRetry):
		respondError(c, apperrors.Conflict(err.Error()))
	case errors.Is(err, studio.ErrProviderNotFound):
		respondError(c, apperrors.BadRequest(err.Error()))
	case errors.Is(err, studio.ErrInvalidInput),
		errors.Is(err, studio.ErrSegmentOutOfRange),
		errors.Is(err, studio.ErrNoAudio),
		errors.Is(err, studio.ErrEmptyTimeline):
		respondError(c, apperrors.ValidationError(err.Error()))
	case errors.Is(err, outbound.ErrProviderUnavailable):
		respondError(c, apperrors.ServiceUnavailable(err.Error()))
	case errors.Is(err, context.DeadlineExceeded):
		respondError(c, apperrors.Timeout(""))
	default:
		_ = c.Error(err)
		respondError(c, apperrors.Internal("internal server error", err))
	}
}

func respondError(c *gin.Context, appErr *apperrors.AppError) {
	c.AbortWithStatusJSON(appErr.StatusCode, appErr.ToResponse())
}

// bindError reports request binding failures. Validation failures list the
// offending fields and the rule each one broke.
func bindError(err error) *apperrors.AppError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.BadRequest(err.Error())
	}
	fields := make(map[string]any, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return apperrors.BadRequest("invalid request").WithDetails(map[string]any{"fields": fields})
}
