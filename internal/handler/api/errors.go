package api

import (
	"errors"

	"TechMart/internal/domain/models"
	xhttp "TechMart/pkg/http"
)

// toAppError maps domain sentinels onto HTTP errors. Anything unrecognised
// becomes a 500 with the cause attached for logging.
func toAppError(err error) *xhttp.AppError {
	var appErr *xhttp.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, models.ErrNotFound):
		return xhttp.NotFoundError(err.Error()).WithError(err)
	case errors.Is(err, models.ErrInvalidInput):
		return xhttp.BadRequestError(err.Error()).WithError(err)
	case errors.Is(err, models.ErrSuggestionPending),
		errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrBusy):
		return xhttp.ConflictError(err.Error()).WithError(err)
	case errors.Is(err, models.ErrStockSufficient),
		errors.Is(err, models.ErrInsufficientStock):
		return xhttp.UnprocessableError(err.Error()).WithError(err)
	default:
		return xhttp.InternalError("Something went wrong").WithError(err)
	}
}
