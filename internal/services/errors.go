package services

import (
	"errors"
	"net/http"

	"github.com/yungbote/groupbuy-backend/internal/domain/groupbuy"
	"github.com/yungbote/groupbuy-backend/internal/platform/apierr"
)

var errInternal = errors.New("something went wrong, please try again")

// APIError translates a service failure into the status and code the API
// reports. Anything not recognised is an opaque 500.
func APIError(err error) *apierr.Error {
	if err == nil {
		return nil
	}
	if ae := apierr.From(err); ae != nil {
		return ae
	}
	switch {
	case errors.Is(err, groupbuy.ErrNotFound):
		return apierr.New(http.StatusNotFound, "not_found", err)
	case errors.Is(err, groupbuy.ErrIncompleteProfile):
		return apierr.New(http.StatusForbidden, "incomplete_profile", groupbuy.ErrIncompleteProfile)
	case errors.Is(err, groupbuy.ErrNotAuthor):
		return apierr.New(http.StatusForbidden, "not_author", groupbuy.ErrNotAuthor)
	case errors.Is(err, groupbuy.ErrCampaignFull):
		return apierr.New(http.StatusMethodNotAllowed, "campaign_full", groupbuy.ErrCampaignFull)
	case errors.Is(err, groupbuy.ErrCampaignEnded):
		return apierr.New(http.StatusMethodNotAllowed, "campaign_ended", groupbuy.ErrCampaignEnded)
	case errors.Is(err, groupbuy.ErrInvalidQuantity):
		return apierr.New(http.StatusBadRequest, "invalid_quantity", groupbuy.ErrInvalidQuantity)
	case errors.Is(err, groupbuy.ErrQuantityExceedsRemaining):
		return apierr.New(http.StatusNotAcceptable, "quantity_exceeds_remaining", groupbuy.ErrQuantityExceedsRemaining)
	case errors.Is(err, groupbuy.ErrInvalidSchedule):
		return apierr.New(http.StatusBadRequest, "invalid_schedule", err)
	case errors.Is(err, groupbuy.ErrValidation):
		return apierr.New(http.StatusBadRequest, "validation_error", err)
	default:
		return apierr.New(http.StatusInternalServerError, "internal", errInternal)
	}
}
