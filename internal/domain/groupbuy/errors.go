package groupbuy

import "errors"

// Terminal, user-facing failures. Each maps to exactly one API status.
var (
	ErrNotFound                 = errors.New("not found")
	ErrIncompleteProfile        = errors.New("update your profile before joining a group purchase")
	ErrCampaignFull             = errors.New("the group purchase is already full")
	ErrCampaignEnded            = errors.New("the group purchase has already ended")
	ErrInvalidQuantity          = errors.New("check the requested quantity")
	ErrQuantityExceedsRemaining = errors.New("requested quantity exceeds the remaining quantity")
	ErrInvalidSchedule          = errors.New("invalid schedule")
	ErrValidation               = errors.New("invalid campaign")
	ErrNotAuthor                = errors.New("only the author can modify this group purchase")
)
