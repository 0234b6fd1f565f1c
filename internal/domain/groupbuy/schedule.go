package groupbuy

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Schedule is the time window an author proposes for a campaign.
type Schedule struct {
	OpenTime    time.Time
	MeetingTime time.Time
	CloseTime   *time.Time
}

// ValidateNewSchedule enforces now <= open < meeting and, when a close time
// is set, open <= close <= meeting.
func ValidateNewSchedule(s Schedule, now time.Time) error {
	if s.OpenTime.Before(now) {
		return fmt.Errorf("%w: open time must not be in the past", ErrInvalidSchedule)
	}
	return validateOrdering(s)
}

// ValidateScheduleUpdate applies the ordering rules to an edit. The open time
// may already be in the past as long as the edit leaves it untouched; a close
// time, when set, must still lie ahead.
func ValidateScheduleUpdate(prev, next Schedule, now time.Time) error {
	if !next.OpenTime.Equal(prev.OpenTime) && next.OpenTime.Before(now) {
		return fmt.Errorf("%w: open time must not be in the past", ErrInvalidSchedule)
	}
	if next.CloseTime != nil && next.CloseTime.Before(now) {
		return fmt.Errorf("%w: close time must not be in the past", ErrInvalidSchedule)
	}
	if next.CloseTime == nil && next.MeetingTime.Before(now) {
		return fmt.Errorf("%w: meeting time must not be in the past", ErrInvalidSchedule)
	}
	return validateOrdering(next)
}

func validateOrdering(s Schedule) error {
	if !s.OpenTime.Before(s.MeetingTime) {
		return fmt.Errorf("%w: meeting time must be after the open time", ErrInvalidSchedule)
	}
	if s.CloseTime == nil {
		return nil
	}
	if s.CloseTime.Before(s.OpenTime) {
		return fmt.Errorf("%w: close time must not be before the open time", ErrInvalidSchedule)
	}
	if s.CloseTime.After(s.MeetingTime) {
		return fmt.Errorf("%w: meeting time must not be before the close time", ErrInvalidSchedule)
	}
	return nil
}

// Terms are the author-editable, non-schedule fields of a campaign.
type Terms struct {
	Title                 string
	Description           string
	ProductName           string
	RequestedProductCount int
	UnitPrice             decimal.Decimal
	ExternalLink          string
	MeetingLocation       string
	PersonLimit           int
	EndChoice             EndChoice
}

func ValidateTerms(t Terms) error {
	switch {
	case strings.TrimSpace(t.Title) == "":
		return fmt.Errorf("%w: title is required", ErrValidation)
	case strings.TrimSpace(t.ProductName) == "":
		return fmt.Errorf("%w: product name is required", ErrValidation)
	case t.PersonLimit < 1:
		return fmt.Errorf("%w: person limit must be at least 1", ErrValidation)
	case t.RequestedProductCount < 0:
		return fmt.Errorf("%w: requested product count must not be negative", ErrValidation)
	case t.UnitPrice.IsNegative():
		return fmt.Errorf("%w: unit price must not be negative", ErrValidation)
	case !t.EndChoice.Valid():
		return fmt.Errorf("%w: unknown end choice %q", ErrValidation, t.EndChoice)
	}
	return nil
}

// Apply copies terms and schedule onto c, normalizing times to UTC.
func (c *Campaign) Apply(t Terms, s Schedule) {
	c.Title = strings.TrimSpace(t.Title)
	c.Description = t.Description
	c.ProductName = strings.TrimSpace(t.ProductName)
	c.RequestedProductCount = t.RequestedProductCount
	c.UnitPrice = t.UnitPrice
	c.ExternalLink = strings.TrimSpace(t.ExternalLink)
	c.MeetingLocation = strings.TrimSpace(t.MeetingLocation)
	c.PersonLimit = t.PersonLimit
	c.EndChoice = t.EndChoice
	c.OpenTime = NormalizeTime(s.OpenTime)
	c.MeetingTime = NormalizeTime(s.MeetingTime)
	if s.CloseTime != nil {
		ct := NormalizeTime(*s.CloseTime)
		c.CloseTime = &ct
	} else {
		c.CloseTime = nil
	}
}

// Schedule returns the campaign's current window.
func (c *Campaign) Schedule() Schedule {
	return Schedule{OpenTime: c.OpenTime, MeetingTime: c.MeetingTime, CloseTime: c.CloseTime}
}

// NormalizeTime stores instants as UTC at microsecond precision, which is
// what postgres keeps.
func NormalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
