package groupbuy

import "time"

// Status is the derived, never persisted, presentation state of a campaign.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusEnded      Status = "ended"
)

// Label is the copy shown by the community UI.
func (s Status) Label() string {
	switch s {
	case StatusNotStarted:
		return "시작 전"
	case StatusInProgress:
		return "진행 중"
	default:
		return "종료"
	}
}

// CapacitySnapshot is the ledger aggregate the evaluator works from.
// Neither field includes the campaign author's row.
type CapacitySnapshot struct {
	ActiveParticipants int64
	ActiveQuantity     int64
}

// DeriveStatus reports the display status at now. A campaign whose close
// time has passed reads as ended even before the closer sweep persists it.
func DeriveStatus(c *Campaign, now time.Time) Status {
	switch {
	case c.IsEnded:
		return StatusEnded
	case PastCloseTime(c, now):
		return StatusEnded
	case c.OpenTime.After(now):
		return StatusNotStarted
	default:
		return StatusInProgress
	}
}

func PastCloseTime(c *Campaign, now time.Time) bool {
	return c.CloseTime != nil && c.CloseTime.Before(now)
}

// RemainingSlots is person_limit minus active non-author participants.
func RemainingSlots(c *Campaign, snap CapacitySnapshot) int64 {
	return int64(c.PersonLimit) - snap.ActiveParticipants
}

// HasQuantityTarget reports whether the campaign caps total quantity.
func HasQuantityTarget(c *Campaign) bool {
	return c.RequestedProductCount > 0
}

// RemainingQuantity is what a caller may still claim when everyone else
// holds othersQuantity. ok is false when the campaign has no quantity target.
func RemainingQuantity(c *Campaign, othersQuantity int64) (remaining int64, ok bool) {
	if !HasQuantityTarget(c) {
		return 0, false
	}
	return int64(c.RequestedProductCount) - othersQuantity, true
}

// IsFull is the end condition: at least one active participant and either
// every slot taken or the quantity target reached.
func IsFull(c *Campaign, snap CapacitySnapshot) bool {
	if snap.ActiveParticipants < 1 {
		return false
	}
	if RemainingSlots(c, snap) <= 0 {
		return true
	}
	if HasQuantityTarget(c) && snap.ActiveQuantity >= int64(c.RequestedProductCount) {
		return true
	}
	return false
}
