package groupbuy

import (
	"time"

	"github.com/google/uuid"
)

// ParticipationState tags a ledger row. Cancelled rows are kept for history
// and reactivated in place on rejoin.
type ParticipationState string

const (
	ParticipationActive    ParticipationState = "active"
	ParticipationCancelled ParticipationState = "cancelled"
)

// ParticipationRecord is one user's claimed quantity against a campaign.
// There is at most one row per (campaign, user).
type ParticipationRecord struct {
	ID         uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	CampaignID uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:idx_participation_campaign_user,priority:1;column:campaign_id" json:"campaign_id"`
	UserID     uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:idx_participation_campaign_user,priority:2;index;column:user_id" json:"user_id"`
	Quantity   int                `gorm:"not null;default:0;column:quantity" json:"product_quantity"`
	State      ParticipationState `gorm:"not null;index;column:state" json:"state"`
	CreatedAt  time.Time          `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time          `gorm:"not null" json:"updated_at"`
}

func (ParticipationRecord) TableName() string { return "group_purchase_participation" }

func (p *ParticipationRecord) IsActive() bool {
	return p != nil && p.State == ParticipationActive
}

// IsDeleted mirrors the soft-delete flag exposed to API clients.
func (p *ParticipationRecord) IsDeleted() bool {
	return p != nil && p.State == ParticipationCancelled
}

func (p *ParticipationRecord) Activate(quantity int, now time.Time) {
	p.State = ParticipationActive
	p.Quantity = quantity
	p.UpdatedAt = now
}

// Cancel keeps the last quantity on the row; cancelled rows never count.
func (p *ParticipationRecord) Cancel(now time.Time) {
	p.State = ParticipationCancelled
	p.UpdatedAt = now
}
