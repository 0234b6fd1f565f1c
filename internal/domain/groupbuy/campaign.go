package groupbuy

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EndChoice is the author's stated plan for what happens once recruiting closes.
type EndChoice string

const (
	EndChoiceContinue EndChoice = "continue"
	EndChoiceQuit     EndChoice = "quit"
	EndChoiceDiscuss  EndChoice = "discuss"
	EndChoiceMaybe    EndChoice = "maybe"
)

func (e EndChoice) Valid() bool {
	switch e {
	case EndChoiceContinue, EndChoiceQuit, EndChoiceDiscuss, EndChoiceMaybe:
		return true
	default:
		return false
	}
}

// Campaign is a group-purchase posting. IsEnded only ever moves false -> true.
type Campaign struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AuthorID    uuid.UUID `gorm:"type:uuid;not null;index;column:author_id" json:"author_id"`
	CommunityID uuid.UUID `gorm:"type:uuid;not null;index;column:community_id" json:"community_id"`
	CategoryID  uuid.UUID `gorm:"type:uuid;not null;column:category_id" json:"category_id"`

	Title                 string          `gorm:"not null;column:title" json:"title"`
	Description           string          `gorm:"column:description" json:"description"`
	ProductName           string          `gorm:"not null;column:product_name" json:"product_name"`
	RequestedProductCount int             `gorm:"not null;default:0;column:requested_product_count" json:"requested_product_count"`
	UnitPrice             decimal.Decimal `gorm:"type:numeric(12,2);not null;column:unit_price" json:"unit_price"`
	ExternalLink          string          `gorm:"column:external_link" json:"external_link"`
	MeetingLocation       string          `gorm:"column:meeting_location" json:"meeting_location"`

	MeetingTime time.Time  `gorm:"not null;column:meeting_time" json:"meeting_time"`
	OpenTime    time.Time  `gorm:"not null;column:open_time" json:"open_time"`
	CloseTime   *time.Time `gorm:"index;column:close_time" json:"close_time,omitempty"`

	PersonLimit int       `gorm:"not null;column:person_limit" json:"person_limit"`
	EndChoice   EndChoice `gorm:"not null;column:end_choice" json:"end_choice"`
	IsEnded     bool      `gorm:"not null;default:false;index;column:is_ended" json:"is_ended"`
	ViewCount   int       `gorm:"not null;default:0;column:view_count" json:"view_count"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Campaign) TableName() string { return "group_purchase_campaign" }

// IsAuthor reports whether userID wrote the campaign.
func (c *Campaign) IsAuthor(userID uuid.UUID) bool {
	return c != nil && c.AuthorID == userID
}
