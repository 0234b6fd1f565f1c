package domain

import (
	"github.com/yungbote/groupbuy-backend/internal/domain/groupbuy"
	"github.com/yungbote/groupbuy-backend/internal/domain/user"
)

type User = user.User

type Campaign = groupbuy.Campaign
type ParticipationRecord = groupbuy.ParticipationRecord
type ParticipationState = groupbuy.ParticipationState
type EndChoice = groupbuy.EndChoice
type CampaignStatus = groupbuy.Status
type CapacitySnapshot = groupbuy.CapacitySnapshot
