package model

import "time"

const (
	EventAdCreated         = "ad.created"
	EventAdReported        = "ad.reported"
	EventAdSuspended       = "ad.suspended"
	EventAdRemoved         = "ad.removed"
	EventAdDeleted         = "ad.deleted"
	EventCommunityCreated  = "community.created"
	EventMemberJoined      = "member.joined"
	EventMemberLeft        = "member.left"
	EventAdminAdded        = "admin.added"
	EventAdminRelinquished = "admin.relinquished"
	EventAdminElected      = "admin.elected"
	EventJoinRequested     = "join.requested"
	EventJoinApproved      = "join.approved"
	EventJoinRejected      = "join.rejected"
)

const (
	OutboxPending int8 = 0
	OutboxSent    int8 = 1
	OutboxFailed  int8 = 2
)

// EventOutbox 领域事件表，与业务写入同一事务
type EventOutbox struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	EventID     string    `gorm:"size:36;uniqueIndex;not null" json:"event_id"`
	EventType   string    `gorm:"size:32;not null" json:"event_type"`
	CommunityID uint64    `gorm:"not null" json:"community_id"`
	UserID      uint64    `gorm:"not null" json:"user_id"`
	SubjectID   uint64    `gorm:"not null;default:0" json:"subject_id"` // ad / request 等
	Payload     string    `gorm:"type:json;not null" json:"payload"`
	Status      int8      `gorm:"not null;default:0;index;comment:'0=pending,1=sent,2=failed'" json:"status"`
	Retry       int       `gorm:"not null;default:0" json:"retry"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (EventOutbox) TableName() string { return "event_outbox" }
