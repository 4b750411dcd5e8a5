package model

import (
	"fmt"
	"time"
)

type Community struct {
	ID         uint64    `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"size:64;not null" json:"name"`
	AccessCode string    `gorm:"uniqueIndex;size:16;not null" json:"access_code"`
	IsPrivate  bool      `gorm:"not null;default:false" json:"is_private"`
	PostalCode string    `gorm:"size:10" json:"postal_code"`
	CreatorID  uint64    `gorm:"not null;index" json:"creator_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type CommunityMember struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	CommunityID uint64    `gorm:"not null;index;uniqueIndex:uk_community_user" json:"community_id"`
	UserID      uint64    `gorm:"not null;index;uniqueIndex:uk_community_user" json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// CommunityAdmin 管理员集合，(community_id, user_id) 即身份
type CommunityAdmin struct {
	CommunityID uint64    `gorm:"primaryKey;autoIncrement:false" json:"community_id"`
	UserID      uint64    `gorm:"primaryKey;autoIncrement:false;index" json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type JoinRequestStatus string

const (
	JoinPending  JoinRequestStatus = "PENDING"
	JoinApproved JoinRequestStatus = "APPROVED"
	JoinRejected JoinRequestStatus = "REJECTED"
)

type CommunityJoinRequest struct {
	ID          uint64            `gorm:"primaryKey" json:"id"`
	CommunityID uint64            `gorm:"not null;index:idx_join_comm_status,priority:1" json:"community_id"`
	UserID      uint64            `gorm:"not null;index" json:"user_id"`
	Status      JoinRequestStatus `gorm:"size:16;not null;index:idx_join_comm_status,priority:2" json:"status"`
	// PendingKey 仅在 PENDING 时有值，唯一索引允许多个 NULL，
	// 从而保证同一 (community, user) 最多一条待处理申请
	PendingKey *string   `gorm:"size:64;uniqueIndex" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func PendingKeyFor(communityID, userID uint64) *string {
	k := fmt.Sprintf("%d:%d", communityID, userID)
	return &k
}
