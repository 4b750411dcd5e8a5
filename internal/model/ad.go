package model

import "time"

type AdStatus string

const (
	AdStatusActive  AdStatus = "ACTIVE"
	AdStatusPaused  AdStatus = "PAUSED"
	AdStatusClosed  AdStatus = "CLOSED"
	AdStatusRemoved AdStatus = "REMOVED" // 仅由举报触发，终态
)

type AdType string

const (
	AdTypeSale           AdType = "SALE"
	AdTypeDonation       AdType = "DONATION"
	AdTypeService        AdType = "SERVICE"
	AdTypeRecommendation AdType = "RECOMMENDATION"
)

func (t AdType) Valid() bool {
	switch t {
	case AdTypeSale, AdTypeDonation, AdTypeService, AdTypeRecommendation:
		return true
	}
	return false
}

// HasPrice 捐赠和推荐不记录价格
func (t AdType) HasPrice() bool {
	return t != AdTypeDonation && t != AdTypeRecommendation
}

type Ad struct {
	ID                 uint64   `gorm:"primaryKey" json:"id"`
	CommunityID        uint64   `gorm:"not null;index:idx_ad_comm_status_time,priority:1;index:idx_ad_user_comm,priority:2" json:"community_id"`
	UserID             uint64   `gorm:"not null;index:idx_ad_user_comm,priority:1" json:"user_id"`
	Title              string   `gorm:"size:200;not null" json:"title"`
	Description        string   `gorm:"type:text" json:"description"`
	Type               AdType   `gorm:"size:16;not null" json:"type"`
	PriceCents         *int64   `json:"price_cents"` // nil = 无价格
	Status             AdStatus `gorm:"size:16;not null;default:ACTIVE;index:idx_ad_comm_status_time,priority:2" json:"status"`
	RecommendedContact string   `gorm:"size:120" json:"recommended_contact"`
	ServiceType        string   `gorm:"size:120" json:"service_type"`
	// SuspendedByReportsAt 非空表示被举报暂停（审核挂起），发布者不能自行恢复
	SuspendedByReportsAt *time.Time `json:"suspended_by_reports_at"`
	CreatedAt            time.Time  `gorm:"index:idx_ad_comm_status_time,priority:3,sort:desc" json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

type AdImage struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	AdID      uint64    `gorm:"not null;index" json:"ad_id"`
	URL       string    `gorm:"size:512;not null" json:"url"`
	SortOrder int       `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

// AdReaction 推荐类广告的评分，(ad_id, user_id) 唯一
type AdReaction struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	AdID      uint64    `gorm:"not null;uniqueIndex:uk_reaction_ad_user" json:"ad_id"`
	UserID    uint64    `gorm:"not null;uniqueIndex:uk_reaction_ad_user" json:"user_id"`
	Rating    int       `gorm:"not null" json:"rating"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type AdComment struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	AdID      uint64    `gorm:"not null;index" json:"ad_id"`
	UserID    uint64    `gorm:"not null" json:"user_id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type CommentLike struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	CommentID uint64    `gorm:"not null;uniqueIndex:uk_like_comment_user" json:"comment_id"`
	UserID    uint64    `gorm:"not null;uniqueIndex:uk_like_comment_user" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
