package model

import "time"

type ReportReason string

const (
	ReasonInappropriateContent ReportReason = "INAPPROPRIATE_CONTENT"
	ReasonSpam                 ReportReason = "SPAM"
	ReasonFraud                ReportReason = "FRAUD"
	ReasonWrongCategory        ReportReason = "WRONG_CATEGORY"
	ReasonAlreadySold          ReportReason = "ALREADY_SOLD"
	ReasonOther                ReportReason = "OTHER"
)

func (r ReportReason) Valid() bool {
	switch r {
	case ReasonInappropriateContent, ReasonSpam, ReasonFraud, ReasonWrongCategory, ReasonAlreadySold, ReasonOther:
		return true
	}
	return false
}

// Report 同一用户对同一广告只能举报一次
type Report struct {
	ID         uint64       `gorm:"primaryKey" json:"id"`
	AdID       uint64       `gorm:"not null;uniqueIndex:uk_report_ad_reporter" json:"ad_id"`
	ReporterID uint64       `gorm:"not null;uniqueIndex:uk_report_ad_reporter" json:"reporter_id"`
	Reason     ReportReason `gorm:"size:32;not null" json:"reason"`
	CreatedAt  time.Time    `json:"created_at"`
}
