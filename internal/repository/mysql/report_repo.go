package mysql

import (
	"context"

	"Neighbor_Board/internal/model"

	"gorm.io/gorm"
)

type ReportRepository struct {
	DB *gorm.DB
}

func (r *ReportRepository) Exists(ctx context.Context, adID, reporterID uint64) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Report{}).
		Where("ad_id = ? AND reporter_id = ?", adID, reporterID).
		Count(&n).Error
	return n > 0, translate(err)
}

// Create 唯一索引 uk_report_ad_reporter 兜底并发重复举报
func (r *ReportRepository) Create(ctx context.Context, rep *model.Report) error {
	return translate(r.DB.WithContext(ctx).Create(rep).Error)
}

func (r *ReportRepository) CountDistinctReporters(ctx context.Context, adID uint64) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Report{}).
		Where("ad_id = ?", adID).
		Distinct("reporter_id").
		Count(&n).Error
	return n, translate(err)
}

func (r *ReportRepository) DeleteByAd(ctx context.Context, adID uint64) error {
	return translate(r.DB.WithContext(ctx).Where("ad_id = ?", adID).Delete(&model.Report{}).Error)
}
