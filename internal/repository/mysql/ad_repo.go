package mysql

import (
	"context"
	"time"

	"Neighbor_Board/internal/model"
	"Neighbor_Board/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AdRepository struct {
	DB *gorm.DB
}

func (r *AdRepository) Create(ctx context.Context, ad *model.Ad) error {
	return translate(r.DB.WithContext(ctx).Create(ad).Error)
}

func (r *AdRepository) FindByID(ctx context.Context, id uint64) (*model.Ad, error) {
	var ad model.Ad
	if err := r.DB.WithContext(ctx).First(&ad, id).Error; err != nil {
		return nil, translate(err)
	}
	return &ad, nil
}

// FindByIDForUpdate select for update 让举报和发布者操作串行提交
func (r *AdRepository) FindByIDForUpdate(ctx context.Context, id uint64) (*model.Ad, error) {
	var ad model.Ad
	if err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&ad, id).Error; err != nil {
		return nil, translate(err)
	}
	return &ad, nil
}

func (r *AdRepository) Save(ctx context.Context, ad *model.Ad) error {
	return translate(r.DB.WithContext(ctx).Save(ad).Error)
}

// UpdateStatus suspendedAt 为 nil 时清空挂起时间
func (r *AdRepository) UpdateStatus(ctx context.Context, id uint64, status model.AdStatus, suspendedAt *time.Time) error {
	res := r.DB.WithContext(ctx).Model(&model.Ad{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":                  status,
			"suspended_by_reports_at": suspendedAt,
		})
	return translate(res.Error)
}

func (r *AdRepository) Delete(ctx context.Context, id uint64) error {
	return translate(r.DB.WithContext(ctx).Delete(&model.Ad{}, id).Error)
}

func (r *AdRepository) CountByUserAndCommunity(ctx context.Context, userID, communityID uint64) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Ad{}).
		Where("user_id = ? AND community_id = ?", userID, communityID).
		Count(&n).Error
	return n, translate(err)
}

// ListByCommunity 索引 (community_id, status, created_at DESC)
func (r *AdRepository) ListByCommunity(ctx context.Context, communityID uint64, status model.AdStatus, types []model.AdType, page repository.Page) ([]model.Ad, error) {
	var list []model.Ad
	q := r.DB.WithContext(ctx).Where("community_id = ?", communityID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if len(types) > 0 {
		q = q.Where("type IN ?", types)
	}
	err := q.Order("created_at DESC, id DESC").
		Offset(page.Offset).
		Limit(page.Limit).
		Find(&list).Error
	return list, translate(err)
}

func (r *AdRepository) ListByUser(ctx context.Context, userID, communityID uint64, page repository.Page) ([]model.Ad, error) {
	var list []model.Ad
	q := r.DB.WithContext(ctx).Where("user_id = ?", userID)
	if communityID > 0 {
		q = q.Where("community_id = ?", communityID)
	}
	err := q.Order("created_at DESC, id DESC").
		Offset(page.Offset).
		Limit(page.Limit).
		Find(&list).Error
	return list, translate(err)
}
