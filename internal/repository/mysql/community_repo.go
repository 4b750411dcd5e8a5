package mysql

import (
	"context"

	"Neighbor_Board/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CommunityRepository struct {
	DB *gorm.DB
}

func (r *CommunityRepository) Create(ctx context.Context, c *model.Community) error {
	return translate(r.DB.WithContext(ctx).Create(c).Error)
}

func (r *CommunityRepository) FindByID(ctx context.Context, id uint64) (*model.Community, error) {
	var community model.Community
	if err := r.DB.WithContext(ctx).First(&community, id).Error; err != nil {
		return nil, translate(err)
	}
	return &community, nil
}

func (r *CommunityRepository) FindByIDForUpdate(ctx context.Context, id uint64) (*model.Community, error) {
	var community model.Community
	if err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&community, id).Error; err != nil {
		return nil, translate(err)
	}
	return &community, nil
}

func (r *CommunityRepository) FindByAccessCode(ctx context.Context, code string) (*model.Community, error) {
	var community model.Community
	if err := r.DB.WithContext(ctx).Where("access_code = ?", code).First(&community).Error; err != nil {
		return nil, translate(err)
	}
	return &community, nil
}

func (r *CommunityRepository) ExistsAccessCode(ctx context.Context, code string) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Community{}).Where("access_code = ?", code).Count(&n).Error
	return n > 0, translate(err)
}

func (r *CommunityRepository) Save(ctx context.Context, c *model.Community) error {
	return translate(r.DB.WithContext(ctx).Save(c).Error)
}

func (r *CommunityRepository) FindByIDs(ctx context.Context, ids []uint64) ([]model.Community, error) {
	var list []model.Community
	if len(ids) == 0 {
		return list, nil
	}
	err := r.DB.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&list).Error
	return list, translate(err)
}
