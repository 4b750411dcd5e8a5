package mysql

import (
	"context"

	"Neighbor_Board/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CommunityMemberRepository struct {
	DB *gorm.DB
}

type CommunityAdminRepository struct {
	DB *gorm.DB
}

// Add 幂等插入：若已存在 (community_id, user_id) 则不报错
func (r *CommunityMemberRepository) Add(ctx context.Context, communityID, userID uint64) (bool, error) {
	res := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "community_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&model.CommunityMember{CommunityID: communityID, UserID: userID})
	return res.RowsAffected > 0, translate(res.Error)
}

func (r *CommunityMemberRepository) Remove(ctx context.Context, communityID, userID uint64) (bool, error) {
	res := r.DB.WithContext(ctx).Where("community_id = ? AND user_id = ?", communityID, userID).
		Delete(&model.CommunityMember{})
	return res.RowsAffected > 0, translate(res.Error)
}

func (r *CommunityMemberRepository) IsMember(ctx context.Context, communityID, userID uint64) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.CommunityMember{}).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Count(&count).Error
	return count > 0, translate(err)
}

func (r *CommunityMemberRepository) ListUserIDs(ctx context.Context, communityID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.DB.WithContext(ctx).Model(&model.CommunityMember{}).
		Where("community_id = ?", communityID).
		Order("user_id ASC").
		Pluck("user_id", &ids).Error
	return ids, translate(err)
}

func (r *CommunityMemberRepository) ListCommunityIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.DB.WithContext(ctx).Model(&model.CommunityMember{}).
		Where("user_id = ?", userID).
		Order("community_id ASC").
		Pluck("community_id", &ids).Error
	return ids, translate(err)
}

func (r *CommunityAdminRepository) Add(ctx context.Context, communityID, userID uint64) (bool, error) {
	res := r.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.CommunityAdmin{CommunityID: communityID, UserID: userID})
	return res.RowsAffected > 0, translate(res.Error)
}

func (r *CommunityAdminRepository) Remove(ctx context.Context, communityID, userID uint64) (bool, error) {
	res := r.DB.WithContext(ctx).Where("community_id = ? AND user_id = ?", communityID, userID).
		Delete(&model.CommunityAdmin{})
	return res.RowsAffected > 0, translate(res.Error)
}

func (r *CommunityAdminRepository) IsAdmin(ctx context.Context, communityID, userID uint64) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.CommunityAdmin{}).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Count(&count).Error
	return count > 0, translate(err)
}

func (r *CommunityAdminRepository) Count(ctx context.Context, communityID uint64) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.CommunityAdmin{}).
		Where("community_id = ?", communityID).
		Count(&count).Error
	return count, translate(err)
}

func (r *CommunityAdminRepository) ListUserIDs(ctx context.Context, communityID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.DB.WithContext(ctx).Model(&model.CommunityAdmin{}).
		Where("community_id = ?", communityID).
		Order("user_id ASC").
		Pluck("user_id", &ids).Error
	return ids, translate(err)
}

func (r *CommunityAdminRepository) ListCommunityIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.DB.WithContext(ctx).Model(&model.CommunityAdmin{}).
		Where("user_id = ?", userID).
		Order("community_id ASC").
		Pluck("community_id", &ids).Error
	return ids, translate(err)
}
