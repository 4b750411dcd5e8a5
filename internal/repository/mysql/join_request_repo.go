package mysql

import (
	"context"

	"Neighbor_Board/internal/model"

	"gorm.io/gorm"
)

type JoinRequestRepository struct {
	DB *gorm.DB
}

// Create pending_key 唯一索引保证同一用户对同一社区只有一条 PENDING
func (r *JoinRequestRepository) Create(ctx context.Context, req *model.CommunityJoinRequest) error {
	if req.Status == model.JoinPending {
		req.PendingKey = model.PendingKeyFor(req.CommunityID, req.UserID)
	}
	return translate(r.DB.WithContext(ctx).Create(req).Error)
}

func (r *JoinRequestRepository) FindByID(ctx context.Context, id uint64) (*model.CommunityJoinRequest, error) {
	var req model.CommunityJoinRequest
	if err := r.DB.WithContext(ctx).First(&req, id).Error; err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

func (r *JoinRequestRepository) ExistsPending(ctx context.Context, communityID, userID uint64) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.CommunityJoinRequest{}).
		Where("community_id = ? AND user_id = ? AND status = ?", communityID, userID, model.JoinPending).
		Count(&n).Error
	return n > 0, translate(err)
}

func (r *JoinRequestRepository) ListPending(ctx context.Context, communityID uint64) ([]model.CommunityJoinRequest, error) {
	var list []model.CommunityJoinRequest
	err := r.DB.WithContext(ctx).
		Where("community_id = ? AND status = ?", communityID, model.JoinPending).
		Order("created_at ASC, id ASC").
		Find(&list).Error
	return list, translate(err)
}

// Resolve 条件更新：只有 PENDING 才能变成终态，并释放 pending_key
func (r *JoinRequestRepository) Resolve(ctx context.Context, id uint64, status model.JoinRequestStatus) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&model.CommunityJoinRequest{}).
		Where("id = ? AND status = ?", id, model.JoinPending).
		Updates(map[string]any{"status": status, "pending_key": nil})
	return res.RowsAffected > 0, translate(res.Error)
}
