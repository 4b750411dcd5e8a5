package service

import (
	"context"

	"Neighbor_Board/internal/model"
	"Neighbor_Board/internal/repository"

	"go.uber.org/zap"
)

// AdminElector 社区管理员为空时从剩余成员中选出一位
type AdminElector struct {
	log *zap.Logger
}

func NewAdminElector(log *zap.Logger) *AdminElector {
	return &AdminElector{log: log}
}

// EnsureAdmin 必须在移除管理员的同一事务内调用，调用方已锁住社区行。
// excludeDeparting 为 true 表示离开的用户已退出社区，不参与选举。
// 返回新管理员 id，0 表示无需选举或社区已无成员。
func (e *AdminElector) EnsureAdmin(ctx context.Context, r *repository.Repos, communityID, departingUserID uint64, excludeDeparting bool) (uint64, error) {
	n, err := r.Admins.Count(ctx, communityID)
	if err != nil || n > 0 {
		return 0, err
	}
	members, err := r.Members.ListUserIDs(ctx, communityID)
	if err != nil {
		return 0, err
	}

	// 发帖最多者当选，平票取 user_id 最小；members 已升序，严格大于保证确定性
	var (
		winner uint64
		best   int64 = -1
	)
	for _, uid := range members {
		if excludeDeparting && uid == departingUserID {
			continue
		}
		cnt, err := r.Ads.CountByUserAndCommunity(ctx, uid, communityID)
		if err != nil {
			return 0, err
		}
		if cnt > best {
			winner, best = uid, cnt
		}
	}
	if best < 0 {
		return 0, nil
	}
	if _, err = r.Admins.Add(ctx, communityID, winner); err != nil {
		return 0, err
	}
	e.log.Info("admin elected",
		zap.Uint64("community_id", communityID),
		zap.Uint64("user_id", winner),
		zap.Int64("ad_count", best))
	return winner, emit(ctx, r, model.EventAdminElected, communityID, winner, departingUserID, map[string]any{"ad_count": best})
}
