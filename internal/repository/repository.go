package repository

import (
	"context"
	"errors"
	"time"

	"Neighbor_Board/internal/model"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicate      = errors.New("duplicate record")
)

// MaxOutboxRetry 超过次数的事件不再投递，留给人工对账
const MaxOutboxRetry = 10

// Page 基础分页参数
type Page struct {
	Offset int
	Limit  int
}

type AdRepository interface {
	Create(ctx context.Context, ad *model.Ad) error
	FindByID(ctx context.Context, id uint64) (*model.Ad, error)
	// FindByIDForUpdate 写路径使用，同一广告上的并发事务串行提交
	FindByIDForUpdate(ctx context.Context, id uint64) (*model.Ad, error)
	Save(ctx context.Context, ad *model.Ad) error
	UpdateStatus(ctx context.Context, id uint64, status model.AdStatus, suspendedAt *time.Time) error
	Delete(ctx context.Context, id uint64) error
	CountByUserAndCommunity(ctx context.Context, userID, communityID uint64) (int64, error)
	ListByCommunity(ctx context.Context, communityID uint64, status model.AdStatus, types []model.AdType, page Page) ([]model.Ad, error)
	// ListByUser communityID=0 表示全部社区
	ListByUser(ctx context.Context, userID, communityID uint64, page Page) ([]model.Ad, error)
}

// AdAssetRepository 广告的从属数据：图片、评分、评论、评论点赞
type AdAssetRepository interface {
	AddImages(ctx context.Context, adID uint64, urls []string) error
	ListImages(ctx context.Context, adID uint64) ([]model.AdImage, error)

	UpsertReaction(ctx context.Context, adID, userID uint64, rating int) error
	DeleteReaction(ctx context.Context, adID, userID uint64) error

	CreateComment(ctx context.Context, c *model.AdComment) error
	FindComment(ctx context.Context, id uint64) (*model.AdComment, error)
	DeleteComment(ctx context.Context, id uint64) error
	AddCommentLike(ctx context.Context, commentID, userID uint64) error
	// DeleteCommentLike 返回是否真的删除了一行
	DeleteCommentLike(ctx context.Context, commentID, userID uint64) (bool, error)
	DeleteCommentLikes(ctx context.Context, commentID uint64) error

	// 级联清理，按广告维度
	DeleteCommentLikesByAd(ctx context.Context, adID uint64) error
	DeleteCommentsByAd(ctx context.Context, adID uint64) error
	DeleteReactionsByAd(ctx context.Context, adID uint64) error
	DeleteImagesByAd(ctx context.Context, adID uint64) error
}

type ReportRepository interface {
	Exists(ctx context.Context, adID, reporterID uint64) (bool, error)
	// Create 唯一键冲突时返回 ErrDuplicate
	Create(ctx context.Context, r *model.Report) error
	CountDistinctReporters(ctx context.Context, adID uint64) (int64, error)
	DeleteByAd(ctx context.Context, adID uint64) error
}

type CommunityRepository interface {
	Create(ctx context.Context, c *model.Community) error
	FindByID(ctx context.Context, id uint64) (*model.Community, error)
	// FindByIDForUpdate 锁住社区行，同一社区的成员和管理员变更串行提交
	FindByIDForUpdate(ctx context.Context, id uint64) (*model.Community, error)
	FindByAccessCode(ctx context.Context, code string) (*model.Community, error)
	ExistsAccessCode(ctx context.Context, code string) (bool, error)
	Save(ctx context.Context, c *model.Community) error
	FindByIDs(ctx context.Context, ids []uint64) ([]model.Community, error)
}

type MemberRepository interface {
	// Add 幂等加入，返回是否新增
	Add(ctx context.Context, communityID, userID uint64) (bool, error)
	// Remove 返回是否真的移除
	Remove(ctx context.Context, communityID, userID uint64) (bool, error)
	IsMember(ctx context.Context, communityID, userID uint64) (bool, error)
	// ListUserIDs 按 user_id 升序
	ListUserIDs(ctx context.Context, communityID uint64) ([]uint64, error)
	ListCommunityIDs(ctx context.Context, userID uint64) ([]uint64, error)
}

type AdminRepository interface {
	Add(ctx context.Context, communityID, userID uint64) (bool, error)
	Remove(ctx context.Context, communityID, userID uint64) (bool, error)
	IsAdmin(ctx context.Context, communityID, userID uint64) (bool, error)
	Count(ctx context.Context, communityID uint64) (int64, error)
	ListUserIDs(ctx context.Context, communityID uint64) ([]uint64, error)
	ListCommunityIDs(ctx context.Context, userID uint64) ([]uint64, error)
}

type JoinRequestRepository interface {
	// Create 同一 (community, user) 已有 PENDING 时返回 ErrDuplicate
	Create(ctx context.Context, r *model.CommunityJoinRequest) error
	FindByID(ctx context.Context, id uint64) (*model.CommunityJoinRequest, error)
	ExistsPending(ctx context.Context, communityID, userID uint64) (bool, error)
	ListPending(ctx context.Context, communityID uint64) ([]model.CommunityJoinRequest, error)
	// Resolve 仅当当前为 PENDING 时更新，返回是否更新成功
	Resolve(ctx context.Context, id uint64, status model.JoinRequestStatus) (bool, error)
}

type OutboxRepository interface {
	Insert(ctx context.Context, ev *model.EventOutbox) error
	List(ctx context.Context, batchSize int) ([]model.EventOutbox, error)
	RetryUpdate(ctx context.Context, id uint64) error
	SuccessUpdate(ctx context.Context, id uint64) error
}

// Repos 绑定到同一个事务上的仓储集合
type Repos struct {
	Ads          AdRepository
	Assets       AdAssetRepository
	Reports      ReportRepository
	Communities  CommunityRepository
	Members      MemberRepository
	Admins       AdminRepository
	JoinRequests JoinRequestRepository
	Outbox       OutboxRepository
}

// Store 持久化协作者：fn 返回错误则整个事务回滚
type Store interface {
	Transaction(ctx context.Context, fn func(r *Repos) error) error
	// Outbox 事务外的 outbox 访问，供投递器使用
	Outbox() OutboxRepository
}
