// Package memory 进程内存储，实现与 mysql 相同的仓储契约。
// 每个事务在数据快照上执行，提交时整体替换，失败则丢弃快照。
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"Neighbor_Board/internal/model"
	"Neighbor_Board/internal/repository"
)

type pair struct {
	a, b uint64
}

type tables struct {
	seq         uint64
	ads         map[uint64]model.Ad
	images      map[uint64]model.AdImage
	reactions   map[pair]model.AdReaction
	comments    map[uint64]model.AdComment
	likes       map[pair]model.CommentLike
	reports     map[pair]model.Report
	communities map[uint64]model.Community
	members     map[pair]model.CommunityMember
	admins      map[pair]model.CommunityAdmin
	joins       map[uint64]model.CommunityJoinRequest
	outbox      map[uint64]model.EventOutbox
}

func newTables() *tables {
	return &tables{
		ads:         map[uint64]model.Ad{},
		images:      map[uint64]model.AdImage{},
		reactions:   map[pair]model.AdReaction{},
		comments:    map[uint64]model.AdComment{},
		likes:       map[pair]model.CommentLike{},
		reports:     map[pair]model.Report{},
		communities: map[uint64]model.Community{},
		members:     map[pair]model.CommunityMember{},
		admins:      map[pair]model.CommunityAdmin{},
		joins:       map[uint64]model.CommunityJoinRequest{},
		outbox:      map[uint64]model.EventOutbox{},
	}
}

func (t *tables) clone() *tables {
	return &tables{
		seq:         t.seq,
		ads:         maps.Clone(t.ads),
		images:      maps.Clone(t.images),
		reactions:   maps.Clone(t.reactions),
		comments:    maps.Clone(t.comments),
		likes:       maps.Clone(t.likes),
		reports:     maps.Clone(t.reports),
		communities: maps.Clone(t.communities),
		members:     maps.Clone(t.members),
		admins:      maps.Clone(t.admins),
		joins:       maps.Clone(t.joins),
		outbox:      maps.Clone(t.outbox),
	}
}

func (t *tables) nextID() uint64 {
	t.seq++
	return t.seq
}

// Store 所有事务串行执行
type Store struct {
	mu   sync.Mutex
	data *tables
	now  func() time.Time
}

func NewStore() *Store {
	return &Store{data: newTables(), now: time.Now}
}

// WithClock 测试用，固定时间来源
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Transaction(ctx context.Context, fn func(r *repository.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.data.clone()
	tx := &txn{t: snap, now: s.now}
	if err := fn(tx.repos()); err != nil {
		return err
	}
	s.data = snap
	return nil
}

func (s *Store) Outbox() repository.OutboxRepository {
	return &storeOutbox{s: s}
}

type txn struct {
	t   *tables
	now func() time.Time
}

func (x *txn) repos() *repository.Repos {
	return &repository.Repos{
		Ads:          &adRepo{x},
		Assets:       &assetRepo{x},
		Reports:      &reportRepo{x},
		Communities:  &communityRepo{x},
		Members:      &memberRepo{x},
		Admins:       &adminRepo{x},
		JoinRequests: &joinRequestRepo{x},
		Outbox:       &outboxRepo{x},
	}
}

// stamp 模拟 gorm 的 autoCreateTime
func (x *txn) stamp(created *time.Time) time.Time {
	now := x.now()
	if created.IsZero() {
		*created = now
	}
	return now
}

func page(n int, p repository.Page) (int, int) {
	start := p.Offset
	if start < 0 {
		start = 0
	}
	if start > n {
		start = n
	}
	end := n
	if p.Limit > 0 && start+p.Limit < n {
		end = start + p.Limit
	}
	return start, end
}

// storeOutbox 事务外的 outbox 访问，每次调用是一个独立事务
type storeOutbox struct {
	s *Store
}

func (o *storeOutbox) Insert(ctx context.Context, ev *model.EventOutbox) error {
	return o.s.Transaction(ctx, func(r *repository.Repos) error { return r.Outbox.Insert(ctx, ev) })
}

func (o *storeOutbox) List(ctx context.Context, batchSize int) ([]model.EventOutbox, error) {
	var list []model.EventOutbox
	err := o.s.Transaction(ctx, func(r *repository.Repos) error {
		var err error
		list, err = r.Outbox.List(ctx, batchSize)
		return err
	})
	return list, err
}

func (o *storeOutbox) RetryUpdate(ctx context.Context, id uint64) error {
	return o.s.Transaction(ctx, func(r *repository.Repos) error { return r.Outbox.RetryUpdate(ctx, id) })
}

func (o *storeOutbox) SuccessUpdate(ctx context.Context, id uint64) error {
	return o.s.Transaction(ctx, func(r *repository.Repos) error { return r.Outbox.SuccessUpdate(ctx, id) })
}
