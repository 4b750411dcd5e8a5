package memory

import (
	"context"
	"slices"

	"Neighbor_Board/internal/model"
	"Neighbor_Board/internal/repository"
)

type communityRepo struct{ x *txn }

func (r *communityRepo) codeTaken(code string, exceptID uint64) bool {
	for id, c := range r.x.t.communities {
		if c.AccessCode == code && id != exceptID {
			return true
		}
	}
	return false
}

func (r *communityRepo) Create(_ context.Context, c *model.Community) error {
	if r.codeTaken(c.AccessCode, 0) {
		return repository.ErrDuplicate
	}
	c.ID = r.x.t.nextID()
	c.UpdatedAt = r.x.stamp(&c.CreatedAt)
	r.x.t.communities[c.ID] = *c
	return nil
}

func (r *communityRepo) FindByID(_ context.Context, id uint64) (*model.Community, error) {
	c, ok := r.x.t.communities[id]
	if !ok {
		return nil, repository.ErrRecordNotFound
	}
	return &c, nil
}

func (r *communityRepo) FindByIDForUpdate(ctx context.Context, id uint64) (*model.Community, error) {
	return r.FindByID(ctx, id)
}

func (r *communityRepo) FindByAccessCode(_ context.Context, code string) (*model.Community, error) {
	for _, c := range r.x.t.communities {
		if c.AccessCode == code {
			return &c, nil
		}
	}
	return nil, repository.ErrRecordNotFound
}

func (r *communityRepo) ExistsAccessCode(_ context.Context, code string) (bool, error) {
	return r.codeTaken(code, 0), nil
}

func (r *communityRepo) Save(_ context.Context, c *model.Community) error {
	if _, ok := r.x.t.communities[c.ID]; !ok {
		return repository.ErrRecordNotFound
	}
	if r.codeTaken(c.AccessCode, c.ID) {
		return repository.ErrDuplicate
	}
	c.UpdatedAt = r.x.now()
	r.x.t.communities[c.ID] = *c
	return nil
}

func (r *communityRepo) FindByIDs(_ context.Context, ids []uint64) ([]model.Community, error) {
	out := make([]model.Community, 0, len(ids))
	for _, id := range ids {
		if c, ok := r.x.t.communities[id]; ok {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b model.Community) int { return cmpID(a.ID, b.ID) })
	return out, nil
}

func cmpID(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

type memberRepo struct{ x *txn }

func (r *memberRepo) Add(_ context.Context, communityID, userID uint64) (bool, error) {
	k := pair{communityID, userID}
	if _, ok := r.x.t.members[k]; ok {
		return false, nil
	}
	m := model.CommunityMember{ID: r.x.t.nextID(), CommunityID: communityID, UserID: userID}
	r.x.stamp(&m.CreatedAt)
	r.x.t.members[k] = m
	return true, nil
}

func (r *memberRepo) Remove(_ context.Context, communityID, userID uint64) (bool, error) {
	k := pair{communityID, userID}
	if _, ok := r.x.t.members[k]; !ok {
		return false, nil
	}
	delete(r.x.t.members, k)
	return true, nil
}

func (r *memberRepo) IsMember(_ context.Context, communityID, userID uint64) (bool, error) {
	_, ok := r.x.t.members[pair{communityID, userID}]
	return ok, nil
}

func (r *memberRepo) ListUserIDs(_ context.Context, communityID uint64) ([]uint64, error) {
	return collect(r.x.t.members, func(k pair) (uint64, bool) { return k.b, k.a == communityID }), nil
}

func (r *memberRepo) ListCommunityIDs(_ context.Context, userID uint64) ([]uint64, error) {
	return collect(r.x.t.members, func(k pair) (uint64, bool) { return k.a, k.b == userID }), nil
}

type adminRepo struct{ x *txn }

func (r *adminRepo) Add(_ context.Context, communityID, userID uint64) (bool, error) {
	k := pair{communityID, userID}
	if _, ok := r.x.t.admins[k]; ok {
		return false, nil
	}
	a := model.CommunityAdmin{CommunityID: communityID, UserID: userID}
	r.x.stamp(&a.CreatedAt)
	r.x.t.admins[k] = a
	return true, nil
}

func (r *adminRepo) Remove(_ context.Context, communityID, userID uint64) (bool, error) {
	k := pair{communityID, userID}
	if _, ok := r.x.t.admins[k]; !ok {
		return false, nil
	}
	delete(r.x.t.admins, k)
	return true, nil
}

func (r *adminRepo) IsAdmin(_ context.Context, communityID, userID uint64) (bool, error) {
	_, ok := r.x.t.admins[pair{communityID, userID}]
	return ok, nil
}

func (r *adminRepo) Count(_ context.Context, communityID uint64) (int64, error) {
	var n int64
	for k := range r.x.t.admins {
		if k.a == communityID {
			n++
		}
	}
	return n, nil
}

func (r *adminRepo) ListUserIDs(_ context.Context, communityID uint64) ([]uint64, error) {
	return collect(r.x.t.admins, func(k pair) (uint64, bool) { return k.b, k.a == communityID }), nil
}

func (r *adminRepo) ListCommunityIDs(_ context.Context, userID uint64) ([]uint64, error) {
	return collect(r.x.t.admins, func(k pair) (uint64, bool) { return k.a, k.b == userID }), nil
}

// collect 按升序返回命中的 id
func collect[V any](m map[pair]V, pick func(pair) (uint64, bool)) []uint64 {
	out := make([]uint64, 0)
	for k := range m {
		if id, ok := pick(k); ok {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

type joinRequestRepo struct{ x *txn }

func (r *joinRequestRepo) Create(_ context.Context, req *model.CommunityJoinRequest) error {
	if req.Status == model.JoinPending {
		for _, old := range r.x.t.joins {
			if old.Status == model.JoinPending && old.CommunityID == req.CommunityID && old.UserID == req.UserID {
				return repository.ErrDuplicate
			}
		}
		req.PendingKey = model.PendingKeyFor(req.CommunityID, req.UserID)
	}
	req.ID = r.x.t.nextID()
	req.UpdatedAt = r.x.stamp(&req.CreatedAt)
	r.x.t.joins[req.ID] = *req
	return nil
}

func (r *joinRequestRepo) FindByID(_ context.Context, id uint64) (*model.CommunityJoinRequest, error) {
	req, ok := r.x.t.joins[id]
	if !ok {
		return nil, repository.ErrRecordNotFound
	}
	return &req, nil
}

func (r *joinRequestRepo) ExistsPending(_ context.Context, communityID, userID uint64) (bool, error) {
	for _, req := range r.x.t.joins {
		if req.Status == model.JoinPending && req.CommunityID == communityID && req.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *joinRequestRepo) ListPending(_ context.Context, communityID uint64) ([]model.CommunityJoinRequest, error) {
	out := make([]model.CommunityJoinRequest, 0)
	for _, req := range r.x.t.joins {
		if req.Status == model.JoinPending && req.CommunityID == communityID {
			out = append(out, req)
		}
	}
	slices.SortFunc(out, func(a, b model.CommunityJoinRequest) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmpID(a.ID, b.ID)
	})
	return out, nil
}

func (r *joinRequestRepo) Resolve(_ context.Context, id uint64, status model.JoinRequestStatus) (bool, error) {
	req, ok := r.x.t.joins[id]
	if !ok || req.Status != model.JoinPending {
		return false, nil
	}
	req.Status = status
	req.PendingKey = nil
	req.UpdatedAt = r.x.now()
	r.x.t.joins[id] = req
	return true, nil
}

type outboxRepo struct{ x *txn }

func (r *outboxRepo) Insert(_ context.Context, ev *model.EventOutbox) error {
	for _, old := range r.x.t.outbox {
		if old.EventID == ev.EventID {
			return repository.ErrDuplicate
		}
	}
	ev.ID = r.x.t.nextID()
	ev.UpdatedAt = r.x.stamp(&ev.CreatedAt)
	r.x.t.outbox[ev.ID] = *ev
	return nil
}

func (r *outboxRepo) List(_ context.Context, batchSize int) ([]model.EventOutbox, error) {
	out := make([]model.EventOutbox, 0)
	for _, ev := range r.x.t.outbox {
		if ev.Status != model.OutboxSent && ev.Retry < repository.MaxOutboxRetry {
			out = append(out, ev)
		}
	}
	slices.SortFunc(out, func(a, b model.EventOutbox) int { return cmpID(a.ID, b.ID) })
	if batchSize > 0 && len(out) > batchSize {
		out = out[:batchSize]
	}
	return out, nil
}

func (r *outboxRepo) RetryUpdate(_ context.Context, id uint64) error {
	ev, ok := r.x.t.outbox[id]
	if !ok {
		return repository.ErrRecordNotFound
	}
	ev.Status = model.OutboxFailed
	ev.Retry++
	ev.UpdatedAt = r.x.now()
	r.x.t.outbox[id] = ev
	return nil
}

func (r *outboxRepo) SuccessUpdate(_ context.Context, id uint64) error {
	ev, ok := r.x.t.outbox[id]
	if !ok {
		return repository.ErrRecordNotFound
	}
	ev.Status = model.OutboxSent
	ev.UpdatedAt = r.x.now()
	r.x.t.outbox[id] = ev
	return nil
}
