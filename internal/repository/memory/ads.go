package memory

import (
	"context"
	"slices"
	"time"

	"Neighbor_Board/internal/model"
	"Neighbor_Board/internal/repository"
)

type adRepo struct{ x *txn }

func copyAd(ad model.Ad) *model.Ad {
	if ad.PriceCents != nil {
		p := *ad.PriceCents
		ad.PriceCents = &p
	}
	if ad.SuspendedByReportsAt != nil {
		t := *ad.SuspendedByReportsAt
		ad.SuspendedByReportsAt = &t
	}
	return &ad
}

func (r *adRepo) Create(_ context.Context, ad *model.Ad) error {
	ad.ID = r.x.t.nextID()
	ad.UpdatedAt = r.x.stamp(&ad.CreatedAt)
	if ad.Status == "" {
		ad.Status = model.AdStatusActive
	}
	r.x.t.ads[ad.ID] = *copyAd(*ad)
	return nil
}

func (r *adRepo) FindByID(_ context.Context, id uint64) (*model.Ad, error) {
	ad, ok := r.x.t.ads[id]
	if !ok {
		return nil, repository.ErrRecordNotFound
	}
	return copyAd(ad), nil
}

// FindByIDForUpdate 事务本身已串行，无需额外加锁
func (r *adRepo) FindByIDForUpdate(ctx context.Context, id uint64) (*model.Ad, error) {
	return r.FindByID(ctx, id)
}

func (r *adRepo) Save(_ context.Context, ad *model.Ad) error {
	if _, ok := r.x.t.ads[ad.ID]; !ok {
		return repository.ErrRecordNotFound
	}
	ad.UpdatedAt = r.x.now()
	r.x.t.ads[ad.ID] = *copyAd(*ad)
	return nil
}

func (r *adRepo) UpdateStatus(_ context.Context, id uint64, status model.AdStatus, suspendedAt *time.Time) error {
	ad, ok := r.x.t.ads[id]
	if !ok {
		return repository.ErrRecordNotFound
	}
	ad.Status = status
	ad.SuspendedByReportsAt = suspendedAt
	ad.UpdatedAt = r.x.now()
	r.x.t.ads[id] = *copyAd(ad)
	return nil
}

func (r *adRepo) Delete(_ context.Context, id uint64) error {
	if _, ok := r.x.t.ads[id]; !ok {
		return repository.ErrRecordNotFound
	}
	delete(r.x.t.ads, id)
	return nil
}

func (r *adRepo) CountByUserAndCommunity(_ context.Context, userID, communityID uint64) (int64, error) {
	var n int64
	for _, ad := range r.x.t.ads {
		if ad.UserID == userID && ad.CommunityID == communityID {
			n++
		}
	}
	return n, nil
}

func (r *adRepo) ListByCommunity(_ context.Context, communityID uint64, status model.AdStatus, types []model.AdType, p repository.Page) ([]model.Ad, error) {
	return r.list(p, func(ad model.Ad) bool {
		if ad.CommunityID != communityID {
			return false
		}
		if status != "" && ad.Status != status {
			return false
		}
		return len(types) == 0 || slices.Contains(types, ad.Type)
	}), nil
}

func (r *adRepo) ListByUser(_ context.Context, userID, communityID uint64, p repository.Page) ([]model.Ad, error) {
	return r.list(p, func(ad model.Ad) bool {
		return ad.UserID == userID && (communityID == 0 || ad.CommunityID == communityID)
	}), nil
}

// list 与 mysql 一致：created_at DESC, id DESC
func (r *adRepo) list(p repository.Page, keep func(model.Ad) bool) []model.Ad {
	out := make([]model.Ad, 0)
	for _, ad := range r.x.t.ads {
		if keep(ad) {
			out = append(out, *copyAd(ad))
		}
	}
	slices.SortFunc(out, func(a, b model.Ad) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})
	start, end := page(len(out), p)
	return out[start:end]
}

type assetRepo struct{ x *txn }

func (r *assetRepo) AddImages(_ context.Context, adID uint64, urls []string) error {
	for i, u := range urls {
		img := model.AdImage{ID: r.x.t.nextID(), AdID: adID, URL: u, SortOrder: i}
		r.x.stamp(&img.CreatedAt)
		r.x.t.images[img.ID] = img
	}
	return nil
}

func (r *assetRepo) ListImages(_ context.Context, adID uint64) ([]model.AdImage, error) {
	out := make([]model.AdImage, 0)
	for _, img := range r.x.t.images {
		if img.AdID == adID {
			out = append(out, img)
		}
	}
	slices.SortFunc(out, func(a, b model.AdImage) int {
		if a.SortOrder != b.SortOrder {
			return a.SortOrder - b.SortOrder
		}
		return cmpID(a.ID, b.ID)
	})
	return out, nil
}

func (r *assetRepo) UpsertReaction(_ context.Context, adID, userID uint64, rating int) error {
	k := pair{adID, userID}
	re, ok := r.x.t.reactions[k]
	if !ok {
		re = model.AdReaction{ID: r.x.t.nextID(), AdID: adID, UserID: userID}
	}
	re.Rating = rating
	re.UpdatedAt = r.x.stamp(&re.CreatedAt)
	r.x.t.reactions[k] = re
	return nil
}

func (r *assetRepo) DeleteReaction(_ context.Context, adID, userID uint64) error {
	delete(r.x.t.reactions, pair{adID, userID})
	return nil
}

func (r *assetRepo) CreateComment(_ context.Context, c *model.AdComment) error {
	c.ID = r.x.t.nextID()
	r.x.stamp(&c.CreatedAt)
	r.x.t.comments[c.ID] = *c
	return nil
}

func (r *assetRepo) FindComment(_ context.Context, id uint64) (*model.AdComment, error) {
	c, ok := r.x.t.comments[id]
	if !ok {
		return nil, repository.ErrRecordNotFound
	}
	return &c, nil
}

func (r *assetRepo) DeleteComment(_ context.Context, id uint64) error {
	delete(r.x.t.comments, id)
	return nil
}

func (r *assetRepo) AddCommentLike(_ context.Context, commentID, userID uint64) error {
	k := pair{commentID, userID}
	if _, ok := r.x.t.likes[k]; ok {
		return repository.ErrDuplicate
	}
	like := model.CommentLike{ID: r.x.t.nextID(), CommentID: commentID, UserID: userID}
	r.x.stamp(&like.CreatedAt)
	r.x.t.likes[k] = like
	return nil
}

func (r *assetRepo) DeleteCommentLike(_ context.Context, commentID, userID uint64) (bool, error) {
	k := pair{commentID, userID}
	if _, ok := r.x.t.likes[k]; !ok {
		return false, nil
	}
	delete(r.x.t.likes, k)
	return true, nil
}

func (r *assetRepo) DeleteCommentLikes(_ context.Context, commentID uint64) error {
	for k := range r.x.t.likes {
		if k.a == commentID {
			delete(r.x.t.likes, k)
		}
	}
	return nil
}

func (r *assetRepo) DeleteCommentLikesByAd(_ context.Context, adID uint64) error {
	for k := range r.x.t.likes {
		if c, ok := r.x.t.comments[k.a]; ok && c.AdID == adID {
			delete(r.x.t.likes, k)
		}
	}
	return nil
}

func (r *assetRepo) DeleteCommentsByAd(_ context.Context, adID uint64) error {
	for id, c := range r.x.t.comments {
		if c.AdID == adID {
			delete(r.x.t.comments, id)
		}
	}
	return nil
}

func (r *assetRepo) DeleteReactionsByAd(_ context.Context, adID uint64) error {
	for k := range r.x.t.reactions {
		if k.a == adID {
			delete(r.x.t.reactions, k)
		}
	}
	return nil
}

func (r *assetRepo) DeleteImagesByAd(_ context.Context, adID uint64) error {
	for id, img := range r.x.t.images {
		if img.AdID == adID {
			delete(r.x.t.images, id)
		}
	}
	return nil
}

type reportRepo struct{ x *txn }

func (r *reportRepo) Exists(_ context.Context, adID, reporterID uint64) (bool, error) {
	_, ok := r.x.t.reports[pair{adID, reporterID}]
	return ok, nil
}

func (r *reportRepo) Create(_ context.Context, rep *model.Report) error {
	k := pair{rep.AdID, rep.ReporterID}
	if _, ok := r.x.t.reports[k]; ok {
		return repository.ErrDuplicate
	}
	rep.ID = r.x.t.nextID()
	r.x.stamp(&rep.CreatedAt)
	r.x.t.reports[k] = *rep
	return nil
}

func (r *reportRepo) CountDistinctReporters(_ context.Context, adID uint64) (int64, error) {
	var n int64
	for k := range r.x.t.reports {
		if k.a == adID {
			n++
		}
	}
	return n, nil
}

func (r *reportRepo) DeleteByAd(_ context.Context, adID uint64) error {
	for k := range r.x.t.reports {
		if k.a == adID {
			delete(r.x.t.reports, k)
		}
	}
	return nil
}
