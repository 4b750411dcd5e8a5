package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"Neighbor_Board/internal/model"
	"Neighbor_Board/internal/repository"

	"go.uber.org/zap"
)

const (
	MaxAdImages   = 5
	maxTitleLen   = 200
	maxCommentLen = 2000
)

// AdService 广告生命周期：只有发布者能暂停、恢复、关闭、删除
type AdService struct {
	store repository.Store
	log   *zap.Logger
}

func NewAdService(store repository.Store, log *zap.Logger) *AdService {
	return &AdService{store: store, log: log}
}

type AdInput struct {
	CommunityID        uint64
	Title              string
	Description        string
	Type               model.AdType
	PriceCents         *int64
	RecommendedContact string
	ServiceType        string
	ImageURLs          []string
}

type AdDetail struct {
	model.Ad
	Images []model.AdImage `json:"images"`
}

// normalize 按类型校验内容字段，与状态机无关
func (in *AdInput) normalize(typ model.AdType) error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" || utf8.RuneCountInString(in.Title) > maxTitleLen {
		return invalid("title must be 1..%d characters", maxTitleLen)
	}
	if !typ.Valid() {
		return invalid("unknown ad type %q", typ)
	}
	if len(in.ImageURLs) > MaxAdImages {
		return invalid("at most %d images", MaxAdImages)
	}
	if !typ.HasPrice() {
		in.PriceCents = nil
	} else if in.PriceCents != nil && *in.PriceCents < 0 {
		return invalid("price must not be negative")
	}
	if typ == model.AdTypeRecommendation {
		if len(in.ImageURLs) > 0 {
			return invalid("recommendations have no images")
		}
		in.RecommendedContact = strings.TrimSpace(in.RecommendedContact)
		in.ServiceType = strings.TrimSpace(in.ServiceType)
		if in.RecommendedContact == "" || in.ServiceType == "" {
			return invalid("recommendations need a contact and a service type")
		}
	}
	return nil
}

func (s *AdService) Create(ctx context.Context, userID uint64, in AdInput) (*AdDetail, error) {
	if err := in.normalize(in.Type); err != nil {
		return nil, err
	}
	var out *AdDetail
	err := s.store.Transaction(ctx, func(r *repository.Repos) error {
		if _, err := r.Communities.FindByID(ctx, in.CommunityID); err != nil {
			return notFound(err, "community")
		}
		if err := requireMember(ctx, r, in.CommunityID, userID); err != nil {
			return err
		}
		ad := &model.Ad{
			CommunityID:        in.CommunityID,
			UserID:             userID,
			Title:              in.Title,
			Description:        in.Description,
			Type:               in.Type,
			PriceCents:         in.PriceCents,
			Status:             model.AdStatusActive,
			RecommendedContact: in.RecommendedContact,
			ServiceType:        in.ServiceType,
		}
		if err := r.Ads.Create(ctx, ad); err != nil {
			return err
		}
		if len(in.ImageURLs) > 0 {
			if err := r.Assets.AddImages(ctx, ad.ID, in.ImageURLs); err != nil {
				return err
			}
		}
		images, err := r.Assets.ListImages(ctx, ad.ID)
		if err != nil {
			return err
		}
		out = &AdDetail{Ad: *ad, Images: images}
		return emit(ctx, r, model.EventAdCreated, ad.CommunityID, userID, ad.ID, map[string]any{"type": ad.Type})
	})
	return out, err
}

// Get REMOVED 的广告只有发布者可见
func (s *AdService) Get(ctx context.Context, adID, userID uint64) (*AdDetail, error) {
	var out *AdDetail
	err := s.store.Transaction(ctx, func(r *repository.Repos) error {
		ad, err := visibleAd(ctx, r, adID, userID)
		if err != nil {
			return err
		}
		images, err := r.Assets.ListImages(ctx, ad.ID)
		if err != nil {
			return err
		}
		out = &AdDetail{Ad: *ad, Images: images}
		return nil
	})
	return out, err
}

// ListByCommunity 社区内只展示 ACTIVE
func (s *AdService) ListByCommunity(ctx context.Context, communityID, userID uint64, types []model.AdType, page repository.Page) ([]model.Ad, error) {
	for _, t := range types {
		if !t.Valid() {
			return nil, invalid("unknown ad type %q", t)
		}
	}
	var list []model.Ad
	err := s.store.Transaction(ctx, func(r *repository.Repos) error {
		if err := requireMember(ctx, r, communityID, userID); err != nil {
			return err
		}
		var err error
		list, err = r.Ads.ListByCommunity(ctx, communityID, model.AdStatusActive, types, clampPage(page))
		return err
	})
	return list, err
}

// ListMine 自己的广告，任意状态；communityID=0 表示全部社区
func (s *AdService) ListMine(ctx context.Context, userID, communityID uint64, page repository.Page) ([]model.Ad, error) {
	var list []model.Ad
	err := s.store.Transaction(ctx, func(r *repository.Repos) error {
		var err error
		list, err = r.Ads.ListByUser(ctx, userID, communityID, clampPage(page))
		return err
	})
	return list, err
}

// Edit CLOSED 不能再编辑，REMOVED 被举报下架
func (s *AdService) Edit(ctx context.Context, adID, userID uint64, in AdInput) (*AdDetail, error) {
	var out *AdDetail
	err := s.store.Transaction(ctx, func(r *repository.Repos) error {
		ad, err := ownedAd(ctx, r, adID, userID)
		if err != nil {
			return err
		}
		switch ad.Status {
		case model.AdStatusRemoved:
			return fmt.Errorf("%w: ad removed by reports", ErrForbidden)
		case model.AdStatusClosed:
			return fmt.Errorf("%w: closed ads cannot be edited", ErrInvalidState)
		}
		if err := in.normalize(ad.Type); err != nil {
			return err
		}
		ad.Title = in.Title
		ad.Description = in.Description
		ad.PriceCents = in.PriceCents
		ad.RecommendedContact = in.RecommendedContact
		ad.ServiceType = in.ServiceType
		if err := r.Ads.Save(ctx, ad); err != nil {
			return err
		}
		// ImageURLs 为 nil 表示不修改图片
		if in.ImageURLs != nil {
			if err := r.Assets.DeleteImagesByAd(ctx, ad.ID); err != nil {
				return err
			}
			if len(in.ImageURLs) > 0 {
				if err := r.Assets.AddImages(ctx, ad.ID, in.ImageURLs); err != nil {
					return err
				}
			}
		}
		images, err := r.Assets.ListImages(ctx, ad.ID)
		if err != nil {
			return err
		}
		out = &AdDetail{Ad: *ad, Images: images}
		return nil
	})
	return out, err
}

func (s *AdService) Pause(ctx context.Context, adID, userID uint64) (*model.Ad, error) {
	return s.transition(ctx, adID, userID, func(ad *model.Ad) error {
		if ad.Status != model.AdStatusActive {
			return fmt.Errorf("%w: only active ads can be paused", ErrInvalidState)
		}
		ad.Status = model.AdStatusPaused
		return nil
	})
}

// Unpause 被举报暂停的广告需要人工审核解除，发布者不能自行恢复
func (s *AdService) Unpause(ctx context.Context, adID, userID uint64) (*model.Ad, error) {
	return s.transition(ctx, adID, userID, func(ad *model.Ad) error {
		if ad.Status != model.AdStatusPaused {
			return fmt.Errorf("%w: only paused ads can be unpaused", ErrInvalidState)
		}
		if ad.SuspendedByReportsAt != nil {
			return fmt.Errorf("%w: ad is under review", ErrSuspended)
		}
		ad.Status = model.AdStatusActive
		return nil
	})
}

func (s *AdService) Close(ctx context.Context, adID, userID uint64) (*model.Ad, error) {
	return s.transition(ctx, adID, userID, func(ad *model.Ad) error {
		switch ad.Status {
		case model.AdStatusRemoved:
			return fmt.Errorf("%w: ad removed by reports", ErrForbidden)
		case model.AdStatusActive, model.AdStatusPaused:
			ad.Status = model.AdStatusClosed
			return nil
		}
		return fmt.Errorf("%w: ad already closed", ErrInvalidState)
	})
}

// transition 发布者触发的状态变更，suspendedByReportsAt 不在这里修改
func (s *AdService) transition(ctx context.Context, adID, userID uint64, apply func(ad *model.Ad) error) (*model.Ad, error) {
	var out *model.Ad
	err := s.store.Transaction(ctx, func(r *repository.Repos) error {
		ad, err := ownedAd(ctx, r, adID, userID)
		if err != nil {
			return err
		}
		if err = apply(ad); err != nil {
			return err
		}
		if err = r.Ads.UpdateStatus(ctx, ad.ID, ad.Status, ad.SuspendedByReportsAt); err != nil {
			return err
		}
		out = ad
		return nil
	})
	return out, err
}

// Delete 只能删除 CLOSED 的广告，从属数据按顺序清理，任何一步失败整体回滚
func (s *AdService) Delete(ctx context.Context, adID, userID uint64) error {
	return s.store.Transaction(ctx, func(r *repository.Repos) error {
		ad, err := ownedAd(ctx, r, adID, userID)
		if err != nil {
			return err
		}
		if ad.Status != model.AdStatusClosed {
			return fmt.Errorf("%w: only closed ads can be deleted", ErrInvalidState)
		}
		steps := []func(context.Context, uint64) error{
			r.Assets.DeleteCommentLikesByAd,
			r.Assets.DeleteCommentsByAd,
			r.Assets.DeleteReactionsByAd,
			r.Assets.DeleteImagesByAd,
			r.Reports.DeleteByAd,
			r.Ads.Delete,
		}
		for _, step := range steps {
			if err := step(ctx, ad.ID); err != nil {
				return err
			}
		}
		return emit(ctx, r, model.EventAdDeleted, ad.CommunityID, userID, ad.ID, nil)
	})
}

// SetReaction 推荐类广告评分 1..5，每人一条
func (s *AdService) SetReaction(ctx context.Context, adID, userID uint64, rating int) error {
	if rating < 1 || rating > 5 {
		return invalid("rating must be 1..5")
	}
	return s.store.Transaction(ctx, func(r *repository.Repos) error {
		ad, err := recommendation(ctx, r, adID, userID)
		if err != nil {
			return err
		}
		if ad.UserID == userID {
			return fmt.Errorf("%w: cannot rate your own recommendation", ErrForbidden)
		}
		return r.Assets.UpsertReaction(ctx, ad.ID, userID, rating)
	})
}

func (s *AdService) RemoveReaction(ctx context.Context, adID, userID uint64) error {
	return s.store.Transaction(ctx, func(r *repository.Repos) error {
		ad, err := recommendation(ctx, r, adID, userID)
		if err != nil {
			return err
		}
		return r.Assets.DeleteReaction(ctx, ad.ID, userID)
	})
}

func (s *AdService) CreateComment(ctx context.Context, adID, userID uint64, text string) (*model.AdComment, error) {
	text = strings.TrimSpace(text)
	if text == "" || utf8.RuneCountInString(text) > maxCommentLen {
		return nil, invalid("comment must be 1..%d characters", maxCommentLen)
	}
	var out *model.AdComment
	err := s.store.Transaction(ctx, func(r *repository.Repos) error {
		ad, err := recommendation(ctx, r, adID, userID)
		if err != nil {
			return err
		}
		c := &model.AdComment{AdID: ad.ID, UserID: userID, Text: text}
		if err = r.Assets.CreateComment(ctx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	return out, err
}

// DeleteComment 只有作者能删除，先清理点赞
func (s *AdService) DeleteComment(ctx context.Context, adID, commentID, userID uint64) error {
	return s.store.Transaction(ctx, func(r *repository.Repos) error {
		c, err := commentOf(ctx, r, adID, commentID)
		if err != nil {
			return err
		}
		if c.UserID != userID {
			return fmt.Errorf("%w: not the comment author", ErrForbidden)
		}
		if err = r.Assets.DeleteCommentLikes(ctx, c.ID); err != nil {
			return err
		}
		return r.Assets.DeleteComment(ctx, c.ID)
	})
}

// ToggleCommentLike 返回操作后是否处于点赞状态
func (s *AdService) ToggleCommentLike(ctx context.Context, adID, commentID, userID uint64) (bool, error) {
	var liked bool
	err := s.store.Transaction(ctx, func(r *repository.Repos) error {
		if _, err := recommendation(ctx, r, adID, userID); err != nil {
			return err
		}
		c, err := commentOf(ctx, r, adID, commentID)
		if err != nil {
			return err
		}
		if c.UserID == userID {
			return fmt.Errorf("%w: cannot like your own comment", ErrForbidden)
		}
		removed, err := r.Assets.DeleteCommentLike(ctx, c.ID, userID)
		if err != nil {
			return err
		}
		if removed {
			liked = false
			return nil
		}
		if err = r.Assets.AddCommentLike(ctx, c.ID, userID); err != nil {
			return err
		}
		liked = true
		return nil
	})
	return liked, err
}

func ownedAd(ctx context.Context, r *repository.Repos, adID, userID uint64) (*model.Ad, error) {
	ad, err := r.Ads.FindByIDForUpdate(ctx, adID)
	if err != nil {
		return nil, notFound(err, "ad")
	}
	if ad.UserID != userID {
		return nil, fmt.Errorf("%w: not the ad owner", ErrForbidden)
	}
	return ad, nil
}

func visibleAd(ctx context.Context, r *repository.Repos, adID, userID uint64) (*model.Ad, error) {
	ad, err := r.Ads.FindByID(ctx, adID)
	if err != nil {
		return nil, notFound(err, "ad")
	}
	if ad.UserID == userID {
		return ad, nil
	}
	if ad.Status == model.AdStatusRemoved {
		return nil, fmt.Errorf("%w: ad", ErrNotFound)
	}
	if err = requireMember(ctx, r, ad.CommunityID, userID); err != nil {
		return nil, err
	}
	return ad, nil
}

func recommendation(ctx context.Context, r *repository.Repos, adID, userID uint64) (*model.Ad, error) {
	ad, err := visibleAd(ctx, r, adID, userID)
	if err != nil {
		return nil, err
	}
	if ad.Type != model.AdTypeRecommendation {
		return nil, invalid("only recommendations accept reactions and comments")
	}
	if ad.UserID == userID {
		// 发布者本人也必须仍是成员
		if err = requireMember(ctx, r, ad.CommunityID, userID); err != nil {
			return nil, err
		}
	}
	return ad, nil
}

func commentOf(ctx context.Context, r *repository.Repos, adID, commentID uint64) (*model.AdComment, error) {
	c, err := r.Assets.FindComment(ctx, commentID)
	if err != nil {
		return nil, notFound(err, "comment")
	}
	if c.AdID != adID {
		return nil, fmt.Errorf("%w: comment", ErrNotFound)
	}
	return c, nil
}

func requireMember(ctx context.Context, r *repository.Repos, communityID, userID uint64) error {
	ok, err := r.Members.IsMember(ctx, communityID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: not a member of the community", ErrForbidden)
	}
	return nil
}

func clampPage(p repository.Page) repository.Page {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 || p.Limit > 100 {
		p.Limit = 20
	}
	return p
}
