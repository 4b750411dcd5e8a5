package service

import (
	"context"
	"errors"
	"testing"

	"Neighbor_Board/internal/model"
	"Neighbor_Board/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPauseUnpause(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.community(t, 1, 2)
	ad := f.ad(t, c.ID, 2)

	got, err := f.ads.Pause(ctx, ad.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, model.AdStatusPaused, got.Status)

	_, err = f.ads.Pause(ctx, ad.ID, 2)
	assert.ErrorIs(t, err, ErrInvalidState)

	got, err = f.ads.Unpause(ctx, ad.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, model.AdStatusActive, got.Status)

	_, err = f.ads.Unpause(ctx, ad.ID, 2)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestLifecycleRequiresOwner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.community(t, 1, 2)
	ad := f.ad(t, c.ID, 2)

	_, err := f.ads.Pause(ctx, ad.ID, 1)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.ads.Close(ctx, ad.ID, 1)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, f.ads.Delete(ctx, ad.ID, 1), ErrForbidden)

	_, err = f.ads.Pause(ctx, 999, 2)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUnpauseBlockedByModerationHold(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.community(t, 1, 2, 3, 4)
	ad := f.ad(t, c.ID, 1)

	for _, reporter := range []uint64{2, 3} {
		_, err := f.reports.SubmitReport(ctx, ad.ID, reporter, model.ReasonSpam)
		require.NoError(t, err)
	}

	_, err := f.ads.Unpause(ctx, ad.ID, 1)
	assert.ErrorIs(t, err, ErrSuspended)
	assert.Equal(t, model.AdStatusPaused, f.loadAd(t, ad.ID).Status)

	// 发布者仍可关闭被挂起的广告
	got, err := f.ads.Close(ctx, ad.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, model.AdStatusClosed, got.Status)
}

func TestCloseAndEditRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.community(t, 1)
	ad := f.ad(t, c.ID, 1)

	edited, err := f.ads.Edit(ctx, ad.ID, 1, AdInput{Title: "Red bike", ImageURLs: []string{"a.jpg"}})
	require.NoError(t, err)
	assert.Equal(t, "Red bike", edited.Title)
	require.Len(t, edited.Images, 1)

	_, err = f.ads.Close(ctx, ad.ID, 1)
	require.NoError(t, err)

	_, err = f.ads.Close(ctx, ad.ID, 1)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = f.ads.Edit(ctx, ad.ID, 1, AdInput{Title: "Blue bike"})
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = f.ads.Unpause(ctx, ad.ID, 1)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestRemovedAdIsTerminalForOwner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.community(t, 1, 2, 3, 4, 5, 6)
	ad := f.ad(t, c.ID, 1)
	for _, reporter := range []uint64{2, 3, 4, 5} {
		_, err := f.reports.SubmitReport(ctx, ad.ID, reporter, model.ReasonFraud)
		require.NoError(t, err)
	}

	_, err := f.ads.Close(ctx, ad.ID, 1)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.ads.Edit(ctx, ad.ID, 1, AdInput{Title: "again"})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.ads.Pause(ctx, ad.ID, 1)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = f.ads.Unpause(ctx, ad.ID, 1)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.ErrorIs(t, f.ads.Delete(ctx, ad.ID, 1), ErrInvalidState)

	// 只有发布者能看到
	_, err = f.ads.Get(ctx, ad.ID, 6)
	assert.ErrorIs(t, err, ErrNotFound)
	own, err := f.ads.Get(ctx, ad.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, model.AdStatusRemoved, own.Status)

	list, err := f.ads.ListByCommunity(ctx, c.ID, 6, nil, repository.Page{})
	require.NoError(t, err)
	assert.Empty(t, list)
	mine, err := f.ads.ListMine(ctx, 1, 0, repository.Page{})
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestDeleteOnlyFromClosedCascades(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.community(t, 1, 2, 3)
	ad := f.recommendation(t, c.ID, 1)

	require.NoError(t, f.ads.SetReaction(ctx, ad.ID, 2, 5))
	comment, err := f.ads.CreateComment(ctx, ad.ID, 2, "Fixed my sink fast")
	require.NoError(t, err)
	liked, err := f.ads.ToggleCommentLike(ctx, ad.ID, comment.ID, 3)
	require.NoError(t, err)
	assert.True(t, liked)
	_, err = f.reports.SubmitReport(ctx, ad.ID, 3, model.ReasonOther)
	require.NoError(t, err)

	assert.ErrorIs(t, f.ads.Delete(ctx, ad.ID, 1), ErrInvalidState)

	_, err = f.ads.Close(ctx, ad.ID, 1)
	require.NoError(t, err)
	require.NoError(t, f.ads.Delete(ctx, ad.ID, 1))

	f.read(t, func(r *repository.Repos) {
		_, err := r.Ads.FindByID(ctx, ad.ID)
		assert.ErrorIs(t, err, repository.ErrRecordNotFound)
		_, err = r.Assets.FindComment(ctx, comment.ID)
		assert.ErrorIs(t, err, repository.ErrRecordNotFound)
		n, err := r.Reports.CountDistinctReporters(ctx, ad.ID)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

var errBoom = errors.New("boom")

// brokenStore 让删除图片这一步失败
type brokenStore struct {
	repository.Store
}

type brokenAssets struct {
	repository.AdAssetRepository
}

func (brokenAssets) DeleteImagesByAd(context.Context, uint64) error { return errBoom }

func (s brokenStore) Transaction(ctx context.Context, fn func(r *repository.Repos) error) error {
	return s.Store.Transaction(ctx, func(r *repository.Repos) error {
		r.Assets = brokenAssets{AdAssetRepository: r.Assets}
		return fn(r)
	})
}

func TestDeleteRollsBackOnPartialFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.community(t, 1, 2)
	ad := f.recommendation(t, c.ID, 1)
	comment, err := f.ads.CreateComment(ctx, ad.ID, 2, "Recommended")
	require.NoError(t, err)
	_, err = f.ads.Close(ctx, ad.ID, 1)
	require.NoError(t, err)

	broken := NewAdService(brokenStore{Store: f.store}, zap.NewNop())
	assert.ErrorIs(t, broken.Delete(ctx, ad.ID, 1), errBoom)

	// 评论在失败步骤之前已被删除，回滚后必须仍在
	f.read(t, func(r *repository.Repos) {
		_, err := r.Ads.FindByID(ctx, ad.ID)
		assert.NoError(t, err)
		_, err = r.Assets.FindComment(ctx, comment.ID)
		assert.NoError(t, err)
	})
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.community(t, 1)
	price := int64(500)

	_, err := f.ads.Create(ctx, 1, AdInput{CommunityID: c.ID, Title: " ", Type: model.AdTypeSale})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.ads.Create(ctx, 1, AdInput{CommunityID: c.ID, Title: "x", Type: "BARTER"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.ads.Create(ctx, 1, AdInput{CommunityID: c.ID, Title: "x", Type: model.AdTypeSale,
		ImageURLs: []string{"1", "2", "3", "4", "5", "6"}})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.ads.Create(ctx, 1, AdInput{CommunityID: c.ID, Title: "x", Type: model.AdTypeRecommendation})
	assert.ErrorIs(t, err, ErrInvalidInput)

	donation, err := f.ads.Create(ctx, 1, AdInput{CommunityID: c.ID, Title: "Sofa", Type: model.AdTypeDonation, PriceCents: &price})
	require.NoError(t, err)
	assert.Nil(t, donation.PriceCents)

	_, err = f.ads.Create(ctx, 2, AdInput{CommunityID: c.ID, Title: "x", Type: model.AdTypeSale})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestReactionsAndComments(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.community(t, 1, 2, 3)
	rec := f.recommendation(t, c.ID, 1)
	sale := f.ad(t, c.ID, 1)

	assert.ErrorIs(t, f.ads.SetReaction(ctx, rec.ID, 1, 4), ErrForbidden)
	assert.ErrorIs(t, f.ads.SetReaction(ctx, rec.ID, 2, 6), ErrInvalidInput)
	assert.ErrorIs(t, f.ads.SetReaction(ctx, sale.ID, 2, 4), ErrInvalidInput)
	require.NoError(t, f.ads.SetReaction(ctx, rec.ID, 2, 4))
	require.NoError(t, f.ads.SetReaction(ctx, rec.ID, 2, 2))
	require.NoError(t, f.ads.RemoveReaction(ctx, rec.ID, 2))

	comment, err := f.ads.CreateComment(ctx, rec.ID, 2, "ok")
	require.NoError(t, err)

	_, err = f.ads.ToggleCommentLike(ctx, rec.ID, comment.ID, 2)
	assert.ErrorIs(t, err, ErrForbidden)
	liked, err := f.ads.ToggleCommentLike(ctx, rec.ID, comment.ID, 3)
	require.NoError(t, err)
	assert.True(t, liked)
	liked, err = f.ads.ToggleCommentLike(ctx, rec.ID, comment.ID, 3)
	require.NoError(t, err)
	assert.False(t, liked)

	assert.ErrorIs(t, f.ads.DeleteComment(ctx, rec.ID, comment.ID, 3), ErrForbidden)
	assert.ErrorIs(t, f.ads.DeleteComment(ctx, sale.ID, comment.ID, 2), ErrNotFound)
	require.NoError(t, f.ads.DeleteComment(ctx, rec.ID, comment.ID, 2))
}
