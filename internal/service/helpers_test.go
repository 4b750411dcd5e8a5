package service

import (
	"context"
	"fmt"
	"testing"

	"Neighbor_Board/internal/config"
	"Neighbor_Board/internal/model"
	"Neighbor_Board/internal/pkg"
	"Neighbor_Board/internal/repository"
	"Neighbor_Board/internal/repository/memory"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	store       *memory.Store
	ads         *AdService
	reports     *ReportService
	communities *CommunityService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	log := zap.NewNop()
	reports, err := NewReportService(store, config.DefaultModeration(), log)
	require.NoError(t, err)
	return &fixture{
		store:       store,
		ads:         NewAdService(store, log),
		reports:     reports,
		communities: NewCommunityService(store, NewAdminElector(log), pkg.NewAccessCodeGenerator(nil), log),
	}
}

// community 由 creator 创建公开社区，members 通过邀请码加入
func (f *fixture) community(t *testing.T, creator uint64, members ...uint64) *model.Community {
	t.Helper()
	ctx := context.Background()
	c, err := f.communities.Create(ctx, creator, "Elm Street", false, "")
	require.NoError(t, err)
	for _, uid := range members {
		_, err = f.communities.JoinByAccessCode(ctx, uid, c.AccessCode)
		require.NoError(t, err)
	}
	return c
}

func (f *fixture) privateCommunity(t *testing.T, creator uint64) *model.Community {
	t.Helper()
	c, err := f.communities.Create(context.Background(), creator, "Oak Court", true, "")
	require.NoError(t, err)
	return c
}

func (f *fixture) ad(t *testing.T, communityID, owner uint64) *model.Ad {
	t.Helper()
	d, err := f.ads.Create(context.Background(), owner, AdInput{
		CommunityID: communityID,
		Title:       "Bike",
		Type:        model.AdTypeSale,
	})
	require.NoError(t, err)
	return &d.Ad
}

func (f *fixture) recommendation(t *testing.T, communityID, owner uint64) *model.Ad {
	t.Helper()
	d, err := f.ads.Create(context.Background(), owner, AdInput{
		CommunityID:        communityID,
		Title:              "Great plumber",
		Type:               model.AdTypeRecommendation,
		RecommendedContact: "Joe 555-0101",
		ServiceType:        "plumbing",
	})
	require.NoError(t, err)
	return &d.Ad
}

// read 在独立事务中读取仓储状态
func (f *fixture) read(t *testing.T, fn func(r *repository.Repos)) {
	t.Helper()
	require.NoError(t, f.store.Transaction(context.Background(), func(r *repository.Repos) error {
		fn(r)
		return nil
	}))
}

func (f *fixture) loadAd(t *testing.T, id uint64) *model.Ad {
	t.Helper()
	var ad *model.Ad
	f.read(t, func(r *repository.Repos) {
		var err error
		ad, err = r.Ads.FindByID(context.Background(), id)
		require.NoError(t, err)
	})
	return ad
}

func (f *fixture) admins(t *testing.T, communityID uint64) []uint64 {
	t.Helper()
	var ids []uint64
	f.read(t, func(r *repository.Repos) {
		var err error
		ids, err = r.Admins.ListUserIDs(context.Background(), communityID)
		require.NoError(t, err)
	})
	return ids
}

func (f *fixture) members(t *testing.T, communityID uint64) []uint64 {
	t.Helper()
	var ids []uint64
	f.read(t, func(r *repository.Repos) {
		var err error
		ids, err = r.Members.ListUserIDs(context.Background(), communityID)
		require.NoError(t, err)
	})
	return ids
}

// fixedCodes 按顺序返回预设的邀请码
type fixedCodes struct {
	codes []string
	i     int
}

func (g *fixedCodes) Next() (string, error) {
	if g.i >= len(g.codes) {
		return "", fmt.Errorf("no more codes")
	}
	c := g.codes[g.i]
	g.i++
	return c, nil
}
