package service

import (
	"context"
	"testing"

	"Neighbor_Board/internal/model"
	"Neighbor_Board/internal/pkg"
	"Neighbor_Board/internal/repository"
	"Neighbor_Board/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLeaveElectsMostActiveMember(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.community(t, 1, 2, 3)
	for i := 0; i < 5; i++ {
		f.ad(t, c.ID, 2)
	}
	for i := 0; i < 2; i++ {
		f.ad(t, c.ID, 3)
	}

	require.NoError(t, f.communities.Leave(ctx, 1, c.ID))
	assert.Equal(t, []uint64{2, 3}, f.members(t, c.ID))
	assert.Equal(t, []uint64{2}, f.admins(t, c.ID))
}

func TestElectionTieBreaksOnLowestID(t *testing.T) {
	run := func() []uint64 {
		ctx := context.Background()
		f := newFixture(t)
		c := f.community(t, 1, 9, 4, 7)
		f.ad(t, c.ID, 9)
		f.ad(t, c.ID, 7)
		require.NoError(t, f.communities.Leave(ctx, 1, c.ID))
		return f.admins(t, c.ID)
	}
	first := run()
	assert.Equal(t, []uint64{7}, first)
	assert.Equal(t, first, run())
}

func TestElectionWithZeroActivity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.community(t, 5, 8, 6)
	require.NoError(t, f.communities.Leave(ctx, 5, c.ID))
	assert.Equal(t, []uint64{6}, f.admins(t, c.ID))
}

func TestLastMemberLeavesWithoutError(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.community(t, 1)
	require.NoError(t, f.communities.Leave(ctx, 1, c.ID))
	assert.Empty(t, f.members(t, c.ID))
	assert.Empty(t, f.admins(t, c.ID))

	assert.ErrorIs(t, f.communities.Leave(ctx, 1, c.ID), ErrForbidden)
}

func TestLeaveNonAdminKeepsAdmins(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.community(t, 1, 2)
	require.NoError(t, f.communities.Leave(ctx, 2, c.ID))
	assert.Equal(t, []uint64{1}, f.admins(t, c.ID))
}

func TestRelinquishKeepsDepartingAsCandidate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.community(t, 1, 2)
	f.ad(t, c.ID, 1)
	f.ad(t, c.ID, 1)
	f.ad(t, c.ID, 2)

	elected, err := f.communities.RelinquishAdmin(ctx, c.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), elected)
	assert.Equal(t, []uint64{1}, f.admins(t, c.ID))
	assert.Equal(t, []uint64{1, 2}, f.members(t, c.ID))
}

func TestRelinquishWithOtherAdminsSkipsElection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.community(t, 1, 2)
	require.NoError(t, f.communities.AddAdmin(ctx, c.ID, 2, 1))

	elected, err := f.communities.RelinquishAdmin(ctx, c.ID, 1)
	require.NoError(t, err)
	assert.Zero(t, elected)
	assert.Equal(t, []uint64{2}, f.admins(t, c.ID))

	_, err = f.communities.RelinquishAdmin(ctx, c.ID, 1)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAddAdmin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.community(t, 1, 2)

	assert.ErrorIs(t, f.communities.AddAdmin(ctx, c.ID, 1, 2), ErrForbidden)
	assert.ErrorIs(t, f.communities.AddAdmin(ctx, c.ID, 42, 1), ErrNotFound)
	require.NoError(t, f.communities.AddAdmin(ctx, c.ID, 2, 1))
	assert.ErrorIs(t, f.communities.AddAdmin(ctx, c.ID, 2, 1), ErrInvalidState)
	assert.Equal(t, []uint64{1, 2}, f.admins(t, c.ID))
}

func TestPublicJoin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.community(t, 1)

	res, err := f.communities.JoinByAccessCode(ctx, 2, " "+c.AccessCode+" ")
	require.NoError(t, err)
	assert.False(t, res.Pending)
	assert.Equal(t, c.ID, res.Community.ID)

	_, err = f.communities.JoinByAccessCode(ctx, 2, c.AccessCode)
	assert.ErrorIs(t, err, ErrAlreadyMember)
	_, err = f.communities.JoinByAccessCode(ctx, 2, "NOPE2345")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPrivateJoinWorkflow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.privateCommunity(t, 1)

	first, err := f.communities.JoinByAccessCode(ctx, 5, c.AccessCode)
	require.NoError(t, err)
	require.True(t, first.Pending)
	assert.Equal(t, model.JoinPending, first.Request.Status)
	assert.Equal(t, []uint64{1}, f.members(t, c.ID))

	_, err = f.communities.JoinByAccessCode(ctx, 5, c.AccessCode)
	assert.ErrorIs(t, err, ErrDuplicatePendingRequest)

	rejected, err := f.communities.Reject(ctx, c.ID, first.Request.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, model.JoinRejected, rejected.Status)
	assert.Equal(t, []uint64{1}, f.members(t, c.ID))

	_, err = f.communities.Approve(ctx, c.ID, first.Request.ID, 1)
	assert.ErrorIs(t, err, ErrAlreadyProcessed)

	second, err := f.communities.JoinByAccessCode(ctx, 5, c.AccessCode)
	require.NoError(t, err)
	require.True(t, second.Pending)
	assert.NotEqual(t, first.Request.ID, second.Request.ID)

	pending, err := f.communities.ListPendingRequests(ctx, c.ID, 1)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.Request.ID, pending[0].ID)

	approved, err := f.communities.Approve(ctx, c.ID, second.Request.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, model.JoinApproved, approved.Status)
	assert.Equal(t, []uint64{1, 5}, f.members(t, c.ID))

	_, err = f.communities.Reject(ctx, c.ID, second.Request.ID, 1)
	assert.ErrorIs(t, err, ErrAlreadyProcessed)
	_, err = f.communities.JoinByAccessCode(ctx, 5, c.AccessCode)
	assert.ErrorIs(t, err, ErrAlreadyMember)
}

func TestResolvePreconditions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.privateCommunity(t, 1)
	other := f.privateCommunity(t, 2)

	res, err := f.communities.JoinByAccessCode(ctx, 5, c.AccessCode)
	require.NoError(t, err)

	_, err = f.communities.Approve(ctx, c.ID, res.Request.ID, 5)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.communities.Approve(ctx, other.ID, res.Request.ID, 2)
	assert.ErrorIs(t, err, ErrWrongCommunity)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.communities.Reject(ctx, c.ID, 777, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.communities.ListPendingRequests(ctx, c.ID, 5)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAccessCodeFromInjectedSource(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	log := zap.NewNop()
	codes := &fixedCodes{codes: []string{"AAAA2222", "AAAA2222", "BBBB3333", "CCCC4444"}}
	for i := 0; i < accessCodeTries; i++ {
		codes.codes = append(codes.codes, "CCCC4444")
	}
	svc := NewCommunityService(store, NewAdminElector(log), codes, log)

	first, err := svc.Create(ctx, 1, "First", false, "75-001")
	require.NoError(t, err)
	assert.Equal(t, "AAAA2222", first.AccessCode)
	assert.Equal(t, "75001", first.PostalCode)

	// 冲突时继续取下一个
	second, err := svc.Create(ctx, 1, "Second", false, "")
	require.NoError(t, err)
	assert.Equal(t, "BBBB3333", second.AccessCode)

	code, err := svc.RegenerateAccessCode(ctx, second.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "CCCC4444", code)

	_, err = svc.RegenerateAccessCode(ctx, second.ID, 2)
	assert.ErrorIs(t, err, ErrForbidden)

	// 只剩已占用的码，重试用尽后放弃，原码不变
	_, err = svc.RegenerateAccessCode(ctx, second.ID, 1)
	assert.ErrorIs(t, err, ErrAccessCodeExhausted)
	assert.True(t, IsKind(err))
	detail, err := svc.Get(ctx, second.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "CCCC4444", detail.AccessCode)
}

func TestCommunityQueries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.community(t, 1, 2)
	b := f.community(t, 2)

	renamed, err := f.communities.Rename(ctx, a.ID, 1, "  Maple Row ")
	require.NoError(t, err)
	assert.Equal(t, "Maple Row", renamed.Name)
	_, err = f.communities.Rename(ctx, a.ID, 2, "x")
	assert.ErrorIs(t, err, ErrForbidden)

	asMember, err := f.communities.Get(ctx, a.ID, 2)
	require.NoError(t, err)
	assert.False(t, asMember.IsAdmin)
	assert.Equal(t, []uint64{1, 2}, asMember.MemberIDs)
	assert.Nil(t, asMember.AdminIDs)

	asAdmin, err := f.communities.Get(ctx, a.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1}, asAdmin.AdminIDs)

	_, err = f.communities.Get(ctx, b.ID, 1)
	assert.ErrorIs(t, err, ErrForbidden)

	mine, err := f.communities.ListMine(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	administered, err := f.communities.ListAdministered(ctx, 2)
	require.NoError(t, err)
	require.Len(t, administered, 1)
	assert.Equal(t, b.ID, administered[0].ID)
}

// traceStore 记录社区行锁和成员/管理员写入的先后顺序
type traceStore struct {
	repository.Store
	calls *[]string
}

type traceCommunities struct {
	repository.CommunityRepository
	calls *[]string
}

func (c traceCommunities) FindByIDForUpdate(ctx context.Context, id uint64) (*model.Community, error) {
	*c.calls = append(*c.calls, "lock")
	return c.CommunityRepository.FindByIDForUpdate(ctx, id)
}

type traceMembers struct {
	repository.MemberRepository
	calls *[]string
}

func (m traceMembers) Add(ctx context.Context, communityID, userID uint64) (bool, error) {
	*m.calls = append(*m.calls, "member.add")
	return m.MemberRepository.Add(ctx, communityID, userID)
}

func (m traceMembers) Remove(ctx context.Context, communityID, userID uint64) (bool, error) {
	*m.calls = append(*m.calls, "member.remove")
	return m.MemberRepository.Remove(ctx, communityID, userID)
}

type traceAdmins struct {
	repository.AdminRepository
	calls *[]string
}

func (a traceAdmins) Add(ctx context.Context, communityID, userID uint64) (bool, error) {
	*a.calls = append(*a.calls, "admin.add")
	return a.AdminRepository.Add(ctx, communityID, userID)
}

func (a traceAdmins) Remove(ctx context.Context, communityID, userID uint64) (bool, error) {
	*a.calls = append(*a.calls, "admin.remove")
	return a.AdminRepository.Remove(ctx, communityID, userID)
}

func (s traceStore) Transaction(ctx context.Context, fn func(r *repository.Repos) error) error {
	return s.Store.Transaction(ctx, func(r *repository.Repos) error {
		r.Communities = traceCommunities{CommunityRepository: r.Communities, calls: s.calls}
		r.Members = traceMembers{MemberRepository: r.Members, calls: s.calls}
		r.Admins = traceAdmins{AdminRepository: r.Admins, calls: s.calls}
		return fn(r)
	})
}

func TestMembershipChangesLockCommunityFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.community(t, 1, 2, 3)
	p := f.privateCommunity(t, 1)
	pending, err := f.communities.JoinByAccessCode(ctx, 6, p.AccessCode)
	require.NoError(t, err)

	var calls []string
	log := zap.NewNop()
	svc := NewCommunityService(traceStore{Store: f.store, calls: &calls}, NewAdminElector(log), pkg.NewAccessCodeGenerator(nil), log)

	cases := []struct {
		name string
		run  func() error
		want []string
	}{
		{"join", func() error {
			_, err := svc.JoinByAccessCode(ctx, 4, c.AccessCode)
			return err
		}, []string{"lock", "member.add"}},
		{"add admin", func() error { return svc.AddAdmin(ctx, c.ID, 2, 1) }, []string{"lock", "admin.add"}},
		{"relinquish", func() error {
			_, err := svc.RelinquishAdmin(ctx, c.ID, 2)
			return err
		}, []string{"lock", "admin.remove"}},
		{"leave last admin", func() error { return svc.Leave(ctx, 1, c.ID) },
			[]string{"lock", "member.remove", "admin.remove", "admin.add"}},
		{"approve", func() error {
			_, err := svc.Approve(ctx, p.ID, pending.Request.ID, 1)
			return err
		}, []string{"lock", "member.add"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			calls = calls[:0]
			require.NoError(t, tc.run())
			assert.Equal(t, tc.want, calls)
		})
	}
	assert.Equal(t, []uint64{2}, f.admins(t, c.ID))
}
