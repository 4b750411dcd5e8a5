package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"Neighbor_Board/internal/model"
	"Neighbor_Board/internal/repository"

	"go.uber.org/zap"
)

const (
	maxCommunityName = 64
	accessCodeTries  = 10
)

// CodeGenerator 邀请码来源，生产环境为 pkg.AccessCodeGenerator
type CodeGenerator interface {
	Next() (string, error)
}

type CommunityService struct {
	store   repository.Store
	elector *AdminElector
	codes   CodeGenerator
	log     *zap.Logger
}

func NewCommunityService(store repository.Store, elector *AdminElector, codes CodeGenerator, log *zap.Logger) *CommunityService {
	return &CommunityService{store: store, elector: elector, codes: codes, log: log}
}

// JoinResult 私有社区返回待审核的申请，公开社区直接加入
type JoinResult struct {
	Community model.Community             `json:"community"`
	Pending   bool                        `json:"pending"`
	Request   *model.CommunityJoinRequest `json:"request,omitempty"`
}

type CommunityDetail struct {
	model.Community
	IsAdmin   bool     `json:"is_admin"`
	MemberIDs []uint64 `json:"member_ids"`
	AdminIDs  []uint64 `json:"admin_ids,omitempty"`
}

func (s *CommunityService) Create(ctx context.Context, userID uint64, name string, isPrivate bool, postalCode string) (*model.Community, error) {
	name, err := communityName(name)
	if err != nil {
		return nil, err
	}
	var out *model.Community
	err = s.store.Transaction(ctx, func(r *repository.Repos) error {
		code, err := s.uniqueCode(ctx, r)
		if err != nil {
			return err
		}
		c := &model.Community{
			Name:       name,
			AccessCode: code,
			IsPrivate:  isPrivate,
			PostalCode: digitsOnly(postalCode),
			CreatorID:  userID,
		}
		if err = r.Communities.Create(ctx, c); err != nil {
			return err
		}
		// 创建者即成员和管理员
		if _, err = r.Members.Add(ctx, c.ID, userID); err != nil {
			return err
		}
		if _, err = r.Admins.Add(ctx, c.ID, userID); err != nil {
			return err
		}
		out = c
		return emit(ctx, r, model.EventCommunityCreated, c.ID, userID, c.ID, map[string]any{"private": isPrivate})
	})
	return out, err
}

// JoinByAccessCode 公开社区直接加入，私有社区创建 PENDING 申请
func (s *CommunityService) JoinByAccessCode(ctx context.Context, userID uint64, accessCode string) (*JoinResult, error) {
	code := strings.ToUpper(strings.TrimSpace(accessCode))
	if code == "" {
		return nil, invalid("access code required")
	}
	var out *JoinResult
	err := s.store.Transaction(ctx, func(r *repository.Repos) error {
		found, err := r.Communities.FindByAccessCode(ctx, code)
		if err != nil {
			return notFound(err, "community")
		}
		c, err := r.Communities.FindByIDForUpdate(ctx, found.ID)
		if err != nil {
			return notFound(err, "community")
		}
		member, err := r.Members.IsMember(ctx, c.ID, userID)
		if err != nil {
			return err
		}
		if member {
			return ErrAlreadyMember
		}

		if !c.IsPrivate {
			if _, err = r.Members.Add(ctx, c.ID, userID); err != nil {
				return err
			}
			out = &JoinResult{Community: *c}
			return emit(ctx, r, model.EventMemberJoined, c.ID, userID, 0, nil)
		}

		pending, err := r.JoinRequests.ExistsPending(ctx, c.ID, userID)
		if err != nil {
			return err
		}
		if pending {
			return ErrDuplicatePendingRequest
		}
		req := &model.CommunityJoinRequest{CommunityID: c.ID, UserID: userID, Status: model.JoinPending}
		if err = r.JoinRequests.Create(ctx, req); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrDuplicatePendingRequest
			}
			return err
		}
		out = &JoinResult{Community: *c, Pending: true, Request: req}
		return emit(ctx, r, model.EventJoinRequested, c.ID, userID, req.ID, nil)
	})
	return out, err
}

// Leave 管理员离开时同时移除管理员身份，必要时选举继任者
func (s *CommunityService) Leave(ctx context.Context, userID, communityID uint64) error {
	return s.store.Transaction(ctx, func(r *repository.Repos) error {
		if _, err := r.Communities.FindByIDForUpdate(ctx, communityID); err != nil {
			return notFound(err, "community")
		}
		removed, err := r.Members.Remove(ctx, communityID, userID)
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("%w: not a member of the community", ErrForbidden)
		}
		if err = emit(ctx, r, model.EventMemberLeft, communityID, userID, 0, nil); err != nil {
			return err
		}
		wasAdmin, err := r.Admins.Remove(ctx, communityID, userID)
		if err != nil || !wasAdmin {
			return err
		}
		_, err = s.elector.EnsureAdmin(ctx, r, communityID, userID, true)
		return err
	})
}

// RelinquishAdmin 放弃管理员但保留成员身份，本人仍是候选人。返回新选出的管理员 id
func (s *CommunityService) RelinquishAdmin(ctx context.Context, communityID, userID uint64) (uint64, error) {
	var elected uint64
	err := s.store.Transaction(ctx, func(r *repository.Repos) error {
		if _, err := r.Communities.FindByIDForUpdate(ctx, communityID); err != nil {
			return notFound(err, "community")
		}
		removed, err := r.Admins.Remove(ctx, communityID, userID)
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("%w: not an admin of the community", ErrForbidden)
		}
		if err = emit(ctx, r, model.EventAdminRelinquished, communityID, userID, 0, nil); err != nil {
			return err
		}
		elected, err = s.elector.EnsureAdmin(ctx, r, communityID, userID, false)
		return err
	})
	return elected, err
}

func (s *CommunityService) AddAdmin(ctx context.Context, communityID, targetID, actingID uint64) error {
	return s.store.Transaction(ctx, func(r *repository.Repos) error {
		if _, err := requireAdmin(ctx, r, communityID, actingID); err != nil {
			return err
		}
		member, err := r.Members.IsMember(ctx, communityID, targetID)
		if err != nil {
			return err
		}
		if !member {
			return fmt.Errorf("%w: user is not a member", ErrNotFound)
		}
		added, err := r.Admins.Add(ctx, communityID, targetID)
		if err != nil {
			return err
		}
		if !added {
			return fmt.Errorf("%w: user is already an admin", ErrInvalidState)
		}
		return emit(ctx, r, model.EventAdminAdded, communityID, targetID, actingID, nil)
	})
}

func (s *CommunityService) ListPendingRequests(ctx context.Context, communityID, actingID uint64) ([]model.CommunityJoinRequest, error) {
	var list []model.CommunityJoinRequest
	err := s.store.Transaction(ctx, func(r *repository.Repos) error {
		if _, err := requireAdmin(ctx, r, communityID, actingID); err != nil {
			return err
		}
		var err error
		list, err = r.JoinRequests.ListPending(ctx, communityID)
		return err
	})
	return list, err
}

// Approve 加入成员并把申请置为 APPROVED
func (s *CommunityService) Approve(ctx context.Context, communityID, requestID, actingID uint64) (*model.CommunityJoinRequest, error) {
	return s.resolve(ctx, communityID, requestID, actingID, model.JoinApproved)
}

// Reject 只改状态，不授予成员身份；之后可以重新申请
func (s *CommunityService) Reject(ctx context.Context, communityID, requestID, actingID uint64) (*model.CommunityJoinRequest, error) {
	return s.resolve(ctx, communityID, requestID, actingID, model.JoinRejected)
}

func (s *CommunityService) resolve(ctx context.Context, communityID, requestID, actingID uint64, status model.JoinRequestStatus) (*model.CommunityJoinRequest, error) {
	var out *model.CommunityJoinRequest
	err := s.store.Transaction(ctx, func(r *repository.Repos) error {
		if _, err := requireAdmin(ctx, r, communityID, actingID); err != nil {
			return err
		}
		req, err := r.JoinRequests.FindByID(ctx, requestID)
		if err != nil {
			return notFound(err, "join request")
		}
		if req.CommunityID != communityID {
			return ErrWrongCommunity
		}
		if req.Status != model.JoinPending {
			return ErrAlreadyProcessed
		}
		// 条件更新，并发处理同一申请时只有一个成功
		ok, err := r.JoinRequests.Resolve(ctx, req.ID, status)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAlreadyProcessed
		}
		req.Status = status
		req.PendingKey = nil

		event := model.EventJoinRejected
		if status == model.JoinApproved {
			event = model.EventJoinApproved
			added, err := r.Members.Add(ctx, communityID, req.UserID)
			if err != nil {
				return err
			}
			if added {
				if err = emit(ctx, r, model.EventMemberJoined, communityID, req.UserID, req.ID, nil); err != nil {
					return err
				}
			}
		}
		out = req
		return emit(ctx, r, event, communityID, req.UserID, req.ID, map[string]any{"acting_admin": actingID})
	})
	return out, err
}

func (s *CommunityService) Rename(ctx context.Context, communityID, actingID uint64, name string) (*model.Community, error) {
	name, err := communityName(name)
	if err != nil {
		return nil, err
	}
	var out *model.Community
	err = s.store.Transaction(ctx, func(r *repository.Repos) error {
		c, err := requireAdmin(ctx, r, communityID, actingID)
		if err != nil {
			return err
		}
		c.Name = name
		if err = r.Communities.Save(ctx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	return out, err
}

func (s *CommunityService) RegenerateAccessCode(ctx context.Context, communityID, actingID uint64) (string, error) {
	var code string
	err := s.store.Transaction(ctx, func(r *repository.Repos) error {
		c, err := requireAdmin(ctx, r, communityID, actingID)
		if err != nil {
			return err
		}
		if code, err = s.uniqueCode(ctx, r); err != nil {
			return err
		}
		c.AccessCode = code
		return r.Communities.Save(ctx, c)
	})
	return code, err
}

// Get 仅成员可见，管理员额外看到管理员列表
func (s *CommunityService) Get(ctx context.Context, communityID, userID uint64) (*CommunityDetail, error) {
	var out *CommunityDetail
	err := s.store.Transaction(ctx, func(r *repository.Repos) error {
		c, err := r.Communities.FindByID(ctx, communityID)
		if err != nil {
			return notFound(err, "community")
		}
		if err = requireMember(ctx, r, communityID, userID); err != nil {
			return err
		}
		members, err := r.Members.ListUserIDs(ctx, communityID)
		if err != nil {
			return err
		}
		isAdmin, err := r.Admins.IsAdmin(ctx, communityID, userID)
		if err != nil {
			return err
		}
		out = &CommunityDetail{Community: *c, IsAdmin: isAdmin, MemberIDs: members}
		if isAdmin {
			if out.AdminIDs, err = r.Admins.ListUserIDs(ctx, communityID); err != nil {
				return err
			}
		}
		return nil
	})
	return out, err
}

func (s *CommunityService) ListMine(ctx context.Context, userID uint64) ([]model.Community, error) {
	return s.listBy(ctx, func(r *repository.Repos) ([]uint64, error) { return r.Members.ListCommunityIDs(ctx, userID) })
}

func (s *CommunityService) ListAdministered(ctx context.Context, userID uint64) ([]model.Community, error) {
	return s.listBy(ctx, func(r *repository.Repos) ([]uint64, error) { return r.Admins.ListCommunityIDs(ctx, userID) })
}

func (s *CommunityService) listBy(ctx context.Context, ids func(r *repository.Repos) ([]uint64, error)) ([]model.Community, error) {
	var list []model.Community
	err := s.store.Transaction(ctx, func(r *repository.Repos) error {
		idList, err := ids(r)
		if err != nil {
			return err
		}
		list, err = r.Communities.FindByIDs(ctx, idList)
		return err
	})
	return list, err
}

func (s *CommunityService) uniqueCode(ctx context.Context, r *repository.Repos) (string, error) {
	for i := 0; i < accessCodeTries; i++ {
		code, err := s.codes.Next()
		if err != nil {
			return "", err
		}
		taken, err := r.Communities.ExistsAccessCode(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrAccessCodeExhausted
}

// requireAdmin 同时锁住社区行
func requireAdmin(ctx context.Context, r *repository.Repos, communityID, userID uint64) (*model.Community, error) {
	c, err := r.Communities.FindByIDForUpdate(ctx, communityID)
	if err != nil {
		return nil, notFound(err, "community")
	}
	ok, err := r.Admins.IsAdmin(ctx, communityID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: not an admin of the community", ErrForbidden)
	}
	return c, nil
}

func communityName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxCommunityName {
		return "", invalid("community name must be 1..%d characters", maxCommunityName)
	}
	return name, nil
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}
