package handler

import (
	"context"
	"net/http"

	"Neighbor_Board/internal/middleware"
	"Neighbor_Board/internal/model"
	"Neighbor_Board/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CommunityHandler struct {
	svc *service.CommunityService
	log *zap.Logger
}

type CommunityCreateReq struct {
	Name       string `json:"name"`
	IsPrivate  bool   `json:"is_private"`
	PostalCode string `json:"postal_code"`
}

type JoinReq struct {
	AccessCode string `json:"access_code"`
}

type RenameReq struct {
	Name string `json:"name"`
}

type AddAdminReq struct {
	UserID uint64 `json:"user_id"`
}

func NewCommunityHandler(svc *service.CommunityService, log *zap.Logger) *CommunityHandler {
	return &CommunityHandler{svc: svc, log: log}
}

func (h *CommunityHandler) Create(c *gin.Context) {
	var req CommunityCreateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	community, err := h.svc.Create(c.Request.Context(), middleware.UserID(c), req.Name, req.IsPrivate, req.PostalCode)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, community)
}

// Join 私有社区返回 202 和待审核申请
func (h *CommunityHandler) Join(c *gin.Context) {
	var req JoinReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	res, err := h.svc.JoinByAccessCode(c.Request.Context(), middleware.UserID(c), req.AccessCode)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	if res.Pending {
		c.JSON(http.StatusAccepted, res)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *CommunityHandler) ListMine(c *gin.Context) {
	list, err := h.svc.ListMine(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": list})
}

func (h *CommunityHandler) ListAdministered(c *gin.Context) {
	list, err := h.svc.ListAdministered(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": list})
}

func (h *CommunityHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	detail, err := h.svc.Get(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *CommunityHandler) Rename(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req RenameReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	community, err := h.svc.Rename(c.Request.Context(), id, middleware.UserID(c), req.Name)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, community)
}

func (h *CommunityHandler) Leave(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Leave(c.Request.Context(), middleware.UserID(c), id); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

func (h *CommunityHandler) RegenerateAccessCode(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	code, err := h.svc.RegenerateAccessCode(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_code": code})
}

func (h *CommunityHandler) AddAdmin(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req AddAdminReq
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	if err := h.svc.AddAdmin(c.Request.Context(), id, req.UserID, middleware.UserID(c)); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

// RelinquishAdmin 放弃管理员，elected_admin 为 0 表示无需选举
func (h *CommunityHandler) RelinquishAdmin(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	elected, err := h.svc.RelinquishAdmin(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"elected_admin": elected})
}

func (h *CommunityHandler) ListPending(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	list, err := h.svc.ListPendingRequests(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": list})
}

func (h *CommunityHandler) Approve(c *gin.Context) {
	h.resolve(c, h.svc.Approve)
}

func (h *CommunityHandler) Reject(c *gin.Context) {
	h.resolve(c, h.svc.Reject)
}

type resolveFunc func(ctx context.Context, communityID, requestID, actingID uint64) (*model.CommunityJoinRequest, error)

func (h *CommunityHandler) resolve(c *gin.Context, op resolveFunc) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	rid, ok := paramID(c, "rid")
	if !ok {
		return
	}
	req, err := op(c.Request.Context(), id, rid, middleware.UserID(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, req)
}
