package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"Neighbor_Board/internal/middleware"
	"Neighbor_Board/internal/model"
	"Neighbor_Board/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AdHandler struct {
	svc *service.AdService
	log *zap.Logger
}

type AdReq struct {
	CommunityID        uint64   `json:"community_id"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Type               string   `json:"type"`
	PriceCents         *int64   `json:"price_cents"`
	RecommendedContact string   `json:"recommended_contact"`
	ServiceType        string   `json:"service_type"`
	ImageURLs          []string `json:"image_urls"`
}

func (r AdReq) input() service.AdInput {
	return service.AdInput{
		CommunityID:        r.CommunityID,
		Title:              r.Title,
		Description:        r.Description,
		Type:               model.AdType(strings.ToUpper(r.Type)),
		PriceCents:         r.PriceCents,
		RecommendedContact: r.RecommendedContact,
		ServiceType:        r.ServiceType,
		ImageURLs:          r.ImageURLs,
	}
}

type ReactionReq struct {
	Rating int `json:"rating"`
}

type CommentReq struct {
	Text string `json:"text"`
}

func NewAdHandler(svc *service.AdService, log *zap.Logger) *AdHandler {
	return &AdHandler{svc: svc, log: log}
}

// Create 发布广告
func (h *AdHandler) Create(c *gin.Context) {
	var req AdReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	ad, err := h.svc.Create(c.Request.Context(), middleware.UserID(c), req.input())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, ad)
}

func (h *AdHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ad, err := h.svc.Get(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, ad)
}

// ListMine 我的广告，可选 community_id 过滤
func (h *AdHandler) ListMine(c *gin.Context) {
	communityID, _ := strconv.ParseUint(c.Query("community_id"), 10, 64)
	list, err := h.svc.ListMine(c.Request.Context(), middleware.UserID(c), communityID, pageOf(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": list})
}

// ListByCommunity 社区广告列表，types=SALE,DONATION
func (h *AdHandler) ListByCommunity(c *gin.Context) {
	communityID, ok := paramID(c, "id")
	if !ok {
		return
	}
	list, err := h.svc.ListByCommunity(c.Request.Context(), communityID, middleware.UserID(c), adTypes(c.Query("types")), pageOf(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": list})
}

func (h *AdHandler) Edit(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req AdReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	ad, err := h.svc.Edit(c.Request.Context(), id, middleware.UserID(c), req.input())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, ad)
}

func (h *AdHandler) Pause(c *gin.Context)   { h.transition(c, h.svc.Pause) }
func (h *AdHandler) Unpause(c *gin.Context) { h.transition(c, h.svc.Unpause) }
func (h *AdHandler) Close(c *gin.Context)   { h.transition(c, h.svc.Close) }

func (h *AdHandler) transition(c *gin.Context, op func(ctx context.Context, adID, userID uint64) (*model.Ad, error)) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ad, err := op(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": ad.ID, "status": ad.Status})
}

func (h *AdHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id, middleware.UserID(c)); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

func (h *AdHandler) SetReaction(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req ReactionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	if err := h.svc.SetReaction(c.Request.Context(), id, middleware.UserID(c), req.Rating); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

func (h *AdHandler) RemoveReaction(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.RemoveReaction(c.Request.Context(), id, middleware.UserID(c)); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

func (h *AdHandler) CreateComment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req CommentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	comment, err := h.svc.CreateComment(c.Request.Context(), id, middleware.UserID(c), req.Text)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (h *AdHandler) DeleteComment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	cid, ok := paramID(c, "cid")
	if !ok {
		return
	}
	if err := h.svc.DeleteComment(c.Request.Context(), id, cid, middleware.UserID(c)); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

func (h *AdHandler) ToggleCommentLike(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	cid, ok := paramID(c, "cid")
	if !ok {
		return
	}
	liked, err := h.svc.ToggleCommentLike(c.Request.Context(), id, cid, middleware.UserID(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked})
}
