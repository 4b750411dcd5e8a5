package handler

import (
	"net/http"
	"strings"

	"Neighbor_Board/internal/middleware"
	"Neighbor_Board/internal/model"
	"Neighbor_Board/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ReportHandler struct {
	svc *service.ReportService
	log *zap.Logger
}

type ReportReq struct {
	AdID   uint64 `json:"ad_id"`
	Reason string `json:"reason"`
}

func NewReportHandler(svc *service.ReportService, log *zap.Logger) *ReportHandler {
	return &ReportHandler{svc: svc, log: log}
}

// Submit 提交举报
func (h *ReportHandler) Submit(c *gin.Context) {
	var req ReportReq
	if err := c.ShouldBindJSON(&req); err != nil || req.AdID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	res, err := h.svc.SubmitReport(c.Request.Context(), req.AdID, middleware.UserID(c), model.ReportReason(strings.ToUpper(req.Reason)))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
