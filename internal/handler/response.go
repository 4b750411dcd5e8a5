package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"Neighbor_Board/internal/model"
	"Neighbor_Board/internal/repository"
	"Neighbor_Board/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// statusOf 业务错误到 HTTP 状态码的唯一映射
func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrForbidden), errors.Is(err, service.ErrSuspended):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInvalidState),
		errors.Is(err, service.ErrAlreadyProcessed),
		errors.Is(err, service.ErrDuplicateReport),
		errors.Is(err, service.ErrDuplicatePendingRequest),
		errors.Is(err, service.ErrAlreadyMember):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrAccessCodeExhausted):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, log *zap.Logger, err error) {
	if !service.IsKind(err) {
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "internal error"})
		return
	}
	c.JSON(statusOf(err), gin.H{"msg": err.Error()})
}

func paramID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid " + name})
		return 0, false
	}
	return id, true
}

// pageOf offset/limit 分页，非法值交给 service 兜底
func pageOf(c *gin.Context) repository.Page {
	offset, _ := strconv.Atoi(c.Query("offset"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return repository.Page{Offset: offset, Limit: limit}
}

func adTypes(raw string) []model.AdType {
	var out []model.AdType
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, model.AdType(strings.ToUpper(p)))
		}
	}
	return out
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
