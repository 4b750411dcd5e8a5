package router

import (
	"Neighbor_Board/internal/handler"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	Ads         *handler.AdHandler
	Reports     *handler.ReportHandler
	Communities *handler.CommunityHandler
}

// InitRouter auth 负责把当前用户 id 写入上下文
func InitRouter(h Handlers, auth gin.HandlerFunc, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(requestLogger(log), gin.Recovery())

	r.GET("/healthz", handler.Health)

	api := r.Group("/api")
	api.Use(auth)

	// 社区相关接口
	communityGroup := api.Group("/communities")
	{
		communityGroup.POST("", h.Communities.Create)
		communityGroup.POST("/join", h.Communities.Join)
		communityGroup.GET("", h.Communities.ListMine)
		communityGroup.GET("/administered", h.Communities.ListAdministered)
		communityGroup.GET("/:id", h.Communities.Get)
		communityGroup.PATCH("/:id", h.Communities.Rename)
		communityGroup.POST("/:id/leave", h.Communities.Leave)
		communityGroup.POST("/:id/access-code", h.Communities.RegenerateAccessCode)
		communityGroup.POST("/:id/admins", h.Communities.AddAdmin)
		communityGroup.DELETE("/:id/admins/me", h.Communities.RelinquishAdmin)
		communityGroup.GET("/:id/join-requests", h.Communities.ListPending)
		communityGroup.POST("/:id/join-requests/:rid/approve", h.Communities.Approve)
		communityGroup.POST("/:id/join-requests/:rid/reject", h.Communities.Reject)
		communityGroup.GET("/:id/ads", h.Ads.ListByCommunity)
	}

	// 广告相关接口
	adGroup := api.Group("/ads")
	{
		adGroup.POST("", h.Ads.Create)
		adGroup.GET("/mine", h.Ads.ListMine)
		adGroup.GET("/:id", h.Ads.Get)
		adGroup.PUT("/:id", h.Ads.Edit)
		adGroup.DELETE("/:id", h.Ads.Delete)
		adGroup.POST("/:id/pause", h.Ads.Pause)
		adGroup.POST("/:id/unpause", h.Ads.Unpause)
		adGroup.POST("/:id/close", h.Ads.Close)
		adGroup.POST("/:id/reactions", h.Ads.SetReaction)
		adGroup.DELETE("/:id/reactions", h.Ads.RemoveReaction)
		adGroup.POST("/:id/comments", h.Ads.CreateComment)
		adGroup.DELETE("/:id/comments/:cid", h.Ads.DeleteComment)
		adGroup.POST("/:id/comments/:cid/like", h.Ads.ToggleCommentLike)
	}

	api.POST("/reports", h.Reports.Submit)

	return r
}
