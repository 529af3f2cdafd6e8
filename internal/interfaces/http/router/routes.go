package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(v1 *gin.RouterGroup, h *Handlers, importLimit gin.HandlerFunc) {
	// 故事
	stories := v1.Group("/stories")
	{
		stories.GET("/:sid/chapters", h.Chapter.ListStoryChapters)
		stories.POST("/:sid/imports", importLimit, h.Import.ImportChapters)
	}

	// 章节阅读
	chapters := v1.Group("/chapters")
	{
		chapters.GET("/:cid", h.Chapter.GetChapter)
		chapters.GET("/:cid/access", h.Chapter.GetChapterAccess)
	}
}
