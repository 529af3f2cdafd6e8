package dto

import (
	"github.com/gin-gonic/gin"
)

// BindStoryID 获取路径中的故事 ID
func BindStoryID(c *gin.Context) string {
	return c.Param("sid")
}

// BindChapterID 获取路径中的章节 ID
func BindChapterID(c *gin.Context) string {
	return c.Param("cid")
}

// RequesterID 当前请求者，匿名时为空
func RequesterID(c *gin.Context) string {
	return c.GetString("user_id")
}
