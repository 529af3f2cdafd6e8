package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/onedollarbanana/FictionForge-sub002/pkg/logger"
)

// AccessLog 请求日志中间件，skipPaths 中的探针与指标路径不记录
func AccessLog(skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]bool, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = true
	}

	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []any{
			"method", c.Request.Method,
			"route", c.FullPath(),
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", c.ClientIP(),
			"body_size", c.Writer.Size(),
		}
		if uid := c.GetString("user_id"); uid != "" {
			fields = append(fields, "user_id", uid)
		}
		if sid := c.Param("sid"); sid != "" {
			fields = append(fields, "story_id", sid)
		}
		if cid := c.Param("cid"); cid != "" {
			fields = append(fields, "chapter_id", cid)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}

		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}

		ctx := c.Request.Context()
		logger.FromContext(ctx).Log(ctx, level, "http request", fields...)
	}
}

// DefaultAccessLogSkipPaths 默认不记录的路径
var DefaultAccessLogSkipPaths = []string{
	"/health",
	"/ready",
	"/live",
}
