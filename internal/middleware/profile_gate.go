package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reviewhub/reviewhub/internal/config"
	"github.com/reviewhub/reviewhub/pkg/logger"
)

// CompletionPath 前端资料补全页路径，403/409 响应里回传给客户端
const CompletionPath = "/complete-profile"

// ProfileChecker 判断用户资料是否已补全
type ProfileChecker interface {
	IsProfileComplete(ctx context.Context, userID string) (bool, error)
}

// NewProfileGate 资料补全门禁。挂在 JWT 之后：未补全的用户只能访问补全路由。
// 查询失败时按 fail_policy 处理：open 放行（记日志），closed 拒绝
func NewProfileGate(checker ProfileChecker, cfg *config.GuardConfig, logger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := GetUserID(c)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			return
		}

		complete, err := checker.IsProfileComplete(c.Request.Context(), userID)
		if err != nil {
			logger.WithError(err).WithField("user_id", userID).Error("Failed to check profile completeness")
			if cfg.FailPolicy == config.GuardFailClosed {
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Profile check unavailable"})
				return
			}
			c.Next()
			return
		}

		if !complete {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":    "Profile is incomplete",
				"redirect": CompletionPath,
			})
			return
		}

		c.Next()
	}
}
