// Package middleware 提供 HTTP 中间件
package middleware

import (
	"net/http"
	"strings"

	"knearme-portfolio-api/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// BusinessIDHeader 平台网关注入的商户标识头
	BusinessIDHeader = "X-Business-ID"
)

// BusinessAuthConfig 商户识别配置
type BusinessAuthConfig struct {
	// Enabled 是否强制要求商户标识
	Enabled bool
	// SkipPaths 跳过识别的路径前缀
	SkipPaths []string
}

// BusinessAuth 商户识别中间件。服务部署在平台网关之后，
// 网关完成认证并把商户 ID 注入请求头，这里只做提取与校验。
func BusinessAuth(cfg BusinessAuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, path := range cfg.SkipPaths {
			if strings.HasPrefix(c.Request.URL.Path, path) {
				c.Next()
				return
			}
		}

		businessID := strings.TrimSpace(c.GetHeader(BusinessIDHeader))
		if cfg.Enabled {
			if businessID == "" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"code":     http.StatusUnauthorized,
					"message":  "missing business identity",
					"trace_id": c.GetString("trace_id"),
				})
				return
			}
			if _, err := uuid.Parse(businessID); err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"code":     http.StatusUnauthorized,
					"message":  "invalid business identity",
					"trace_id": c.GetString("trace_id"),
				})
				return
			}
		}

		if businessID != "" {
			c.Set("business_id", businessID)
			ctx := logger.WithContext(c.Request.Context(), logger.BusinessIDKey, businessID)
			c.Request = c.Request.WithContext(ctx)
		}

		c.Next()
	}
}
