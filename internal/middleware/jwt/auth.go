package jwt

import (
	"strings"

	"DocLink/pkg/back"
	"DocLink/pkg/util/myjwt"
	"DocLink/pkg/xerr"

	"github.com/gin-gonic/gin"
)

// Auth 控制台接口鉴权，解析后把 uuid/username 写入请求上下文
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			back.Error(c, xerr.Unauthorized, "missing or invalid authorization header")
			c.Abort()
			return
		}

		claims, err := myjwt.ParseToken(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			back.Error(c, xerr.Unauthorized, "invalid token")
			c.Abort()
			return
		}

		c.Set("uuid", claims.Uuid)
		c.Set("username", claims.Username)
		c.Next()
	}
}
