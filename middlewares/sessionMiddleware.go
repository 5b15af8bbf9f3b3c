package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/weavetrack/fabric_backend/config"
	"github.com/weavetrack/fabric_backend/utils"
)

type session struct {
	BusinessId string `json:"business_id"`
	UserId     int    `json:"user_id"`
	UserName   string `json:"user_name"`
}

// SessionMiddleware resolves the caller's business scope. A gateway token
// maps to a Redis session; deployments behind a trusted proxy may pass
// x-business-id directly instead.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Request.Header.Get("token")
		if token != "" {
			var sess session
			exists, err := config.GetRedisObject("Session:"+token, &sess)
			if err != nil || !exists || sess.BusinessId == "" {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
				c.Abort()
				return
			}
			ctx := utils.SetBusinessIdInContext(c.Request.Context(), sess.BusinessId)
			ctx = utils.SetUserIdInContext(ctx, sess.UserId)
			ctx = utils.SetUserNameInContext(ctx, sess.UserName)
			c.Request = c.Request.WithContext(ctx)
			c.Next()
			return
		}

		if businessId := c.Request.Header.Get("x-business-id"); businessId != "" {
			c.Request = c.Request.WithContext(utils.SetBusinessIdInContext(c.Request.Context(), businessId))
		}
		c.Next()
	}
}
