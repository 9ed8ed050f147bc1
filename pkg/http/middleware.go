package http

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"liyu1981.xyz/robot-fleet-service/pkg/common"
	"liyu1981.xyz/robot-fleet-service/pkg/fleet"
)

const (
	HeaderUserID     = "X-User-ID"
	AnonymousUserID  = "anonymous"
	contextKeyUserID = "fleet.user_id"
)

func (rs *RestfulServer) AccessLog() gin.HandlerFunc {
	logger := common.GetLoggerWith(common.LoggerNameRestfulServer)

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Debug("Handled request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

// RequireToken checks the bearer token when one is configured and records
// the acting user for audit entries.
func (rs *RestfulServer) RequireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rs.ApiToken != "" {
			given, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
			if !found || subtle.ConstantTimeCompare([]byte(given), []byte(rs.ApiToken)) != 1 {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
				return
			}
		}

		userID := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if userID == "" {
			userID = AnonymousUserID
		}
		c.Set(contextKeyUserID, userID)
		c.Next()
	}
}

func (rs *RestfulServer) LimitRobot() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rs.CheckRobotLimiter(c.Param("id")) {
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}
		c.Next()
	}
}

func userID(c *gin.Context) string {
	if v := c.GetString(contextKeyUserID); v != "" {
		return v
	}
	return AnonymousUserID
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, fleet.ErrRobotNotFound), errors.Is(err, fleet.ErrWorksetNotFound):
		return http.StatusNotFound
	case errors.Is(err, fleet.ErrSerialNumberExists),
		errors.Is(err, fleet.ErrWorksetNameExists),
		errors.Is(err, fleet.ErrInvalidTransition),
		errors.Is(err, fleet.ErrInvalidAction):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (rs *RestfulServer) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		common.GetLoggerWith(common.LoggerNameRestfulServer).Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
