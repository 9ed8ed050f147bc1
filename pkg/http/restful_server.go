package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
	"liyu1981.xyz/robot-fleet-service/pkg/fleet"
	"liyu1981.xyz/robot-fleet-service/pkg/metrics"
)

type RestfulServer struct {
	Server           *gin.Engine
	Fleet            *fleet.Fleet
	RateLimiterStore *fleet.RateLimiterStore
	Metrics          *metrics.Metrics
	// Socket serves /api/ws when set.
	Socket http.Handler
	// ApiToken guards /api/* except the socket when non-empty.
	ApiToken string
}

func (rs *RestfulServer) GetLimiter(robotID string) *rate.Limiter {
	if rs.RateLimiterStore == nil {
		return nil
	} else {
		return rs.RateLimiterStore.GetLimiter(robotID)
	}
}

func (rs *RestfulServer) CheckRobotLimiter(robotID string) bool {
	limiter := rs.GetLimiter(robotID)
	if limiter == nil {
		return true
	}
	return limiter.Allow()
}

func (rs *RestfulServer) SetLimiter(robotID string, robotRate float64, robotBurst int) {
	if rs.RateLimiterStore == nil {
		return
	}
	rs.RateLimiterStore.SetLimiter(robotID, rate.Limit(robotRate), robotBurst)
}

func (rs *RestfulServer) Setup() {
	rs.Server.Use(rs.AccessLog())

	rs.Server.GET("/healthz", rs.HealthCheck)
	rs.Server.GET("/metrics", gin.WrapH(rs.Metrics.Handler()))
	if rs.Socket != nil {
		rs.Server.GET("/api/ws", gin.WrapH(rs.Socket))
	}

	api := rs.Server.Group("/api", rs.RequireToken())
	{
		api.GET("/robots", rs.ListRobots)
		api.POST("/robots", rs.CreateRobot)

		robot := api.Group("/robots/:id", rs.LimitRobot())
		{
			robot.GET("", rs.GetRobot)
			robot.PATCH("", rs.UpdateRobot)
			robot.DELETE("", rs.DeleteRobot)
			robot.POST("/maintenance", rs.PostMaintenance)
			robot.POST("/limiter", rs.PostLimiter)
		}

		api.GET("/worksets", rs.ListWorksets)
		api.POST("/worksets", rs.CreateWorkset)
		api.POST("/worksets/:id/robots/:robot_id", rs.AssignRobot)

		api.GET("/audit/logs", rs.ListAuditLogs)
	}
}
