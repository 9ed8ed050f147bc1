package grpc

import (
	"golang.org/x/time/rate"
	"liyu1981.xyz/robot-fleet-service/pkg/fleet"
	"liyu1981.xyz/robot-fleet-service/pkg/hub"
	"liyu1981.xyz/robot-fleet-service/pkg/metrics"
)

const defaultWatchBuffer = 16

type FleetServer struct {
	Fleet            *fleet.Fleet
	Registry         *hub.Registry
	RateLimiterStore *fleet.RateLimiterStore
	Metrics          *metrics.Metrics
	// WatchBuffer is how many updates a WatchRobot stream may fall behind
	// before it is cut off.
	WatchBuffer int
}

func (s *FleetServer) GetLimiter(robotID string) *rate.Limiter {
	if s.RateLimiterStore == nil {
		return nil
	} else {
		return s.RateLimiterStore.GetLimiter(robotID)
	}
}

func (s *FleetServer) CheckRobotLimiter(robotID string) bool {
	limiter := s.GetLimiter(robotID)
	if limiter == nil {
		return true
	}
	return limiter.Allow()
}

func (s *FleetServer) watchBuffer() int {
	if s.WatchBuffer > 0 {
		return s.WatchBuffer
	}
	return defaultWatchBuffer
}
