package status

import (
	"liyu1981.xyz/robot-fleet-service/pkg/common"
	"liyu1981.xyz/robot-fleet-service/pkg/models"
)

const (
	BatteryDrainPerTick  = 1
	CriticalBatteryLevel = 20
	WarningBatteryLevel  = 50
)

// Derive computes a robot's next simulated status. This is a demonstration
// stand-in for real telemetry, not a model of robot health:
//
//   - battery drains by one point per tick, floored at zero
//   - below 20 the robot is ERROR / CRITICAL
//   - below 50 health drops to WARNING (never lifting CRITICAL)
//   - otherwise status and health are left as they are
//
// Health is never raised back automatically.
func Derive(robot models.Robot) models.Robot {
	next := robot
	next.BatteryLevel = common.Clamp(robot.BatteryLevel-BatteryDrainPerTick, models.MinBatteryLevel, models.MaxBatteryLevel)

	switch {
	case next.BatteryLevel < CriticalBatteryLevel:
		next.Status = models.RobotStatusError
		next.HealthStatus = models.HealthStatusCritical
	case next.BatteryLevel < WarningBatteryLevel:
		if next.HealthStatus != models.HealthStatusCritical {
			next.HealthStatus = models.HealthStatusWarning
		}
	}

	return next
}
