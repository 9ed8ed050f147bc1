package fleet

import (
	"context"
	"time"

	"go.uber.org/zap"
	"liyu1981.xyz/robot-fleet-service/pkg/common"
	"liyu1981.xyz/robot-fleet-service/pkg/models"
)

func (f *Fleet) telemetryRobots(ctx context.Context) ([]models.Robot, error) {
	robots := []models.Robot{}
	err := f.Db.Conn.WithContext(ctx).Order("id asc").Find(&robots).Error
	return robots, err
}

// saveStatus persists the simulated status fields and refreshes last-active.
// It reports ErrRobotNotFound when the robot was deleted mid-tick.
func (f *Fleet) saveStatus(ctx context.Context, robot *models.Robot) error {
	now := time.Now()

	result := f.Db.Conn.WithContext(ctx).
		Model(&models.Robot{}).
		Where("id = ?", robot.ID).
		Updates(map[string]any{
			"battery_level": robot.BatteryLevel,
			"status":        robot.Status,
			"health_status": robot.HealthStatus,
			"last_active":   now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRobotNotFound
	}

	robot.LastActive = &now

	common.GetLoggerWith(
		common.LoggerNameFleetCore,
		zap.String(common.LoggerFieldFleetCategory, common.LoggerCategoryFleetTelemetry),
	).Debug("Saved robot status", zap.Reflect("status", robot.StatusUpdate()))

	return nil
}

type ITelemetryImpl struct {
	fleet *Fleet
}

func (it *ITelemetryImpl) ListRobots(ctx context.Context) ([]models.Robot, error) {
	return it.fleet.telemetryRobots(ctx)
}

func (it *ITelemetryImpl) SaveStatus(ctx context.Context, robot *models.Robot) error {
	return it.fleet.saveStatus(ctx, robot)
}

func (f *Fleet) GetITelemetry() ITelemetry {
	return &ITelemetryImpl{fleet: f}
}
