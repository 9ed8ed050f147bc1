package fleet

import (
	"fmt"

	"go.uber.org/zap"
	"liyu1981.xyz/robot-fleet-service/pkg/common"
	"liyu1981.xyz/robot-fleet-service/pkg/models"
)

func (a MaintenanceAction) Valid() bool {
	return a == MaintenanceStart || a == MaintenanceEnd
}

// nextMaintenanceStatus returns the status a robot moves to under action.
// START is rejected for a robot already in maintenance, END for one that is
// not.
func nextMaintenanceStatus(current models.RobotStatus, action MaintenanceAction) (models.RobotStatus, error) {
	switch action {
	case MaintenanceStart:
		if current == models.RobotStatusMaintenance {
			return "", ErrInvalidTransition
		}
		return models.RobotStatusMaintenance, nil
	case MaintenanceEnd:
		if current != models.RobotStatusMaintenance {
			return "", ErrInvalidTransition
		}
		return models.RobotStatusOffline, nil
	}
	return "", ErrInvalidAction
}

func (f *Fleet) maintenance(userID string, robotID string, action MaintenanceAction) (*models.Robot, error) {
	logger := common.GetLoggerWith(
		common.LoggerNameFleetCore,
		zap.String(common.LoggerFieldFleetCategory, common.LoggerCategoryFleetMaintenance),
	)

	if !action.Valid() {
		return nil, ErrInvalidAction
	}

	robot, err := f.getRobot(robotID)
	if err != nil {
		return nil, err
	}

	next, err := nextMaintenanceStatus(robot.Status, action)
	if err != nil {
		logger.Info("Rejected maintenance transition",
			zap.String("robot_id", robotID),
			zap.String("status", string(robot.Status)),
			zap.String("action", string(action)))
		return nil, err
	}

	if err := f.Db.Conn.Model(robot).Update("status", next).Error; err != nil {
		return nil, err
	}
	robot.Status = next

	logger.Info("Changed maintenance status",
		zap.String("robot_id", robotID),
		zap.String("status", string(next)))

	auditAction, verb := models.AuditActionStartMaintenance, "Started"
	if action == MaintenanceEnd {
		auditAction, verb = models.AuditActionEndMaintenance, "Ended"
	}
	f.record(models.AuditLog{
		Action:   auditAction,
		Resource: models.AuditResourceRobot,
		Details:  fmt.Sprintf("%s maintenance for robot %s (%s)", verb, robot.Name, robot.SerialNumber),
		Status:   models.AuditStatusSuccess,
		UserID:   userID,
		RobotID:  &robot.ID,
	})

	f.publish(robot)

	return robot, nil
}
