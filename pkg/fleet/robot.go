package fleet

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"liyu1981.xyz/robot-fleet-service/pkg/common"
	"liyu1981.xyz/robot-fleet-service/pkg/models"
)

func robotLogger() *zap.Logger {
	return common.GetLoggerWith(
		common.LoggerNameFleetCore,
		zap.String(common.LoggerFieldFleetCategory, common.LoggerCategoryFleetRobot),
	)
}

func (f *Fleet) listRobots(filter RobotFilter) ([]models.Robot, error) {
	query := f.Db.Conn.Model(&models.Robot{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Health != "" {
		query = query.Where("health_status = ?", filter.Health)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(name) LIKE ? OR LOWER(serial_number) LIKE ? OR LOWER(COALESCE(location, '')) LIKE ?",
			pattern, pattern, pattern,
		)
	}

	robots := []models.Robot{}
	err := query.Order("last_active desc").Order("created_at desc").Find(&robots).Error
	return robots, err
}

func (f *Fleet) getRobot(robotID string) (*models.Robot, error) {
	var robot models.Robot
	err := f.Db.Conn.First(&robot, "id = ?", robotID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRobotNotFound
	}
	if err != nil {
		return nil, err
	}
	return &robot, nil
}

func (f *Fleet) serialTaken(serialNumber string, exceptID string) (bool, error) {
	var count int64
	query := f.Db.Conn.Model(&models.Robot{}).Where("serial_number = ?", serialNumber)
	if exceptID != "" {
		query = query.Where("id <> ?", exceptID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (f *Fleet) createRobot(userID string, input *RobotInput) (*models.Robot, error) {
	logger := robotLogger()

	taken, err := f.serialTaken(input.SerialNumber, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrSerialNumberExists
	}

	robot := models.Robot{
		ID:           uuid.NewString(),
		Name:         input.Name,
		SerialNumber: input.SerialNumber,
		Firmware:     input.Firmware,
		Location:     input.Location,
		Status:       models.RobotStatusOffline,
		HealthStatus: models.HealthStatusGood,
		BatteryLevel: models.MaxBatteryLevel,
	}

	logger.Info("Received robot", zap.Reflect("robot", robot))

	if err := f.Db.Conn.Create(&robot).Error; err != nil {
		return nil, err
	}

	logger.Info("Created robot", zap.String("robot_id", robot.ID))

	f.record(models.AuditLog{
		Action:   models.AuditActionCreate,
		Resource: models.AuditResourceRobot,
		Details:  fmt.Sprintf("Created robot %s (%s)", robot.Name, robot.SerialNumber),
		Status:   models.AuditStatusSuccess,
		UserID:   userID,
		RobotID:  &robot.ID,
	})

	return &robot, nil
}

func (f *Fleet) updateRobot(userID string, robotID string, input *RobotInput) (*models.Robot, error) {
	logger := robotLogger()

	robot, err := f.getRobot(robotID)
	if err != nil {
		return nil, err
	}

	taken, err := f.serialTaken(input.SerialNumber, robotID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrSerialNumberExists
	}

	robot.Name = input.Name
	robot.SerialNumber = input.SerialNumber
	robot.Firmware = input.Firmware
	robot.Location = input.Location
	robot.UpdatedAt = time.Now()

	if err := f.Db.Conn.Model(robot).Select("name", "serial_number", "firmware", "location", "updated_at").Updates(robot).Error; err != nil {
		return nil, err
	}

	logger.Info("Updated robot", zap.Reflect("robot", robot))

	f.record(models.AuditLog{
		Action:   models.AuditActionUpdate,
		Resource: models.AuditResourceRobot,
		Details:  fmt.Sprintf("Robot %s (%s) was updated", robot.Name, robot.SerialNumber),
		Status:   models.AuditStatusSuccess,
		UserID:   userID,
		RobotID:  &robot.ID,
	})

	return robot, nil
}

func (f *Fleet) deleteRobot(userID string, robotID string) error {
	logger := robotLogger()

	robot, err := f.getRobot(robotID)
	if err != nil {
		return err
	}

	// logged before deletion, as the entry describes the robot being removed
	f.record(models.AuditLog{
		Action:   models.AuditActionDelete,
		Resource: models.AuditResourceRobot,
		Details:  fmt.Sprintf("Deleted robot %s (%s)", robot.Name, robot.SerialNumber),
		Status:   models.AuditStatusSuccess,
		UserID:   userID,
		RobotID:  &robot.ID,
	})

	if err := f.Db.Conn.Delete(&models.Robot{}, "id = ?", robotID).Error; err != nil {
		return err
	}

	logger.Info("Deleted robot", zap.String("robot_id", robotID))
	return nil
}

type IRobotImpl struct {
	fleet *Fleet
}

func (ir *IRobotImpl) ListRobots(filter RobotFilter) ([]models.Robot, error) {
	return ir.fleet.listRobots(filter)
}

func (ir *IRobotImpl) GetRobot(robotID string) (*models.Robot, error) {
	return ir.fleet.getRobot(robotID)
}

func (ir *IRobotImpl) CreateRobot(userID string, input *RobotInput) (*models.Robot, error) {
	return ir.fleet.createRobot(userID, input)
}

func (ir *IRobotImpl) UpdateRobot(userID string, robotID string, input *RobotInput) (*models.Robot, error) {
	return ir.fleet.updateRobot(userID, robotID, input)
}

func (ir *IRobotImpl) DeleteRobot(userID string, robotID string) error {
	return ir.fleet.deleteRobot(userID, robotID)
}

func (ir *IRobotImpl) Maintenance(userID string, robotID string, action MaintenanceAction) (*models.Robot, error) {
	return ir.fleet.maintenance(userID, robotID, action)
}

func (f *Fleet) GetIRobot() IRobot {
	return &IRobotImpl{fleet: f}
}
