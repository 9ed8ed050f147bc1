package fleet

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"liyu1981.xyz/robot-fleet-service/pkg/common"
	"liyu1981.xyz/robot-fleet-service/pkg/models"
)

func (f *Fleet) listWorksets() ([]models.Workset, error) {
	worksets := []models.Workset{}
	err := f.Db.Conn.Preload("Robots").Order("name asc").Find(&worksets).Error
	return worksets, err
}

func (f *Fleet) createWorkset(userID string, input *WorksetInput) (*models.Workset, error) {
	logger := common.GetLoggerWith(
		common.LoggerNameFleetCore,
		zap.String(common.LoggerFieldFleetCategory, common.LoggerCategoryFleetWorkset),
	)

	var count int64
	if err := f.Db.Conn.Model(&models.Workset{}).Where("name = ?", input.Name).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrWorksetNameExists
	}

	workset := models.Workset{
		ID:          uuid.NewString(),
		Name:        input.Name,
		Description: input.Description,
	}

	if err := f.Db.Conn.Create(&workset).Error; err != nil {
		return nil, err
	}

	logger.Info("Created workset", zap.Reflect("workset", workset))

	f.record(models.AuditLog{
		Action:   models.AuditActionCreate,
		Resource: models.AuditResourceWorkset,
		Details:  fmt.Sprintf("Created workset %s", workset.Name),
		Status:   models.AuditStatusSuccess,
		UserID:   userID,
	})

	return &workset, nil
}

func (f *Fleet) assignRobot(userID string, worksetID string, robotID string) (*models.Robot, error) {
	logger := common.GetLoggerWith(
		common.LoggerNameFleetCore,
		zap.String(common.LoggerFieldFleetCategory, common.LoggerCategoryFleetWorkset),
	)

	var workset models.Workset
	err := f.Db.Conn.First(&workset, "id = ?", worksetID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWorksetNotFound
	}
	if err != nil {
		return nil, err
	}

	robot, err := f.getRobot(robotID)
	if err != nil {
		return nil, err
	}

	if err := f.Db.Conn.Model(robot).Update("workset_id", workset.ID).Error; err != nil {
		return nil, err
	}
	robot.WorksetID = &workset.ID

	logger.Info("Assigned robot to workset",
		zap.String("robot_id", robot.ID),
		zap.String("workset_id", workset.ID))

	f.record(models.AuditLog{
		Action:   models.AuditActionAssign,
		Resource: models.AuditResourceWorkset,
		Details:  fmt.Sprintf("Assigned robot %s (%s) to workset %s", robot.Name, robot.SerialNumber, workset.Name),
		Status:   models.AuditStatusSuccess,
		UserID:   userID,
		RobotID:  &robot.ID,
	})

	return robot, nil
}

type IWorksetImpl struct {
	fleet *Fleet
}

func (iw *IWorksetImpl) ListWorksets() ([]models.Workset, error) {
	return iw.fleet.listWorksets()
}

func (iw *IWorksetImpl) CreateWorkset(userID string, input *WorksetInput) (*models.Workset, error) {
	return iw.fleet.createWorkset(userID, input)
}

func (iw *IWorksetImpl) AssignRobot(userID string, worksetID string, robotID string) (*models.Robot, error) {
	return iw.fleet.assignRobot(userID, worksetID, robotID)
}

func (f *Fleet) GetIWorkset() IWorkset {
	return &IWorksetImpl{fleet: f}
}
