package fleet

import (
	"go.uber.org/zap"
	"gorm.io/gorm"
	"liyu1981.xyz/robot-fleet-service/pkg/common"
	"liyu1981.xyz/robot-fleet-service/pkg/models"
)

const (
	DefaultAuditLimit = 50
	MaxAuditLimit     = 500
)

func (f *Fleet) recordAudit(entry *models.AuditLog) {
	logger := common.GetLoggerWith(
		common.LoggerNameFleetCore,
		zap.String(common.LoggerFieldFleetCategory, common.LoggerCategoryFleetAudit),
	)

	if err := f.Db.Conn.Create(entry).Error; err != nil {
		logger.Error("Failed to create audit log", zap.Error(err), zap.Reflect("audit", entry))
		return
	}

	logger.Info("Audit log saved", zap.Reflect("audit", entry))
}

func (f *Fleet) listAuditLogs(q AuditQuery) (*AuditPage, error) {
	query := f.Db.Conn.Model(&models.AuditLog{})

	if q.UserID != "" {
		query = query.Where("user_id = ?", q.UserID)
	}
	if q.Action != "" {
		query = query.Where("action = ?", q.Action)
	}
	if q.Resource != "" {
		query = query.Where("resource = ?", q.Resource)
	}
	if q.StartDate != nil {
		query = query.Where("created_at >= ?", *q.StartDate)
	}
	if q.EndDate != nil {
		query = query.Where("created_at <= ?", *q.EndDate)
	}

	// counted and paged from the same conditions
	query = query.Session(&gorm.Session{})

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultAuditLimit
	}
	limit = min(limit, MaxAuditLimit)
	offset := max(q.Offset, 0)

	page := &AuditPage{Logs: []models.AuditLog{}}
	if err := query.Count(&page.Total).Error; err != nil {
		return nil, err
	}

	err := query.
		Order("created_at desc").
		Order("id desc").
		Limit(limit).
		Offset(offset).
		Find(&page.Logs).Error
	if err != nil {
		return nil, err
	}

	return page, nil
}

type IAuditImpl struct {
	fleet *Fleet
}

func (ia *IAuditImpl) Record(entry *models.AuditLog) {
	ia.fleet.recordAudit(entry)
}

func (ia *IAuditImpl) ListAuditLogs(query AuditQuery) (*AuditPage, error) {
	return ia.fleet.listAuditLogs(query)
}

func (f *Fleet) GetIAudit() IAudit {
	return &IAuditImpl{fleet: f}
}
