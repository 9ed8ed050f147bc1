package models

import "time"

type RobotStatus string

const (
	RobotStatusOnline      RobotStatus = "ONLINE"
	RobotStatusOffline     RobotStatus = "OFFLINE"
	RobotStatusBusy        RobotStatus = "BUSY"
	RobotStatusError       RobotStatus = "ERROR"
	RobotStatusMaintenance RobotStatus = "MAINTENANCE"
)

func (s RobotStatus) Valid() bool {
	switch s {
	case RobotStatusOnline, RobotStatusOffline, RobotStatusBusy, RobotStatusError, RobotStatusMaintenance:
		return true
	}
	return false
}

type HealthStatus string

const (
	HealthStatusGood     HealthStatus = "GOOD"
	HealthStatusWarning  HealthStatus = "WARNING"
	HealthStatusCritical HealthStatus = "CRITICAL"
)

func (h HealthStatus) Valid() bool {
	switch h {
	case HealthStatusGood, HealthStatusWarning, HealthStatusCritical:
		return true
	}
	return false
}

const (
	MinBatteryLevel = 0
	MaxBatteryLevel = 100
)

type Robot struct {
	ID           string       `gorm:"primaryKey" json:"id"`
	Name         string       `json:"name"`
	SerialNumber string       `gorm:"uniqueIndex" json:"serialNumber"`
	Firmware     string       `json:"firmware"`
	Location     *string      `json:"location"`
	Status       RobotStatus  `gorm:"type:varchar(20);index;check:status IN ('ONLINE','OFFLINE','BUSY','ERROR','MAINTENANCE')" json:"status"`
	BatteryLevel int          `gorm:"check:battery_level BETWEEN 0 AND 100" json:"batteryLevel"`
	HealthStatus HealthStatus `gorm:"type:varchar(20);index;check:health_status IN ('GOOD','WARNING','CRITICAL')" json:"healthStatus"`
	LastActive   *time.Time   `gorm:"index" json:"lastActive"`
	WorksetID    *string      `gorm:"index" json:"worksetId"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

type Workset struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex" json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Robots []Robot `gorm:"foreignKey:WorksetID;references:ID" json:"robots,omitempty"`
}

type AuditAction string

const (
	AuditActionCreate           AuditAction = "CREATE"
	AuditActionUpdate           AuditAction = "UPDATE"
	AuditActionDelete           AuditAction = "DELETE"
	AuditActionAssign           AuditAction = "ASSIGN"
	AuditActionStartMaintenance AuditAction = "START_MAINTENANCE"
	AuditActionEndMaintenance   AuditAction = "END_MAINTENANCE"
)

type AuditResource string

const (
	AuditResourceRobot   AuditResource = "ROBOT"
	AuditResourceWorkset AuditResource = "WORKSET"
)

type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "SUCCESS"
	AuditStatusFailure AuditStatus = "FAILURE"
)

// AuditLog keeps RobotID as plain text so entries survive robot deletion.
type AuditLog struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	Action    AuditAction   `gorm:"type:varchar(32);index" json:"action"`
	Resource  AuditResource `gorm:"type:varchar(16);index" json:"resource"`
	Details   string        `json:"details"`
	Status    AuditStatus   `gorm:"type:varchar(16)" json:"status"`
	UserID    string        `gorm:"index" json:"userId"`
	RobotID   *string       `json:"robotId"`
	CreatedAt time.Time     `gorm:"index" json:"createdAt"`
}

// StatusUpdate is the robot:status payload pushed to subscribers.
type StatusUpdate struct {
	RobotID      string       `json:"robotId"`
	BatteryLevel int          `json:"batteryLevel"`
	Status       RobotStatus  `json:"status"`
	HealthStatus HealthStatus `json:"healthStatus"`
}

func (r *Robot) StatusUpdate() StatusUpdate {
	return StatusUpdate{
		RobotID:      r.ID,
		BatteryLevel: r.BatteryLevel,
		Status:       r.Status,
		HealthStatus: r.HealthStatus,
	}
}
