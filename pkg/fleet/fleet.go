package fleet

import (
	"context"
	"errors"
	"time"

	"liyu1981.xyz/robot-fleet-service/pkg/db"
	"liyu1981.xyz/robot-fleet-service/pkg/models"
)

//go:generate mockgen -destination=mocks/mock_fleet.go -package=mocks liyu1981.xyz/robot-fleet-service/pkg/fleet IRobot,IWorkset,IAudit,ITelemetry

var (
	ErrRobotNotFound      = errors.New("robot not found")
	ErrWorksetNotFound    = errors.New("workset not found")
	ErrSerialNumberExists = errors.New("serial number already exists")
	ErrWorksetNameExists  = errors.New("workset name already exists")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrInvalidAction      = errors.New("invalid action")
)

type RobotFilter struct {
	Status models.RobotStatus
	Health models.HealthStatus
	Search string
}

type RobotInput struct {
	Name         string
	SerialNumber string
	Firmware     string
	Location     *string
}

type MaintenanceAction string

const (
	MaintenanceStart MaintenanceAction = "START"
	MaintenanceEnd   MaintenanceAction = "END"
)

type WorksetInput struct {
	Name        string
	Description string
}

type AuditQuery struct {
	UserID    string
	Action    models.AuditAction
	Resource  models.AuditResource
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}

type AuditPage struct {
	Total int64             `json:"total"`
	Logs  []models.AuditLog `json:"logs"`
}

type IRobot interface {
	ListRobots(filter RobotFilter) ([]models.Robot, error)
	GetRobot(robotID string) (*models.Robot, error)
	CreateRobot(userID string, input *RobotInput) (*models.Robot, error)
	UpdateRobot(userID string, robotID string, input *RobotInput) (*models.Robot, error)
	DeleteRobot(userID string, robotID string) error
	Maintenance(userID string, robotID string, action MaintenanceAction) (*models.Robot, error)
}

type IWorkset interface {
	ListWorksets() ([]models.Workset, error)
	CreateWorkset(userID string, input *WorksetInput) (*models.Workset, error)
	AssignRobot(userID string, worksetID string, robotID string) (*models.Robot, error)
}

// IAudit.Record never fails the calling operation; write errors are logged.
type IAudit interface {
	Record(entry *models.AuditLog)
	ListAuditLogs(query AuditQuery) (*AuditPage, error)
}

// ITelemetry is the narrow persistence surface the status mutator ticks
// against.
type ITelemetry interface {
	ListRobots(ctx context.Context) ([]models.Robot, error)
	SaveStatus(ctx context.Context, robot *models.Robot) error
}

// Publisher receives status changes made outside the mutator (maintenance
// transitions) so subscribers see them without waiting for the next tick.
type Publisher interface {
	Publish(update models.StatusUpdate)
}

type Fleet struct {
	Db        db.DB
	Robot     IRobot
	Workset   IWorkset
	Audit     IAudit
	Telemetry ITelemetry
	Publisher Publisher
}

type ServiceOpts struct {
	Robot     IRobot
	Workset   IWorkset
	Audit     IAudit
	Telemetry ITelemetry
	Publisher Publisher
}

func (f *Fleet) WithServices(opts ServiceOpts) *Fleet {
	if opts.Robot != nil {
		f.Robot = opts.Robot
	}
	if opts.Workset != nil {
		f.Workset = opts.Workset
	}
	if opts.Audit != nil {
		f.Audit = opts.Audit
	}
	if opts.Telemetry != nil {
		f.Telemetry = opts.Telemetry
	}
	if opts.Publisher != nil {
		f.Publisher = opts.Publisher
	}
	return f
}

// WithDefaultServices wires the gorm-backed implementation of every service.
func (f *Fleet) WithDefaultServices() *Fleet {
	return f.WithServices(ServiceOpts{
		Robot:     f.GetIRobot(),
		Workset:   f.GetIWorkset(),
		Audit:     f.GetIAudit(),
		Telemetry: f.GetITelemetry(),
	})
}

func (f *Fleet) record(entry models.AuditLog) {
	if f.Audit == nil {
		return
	}
	f.Audit.Record(&entry)
}

func (f *Fleet) publish(robot *models.Robot) {
	if f.Publisher == nil {
		return
	}
	f.Publisher.Publish(robot.StatusUpdate())
}
