package fleet_test

import (
	"bufio"
	"encoding/json"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"liyu1981.xyz/robot-fleet-service/pkg/db"
	"liyu1981.xyz/robot-fleet-service/pkg/fleet"
	"liyu1981.xyz/robot-fleet-service/pkg/fleet/mocks"
	"liyu1981.xyz/robot-fleet-service/pkg/models"
)

// newTestFleet opens a private in-memory database so row counts and
// orderings are not disturbed by other tests.
func newTestFleet(t *testing.T, useMockIAudit bool) (*gomock.Controller, *fleet.Fleet, *mocks.MockIAudit) {
	ctrl := gomock.NewController(t)

	dbInstance, err := db.Open(db.UseNamedMemorySqliteDialector(uuid.NewString()))
	require.NoError(t, err)

	f := &fleet.Fleet{Db: *dbInstance}
	f.WithDefaultServices()

	mockIAudit := mocks.NewMockIAudit(ctrl)
	if useMockIAudit {
		f.Audit = mockIAudit
	}

	return ctrl, f, mockIAudit
}

func newRobotInput(name string) *fleet.RobotInput {
	location := "bay-" + name
	return &fleet.RobotInput{
		Name:         name,
		SerialNumber: "SN-" + uuid.NewString(),
		Firmware:     "1.0.0",
		Location:     &location,
	}
}

func seedRobot(t *testing.T, f *fleet.Fleet, battery int, status models.RobotStatus, health models.HealthStatus) *models.Robot {
	robot := &models.Robot{
		ID:           uuid.NewString(),
		Name:         "seed",
		SerialNumber: "SN-" + uuid.NewString(),
		Firmware:     "1.0.0",
		Status:       status,
		HealthStatus: health,
		BatteryLevel: battery,
	}
	require.NoError(t, f.Db.Conn.Create(robot).Error)
	return robot
}

func ParseLogs(r io.Reader) []any {
	scanner := bufio.NewScanner(r)
	var logs []any

	for scanner.Scan() {
		var j any
		if err := json.Unmarshal([]byte(scanner.Text()), &j); err == nil {
			logs = append(logs, j)
		}
	}
	return logs
}

type recordingPublisher struct {
	updates []models.StatusUpdate
}

func (p *recordingPublisher) Publish(update models.StatusUpdate) {
	p.updates = append(p.updates, update)
}
