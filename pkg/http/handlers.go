package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"liyu1981.xyz/robot-fleet-service/pkg/fleet"
	"liyu1981.xyz/robot-fleet-service/pkg/models"

	z "github.com/Oudwins/zog"
	"github.com/Oudwins/zog/zhttp"
)

type RobotRequest struct {
	Name         string `json:"name"`
	SerialNumber string `json:"serialNumber"`
	Firmware     string `json:"firmware"`
	Location     string `json:"location"`
}

var robotRequestSchema = z.Struct(z.Shape{
	"name":         z.String().Trim().Min(1).Required(),
	"serialNumber": z.String().Trim().Min(1).Required(),
	"firmware":     z.String().Trim().Min(1).Required(),
	"location":     z.String().Trim(),
})

func (req *RobotRequest) input() *fleet.RobotInput {
	input := &fleet.RobotInput{
		Name:         req.Name,
		SerialNumber: req.SerialNumber,
		Firmware:     req.Firmware,
	}
	if req.Location != "" {
		location := req.Location
		input.Location = &location
	}
	return input
}

func (rs *RestfulServer) ListRobots(c *gin.Context) {
	filter := fleet.RobotFilter{
		Status: models.RobotStatus(strings.ToUpper(c.Query("status"))),
		Health: models.HealthStatus(strings.ToUpper(c.Query("health"))),
		Search: strings.TrimSpace(c.Query("search")),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status filter"})
		return
	}
	if filter.Health != "" && !filter.Health.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid health filter"})
		return
	}

	robots, err := rs.Fleet.Robot.ListRobots(filter)
	if err != nil {
		rs.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, robots)
}

func (rs *RestfulServer) GetRobot(c *gin.Context) {
	robot, err := rs.Fleet.Robot.GetRobot(c.Param("id"))
	if err != nil {
		rs.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, robot)
}

func (rs *RestfulServer) CreateRobot(c *gin.Context) {
	var req RobotRequest
	if err := robotRequestSchema.Parse(zhttp.Request(c.Request), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}

	robot, err := rs.Fleet.Robot.CreateRobot(userID(c), req.input())
	if err != nil {
		rs.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, robot)
}

func (rs *RestfulServer) UpdateRobot(c *gin.Context) {
	var req RobotRequest
	if err := robotRequestSchema.Parse(zhttp.Request(c.Request), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}

	robot, err := rs.Fleet.Robot.UpdateRobot(userID(c), c.Param("id"), req.input())
	if err != nil {
		rs.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, robot)
}

func (rs *RestfulServer) DeleteRobot(c *gin.Context) {
	if err := rs.Fleet.Robot.DeleteRobot(userID(c), c.Param("id")); err != nil {
		rs.fail(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type MaintenanceRequest struct {
	Action string `json:"action"`
}

var maintenanceRequestSchema = z.Struct(z.Shape{
	"action": z.String().Trim().Required(),
})

func (rs *RestfulServer) PostMaintenance(c *gin.Context) {
	var req MaintenanceRequest
	if err := maintenanceRequestSchema.Parse(zhttp.Request(c.Request), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}

	action := fleet.MaintenanceAction(strings.ToUpper(req.Action))
	robot, err := rs.Fleet.Robot.Maintenance(userID(c), c.Param("id"), action)
	if err != nil {
		rs.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, robot)
}

type LimiterRequest struct {
	Rate  float64 `json:"rate"`
	Burst int     `json:"burst"`
}

var limiterRequestSchema = z.Struct(z.Shape{
	"rate":  z.Float64().Required(),
	"burst": z.Int().Required(),
})

func (rs *RestfulServer) PostLimiter(c *gin.Context) {
	robotID := c.Param("id")

	var req LimiterRequest
	if err := limiterRequestSchema.Parse(zhttp.Request(c.Request), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}

	rs.SetLimiter(robotID, req.Rate, req.Burst)

	c.Status(http.StatusOK)
}

func (rs *RestfulServer) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
