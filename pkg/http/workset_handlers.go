package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"liyu1981.xyz/robot-fleet-service/pkg/fleet"

	z "github.com/Oudwins/zog"
	"github.com/Oudwins/zog/zhttp"
)

type WorksetRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

var worksetRequestSchema = z.Struct(z.Shape{
	"name":        z.String().Trim().Min(1).Required(),
	"description": z.String().Trim(),
})

func (rs *RestfulServer) ListWorksets(c *gin.Context) {
	worksets, err := rs.Fleet.Workset.ListWorksets()
	if err != nil {
		rs.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, worksets)
}

func (rs *RestfulServer) CreateWorkset(c *gin.Context) {
	var req WorksetRequest
	if err := worksetRequestSchema.Parse(zhttp.Request(c.Request), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}

	workset, err := rs.Fleet.Workset.CreateWorkset(userID(c), &fleet.WorksetInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		rs.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, workset)
}

func (rs *RestfulServer) AssignRobot(c *gin.Context) {
	robot, err := rs.Fleet.Workset.AssignRobot(userID(c), c.Param("id"), c.Param("robot_id"))
	if err != nil {
		rs.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, robot)
}
