package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"liyu1981.xyz/robot-fleet-service/pkg/fleet"
	"liyu1981.xyz/robot-fleet-service/pkg/models"
)

type AuditLogsRequest struct {
	UserID    string     `form:"userId"`
	Action    string     `form:"action" binding:"omitempty,oneof=CREATE UPDATE DELETE ASSIGN START_MAINTENANCE END_MAINTENANCE"`
	Resource  string     `form:"resource" binding:"omitempty,oneof=ROBOT WORKSET"`
	StartDate *time.Time `form:"startDate" time_format:"2006-01-02T15:04:05Z07:00"`
	EndDate   *time.Time `form:"endDate" time_format:"2006-01-02T15:04:05Z07:00"`
	Limit     int        `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset    int        `form:"offset" binding:"omitempty,min=0"`
}

func (rs *RestfulServer) ListAuditLogs(c *gin.Context) {
	var req AuditLogsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	page, err := rs.Fleet.Audit.ListAuditLogs(fleet.AuditQuery{
		UserID:    req.UserID,
		Action:    models.AuditAction(req.Action),
		Resource:  models.AuditResource(req.Resource),
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Limit:     req.Limit,
		Offset:    req.Offset,
	})
	if err != nil {
		rs.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}
