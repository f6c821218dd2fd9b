package handlers

import (
	"net/http"

	"petcare/utils"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports the last dependency check taken by utils.StartHealthMonitor.
func HealthHandler(c *gin.Context) {
	status := utils.GetHealthStatus()
	if !status.Healthy() {
		c.JSON(http.StatusServiceUnavailable, utils.Response{Success: false, Message: "degraded", Data: status})
		return
	}
	utils.Success(c, http.StatusOK, "ok", status)
}
