package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"scci_dashboard/internal/apperr"
)

// respondError writes err as {"message": ...} with its mapped status.
func respondError(c *gin.Context, op string, err error) {
	status := apperr.Status(err)
	entry := logrus.WithError(err).WithField("path", c.FullPath())
	if status >= http.StatusInternalServerError {
		entry.Error(op + ": request failed")
	} else {
		entry.Warn(op + ": request rejected")
	}
	c.JSON(status, gin.H{"message": apperr.Message(err)})
}
