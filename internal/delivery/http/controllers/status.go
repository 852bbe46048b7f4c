package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type StatusHandler struct {
	service string
}

func NewStatusHandler() *StatusHandler {
	return &StatusHandler{service: "skillmarket"}
}

func (h *StatusHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"service": h.service,
	})
}
