package venue

import (
	"context"
	"net/http"
	"ticketing-admin-svc/src/internal/config"
	"ticketing-admin-svc/src/internal/models"
	"ticketing-admin-svc/src/internal/response"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Handler interface {
	ListVenues(c *gin.Context)
}

type handler struct {
	config  *config.Configuration
	service Service
}

func NewHandler(cfg *config.Configuration, service Service) Handler {
	return &handler{
		config:  cfg,
		service: service,
	}
}

func (h *handler) ListVenues(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(h.config.App.Timeout)*time.Second)
	defer cancel()

	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, models.Validation("invalid query: %v", err))
		return
	}

	logrus.WithFields(logrus.Fields{
		"page":   req.Page,
		"limit":  req.Limit,
		"search": req.Search,
		"city":   req.City,
	}).Info("ListVenues request received")

	result, err := h.service.ListVenues(ctx, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, result, "Venues retrieved successfully")
}
