package audit

import (
	"context"
	"net/http"
	"strconv"
	"ticketing-admin-svc/src/internal/config"
	"ticketing-admin-svc/src/internal/models"
	"ticketing-admin-svc/src/internal/response"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const dateOnly = "2006-01-02"

type Handler interface {
	GetAuditLogs(c *gin.Context)
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

// GetAuditLogs serves GET /admin/audit-logs.
func (h *handler) GetAuditLogs(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(h.config.App.Timeout)*time.Second)
	defer cancel()

	filter, err := parseFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	adminID, _ := c.Get("user_id")
	logrus.WithFields(logrus.Fields{
		"admin_user_id": adminID,
		"user_id":       filter.UserID,
		"action":        filter.Action,
		"limit":         filter.Limit,
		"offset":        filter.Offset,
	}).Info("GetAuditLogs request received")

	page, err := h.service.List(ctx, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, page, "Audit logs retrieved successfully")
}

func parseFilter(c *gin.Context) (Filter, error) {
	filter := Filter{
		UserID: c.Query("userId"),
		Action: c.Query("action"),
	}

	var err error
	if filter.Limit, err = intQuery(c, "limit"); err != nil {
		return filter, err
	}
	if filter.Offset, err = intQuery(c, "offset"); err != nil {
		return filter, err
	}

	if v := c.Query("startDate"); v != "" {
		start, err := parseDate(v, false)
		if err != nil {
			return filter, models.Validation("startDate %q is not a valid date", v)
		}
		filter.StartDate = &start
	}

	if v := c.Query("endDate"); v != "" {
		end, err := parseDate(v, true)
		if err != nil {
			return filter, models.Validation("endDate %q is not a valid date", v)
		}
		filter.EndDate = &end
	}

	return filter, nil
}

func intQuery(c *gin.Context, name string) (int, error) {
	value := c.Query(name)
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, models.Validation("%s must be an integer", name)
	}
	return parsed, nil
}

// parseDate accepts RFC3339 or a bare date. A bare end date covers the whole day.
func parseDate(value string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}

	t, err := time.Parse(dateOnly, value)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
