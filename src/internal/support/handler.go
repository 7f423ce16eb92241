package support

import (
	"context"
	"fmt"
	"net/http"
	"ticketing-admin-svc/src/internal/config"
	"ticketing-admin-svc/src/internal/models"
	"ticketing-admin-svc/src/internal/response"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Handler interface {
	GetCurrent(c *gin.Context)
	Start(c *gin.Context)
	End(c *gin.Context)
	Switch(c *gin.Context)
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

// GetCurrent serves GET /admin/support/venue/current. The optional userId query
// must name the authenticated admin.
func (h *handler) GetCurrent(c *gin.Context) {
	ctx, cancel := h.timeout(c)
	defer cancel()

	actor := actorFromContext(c)
	if err := checkSubject(actor, c.Query("userId")); err != nil {
		response.Error(c, err)
		return
	}

	access, err := h.service.GetCurrentAccess(ctx, actor.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	if access == nil {
		response.Success(c, http.StatusOK, gin.H{
			"session":  nil,
			"isActive": false,
		}, "No active support session")
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"session":       access.Session,
		"venue":         access.Venue,
		"activeSeconds": access.ActiveSeconds,
		"isActive":      true,
	}, "Active support session retrieved")
}

func (h *handler) Start(c *gin.Context) {
	ctx, cancel := h.timeout(c)
	defer cancel()

	var req StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, models.Validation("venueId is required"))
		return
	}

	actor := actorFromContext(c)
	logrus.WithFields(logrus.Fields{
		"admin_id": actor.UserID,
		"venue_id": req.VenueID,
	}).Info("Start support session request received")

	session, err := h.service.Start(ctx, actor, req.VenueID, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, session, "Support session started")
}

func (h *handler) End(c *gin.Context) {
	ctx, cancel := h.timeout(c)
	defer cancel()

	actor := actorFromContext(c)
	logrus.WithField("admin_id", actor.UserID).Info("End support session request received")

	session, err := h.service.End(ctx, actor, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, session, "Support session ended")
}

func (h *handler) Switch(c *gin.Context) {
	ctx, cancel := h.timeout(c)
	defer cancel()

	var req SwitchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, models.Validation("venueId is required"))
		return
	}

	actor := actorFromContext(c)
	if err := checkSubject(actor, req.UserID); err != nil {
		response.Error(c, err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"admin_id": actor.UserID,
		"venue_id": req.VenueID,
	}).Info("Switch support session request received")

	session, err := h.service.Switch(ctx, actor, req.VenueID, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, session, "Support session switched")
}

func (h *handler) timeout(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), time.Duration(h.config.App.Timeout)*time.Second)
}

func actorFromContext(c *gin.Context) Actor {
	return Actor{
		UserID: c.GetString("user_id"),
		Email:  c.GetString("user_email"),
		Role:   c.GetString("user_role"),
	}
}

// checkSubject rejects requests that name a different admin than the token holder.
func checkSubject(actor Actor, userID string) error {
	if userID == "" || userID == actor.UserID {
		return nil
	}
	logrus.WithFields(logrus.Fields{
		"admin_id":       actor.UserID,
		"requested_user": userID,
	}).Warn("Support session request for another user rejected")
	return fmt.Errorf("%w: userId does not match the authenticated admin", models.ErrForbidden)
}
