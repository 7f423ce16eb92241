package support

import (
	"context"
	"errors"
	"strconv"
	"ticketing-admin-svc/src/internal/audit"
	"ticketing-admin-svc/src/internal/models"
	"ticketing-admin-svc/src/internal/venue"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Service interface {
	Start(ctx context.Context, actor Actor, venueID, ip, userAgent string) (*Session, error)
	Switch(ctx context.Context, actor Actor, venueID, ip, userAgent string) (*Session, error)
	End(ctx context.Context, actor Actor, ip, userAgent string) (*Session, error)
	GetCurrent(ctx context.Context, adminID string) (*Session, error)
	GetCurrentAccess(ctx context.Context, adminID string) (*Access, error)
}

// VenueLookup resolves support targets.
type VenueLookup interface {
	GetVenue(ctx context.Context, id string) (*venue.Venue, error)
}

type AuditRecorder interface {
	Record(ctx context.Context, entry *audit.Entry) error
}

type supportService struct {
	repository Repository
	venues     VenueLookup
	audit      AuditRecorder
	now        func() time.Time
}

// NewService wires the support session service. The repository is the only
// source of truth for which session is active.
func NewService(repository Repository, venues VenueLookup, recorder AuditRecorder) Service {
	return &supportService{
		repository: repository,
		venues:     venues,
		audit:      recorder,
		now:        time.Now,
	}
}

func (s *supportService) Start(ctx context.Context, actor Actor, venueID, ip, userAgent string) (*Session, error) {
	if !actor.IsAdmin() {
		return nil, models.ErrUnauthorized
	}
	if venueID == "" {
		return nil, models.Validation("venueId is required")
	}

	if _, err := s.venues.GetVenue(ctx, venueID); err != nil {
		return nil, err
	}

	current, err := s.repository.FindActive(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if current != nil {
		logrus.WithFields(logrus.Fields{
			"admin_id":         actor.UserID,
			"active_venue_id":  current.VenueID,
			"request_venue_id": venueID,
		}).Warn("Support session already active")
		return nil, models.ErrAlreadyInSession
	}

	now := s.now().UTC()
	session := &Session{
		ID:        uuid.NewString(),
		AdminID:   actor.UserID,
		VenueID:   venueID,
		Active:    true,
		StartedAt: now,
		IPAddress: ip,
		UserAgent: userAgent,
		UpdatedAt: now,
	}

	if err := s.repository.Create(ctx, session); err != nil {
		return nil, err
	}

	err = s.record(ctx, actor, models.ActionSupportSessionStart, venueID, ip, userAgent, map[string]string{
		"sessionId": session.ID,
		"venueId":   venueID,
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"admin_id":   actor.UserID,
		"venue_id":   venueID,
		"session_id": session.ID,
	}).Info("Support session started")

	return session, nil
}

func (s *supportService) Switch(ctx context.Context, actor Actor, venueID, ip, userAgent string) (*Session, error) {
	if !actor.IsAdmin() {
		return nil, models.ErrUnauthorized
	}
	if venueID == "" {
		return nil, models.Validation("venueId is required")
	}

	current, err := s.repository.FindActive(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, models.ErrNoActiveSession
	}
	if current.VenueID == venueID {
		return nil, models.Validation("support session is already on venue %s", venueID)
	}

	if _, err := s.venues.GetVenue(ctx, venueID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	previous, err := s.repository.SwitchVenue(ctx, actor.UserID, venueID, now)
	if err != nil {
		return nil, err
	}

	updated := *previous
	updated.VenueID = venueID
	updated.UpdatedAt = now

	err = s.record(ctx, actor, models.ActionSupportSessionSwitch, venueID, ip, userAgent, map[string]string{
		"sessionId":   updated.ID,
		"fromVenueId": previous.VenueID,
		"toVenueId":   venueID,
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"admin_id":      actor.UserID,
		"from_venue_id": previous.VenueID,
		"to_venue_id":   venueID,
		"session_id":    updated.ID,
	}).Info("Support session switched")

	return &updated, nil
}

func (s *supportService) End(ctx context.Context, actor Actor, ip, userAgent string) (*Session, error) {
	if !actor.IsAdmin() {
		return nil, models.ErrUnauthorized
	}

	closed, err := s.repository.Close(ctx, actor.UserID, s.now().UTC())
	if err != nil {
		return nil, err
	}

	duration := closed.EndedAt.Sub(closed.StartedAt)
	err = s.record(ctx, actor, models.ActionSupportSessionEnd, closed.VenueID, ip, userAgent, map[string]string{
		"sessionId":       closed.ID,
		"venueId":         closed.VenueID,
		"durationSeconds": strconv.FormatInt(int64(duration.Seconds()), 10),
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"admin_id":   actor.UserID,
		"venue_id":   closed.VenueID,
		"session_id": closed.ID,
		"duration":   duration.String(),
	}).Info("Support session ended")

	return closed, nil
}

func (s *supportService) GetCurrent(ctx context.Context, adminID string) (*Session, error) {
	if adminID == "" {
		return nil, models.Validation("userId is required")
	}

	return s.repository.FindActive(ctx, adminID)
}

func (s *supportService) GetCurrentAccess(ctx context.Context, adminID string) (*Access, error) {
	session, err := s.GetCurrent(ctx, adminID)
	if err != nil || session == nil {
		return nil, err
	}

	access := &Access{
		Session:       session,
		ActiveSeconds: int64(s.now().Sub(session.StartedAt).Seconds()),
	}

	v, err := s.venues.GetVenue(ctx, session.VenueID)
	switch {
	case err == nil:
		access.Venue = v.ToSummary()
	case errors.Is(err, models.ErrNotFound):
		logrus.WithFields(logrus.Fields{
			"admin_id": adminID,
			"venue_id": session.VenueID,
		}).Warn("Venue of active support session no longer exists")
	default:
		return nil, err
	}

	return access, nil
}

func (s *supportService) record(ctx context.Context, actor Actor, action, targetID, ip, userAgent string, metadata map[string]string) error {
	entry := &audit.Entry{
		ActorID:   actor.UserID,
		Action:    action,
		TargetID:  &targetID,
		Metadata:  metadata,
		IPAddress: ip,
		UserAgent: userAgent,
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"admin_id": actor.UserID,
			"action":   action,
		}).Error("Support session changed but audit entry was not written")
		return err
	}
	return nil
}
