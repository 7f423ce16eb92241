package audit

import (
	"context"
	"ticketing-admin-svc/src/internal/config"
	"ticketing-admin-svc/src/internal/models"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Publisher fans recorded entries out to other services.
type Publisher interface {
	Publish(ctx context.Context, message models.AuditMessage) error
}

type Service interface {
	Record(ctx context.Context, entry *Entry) error
	List(ctx context.Context, filter Filter) (*Page, error)
}

type auditService struct {
	repository   Repository
	publisher    Publisher
	defaultLimit int
	maxLimit     int
	now          func() time.Time
}

// NewService builds the audit service. publisher may be nil.
func NewService(repository Repository, publisher Publisher, cfg *config.AuditConfig) Service {
	return &auditService{
		repository:   repository,
		publisher:    publisher,
		defaultLimit: cfg.DefaultLimit,
		maxLimit:     cfg.MaxLimit,
		now:          time.Now,
	}
}

func (s *auditService) Record(ctx context.Context, entry *Entry) error {
	if entry.ActorID == "" || entry.Action == "" {
		return models.Validation("audit entry requires actor and action")
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now().UTC()
	}

	if err := s.repository.Insert(ctx, entry); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"audit_id":  entry.ID,
		"actor_id":  entry.ActorID,
		"action":    entry.Action,
		"target_id": entry.TargetID,
		"ip":        entry.IPAddress,
	}).Info("Audit entry recorded")

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, entry.toMessage(serviceFor(entry.Action))); err != nil {
			logrus.WithError(err).WithField("audit_id", entry.ID).Warn("Failed to publish audit entry")
		}
	}

	return nil
}

func (s *auditService) List(ctx context.Context, filter Filter) (*Page, error) {
	if filter.Limit < 0 {
		return nil, models.Validation("limit must not be negative")
	}
	if filter.Offset < 0 {
		return nil, models.Validation("offset must not be negative")
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.StartDate.After(*filter.EndDate) {
		return nil, models.Validation("startDate must not be after endDate")
	}

	if filter.Limit == 0 {
		filter.Limit = s.defaultLimit
	}
	if filter.Limit > s.maxLimit {
		filter.Limit = s.maxLimit
	}

	entries, total, err := s.repository.Find(ctx, filter)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id": filter.UserID,
		"action":  filter.Action,
		"limit":   filter.Limit,
		"offset":  filter.Offset,
		"count":   len(entries),
		"total":   total,
	}).Debug("Audit entries listed")

	return &Page{
		Entries: entries,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
		HasMore: int64(filter.Offset+len(entries)) < total,
	}, nil
}
