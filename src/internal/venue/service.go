package venue

import (
	"context"
	"math"
	"ticketing-admin-svc/src/internal/config"
	"ticketing-admin-svc/src/internal/models"

	"github.com/sirupsen/logrus"
)

type Service interface {
	GetVenue(ctx context.Context, id string) (*Venue, error)
	ListVenues(ctx context.Context, req *ListRequest) (*ListResponse, error)
}

type venueService struct {
	repository Repository
	cfg        *config.SearchConfig
}

func NewService(repository Repository, cfg *config.Configuration) Service {
	return &venueService{
		repository: repository,
		cfg:        &cfg.Search,
	}
}

func (s *venueService) GetVenue(ctx context.Context, id string) (*Venue, error) {
	if id == "" {
		return nil, models.Validation("venueId is required")
	}

	v, err := s.repository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// soft-deleted venues are not a valid support target
	if v.IsDeleted() {
		return nil, models.ErrVenueNotFound
	}
	return v, nil
}

func (s *venueService) ListVenues(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	if req.Limit <= 0 {
		req.Limit = s.cfg.MinQueryLimit
	}
	if req.Limit > s.cfg.MaxQueryLimit {
		req.Limit = s.cfg.MaxQueryLimit
	}
	if req.Page <= 0 {
		req.Page = 1
	}

	if req.Status != "" && !isValidStatus(req.Status) {
		return nil, models.Validation("invalid status filter %q", req.Status)
	}

	venues, totalCount, err := s.repository.List(ctx, req)
	if err != nil {
		return nil, err
	}
	if venues == nil {
		venues = []*Venue{}
	}

	totalPages := int(math.Ceil(float64(totalCount) / float64(req.Limit)))

	logrus.WithFields(logrus.Fields{
		"venues_count": len(venues),
		"total_count":  totalCount,
		"total_pages":  totalPages,
	}).Info("Successfully retrieved venues")

	return &ListResponse{
		Venues:     venues,
		TotalCount: totalCount,
		Page:       req.Page,
		Limit:      req.Limit,
		TotalPages: totalPages,
	}, nil
}

func isValidStatus(status string) bool {
	switch status {
	case StatusActive, StatusPending, StatusSuspended:
		return true
	}
	return false
}
