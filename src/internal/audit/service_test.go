package audit

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"ticketing-admin-svc/src/internal/config"
	"ticketing-admin-svc/src/internal/models"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// memoryRepository applies filters the same way the Mongo query does.
type memoryRepository struct {
	entries   []*Entry
	insertErr error
}

func (r *memoryRepository) EnsureIndexes(context.Context) error { return nil }

func (r *memoryRepository) Insert(_ context.Context, entry *Entry) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *memoryRepository) Find(_ context.Context, filter Filter) ([]*Entry, int64, error) {
	var matched []*Entry
	for _, e := range r.entries {
		if filter.UserID != "" && e.ActorID != filter.UserID {
			continue
		}
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		if filter.StartDate != nil && e.Timestamp.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && e.Timestamp.After(*filter.EndDate) {
			continue
		}
		matched = append(matched, e)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	total := int64(len(matched))
	if filter.Offset >= len(matched) {
		return []*Entry{}, total, nil
	}
	matched = matched[filter.Offset:]
	if len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, message models.AuditMessage) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

var testAuditConfig = &config.AuditConfig{DefaultLimit: 100, MaxLimit: 500}

var baseTime = time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

func seed(repo *memoryRepository, n int) {
	for i := 0; i < n; i++ {
		repo.entries = append(repo.entries, &Entry{
			ID:        fmt.Sprintf("entry-%02d", i),
			ActorID:   "admin-1",
			Action:    models.ActionSupportSessionStart,
			Timestamp: baseTime.Add(time.Duration(i) * time.Hour),
		})
	}
}

func TestRecord_AssignsIDAndTimestampAndPublishes(t *testing.T) {
	repo := &memoryRepository{}
	pub := new(mockPublisher)
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(m models.AuditMessage) bool {
		return m.Action == models.ActionSupportSessionStart && m.ServiceName == models.ServiceAdminSupport
	})).Return(nil)

	svc := NewService(repo, pub, testAuditConfig)
	venueID := "venue-7"
	entry := &Entry{ActorID: "admin-1", Action: models.ActionSupportSessionStart, TargetID: &venueID}

	require.NoError(t, svc.Record(context.Background(), entry))

	require.Len(t, repo.entries, 1)
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.Timestamp.IsZero())
	pub.AssertExpectations(t)
}

func TestRecord_PublishFailureIsNotReturned(t *testing.T) {
	repo := &memoryRepository{}
	pub := new(mockPublisher)
	pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	svc := NewService(repo, pub, testAuditConfig)

	err := svc.Record(context.Background(), &Entry{ActorID: "admin-1", Action: models.ActionLogin})
	assert.NoError(t, err)
	assert.Len(t, repo.entries, 1)
}

func TestRecord_InsertFailureSkipsPublish(t *testing.T) {
	repo := &memoryRepository{insertErr: models.ErrDatabaseInsert}
	pub := new(mockPublisher)

	svc := NewService(repo, pub, testAuditConfig)

	err := svc.Record(context.Background(), &Entry{ActorID: "admin-1", Action: models.ActionLogin})
	assert.ErrorIs(t, err, models.ErrDatabaseInsert)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestRecord_RequiresActorAndAction(t *testing.T) {
	svc := NewService(&memoryRepository{}, nil, testAuditConfig)

	err := svc.Record(context.Background(), &Entry{Action: models.ActionLogin})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestList_LimitReturnsNewestFirst(t *testing.T) {
	repo := &memoryRepository{}
	seed(repo, 25)
	svc := NewService(repo, nil, testAuditConfig)

	page, err := svc.List(context.Background(), Filter{Limit: 10, Offset: 0})
	require.NoError(t, err)

	require.Len(t, page.Entries, 10)
	assert.Equal(t, int64(25), page.Total)
	assert.True(t, page.HasMore)
	for i := 1; i < len(page.Entries); i++ {
		assert.True(t, page.Entries[i-1].Timestamp.After(page.Entries[i].Timestamp))
	}
	assert.Equal(t, "entry-24", page.Entries[0].ID)
}

func TestList_DateRangeExcludesOutsideEntries(t *testing.T) {
	repo := &memoryRepository{}
	seed(repo, 10)
	svc := NewService(repo, nil, testAuditConfig)

	start := baseTime.Add(2 * time.Hour)
	end := baseTime.Add(5 * time.Hour)
	page, err := svc.List(context.Background(), Filter{StartDate: &start, EndDate: &end})
	require.NoError(t, err)

	require.Len(t, page.Entries, 4)
	for _, e := range page.Entries {
		assert.False(t, e.Timestamp.Before(start))
		assert.False(t, e.Timestamp.After(end))
	}
	assert.False(t, page.HasMore)
}

func TestList_DefaultsAndCapsLimit(t *testing.T) {
	svc := NewService(&memoryRepository{}, nil, testAuditConfig)

	page, err := svc.List(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Equal(t, 100, page.Limit)

	page, err = svc.List(context.Background(), Filter{Limit: 10000})
	require.NoError(t, err)
	assert.Equal(t, 500, page.Limit)
}

func TestList_RejectsInvalidFilters(t *testing.T) {
	svc := NewService(&memoryRepository{}, nil, testAuditConfig)
	later := baseTime.Add(time.Hour)

	tests := []struct {
		name   string
		filter Filter
	}{
		{"negative limit", Filter{Limit: -1}},
		{"negative offset", Filter{Offset: -5}},
		{"start after end", Filter{StartDate: &later, EndDate: &baseTime}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.List(context.Background(), tt.filter)
			assert.ErrorIs(t, err, models.ErrValidation)
		})
	}
}
