package support

import (
	"context"
	"errors"
	"sync"
	"testing"
	"ticketing-admin-svc/src/internal/audit"
	"ticketing-admin-svc/src/internal/models"
	"ticketing-admin-svc/src/internal/venue"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryRepository mirrors the Mongo repository, including the unique index on
// active sessions per admin.
type memoryRepository struct {
	mu       sync.Mutex
	sessions []*Session
}

func (r *memoryRepository) EnsureIndexes(context.Context) error { return nil }

func (r *memoryRepository) Create(_ context.Context, session *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.activeLocked(session.AdminID) != nil {
		return models.ErrAlreadyInSession
	}
	stored := *session
	r.sessions = append(r.sessions, &stored)
	return nil
}

func (r *memoryRepository) FindActive(_ context.Context, adminID string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s := r.activeLocked(adminID); s != nil {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

func (r *memoryRepository) SwitchVenue(_ context.Context, adminID, venueID string, at time.Time) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.activeLocked(adminID)
	if s == nil {
		return nil, models.ErrNoActiveSession
	}
	before := *s
	s.VenueID = venueID
	s.UpdatedAt = at
	return &before, nil
}

func (r *memoryRepository) Close(_ context.Context, adminID string, at time.Time) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.activeLocked(adminID)
	if s == nil {
		return nil, models.ErrNoActiveSession
	}
	s.Active = false
	s.EndedAt = &at
	s.UpdatedAt = at
	cp := *s
	return &cp, nil
}

func (r *memoryRepository) activeLocked(adminID string) *Session {
	for _, s := range r.sessions {
		if s.AdminID == adminID && s.Active {
			return s
		}
	}
	return nil
}

func (r *memoryRepository) countActive(adminID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.sessions {
		if s.AdminID == adminID && s.Active {
			n++
		}
	}
	return n
}

type fakeVenues map[string]*venue.Venue

func (f fakeVenues) GetVenue(_ context.Context, id string) (*venue.Venue, error) {
	if v, ok := f[id]; ok {
		return v, nil
	}
	return nil, models.ErrVenueNotFound
}

type recordingAudit struct {
	mu      sync.Mutex
	entries []*audit.Entry
	err     error
}

func (a *recordingAudit) Record(_ context.Context, entry *audit.Entry) error {
	if a.err != nil {
		return a.err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
	return nil
}

func (a *recordingAudit) forActor(actorID string) []*audit.Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []*audit.Entry
	for _, e := range a.entries {
		if e.ActorID == actorID {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	svc   Service
	repo  *memoryRepository
	audit *recordingAudit
}

func newFixture() *fixture {
	repo := &memoryRepository{}
	rec := &recordingAudit{}
	venues := fakeVenues{
		"7": {ID: "7", Name: "Roundhouse", City: "London", Status: venue.StatusActive},
		"9": {ID: "9", Name: "Paradiso", City: "Amsterdam", Status: venue.StatusActive},
	}
	return &fixture{
		svc:   NewService(repo, venues, rec),
		repo:  repo,
		audit: rec,
	}
}

var adminA = Actor{UserID: "admin-a", Email: "a@tickets.test", Role: models.RoleAdmin}

const (
	testIP = "203.0.113.10"
	testUA = "Mozilla/5.0"
)

func TestSupportSession_Scenario(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	started, err := f.svc.Start(ctx, adminA, "7", testIP, testUA)
	require.NoError(t, err)
	assert.True(t, started.Active)
	assert.Equal(t, testIP, started.IPAddress)
	assert.Equal(t, testUA, started.UserAgent)

	current, err := f.svc.GetCurrent(ctx, adminA.UserID)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "7", current.VenueID)

	switched, err := f.svc.Switch(ctx, adminA, "9", testIP, testUA)
	require.NoError(t, err)
	assert.Equal(t, "9", switched.VenueID)
	assert.Equal(t, started.ID, switched.ID)

	current, err = f.svc.GetCurrent(ctx, adminA.UserID)
	require.NoError(t, err)
	assert.Equal(t, "9", current.VenueID)

	entries := f.audit.forActor(adminA.UserID)
	require.Len(t, entries, 2)
	assert.Equal(t, models.ActionSupportSessionStart, entries[0].Action)
	assert.Equal(t, "7", *entries[0].TargetID)
	assert.Equal(t, models.ActionSupportSessionSwitch, entries[1].Action)
	assert.Equal(t, "7", entries[1].Metadata["fromVenueId"])
	assert.Equal(t, "9", entries[1].Metadata["toVenueId"])

	ended, err := f.svc.End(ctx, adminA, testIP, testUA)
	require.NoError(t, err)
	assert.False(t, ended.Active)
	require.NotNil(t, ended.EndedAt)

	current, err = f.svc.GetCurrent(ctx, adminA.UserID)
	require.NoError(t, err)
	assert.Nil(t, current)

	entries = f.audit.forActor(adminA.UserID)
	require.Len(t, entries, 3)
	assert.Equal(t, models.ActionSupportSessionEnd, entries[2].Action)
	assert.Equal(t, "9", *entries[2].TargetID)
}

func TestStart_RejectsWhenAlreadyActive(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Start(ctx, adminA, "7", testIP, testUA)
	require.NoError(t, err)

	_, err = f.svc.Start(ctx, adminA, "9", testIP, testUA)
	assert.ErrorIs(t, err, models.ErrAlreadyInSession)

	current, err := f.svc.GetCurrent(ctx, adminA.UserID)
	require.NoError(t, err)
	assert.Equal(t, "7", current.VenueID, "existing session must not be overwritten")
	assert.Len(t, f.audit.forActor(adminA.UserID), 1)
}

func TestStart_ConcurrentCallsLeaveOneActiveSession(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Start(ctx, adminA, "7", testIP, testUA)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, models.ErrAlreadyInSession)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, f.repo.countActive(adminA.UserID))
}

func TestStart_RequiresAdminRole(t *testing.T) {
	f := newFixture()
	venueOwner := Actor{UserID: "owner-1", Role: models.RoleVenue}

	_, err := f.svc.Start(context.Background(), venueOwner, "7", testIP, testUA)
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	_, err = f.svc.Start(context.Background(), Actor{Role: models.RoleAdmin}, "7", testIP, testUA)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestStart_ValidatesVenue(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Start(context.Background(), adminA, "", testIP, testUA)
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = f.svc.Start(context.Background(), adminA, "404", testIP, testUA)
	assert.ErrorIs(t, err, models.ErrVenueNotFound)
	assert.Equal(t, 0, f.repo.countActive(adminA.UserID))
}

func TestSwitch_WithoutSessionFails(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Switch(context.Background(), adminA, "9", testIP, testUA)
	assert.ErrorIs(t, err, models.ErrNoActiveSession)
	assert.Empty(t, f.audit.forActor(adminA.UserID))
}

func TestSwitch_SameVenueIsRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Start(ctx, adminA, "7", testIP, testUA)
	require.NoError(t, err)

	_, err = f.svc.Switch(ctx, adminA, "7", testIP, testUA)
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Len(t, f.audit.forActor(adminA.UserID), 1)
}

func TestSwitch_UnknownVenueKeepsSession(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Start(ctx, adminA, "7", testIP, testUA)
	require.NoError(t, err)

	_, err = f.svc.Switch(ctx, adminA, "404", testIP, testUA)
	assert.ErrorIs(t, err, models.ErrNotFound)

	current, err := f.svc.GetCurrent(ctx, adminA.UserID)
	require.NoError(t, err)
	assert.Equal(t, "7", current.VenueID)
}

func TestEnd_TwiceFails(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Start(ctx, adminA, "7", testIP, testUA)
	require.NoError(t, err)

	_, err = f.svc.End(ctx, adminA, testIP, testUA)
	require.NoError(t, err)

	_, err = f.svc.End(ctx, adminA, testIP, testUA)
	assert.ErrorIs(t, err, models.ErrNoActiveSession)
	assert.Len(t, f.audit.forActor(adminA.UserID), 2)
}

func TestEnd_AllowsNewSessionAfterwards(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Start(ctx, adminA, "7", testIP, testUA)
	require.NoError(t, err)
	_, err = f.svc.End(ctx, adminA, testIP, testUA)
	require.NoError(t, err)

	again, err := f.svc.Start(ctx, adminA, "9", testIP, testUA)
	require.NoError(t, err)
	assert.Equal(t, "9", again.VenueID)
	assert.Equal(t, 1, f.repo.countActive(adminA.UserID))
}

func TestAuditFailureIsReturnedWithoutRollback(t *testing.T) {
	f := newFixture()
	f.audit.err = errors.New("audit store unavailable")

	_, err := f.svc.Start(context.Background(), adminA, "7", testIP, testUA)
	assert.Error(t, err)
	assert.Equal(t, 1, f.repo.countActive(adminA.UserID))
}

func TestGetCurrentAccess(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	access, err := f.svc.GetCurrentAccess(ctx, adminA.UserID)
	require.NoError(t, err)
	assert.Nil(t, access)

	_, err = f.svc.Start(ctx, adminA, "7", testIP, testUA)
	require.NoError(t, err)

	access, err = f.svc.GetCurrentAccess(ctx, adminA.UserID)
	require.NoError(t, err)
	require.NotNil(t, access)
	assert.Equal(t, "Roundhouse", access.Venue.Name)
	assert.GreaterOrEqual(t, access.ActiveSeconds, int64(0))
}

func TestGetCurrent_ReflectsStoreAfterEnd(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Start(ctx, adminA, "7", testIP, testUA)
	require.NoError(t, err)

	current, err := f.svc.GetCurrent(ctx, adminA.UserID)
	require.NoError(t, err)
	require.NotNil(t, current)

	// closed by another replica
	_, err = f.repo.Close(ctx, adminA.UserID, time.Now().UTC())
	require.NoError(t, err)

	current, err = f.svc.GetCurrent(ctx, adminA.UserID)
	require.NoError(t, err)
	assert.Nil(t, current)

	_, err = f.svc.End(ctx, adminA, testIP, testUA)
	assert.ErrorIs(t, err, models.ErrNoActiveSession)

	access, err := f.svc.GetCurrentAccess(ctx, adminA.UserID)
	require.NoError(t, err)
	assert.Nil(t, access)
}
