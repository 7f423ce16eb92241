package support

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"ticketing-admin-svc/src/internal/config"
	"ticketing-admin-svc/src/internal/models"
	"ticketing-admin-svc/src/internal/venue"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) Start(ctx context.Context, actor Actor, venueID, ip, userAgent string) (*Session, error) {
	args := m.Called(ctx, actor, venueID, ip, userAgent)
	return sessionArg(args)
}

func (m *mockService) Switch(ctx context.Context, actor Actor, venueID, ip, userAgent string) (*Session, error) {
	args := m.Called(ctx, actor, venueID, ip, userAgent)
	return sessionArg(args)
}

func (m *mockService) End(ctx context.Context, actor Actor, ip, userAgent string) (*Session, error) {
	args := m.Called(ctx, actor, ip, userAgent)
	return sessionArg(args)
}

func (m *mockService) GetCurrent(ctx context.Context, adminID string) (*Session, error) {
	args := m.Called(ctx, adminID)
	return sessionArg(args)
}

func (m *mockService) GetCurrentAccess(ctx context.Context, adminID string) (*Access, error) {
	args := m.Called(ctx, adminID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Access), args.Error(1)
}

func sessionArg(args mock.Arguments) (*Session, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Session), args.Error(1)
}

// withActor stands in for the auth middleware.
func withActor(actor Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", actor.UserID)
		c.Set("user_email", actor.Email)
		c.Set("user_role", actor.Role)
		c.Next()
	}
}

func setupSupportRouter(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(&config.Configuration{App: config.Application{Timeout: 5}}, svc)

	g := r.Group("/api/v1/admin/support/venue", withActor(adminA))
	g.GET("/current", h.GetCurrent)
	g.POST("/start", h.Start)
	g.POST("/end", h.End)
	g.POST("/switch", h.Switch)
	return r
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", testUA)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestStartHandler_Created(t *testing.T) {
	svc := new(mockService)
	svc.On("Start", mock.Anything, adminA, "7", mock.Anything, testUA).
		Return(&Session{ID: "s1", AdminID: adminA.UserID, VenueID: "7", Active: true}, nil)

	w := doJSON(setupSupportRouter(svc), http.MethodPost, "/api/v1/admin/support/venue/start", map[string]string{"venueId": "7"})

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp struct {
		Data Session `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "7", resp.Data.VenueID)
	svc.AssertExpectations(t)
}

func TestStartHandler_Errors(t *testing.T) {
	tests := []struct {
		name string
		body any
		err  error
		want int
	}{
		{"missing venue", map[string]string{}, nil, http.StatusBadRequest},
		{"not admin", map[string]string{"venueId": "7"}, models.ErrUnauthorized, http.StatusForbidden},
		{"unknown venue", map[string]string{"venueId": "7"}, models.ErrVenueNotFound, http.StatusNotFound},
		{"already active", map[string]string{"venueId": "7"}, models.ErrAlreadyInSession, http.StatusConflict},
		{"storage", map[string]string{"venueId": "7"}, errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockService)
			if tt.err != nil {
				svc.On("Start", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.err)
			}

			w := doJSON(setupSupportRouter(svc), http.MethodPost, "/api/v1/admin/support/venue/start", tt.body)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestSwitchHandler_RejectsOtherUser(t *testing.T) {
	svc := new(mockService)

	w := doJSON(setupSupportRouter(svc), http.MethodPost, "/api/v1/admin/support/venue/switch",
		map[string]string{"userId": "someone-else", "venueId": "9"})

	assert.Equal(t, http.StatusForbidden, w.Code)
	svc.AssertNotCalled(t, "Switch", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSwitchHandler_OK(t *testing.T) {
	svc := new(mockService)
	svc.On("Switch", mock.Anything, adminA, "9", mock.Anything, testUA).
		Return(&Session{ID: "s1", AdminID: adminA.UserID, VenueID: "9", Active: true}, nil)

	w := doJSON(setupSupportRouter(svc), http.MethodPost, "/api/v1/admin/support/venue/switch",
		map[string]string{"userId": adminA.UserID, "venueId": "9"})

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestSwitchHandler_NoActiveSession(t *testing.T) {
	svc := new(mockService)
	svc.On("Switch", mock.Anything, mock.Anything, "9", mock.Anything, mock.Anything).Return(nil, models.ErrNoActiveSession)

	w := doJSON(setupSupportRouter(svc), http.MethodPost, "/api/v1/admin/support/venue/switch",
		map[string]string{"venueId": "9"})

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestEndHandler(t *testing.T) {
	ended := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	svc := new(mockService)
	svc.On("End", mock.Anything, adminA, mock.Anything, testUA).
		Return(&Session{ID: "s1", VenueID: "9", EndedAt: &ended}, nil).Once()
	svc.On("End", mock.Anything, adminA, mock.Anything, testUA).
		Return(nil, models.ErrNoActiveSession)

	r := setupSupportRouter(svc)

	w := doJSON(r, http.MethodPost, "/api/v1/admin/support/venue/end", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])

	w = doJSON(r, http.MethodPost, "/api/v1/admin/support/venue/end", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCurrentHandler(t *testing.T) {
	svc := new(mockService)
	svc.On("GetCurrentAccess", mock.Anything, adminA.UserID).Return(&Access{
		Session:       &Session{ID: "s1", AdminID: adminA.UserID, VenueID: "7", Active: true},
		Venue:         &venue.Summary{ID: "7", Name: "Roundhouse"},
		ActiveSeconds: 42,
	}, nil)

	r := setupSupportRouter(svc)
	w := doJSON(r, http.MethodGet, "/api/v1/admin/support/venue/current?userId="+adminA.UserID, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data struct {
			Session  Session       `json:"session"`
			Venue    venue.Summary `json:"venue"`
			IsActive bool          `json:"isActive"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Data.IsActive)
	assert.Equal(t, "7", resp.Data.Session.VenueID)
	assert.Equal(t, "Roundhouse", resp.Data.Venue.Name)
}

func TestCurrentHandler_NoSession(t *testing.T) {
	svc := new(mockService)
	svc.On("GetCurrentAccess", mock.Anything, adminA.UserID).Return(nil, nil)

	w := doJSON(setupSupportRouter(svc), http.MethodGet, "/api/v1/admin/support/venue/current", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"session":null`)
}

func TestCurrentHandler_OtherUserForbidden(t *testing.T) {
	svc := new(mockService)

	w := doJSON(setupSupportRouter(svc), http.MethodGet, "/api/v1/admin/support/venue/current?userId=admin-b", nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
