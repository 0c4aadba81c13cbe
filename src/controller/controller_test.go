package controller_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"session-service/src/config"
	"session-service/src/events"
	"session-service/src/models"
	"session-service/src/router"
	"session-service/src/service"
	"session-service/src/store"
)

const cronSecret = "test-cron-secret"

type env struct {
	router *gin.Engine
	mem    *store.Memory
}

func newEnv() *env {
	gin.SetMode(gin.TestMode)

	mem := store.NewMemory()
	emitter := events.Nop{}
	capacity := service.NewCapacityGuard(mem.Sessions())

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	deps := router.Deps{
		Requests:  service.NewRequestService(mem.Requests(), mem.Sessions(), emitter, 15*time.Minute),
		Arbiter:   service.NewArbiter(mem.Requests(), mem.Sessions(), mem.Mechanics(), capacity, nil, emitter),
		Sessions:  service.NewSessionService(mem.Sessions(), emitter),
		Sweeper:   service.NewSweeper(mem.Requests(), mem.Sessions(), emitter),
		Capacity:  capacity,
		Mechanics: service.NewMechanicService(mem.Mechanics(), nil),
		Logger:    logger,
	}

	cfg := &config.GlobalConfig{CronSecret: cronSecret}
	return &env{router: router.NewRouter(cfg, deps), mem: mem}
}

func (e *env) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (e *env) seedPendingRequest(t *testing.T) *models.SessionRequest {
	t.Helper()
	now := time.Now()
	req := &models.SessionRequest{
		ID:          uuid.New().String(),
		CustomerID:  "cust-1",
		SessionType: models.TypeChat,
		PlanCode:    "chat10",
		Status:      models.RequestPending,
		CreatedAt:   now,
		ExpiresAt:   now.Add(15 * time.Minute),
	}
	require.NoError(t, e.mem.Create(context.Background(), req))
	return req
}

func TestCreateRequestEndpoint(t *testing.T) {
	e := newEnv()

	w := e.do(t, http.MethodPost, "/requests", gin.H{
		"customer_id":  "cust-1",
		"session_type": "chat",
		"plan_code":    "chat10",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	body := decode(t, w)
	assert.Equal(t, "pending", body["status"])
	assert.NotEmpty(t, body["id"])
	assert.NotEmpty(t, body["expires_at"])
}

func TestCreateRequestEndpointRejectsBadType(t *testing.T) {
	e := newEnv()

	w := e.do(t, http.MethodPost, "/requests", gin.H{
		"customer_id":  "cust-1",
		"session_type": "hologram",
		"plan_code":    "chat10",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAcceptEndpointSecondClaimConflicts(t *testing.T) {
	e := newEnv()
	e.mem.AddMechanic(models.Mechanic{ID: "mech-1", Name: "Ana", CanAcceptSessions: true})
	e.mem.AddMechanic(models.Mechanic{ID: "mech-2", Name: "Bo", CanAcceptSessions: true})
	req := e.seedPendingRequest(t)

	w := e.do(t, http.MethodPost, "/requests/"+req.ID+"/accept", gin.H{"mechanic_id": "mech-1"})
	require.Equal(t, http.StatusOK, w.Code)
	session := decode(t, w)
	assert.Equal(t, "accepted", session["status"])
	assert.Equal(t, "mech-1", session["mechanic_id"])

	w = e.do(t, http.MethodPost, "/requests/"+req.ID+"/accept", gin.H{"mechanic_id": "mech-2"})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already_assigned", decode(t, w)["error"])
}

func TestAcceptEndpointCapacity(t *testing.T) {
	e := newEnv()
	e.mem.AddMechanic(models.Mechanic{ID: "mech-1", Name: "Ana", CanAcceptSessions: true})
	first := e.seedPendingRequest(t)
	second := e.seedPendingRequest(t)

	w := e.do(t, http.MethodPost, "/requests/"+first.ID+"/accept", gin.H{"mechanic_id": "mech-1"})
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodPost, "/requests/"+second.ID+"/accept", gin.H{"mechanic_id": "mech-1"})
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "capacity_exceeded", decode(t, w)["error"])
}

func TestUpdateStatusEndpointIllegalTransition(t *testing.T) {
	e := newEnv()
	session := &models.Session{
		ID:         uuid.New().String(),
		CustomerID: "cust-1",
		Status:     models.SessionWaiting,
		Plan:       "chat10",
		Type:       models.TypeChat,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	e.mem.SeedSession(session)

	w := e.do(t, http.MethodPatch, "/sessions/"+session.ID+"/status", gin.H{"status": "completed"})
	require.Equal(t, http.StatusConflict, w.Code)

	body := decode(t, w)
	assert.Equal(t, "invalid_state_transition", body["error"])
	assert.Equal(t, "waiting", body["current"])
	assert.Equal(t, "completed", body["requested"])
}

func TestCancelSessionEndpointIdempotent(t *testing.T) {
	e := newEnv()
	session := &models.Session{
		ID:         uuid.New().String(),
		CustomerID: "cust-1",
		Status:     models.SessionWaiting,
		Plan:       "chat10",
		Type:       models.TypeChat,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	e.mem.SeedSession(session)

	w := e.do(t, http.MethodPost, "/sessions/"+session.ID+"/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["already_terminal"])

	w = e.do(t, http.MethodPost, "/sessions/"+session.ID+"/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["already_terminal"])
}

func TestSessionNotFound(t *testing.T) {
	e := newEnv()
	w := e.do(t, http.MethodGet, "/sessions/"+uuid.New().String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminCleanupRequiresSecret(t *testing.T) {
	e := newEnv()

	w := e.do(t, http.MethodPost, "/admin/cleanup", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(t, http.MethodPost, "/admin/cleanup", nil,
		"Authorization", "Bearer "+cronSecret)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Contains(t, body, "expiredRequests")
	assert.Contains(t, body, "totalCleaned")
}

func TestSetAvailabilityEndpoint(t *testing.T) {
	e := newEnv()
	e.mem.AddMechanic(models.Mechanic{ID: "mech-1", Name: "Ana", CanAcceptSessions: true})

	w := e.do(t, http.MethodPut, "/mechanics/mech-1/availability", gin.H{"available": false})
	require.Equal(t, http.StatusOK, w.Code)

	mech, err := e.mem.GetMechanic(context.Background(), "mech-1")
	require.NoError(t, err)
	assert.False(t, mech.CanAcceptSessions)

	w = e.do(t, http.MethodPut, "/mechanics/mech-1/availability", gin.H{"available": true})
	assert.Equal(t, http.StatusOK, w.Code)
}
