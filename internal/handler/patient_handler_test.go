package handler

import (
	"bytes"
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medtrack/medtrack-api/internal/middleware"
	"github.com/medtrack/medtrack-api/internal/models"
	"github.com/medtrack/medtrack-api/internal/service"
)

type patientRepoMock struct {
	patients map[int64]*models.Patient
	created  *models.Patient
}

func (m *patientRepoMock) FindByID(ctx context.Context, id int64) (*models.Patient, error) {
	if p, ok := m.patients[id]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *patientRepoMock) ListByUser(ctx context.Context, userID string) ([]models.Patient, error) {
	var out []models.Patient
	for _, p := range m.patients {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *patientRepoMock) Create(ctx context.Context, patient *models.Patient) error {
	patient.ID = 99
	m.created = patient
	return nil
}

func (m *patientRepoMock) Update(ctx context.Context, patient *models.Patient) error { return nil }

func (m *patientRepoMock) UpdateHabits(ctx context.Context, patientID int64, habits models.Habits) error {
	return nil
}

func (m *patientRepoMock) Delete(ctx context.Context, id int64) error { return nil }

func (m *patientRepoMock) OwnedBy(ctx context.Context, patientID int64, userID string) (bool, error) {
	p, ok := m.patients[patientID]
	return ok && p.UserID == userID, nil
}

type shareRepoMock struct {
	levels map[string]models.AccessLevel
}

func (m *shareRepoMock) ListForPatient(ctx context.Context, patientID int64) ([]models.Share, error) {
	return nil, nil
}

func (m *shareRepoMock) FindLevel(ctx context.Context, patientID int64, userID string) (*models.AccessLevel, error) {
	if level, ok := m.levels[userID]; ok {
		return &level, nil
	}
	return nil, nil
}

func (m *shareRepoMock) Upsert(ctx context.Context, share *models.Share) error { return nil }

func (m *shareRepoMock) Delete(ctx context.Context, patientID int64, userID string) error {
	return nil
}

func newPatientHandler(patients *patientRepoMock, shares *shareRepoMock) *PatientHandler {
	svc := service.NewPatientService(patients, shares, nil, nil)
	access := service.NewAccessService(patients, shares, nil)
	return NewPatientHandler(svc, access)
}

func testContext(t *testing.T, method, target string, body []byte, userID string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var req *http.Request
	if body != nil {
		req, _ = http.NewRequest(method, target, bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, target, nil)
	}
	c.Request = req
	if userID != "" {
		c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: userID})
	}
	return c, w
}

func TestPatientHandlerGetAsOwner(t *testing.T) {
	patients := &patientRepoMock{patients: map[int64]*models.Patient{
		7: {ID: 7, UserID: "user-1", Name: "Alice"},
	}}
	handler := newPatientHandler(patients, &shareRepoMock{})

	c, w := testContext(t, http.MethodGet, "/patients/7", nil, "user-1")
	c.Params = gin.Params{{Key: "id", Value: "7"}}

	handler.Get(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Alice")
}

func TestPatientHandlerGetDeniedForStranger(t *testing.T) {
	patients := &patientRepoMock{patients: map[int64]*models.Patient{
		7: {ID: 7, UserID: "user-1", Name: "Alice"},
	}}
	handler := newPatientHandler(patients, &shareRepoMock{})

	c, w := testContext(t, http.MethodGet, "/patients/7", nil, "intruder")
	c.Params = gin.Params{{Key: "id", Value: "7"}}

	handler.Get(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestPatientHandlerGetAllowedViaShare(t *testing.T) {
	patients := &patientRepoMock{patients: map[int64]*models.Patient{
		7: {ID: 7, UserID: "user-1", Name: "Alice"},
	}}
	shares := &shareRepoMock{levels: map[string]models.AccessLevel{"friend": models.AccessRead}}
	handler := newPatientHandler(patients, shares)

	c, w := testContext(t, http.MethodGet, "/patients/7", nil, "friend")
	c.Params = gin.Params{{Key: "id", Value: "7"}}

	handler.Get(c)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestPatientHandlerSharedReadCannotUpdate(t *testing.T) {
	patients := &patientRepoMock{patients: map[int64]*models.Patient{
		7: {ID: 7, UserID: "user-1", Name: "Alice"},
	}}
	shares := &shareRepoMock{levels: map[string]models.AccessLevel{"friend": models.AccessRead}}
	handler := newPatientHandler(patients, shares)

	c, w := testContext(t, http.MethodPut, "/patients/7", []byte(`{"name":"Bob"}`), "friend")
	c.Params = gin.Params{{Key: "id", Value: "7"}}

	handler.Update(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestPatientHandlerCreate(t *testing.T) {
	patients := &patientRepoMock{patients: map[int64]*models.Patient{}}
	handler := newPatientHandler(patients, &shareRepoMock{})

	body := []byte(`{"name":"Alice","habits":{"tz":"America/New_York"}}`)
	c, w := testContext(t, http.MethodPost, "/patients", body, "user-1")

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, patients.created)
	assert.Equal(t, "user-1", patients.created.UserID)
	assert.Equal(t, "America/New_York", patients.created.Habits.Timezone)
}

func TestPatientHandlerCreateInvalidBody(t *testing.T) {
	handler := newPatientHandler(&patientRepoMock{}, &shareRepoMock{})

	c, w := testContext(t, http.MethodPost, "/patients", []byte(`{"name":`), "user-1")

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPatientHandlerUnauthenticated(t *testing.T) {
	handler := newPatientHandler(&patientRepoMock{}, &shareRepoMock{})

	c, w := testContext(t, http.MethodGet, "/patients", nil, "")

	handler.List(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
