package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/medtrack/medtrack-api/internal/dto"
	"github.com/medtrack/medtrack-api/internal/models"
	"github.com/medtrack/medtrack-api/internal/service"
	appErrors "github.com/medtrack/medtrack-api/pkg/errors"
	"github.com/medtrack/medtrack-api/pkg/response"
)

// MedicationHandler handles medication and schedule-version endpoints.
type MedicationHandler struct {
	service *service.MedicationService
	access  *service.AccessService
}

// NewMedicationHandler constructs a medication handler.
func NewMedicationHandler(svc *service.MedicationService, access *service.AccessService) *MedicationHandler {
	return &MedicationHandler{service: svc, access: access}
}

// requireMedication loads the medication and checks the caller's access.
func (h *MedicationHandler) requireMedication(c *gin.Context, write bool) (*dto.MedicationResponse, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	id, ok := pathID(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid medication id"))
		return nil, false
	}
	med, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	check := h.access.RequireRead
	if write {
		check = h.access.RequireWrite
	}
	if err := check(c.Request.Context(), med.PatientID, claims.UserID); err != nil {
		response.Error(c, err)
		return nil, false
	}
	return med, true
}

// List godoc
// @Summary List a patient's medications
// @Tags Medications
// @Produce json
// @Param id path int true "Patient ID"
// @Param status query string false "Filter by status (active/paused)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /patients/{id}/medications [get]
func (h *MedicationHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	patientID, ok := pathID(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid patient id"))
		return
	}
	if err := h.access.RequireRead(c.Request.Context(), patientID, claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	filter := models.MedicationFilter{PatientID: patientID, Status: c.Query("status")}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = limit
	}
	medications, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, medications, pagination)
}

// Get godoc
// @Summary Get medication by id
// @Tags Medications
// @Produce json
// @Param id path int true "Medication ID"
// @Success 200 {object} response.Envelope
// @Router /medications/{id} [get]
func (h *MedicationHandler) Get(c *gin.Context) {
	med, ok := h.requireMedication(c, false)
	if !ok {
		return
	}
	response.JSON(c, http.StatusOK, med, nil)
}

// Create godoc
// @Summary Create medication for a patient
// @Tags Medications
// @Accept json
// @Produce json
// @Param id path int true "Patient ID"
// @Param payload body dto.MedicationRequest true "Medication payload"
// @Success 201 {object} response.Envelope
// @Router /patients/{id}/medications [post]
func (h *MedicationHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	patientID, ok := pathID(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid patient id"))
		return
	}
	if err := h.access.RequireWrite(c.Request.Context(), patientID, claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	var req dto.MedicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	med, err := h.service.Create(c.Request.Context(), patientID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, med)
}

// Update godoc
// @Summary Update medication fields
// @Tags Medications
// @Accept json
// @Produce json
// @Param id path int true "Medication ID"
// @Param payload body dto.MedicationRequest true "Medication payload"
// @Success 200 {object} response.Envelope
// @Router /medications/{id} [put]
func (h *MedicationHandler) Update(c *gin.Context) {
	med, ok := h.requireMedication(c, true)
	if !ok {
		return
	}
	var req dto.MedicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	updated, err := h.service.Update(c.Request.Context(), med.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updated, nil)
}

// UpdateSchedule godoc
// @Summary Replace the medication's schedule
// @Description Appends a new schedule version when the definition changed;
// @Description a no-op update returns the current version unchanged.
// @Tags Medications
// @Accept json
// @Produce json
// @Param id path int true "Medication ID"
// @Param payload body dto.UpdateScheduleRequest true "Schedule payload"
// @Success 200 {object} response.Envelope
// @Router /medications/{id}/schedule [put]
func (h *MedicationHandler) UpdateSchedule(c *gin.Context) {
	med, ok := h.requireMedication(c, true)
	if !ok {
		return
	}
	var req dto.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	version, changed, err := h.service.UpdateSchedule(c.Request.Context(), med.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, version, nil, map[string]interface{}{"changed": changed})
}

// History godoc
// @Summary List the medication's schedule version history
// @Tags Medications
// @Produce json
// @Param id path int true "Medication ID"
// @Success 200 {object} response.Envelope
// @Router /medications/{id}/schedule/history [get]
func (h *MedicationHandler) History(c *gin.Context) {
	med, ok := h.requireMedication(c, false)
	if !ok {
		return
	}
	history, err := h.service.History(c.Request.Context(), med.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history, nil)
}

// SetStatus godoc
// @Summary Pause or resume a medication
// @Tags Medications
// @Accept json
// @Produce json
// @Param id path int true "Medication ID"
// @Param payload body object true "Status payload"
// @Success 204
// @Router /medications/{id}/status [patch]
func (h *MedicationHandler) SetStatus(c *gin.Context) {
	med, ok := h.requireMedication(c, true)
	if !ok {
		return
	}
	var req struct {
		Status models.MedicationStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	if err := h.service.SetStatus(c.Request.Context(), med.ID, req.Status); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Delete godoc
// @Summary Delete medication
// @Tags Medications
// @Param id path int true "Medication ID"
// @Success 204
// @Router /medications/{id} [delete]
func (h *MedicationHandler) Delete(c *gin.Context) {
	med, ok := h.requireMedication(c, true)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), med.ID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
