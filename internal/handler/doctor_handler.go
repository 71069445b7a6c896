package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medtrack/medtrack-api/internal/dto"
	"github.com/medtrack/medtrack-api/internal/models"
	"github.com/medtrack/medtrack-api/internal/service"
	appErrors "github.com/medtrack/medtrack-api/pkg/errors"
	"github.com/medtrack/medtrack-api/pkg/response"
)

// DoctorHandler handles doctor endpoints.
type DoctorHandler struct {
	service *service.DoctorService
	access  *service.AccessService
}

// NewDoctorHandler constructs a doctor handler.
func NewDoctorHandler(svc *service.DoctorService, access *service.AccessService) *DoctorHandler {
	return &DoctorHandler{service: svc, access: access}
}

func (h *DoctorHandler) requireDoctor(c *gin.Context, write bool) (*models.Doctor, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	id, ok := pathID(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid doctor id"))
		return nil, false
	}
	doctor, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	check := h.access.RequireRead
	if write {
		check = h.access.RequireWrite
	}
	if err := check(c.Request.Context(), doctor.PatientID, claims.UserID); err != nil {
		response.Error(c, err)
		return nil, false
	}
	return doctor, true
}

// List godoc
// @Summary List a patient's doctors
// @Tags Doctors
// @Produce json
// @Param id path int true "Patient ID"
// @Success 200 {object} response.Envelope
// @Router /patients/{id}/doctors [get]
func (h *DoctorHandler) List(c *gin.Context) {
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
	doctors, err := h.service.List(c.Request.Context(), patientID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, doctors, nil)
}

// Get godoc
// @Summary Get doctor by id
// @Tags Doctors
// @Produce json
// @Param id path int true "Doctor ID"
// @Success 200 {object} response.Envelope
// @Router /doctors/{id} [get]
func (h *DoctorHandler) Get(c *gin.Context) {
	doctor, ok := h.requireDoctor(c, false)
	if !ok {
		return
	}
	response.JSON(c, http.StatusOK, doctor, nil)
}

// Create godoc
// @Summary Create doctor for a patient
// @Tags Doctors
// @Accept json
// @Produce json
// @Param id path int true "Patient ID"
// @Param payload body dto.PersonRequest true "Doctor payload"
// @Success 201 {object} response.Envelope
// @Router /patients/{id}/doctors [post]
func (h *DoctorHandler) Create(c *gin.Context) {
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
	var req dto.PersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	doctor, err := h.service.Create(c.Request.Context(), patientID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, doctor)
}

// Update godoc
// @Summary Update doctor
// @Tags Doctors
// @Accept json
// @Produce json
// @Param id path int true "Doctor ID"
// @Param payload body dto.PersonRequest true "Doctor payload"
// @Success 200 {object} response.Envelope
// @Router /doctors/{id} [put]
func (h *DoctorHandler) Update(c *gin.Context) {
	doctor, ok := h.requireDoctor(c, true)
	if !ok {
		return
	}
	var req dto.PersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	updated, err := h.service.Update(c.Request.Context(), doctor.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updated, nil)
}

// Delete godoc
// @Summary Delete doctor
// @Tags Doctors
// @Param id path int true "Doctor ID"
// @Success 204
// @Router /doctors/{id} [delete]
func (h *DoctorHandler) Delete(c *gin.Context) {
	doctor, ok := h.requireDoctor(c, true)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), doctor.ID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
