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

// PharmacyHandler handles pharmacy endpoints.
type PharmacyHandler struct {
	service *service.PharmacyService
	access  *service.AccessService
}

// NewPharmacyHandler constructs a pharmacy handler.
func NewPharmacyHandler(svc *service.PharmacyService, access *service.AccessService) *PharmacyHandler {
	return &PharmacyHandler{service: svc, access: access}
}

func (h *PharmacyHandler) requirePharmacy(c *gin.Context, write bool) (*models.Pharmacy, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	id, ok := pathID(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid pharmacy id"))
		return nil, false
	}
	pharmacy, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	check := h.access.RequireRead
	if write {
		check = h.access.RequireWrite
	}
	if err := check(c.Request.Context(), pharmacy.PatientID, claims.UserID); err != nil {
		response.Error(c, err)
		return nil, false
	}
	return pharmacy, true
}

// List godoc
// @Summary List a patient's pharmacies
// @Tags Pharmacies
// @Produce json
// @Param id path int true "Patient ID"
// @Success 200 {object} response.Envelope
// @Router /patients/{id}/pharmacies [get]
func (h *PharmacyHandler) List(c *gin.Context) {
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
	pharmacies, err := h.service.List(c.Request.Context(), patientID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pharmacies, nil)
}

// Get godoc
// @Summary Get pharmacy by id
// @Tags Pharmacies
// @Produce json
// @Param id path int true "Pharmacy ID"
// @Success 200 {object} response.Envelope
// @Router /pharmacies/{id} [get]
func (h *PharmacyHandler) Get(c *gin.Context) {
	pharmacy, ok := h.requirePharmacy(c, false)
	if !ok {
		return
	}
	response.JSON(c, http.StatusOK, pharmacy, nil)
}

// Create godoc
// @Summary Create pharmacy for a patient
// @Tags Pharmacies
// @Accept json
// @Produce json
// @Param id path int true "Patient ID"
// @Param payload body dto.PersonRequest true "Pharmacy payload"
// @Success 201 {object} response.Envelope
// @Router /patients/{id}/pharmacies [post]
func (h *PharmacyHandler) Create(c *gin.Context) {
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
	pharmacy, err := h.service.Create(c.Request.Context(), patientID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, pharmacy)
}

// Update godoc
// @Summary Update pharmacy
// @Tags Pharmacies
// @Accept json
// @Produce json
// @Param id path int true "Pharmacy ID"
// @Param payload body dto.PersonRequest true "Pharmacy payload"
// @Success 200 {object} response.Envelope
// @Router /pharmacies/{id} [put]
func (h *PharmacyHandler) Update(c *gin.Context) {
	pharmacy, ok := h.requirePharmacy(c, true)
	if !ok {
		return
	}
	var req dto.PersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	updated, err := h.service.Update(c.Request.Context(), pharmacy.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updated, nil)
}

// Delete godoc
// @Summary Delete pharmacy
// @Tags Pharmacies
// @Param id path int true "Pharmacy ID"
// @Success 204
// @Router /pharmacies/{id} [delete]
func (h *PharmacyHandler) Delete(c *gin.Context) {
	pharmacy, ok := h.requirePharmacy(c, true)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), pharmacy.ID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
