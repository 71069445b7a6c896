package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/medtrack/medtrack-api/internal/dto"
	"github.com/medtrack/medtrack-api/internal/models"
	"github.com/medtrack/medtrack-api/internal/service"
	appErrors "github.com/medtrack/medtrack-api/pkg/errors"
	"github.com/medtrack/medtrack-api/pkg/response"
)

// DoseHandler handles recorded dose endpoints.
type DoseHandler struct {
	service *service.DoseService
	access  *service.AccessService
}

// NewDoseHandler constructs a dose handler.
func NewDoseHandler(svc *service.DoseService, access *service.AccessService) *DoseHandler {
	return &DoseHandler{service: svc, access: access}
}

// requireDose loads the dose and checks the caller's access.
func (h *DoseHandler) requireDose(c *gin.Context, write bool) (*models.Dose, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	id, ok := pathID(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid dose id"))
		return nil, false
	}
	dose, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	check := h.access.RequireRead
	if write {
		check = h.access.RequireWrite
	}
	if err := check(c.Request.Context(), dose.PatientID, claims.UserID); err != nil {
		response.Error(c, err)
		return nil, false
	}
	return dose, true
}

func parseQueryTime(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// List godoc
// @Summary List a patient's recorded doses
// @Tags Doses
// @Produce json
// @Param id path int true "Patient ID"
// @Param medication_id query int false "Filter by medication"
// @Param start query string false "Start date (YYYY-MM-DD or RFC3339)"
// @Param end query string false "End date, exclusive"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /patients/{id}/doses [get]
func (h *DoseHandler) List(c *gin.Context) {
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

	filter := models.DoseFilter{PatientID: patientID}
	if raw := c.Query("medication_id"); raw != "" {
		if medID, err := strconv.ParseInt(raw, 10, 64); err == nil {
			filter.MedicationID = medID
		}
	}
	start, ok := parseQueryTime(c.Query("start"))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrInvalidStartDate, "start must be YYYY-MM-DD or RFC3339"))
		return
	}
	end, ok := parseQueryTime(c.Query("end"))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrInvalidEndDate, "end must be YYYY-MM-DD or RFC3339"))
		return
	}
	filter.Start = start
	filter.End = end
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "100")); err == nil {
		filter.PageSize = limit
	}

	doses, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, doses, pagination)
}

// Get godoc
// @Summary Get dose by id
// @Tags Doses
// @Produce json
// @Param id path int true "Dose ID"
// @Success 200 {object} response.Envelope
// @Router /doses/{id} [get]
func (h *DoseHandler) Get(c *gin.Context) {
	dose, ok := h.requireDose(c, false)
	if !ok {
		return
	}
	response.JSON(c, http.StatusOK, dose, nil)
}

// Create godoc
// @Summary Record a dose event
// @Description A scheduled dose must reference a slot of the schedule version
// @Description active at the dose date; omit scheduled for ad-hoc doses.
// @Tags Doses
// @Accept json
// @Produce json
// @Param id path int true "Patient ID"
// @Param payload body dto.DoseRequest true "Dose payload"
// @Success 201 {object} response.Envelope
// @Router /patients/{id}/doses [post]
func (h *DoseHandler) Create(c *gin.Context) {
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
	var req dto.DoseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	dose, err := h.service.Create(c.Request.Context(), patientID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dose)
}

// Update godoc
// @Summary Update a recorded dose
// @Tags Doses
// @Accept json
// @Produce json
// @Param id path int true "Dose ID"
// @Param payload body dto.DoseRequest true "Dose payload"
// @Success 200 {object} response.Envelope
// @Router /doses/{id} [put]
func (h *DoseHandler) Update(c *gin.Context) {
	dose, ok := h.requireDose(c, true)
	if !ok {
		return
	}
	var req dto.DoseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	updated, err := h.service.Update(c.Request.Context(), dose.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updated, nil)
}

// Delete godoc
// @Summary Delete a recorded dose
// @Tags Doses
// @Param id path int true "Dose ID"
// @Success 204
// @Router /doses/{id} [delete]
func (h *DoseHandler) Delete(c *gin.Context) {
	dose, ok := h.requireDose(c, true)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), dose.ID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
