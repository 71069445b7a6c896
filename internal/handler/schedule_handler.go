package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medtrack/medtrack-api/internal/dto"
	"github.com/medtrack/medtrack-api/internal/service"
	appErrors "github.com/medtrack/medtrack-api/pkg/errors"
	"github.com/medtrack/medtrack-api/pkg/response"
)

// ScheduleHandler serves the merged expected/recorded schedule view.
type ScheduleHandler struct {
	service *service.ScheduleService
	access  *service.AccessService
}

// NewScheduleHandler constructs a schedule handler.
func NewScheduleHandler(svc *service.ScheduleService, access *service.AccessService) *ScheduleHandler {
	return &ScheduleHandler{service: svc, access: access}
}

// Query godoc
// @Summary Get the patient's schedule over a date range
// @Description Expands every active medication's schedule versions over
// @Description [start, end] (end inclusive), reconciles recorded doses against
// @Description expected occurrences and returns entries plus adherence stats.
// @Tags Schedule
// @Produce json
// @Param id path int true "Patient ID"
// @Param start query string true "Start date (YYYY-MM-DD)"
// @Param end query string true "End date (YYYY-MM-DD, inclusive)"
// @Param tz query string false "IANA timezone overriding patient habits"
// @Param medication_id query int false "Narrow the view to one medication"
// @Success 200 {object} response.Envelope
// @Router /patients/{id}/schedule [get]
func (h *ScheduleHandler) Query(c *gin.Context) {
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
	var query dto.ScheduleQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	view, err := h.service.Query(c.Request.Context(), patientID, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}
