package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medtrack/medtrack-api/internal/service"
	appErrors "github.com/medtrack/medtrack-api/pkg/errors"
	"github.com/medtrack/medtrack-api/pkg/response"
)

// ExportHandler generates patient record exports and serves signed downloads.
type ExportHandler struct {
	service *service.ExportService
	access  *service.AccessService
}

// NewExportHandler constructs an export handler.
func NewExportHandler(svc *service.ExportService, access *service.AccessService) *ExportHandler {
	return &ExportHandler{service: svc, access: access}
}

func (h *ExportHandler) generate(c *gin.Context, format string) {
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
	export, err := h.service.Generate(c.Request.Context(), patientID, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, export, nil)
}

// Report godoc
// @Summary Generate a PDF medication record for the patient
// @Tags Exports
// @Produce json
// @Param id path int true "Patient ID"
// @Success 200 {object} response.Envelope
// @Router /patients/{id}/report.pdf [get]
func (h *ExportHandler) Report(c *gin.Context) {
	h.generate(c, "pdf")
}

// Dump godoc
// @Summary Generate a JSON record dump for the patient
// @Tags Exports
// @Produce json
// @Param id path int true "Patient ID"
// @Success 200 {object} response.Envelope
// @Router /patients/{id}/dump.json [get]
func (h *ExportHandler) Dump(c *gin.Context) {
	h.generate(c, "json")
}

// Download godoc
// @Summary Download a generated export via its signed token
// @Tags Exports
// @Param token path string true "Signed download token"
// @Success 200
// @Router /downloads/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	path, err := h.service.Resolve(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.File(path)
}
