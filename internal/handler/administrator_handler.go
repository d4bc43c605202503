package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mohamedmahmoud95/scms-api/internal/service"
	appErrors "github.com/mohamedmahmoud95/scms-api/pkg/errors"
	"github.com/mohamedmahmoud95/scms-api/pkg/response"
)

// AdministratorHandler exposes administrator account endpoints.
type AdministratorHandler struct {
	admins *service.AdministratorService
}

// NewAdministratorHandler constructs AdministratorHandler.
func NewAdministratorHandler(admins *service.AdministratorService) *AdministratorHandler {
	return &AdministratorHandler{admins: admins}
}

// List godoc
// @Summary List administrators
// @Tags Administrators
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admins [get]
func (h *AdministratorHandler) List(c *gin.Context) {
	admins, err := h.admins.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, admins, nil)
}

// Get godoc
// @Summary Get administrator detail
// @Tags Administrators
// @Produce json
// @Param id path string true "Administrator ID"
// @Success 200 {object} response.Envelope
// @Router /admins/{id} [get]
func (h *AdministratorHandler) Get(c *gin.Context) {
	admin, err := h.admins.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, admin, nil)
}

// Create godoc
// @Summary Create administrator
// @Tags Administrators
// @Accept json
// @Produce json
// @Param payload body service.CreateAdministratorRequest true "Administrator payload"
// @Success 201 {object} response.Envelope
// @Router /admins [post]
func (h *AdministratorHandler) Create(c *gin.Context) {
	var req service.CreateAdministratorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	admin, err := h.admins.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, admin)
}

// Update godoc
// @Summary Update administrator
// @Tags Administrators
// @Accept json
// @Produce json
// @Param id path string true "Administrator ID"
// @Param payload body service.UpdateAdministratorRequest true "Administrator payload"
// @Success 200 {object} response.Envelope
// @Router /admins/{id} [put]
func (h *AdministratorHandler) Update(c *gin.Context) {
	var req service.UpdateAdministratorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	admin, err := h.admins.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, admin, nil)
}

// Delete godoc
// @Summary Delete administrator
// @Tags Administrators
// @Produce json
// @Param id path string true "Administrator ID"
// @Success 204
// @Router /admins/{id} [delete]
func (h *AdministratorHandler) Delete(c *gin.Context) {
	if err := h.admins.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
