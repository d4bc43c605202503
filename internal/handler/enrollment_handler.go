package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mohamedmahmoud95/scms-api/internal/models"
	"github.com/mohamedmahmoud95/scms-api/internal/service"
	appErrors "github.com/mohamedmahmoud95/scms-api/pkg/errors"
	"github.com/mohamedmahmoud95/scms-api/pkg/response"
)

// EnrollmentHandler exposes the enrollment workflow endpoints.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
	reports     *service.ReportService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService, reports *service.ReportService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments, reports: reports}
}

// List godoc
// @Summary List enrollments
// @Tags Enrollments
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param courseId query string false "Filter by course"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	var filter models.EnrollmentFilter
	filter.StudentID = c.Query("studentId")
	filter.CourseID = c.Query("courseId")
	if raw := c.Query("status"); raw != "" {
		status, ok := models.ParseEnrollmentStatus(raw)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid enrollment status: %s", raw)))
			return
		}
		filter.Status = status
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	enrollments, pagination, err := h.enrollments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, pagination)
}

// Pending godoc
// @Summary List pending enrollment requests
// @Tags Enrollments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /enrollments/pending [get]
func (h *EnrollmentHandler) Pending(c *gin.Context) {
	enrollments, err := h.enrollments.PendingEnrollments(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, nil)
}

// Get godoc
// @Summary Get enrollment detail
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id} [get]
func (h *EnrollmentHandler) Get(c *gin.Context) {
	enrollment, err := h.enrollments.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// Enroll godoc
// @Summary Submit an enrollment request
// @Description Creates a PENDING enrollment awaiting admin review
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body service.EnrollStudentRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /enrollments [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	var req service.EnrollStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	// Students may only enroll themselves.
	if claims := claimsFromContext(c); claims != nil && claims.Role == models.RoleStudent {
		req.StudentID = claims.UserID
	}

	enrollment, err := h.enrollments.Enroll(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.reports.InvalidateSummaries(c.Request.Context())
	h.reports.InvalidateStudent(c.Request.Context(), req.StudentID)
	response.Created(c, enrollment)
}

// Withdraw godoc
// @Summary Withdraw from a course
// @Tags Enrollments
// @Produce json
// @Param studentId path string true "Student ID"
// @Param courseId path string true "Course ID"
// @Success 204
// @Failure 412 {object} response.Envelope
// @Router /enrollments/students/{studentId}/courses/{courseId} [delete]
func (h *EnrollmentHandler) Withdraw(c *gin.Context) {
	studentID := c.Param("studentId")
	courseID := c.Param("courseId")
	if err := h.enrollments.Withdraw(c.Request.Context(), studentID, courseID); err != nil {
		response.Error(c, err)
		return
	}
	h.reports.InvalidateSummaries(c.Request.Context())
	h.reports.InvalidateStudent(c.Request.Context(), studentID)
	response.NoContent(c)
}

// UpdateStatus godoc
// @Summary Review an enrollment request
// @Description Moves an enrollment to the given status and notifies both sides
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param payload body service.UpdateEnrollmentStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/status [put]
func (h *EnrollmentHandler) UpdateStatus(c *gin.Context) {
	var req service.UpdateEnrollmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	var adminID string
	if claims := claimsFromContext(c); claims != nil {
		adminID = claims.UserID
	}

	enrollment, err := h.enrollments.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, adminID)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.reports.InvalidateSummaries(c.Request.Context())
	h.reports.InvalidateStudent(c.Request.Context(), enrollment.StudentID)
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// Approve godoc
// @Summary Approve an enrollment request
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/approve [post]
func (h *EnrollmentHandler) Approve(c *gin.Context) {
	var adminID string
	if claims := claimsFromContext(c); claims != nil {
		adminID = claims.UserID
	}
	enrollment, err := h.enrollments.Approve(c.Request.Context(), c.Param("id"), adminID)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.reports.InvalidateSummaries(c.Request.Context())
	h.reports.InvalidateStudent(c.Request.Context(), enrollment.StudentID)
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// Reject godoc
// @Summary Reject an enrollment request
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/reject [post]
func (h *EnrollmentHandler) Reject(c *gin.Context) {
	var adminID string
	if claims := claimsFromContext(c); claims != nil {
		adminID = claims.UserID
	}
	enrollment, err := h.enrollments.Reject(c.Request.Context(), c.Param("id"), adminID)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.reports.InvalidateSummaries(c.Request.Context())
	h.reports.InvalidateStudent(c.Request.Context(), enrollment.StudentID)
	response.JSON(c, http.StatusOK, enrollment, nil)
}
