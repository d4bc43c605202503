package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mohamedmahmoud95/scms-api/internal/service"
	"github.com/mohamedmahmoud95/scms-api/pkg/response"
)

// ReportHandler exposes reporting and export endpoints.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Enrollments godoc
// @Summary System-wide enrollment report
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reports/enrollments [get]
func (h *ReportHandler) Enrollments(c *gin.Context) {
	report, err := h.reports.EnrollmentReport(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Grades godoc
// @Summary System-wide grade report
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reports/grades [get]
func (h *ReportHandler) Grades(c *gin.Context) {
	report, err := h.reports.GradeReport(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Student godoc
// @Summary Per-student academic report
// @Tags Reports
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /reports/students/{id} [get]
func (h *ReportHandler) Student(c *gin.Context) {
	report, err := h.reports.StudentReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// ExportEnrollments godoc
// @Summary Export the enrollment report
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Success 200 {file} byte
// @Router /reports/enrollments/export [get]
func (h *ReportHandler) ExportEnrollments(c *gin.Context) {
	payload, contentType, err := h.reports.ExportEnrollmentReport(c.Request.Context(), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	serveExport(c, payload, contentType, "enrollment-report")
}

// ExportGrades godoc
// @Summary Export the grade report
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Success 200 {file} byte
// @Router /reports/grades/export [get]
func (h *ReportHandler) ExportGrades(c *gin.Context) {
	payload, contentType, err := h.reports.ExportGradeReport(c.Request.Context(), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	serveExport(c, payload, contentType, "grade-report")
}

// ExportStudent godoc
// @Summary Export a student transcript
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Student ID"
// @Param format query string false "csv or pdf"
// @Success 200 {file} byte
// @Router /reports/students/{id}/export [get]
func (h *ReportHandler) ExportStudent(c *gin.Context) {
	payload, contentType, err := h.reports.ExportStudentReport(c.Request.Context(), c.Param("id"), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	serveExport(c, payload, contentType, "transcript")
}

func serveExport(c *gin.Context, payload []byte, contentType, baseName string) {
	ext := "csv"
	if contentType == "application/pdf" {
		ext = "pdf"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.%s", baseName, ext))
	c.Data(http.StatusOK, contentType, payload)
}
