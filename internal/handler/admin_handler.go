package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/coursehub-api/internal/models"
	"github.com/noah-isme/coursehub-api/pkg/response"
)

type enrollmentAdminService interface {
	ListEnrollments(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentAdminRow, *models.Pagination, error)
	ExportEnrollments(ctx context.Context, filter models.EnrollmentFilter) ([]byte, string, error)
}

// AdminHandler serves the back-office enrollment views.
type AdminHandler struct {
	enrollments enrollmentAdminService
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(enrollments enrollmentAdminService) *AdminHandler {
	return &AdminHandler{enrollments: enrollments}
}

// ListEnrollments godoc
// @Summary List enrollments
// @Tags Admin
// @Produce json
// @Param course_id query string false "Course filter"
// @Param user_id query string false "User filter"
// @Param status query string false "active, completed or cancelled"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Param sort query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Router /admin/enrollments [get]
func (h *AdminHandler) ListEnrollments(c *gin.Context) {
	rows, pagination, err := h.enrollments.ListEnrollments(c.Request.Context(), enrollmentFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}

// ExportEnrollments godoc
// @Summary Export enrollments as CSV
// @Tags Admin
// @Produce text/csv
// @Param course_id query string false "Course filter"
// @Param status query string false "active, completed or cancelled"
// @Success 200 {file} binary
// @Router /admin/enrollments/export [get]
func (h *AdminHandler) ExportEnrollments(c *gin.Context) {
	data, filename, err := h.enrollments.ExportEnrollments(c.Request.Context(), enrollmentFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

func enrollmentFilterFromQuery(c *gin.Context) models.EnrollmentFilter {
	return models.EnrollmentFilter{
		UserID:    strings.TrimSpace(c.Query("user_id")),
		CourseID:  strings.TrimSpace(c.Query("course_id")),
		Status:    models.EnrollmentStatus(strings.ToLower(strings.TrimSpace(c.Query("status")))),
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "page_size", 20),
		SortOrder: c.Query("sort"),
	}
}
