package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/coursehub-api/internal/models"
	appErrors "github.com/noah-isme/coursehub-api/pkg/errors"
	"github.com/noah-isme/coursehub-api/pkg/response"
)

type enrollmentService interface {
	CreateEnrollment(ctx context.Context, caller *models.JWTClaims, courseID string, scheduleID *string) (*models.Enrollment, string, error)
	UpdateEnrollmentProgress(ctx context.Context, caller *models.JWTClaims, id string, progress int) (*models.Enrollment, string, error)
	CancelEnrollment(ctx context.Context, caller *models.JWTClaims, id string) (*models.Enrollment, string, error)
	GetUserEnrollments(ctx context.Context, caller *models.JWTClaims) ([]models.EnrollmentDetail, error)
}

// EnrollmentHandler exposes the customer enrollment endpoints.
type EnrollmentHandler struct {
	service enrollmentService
}

// NewEnrollmentHandler constructs an EnrollmentHandler.
func NewEnrollmentHandler(service enrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{service: service}
}

type createEnrollmentRequest struct {
	CourseID   string  `json:"course_id"`
	ScheduleID *string `json:"schedule_id"`
}

type progressRequest struct {
	Progress *int `json:"progress"`
}

// Create godoc
// @Summary Enroll in a course
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body createEnrollmentRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /enrollments [post]
func (h *EnrollmentHandler) Create(c *gin.Context) {
	var req createEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, ""))
		return
	}
	if req.ScheduleID != nil && *req.ScheduleID == "" {
		req.ScheduleID = nil
	}
	enrollment, message, err := h.service.CreateEnrollment(c.Request.Context(), claimsFromContext(c), req.CourseID, req.ScheduleID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment, message)
}

// UpdateProgress godoc
// @Summary Update course progress
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param payload body progressRequest true "Progress 0..100"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /enrollments/{id}/progress [patch]
func (h *EnrollmentHandler) UpdateProgress(c *gin.Context) {
	var req progressRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Progress == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, ""))
		return
	}
	enrollment, message, err := h.service.UpdateEnrollmentProgress(c.Request.Context(), claimsFromContext(c), c.Param("id"), *req.Progress)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.WithMessage(c, http.StatusOK, enrollment, message)
}

// Cancel godoc
// @Summary Cancel an enrollment
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/cancel [post]
func (h *EnrollmentHandler) Cancel(c *gin.Context) {
	enrollment, message, err := h.service.CancelEnrollment(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.WithMessage(c, http.StatusOK, enrollment, message)
}

// Mine godoc
// @Summary List my enrollments
// @Tags Enrollments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /enrollments/me [get]
func (h *EnrollmentHandler) Mine(c *gin.Context) {
	items, err := h.service.GetUserEnrollments(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}
