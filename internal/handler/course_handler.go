package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/coursehub-api/internal/middleware"
	"github.com/noah-isme/coursehub-api/internal/models"
	"github.com/noah-isme/coursehub-api/internal/service"
	"github.com/noah-isme/coursehub-api/pkg/response"
)

type courseService interface {
	List(ctx context.Context, filter models.CourseFilter) (*service.CourseList, error)
	GetBySlug(ctx context.Context, slug string) (*models.Course, error)
	Schedules(ctx context.Context, slug string) ([]models.CourseSchedule, error)
}

// CourseHandler serves the public catalog.
type CourseHandler struct {
	service courseService
}

// NewCourseHandler constructs a CourseHandler.
func NewCourseHandler(service courseService) *CourseHandler {
	return &CourseHandler{service: service}
}

// List godoc
// @Summary List published courses
// @Tags Courses
// @Produce json
// @Param level query string false "Level filter"
// @Param search query string false "Search in title"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	filter := models.CourseFilter{
		Level:    strings.TrimSpace(c.Query("level")),
		Search:   strings.TrimSpace(c.Query("search")),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 20),
	}
	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, result.Cached)
	pagination := result.Pagination
	response.JSON(c, http.StatusOK, result.Items, &pagination, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Course detail
// @Tags Courses
// @Produce json
// @Param slug path string true "Course slug"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{slug} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.service.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Schedules godoc
// @Summary Upcoming schedules of a course
// @Tags Courses
// @Produce json
// @Param slug path string true "Course slug"
// @Success 200 {object} response.Envelope
// @Router /courses/{slug}/schedules [get]
func (h *CourseHandler) Schedules(c *gin.Context) {
	items, err := h.service.Schedules(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}
