package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/coursehub-api/internal/models"
	appErrors "github.com/noah-isme/coursehub-api/pkg/errors"
	"github.com/noah-isme/coursehub-api/pkg/i18n"
)

const catalogCachePrefix = "catalog:"

type courseRepository interface {
	ListPublished(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	FindPublishedBySlug(ctx context.Context, slug string) (*models.Course, error)
	ListUpcomingSchedules(ctx context.Context, courseID string, from time.Time) ([]models.CourseSchedule, error)
}

// CourseList is a cached page of the public catalog.
type CourseList struct {
	Items      []models.Course   `json:"items"`
	Pagination models.Pagination `json:"pagination"`
	// Cached reports whether the page came from the cache.
	Cached bool `json:"-"`
}

// CourseService serves the read-only public catalog.
type CourseService struct {
	repo     courseRepository
	cache    *CacheService
	cacheTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewCourseService constructs a catalog service. cache may be nil.
func NewCourseService(repo courseRepository, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, cache: cache, cacheTTL: cacheTTL, logger: logger, now: time.Now}
}

// List returns a page of published courses with formatted prices.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) (*CourseList, error) {
	filter.Page, filter.PageSize = models.NormalizePage(filter.Page, filter.PageSize)
	filter.Level = strings.TrimSpace(filter.Level)
	filter.Search = strings.TrimSpace(filter.Search)

	key := fmt.Sprintf("%slist:%s:%s:%d:%d", catalogCachePrefix, filter.Level, strings.ToLower(filter.Search), filter.Page, filter.PageSize)
	var cached CourseList
	if s.cache.Get(ctx, key, &cached) {
		cached.Cached = true
		return &cached, nil
	}

	courses, total, err := s.repo.ListPublished(ctx, filter)
	if err != nil {
		return nil, appErrors.WrapInternal(fmt.Errorf("list courses: %w", err))
	}
	for i := range courses {
		decorateCourse(&courses[i])
	}
	result := &CourseList{
		Items:      courses,
		Pagination: models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total},
	}
	s.cache.Set(ctx, key, result, s.cacheTTL)
	return result, nil
}

// GetBySlug returns a single published course.
func (s *CourseService) GetBySlug(ctx context.Context, slug string) (*models.Course, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "")
	}

	key := catalogCachePrefix + "course:" + slug
	var cached models.Course
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	course, err := s.repo.FindPublishedBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "")
		}
		return nil, appErrors.WrapInternal(fmt.Errorf("find course: %w", err))
	}
	decorateCourse(course)
	s.cache.Set(ctx, key, course, s.cacheTTL)
	return course, nil
}

// Schedules lists upcoming runs of a published course.
func (s *CourseService) Schedules(ctx context.Context, slug string) ([]models.CourseSchedule, error) {
	course, err := s.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	schedules, err := s.repo.ListUpcomingSchedules(ctx, course.ID, s.now().UTC())
	if err != nil {
		return nil, appErrors.WrapInternal(fmt.Errorf("list schedules: %w", err))
	}
	for i := range schedules {
		schedules[i].DateLabel = scheduleLabel(schedules[i].StartDate, schedules[i].EndDate)
	}
	return schedules, nil
}

// InvalidateCatalog drops every cached catalog entry.
func (s *CourseService) InvalidateCatalog(ctx context.Context) error {
	return s.cache.Invalidate(ctx, catalogCachePrefix+"*")
}

func decorateCourse(c *models.Course) {
	c.PriceDisplay = i18n.FormatPrice(c.Price, c.Currency)
}

// scheduleLabel renders "15. Oktober 2026" or "15. Oktober 2026 – 17. Oktober 2026".
func scheduleLabel(start, end time.Time) string {
	label := i18n.FormatDate(start)
	if !end.IsZero() && !sameDay(start, end) {
		label += " – " + i18n.FormatDate(end)
	}
	return label
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
