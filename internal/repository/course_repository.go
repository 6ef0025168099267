package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/coursehub-api/internal/models"
)

const courseColumns = `id, slug, title, description, price, currency, duration_hours, level, image_url, is_published, created_at, updated_at`

const scheduleColumns = `id, course_id, start_date, end_date, location, capacity, available_spots`

// CourseRepository reads the course catalog and its schedules.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// ListPublished returns published courses matching filter with the total count.
func (r *CourseRepository) ListPublished(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	conditions := []string{"is_published = TRUE"}
	var args []interface{}

	if filter.Level != "" {
		conditions = append(conditions, fmt.Sprintf("level = $%d", len(args)+1))
		args = append(args, filter.Level)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+search+"%")
	}
	clause := " WHERE " + strings.Join(conditions, " AND ")

	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM courses%s ORDER BY title ASC LIMIT %d OFFSET %d`, courseColumns, clause, size, offset)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM courses"+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// FindByID returns a course regardless of publication state.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	return &course, nil
}

// FindPublishedBySlug returns a published course by slug.
func (r *CourseRepository) FindPublishedBySlug(ctx context.Context, slug string) (*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE slug = $1 AND is_published = TRUE`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, slug); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find course by slug: %w", err)
	}
	return &course, nil
}

// ListUpcomingSchedules returns schedules of a course starting at or after from.
func (r *CourseRepository) ListUpcomingSchedules(ctx context.Context, courseID string, from time.Time) ([]models.CourseSchedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM course_schedules WHERE course_id = $1 AND start_date >= $2 ORDER BY start_date ASC`
	var schedules []models.CourseSchedule
	if err := r.db.SelectContext(ctx, &schedules, query, courseID, from); err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return schedules, nil
}

// FindSchedule returns a schedule by id.
func (r *CourseRepository) FindSchedule(ctx context.Context, id string) (*models.CourseSchedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM course_schedules WHERE id = $1`
	var schedule models.CourseSchedule
	if err := r.db.GetContext(ctx, &schedule, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find schedule: %w", err)
	}
	return &schedule, nil
}
