package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/coursehub-api/internal/models"
)

const enrollmentColumns = `id, user_id, course_id, schedule_id, status, progress, enrolled_at, completed_at`

// EnrollmentRepository handles persistence of enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE id = $1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindOpenByUserAndCourse returns the non-cancelled enrollment for the pair,
// or sql.ErrNoRows.
func (r *EnrollmentRepository) FindOpenByUserAndCourse(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE user_id = $1 AND course_id = $2 AND status <> $3 LIMIT 1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, userID, courseID, models.EnrollmentStatusCancelled); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find open enrollment: %w", err)
	}
	return &enrollment, nil
}

// Create persists a new enrollment record. A concurrent duplicate surfaces as
// a unique violation on enrollments_user_course_open_key.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = time.Now().UTC()
	}
	if enrollment.Status == "" {
		enrollment.Status = models.EnrollmentStatusActive
	}
	const query = `INSERT INTO enrollments (id, user_id, course_id, schedule_id, status, progress, enrolled_at, completed_at)
        VALUES (:id, :user_id, :course_id, :schedule_id, :status, :progress, :enrolled_at, :completed_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// UpdateProgress stores progress together with the resulting status.
func (r *EnrollmentRepository) UpdateProgress(ctx context.Context, id string, progress int, status models.EnrollmentStatus, completedAt *time.Time) error {
	const query = `UPDATE enrollments SET progress = $2, status = $3, completed_at = COALESCE($4, completed_at) WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, progress, status, completedAt); err != nil {
		return fmt.Errorf("update enrollment progress: %w", err)
	}
	return nil
}

// UpdateStatus updates the status of an enrollment.
func (r *EnrollmentRepository) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) error {
	const query = `UPDATE enrollments SET status = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status); err != nil {
		return fmt.Errorf("update enrollment status: %w", err)
	}
	return nil
}

// CancelByUserAndCourse cancels every open enrollment of the pair and reports
// how many rows changed.
func (r *EnrollmentRepository) CancelByUserAndCourse(ctx context.Context, userID, courseID string) (int64, error) {
	const query = `UPDATE enrollments SET status = $3 WHERE user_id = $1 AND course_id = $2 AND status <> $3`
	res, err := r.db.ExecContext(ctx, query, userID, courseID, models.EnrollmentStatusCancelled)
	if err != nil {
		return 0, fmt.Errorf("cancel enrollment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cancel enrollment rows: %w", err)
	}
	return affected, nil
}

// ListDetailedByUser returns the user's enrollments newest first with course
// and schedule data joined in.
func (r *EnrollmentRepository) ListDetailedByUser(ctx context.Context, userID string) ([]models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.user_id, e.course_id, e.schedule_id, e.status, e.progress, e.enrolled_at, e.completed_at,
        c.title AS course_title, c.slug AS course_slug, c.image_url AS course_image_url, c.duration_hours AS course_duration_hours,
        s.start_date AS schedule_start_date, s.end_date AS schedule_end_date, s.location AS schedule_location
        FROM enrollments e
        JOIN courses c ON c.id = e.course_id
        LEFT JOIN course_schedules s ON s.id = e.schedule_id
        WHERE e.user_id = $1
        ORDER BY e.enrolled_at DESC`
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, userID); err != nil {
		return nil, fmt.Errorf("list user enrollments: %w", err)
	}
	return enrollments, nil
}

// List returns enrollments for administrators filtered by the provided criteria.
// A non-positive limit disables pagination.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter, limit, offset int) ([]models.EnrollmentAdminRow, int, error) {
	base := `FROM enrollments e
JOIN profiles p ON p.id = e.user_id
JOIN courses c ON c.id = e.course_id`
	var conditions []string
	var args []interface{}

	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("e.user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("e.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("e.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	query := fmt.Sprintf(`SELECT e.id, e.user_id, e.course_id, e.schedule_id, e.status, e.progress, e.enrolled_at, e.completed_at,
        p.email AS user_email, p.full_name AS user_full_name, c.title AS course_title
        %s ORDER BY e.enrolled_at %s`, base+clause, order)
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
	}

	var rows []models.EnrollmentAdminRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return rows, total, nil
}
