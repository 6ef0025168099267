package models

import "time"

// Course is a catalog entry. Price is stored in major currency units.
type Course struct {
	ID            string    `db:"id" json:"id"`
	Slug          string    `db:"slug" json:"slug"`
	Title         string    `db:"title" json:"title"`
	Description   string    `db:"description" json:"description"`
	Price         float64   `db:"price" json:"price"`
	Currency      string    `db:"currency" json:"currency"`
	DurationHours int       `db:"duration_hours" json:"duration_hours"`
	Level         string    `db:"level" json:"level"`
	ImageURL      *string   `db:"image_url" json:"image_url,omitempty"`
	IsPublished   bool      `db:"is_published" json:"is_published"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`

	PriceDisplay string `db:"-" json:"price_display,omitempty"`
}

// CourseSchedule is a dated run of a course. AvailableSpots stays within
// [0, Capacity]; the enrollment flow does not change it.
type CourseSchedule struct {
	ID             string    `db:"id" json:"id"`
	CourseID       string    `db:"course_id" json:"course_id"`
	StartDate      time.Time `db:"start_date" json:"start_date"`
	EndDate        time.Time `db:"end_date" json:"end_date"`
	Location       string    `db:"location" json:"location"`
	Capacity       int       `db:"capacity" json:"capacity"`
	AvailableSpots int       `db:"available_spots" json:"available_spots"`

	DateLabel string `db:"-" json:"date_label,omitempty"`
}

// CourseFilter narrows the public catalog listing.
type CourseFilter struct {
	Level    string
	Search   string
	Page     int
	PageSize int
}
