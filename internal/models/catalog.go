package models

import "time"

// Course and Video are the read-only catalog entities behind the cached
// listing endpoints. Writes happen in the admin surface, which signals
// changes through cache invalidation only.
type Course struct {
	ID          string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Title       string    `gorm:"column:title;type:text" json:"title"`
	Description string    `gorm:"column:description;type:text" json:"description"`
	Language    string    `gorm:"column:language;type:text" json:"language"`
	CreatedAt   time.Time `gorm:"column:created_at;type:timestamptz" json:"createdAt"`
}

func (Course) TableName() string { return "courses" }

type Video struct {
	ID              string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CourseID        string    `gorm:"column:course_id;type:uuid;index" json:"courseId"`
	Title           string    `gorm:"column:title;type:text" json:"title"`
	YoutubeID       string    `gorm:"column:youtube_id;type:text" json:"youtubeId"`
	DurationSeconds int64     `gorm:"column:duration_seconds" json:"durationSeconds"`
	Position        int       `gorm:"column:position" json:"position"`
	CreatedAt       time.Time `gorm:"column:created_at;type:timestamptz" json:"createdAt"`
}

func (Video) TableName() string { return "videos" }
