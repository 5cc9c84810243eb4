package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/booya1986/Learn-With-Avi-sub003/internal/models"
)

type CatalogRepo interface {
	ListCourses(ctx context.Context) ([]models.Course, error)
	ListVideosByCourse(ctx context.Context, courseID string) ([]models.Video, error)
}

type catalogRepo struct {
	db *gorm.DB
}

func NewCatalogRepo(db *gorm.DB) CatalogRepo {
	return &catalogRepo{db: db}
}

func (r *catalogRepo) ListCourses(ctx context.Context) ([]models.Course, error) {
	var rows []models.Course
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *catalogRepo) ListVideosByCourse(ctx context.Context, courseID string) ([]models.Video, error) {
	var rows []models.Video
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("position ASC").
		Find(&rows).Error
	return rows, err
}
