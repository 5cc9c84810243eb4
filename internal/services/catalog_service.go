package services

import (
	"context"
	"time"

	"github.com/booya1986/Learn-With-Avi-sub003/internal/cache"
	"github.com/booya1986/Learn-With-Avi-sub003/internal/models"
	pgrepo "github.com/booya1986/Learn-With-Avi-sub003/internal/repositories/postgres"
	"github.com/booya1986/Learn-With-Avi-sub003/internal/utils"
)

const (
	coursesKey     = "courses:all"
	videosPrefix   = "videos:"
	catalogListTTL = 5 * time.Minute
)

// CatalogService serves the read-heavy course/video listings through the
// two-tier query cache. Writes happen in the admin surface, which calls the
// invalidation operations when an entity changes.
type CatalogService interface {
	ListCourses(ctx context.Context) ([]models.Course, error)
	ListVideos(ctx context.Context, courseID string) ([]models.Video, error)
	InvalidateCourse(ctx context.Context, courseID string) error
	InvalidateVideos(ctx context.Context) error
}

type catalogService struct {
	repo  pgrepo.CatalogRepo
	cache *cache.QueryCache
}

func NewCatalogService(repo pgrepo.CatalogRepo, qc *cache.QueryCache) CatalogService {
	return &catalogService{repo: repo, cache: qc}
}

func (s *catalogService) ListCourses(ctx context.Context) ([]models.Course, error) {
	const op = "CatalogService.ListCourses"

	if s.repo == nil {
		return nil, utils.E(utils.CodeUnavailable, op, "catalog storage is not configured", nil)
	}

	var cached []models.Course
	if hit, _ := s.cache.GetJSON(ctx, coursesKey, &cached); hit {
		return cached, nil
	}

	rows, err := s.repo.ListCourses(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list courses", err)
	}
	_ = s.cache.SetJSON(ctx, coursesKey, rows, catalogListTTL)
	return rows, nil
}

func (s *catalogService) ListVideos(ctx context.Context, courseID string) ([]models.Video, error) {
	const op = "CatalogService.ListVideos"

	if courseID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "course_id is required", nil)
	}
	if s.repo == nil {
		return nil, utils.E(utils.CodeUnavailable, op, "catalog storage is not configured", nil)
	}

	key := videosPrefix + courseID
	var cached []models.Video
	if hit, _ := s.cache.GetJSON(ctx, key, &cached); hit {
		return cached, nil
	}

	rows, err := s.repo.ListVideosByCourse(ctx, courseID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list videos", err)
	}
	_ = s.cache.SetJSON(ctx, key, rows, catalogListTTL)
	return rows, nil
}

func (s *catalogService) InvalidateCourse(ctx context.Context, courseID string) error {
	const op = "CatalogService.InvalidateCourse"

	if courseID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "course_id is required", nil)
	}
	return s.cache.Invalidate(ctx, coursesKey, videosPrefix+courseID)
}

// InvalidateVideos drops every cached video listing. Used when a video
// changes and the owning course is not known to the caller.
func (s *catalogService) InvalidateVideos(ctx context.Context) error {
	return s.cache.InvalidatePrefix(ctx, videosPrefix)
}
