package query

import (
	"SkillMarket/internal/models"
	"SkillMarket/pkg/logger"
	"context"
	"fmt"

	"github.com/google/uuid"
)

type courseRepo interface {
	CourseByID(ctx context.Context, id uuid.UUID) (*models.Course, error)
	ListPublicCourses(ctx context.Context, limit int, offset int) ([]models.Course, error)
	CountPublicCourses(ctx context.Context) (int, error)
}

type userRepo interface {
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type coverRepo interface {
	GetCoverURL(ctx context.Context, objectKey string) (string, error)
}

type searchRepo interface {
	Search(ctx context.Context, query string, size int) ([]uuid.UUID, error)
	Count(ctx context.Context, query string) (int, error)
}

type enrollmentRepo interface {
	EnrolledCourses(ctx context.Context, userID uuid.UUID) ([]models.Course, error)
}

type CourseQueryService struct {
	log        logger.Log
	courseRepo courseRepo
	userRepo   userRepo
	coverRepo  coverRepo
	searchRepo searchRepo
	enrollRepo enrollmentRepo
}

func NewCourseQueryService(log logger.Log, c courseRepo, covers coverRepo, u userRepo, s searchRepo, e enrollmentRepo) *CourseQueryService {
	return &CourseQueryService{
		log:        log,
		courseRepo: c,
		coverRepo:  covers,
		userRepo:   u,
		searchRepo: s,
		enrollRepo: e,
	}
}

func (s *CourseQueryService) CourseByID(ctx context.Context, id uuid.UUID) (*models.CoursePreview, error) {
	course, err := s.courseRepo.CourseByID(ctx, id)
	if err != nil {
		return nil, err
	}
	preview := s.preview(ctx, *course)
	return &preview, nil
}

func (s *CourseQueryService) CoursesPreview(ctx context.Context, count int, offset int) ([]models.CoursePreview, int, error) {
	courses, err := s.courseRepo.ListPublicCourses(ctx, count, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.courseRepo.CountPublicCourses(ctx)
	if err != nil {
		return nil, 0, err
	}

	previews := make([]models.CoursePreview, 0, len(courses))
	for _, c := range courses {
		previews = append(previews, s.preview(ctx, c))
	}
	return previews, total, nil
}

func (s *CourseQueryService) SearchCoursesPreview(ctx context.Context, query string, count int, offset int) ([]models.CoursePreview, int, error) {
	ids, err := s.searchRepo.Search(ctx, query, count+offset)
	if err != nil {
		return nil, 0, fmt.Errorf("catalog search failed: %w", err)
	}

	if len(ids) > offset {
		ids = ids[offset:]
	} else {
		ids = nil
	}
	if len(ids) > count {
		ids = ids[:count]
	}
	if len(ids) == 0 {
		return []models.CoursePreview{}, 0, nil
	}

	total, err := s.searchRepo.Count(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("catalog count failed: %w", err)
	}

	previews := make([]models.CoursePreview, 0, len(ids))
	for _, id := range ids {
		course, err := s.courseRepo.CourseByID(ctx, id)
		if err != nil {
			s.log.ErrorErr("search preview: failed to load course by id", err)
			continue
		}
		previews = append(previews, s.preview(ctx, *course))
	}
	return previews, total, nil
}

func (s *CourseQueryService) EnrolledCourses(ctx context.Context, userID uuid.UUID) ([]models.CoursePreview, error) {
	courses, err := s.enrollRepo.EnrolledCourses(ctx, userID)
	if err != nil {
		return nil, err
	}

	previews := make([]models.CoursePreview, 0, len(courses))
	for _, c := range courses {
		previews = append(previews, s.preview(ctx, c))
	}
	return previews, nil
}

func (s *CourseQueryService) preview(ctx context.Context, course models.Course) models.CoursePreview {
	var coverURL string
	if course.CoverObjectKey != "" {
		u, err := s.coverRepo.GetCoverURL(ctx, course.CoverObjectKey)
		if err != nil {
			s.log.ErrorErr("preview: failed to get cover URL", err)
		} else {
			coverURL = u
		}
	}

	author, err := s.userRepo.UserByID(ctx, course.AuthorID)
	if err != nil {
		s.log.ErrorErr("preview: failed to get author", err)
		author = &models.User{Username: ""}
	}

	desc := course.Description
	if len(desc) > 200 {
		desc = desc[:200] + "…"
	}

	return models.CoursePreview{
		ID:          course.ID,
		Title:       course.Title,
		Description: desc,
		Price:       course.Price,
		Currency:    course.Currency,
		IsPremium:   course.IsPremium,
		AuthorName:  author.Username,
		CoverURL:    coverURL,
	}
}
