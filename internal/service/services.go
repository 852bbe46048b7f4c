package service

import (
	"SkillMarket/internal/service/auth"
	"SkillMarket/internal/service/course/query"
	"SkillMarket/internal/service/enrollment"
)

type Collection struct {
	AuthService   *auth.AuthService
	CourseQueries *query.CourseQueryService
	Enrollments   *enrollment.Service
}
