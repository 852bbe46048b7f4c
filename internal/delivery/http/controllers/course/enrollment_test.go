package course

import (
	"SkillMarket/internal/app_errors"
	"SkillMarket/internal/delivery/http/controllers/middleware"
	"SkillMarket/internal/models"
	"SkillMarket/pkg/logger"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type enrollmentServiceStub struct {
	enroll func(ctx context.Context, courseID, userID uuid.UUID) (*models.Enrollment, error)
	verify func(ctx context.Context, userID, courseID uuid.UUID, reference string) (*models.EnrollmentReceipt, error)
}

func (s *enrollmentServiceStub) Enroll(ctx context.Context, courseID, userID uuid.UUID) (*models.Enrollment, error) {
	return s.enroll(ctx, courseID, userID)
}

func (s *enrollmentServiceStub) VerifyAndEnroll(ctx context.Context, userID, courseID uuid.UUID, reference string) (*models.EnrollmentReceipt, error) {
	return s.verify(ctx, userID, courseID, reference)
}

func verifyRequest(t *testing.T, svc EnrollmentService, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := NewEnrollmentHandler(logger.New("local"), svc)
	r := gin.New()
	r.POST("/courses/:course_id/verify-payment", func(c *gin.Context) {
		c.Set(middleware.ClientIDCtx, uuid.New())
		h.VerifyPayment(c)
	})

	req := httptest.NewRequest(http.MethodPost, "/courses/"+uuid.NewString()+"/verify-payment", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestVerifyPayment(t *testing.T) {
	t.Run("committed payment returns the receipt", func(t *testing.T) {
		receipt := &models.EnrollmentReceipt{PaymentID: uuid.New(), EnrollmentID: uuid.New()}
		svc := &enrollmentServiceStub{
			verify: func(ctx context.Context, userID, courseID uuid.UUID, reference string) (*models.EnrollmentReceipt, error) {
				require.Equal(t, "ref-001", reference)
				return receipt, nil
			},
		}

		w := verifyRequest(t, svc, `{"reference": "ref-001"}`)

		require.Equal(t, http.StatusOK, w.Code)
		require.Contains(t, w.Body.String(), receipt.PaymentID.String())
		require.Contains(t, w.Body.String(), receipt.EnrollmentID.String())
		require.Contains(t, w.Body.String(), `"already_enrolled":false`)
	})

	t.Run("missing reference fails binding", func(t *testing.T) {
		svc := &enrollmentServiceStub{}
		w := verifyRequest(t, svc, `{}`)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rate limited request carries Retry-After", func(t *testing.T) {
		svc := &enrollmentServiceStub{
			verify: func(ctx context.Context, userID, courseID uuid.UUID, reference string) (*models.EnrollmentReceipt, error) {
				return nil, &app_errors.RateLimitError{RetryAfter: 5 * time.Minute}
			},
		}

		w := verifyRequest(t, svc, `{"reference": "ref-001"}`)

		require.Equal(t, http.StatusTooManyRequests, w.Code)
		require.Equal(t, "300", w.Header().Get("Retry-After"))
	})

	t.Run("error status mapping", func(t *testing.T) {
		cases := []struct {
			name string
			err  error
			code int
		}{
			{"free course", app_errors.ErrFreeCourse, http.StatusBadRequest},
			{"course not found", app_errors.ErrCourseNotFound, http.StatusNotFound},
			{"course not published", app_errors.ErrCourseNotPublished, http.StatusNotFound},
			{"provider timeout", app_errors.ErrProviderTimeout, http.StatusGatewayTimeout},
			{"provider unreachable", app_errors.ErrProviderUnreachable, http.StatusBadGateway},
			{"payment rejected", app_errors.ErrPaymentRejected, http.StatusUnprocessableEntity},
			{"enrollment failed", app_errors.ErrEnrollmentFailed, http.StatusInternalServerError},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				svc := &enrollmentServiceStub{
					verify: func(ctx context.Context, userID, courseID uuid.UUID, reference string) (*models.EnrollmentReceipt, error) {
						return nil, tc.err
					},
				}
				w := verifyRequest(t, svc, `{"reference": "ref-001"}`)
				require.Equal(t, tc.code, w.Code)
			})
		}
	})
}

func TestEnrollCourse(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(svc EnrollmentService) *gin.Engine {
		h := NewEnrollmentHandler(logger.New("local"), svc)
		r := gin.New()
		r.POST("/courses/:course_id/enroll", func(c *gin.Context) {
			c.Set(middleware.ClientIDCtx, uuid.New())
			h.EnrollCourse(c)
		})
		return r
	}

	t.Run("free enrollment succeeds", func(t *testing.T) {
		svc := &enrollmentServiceStub{
			enroll: func(ctx context.Context, courseID, userID uuid.UUID) (*models.Enrollment, error) {
				return &models.Enrollment{ID: uuid.New(), CourseID: courseID, UserID: userID, Status: models.EnrollmentActive}, nil
			},
		}

		req := httptest.NewRequest(http.MethodPost, "/courses/"+uuid.NewString()+"/enroll", nil)
		w := httptest.NewRecorder()
		newRouter(svc).ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		require.Contains(t, w.Body.String(), `"status":"active"`)
	})

	t.Run("premium course returns payment required", func(t *testing.T) {
		svc := &enrollmentServiceStub{
			enroll: func(ctx context.Context, courseID, userID uuid.UUID) (*models.Enrollment, error) {
				return nil, app_errors.ErrPaymentRequired
			},
		}

		req := httptest.NewRequest(http.MethodPost, "/courses/"+uuid.NewString()+"/enroll", nil)
		w := httptest.NewRecorder()
		newRouter(svc).ServeHTTP(w, req)

		require.Equal(t, http.StatusPaymentRequired, w.Code)
	})

	t.Run("duplicate enrollment conflicts", func(t *testing.T) {
		svc := &enrollmentServiceStub{
			enroll: func(ctx context.Context, courseID, userID uuid.UUID) (*models.Enrollment, error) {
				return nil, app_errors.ErrAlreadyEnrolled
			},
		}

		req := httptest.NewRequest(http.MethodPost, "/courses/"+uuid.NewString()+"/enroll", nil)
		w := httptest.NewRecorder()
		newRouter(svc).ServeHTTP(w, req)

		require.Equal(t, http.StatusConflict, w.Code)
	})
}
