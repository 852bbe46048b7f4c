package enrollment

import (
	"SkillMarket/internal/app_errors"
	"SkillMarket/internal/events"
	"SkillMarket/internal/models"
	"SkillMarket/internal/provider/paystack"
	"SkillMarket/internal/service/enrollment/ratelimit"
	"SkillMarket/pkg/logger"
	"SkillMarket/pkg/retry"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

type courseRepo interface {
	CourseByID(ctx context.Context, id uuid.UUID) (*models.Course, error)
}

type enrollmentRepo interface {
	EnrollFree(ctx context.Context, courseID, userID uuid.UUID) (*models.Enrollment, error)
}

type providerVerifier interface {
	VerifyTransaction(ctx context.Context, reference string) (*paystack.Transaction, error)
}

type eventPublisher interface {
	PublishEnrollmentCompleted(ctx context.Context, ev events.EnrollmentCompleted) error
}

// Config is the payment policy: which provider name payments are recorded
// under, and how provider amounts/currencies are reconciled.
type Config struct {
	Provider          string
	HomeCurrency      string
	AllowedCurrencies []string
	AmountTolerance   float64
}

// Service runs the verification pipeline end to end: rate limit → course
// lookup → provider confirmation → reconciliation → idempotent commit.
type Service struct {
	log          logger.Log
	limiter      *ratelimit.Limiter
	courseRepo   courseRepo
	enrollRepo   enrollmentRepo
	provider     providerVerifier
	coordinator  *Coordinator
	exec         *retry.Executor
	publisher    eventPublisher
	providerName string
	reconcileCfg reconcileConfig

	// Concurrent submissions of the same (user, course, reference) collapse
	// into one provider call and one commit; the stragglers share its result.
	sf singleflight.Group
}

func NewService(
	log logger.Log,
	cfg Config,
	limiter *ratelimit.Limiter,
	courseRepo courseRepo,
	enrollRepo enrollmentRepo,
	provider providerVerifier,
	coordinator *Coordinator,
	exec *retry.Executor,
	publisher eventPublisher,
) *Service {
	allowed := make(map[string]struct{}, len(cfg.AllowedCurrencies))
	for _, c := range cfg.AllowedCurrencies {
		allowed[c] = struct{}{}
	}
	return &Service{
		log:          log,
		limiter:      limiter,
		courseRepo:   courseRepo,
		enrollRepo:   enrollRepo,
		provider:     provider,
		coordinator:  coordinator,
		exec:         exec,
		publisher:    publisher,
		providerName: cfg.Provider,
		reconcileCfg: reconcileConfig{
			tolerance:    cfg.AmountTolerance,
			homeCurrency: cfg.HomeCurrency,
			allowed:      allowed,
		},
	}
}

// VerifyAndEnroll confirms a client-supplied payment reference with the
// provider and grants course access exactly once. Re-submissions and races
// resolve to the same receipt with AlreadyEnrolled set.
func (s *Service) VerifyAndEnroll(ctx context.Context, userID, courseID uuid.UUID, reference string) (*models.EnrollmentReceipt, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, app_errors.ErrEmptyReference
	}

	if res := s.limiter.Check(userID.String()); !res.Allowed {
		return nil, &app_errors.RateLimitError{RetryAfter: res.RetryAfter}
	}

	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.Status != models.StatusPublic {
		return nil, app_errors.ErrCourseNotPublished
	}
	if !course.IsPremium || course.Price <= 0 {
		return nil, app_errors.ErrFreeCourse
	}

	key := fmt.Sprintf("verify_%s_%s_%s", userID, courseID, reference)
	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		return s.verifyAndCommit(ctx, userID, course, reference)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.EnrollmentReceipt), nil
}

func (s *Service) verifyAndCommit(ctx context.Context, userID uuid.UUID, course *models.Course, reference string) (*models.EnrollmentReceipt, error) {
	tx, err := s.provider.VerifyTransaction(ctx, reference)
	if err != nil {
		return nil, err
	}

	amount, currency, err := s.reconcile(course, tx)
	if err != nil {
		return nil, err
	}

	payment := models.Payment{
		UserID:            userID,
		CourseID:          course.ID,
		Amount:            amount,
		Currency:          currency,
		Provider:          s.providerName,
		ProviderReference: tx.Reference,
		Status:            models.PaymentStatusSuccess,
	}

	var receipt *models.EnrollmentReceipt
	err = s.exec.Run(ctx, func(ctx context.Context) error {
		var commitErr error
		receipt, commitErr = s.coordinator.Commit(ctx, payment)
		return commitErr
	})
	if err != nil {
		if errors.Is(err, app_errors.ErrEnrollmentFailed) || errors.Is(err, app_errors.ErrPaymentRejected) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", app_errors.ErrEnrollmentFailed, err)
	}

	s.publishCompleted(ctx, receipt, payment)
	return receipt, nil
}

// Enroll grants access to a free course. Premium courses must go through
// VerifyAndEnroll.
func (s *Service) Enroll(ctx context.Context, courseID, userID uuid.UUID) (*models.Enrollment, error) {
	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.Status != models.StatusPublic {
		return nil, app_errors.ErrCourseNotPublished
	}
	if course.IsPremium && course.Price > 0 {
		return nil, app_errors.ErrPaymentRequired
	}

	var enrollment *models.Enrollment
	err = s.exec.Run(ctx, func(ctx context.Context) error {
		var enrollErr error
		enrollment, enrollErr = s.enrollRepo.EnrollFree(ctx, courseID, userID)
		return enrollErr
	})
	if err != nil {
		return nil, err
	}
	return enrollment, nil
}

func (s *Service) loadCourse(ctx context.Context, courseID uuid.UUID) (*models.Course, error) {
	var course *models.Course
	err := s.exec.Run(ctx, func(ctx context.Context) error {
		var loadErr error
		course, loadErr = s.courseRepo.CourseByID(ctx, courseID)
		return loadErr
	})
	if err != nil {
		return nil, err
	}
	return course, nil
}

// publishCompleted is best-effort: a lost event never fails a paid
// enrollment.
func (s *Service) publishCompleted(ctx context.Context, receipt *models.EnrollmentReceipt, payment models.Payment) {
	if s.publisher == nil {
		return
	}
	ev := events.EnrollmentCompleted{
		EnrollmentID:    receipt.EnrollmentID,
		PaymentID:       receipt.PaymentID,
		UserID:          payment.UserID,
		CourseID:        payment.CourseID,
		Amount:          payment.Amount,
		Currency:        payment.Currency,
		AlreadyEnrolled: receipt.AlreadyEnrolled,
		OccurredAt:      time.Now().UTC(),
	}
	if err := s.publisher.PublishEnrollmentCompleted(ctx, ev); err != nil {
		s.log.ErrorErr("failed to publish enrollment.completed", err,
			"enrollment_id", receipt.EnrollmentID)
	}
}
