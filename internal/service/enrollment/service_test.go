package enrollment

import (
	"SkillMarket/internal/app_errors"
	"SkillMarket/internal/models"
	"SkillMarket/internal/provider/paystack"
	"SkillMarket/internal/service/enrollment/ratelimit"
	"SkillMarket/pkg/logger"
	"SkillMarket/pkg/retry"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type courseRepoStub struct {
	course func(ctx context.Context, id uuid.UUID) (*models.Course, error)
}

func (s *courseRepoStub) CourseByID(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	return s.course(ctx, id)
}

type enrollmentRepoStub struct {
	enroll func(ctx context.Context, courseID, userID uuid.UUID) (*models.Enrollment, error)
}

func (s *enrollmentRepoStub) EnrollFree(ctx context.Context, courseID, userID uuid.UUID) (*models.Enrollment, error) {
	return s.enroll(ctx, courseID, userID)
}

type verifierStub struct {
	verify func(ctx context.Context, reference string) (*paystack.Transaction, error)
}

func (s *verifierStub) VerifyTransaction(ctx context.Context, reference string) (*paystack.Transaction, error) {
	return s.verify(ctx, reference)
}

type fixture struct {
	userID   uuid.UUID
	courseID uuid.UUID
	course   *models.Course
	verifier *verifierStub
	store    *commitStoreStub
	limiter  *ratelimit.Limiter
}

func newFixture() *fixture {
	courseID := uuid.New()
	return &fixture{
		userID:   uuid.New(),
		courseID: courseID,
		course: &models.Course{
			ID:        courseID,
			Title:     "Distributed Systems",
			Price:     5000,
			Currency:  "NGN",
			IsPremium: true,
			AuthorID:  uuid.New(),
			Status:    models.StatusPublic,
		},
		verifier: &verifierStub{},
		store:    &commitStoreStub{},
		limiter:  ratelimit.New(10, time.Minute, 5*time.Minute),
	}
}

func (f *fixture) service() *Service {
	log := logger.New("local")
	courseRepo := &courseRepoStub{
		course: func(ctx context.Context, id uuid.UUID) (*models.Course, error) {
			if id == f.course.ID {
				return f.course, nil
			}
			return nil, app_errors.ErrCourseNotFound
		},
	}
	enrollRepo := &enrollmentRepoStub{
		enroll: func(ctx context.Context, courseID, userID uuid.UUID) (*models.Enrollment, error) {
			return &models.Enrollment{
				ID:       uuid.New(),
				CourseID: courseID,
				UserID:   userID,
				Status:   models.EnrollmentActive,
			}, nil
		},
	}
	cfg := Config{
		Provider:          "paystack",
		HomeCurrency:      "NGN",
		AllowedCurrencies: []string{"NGN", "USD"},
		AmountTolerance:   0.01,
	}
	return NewService(log, cfg, f.limiter, courseRepo, enrollRepo, f.verifier,
		NewCoordinator(log, f.store), retry.New(1, time.Millisecond), nil)
}

func successfulTransaction(amount int64, currency string) func(ctx context.Context, reference string) (*paystack.Transaction, error) {
	return func(ctx context.Context, reference string) (*paystack.Transaction, error) {
		return &paystack.Transaction{
			Reference: reference,
			Status:    paystack.StatusSuccess,
			Amount:    amount,
			Currency:  currency,
		}, nil
	}
}

func TestVerifyAndEnroll(t *testing.T) {
	t.Run("verified payment grants enrollment", func(t *testing.T) {
		f := newFixture()
		f.verifier.verify = successfulTransaction(500000, "NGN")

		var committed models.Payment
		want := &models.EnrollmentReceipt{PaymentID: uuid.New(), EnrollmentID: uuid.New()}
		f.store.commit = func(ctx context.Context, payment models.Payment) (*models.EnrollmentReceipt, error) {
			committed = payment
			return want, nil
		}

		receipt, err := f.service().VerifyAndEnroll(context.Background(), f.userID, f.courseID, "ref-001")

		require.NoError(t, err)
		require.Equal(t, want, receipt)
		require.False(t, receipt.AlreadyEnrolled)
		require.Equal(t, f.userID, committed.UserID)
		require.Equal(t, f.courseID, committed.CourseID)
		require.Equal(t, float64(5000), committed.Amount)
		require.Equal(t, "NGN", committed.Currency)
		require.Equal(t, "paystack", committed.Provider)
		require.Equal(t, "ref-001", committed.ProviderReference)
		require.Equal(t, models.PaymentStatusSuccess, committed.Status)
	})

	t.Run("resubmitted reference returns the original receipt", func(t *testing.T) {
		f := newFixture()
		f.verifier.verify = successfulTransaction(500000, "NGN")

		want := &models.EnrollmentReceipt{PaymentID: uuid.New(), EnrollmentID: uuid.New(), AlreadyEnrolled: true}
		f.store.commit = func(ctx context.Context, payment models.Payment) (*models.EnrollmentReceipt, error) {
			return nil, app_errors.ErrPaymentExists
		}
		f.store.lookup = func(ctx context.Context, provider, reference string, userID, courseID uuid.UUID) (*models.EnrollmentReceipt, error) {
			return want, nil
		}

		receipt, err := f.service().VerifyAndEnroll(context.Background(), f.userID, f.courseID, "ref-001")

		require.NoError(t, err)
		require.Equal(t, want, receipt)
		require.True(t, receipt.AlreadyEnrolled)
	})

	t.Run("amount short of the price rejects the payment", func(t *testing.T) {
		f := newFixture()
		f.verifier.verify = successfulTransaction(400000, "NGN")

		commits := 0
		f.store.commit = func(ctx context.Context, payment models.Payment) (*models.EnrollmentReceipt, error) {
			commits++
			return nil, nil
		}

		_, err := f.service().VerifyAndEnroll(context.Background(), f.userID, f.courseID, "ref-001")

		require.ErrorIs(t, err, app_errors.ErrPaymentRejected)
		require.Zero(t, commits)
	})

	t.Run("unknown provider currency falls back to the home currency", func(t *testing.T) {
		f := newFixture()
		f.verifier.verify = successfulTransaction(500000, "XTS")

		var committed models.Payment
		f.store.commit = func(ctx context.Context, payment models.Payment) (*models.EnrollmentReceipt, error) {
			committed = payment
			return &models.EnrollmentReceipt{PaymentID: uuid.New(), EnrollmentID: uuid.New()}, nil
		}

		_, err := f.service().VerifyAndEnroll(context.Background(), f.userID, f.courseID, "ref-001")

		require.NoError(t, err)
		require.Equal(t, "NGN", committed.Currency)
	})

	t.Run("reference already used for another purchase is rejected", func(t *testing.T) {
		f := newFixture()
		f.verifier.verify = successfulTransaction(500000, "NGN")
		f.store.commit = func(ctx context.Context, payment models.Payment) (*models.EnrollmentReceipt, error) {
			return nil, fmt.Errorf("%w: reference already used for another purchase", app_errors.ErrPaymentRejected)
		}

		_, err := f.service().VerifyAndEnroll(context.Background(), f.userID, f.courseID, "ref-001")

		require.ErrorIs(t, err, app_errors.ErrPaymentRejected)
		require.NotErrorIs(t, err, app_errors.ErrEnrollmentFailed)
	})

	t.Run("concurrent submissions collapse into one verification and one commit", func(t *testing.T) {
		f := newFixture()

		var providerCalls, commits int32
		release := make(chan struct{})
		f.verifier.verify = func(ctx context.Context, reference string) (*paystack.Transaction, error) {
			atomic.AddInt32(&providerCalls, 1)
			<-release
			return &paystack.Transaction{
				Reference: reference,
				Status:    paystack.StatusSuccess,
				Amount:    500000,
				Currency:  "NGN",
			}, nil
		}
		want := &models.EnrollmentReceipt{PaymentID: uuid.New(), EnrollmentID: uuid.New()}
		f.store.commit = func(ctx context.Context, payment models.Payment) (*models.EnrollmentReceipt, error) {
			atomic.AddInt32(&commits, 1)
			return want, nil
		}
		svc := f.service()

		const callers = 5
		receipts := make([]*models.EnrollmentReceipt, callers)
		errs := make([]error, callers)
		var started, done sync.WaitGroup
		started.Add(callers)
		done.Add(callers)
		for i := 0; i < callers; i++ {
			go func(i int) {
				defer done.Done()
				started.Done()
				receipts[i], errs[i] = svc.VerifyAndEnroll(context.Background(), f.userID, f.courseID, "ref-001")
			}(i)
		}
		started.Wait()
		// The provider call stays parked until every caller has had time to
		// join the in-flight verification.
		time.Sleep(50 * time.Millisecond)
		close(release)
		done.Wait()

		require.EqualValues(t, 1, atomic.LoadInt32(&providerCalls))
		require.EqualValues(t, 1, atomic.LoadInt32(&commits))
		for i := 0; i < callers; i++ {
			require.NoError(t, errs[i])
			require.Equal(t, want, receipts[i])
		}
	})

	t.Run("provider rejection surfaces unchanged", func(t *testing.T) {
		f := newFixture()
		f.verifier.verify = func(ctx context.Context, reference string) (*paystack.Transaction, error) {
			return nil, app_errors.ErrPaymentRejected
		}

		_, err := f.service().VerifyAndEnroll(context.Background(), f.userID, f.courseID, "ref-001")
		require.ErrorIs(t, err, app_errors.ErrPaymentRejected)
	})

	t.Run("empty reference is rejected before any work", func(t *testing.T) {
		f := newFixture()
		_, err := f.service().VerifyAndEnroll(context.Background(), f.userID, f.courseID, "   ")
		require.ErrorIs(t, err, app_errors.ErrEmptyReference)
	})

	t.Run("over-quota user is rate limited", func(t *testing.T) {
		f := newFixture()
		f.limiter = ratelimit.New(1, time.Minute, 5*time.Minute)
		f.verifier.verify = successfulTransaction(500000, "NGN")
		f.store.commit = func(ctx context.Context, payment models.Payment) (*models.EnrollmentReceipt, error) {
			return &models.EnrollmentReceipt{PaymentID: uuid.New(), EnrollmentID: uuid.New()}, nil
		}
		svc := f.service()

		_, err := svc.VerifyAndEnroll(context.Background(), f.userID, f.courseID, "ref-001")
		require.NoError(t, err)

		_, err = svc.VerifyAndEnroll(context.Background(), f.userID, f.courseID, "ref-001")
		var rateErr *app_errors.RateLimitError
		require.ErrorAs(t, err, &rateErr)
		require.Equal(t, 5*time.Minute, rateErr.RetryAfter)
	})

	t.Run("unknown course", func(t *testing.T) {
		f := newFixture()
		_, err := f.service().VerifyAndEnroll(context.Background(), f.userID, uuid.New(), "ref-001")
		require.ErrorIs(t, err, app_errors.ErrCourseNotFound)
	})

	t.Run("hidden course", func(t *testing.T) {
		f := newFixture()
		f.course.Status = models.StatusHidden
		_, err := f.service().VerifyAndEnroll(context.Background(), f.userID, f.courseID, "ref-001")
		require.ErrorIs(t, err, app_errors.ErrCourseNotPublished)
	})

	t.Run("free course needs no payment", func(t *testing.T) {
		f := newFixture()
		f.course.IsPremium = false
		f.course.Price = 0
		_, err := f.service().VerifyAndEnroll(context.Background(), f.userID, f.courseID, "ref-001")
		require.ErrorIs(t, err, app_errors.ErrFreeCourse)
	})

	t.Run("commit failure is reported as enrollment failure", func(t *testing.T) {
		f := newFixture()
		f.verifier.verify = successfulTransaction(500000, "NGN")
		f.store.commit = func(ctx context.Context, payment models.Payment) (*models.EnrollmentReceipt, error) {
			return nil, context.DeadlineExceeded
		}

		_, err := f.service().VerifyAndEnroll(context.Background(), f.userID, f.courseID, "ref-001")
		require.ErrorIs(t, err, app_errors.ErrEnrollmentFailed)
	})
}

func TestEnroll(t *testing.T) {
	t.Run("free course enrolls directly", func(t *testing.T) {
		f := newFixture()
		f.course.IsPremium = false
		f.course.Price = 0

		enrollment, err := f.service().Enroll(context.Background(), f.courseID, f.userID)

		require.NoError(t, err)
		require.Equal(t, f.courseID, enrollment.CourseID)
		require.Equal(t, f.userID, enrollment.UserID)
		require.Equal(t, models.EnrollmentActive, enrollment.Status)
	})

	t.Run("premium course requires payment", func(t *testing.T) {
		f := newFixture()
		_, err := f.service().Enroll(context.Background(), f.courseID, f.userID)
		require.ErrorIs(t, err, app_errors.ErrPaymentRequired)
	})

	t.Run("hidden course cannot be enrolled", func(t *testing.T) {
		f := newFixture()
		f.course.Status = models.StatusHidden
		_, err := f.service().Enroll(context.Background(), f.courseID, f.userID)
		require.ErrorIs(t, err, app_errors.ErrCourseNotPublished)
	})
}
