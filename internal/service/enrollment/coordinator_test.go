package enrollment

import (
	"SkillMarket/internal/app_errors"
	"SkillMarket/internal/models"
	"SkillMarket/pkg/logger"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type commitStoreStub struct {
	commit func(ctx context.Context, payment models.Payment) (*models.EnrollmentReceipt, error)
	lookup func(ctx context.Context, provider, reference string, userID, courseID uuid.UUID) (*models.EnrollmentReceipt, error)
}

func (s *commitStoreStub) CommitEnrollment(ctx context.Context, payment models.Payment) (*models.EnrollmentReceipt, error) {
	return s.commit(ctx, payment)
}

func (s *commitStoreStub) CommittedReceipt(ctx context.Context, provider, reference string, userID, courseID uuid.UUID) (*models.EnrollmentReceipt, error) {
	return s.lookup(ctx, provider, reference, userID, courseID)
}

func testPayment() models.Payment {
	return models.Payment{
		UserID:            uuid.New(),
		CourseID:          uuid.New(),
		Amount:            5000,
		Currency:          "NGN",
		Provider:          "paystack",
		ProviderReference: "ref-001",
		Status:            models.PaymentStatusSuccess,
	}
}

func TestCoordinatorCommit(t *testing.T) {
	log := logger.New("local")

	t.Run("clean commit returns the new receipt", func(t *testing.T) {
		want := &models.EnrollmentReceipt{PaymentID: uuid.New(), EnrollmentID: uuid.New()}
		store := &commitStoreStub{
			commit: func(ctx context.Context, payment models.Payment) (*models.EnrollmentReceipt, error) {
				return want, nil
			},
		}

		receipt, err := NewCoordinator(log, store).Commit(context.Background(), testPayment())
		require.NoError(t, err)
		require.Equal(t, want, receipt)
	})

	t.Run("lost insert race resolves to the winner's receipt", func(t *testing.T) {
		want := &models.EnrollmentReceipt{PaymentID: uuid.New(), EnrollmentID: uuid.New(), AlreadyEnrolled: true}
		lookups := 0
		store := &commitStoreStub{
			commit: func(ctx context.Context, payment models.Payment) (*models.EnrollmentReceipt, error) {
				return nil, app_errors.ErrPaymentExists
			},
			lookup: func(ctx context.Context, provider, reference string, userID, courseID uuid.UUID) (*models.EnrollmentReceipt, error) {
				lookups++
				return want, nil
			},
		}

		receipt, err := NewCoordinator(log, store).Commit(context.Background(), testPayment())
		require.NoError(t, err)
		require.Equal(t, want, receipt)
		require.Equal(t, 1, lookups)
	})

	t.Run("invisible winner triggers exactly one full retry", func(t *testing.T) {
		want := &models.EnrollmentReceipt{PaymentID: uuid.New(), EnrollmentID: uuid.New()}
		commits := 0
		store := &commitStoreStub{
			commit: func(ctx context.Context, payment models.Payment) (*models.EnrollmentReceipt, error) {
				commits++
				if commits == 1 {
					return nil, app_errors.ErrPaymentExists
				}
				return want, nil
			},
			lookup: func(ctx context.Context, provider, reference string, userID, courseID uuid.UUID) (*models.EnrollmentReceipt, error) {
				return nil, app_errors.ErrPaymentNotFound
			},
		}

		receipt, err := NewCoordinator(log, store).Commit(context.Background(), testPayment())
		require.NoError(t, err)
		require.Equal(t, want, receipt)
		require.Equal(t, 2, commits)
	})

	t.Run("retry conflict with a second lookup miss fails the enrollment", func(t *testing.T) {
		store := &commitStoreStub{
			commit: func(ctx context.Context, payment models.Payment) (*models.EnrollmentReceipt, error) {
				return nil, app_errors.ErrPaymentExists
			},
			lookup: func(ctx context.Context, provider, reference string, userID, courseID uuid.UUID) (*models.EnrollmentReceipt, error) {
				return nil, app_errors.ErrPaymentNotFound
			},
		}

		_, err := NewCoordinator(log, store).Commit(context.Background(), testPayment())
		require.ErrorIs(t, err, app_errors.ErrEnrollmentFailed)
	})

	t.Run("unrelated commit errors pass through", func(t *testing.T) {
		boom := errors.New("connection lost")
		store := &commitStoreStub{
			commit: func(ctx context.Context, payment models.Payment) (*models.EnrollmentReceipt, error) {
				return nil, boom
			},
		}

		_, err := NewCoordinator(log, store).Commit(context.Background(), testPayment())
		require.ErrorIs(t, err, boom)
	})

	t.Run("unrelated lookup errors pass through", func(t *testing.T) {
		boom := errors.New("connection lost")
		store := &commitStoreStub{
			commit: func(ctx context.Context, payment models.Payment) (*models.EnrollmentReceipt, error) {
				return nil, app_errors.ErrPaymentExists
			},
			lookup: func(ctx context.Context, provider, reference string, userID, courseID uuid.UUID) (*models.EnrollmentReceipt, error) {
				return nil, boom
			},
		}

		_, err := NewCoordinator(log, store).Commit(context.Background(), testPayment())
		require.ErrorIs(t, err, boom)
	})
}
