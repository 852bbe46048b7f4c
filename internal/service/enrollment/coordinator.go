package enrollment

import (
	"SkillMarket/internal/app_errors"
	"SkillMarket/internal/models"
	"SkillMarket/pkg/logger"
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type commitStore interface {
	CommitEnrollment(ctx context.Context, payment models.Payment) (*models.EnrollmentReceipt, error)
	CommittedReceipt(ctx context.Context, provider, reference string, userID, courseID uuid.UUID) (*models.EnrollmentReceipt, error)
}

// Coordinator resolves concurrent and duplicate payment submissions to one
// canonical receipt. A submission that loses an insert race is never an
// error: the winner's rows are re-read and returned as if this call had
// committed them.
type Coordinator struct {
	log   logger.Log
	store commitStore
}

func NewCoordinator(log logger.Log, store commitStore) *Coordinator {
	return &Coordinator{log: log, store: store}
}

func (c *Coordinator) Commit(ctx context.Context, payment models.Payment) (*models.EnrollmentReceipt, error) {
	receipt, err := c.store.CommitEnrollment(ctx, payment)
	if err == nil {
		return receipt, nil
	}
	if !errors.Is(err, app_errors.ErrPaymentExists) {
		return nil, err
	}

	// Lost the insert race. The winner committed the same reference; read
	// its rows back.
	receipt, lookupErr := c.store.CommittedReceipt(ctx, payment.Provider, payment.ProviderReference, payment.UserID, payment.CourseID)
	if lookupErr == nil {
		return receipt, nil
	}
	if !errors.Is(lookupErr, app_errors.ErrPaymentNotFound) {
		return nil, lookupErr
	}

	// The winner's transaction was not visible yet. One full retry closes
	// that window; a second miss is a logic error, not a race.
	c.log.Warn("conflict re-read missed committed rows, retrying commit once",
		"provider", payment.Provider, "reference", payment.ProviderReference)
	receipt, err = c.store.CommitEnrollment(ctx, payment)
	if err != nil {
		if errors.Is(err, app_errors.ErrPaymentExists) {
			receipt, lookupErr = c.store.CommittedReceipt(ctx, payment.Provider, payment.ProviderReference, payment.UserID, payment.CourseID)
			if lookupErr == nil {
				return receipt, nil
			}
			return nil, fmt.Errorf("%w: commit conflict could not be resolved", app_errors.ErrEnrollmentFailed)
		}
		return nil, err
	}
	return receipt, nil
}
