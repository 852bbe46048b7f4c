package enrollment

import (
	"SkillMarket/internal/app_errors"
	"SkillMarket/internal/models"
	"SkillMarket/internal/provider/paystack"
	"fmt"
	"math"
)

// minorUnitsPerMajor converts provider amounts (smallest currency unit, e.g.
// kobo) to the decimal unit course prices are stored in.
const minorUnitsPerMajor = 100

type reconcileConfig struct {
	tolerance    float64
	homeCurrency string
	allowed      map[string]struct{}
}

// reconcile compares the provider-confirmed amount and currency against the
// course price. An amount short of the price beyond tolerance means access
// must not be granted; the discrepancy is logged for investigation.
func (s *Service) reconcile(course *models.Course, tx *paystack.Transaction) (amount float64, currency string, err error) {
	amount = float64(tx.Amount) / minorUnitsPerMajor
	if math.Abs(amount-course.Price) > s.reconcileCfg.tolerance {
		s.log.Error("payment amount does not match course price",
			"course_id", course.ID,
			"reference", tx.Reference,
			"expected", course.Price,
			"got", amount,
		)
		return 0, "", fmt.Errorf("%w: amount %.2f does not match course price %.2f",
			app_errors.ErrPaymentRejected, amount, course.Price)
	}

	currency = tx.Currency
	if _, ok := s.reconcileCfg.allowed[currency]; !ok {
		// Some providers omit or vary this field; fall back to the home
		// currency rather than failing the payment.
		s.log.Warn("unrecognized provider currency, assuming home currency",
			"reference", tx.Reference,
			"currency", tx.Currency,
			"home_currency", s.reconcileCfg.homeCurrency,
		)
		currency = s.reconcileCfg.homeCurrency
	}
	return amount, currency, nil
}
