// Package billing holds the closed enums and price/tier tables shared by the
// payment core.
package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentType selects which entitlement a successful payment grants.
type PaymentType string

const (
	PaymentTypeCreditTopup         PaymentType = "credit_topup"
	PaymentTypePaperCompletion     PaymentType = "paper_completion"
	PaymentTypeSubscriptionInitial PaymentType = "subscription_initial"
	PaymentTypeSubscriptionRenewal PaymentType = "subscription_renewal"
)

// PaymentTypes lists every known payment type.
var PaymentTypes = []PaymentType{
	PaymentTypeCreditTopup,
	PaymentTypePaperCompletion,
	PaymentTypeSubscriptionInitial,
	PaymentTypeSubscriptionRenewal,
}

func (t PaymentType) Valid() bool {
	for _, known := range PaymentTypes {
		if t == known {
			return true
		}
	}
	return false
}

// PaymentStatus is the state of a payment record.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusSucceeded PaymentStatus = "SUCCEEDED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusExpired   PaymentStatus = "EXPIRED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

// Terminal reports whether no further webhook transition is accepted.
func (s PaymentStatus) Terminal() bool {
	return s != PaymentStatusPending
}

// CanTransitionTo reports whether the state machine allows s -> next.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	if s != PaymentStatusPending {
		return false
	}
	switch next {
	case PaymentStatusSucceeded, PaymentStatusFailed, PaymentStatusExpired:
		return true
	}
	return false
}

// PaymentMethod is the method category chosen at checkout.
type PaymentMethod string

const (
	PaymentMethodQRIS           PaymentMethod = "QRIS"
	PaymentMethodVirtualAccount PaymentMethod = "VIRTUAL_ACCOUNT"
	PaymentMethodEWallet        PaymentMethod = "EWALLET"
)

// PaymentMethods lists every method category in display order.
var PaymentMethods = []PaymentMethod{
	PaymentMethodQRIS,
	PaymentMethodVirtualAccount,
	PaymentMethodEWallet,
}

func (m PaymentMethod) Valid() bool {
	for _, known := range PaymentMethods {
		if m == known {
			return true
		}
	}
	return false
}

// PlanType identifies a subscription plan.
type PlanType string

const (
	PlanProMonthly PlanType = "pro_monthly"
	PlanProYearly  PlanType = "pro_yearly"
)

// Plan is a subscription price point.
type Plan struct {
	Type           PlanType
	Price          decimal.Decimal
	IntervalMonths int
	Label          string
}

var plans = map[PlanType]Plan{
	PlanProMonthly: {Type: PlanProMonthly, Price: decimal.NewFromInt(200_000), IntervalMonths: 1, Label: "Pro Bulanan"},
	PlanProYearly:  {Type: PlanProYearly, Price: decimal.NewFromInt(2_000_000), IntervalMonths: 12, Label: "Pro Tahunan (Hemat 2 bulan)"},
}

// DefaultPlanLabel is shown when a payment carries an unknown plan.
const DefaultPlanLabel = "Pro Bulanan"

// LookupPlan returns the plan for t.
func LookupPlan(t PlanType) (Plan, bool) {
	p, ok := plans[t]
	return p, ok
}

// PlanLabel returns the display label for t.
func PlanLabel(t PlanType) string {
	if p, ok := plans[t]; ok {
		return p.Label
	}
	return DefaultPlanLabel
}

// AddInterval advances from by the plan period. Month arithmetic follows
// time.AddDate normalization.
func (p Plan) AddInterval(from time.Time) time.Time {
	return from.AddDate(0, p.IntervalMonths, 0)
}

const (
	// PaperCredits is the credit bundle sold as one "paper" package.
	PaperCredits = 300
	// PaperPriceIDR is the price of one paper package.
	PaperPriceIDR = 80_000
	// TokensPerCredit converts credits into model tokens.
	TokensPerCredit = 1000
	// DefaultPackageType applies to top-ups that omit a package type.
	DefaultPackageType = "paper"
)

// Tier is a user's billing tier.
type Tier string

const (
	TierFree Tier = "free"
	TierBPP  Tier = "bpp"
	TierPro  Tier = "pro"
)

// Unlimited allowances are stored as large sentinels.
const (
	UnlimitedTokens = 999_999_999
	UnlimitedPapers = 999
)

// TierLimits is the periodic allowance of a tier.
type TierLimits struct {
	MonthlyTokens  int64
	PapersPerMonth int
	CreditBased    bool
}

var tierLimits = map[Tier]TierLimits{
	TierFree: {MonthlyTokens: 100_000, PapersPerMonth: 2},
	TierBPP:  {MonthlyTokens: UnlimitedTokens, PapersPerMonth: UnlimitedPapers, CreditBased: true},
	TierPro:  {MonthlyTokens: 5_000_000, PapersPerMonth: UnlimitedPapers},
}

// LimitsFor returns the allowance for tier, falling back to free.
func LimitsFor(tier Tier) TierLimits {
	if l, ok := tierLimits[tier]; ok {
		return l
	}
	return tierLimits[TierFree]
}

// PeriodBoundaries returns the monthly quota window containing now, anchored
// on the day of month of signup. Dates are computed in now's location.
func PeriodBoundaries(signup, now time.Time) (start, end time.Time) {
	signup = signup.In(now.Location())
	start = time.Date(now.Year(), now.Month(), signup.Day(), 0, 0, 0, 0, now.Location())
	if start.After(now) {
		start = start.AddDate(0, -1, 0)
	}
	return start, start.AddDate(0, 1, 0)
}
