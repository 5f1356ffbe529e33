package loan

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

type DurationUnit string

const (
	DurationMonths DurationUnit = "month"
	DurationYears  DurationUnit = "year"
)

type PeriodUnit string

const (
	PeriodDay   PeriodUnit = "day"
	PeriodMonth PeriodUnit = "month"
)

// DaysPerMonth is the fixed month length used for term and daily schedules.
const DaysPerMonth = 30

// MaxDuration is the largest duration, in either unit, whose installment
// count and term in days still fit an int.
const MaxDuration = math.MaxInt / (12 * DaysPerMonth)

var (
	hundred      = decimal.NewFromInt(100)
	monthsInYear = decimal.NewFromInt(12)
)

// Policy fixes how a duration is read and how often installments fall due.
// The zero value is not usable; start from DefaultPolicy.
type Policy struct {
	DurationUnit DurationUnit
	PeriodUnit   PeriodUnit
	// AbsorbRounding puts the rounding remainder on the final installment.
	// Off by default: every installment is the rounded quotient.
	AbsorbRounding bool
}

// DefaultPolicy reads durations in months and bills once a month.
func DefaultPolicy() Policy {
	return Policy{DurationUnit: DurationMonths, PeriodUnit: PeriodMonth}
}

func (p Policy) Validate() error {
	switch p.DurationUnit {
	case DurationMonths, DurationYears:
	default:
		return fmt.Errorf("%w: unknown duration unit %q", ErrInvalidInput, p.DurationUnit)
	}
	switch p.PeriodUnit {
	case PeriodDay, PeriodMonth:
	default:
		return fmt.Errorf("%w: unknown period unit %q", ErrInvalidInput, p.PeriodUnit)
	}
	return nil
}

// Months converts a duration to whole months under this policy.
func (p Policy) Months(duration int) int {
	if p.DurationUnit == DurationYears {
		return duration * 12
	}
	return duration
}

// InstallmentCount is the duration expressed in payment periods.
func (p Policy) InstallmentCount(duration int) int {
	months := p.Months(duration)
	if p.PeriodUnit == PeriodDay {
		return months * DaysPerMonth
	}
	return months
}

// Compute derives the simple-interest schedule:
//
//	interest    = principal * rate * years / 100
//	payable     = principal + interest
//	installment = payable / installmentCount
//
// Amounts are rounded half-up to 2 places.
func (p Policy) Compute(principal, annualRatePercent decimal.Decimal, duration int) (Schedule, error) {
	if err := p.Validate(); err != nil {
		return Schedule{}, err
	}
	if !principal.IsPositive() {
		return Schedule{}, fmt.Errorf("%w: principal must be positive", ErrInvalidInput)
	}
	if annualRatePercent.IsNegative() {
		return Schedule{}, fmt.Errorf("%w: rate must not be negative", ErrInvalidInput)
	}
	if duration <= 0 {
		return Schedule{}, fmt.Errorf("%w: duration must be positive", ErrInvalidInput)
	}
	if duration > MaxDuration {
		return Schedule{}, fmt.Errorf("%w: duration exceeds %d", ErrInvalidInput, MaxDuration)
	}

	months := decimal.NewFromInt(int64(p.Months(duration)))
	count := p.InstallmentCount(duration)

	interest := principal.Mul(annualRatePercent).Mul(months).Div(hundred.Mul(monthsInYear))
	payable := principal.Add(interest)
	installment := payable.Div(decimal.NewFromInt(int64(count))).Round(2)

	s := Schedule{
		DurationUnit:     p.DurationUnit,
		PeriodUnit:       p.PeriodUnit,
		TotalInterest:    interest.Round(2),
		TotalPayable:     payable.Round(2),
		Installment:      installment,
		FinalInstallment: installment,
		InstallmentCount: count,
		TermDays:         p.Months(duration) * DaysPerMonth,
	}
	if p.AbsorbRounding && count > 1 {
		s.FinalInstallment = s.TotalPayable.Sub(installment.Mul(decimal.NewFromInt(int64(count - 1))))
	}
	return s, nil
}
