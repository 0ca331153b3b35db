package models

// FeeSchedule describes the platform's cut of a released job payout.
// Rates are in basis points so all arithmetic stays in integer cents.
type FeeSchedule struct {
	PlatformFeeBps int64 `yaml:"platform_fee_bps" json:"platform_fee_bps"`
	MinimumFee     int64 `yaml:"minimum_fee_cents" json:"minimum_fee_cents"`
}

var DefaultFeeSchedule = FeeSchedule{
	PlatformFeeBps: 1000, // 10%
	MinimumFee:     0,
}

const bpsDenominator = 10000

// FeeFor returns the fee withheld from a payout of amountCents. The result
// is floor(amount * bps / 10000), split into quotient and remainder so the
// product never overflows int64.
func (f FeeSchedule) FeeFor(amountCents int64) int64 {
	if amountCents <= 0 {
		return 0
	}
	var fee int64
	switch {
	case f.PlatformFeeBps >= bpsDenominator:
		fee = amountCents
	case f.PlatformFeeBps > 0:
		q, r := amountCents/bpsDenominator, amountCents%bpsDenominator
		fee = q*f.PlatformFeeBps + r*f.PlatformFeeBps/bpsDenominator
	}
	if fee < f.MinimumFee {
		fee = f.MinimumFee
	}
	if fee > amountCents {
		fee = amountCents
	}
	return fee
}
