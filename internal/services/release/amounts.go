// Package release holds the pure money-movement rules shared by every
// operation that pays out or refunds escrowed funds.
package release

import (
	apperrors "crewpay/internal/errors"
)

// Amounts is the result of capping a receipt total at an approved budget.
type Amounts struct {
	ReleaseCents   int64 `json:"release_amount_cents"`
	RemainderCents int64 `json:"remainder_cents"`
}

// ComputeReleaseAmounts pays the contractor what they spent, never more than
// the approved budget, and exposes what is left for return to the poster.
func ComputeReleaseAmounts(receiptTotalCents, approvedTotalCents int64) (Amounts, error) {
	if receiptTotalCents < 0 || approvedTotalCents < 0 {
		return Amounts{}, apperrors.ErrInvalidAmount
	}

	releaseCents := receiptTotalCents
	if approvedTotalCents < releaseCents {
		releaseCents = approvedTotalCents
	}

	remainderCents := approvedTotalCents - releaseCents
	if remainderCents < 0 {
		remainderCents = 0
	}

	return Amounts{ReleaseCents: releaseCents, RemainderCents: remainderCents}, nil
}
