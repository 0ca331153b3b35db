package audit

import (
	"fmt"
	"strings"
	"time"

	"crewpay/internal/models"
	"crewpay/internal/services/release"
)

// Snapshot is everything a rule may look at, read in one repeatable-read
// transaction.
type Snapshot struct {
	Jobs      []models.Job
	Ledger    map[uint][]models.LedgerEntry
	Transfers map[uint][]models.TransferRecord
	Disputes  map[uint][]models.DisputeCase
	Orphans   []models.TransferRecord
	Fees      models.FeeSchedule
	Now       time.Time
}

// Rule inspects a snapshot and reports what it finds.
type Rule interface {
	Code() string
	Check(s *Snapshot) []Violation
}

// DefaultRules is the built-in catalog.
func DefaultRules() []Rule {
	return []Rule{
		ledgerMissing{},
		ledgerImbalanced{},
		releasedWhileFrozen{},
		transferAmountMismatch{},
		payoutLegMissing{},
		escrowStillHeld{},
		transferCurrencyMismatch{},
		orphanTransfer{},
	}
}

func jobRef(job *models.Job) *uint {
	id := job.ID
	return &id
}

// isPayoutEntry reports whether e was written by the job payout itself.
// PM request releases share the job's ledger but are not a payout trail.
func isPayoutEntry(e models.LedgerEntry) bool {
	return e.Type == models.LedgerTypeJobPayout || e.Type == models.LedgerTypePlatformFee
}

// bookedFee returns the platform fee recorded on the job's ledger at payout
// time. ok is false when no payout credit was booked, in which case the
// caller falls back to the current schedule.
func bookedFee(entries []models.LedgerEntry) (fee int64, ok bool) {
	for _, e := range entries {
		if !isPayoutEntry(e) || e.Direction != models.DirectionCredit {
			continue
		}
		ok = true
		if e.Type == models.LedgerTypePlatformFee {
			fee += e.AmountCents
		}
	}
	return fee, ok
}

func expectedFee(s *Snapshot, job *models.Job) int64 {
	if fee, ok := bookedFee(s.Ledger[job.ID]); ok {
		return fee
	}
	return s.Fees.FeeFor(job.AmountCents)
}

type ledgerMissing struct{}

func (ledgerMissing) Code() string { return CodeLedgerMissing }

func (ledgerMissing) Check(s *Snapshot) []Violation {
	var out []Violation
	for i := range s.Jobs {
		job := &s.Jobs[i]
		booked := false
		for _, e := range s.Ledger[job.ID] {
			if isPayoutEntry(e) {
				booked = true
				break
			}
		}
		if booked {
			continue
		}
		out = append(out, Violation{
			Severity:        SeverityCritical,
			Code:            CodeLedgerMissing,
			JobID:           jobRef(job),
			Message:         fmt.Sprintf("job %d was released with no payout ledger entries", job.ID),
			SuggestedAction: "reconstruct the ledger from processor records before any further payout",
			Details: map[string]interface{}{
				"amount_cents":  job.AmountCents,
				"currency":      job.Currency,
				"other_entries": len(s.Ledger[job.ID]),
			},
		})
	}
	return out
}

type ledgerImbalanced struct{}

func (ledgerImbalanced) Code() string { return CodeLedgerImbalanced }

func (ledgerImbalanced) Check(s *Snapshot) []Violation {
	var out []Violation
	for i := range s.Jobs {
		job := &s.Jobs[i]
		entries := s.Ledger[job.ID]
		if len(entries) == 0 {
			continue
		}
		var credits, debits int64
		for _, e := range entries {
			if e.Direction == models.DirectionCredit {
				credits += e.AmountCents
			} else {
				debits += e.AmountCents
			}
		}
		if credits == debits {
			continue
		}
		out = append(out, Violation{
			Severity:        SeverityCritical,
			Code:            CodeLedgerImbalanced,
			JobID:           jobRef(job),
			Message:         fmt.Sprintf("ledger for job %d does not net to zero", job.ID),
			SuggestedAction: "freeze the job and post a correcting entry after manual review",
			Details: map[string]interface{}{
				"credits_cents": credits,
				"debits_cents":  debits,
				"entries":       len(entries),
			},
		})
	}
	return out
}

type releasedWhileFrozen struct{}

func (releasedWhileFrozen) Code() string { return CodeReleasedWhileFrozen }

func (releasedWhileFrozen) Check(s *Snapshot) []Violation {
	var out []Violation
	for i := range s.Jobs {
		job := &s.Jobs[i]
		if !release.IsReleaseBlocked(job, s.Disputes[job.ID]) {
			continue
		}
		out = append(out, Violation{
			Severity:        SeverityCritical,
			Code:            CodeReleasedWhileFrozen,
			JobID:           jobRef(job),
			Message:         fmt.Sprintf("job %d was paid out while an unresolved dispute froze it", job.ID),
			SuggestedAction: "escalate to an administrator to decide the dispute",
			Details:         map[string]interface{}{"disputes": len(s.Disputes[job.ID])},
		})
	}
	return out
}

type transferAmountMismatch struct{}

func (transferAmountMismatch) Code() string { return CodeTransferAmountMismatch }

func (transferAmountMismatch) Check(s *Snapshot) []Violation {
	var out []Violation
	for i := range s.Jobs {
		job := &s.Jobs[i]
		fee := expectedFee(s, job)
		expected := map[string]int64{
			models.TransferRoleContractorPayout: job.AmountCents - fee,
			models.TransferRolePlatformFee:      fee,
		}
		for _, t := range s.Transfers[job.ID] {
			want, checked := expected[t.Role]
			if !checked || t.Status == models.TransferStatusFailed || t.AmountCents == want {
				continue
			}
			id := t.ID
			out = append(out, Violation{
				Severity:         SeverityHigh,
				Code:             CodeTransferAmountMismatch,
				JobID:            jobRef(job),
				TransferRecordID: &id,
				Message:          fmt.Sprintf("%s leg %d is %d, expected %d", t.Role, t.ID, t.AmountCents, want),
				SuggestedAction:  "compare the leg with the processor record and correct the payout",
				Details: map[string]interface{}{
					"role":           t.Role,
					"actual_cents":   t.AmountCents,
					"expected_cents": want,
					"job_cents":      job.AmountCents,
					"fee_cents":      fee,
				},
			})
		}
	}
	return out
}

type payoutLegMissing struct{}

func (payoutLegMissing) Code() string { return CodePayoutLegMissing }

func (payoutLegMissing) Check(s *Snapshot) []Violation {
	var out []Violation
	for i := range s.Jobs {
		job := &s.Jobs[i]
		if job.AmountCents-expectedFee(s, job) <= 0 {
			continue
		}
		found := false
		for _, t := range s.Transfers[job.ID] {
			if t.Role == models.TransferRoleContractorPayout {
				found = true
				break
			}
		}
		if found {
			continue
		}
		out = append(out, Violation{
			Severity:        SeverityHigh,
			Code:            CodePayoutLegMissing,
			JobID:           jobRef(job),
			Message:         fmt.Sprintf("job %d is released but has no contractor payout leg", job.ID),
			SuggestedAction: "confirm with the processor whether the contractor was paid",
		})
	}
	return out
}

type escrowStillHeld struct{}

func (escrowStillHeld) Code() string { return CodeEscrowStillHeld }

func (escrowStillHeld) Check(s *Snapshot) []Violation {
	var out []Violation
	for i := range s.Jobs {
		job := &s.Jobs[i]
		if job.EscrowStatus != models.EscrowStatusHeld {
			continue
		}
		out = append(out, Violation{
			Severity:        SeverityHigh,
			Code:            CodeEscrowStillHeld,
			JobID:           jobRef(job),
			Message:         fmt.Sprintf("job %d payout is released but escrow is still held", job.ID),
			SuggestedAction: "settle or release the escrow hold",
		})
	}
	return out
}

type transferCurrencyMismatch struct{}

func (transferCurrencyMismatch) Code() string { return CodeTransferCurrencyMismatch }

func (transferCurrencyMismatch) Check(s *Snapshot) []Violation {
	var out []Violation
	for i := range s.Jobs {
		job := &s.Jobs[i]
		for _, t := range s.Transfers[job.ID] {
			if strings.EqualFold(t.Currency, job.Currency) {
				continue
			}
			id := t.ID
			out = append(out, Violation{
				Severity:         SeverityWarn,
				Code:             CodeTransferCurrencyMismatch,
				JobID:            jobRef(job),
				TransferRecordID: &id,
				Message:          fmt.Sprintf("leg %d is in %s but job %d is in %s", t.ID, t.Currency, job.ID, job.Currency),
				SuggestedAction:  "check the conversion applied by the processor",
			})
		}
	}
	return out
}

type orphanTransfer struct{}

func (orphanTransfer) Code() string { return CodeOrphanTransfer }

func (orphanTransfer) Check(s *Snapshot) []Violation {
	var out []Violation
	for _, t := range s.Orphans {
		id := t.ID
		v := Violation{
			Severity:         SeverityWarn,
			Code:             CodeOrphanTransfer,
			TransferRecordID: &id,
			Message:          fmt.Sprintf("transfer %d has no resolvable job", t.ID),
			SuggestedAction:  "match the transfer to a job or mark it for manual reconciliation",
			Details: map[string]interface{}{
				"role":         t.Role,
				"amount_cents": t.AmountCents,
				"age_hours":    int64(s.Now.Sub(t.CreatedAt).Hours()),
			},
		}
		if t.JobID != nil {
			jobID := *t.JobID
			v.JobID = &jobID
		}
		out = append(out, v)
	}
	return out
}
