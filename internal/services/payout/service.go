// Package payout releases a completed job's escrow to the contractor,
// withholding the platform fee.
package payout

import (
	"context"
	"fmt"
	"log"
	"time"

	apperrors "crewpay/internal/errors"
	"crewpay/internal/metrics"
	"crewpay/internal/models"
	"crewpay/internal/repositories"
	"crewpay/internal/services/payment"
	"crewpay/internal/services/release"
)

type Result struct {
	Job             *models.Job             `json:"job"`
	ContractorCents int64                   `json:"contractor_cents"`
	FeeCents        int64                   `json:"fee_cents"`
	Transfers       []models.TransferRecord `json:"transfers,omitempty"`
	Idempotent      bool                    `json:"idempotent"`
}

type Service struct {
	store     repositories.Store
	processor payment.Processor
	fees      models.FeeSchedule
	metrics   metrics.Collector
	now       func() time.Time
}

func NewService(store repositories.Store, processor payment.Processor, fees models.FeeSchedule, collector metrics.Collector) *Service {
	if collector == nil {
		collector = metrics.NoopCollector{}
	}
	return &Service{store: store, processor: processor, fees: fees, metrics: collector, now: time.Now}
}

// ReleaseJob pays out the job escrow. It is refused while the job is
// frozen by a dispute and is a no-op once the payout is released.
func (s *Service) ReleaseJob(ctx context.Context, actor models.Actor, jobID uint) (*Result, error) {
	var res *Result
	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		job, err := tx.Jobs().GetForUpdate(ctx, jobID)
		if err != nil {
			return err
		}
		if job.PosterID != actor.UserID && !actor.IsTopLevelAdmin() {
			return apperrors.ErrNotJobPoster
		}
		if job.PayoutStatus == models.PayoutStatusReleased {
			res = &Result{Job: job, FeeCents: s.fees.FeeFor(job.AmountCents), Idempotent: true}
			res.ContractorCents = job.AmountCents - res.FeeCents
			return nil
		}

		disputes, err := tx.Disputes().ListByJob(ctx, job.ID)
		if err != nil {
			return err
		}
		if release.IsReleaseBlocked(job, disputes) {
			return apperrors.ErrReleaseFrozen
		}
		if job.PaymentStatus != models.PaymentStatusEscrowed || job.EscrowStatus != models.EscrowStatusHeld {
			return apperrors.Conflict("JOB_NOT_ESCROWED", fmt.Sprintf("job %d has no held escrow to release", job.ID))
		}

		fee := s.fees.FeeFor(job.AmountCents)
		contractor := job.AmountCents - fee

		var entries []models.LedgerEntry
		if contractor > 0 {
			entries = append(entries, models.DoubleEntry(job.ID, nil, models.LedgerTypeJobPayout,
				models.BucketEscrow, models.BucketContractorPayable, contractor, job.Currency,
				fmt.Sprintf("job %d payout", job.ID))...)
		}
		if fee > 0 {
			entries = append(entries, models.DoubleEntry(job.ID, nil, models.LedgerTypePlatformFee,
				models.BucketEscrow, models.BucketPlatformFee, fee, job.Currency,
				fmt.Sprintf("job %d platform fee", job.ID))...)
		}
		if err := tx.Ledger().Append(ctx, entries...); err != nil {
			return err
		}

		legs := []models.TransferRecord{
			{Role: models.TransferRoleContractorPayout, AmountCents: contractor},
			{Role: models.TransferRolePlatformFee, AmountCents: fee},
		}
		var created []models.TransferRecord
		for _, leg := range legs {
			if leg.AmountCents <= 0 {
				continue
			}
			leg.JobID = &job.ID
			leg.Status = models.TransferStatusPending
			leg.Currency = job.Currency
			leg.Method = s.processor.Method()
			if err := tx.Transfers().Create(ctx, &leg); err != nil {
				return err
			}
			created = append(created, leg)
		}

		now := s.now()
		from := job.Status
		job.Status = models.JobStatusCompleted
		job.PayoutStatus = models.PayoutStatusReleased
		job.EscrowStatus = models.EscrowStatusReleased
		job.ReleasedAt = &now
		if err := tx.Jobs().Save(ctx, job); err != nil {
			return err
		}
		s.metrics.RecordTransition("job", from, job.Status)

		res = &Result{Job: job, ContractorCents: contractor, FeeCents: fee, Transfers: created}
		return nil
	})
	if err != nil {
		s.metrics.RecordOperationResult("job_payout", string(apperrors.KindOf(err)))
		return nil, err
	}
	if res.Idempotent {
		s.metrics.RecordOperationResult("job_payout", "idempotent")
		return res, nil
	}

	s.metrics.RecordMoneyMovement("job_payout", res.Job.Currency, res.ContractorCents)
	s.metrics.RecordMoneyMovement("platform_fee", res.Job.Currency, res.FeeCents)
	log.Printf("job %d paid out %d %s (fee %d)", jobID, res.ContractorCents, res.Job.Currency, res.FeeCents)
	s.capture(ctx, res)
	s.metrics.RecordOperationResult("job_payout", "ok")
	return res, nil
}

// capture collects the full escrow hold and stamps every leg with the
// result.
func (s *Service) capture(ctx context.Context, res *Result) {
	status := models.TransferStatusFailed
	var ref *string
	if res.Job.PaymentRef == nil {
		log.Printf("job %d has no payment reference; payout legs need manual settlement", res.Job.ID)
	} else {
		out, err := s.processor.Capture(ctx, *res.Job.PaymentRef, res.Job.AmountCents, fmt.Sprintf("job-%d-capture", res.Job.ID))
		if err != nil {
			log.Printf("job %d: capture failed: %v", res.Job.ID, err)
		} else {
			status = models.TransferStatusSucceeded
			ref = &out.Ref
		}
	}

	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		for i := range res.Transfers {
			res.Transfers[i].Status = status
			res.Transfers[i].ExternalRef = ref
			if err := tx.Transfers().Save(ctx, &res.Transfers[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("job %d: failed to record capture outcome: %v", res.Job.ID, err)
	}
}
