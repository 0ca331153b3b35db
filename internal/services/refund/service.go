package refund

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

type Service struct {
	store     repositories.Store
	processor payment.Processor
	metrics   metrics.Collector
}

func NewService(store repositories.Store, processor payment.Processor, collector metrics.Collector) *Service {
	if collector == nil {
		collector = metrics.NoopCollector{}
	}
	return &Service{store: store, processor: processor, metrics: collector}
}

// RefundJob returns a job's escrow to the poster. Every guard runs under
// the job row lock before anything is written; a guard that trips yields
// its Outcome with no side effects.
func (s *Service) RefundJob(ctx context.Context, actor models.Actor, jobID uint) (Outcome, error) {
	if !actor.IsTopLevelAdmin() && actor.Role != models.RoleSystem {
		return nil, apperrors.ErrAdminRequired
	}

	start := time.Now()
	var out Outcome
	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		job, err := tx.Jobs().GetForUpdate(ctx, jobID)
		if err != nil {
			return err
		}

		if job.PaymentStatus == models.PaymentStatusRefunded {
			out = AlreadyRefunded{JobID: job.ID}
			return nil
		}
		if job.PayoutStatus == models.PayoutStatusReleased {
			out = AlreadyReleased{JobID: job.ID, ReleasedAt: job.ReleasedAt}
			return nil
		}
		disputes, err := tx.Disputes().ListByJob(ctx, job.ID)
		if err != nil {
			return err
		}
		if release.IsReleaseBlocked(job, disputes) {
			blocked := BlockedByDispute{JobID: job.ID}
			for _, d := range disputes {
				blocked.DisputeIDs = append(blocked.DisputeIDs, d.ID)
			}
			out = blocked
			return nil
		}
		if job.PaymentStatus != models.PaymentStatusEscrowed || job.EscrowStatus != models.EscrowStatusHeld {
			return apperrors.Conflict("JOB_NOT_ESCROWED", fmt.Sprintf("job %d has no held escrow to refund", job.ID))
		}
		if job.AmountCents <= 0 {
			return apperrors.ErrInvalidAmount
		}

		entries := models.DoubleEntry(job.ID, nil, models.LedgerTypeJobRefund,
			models.BucketEscrow, models.BucketPosterRefund, job.AmountCents, job.Currency,
			fmt.Sprintf("job %d escrow refund", job.ID))
		if err := tx.Ledger().Append(ctx, entries...); err != nil {
			return err
		}

		transfer := &models.TransferRecord{
			JobID:       &job.ID,
			Role:        models.TransferRoleRefund,
			Status:      models.TransferStatusPending,
			AmountCents: job.AmountCents,
			Currency:    job.Currency,
			Method:      s.processor.Method(),
		}
		if err := tx.Transfers().Create(ctx, transfer); err != nil {
			return err
		}

		from := job.Status
		job.PaymentStatus = models.PaymentStatusRefunded
		job.EscrowStatus = models.EscrowStatusRefunded
		job.Status = models.JobStatusCancelled
		if err := tx.Jobs().Save(ctx, job); err != nil {
			return err
		}
		s.metrics.RecordTransition("job", from, job.Status)

		out = Completed{Job: job, AmountCents: job.AmountCents, Transfer: transfer}
		return nil
	})
	if err != nil {
		s.metrics.RecordOperationResult("job_refund", string(apperrors.KindOf(err)))
		return nil, err
	}

	s.metrics.RecordOperationResult("job_refund", string(out.Kind()))
	done, ok := out.(Completed)
	if !ok {
		log.Printf("refund of job %d skipped: %s", jobID, out.Kind())
		return out, nil
	}

	s.metrics.RecordMoneyMovement("job_refund", done.Job.Currency, done.AmountCents)
	log.Printf("job %d refunded %d %s to poster", jobID, done.AmountCents, done.Job.Currency)
	s.settle(ctx, done)
	s.metrics.RecordOperationDuration("job_refund", time.Since(start))
	return done, nil
}

// settle releases the held authorization and records the result on the
// transfer leg in its own transaction. Refunds only ever run against held
// escrow, so nothing has been captured and the hold is voided rather than
// refunded.
func (s *Service) settle(ctx context.Context, done Completed) {
	transfer := done.Transfer
	if done.Job.PaymentRef == nil {
		log.Printf("job %d has no payment reference; refund transfer %d needs manual settlement", done.Job.ID, transfer.ID)
		transfer.Status = models.TransferStatusFailed
	} else {
		res, err := s.processor.Void(ctx, *done.Job.PaymentRef, fmt.Sprintf("job-%d-refund", done.Job.ID))
		if err != nil {
			log.Printf("job %d: processor void failed: %v", done.Job.ID, err)
			transfer.Status = models.TransferStatusFailed
		} else {
			transfer.Status = models.TransferStatusSucceeded
			transfer.ExternalRef = &res.Ref
		}
	}

	if err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		return tx.Transfers().Save(ctx, transfer)
	}); err != nil {
		log.Printf("job %d: failed to record refund outcome on transfer %d: %v", done.Job.ID, transfer.ID, err)
	}
}
