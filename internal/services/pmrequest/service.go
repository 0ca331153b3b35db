// Package pmrequest implements the lifecycle of contractor material
// reimbursement requests, from draft through escrowed funding to release.
package pmrequest

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	apperrors "crewpay/internal/errors"
	"crewpay/internal/metrics"
	"crewpay/internal/models"
	"crewpay/internal/repositories"
	"crewpay/internal/services/payment"
	"crewpay/internal/services/release"

	"gorm.io/datatypes"
)

type Service struct {
	store     repositories.Store
	processor payment.Processor
	metrics   metrics.Collector
	now       func() time.Time
}

func NewService(store repositories.Store, processor payment.Processor, collector metrics.Collector) *Service {
	if store == nil {
		panic("store is required")
	}
	if processor == nil {
		panic("payment processor is required")
	}
	if collector == nil {
		collector = metrics.NoopCollector{}
	}
	return &Service{store: store, processor: processor, metrics: collector, now: time.Now}
}

// Create opens a DRAFT request on a job the actor is contracted for.
func (s *Service) Create(ctx context.Context, actor models.Actor, in CreateInput) (*models.PMRequest, error) {
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if len(currency) != 3 {
		return nil, apperrors.ErrInvalidCurrency
	}
	if in.TaxCents < 0 {
		return nil, apperrors.ErrInvalidAmount
	}
	items := make([]models.PMLineItem, 0, len(in.LineItems))
	for i, li := range in.LineItems {
		item, err := buildLineItem(li, i)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	var req *models.PMRequest
	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		job, err := tx.Jobs().GetByID(ctx, in.JobID)
		if err != nil {
			return err
		}
		if job.ContractorID != actor.UserID {
			return apperrors.ErrNotJobContractor
		}

		req = &models.PMRequest{
			JobID:        job.ID,
			ContractorID: job.ContractorID,
			PosterID:     job.PosterID,
			Status:       models.PMStatusDraft,
			LineItems:    items,
			TaxCents:     in.TaxCents,
			Currency:     currency,
		}
		req.RecomputeAutoTotal()
		if err := tx.PMRequests().Create(ctx, req); err != nil {
			return err
		}
		return s.writeAudit(ctx, tx, actor, req, "", models.PMStatusDraft)
	})
	if err != nil {
		return nil, err
	}
	log.Printf("pm request %d created for job %d by contractor %d", req.ID, req.JobID, actor.UserID)
	return req, nil
}

func buildLineItem(in LineItemInput, position int) (models.PMLineItem, error) {
	if in.Quantity <= 0 {
		return models.PMLineItem{}, apperrors.ErrInvalidQuantity
	}
	if in.UnitPriceCents < 0 {
		return models.PMLineItem{}, apperrors.ErrInvalidAmount
	}
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		return models.PMLineItem{}, apperrors.Validation("INVALID_LINE_ITEM", "line item description is required")
	}
	return models.PMLineItem{
		Position:       position,
		Description:    desc,
		Quantity:       in.Quantity,
		UnitPriceCents: in.UnitPriceCents,
		LineTotalCents: in.Quantity * in.UnitPriceCents,
	}, nil
}

func (s *Service) Get(ctx context.Context, actor models.Actor, id uint) (*models.PMRequest, error) {
	req, err := s.store.PMRequests().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsTopLevelAdmin() && actor.UserID != req.ContractorID && actor.UserID != req.PosterID {
		return nil, apperrors.Forbidden("NOT_A_PARTICIPANT", "only request participants may view it")
	}
	return req, nil
}

func (s *Service) History(ctx context.Context, actor models.Actor, id uint) ([]models.PMRequestAudit, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.store.PMRequests().ListAudits(ctx, id)
}

// AddLineItem appends an item while the request is in DRAFT and
// recomputes the automatic total.
func (s *Service) AddLineItem(ctx context.Context, actor models.Actor, id uint, in LineItemInput) (*models.PMRequest, error) {
	var out *models.PMRequest
	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		req, err := s.lockEditable(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		item, err := buildLineItem(in, len(req.LineItems))
		if err != nil {
			return err
		}
		item.PMRequestID = req.ID
		if err := tx.PMRequests().AddLineItem(ctx, &item); err != nil {
			return err
		}
		req.LineItems = append(req.LineItems, item)
		req.RecomputeAutoTotal()
		if err := tx.PMRequests().Save(ctx, req); err != nil {
			return err
		}
		out = req
		return nil
	})
	return out, err
}

// SetManualTotal overrides (or clears, with nil) the figure the poster
// will be asked to approve.
func (s *Service) SetManualTotal(ctx context.Context, actor models.Actor, id uint, cents *int64) (*models.PMRequest, error) {
	if cents != nil && *cents < 0 {
		return nil, apperrors.ErrInvalidAmount
	}
	var out *models.PMRequest
	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		req, err := s.lockEditable(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		req.ManualTotalCents = cents
		if err := tx.PMRequests().Save(ctx, req); err != nil {
			return err
		}
		out = req
		return nil
	})
	return out, err
}

func (s *Service) lockEditable(ctx context.Context, tx repositories.Store, actor models.Actor, id uint) (*models.PMRequest, error) {
	req, err := tx.PMRequests().GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.ContractorID != actor.UserID {
		return nil, apperrors.ErrNotJobContractor
	}
	// An amended request goes back to DRAFT through Revise before it can
	// be edited.
	if req.Status != models.PMStatusDraft {
		return nil, apperrors.ErrNotEditable.WithMessage("request is %s", req.Status)
	}
	return req, nil
}

func (s *Service) Submit(ctx context.Context, actor models.Actor, id uint) (*Result, error) {
	return s.simpleTransition(ctx, actor, id, models.PMStatusSubmitted, roleContractor, func(req *models.PMRequest) error {
		if len(req.LineItems) == 0 {
			return apperrors.ErrNoLineItems
		}
		now := s.now()
		req.SubmittedAt = &now
		return nil
	})
}

// Approve snapshots the approved budget exactly once. The write is
// conditioned on the request still being SUBMITTED so two concurrent
// approvals cannot store different snapshots.
func (s *Service) Approve(ctx context.Context, actor models.Actor, id uint) (*Result, error) {
	var res *Result
	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		req, err := tx.PMRequests().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if req.PosterID != actor.UserID {
			return apperrors.ErrNotJobPoster
		}
		if req.Status == models.PMStatusApproved {
			res = &Result{Request: req, Idempotent: true}
			return nil
		}
		if err := ValidateTransition(req.Status, models.PMStatusApproved); err != nil {
			return err
		}

		from := req.Status
		snapshot := req.BudgetCents()
		now := s.now()
		req.ApprovedTotalCents = &snapshot
		req.ApprovedAt = &now
		req.Status = models.PMStatusApproved

		n, err := tx.PMRequests().SaveIfStatus(ctx, req, from)
		if err != nil {
			return err
		}
		if n == 0 {
			current, err := tx.PMRequests().GetByID(ctx, id)
			if err != nil {
				return err
			}
			if current.Status == models.PMStatusApproved {
				res = &Result{Request: current, Idempotent: true}
				return nil
			}
			return apperrors.ErrStatusChanged.WithMessage("request moved to %s during approval", current.Status)
		}
		if err := s.writeAudit(ctx, tx, actor, req, from, models.PMStatusApproved); err != nil {
			return err
		}
		res = &Result{Request: req}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !res.Idempotent {
		s.metrics.RecordTransition("pm_request", string(models.PMStatusSubmitted), string(models.PMStatusApproved))
		log.Printf("pm request %d approved with budget %d %s", id, *res.Request.ApprovedTotalCents, res.Request.Currency)
	}
	return res, nil
}

func (s *Service) RequestAmendment(ctx context.Context, actor models.Actor, id uint, reason string, proposedBudgetCents *int64) (*Result, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.Validation("AMENDMENT_REASON_REQUIRED", "an amendment reason is required")
	}
	if proposedBudgetCents != nil && *proposedBudgetCents < 0 {
		return nil, apperrors.ErrInvalidAmount
	}
	return s.simpleTransition(ctx, actor, id, models.PMStatusAmendmentRequested, rolePoster, func(req *models.PMRequest) error {
		req.AmendmentReason = &reason
		req.ProposedBudgetCents = proposedBudgetCents
		return nil
	})
}

func (s *Service) Reject(ctx context.Context, actor models.Actor, id uint) (*Result, error) {
	return s.simpleTransition(ctx, actor, id, models.PMStatusRejected, rolePoster, func(req *models.PMRequest) error {
		now := s.now()
		req.ClosedAt = &now
		return nil
	})
}

// Revise returns an amendment-requested request to DRAFT for editing.
func (s *Service) Revise(ctx context.Context, actor models.Actor, id uint) (*Result, error) {
	return s.simpleTransition(ctx, actor, id, models.PMStatusDraft, roleContractor, nil)
}

// StartPayment places the processor hold for the approved budget and moves
// the request to PAYMENT_PENDING. The hold is placed before the transaction
// opens; only its reference is written inside it.
func (s *Service) StartPayment(ctx context.Context, actor models.Actor, id uint) (*Result, error) {
	req, err := s.store.PMRequests().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.PosterID != actor.UserID {
		return nil, apperrors.ErrNotJobPoster
	}
	if req.Status == models.PMStatusPaymentPending && req.PaymentRef != nil {
		return &Result{Request: req, Idempotent: true}, nil
	}
	if err := ValidateTransition(req.Status, models.PMStatusPaymentPending); err != nil {
		return nil, err
	}
	if req.ApprovedTotalCents == nil || *req.ApprovedTotalCents <= 0 {
		return nil, apperrors.Validation("NOTHING_TO_FUND", "approved total must be positive to fund")
	}

	hold, err := s.processor.Hold(ctx, payment.HoldRequest{
		AmountCents:    *req.ApprovedTotalCents,
		Currency:       req.Currency,
		Description:    fmt.Sprintf("materials for job %d", req.JobID),
		IdempotencyKey: fmt.Sprintf("pm-request-%d-hold", req.ID),
		Metadata:       map[string]string{"pm_request_id": fmt.Sprint(req.ID), "job_id": fmt.Sprint(req.JobID)},
	})
	if err != nil {
		s.metrics.RecordOperationResult("pm_hold", "error")
		return nil, fmt.Errorf("failed to place payment hold: %w", err)
	}

	return s.simpleTransition(ctx, actor, id, models.PMStatusPaymentPending, rolePoster, func(r *models.PMRequest) error {
		r.PaymentRef = &hold.Ref
		return nil
	})
}

// ConfirmFunding records that the hold is in place. Called by an admin or
// the processor callback handler.
func (s *Service) ConfirmFunding(ctx context.Context, actor models.Actor, id uint, escrowRef string) (*Result, error) {
	if !actor.IsTopLevelAdmin() && actor.Role != models.RoleSystem {
		return nil, apperrors.ErrAdminRequired
	}
	return s.simpleTransition(ctx, actor, id, models.PMStatusFunded, roleAny, func(req *models.PMRequest) error {
		ref := strings.TrimSpace(escrowRef)
		if ref == "" && req.PaymentRef != nil {
			ref = *req.PaymentRef
		}
		if ref == "" {
			return apperrors.Validation("ESCROW_REF_REQUIRED", "an escrow reference is required")
		}
		now := s.now()
		req.EscrowRef = &ref
		req.FundedAt = &now
		return nil
	})
}

func (s *Service) AddReceipt(ctx context.Context, actor models.Actor, id uint, in ReceiptInput) (*models.PMReceipt, error) {
	if strings.TrimSpace(in.FileURL) == "" {
		return nil, apperrors.Validation("RECEIPT_FILE_REQUIRED", "receipt file is required")
	}
	if in.ExtractedTotalCents < 0 {
		return nil, apperrors.ErrInvalidAmount
	}
	var receipt *models.PMReceipt
	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		req, err := tx.PMRequests().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if req.ContractorID != actor.UserID {
			return apperrors.ErrNotJobContractor
		}
		if req.Status != models.PMStatusFunded {
			return apperrors.Conflict("RECEIPTS_NOT_ACCEPTED", fmt.Sprintf("receipts cannot be added while %s", req.Status))
		}
		receipt = &models.PMReceipt{
			PMRequestID:         req.ID,
			FileURL:             strings.TrimSpace(in.FileURL),
			Vendor:              strings.TrimSpace(in.Vendor),
			ExtractedTotalCents: in.ExtractedTotalCents,
		}
		return tx.PMRequests().AddReceipt(ctx, receipt)
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

func (s *Service) SubmitReceipts(ctx context.Context, actor models.Actor, id uint) (*Result, error) {
	return s.simpleTransition(ctx, actor, id, models.PMStatusReceiptsSubmitted, roleContractor, func(req *models.PMRequest) error {
		if len(req.Receipts) == 0 {
			return apperrors.ErrNoReceipts
		}
		return nil
	})
}

// VerifyReceipts totals the receipts, preferring the poster's override for
// a receipt over its extracted figure, and marks each one verified.
func (s *Service) VerifyReceipts(ctx context.Context, actor models.Actor, id uint, overrides map[uint]int64) (*Result, error) {
	for _, cents := range overrides {
		if cents < 0 {
			return nil, apperrors.ErrInvalidAmount
		}
	}

	var res *Result
	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		req, err := tx.PMRequests().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if req.PosterID != actor.UserID {
			return apperrors.ErrNotJobPoster
		}
		switch req.Status {
		case models.PMStatusVerified, models.PMStatusReleased, models.PMStatusClosed:
			res = &Result{Request: req, Idempotent: true}
			return nil
		}
		if len(req.Receipts) == 0 {
			return apperrors.ErrNoReceipts
		}
		if err := ValidateTransition(req.Status, models.PMStatusVerified); err != nil {
			return err
		}

		known := make(map[uint]bool, len(req.Receipts))
		for _, rc := range req.Receipts {
			known[rc.ID] = true
		}
		for receiptID := range overrides {
			if !known[receiptID] {
				return apperrors.ErrReceiptNotFound.WithMessage("receipt %d does not belong to request %d", receiptID, req.ID)
			}
		}

		now := s.now()
		var total int64
		for i := range req.Receipts {
			rc := &req.Receipts[i]
			amount := rc.ExtractedTotalCents
			if override, ok := overrides[rc.ID]; ok {
				amount = override
			}
			total += amount
			rc.VerifiedTotalCents = &amount
			rc.Verified = true
			rc.VerifiedAt = &now
			if err := tx.PMRequests().SaveReceipt(ctx, rc); err != nil {
				return err
			}
		}

		from := req.Status
		req.ReceiptTotalCents = &total
		req.VerifiedAt = &now
		if err := s.commit(ctx, tx, actor, req, from, models.PMStatusVerified); err != nil {
			return err
		}
		res = &Result{Request: req}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ReleaseFunds pays the contractor the capped receipt total, returns the
// unused remainder to the poster and closes the request. Ledger entries
// and the transfer leg are written in the same transaction as the state
// change; the processor capture happens after commit.
func (s *Service) ReleaseFunds(ctx context.Context, actor models.Actor, id uint) (*ReleaseResult, error) {
	start := s.now()
	var res *ReleaseResult

	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		req, err := tx.PMRequests().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if req.PosterID != actor.UserID && !actor.IsTopLevelAdmin() {
			return apperrors.ErrNotJobPoster
		}

		if req.Status == models.PMStatusReleased || req.Status == models.PMStatusClosed {
			res = &ReleaseResult{Request: req, Amounts: storedAmounts(req), Idempotent: true}
			return nil
		}
		if err := ValidateTransition(req.Status, models.PMStatusReleased); err != nil {
			return err
		}
		if req.ReceiptTotalCents == nil || req.ApprovedTotalCents == nil {
			return apperrors.Validation("RELEASE_INPUTS_MISSING", "request has no verified receipt total or approved budget")
		}

		job, err := tx.Jobs().GetForUpdate(ctx, req.JobID)
		if err != nil {
			return err
		}
		disputes, err := tx.Disputes().ListByJob(ctx, job.ID)
		if err != nil {
			return err
		}
		if release.IsReleaseBlocked(job, disputes) {
			return apperrors.ErrReleaseFrozen
		}

		amounts, err := release.ComputeReleaseAmounts(*req.ReceiptTotalCents, *req.ApprovedTotalCents)
		if err != nil {
			return err
		}

		var entries []models.LedgerEntry
		if amounts.ReleaseCents > 0 {
			entries = append(entries, models.DoubleEntry(job.ID, &req.ID, models.LedgerTypePMRelease,
				models.BucketEscrow, models.BucketContractorPayable, amounts.ReleaseCents, req.Currency,
				fmt.Sprintf("pm request %d materials release", req.ID))...)
		}
		if amounts.RemainderCents > 0 {
			entries = append(entries, models.DoubleEntry(job.ID, &req.ID, models.LedgerTypePMRemainder,
				models.BucketEscrow, models.BucketPosterRefund, amounts.RemainderCents, req.Currency,
				fmt.Sprintf("pm request %d unused budget", req.ID))...)
		}
		if err := tx.Ledger().Append(ctx, entries...); err != nil {
			return err
		}

		var transfer *models.TransferRecord
		if amounts.ReleaseCents > 0 {
			transfer = &models.TransferRecord{
				JobID:       &job.ID,
				PMRequestID: &req.ID,
				Role:        models.TransferRolePMRelease,
				Status:      models.TransferStatusPending,
				AmountCents: amounts.ReleaseCents,
				Currency:    req.Currency,
				Method:      s.processor.Method(),
			}
			if err := tx.Transfers().Create(ctx, transfer); err != nil {
				return err
			}
		}

		now := s.now()
		req.ReleaseAmountCents = &amounts.ReleaseCents
		req.RemainderCents = &amounts.RemainderCents
		req.ReleasedAt = &now
		if err := s.commit(ctx, tx, actor, req, models.PMStatusVerified, models.PMStatusReleased); err != nil {
			return err
		}
		req.ClosedAt = &now
		if err := s.commit(ctx, tx, actor, req, models.PMStatusReleased, models.PMStatusClosed); err != nil {
			return err
		}

		res = &ReleaseResult{Request: req, Amounts: amounts, Transfer: transfer}
		return nil
	})
	if err != nil {
		s.metrics.RecordOperationResult("pm_release", string(apperrors.KindOf(err)))
		return nil, err
	}
	if res.Idempotent {
		s.metrics.RecordOperationResult("pm_release", "idempotent")
		return res, nil
	}

	s.metrics.RecordMoneyMovement("pm_release", res.Request.Currency, res.Amounts.ReleaseCents)
	s.metrics.RecordMoneyMovement("pm_remainder", res.Request.Currency, res.Amounts.RemainderCents)
	log.Printf("pm request %d released %d %s (remainder %d)", id, res.Amounts.ReleaseCents, res.Request.Currency, res.Amounts.RemainderCents)

	s.capture(ctx, res)
	s.metrics.RecordOperationDuration("pm_release", s.now().Sub(start))
	s.metrics.RecordOperationResult("pm_release", "ok")
	return res, nil
}

// capture settles the hold for the released amount and records the
// outcome on the transfer leg. A failed capture leaves the leg FAILED for
// manual follow-up; the release itself stays committed.
func (s *Service) capture(ctx context.Context, res *ReleaseResult) {
	req := res.Request
	if req.PaymentRef == nil {
		return
	}

	outcome, err := s.processor.Capture(ctx, *req.PaymentRef, res.Amounts.ReleaseCents, fmt.Sprintf("pm-request-%d-capture", req.ID))
	if res.Transfer == nil {
		if err != nil {
			log.Printf("pm request %d: releasing unused hold failed: %v", req.ID, err)
		}
		return
	}

	transfer := res.Transfer
	if err != nil {
		log.Printf("pm request %d: capture of %d failed: %v", req.ID, res.Amounts.ReleaseCents, err)
		transfer.Status = models.TransferStatusFailed
	} else {
		transfer.Status = models.TransferStatusSucceeded
		transfer.ExternalRef = &outcome.Ref
	}
	if err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		return tx.Transfers().Save(ctx, transfer)
	}); err != nil {
		log.Printf("pm request %d: failed to record capture outcome on transfer %d: %v", req.ID, transfer.ID, err)
	}
}

func storedAmounts(req *models.PMRequest) release.Amounts {
	var a release.Amounts
	if req.ReleaseAmountCents != nil {
		a.ReleaseCents = *req.ReleaseAmountCents
	}
	if req.RemainderCents != nil {
		a.RemainderCents = *req.RemainderCents
	}
	return a
}

type actorRole int

const (
	roleAny actorRole = iota
	roleContractor
	rolePoster
)

func checkRole(actor models.Actor, req *models.PMRequest, role actorRole) error {
	switch role {
	case roleContractor:
		if req.ContractorID != actor.UserID {
			return apperrors.ErrNotJobContractor
		}
	case rolePoster:
		if req.PosterID != actor.UserID {
			return apperrors.ErrNotJobPoster
		}
	}
	return nil
}

// simpleTransition locks the request, checks the actor, applies mutate and
// commits the move to target.
func (s *Service) simpleTransition(ctx context.Context, actor models.Actor, id uint, target models.PMStatus, role actorRole, mutate func(*models.PMRequest) error) (*Result, error) {
	var res *Result
	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		req, err := tx.PMRequests().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := checkRole(actor, req, role); err != nil {
			return err
		}
		from := req.Status
		if err := ValidateTransition(from, target); err != nil {
			return err
		}
		if mutate != nil {
			if err := mutate(req); err != nil {
				return err
			}
		}
		if err := s.commit(ctx, tx, actor, req, from, target); err != nil {
			return err
		}
		res = &Result{Request: req}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// commit writes req with status to, guarded on from, and records the audit
// row. Zero rows affected means a concurrent writer got there first.
func (s *Service) commit(ctx context.Context, tx repositories.Store, actor models.Actor, req *models.PMRequest, from, to models.PMStatus) error {
	req.Status = to
	n, err := tx.PMRequests().SaveIfStatus(ctx, req, from)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.ErrStatusChanged.WithMessage("request %d is no longer %s", req.ID, from)
	}
	if err := s.writeAudit(ctx, tx, actor, req, from, to); err != nil {
		return err
	}
	s.metrics.RecordTransition("pm_request", string(from), string(to))
	return nil
}

func (s *Service) writeAudit(ctx context.Context, tx repositories.Store, actor models.Actor, req *models.PMRequest, from, to models.PMStatus) error {
	amounts := datatypes.JSONMap{
		"auto_total_cents": req.AutoTotalCents,
		"currency":         req.Currency,
	}
	putCents(amounts, "manual_total_cents", req.ManualTotalCents)
	putCents(amounts, "approved_total_cents", req.ApprovedTotalCents)
	putCents(amounts, "proposed_budget_cents", req.ProposedBudgetCents)
	putCents(amounts, "receipt_total_cents", req.ReceiptTotalCents)
	putCents(amounts, "release_amount_cents", req.ReleaseAmountCents)
	putCents(amounts, "remainder_cents", req.RemainderCents)

	return tx.PMRequests().CreateAudit(ctx, &models.PMRequestAudit{
		PMRequestID: req.ID,
		ActorID:     actor.UserID,
		ActorRole:   actor.Role,
		FromStatus:  from,
		ToStatus:    to,
		Amounts:     amounts,
	})
}

func putCents(m datatypes.JSONMap, key string, v *int64) {
	if v != nil {
		m[key] = *v
	}
}
