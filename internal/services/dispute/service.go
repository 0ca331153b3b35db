package dispute

import (
	"context"
	"log"
	"strings"
	"time"

	apperrors "crewpay/internal/errors"
	"crewpay/internal/metrics"
	"crewpay/internal/models"
	"crewpay/internal/repositories"
	"crewpay/internal/services/release"
)

// DefaultReviewWindow is how long reviewers have before a dispute is
// considered overdue.
const DefaultReviewWindow = 14 * 24 * time.Hour

type EscalateInput struct {
	JobID       uint     `json:"job_id"`
	TicketID    uint     `json:"ticket_id"`
	Reason      string   `json:"reason"`
	Attachments []string `json:"attachments"`
}

type TransitionInput struct {
	Status   string  `json:"status"`
	Decision *string `json:"decision,omitempty"`
}

type Result struct {
	Dispute    *models.DisputeCase `json:"dispute"`
	Idempotent bool                `json:"idempotent"`
}

type Service struct {
	store        repositories.Store
	metrics      metrics.Collector
	reviewWindow time.Duration
	now          func() time.Time
}

func NewService(store repositories.Store, collector metrics.Collector) *Service {
	if collector == nil {
		collector = metrics.NoopCollector{}
	}
	return &Service{
		store:        store,
		metrics:      collector,
		reviewWindow: DefaultReviewWindow,
		now:          time.Now,
	}
}

// Escalate opens a dispute on a job and marks the job DISPUTED, which
// freezes every money movement on it until the dispute resolves.
func (s *Service) Escalate(ctx context.Context, actor models.Actor, in EscalateInput) (*models.DisputeCase, error) {
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, apperrors.Validation("REASON_REQUIRED", "a dispute needs a reason")
	}

	var out *models.DisputeCase
	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		job, err := tx.Jobs().GetForUpdate(ctx, in.JobID)
		if err != nil {
			return err
		}

		var respondent uint
		switch actor.UserID {
		case job.PosterID:
			respondent = job.ContractorID
		case job.ContractorID:
			respondent = job.PosterID
		default:
			return apperrors.Forbidden("NOT_A_PARTICIPANT", "only the job poster or contractor may open a dispute")
		}

		if job.Status == models.JobStatusCancelled || job.PaymentStatus == models.PaymentStatusRefunded {
			return apperrors.Conflict("JOB_NOT_DISPUTABLE", "job is cancelled or refunded")
		}
		existing, err := tx.Disputes().ListByJob(ctx, job.ID)
		if err != nil {
			return err
		}
		for _, d := range existing {
			if !release.IsDisputeResolved(d) {
				return apperrors.ErrDisputeAlreadyOpen
			}
		}

		deadline := s.now().Add(s.reviewWindow)
		out = &models.DisputeCase{
			JobID:        job.ID,
			TicketID:     in.TicketID,
			FiledByID:    actor.UserID,
			RespondentID: respondent,
			Reason:       reason,
			Status:       models.DisputeStatusSubmitted,
			Deadline:     &deadline,
			Attachments:  in.Attachments,
		}
		if err := tx.Disputes().Create(ctx, out); err != nil {
			return err
		}

		from := job.Status
		job.Status = models.JobStatusDisputed
		if err := tx.Jobs().Save(ctx, job); err != nil {
			return err
		}
		s.metrics.RecordTransition("job", from, job.Status)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("dispute %d opened on job %d by user %d", out.ID, out.JobID, actor.UserID)
	return out, nil
}

func (s *Service) Get(ctx context.Context, actor models.Actor, id uint) (*models.DisputeCase, error) {
	d, err := s.store.Disputes().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsReviewer() && actor.UserID != d.FiledByID && actor.UserID != d.RespondentID {
		return nil, apperrors.Forbidden("NOT_A_PARTICIPANT", "only dispute parties and reviewers may view it")
	}
	return d, nil
}

// CastVote appends a reviewer's vote. Repeat votes are recorded but only
// the voter's first one is counted by TallyVotes.
func (s *Service) CastVote(ctx context.Context, actor models.Actor, disputeID uint, vote, rationale string) (*models.DisputeVote, error) {
	if !actor.IsReviewer() {
		return nil, apperrors.ErrReviewerRequired
	}
	vote = strings.ToUpper(strings.TrimSpace(vote))
	if vote != models.VotePoster && vote != models.VoteContractor {
		return nil, apperrors.ErrInvalidVote
	}

	voterType := models.VoterTypeReviewer
	if actor.IsTopLevelAdmin() {
		voterType = models.VoterTypeAdmin
	}
	voterID := actor.UserID
	out := &models.DisputeVote{
		DisputeID: disputeID,
		VoterType: voterType,
		VoterID:   &voterID,
		Status:    models.VoteStatusActive,
		Vote:      vote,
		Rationale: rationale,
	}

	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		d, err := tx.Disputes().GetForUpdate(ctx, disputeID)
		if err != nil {
			return err
		}
		if release.IsDisputeResolved(*d) {
			return apperrors.Conflict("DISPUTE_RESOLVED", "votes are closed on a decided dispute")
		}
		return tx.Disputes().CreateVote(ctx, out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RecordAIOpinion replaces the dispute's advisory opinion: any ACTIVE one
// is superseded and the new one inserted in the same transaction.
func (s *Service) RecordAIOpinion(ctx context.Context, actor models.Actor, disputeID uint, vote, rationale string) (*models.DisputeVote, error) {
	if !actor.IsTopLevelAdmin() && actor.Role != models.RoleSystem {
		return nil, apperrors.ErrAdminRequired
	}
	vote = strings.ToUpper(strings.TrimSpace(vote))
	if vote != models.VotePoster && vote != models.VoteContractor {
		return nil, apperrors.ErrInvalidVote
	}

	out := &models.DisputeVote{
		DisputeID: disputeID,
		VoterType: models.VoterTypeAIAdvisory,
		Status:    models.VoteStatusActive,
		Vote:      vote,
		Rationale: rationale,
	}
	var superseded int64
	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		d, err := tx.Disputes().GetForUpdate(ctx, disputeID)
		if err != nil {
			return err
		}
		if release.IsDisputeResolved(*d) {
			return apperrors.Conflict("DISPUTE_RESOLVED", "votes are closed on a decided dispute")
		}
		if superseded, err = tx.Disputes().SupersedeActiveAIVotes(ctx, disputeID); err != nil {
			return err
		}
		return tx.Disputes().CreateVote(ctx, out)
	})
	if err != nil {
		return nil, err
	}
	if superseded > 0 {
		log.Printf("dispute %d: advisory opinion regenerated, %d superseded", disputeID, superseded)
	}
	return out, nil
}

func (s *Service) Tally(ctx context.Context, actor models.Actor, disputeID uint) (*Summary, error) {
	if !actor.IsReviewer() {
		return nil, apperrors.ErrReviewerRequired
	}
	d, err := s.store.Disputes().GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	summary := TallyVotes(d.Votes)
	summary.DisputeID = disputeID
	return &summary, nil
}

// Transition moves a dispute to in.Status. The write is conditioned on the
// raw status read under lock; a self-edge returns the dispute unchanged.
func (s *Service) Transition(ctx context.Context, actor models.Actor, id uint, in TransitionInput) (*Result, error) {
	target := strings.ToUpper(strings.TrimSpace(in.Status))

	var res *Result
	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		d, err := tx.Disputes().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := ValidateStatusTransition(actor, d.Status, target); err != nil {
			return err
		}
		if d.Status == target {
			res = &Result{Dispute: d, Idempotent: true}
			return nil
		}

		if target == models.DisputeStatusDecided {
			if in.Decision == nil {
				return apperrors.ErrInvalidDecision
			}
			decision := strings.ToUpper(strings.TrimSpace(*in.Decision))
			if decision != models.VotePoster && decision != models.VoteContractor {
				return apperrors.ErrInvalidDecision
			}
			now := s.now()
			decidedBy := actor.UserID
			d.Decision = &decision
			d.DecidedByID = &decidedBy
			d.DecidedAt = &now
		}

		from := d.Status
		d.Status = target
		n, err := tx.Disputes().SaveIfStatus(ctx, d, from)
		if err != nil {
			return err
		}
		if n == 0 {
			current, err := tx.Disputes().GetByID(ctx, id)
			if err != nil {
				return err
			}
			if current.Status == target {
				res = &Result{Dispute: current, Idempotent: true}
				return nil
			}
			return apperrors.ErrStatusChanged.WithMessage("dispute %d moved to %s concurrently", id, current.Status)
		}
		s.metrics.RecordTransition("dispute", from, target)
		res = &Result{Dispute: d}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !res.Idempotent {
		log.Printf("dispute %d moved to %s by user %d", id, target, actor.UserID)
	}
	return res, nil
}
