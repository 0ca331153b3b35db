// Package memory is an in-process repositories.Store. Transactions run on
// a copy of the state that replaces the committed state only when the
// callback succeeds, so a failed unit of work leaves nothing behind.
// Service tests and local sandbox runs use it in place of postgres.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"crewpay/internal/models"
	"crewpay/internal/repositories"
)

var ErrReadOnly = errors.New("write attempted in read-only transaction")

type state struct {
	nextID     uint
	writes     int
	pmRequests map[uint]models.PMRequest
	lineItems  map[uint]models.PMLineItem
	receipts   map[uint]models.PMReceipt
	audits     []models.PMRequestAudit
	jobs       map[uint]models.Job
	disputes   map[uint]models.DisputeCase
	votes      []models.DisputeVote
	ledger     []models.LedgerEntry
	transfers  map[uint]models.TransferRecord
}

func newState() *state {
	return &state{
		pmRequests: map[uint]models.PMRequest{},
		lineItems:  map[uint]models.PMLineItem{},
		receipts:   map[uint]models.PMReceipt{},
		jobs:       map[uint]models.Job{},
		disputes:   map[uint]models.DisputeCase{},
		transfers:  map[uint]models.TransferRecord{},
	}
}

func (s *state) clone() *state {
	c := &state{
		nextID:     s.nextID,
		writes:     s.writes,
		pmRequests: make(map[uint]models.PMRequest, len(s.pmRequests)),
		lineItems:  make(map[uint]models.PMLineItem, len(s.lineItems)),
		receipts:   make(map[uint]models.PMReceipt, len(s.receipts)),
		audits:     append([]models.PMRequestAudit(nil), s.audits...),
		jobs:       make(map[uint]models.Job, len(s.jobs)),
		disputes:   make(map[uint]models.DisputeCase, len(s.disputes)),
		votes:      append([]models.DisputeVote(nil), s.votes...),
		ledger:     append([]models.LedgerEntry(nil), s.ledger...),
		transfers:  make(map[uint]models.TransferRecord, len(s.transfers)),
	}
	for k, v := range s.pmRequests {
		c.pmRequests[k] = v
	}
	for k, v := range s.lineItems {
		c.lineItems[k] = v
	}
	for k, v := range s.receipts {
		c.receipts[k] = v
	}
	for k, v := range s.jobs {
		c.jobs[k] = v
	}
	for k, v := range s.disputes {
		c.disputes[k] = v
	}
	for k, v := range s.transfers {
		c.transfers[k] = v
	}
	return c
}

func (s *state) id() uint {
	s.nextID++
	return s.nextID
}

// Store implements repositories.Store.
type Store struct {
	mu       *sync.Mutex
	root     *Store
	st       *state
	inTx     bool
	readOnly bool

	// Clock stamps CreatedAt/UpdatedAt; tests pin it.
	Clock func() time.Time
}

func NewStore() *Store {
	s := &Store{mu: &sync.Mutex{}, st: newState(), Clock: time.Now}
	s.root = s
	return s
}

func (s *Store) PMRequests() repositories.PMRequestRepository { return pmRequests{s} }
func (s *Store) Jobs() repositories.JobRepository             { return jobs{s} }
func (s *Store) Disputes() repositories.DisputeRepository     { return disputes{s} }
func (s *Store) Ledger() repositories.LedgerRepository        { return ledger{s} }
func (s *Store) Transfers() repositories.TransferRepository   { return transfers{s} }

func (s *Store) ExecuteInTransaction(ctx context.Context, fn func(repositories.Store) error) error {
	return s.runTx(fn, false)
}

func (s *Store) ExecuteReadOnly(ctx context.Context, fn func(repositories.Store) error) error {
	return s.runTx(fn, true)
}

func (s *Store) runTx(fn func(repositories.Store) error, readOnly bool) error {
	if s.inTx {
		if readOnly && !s.readOnly {
			return fn(&Store{mu: s.mu, root: s.root, st: s.st, inTx: true, readOnly: true, Clock: s.Clock})
		}
		return fn(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.root.st.clone()
	tx := &Store{mu: s.mu, root: s.root, st: snapshot, inTx: true, readOnly: readOnly, Clock: s.Clock}
	if err := fn(tx); err != nil {
		return err
	}
	if !readOnly {
		s.root.st = snapshot
	}
	return nil
}

func (s *Store) read(fn func(st *state) error) error {
	if s.inTx {
		return fn(s.st)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.root.st)
}

func (s *Store) write(fn func(st *state) error) error {
	if s.readOnly {
		return ErrReadOnly
	}
	return s.read(func(st *state) error {
		if err := fn(st); err != nil {
			return err
		}
		st.writes++
		return nil
	})
}

func (s *Store) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock()
}

// Writes counts committed mutating calls.
func (s *Store) Writes() int {
	n := 0
	_ = s.read(func(st *state) error {
		n = st.writes
		return nil
	})
	return n
}

type pmRequests struct{ s *Store }

func (r pmRequests) Create(ctx context.Context, req *models.PMRequest) error {
	return r.s.write(func(st *state) error {
		req.ID = st.id()
		now := r.s.now()
		req.CreatedAt, req.UpdatedAt = now, now
		for i := range req.LineItems {
			item := &req.LineItems[i]
			item.ID = st.id()
			item.PMRequestID = req.ID
			item.CreatedAt = now
			st.lineItems[item.ID] = *item
		}
		stored := *req
		stored.LineItems, stored.Receipts = nil, nil
		st.pmRequests[req.ID] = stored
		return nil
	})
}

func (r pmRequests) GetByID(ctx context.Context, id uint) (*models.PMRequest, error) {
	var out *models.PMRequest
	err := r.s.read(func(st *state) error {
		req, ok := st.pmRequests[id]
		if !ok {
			return repositories.ErrPMRequestNotFound
		}
		for _, item := range st.lineItems {
			if item.PMRequestID == id {
				req.LineItems = append(req.LineItems, item)
			}
		}
		sort.Slice(req.LineItems, func(i, j int) bool {
			if req.LineItems[i].Position != req.LineItems[j].Position {
				return req.LineItems[i].Position < req.LineItems[j].Position
			}
			return req.LineItems[i].ID < req.LineItems[j].ID
		})
		for _, rc := range st.receipts {
			if rc.PMRequestID == id {
				req.Receipts = append(req.Receipts, rc)
			}
		}
		sort.Slice(req.Receipts, func(i, j int) bool { return req.Receipts[i].ID < req.Receipts[j].ID })
		out = &req
		return nil
	})
	return out, err
}

func (r pmRequests) GetForUpdate(ctx context.Context, id uint) (*models.PMRequest, error) {
	return r.GetByID(ctx, id)
}

func (r pmRequests) Save(ctx context.Context, req *models.PMRequest) error {
	return r.s.write(func(st *state) error {
		if _, ok := st.pmRequests[req.ID]; !ok {
			return repositories.ErrPMRequestNotFound
		}
		req.UpdatedAt = r.s.now()
		stored := *req
		stored.LineItems, stored.Receipts = nil, nil
		st.pmRequests[req.ID] = stored
		return nil
	})
}

func (r pmRequests) SaveIfStatus(ctx context.Context, req *models.PMRequest, expected models.PMStatus) (int64, error) {
	var n int64
	err := r.s.write(func(st *state) error {
		current, ok := st.pmRequests[req.ID]
		if !ok || current.Status != expected {
			return nil
		}
		req.UpdatedAt = r.s.now()
		stored := *req
		stored.LineItems, stored.Receipts = nil, nil
		stored.CreatedAt = current.CreatedAt
		st.pmRequests[req.ID] = stored
		n = 1
		return nil
	})
	return n, err
}

func (r pmRequests) AddLineItem(ctx context.Context, item *models.PMLineItem) error {
	return r.s.write(func(st *state) error {
		if _, ok := st.pmRequests[item.PMRequestID]; !ok {
			return repositories.ErrPMRequestNotFound
		}
		item.ID = st.id()
		item.CreatedAt = r.s.now()
		st.lineItems[item.ID] = *item
		return nil
	})
}

func (r pmRequests) AddReceipt(ctx context.Context, receipt *models.PMReceipt) error {
	return r.s.write(func(st *state) error {
		if _, ok := st.pmRequests[receipt.PMRequestID]; !ok {
			return repositories.ErrPMRequestNotFound
		}
		receipt.ID = st.id()
		receipt.CreatedAt = r.s.now()
		st.receipts[receipt.ID] = *receipt
		return nil
	})
}

func (r pmRequests) SaveReceipt(ctx context.Context, receipt *models.PMReceipt) error {
	return r.s.write(func(st *state) error {
		if _, ok := st.receipts[receipt.ID]; !ok {
			return repositories.ErrReceiptNotFound
		}
		st.receipts[receipt.ID] = *receipt
		return nil
	})
}

func (r pmRequests) CreateAudit(ctx context.Context, audit *models.PMRequestAudit) error {
	return r.s.write(func(st *state) error {
		audit.ID = st.id()
		audit.CreatedAt = r.s.now()
		st.audits = append(st.audits, *audit)
		return nil
	})
}

func (r pmRequests) ListAudits(ctx context.Context, pmRequestID uint) ([]models.PMRequestAudit, error) {
	var out []models.PMRequestAudit
	err := r.s.read(func(st *state) error {
		for _, a := range st.audits {
			if a.PMRequestID == pmRequestID {
				out = append(out, a)
			}
		}
		return nil
	})
	return out, err
}

type jobs struct{ s *Store }

func (r jobs) Create(ctx context.Context, job *models.Job) error {
	return r.s.write(func(st *state) error {
		if job.ID == 0 {
			job.ID = st.id()
		} else if job.ID > st.nextID {
			st.nextID = job.ID
		}
		now := r.s.now()
		if job.CreatedAt.IsZero() {
			job.CreatedAt = now
		}
		job.UpdatedAt = now
		st.jobs[job.ID] = *job
		return nil
	})
}

func (r jobs) GetByID(ctx context.Context, id uint) (*models.Job, error) {
	var out *models.Job
	err := r.s.read(func(st *state) error {
		job, ok := st.jobs[id]
		if !ok {
			return repositories.ErrJobNotFound
		}
		out = &job
		return nil
	})
	return out, err
}

func (r jobs) GetForUpdate(ctx context.Context, id uint) (*models.Job, error) {
	return r.GetByID(ctx, id)
}

func (r jobs) Save(ctx context.Context, job *models.Job) error {
	return r.s.write(func(st *state) error {
		if _, ok := st.jobs[job.ID]; !ok {
			return repositories.ErrJobNotFound
		}
		job.UpdatedAt = r.s.now()
		st.jobs[job.ID] = *job
		return nil
	})
}

func (r jobs) ListReleased(ctx context.Context, take int) ([]models.Job, error) {
	var out []models.Job
	err := r.s.read(func(st *state) error {
		for _, job := range st.jobs {
			if job.PayoutStatus == models.PayoutStatusReleased {
				out = append(out, job)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].ReleasedAt, out[j].ReleasedAt
		switch {
		case a != nil && b != nil && !a.Equal(*b):
			return a.After(*b)
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return out[i].ID > out[j].ID
	})
	if take > 0 && len(out) > take {
		out = out[:take]
	}
	return out, err
}

type disputes struct{ s *Store }

func (r disputes) Create(ctx context.Context, d *models.DisputeCase) error {
	return r.s.write(func(st *state) error {
		d.ID = st.id()
		now := r.s.now()
		d.CreatedAt, d.UpdatedAt = now, now
		stored := *d
		stored.Votes = nil
		st.disputes[d.ID] = stored
		return nil
	})
}

func (r disputes) GetByID(ctx context.Context, id uint) (*models.DisputeCase, error) {
	d, err := r.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Votes, err = r.ListVotes(ctx, id); err != nil {
		return nil, err
	}
	return d, nil
}

func (r disputes) GetForUpdate(ctx context.Context, id uint) (*models.DisputeCase, error) {
	var out *models.DisputeCase
	err := r.s.read(func(st *state) error {
		d, ok := st.disputes[id]
		if !ok {
			return repositories.ErrDisputeNotFound
		}
		out = &d
		return nil
	})
	return out, err
}

func (r disputes) ListByJob(ctx context.Context, jobID uint) ([]models.DisputeCase, error) {
	return r.ListByJobIDs(ctx, []uint{jobID})
}

func (r disputes) ListByJobIDs(ctx context.Context, jobIDs []uint) ([]models.DisputeCase, error) {
	want := make(map[uint]bool, len(jobIDs))
	for _, id := range jobIDs {
		want[id] = true
	}
	var out []models.DisputeCase
	err := r.s.read(func(st *state) error {
		for _, d := range st.disputes {
			if want[d.JobID] {
				out = append(out, d)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r disputes) SaveIfStatus(ctx context.Context, d *models.DisputeCase, expected string) (int64, error) {
	var n int64
	err := r.s.write(func(st *state) error {
		current, ok := st.disputes[d.ID]
		if !ok || current.Status != expected {
			return nil
		}
		d.UpdatedAt = r.s.now()
		stored := *d
		stored.Votes = nil
		st.disputes[d.ID] = stored
		n = 1
		return nil
	})
	return n, err
}

func (r disputes) ListVotes(ctx context.Context, disputeID uint) ([]models.DisputeVote, error) {
	var out []models.DisputeVote
	err := r.s.read(func(st *state) error {
		for _, v := range st.votes {
			if v.DisputeID == disputeID {
				out = append(out, v)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

func (r disputes) CreateVote(ctx context.Context, v *models.DisputeVote) error {
	if !v.Validate() {
		return repositories.ErrInvalidVoteRow
	}
	return r.s.write(func(st *state) error {
		if v.VoterType == models.VoterTypeAIAdvisory && v.Status == models.VoteStatusActive {
			for _, existing := range st.votes {
				if existing.DisputeID == v.DisputeID && existing.VoterType == models.VoterTypeAIAdvisory &&
					existing.Status == models.VoteStatusActive {
					return repositories.ErrDuplicateActiveAI
				}
			}
		}
		v.ID = st.id()
		if v.CreatedAt.IsZero() {
			v.CreatedAt = r.s.now()
		}
		st.votes = append(st.votes, *v)
		return nil
	})
}

func (r disputes) SupersedeActiveAIVotes(ctx context.Context, disputeID uint) (int64, error) {
	var n int64
	err := r.s.write(func(st *state) error {
		for i := range st.votes {
			v := &st.votes[i]
			if v.DisputeID == disputeID && v.VoterType == models.VoterTypeAIAdvisory && v.Status == models.VoteStatusActive {
				v.Status = models.VoteStatusSuperseded
				n++
			}
		}
		return nil
	})
	return n, err
}

type ledger struct{ s *Store }

func (r ledger) Append(ctx context.Context, entries ...models.LedgerEntry) error {
	for i := range entries {
		if !entries[i].Validate() {
			return repositories.ErrInvalidLedgerRow
		}
	}
	if len(entries) == 0 {
		return nil
	}
	return r.s.write(func(st *state) error {
		now := r.s.now()
		for _, e := range entries {
			e.ID = st.id()
			if e.EntryRef == "" {
				_ = e.BeforeCreate(nil)
			}
			e.CreatedAt = now
			st.ledger = append(st.ledger, e)
		}
		return nil
	})
}

func (r ledger) ListByJob(ctx context.Context, jobID uint) ([]models.LedgerEntry, error) {
	return r.ListByJobIDs(ctx, []uint{jobID})
}

func (r ledger) ListByJobIDs(ctx context.Context, jobIDs []uint) ([]models.LedgerEntry, error) {
	want := make(map[uint]bool, len(jobIDs))
	for _, id := range jobIDs {
		want[id] = true
	}
	var out []models.LedgerEntry
	err := r.s.read(func(st *state) error {
		for _, e := range st.ledger {
			if want[e.JobID] {
				out = append(out, e)
			}
		}
		return nil
	})
	return out, err
}

func (r ledger) ListByPMRequest(ctx context.Context, pmRequestID uint) ([]models.LedgerEntry, error) {
	var out []models.LedgerEntry
	err := r.s.read(func(st *state) error {
		for _, e := range st.ledger {
			if e.PMRequestID != nil && *e.PMRequestID == pmRequestID {
				out = append(out, e)
			}
		}
		return nil
	})
	return out, err
}

type transfers struct{ s *Store }

func (r transfers) Create(ctx context.Context, t *models.TransferRecord) error {
	return r.s.write(func(st *state) error {
		t.ID = st.id()
		now := r.s.now()
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		t.UpdatedAt = now
		st.transfers[t.ID] = *t
		return nil
	})
}

func (r transfers) GetByID(ctx context.Context, id uint) (*models.TransferRecord, error) {
	var out *models.TransferRecord
	err := r.s.read(func(st *state) error {
		t, ok := st.transfers[id]
		if !ok {
			return repositories.ErrTransferNotFound
		}
		out = &t
		return nil
	})
	return out, err
}

func (r transfers) Save(ctx context.Context, t *models.TransferRecord) error {
	return r.s.write(func(st *state) error {
		if _, ok := st.transfers[t.ID]; !ok {
			return repositories.ErrTransferNotFound
		}
		t.UpdatedAt = r.s.now()
		st.transfers[t.ID] = *t
		return nil
	})
}

func (r transfers) ListByJobIDs(ctx context.Context, jobIDs []uint) ([]models.TransferRecord, error) {
	want := make(map[uint]bool, len(jobIDs))
	for _, id := range jobIDs {
		want[id] = true
	}
	var out []models.TransferRecord
	err := r.s.read(func(st *state) error {
		for _, t := range st.transfers {
			if t.JobID != nil && want[*t.JobID] {
				out = append(out, t)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r transfers) ListUnowned(ctx context.Context, olderThan time.Time, take int) ([]models.TransferRecord, error) {
	var out []models.TransferRecord
	err := r.s.read(func(st *state) error {
		for _, t := range st.transfers {
			if !t.CreatedAt.Before(olderThan) {
				continue
			}
			if t.JobID != nil {
				if _, ok := st.jobs[*t.JobID]; ok {
					continue
				}
			}
			out = append(out, t)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if take > 0 && len(out) > take {
		out = out[:take]
	}
	return out, err
}
