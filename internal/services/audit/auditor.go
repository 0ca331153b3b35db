// Package audit reconciles released jobs against the ledger and transfer
// legs and reports discrepancies. It only reads.
package audit

import (
	"context"
	"fmt"
	"log"
	"time"

	apperrors "crewpay/internal/errors"
	"crewpay/internal/metrics"
	"crewpay/internal/models"
	"crewpay/internal/repositories"

	"github.com/google/uuid"
)

const (
	DefaultTake       = 200
	MaxTake           = 1000
	DefaultOrphanDays = 7
)

type Options struct {
	Take       int `json:"take"`
	OrphanDays int `json:"orphan_days"`
	// Fresh drops any cached report for these options and recomputes.
	Fresh bool `json:"-"`
}

// Normalize applies defaults and bounds.
func (o Options) Normalize() Options {
	if o.Take <= 0 {
		o.Take = DefaultTake
	}
	if o.Take > MaxTake {
		o.Take = MaxTake
	}
	if o.OrphanDays <= 0 {
		o.OrphanDays = DefaultOrphanDays
	}
	return o
}

// ReportCache is satisfied by cache.CacheService. Entries live for the
// cache's default TTL.
type ReportCache interface {
	GenerateKey(entityType, keyType string, value interface{}) string
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, keys ...string) error
}

type Auditor struct {
	store    repositories.Store
	fees     models.FeeSchedule
	rules    []Rule
	metrics  metrics.Collector
	cache    ReportCache
	now      func() time.Time
}

type Option func(*Auditor)

// WithCache serves repeat runs with identical options from c.
func WithCache(c ReportCache) Option {
	return func(a *Auditor) { a.cache = c }
}

// WithRules adds rules after the default catalog.
func WithRules(rules ...Rule) Option {
	return func(a *Auditor) { a.rules = append(a.rules, rules...) }
}

func WithClock(now func() time.Time) Option {
	return func(a *Auditor) { a.now = now }
}

func NewAuditor(store repositories.Store, fees models.FeeSchedule, collector metrics.Collector, opts ...Option) *Auditor {
	if collector == nil {
		collector = metrics.NoopCollector{}
	}
	a := &Auditor{
		store:   store,
		fees:    fees,
		rules:   DefaultRules(),
		metrics: collector,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run audits up to opts.Take of the most recently released jobs plus
// transfers orphaned for longer than opts.OrphanDays.
func (a *Auditor) Run(ctx context.Context, actor models.Actor, opts Options) (*Report, error) {
	if !actor.IsTopLevelAdmin() && actor.Role != models.RoleSystem {
		return nil, apperrors.ErrAdminRequired
	}
	opts = opts.Normalize()
	start := a.now()

	var key string
	if a.cache != nil {
		key = a.cache.GenerateKey("audit", "report", fmt.Sprintf("%d:%d", opts.Take, opts.OrphanDays))
		if cached, ok := a.cached(ctx, key, opts.Fresh); ok {
			return cached, nil
		}
	}

	snap, err := a.snapshot(ctx, opts, start)
	if err != nil {
		a.metrics.RecordOperationResult("audit", "error")
		return nil, err
	}

	violations := []Violation{}
	for _, rule := range a.rules {
		violations = append(violations, rule.Check(snap)...)
	}
	SortViolations(violations)

	summary, byJob := summarize(violations)
	summary.JobsScanned = len(snap.Jobs)
	for _, legs := range snap.Transfers {
		summary.TransfersScanned += len(legs)
	}
	summary.TransfersScanned += len(snap.Orphans)

	report := &Report{
		RunID:       uuid.NewString(),
		GeneratedAt: start,
		Options:     opts,
		Violations:  violations,
		Summary:     summary,
		ByJob:       byJob,
	}

	for _, sev := range Severities {
		a.metrics.RecordViolations(string(sev), summary.BySeverity[sev])
	}
	a.metrics.RecordOperationDuration("audit", a.now().Sub(start))
	a.metrics.RecordOperationResult("audit", "ok")
	log.Printf("audit %s: %d jobs, %d violations (%d critical)", report.RunID, summary.JobsScanned, summary.Total, summary.BySeverity[SeverityCritical])

	if a.cache != nil {
		if err := a.cache.Set(ctx, key, report); err != nil {
			log.Printf("audit cache write failed: %v", err)
		}
	}
	return report, nil
}

// cached returns the stored report for key. A fresh run drops the entry
// instead of reading it.
func (a *Auditor) cached(ctx context.Context, key string, fresh bool) (*Report, bool) {
	if fresh {
		if err := a.cache.Delete(ctx, key); err != nil {
			log.Printf("audit cache invalidate failed: %v", err)
		}
		return nil, false
	}
	var report Report
	found, err := a.cache.Get(ctx, key, &report)
	switch {
	case err != nil:
		log.Printf("audit cache read failed: %v", err)
		return nil, false
	case found:
		a.metrics.RecordCacheHit("audit_report")
		return &report, true
	default:
		a.metrics.RecordCacheMiss("audit_report")
		return nil, false
	}
}

func (a *Auditor) snapshot(ctx context.Context, opts Options, now time.Time) (*Snapshot, error) {
	snap := &Snapshot{Fees: a.fees, Now: now}
	err := a.store.ExecuteReadOnly(ctx, func(tx repositories.Store) error {
		jobs, err := tx.Jobs().ListReleased(ctx, opts.Take)
		if err != nil {
			return fmt.Errorf("failed to list released jobs: %w", err)
		}
		snap.Jobs = jobs

		ids := make([]uint, 0, len(jobs))
		for _, job := range jobs {
			ids = append(ids, job.ID)
		}

		entries, err := tx.Ledger().ListByJobIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("failed to load ledger: %w", err)
		}
		snap.Ledger = make(map[uint][]models.LedgerEntry)
		for _, e := range entries {
			snap.Ledger[e.JobID] = append(snap.Ledger[e.JobID], e)
		}

		transfers, err := tx.Transfers().ListByJobIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("failed to load transfers: %w", err)
		}
		snap.Transfers = make(map[uint][]models.TransferRecord)
		for _, t := range transfers {
			snap.Transfers[*t.JobID] = append(snap.Transfers[*t.JobID], t)
		}

		disputes, err := tx.Disputes().ListByJobIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("failed to load disputes: %w", err)
		}
		snap.Disputes = make(map[uint][]models.DisputeCase)
		for _, d := range disputes {
			snap.Disputes[d.JobID] = append(snap.Disputes[d.JobID], d)
		}

		cutoff := now.Add(-time.Duration(opts.OrphanDays) * 24 * time.Hour)
		if snap.Orphans, err = tx.Transfers().ListUnowned(ctx, cutoff, opts.Take); err != nil {
			return fmt.Errorf("failed to list orphan transfers: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}
