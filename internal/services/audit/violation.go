package audit

import (
	"sort"
	"time"
)

type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityWarn     Severity = "WARN"
)

var severityRank = map[Severity]int{
	SeverityCritical: 0,
	SeverityHigh:     1,
	SeverityWarn:     2,
}

// Severities in reporting order.
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityWarn}

const (
	CodeLedgerMissing            = "LEDGER_MISSING"
	CodeLedgerImbalanced         = "LEDGER_IMBALANCED"
	CodeReleasedWhileFrozen      = "RELEASED_WHILE_FROZEN"
	CodeTransferAmountMismatch   = "TRANSFER_AMOUNT_MISMATCH"
	CodePayoutLegMissing         = "PAYOUT_LEG_MISSING"
	CodeEscrowStillHeld          = "ESCROW_STILL_HELD"
	CodeTransferCurrencyMismatch = "TRANSFER_CURRENCY_MISMATCH"
	CodeOrphanTransfer           = "ORPHAN_TRANSFER"
)

// Violation is a finding, never an error. The auditor reports it and a
// person decides what to do.
type Violation struct {
	Severity         Severity               `json:"severity"`
	Code             string                 `json:"code"`
	JobID            *uint                  `json:"job_id,omitempty"`
	TransferRecordID *uint                  `json:"transfer_record_id,omitempty"`
	Message          string                 `json:"message"`
	SuggestedAction  string                 `json:"suggested_action"`
	Details          map[string]interface{} `json:"details,omitempty"`
}

type Summary struct {
	Total            int              `json:"total"`
	BySeverity       map[Severity]int `json:"by_severity"`
	ByCode           map[string]int   `json:"by_code"`
	JobsScanned      int              `json:"jobs_scanned"`
	TransfersScanned int              `json:"transfers_scanned"`
}

type Report struct {
	RunID       string               `json:"run_id"`
	GeneratedAt time.Time            `json:"generated_at"`
	Options     Options              `json:"options"`
	Violations  []Violation          `json:"violations"`
	Summary     Summary              `json:"summary"`
	ByJob       map[uint][]Violation `json:"by_job"`
}

func idOrZero(id *uint) uint {
	if id == nil {
		return 0
	}
	return *id
}

// SortViolations orders by severity, code, job and transfer record so
// paging through a report is stable.
func SortViolations(vs []Violation) {
	sort.SliceStable(vs, func(i, j int) bool {
		a, b := vs[i], vs[j]
		if ra, rb := severityRank[a.Severity], severityRank[b.Severity]; ra != rb {
			return ra < rb
		}
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		if ja, jb := idOrZero(a.JobID), idOrZero(b.JobID); ja != jb {
			return ja < jb
		}
		return idOrZero(a.TransferRecordID) < idOrZero(b.TransferRecordID)
	})
}

func summarize(vs []Violation) (Summary, map[uint][]Violation) {
	summary := Summary{
		Total:      len(vs),
		BySeverity: make(map[Severity]int, len(Severities)),
		ByCode:     make(map[string]int),
	}
	for _, sev := range Severities {
		summary.BySeverity[sev] = 0
	}
	byJob := make(map[uint][]Violation)
	for _, v := range vs {
		summary.BySeverity[v.Severity]++
		summary.ByCode[v.Code]++
		if v.JobID != nil {
			byJob[*v.JobID] = append(byJob[*v.JobID], v)
		}
	}
	return summary, byJob
}
