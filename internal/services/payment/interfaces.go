package payment

import "context"

// Processor is the external payment collaborator. The escrow core only
// persists the opaque references it returns; calls are always made outside
// the database transaction that records their outcome.
type Processor interface {
	// Hold authorizes amountCents without capturing it.
	Hold(ctx context.Context, req HoldRequest) (*Result, error)
	// Capture settles up to the held amount; the rest returns to the payer.
	Capture(ctx context.Context, holdRef string, amountCents int64, idempotencyKey string) (*Result, error)
	// Void releases an authorization that was never captured.
	Void(ctx context.Context, holdRef string, idempotencyKey string) (*Result, error)
	// Refund returns captured funds to the payer. An uncaptured hold has
	// nothing to refund and must be voided instead.
	Refund(ctx context.Context, paymentRef string, amountCents int64, idempotencyKey string) (*Result, error)
	Method() string
}

type HoldRequest struct {
	AmountCents    int64
	Currency       string
	Description    string
	IdempotencyKey string
	Metadata       map[string]string
}

type Result struct {
	Ref         string `json:"ref"`
	Status      string `json:"status"`
	AmountCents int64  `json:"amount_cents"`
}
