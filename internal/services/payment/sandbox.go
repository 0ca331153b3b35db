package payment

import (
	"context"
	"fmt"
	"sync"

	"crewpay/internal/models"

	"github.com/google/uuid"
)

// SandboxProcessor hands back generated references and follows the
// manual-capture lifecycle: a voided hold cannot be captured and only
// captured funds can be refunded. It is used when no processor key is
// configured and in tests.
type SandboxProcessor struct {
	mu       sync.Mutex
	Holds    map[string]int64
	Captures map[string]int64
	Refunds  map[string]int64
	Voids    map[string]bool

	// FailNext makes the next call return this error.
	FailNext error
}

func NewSandboxProcessor() *SandboxProcessor {
	return &SandboxProcessor{
		Holds:    map[string]int64{},
		Captures: map[string]int64{},
		Refunds:  map[string]int64{},
		Voids:    map[string]bool{},
	}
}

func (p *SandboxProcessor) Method() string { return models.TransferMethodSandbox }

func (p *SandboxProcessor) takeFailure() error {
	err := p.FailNext
	p.FailNext = nil
	return err
}

func (p *SandboxProcessor) Hold(ctx context.Context, req HoldRequest) (*Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.takeFailure(); err != nil {
		return nil, err
	}
	if req.AmountCents <= 0 {
		return nil, ErrInvalidAmount
	}
	ref := "sbx_hold_" + uuid.NewString()
	p.Holds[ref] = req.AmountCents
	return &Result{Ref: ref, Status: "requires_capture", AmountCents: req.AmountCents}, nil
}

func (p *SandboxProcessor) Capture(ctx context.Context, holdRef string, amountCents int64, idempotencyKey string) (*Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.takeFailure(); err != nil {
		return nil, err
	}
	if holdRef == "" {
		return nil, ErrMissingRef
	}
	if p.Voids[holdRef] {
		return nil, ErrHoldVoided
	}
	if amountCents == 0 {
		p.Voids[holdRef] = true
		return &Result{Ref: holdRef, Status: "canceled"}, nil
	}
	p.Captures[holdRef] += amountCents
	return &Result{Ref: holdRef, Status: "succeeded", AmountCents: amountCents}, nil
}

func (p *SandboxProcessor) Void(ctx context.Context, holdRef string, idempotencyKey string) (*Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.takeFailure(); err != nil {
		return nil, err
	}
	if holdRef == "" {
		return nil, ErrMissingRef
	}
	if p.Captures[holdRef] > 0 {
		return nil, fmt.Errorf("void %s: %w", holdRef, ErrHoldCaptured)
	}
	p.Voids[holdRef] = true
	return &Result{Ref: holdRef, Status: "canceled", AmountCents: p.Holds[holdRef]}, nil
}

func (p *SandboxProcessor) Refund(ctx context.Context, paymentRef string, amountCents int64, idempotencyKey string) (*Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.takeFailure(); err != nil {
		return nil, err
	}
	if paymentRef == "" {
		return nil, ErrMissingRef
	}
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}
	if p.Captures[paymentRef]-p.Refunds[paymentRef] < amountCents {
		return nil, fmt.Errorf("refund %s: %w", paymentRef, ErrNotCaptured)
	}
	p.Refunds[paymentRef] += amountCents
	return &Result{Ref: "sbx_refund_" + uuid.NewString(), Status: "succeeded", AmountCents: amountCents}, nil
}

// VoidedFor reports whether holdRef was released without capture.
func (p *SandboxProcessor) VoidedFor(holdRef string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Voids[holdRef]
}

// CapturedFor returns the total captured against holdRef.
func (p *SandboxProcessor) CapturedFor(holdRef string) int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Captures[holdRef]
}
