package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"crewpay/internal/models"

	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
)

var (
	ErrInvalidAmount = errors.New("amount must be greater than zero")
	ErrMissingRef    = errors.New("payment reference is required")
	ErrNotCaptured   = errors.New("payment has not been captured")
	ErrHoldVoided    = errors.New("authorization was already voided")
	ErrHoldCaptured  = errors.New("authorization was already captured")
)

type stripeProcessor struct {
	api *client.API
}

// NewStripeProcessor returns a Processor backed by manual-capture
// PaymentIntents.
func NewStripeProcessor(secretKey string) Processor {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &stripeProcessor{api: api}
}

func (p *stripeProcessor) Method() string { return models.TransferMethodStripe }

func (p *stripeProcessor) Hold(ctx context.Context, req HoldRequest) (*Result, error) {
	if req.AmountCents <= 0 {
		return nil, ErrInvalidAmount
	}

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(req.AmountCents),
		Currency:      stripe.String(strings.ToLower(req.Currency)),
		CaptureMethod: stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
		Description:   stripe.String(req.Description),
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe hold failed: %w", err)
	}
	return &Result{Ref: pi.ID, Status: string(pi.Status), AmountCents: pi.Amount}, nil
}

func (p *stripeProcessor) Capture(ctx context.Context, holdRef string, amountCents int64, idempotencyKey string) (*Result, error) {
	if holdRef == "" {
		return nil, ErrMissingRef
	}

	// Nothing to pay out: release the whole authorization.
	if amountCents == 0 {
		return p.Void(ctx, holdRef, idempotencyKey)
	}

	params := &stripe.PaymentIntentCaptureParams{
		AmountToCapture: stripe.Int64(amountCents),
	}
	params.Context = ctx
	if idempotencyKey != "" {
		params.SetIdempotencyKey(idempotencyKey)
	}
	pi, err := p.api.PaymentIntents.Capture(holdRef, params)
	if err != nil {
		return nil, fmt.Errorf("stripe capture failed: %w", err)
	}
	return &Result{Ref: pi.ID, Status: string(pi.Status), AmountCents: pi.AmountReceived}, nil
}

func (p *stripeProcessor) Void(ctx context.Context, holdRef string, idempotencyKey string) (*Result, error) {
	if holdRef == "" {
		return nil, ErrMissingRef
	}
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx
	if idempotencyKey != "" {
		params.SetIdempotencyKey(idempotencyKey)
	}
	pi, err := p.api.PaymentIntents.Cancel(holdRef, params)
	if err != nil {
		return nil, fmt.Errorf("stripe cancel failed: %w", err)
	}
	return &Result{Ref: pi.ID, Status: string(pi.Status), AmountCents: pi.Amount}, nil
}

func (p *stripeProcessor) Refund(ctx context.Context, paymentRef string, amountCents int64, idempotencyKey string) (*Result, error) {
	if paymentRef == "" {
		return nil, ErrMissingRef
	}
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentRef),
		Amount:        stripe.Int64(amountCents),
	}
	params.Context = ctx
	if idempotencyKey != "" {
		params.SetIdempotencyKey(idempotencyKey)
	}
	rf, err := p.api.Refunds.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe refund failed: %w", err)
	}
	return &Result{Ref: rf.ID, Status: string(rf.Status), AmountCents: rf.Amount}, nil
}
