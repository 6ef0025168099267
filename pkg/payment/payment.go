// Package payment abstracts the card payment provider behind a small gateway
// interface so services never talk to the provider SDK directly.
package payment

import (
	"context"
	"errors"
	"fmt"
)

// Event types the webhook pipeline reacts to.
const (
	EventIntentSucceeded = "payment_intent.succeeded"
	EventIntentFailed    = "payment_intent.payment_failed"
	EventChargeRefunded  = "charge.refunded"
)

var (
	// ErrDisabled is returned by the gateway used when no secret key is configured.
	ErrDisabled = errors.New("payment provider not configured")
	// ErrInvalidSignature means a webhook payload could not be authenticated.
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// Intent is the provider-neutral view of a payment intent.
type Intent struct {
	ID                 string
	ClientSecret       string
	Status             string
	Amount             int64
	Currency           string
	Metadata           map[string]string
	PaymentMethodTypes []string
	// FailureCode is the decline or error code of the last failed attempt.
	FailureCode string
}

// Charge is the subset of a charge object needed to reconcile refunds.
type Charge struct {
	ID              string
	PaymentIntentID string
	Amount          int64
	AmountRefunded  int64
	Refunded        bool
}

// Refund reports the outcome of a refund request.
type Refund struct {
	ID     string
	Status string
	Amount int64
}

// Event is a verified webhook event. Intent is set for payment_intent.*
// events, Charge for charge.* events.
type Event struct {
	ID     string
	Type   string
	Intent *Intent
	Charge *Charge
}

// CreateIntentParams describes a new payment intent. Amount is in minor units.
type CreateIntentParams struct {
	Amount      int64
	Currency    string
	Description string
	Metadata    map[string]string
}

// ProviderError carries the provider's rejection details. Code is the decline
// code when present, otherwise the provider error code.
type ProviderError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("payment provider error (%s): %s", e.Code, e.Message)
	}
	return fmt.Sprintf("payment provider error: %s", e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Gateway is implemented by the provider client and its disabled stand-in.
type Gateway interface {
	CreateIntent(ctx context.Context, params CreateIntentParams) (*Intent, error)
	GetIntent(ctx context.Context, intentID string) (*Intent, error)
	Refund(ctx context.Context, intentID string) (*Refund, error)
}

// Verifier authenticates and decodes webhook payloads.
type Verifier interface {
	ConstructEvent(payload []byte, signature string) (*Event, error)
}

type disabledGateway struct{}

// DisabledGateway returns a Gateway that fails every call with ErrDisabled.
func DisabledGateway() Gateway {
	return disabledGateway{}
}

func (disabledGateway) CreateIntent(context.Context, CreateIntentParams) (*Intent, error) {
	return nil, ErrDisabled
}

func (disabledGateway) GetIntent(context.Context, string) (*Intent, error) {
	return nil, ErrDisabled
}

func (disabledGateway) Refund(context.Context, string) (*Refund, error) {
	return nil, ErrDisabled
}

type disabledVerifier struct{}

// DisabledVerifier rejects every payload.
func DisabledVerifier() Verifier {
	return disabledVerifier{}
}

func (disabledVerifier) ConstructEvent([]byte, string) (*Event, error) {
	return nil, fmt.Errorf("webhook secret not configured: %w", ErrInvalidSignature)
}
