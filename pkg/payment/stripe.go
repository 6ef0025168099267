package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// StripeGateway implements Gateway on top of the Stripe API.
type StripeGateway struct {
	api *client.API
}

// StripeOption customises the Stripe client.
type StripeOption func(*stripe.Backends)

// WithBackend routes API calls through backend, used to point the client at a
// local test server.
func WithBackend(backend stripe.Backend) StripeOption {
	return func(b *stripe.Backends) {
		b.API = backend
		b.Connect = backend
		b.Uploads = backend
	}
}

// NewStripeGateway builds a gateway authenticated with secretKey.
func NewStripeGateway(secretKey string, opts ...StripeOption) *StripeGateway {
	var backends *stripe.Backends
	if len(opts) > 0 {
		backends = &stripe.Backends{}
		for _, opt := range opts {
			opt(backends)
		}
	}
	return &StripeGateway{api: client.New(secretKey, backends)}
}

// CreateIntent creates a payment intent with automatic payment methods enabled.
func (g *StripeGateway) CreateIntent(ctx context.Context, params CreateIntentParams) (*Intent, error) {
	p := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(params.Amount),
		Currency: stripe.String(strings.ToLower(params.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if params.Description != "" {
		p.Description = stripe.String(params.Description)
	}
	for key, value := range params.Metadata {
		p.AddMetadata(key, value)
	}
	p.Context = ctx

	pi, err := g.api.PaymentIntents.New(p)
	if err != nil {
		return nil, translateStripeError(err)
	}
	return intentFromStripe(pi), nil
}

// GetIntent fetches the current state of an intent.
func (g *StripeGateway) GetIntent(ctx context.Context, intentID string) (*Intent, error) {
	p := &stripe.PaymentIntentParams{}
	p.Context = ctx
	pi, err := g.api.PaymentIntents.Get(intentID, p)
	if err != nil {
		return nil, translateStripeError(err)
	}
	return intentFromStripe(pi), nil
}

// Refund issues a full refund for the intent.
func (g *StripeGateway) Refund(ctx context.Context, intentID string) (*Refund, error) {
	p := &stripe.RefundParams{PaymentIntent: stripe.String(intentID)}
	p.Context = ctx
	r, err := g.api.Refunds.New(p)
	if err != nil {
		return nil, translateStripeError(err)
	}
	return &Refund{ID: r.ID, Status: string(r.Status), Amount: r.Amount}, nil
}

// StripeVerifier checks the Stripe-Signature header against the endpoint secret.
type StripeVerifier struct {
	secret string
}

// NewStripeVerifier returns a verifier for secret.
func NewStripeVerifier(secret string) *StripeVerifier {
	return &StripeVerifier{secret: secret}
}

// ConstructEvent verifies payload and decodes the objects of known event types.
func (v *StripeVerifier) ConstructEvent(payload []byte, signature string) (*Event, error) {
	if strings.TrimSpace(signature) == "" {
		return nil, fmt.Errorf("missing signature header: %w", ErrInvalidSignature)
	}
	evt, err := webhook.ConstructEventWithOptions(payload, signature, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidSignature)
	}

	out := &Event{ID: evt.ID, Type: string(evt.Type)}
	if evt.Data == nil {
		return out, nil
	}

	switch {
	case strings.HasPrefix(out.Type, "payment_intent."):
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(evt.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("decode payment intent: %w", err)
		}
		out.Intent = intentFromStripe(&pi)
	case strings.HasPrefix(out.Type, "charge."):
		var ch stripe.Charge
		if err := json.Unmarshal(evt.Data.Raw, &ch); err != nil {
			return nil, fmt.Errorf("decode charge: %w", err)
		}
		charge := &Charge{
			ID:             ch.ID,
			Amount:         ch.Amount,
			AmountRefunded: ch.AmountRefunded,
			Refunded:       ch.Refunded,
		}
		if ch.PaymentIntent != nil {
			charge.PaymentIntentID = ch.PaymentIntent.ID
		}
		out.Charge = charge
	}
	return out, nil
}

func intentFromStripe(pi *stripe.PaymentIntent) *Intent {
	if pi == nil {
		return nil
	}
	intent := &Intent{
		ID:                 pi.ID,
		ClientSecret:       pi.ClientSecret,
		Status:             string(pi.Status),
		Amount:             pi.Amount,
		Currency:           string(pi.Currency),
		Metadata:           pi.Metadata,
		PaymentMethodTypes: pi.PaymentMethodTypes,
	}
	if le := pi.LastPaymentError; le != nil {
		intent.FailureCode = string(le.DeclineCode)
		if intent.FailureCode == "" {
			intent.FailureCode = string(le.Code)
		}
	}
	return intent
}

func translateStripeError(err error) error {
	var se *stripe.Error
	if !errors.As(err, &se) {
		return &ProviderError{Message: err.Error(), Err: err}
	}
	code := string(se.DeclineCode)
	if code == "" {
		code = string(se.Code)
	}
	return &ProviderError{
		Code:       code,
		Message:    se.Msg,
		HTTPStatus: se.HTTPStatusCode,
		Err:        err,
	}
}
