package stripepay

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bookstore/internal/usecase"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"go.uber.org/zap"
)

type paymentIntentAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// Processor implements usecase.PaymentProcessor with Stripe PaymentIntents.
type Processor struct {
	intents paymentIntentAPI
	logger  *zap.Logger
}

func NewProcessor(secretKey string, logger *zap.Logger) (*Processor, error) {
	secretKey = strings.TrimSpace(secretKey)
	if secretKey == "" {
		return nil, errors.New("stripe: secret key is required")
	}
	sc := client.New(secretKey, nil)
	return newProcessor(sc.PaymentIntents, logger), nil
}

func newProcessor(intents paymentIntentAPI, logger *zap.Logger) *Processor {
	return &Processor{intents: intents, logger: logger}
}

func (p *Processor) CreateIntent(ctx context.Context, req usecase.IntentRequest) (usecase.Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.AmountMinor),
		Currency: stripe.String(strings.ToLower(req.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	if len(req.Metadata) > 0 {
		params.Metadata = make(map[string]string, len(req.Metadata))
		for k, v := range req.Metadata {
			params.Metadata[k] = v
		}
	}

	intent, err := p.intents.New(params)
	if err != nil {
		return usecase.Intent{}, fmt.Errorf("stripe: create payment intent: %w", err)
	}
	p.logger.Debug("stripe payment intent created", zap.String("intent_id", intent.ID), zap.Int64("amount", intent.Amount))
	return toIntent(intent), nil
}

func (p *Processor) GetIntent(ctx context.Context, id string) (usecase.Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	intent, err := p.intents.Get(id, params)
	if err != nil {
		return usecase.Intent{}, fmt.Errorf("stripe: get payment intent: %w", err)
	}
	return toIntent(intent), nil
}

func toIntent(pi *stripe.PaymentIntent) usecase.Intent {
	if pi == nil {
		return usecase.Intent{}
	}
	return usecase.Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		AmountMinor:  pi.Amount,
		Currency:     string(pi.Currency),
	}
}

// ErrDisabled is returned when no secret key is configured.
var ErrDisabled = errors.New("stripe: card payments are not configured")

// Disabled stands in for Processor when STRIPE_SECRET_KEY is empty, so
// cash-on-delivery keeps working.
type Disabled struct{}

func (Disabled) CreateIntent(context.Context, usecase.IntentRequest) (usecase.Intent, error) {
	return usecase.Intent{}, ErrDisabled
}

func (Disabled) GetIntent(context.Context, string) (usecase.Intent, error) {
	return usecase.Intent{}, ErrDisabled
}
