package stripepay

import (
	"context"
	"errors"
	"testing"

	"bookstore/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v78"
	"go.uber.org/zap/zaptest"
)

type fakeIntents struct {
	created *stripe.PaymentIntentParams
	intent  *stripe.PaymentIntent
	err     error
}

func (f *fakeIntents) New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	f.created = params
	return f.intent, f.err
}

func (f *fakeIntents) Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	if f.err != nil {
		return nil, f.err
	}
	pi := *f.intent
	pi.ID = id
	return &pi, nil
}

func TestProcessor_CreateIntent(t *testing.T) {
	fake := &fakeIntents{intent: &stripe.PaymentIntent{
		ID:           "pi_123",
		ClientSecret: "pi_123_secret_abc",
		Status:       stripe.PaymentIntentStatusRequiresPaymentMethod,
		Amount:       2500,
		Currency:     stripe.CurrencyGBP,
	}}
	p := newProcessor(fake, zaptest.NewLogger(t))

	ctx := context.Background()
	out, err := p.CreateIntent(ctx, usecase.IntentRequest{
		AmountMinor: 2500,
		Currency:    "GBP",
		Metadata:    map[string]string{"user_id": "7"},
	})
	require.NoError(t, err)

	assert.Equal(t, usecase.Intent{
		ID:           "pi_123",
		ClientSecret: "pi_123_secret_abc",
		Status:       "requires_payment_method",
		AmountMinor:  2500,
		Currency:     "gbp",
	}, out)

	require.NotNil(t, fake.created)
	assert.Equal(t, int64(2500), *fake.created.Amount)
	assert.Equal(t, "gbp", *fake.created.Currency)
	assert.Equal(t, "7", fake.created.Metadata["user_id"])
	assert.True(t, *fake.created.AutomaticPaymentMethods.Enabled)
	assert.Equal(t, ctx, fake.created.Context)
}

func TestProcessor_GetIntent(t *testing.T) {
	fake := &fakeIntents{intent: &stripe.PaymentIntent{Status: stripe.PaymentIntentStatusSucceeded, Amount: 2250, Currency: stripe.CurrencyGBP}}
	p := newProcessor(fake, zaptest.NewLogger(t))

	out, err := p.GetIntent(context.Background(), "pi_9")
	require.NoError(t, err)
	assert.Equal(t, "pi_9", out.ID)
	assert.Equal(t, "succeeded", out.Status)
	assert.Equal(t, int64(2250), out.AmountMinor)
}

func TestProcessor_WrapsErrors(t *testing.T) {
	cause := errors.New("card_declined")
	p := newProcessor(&fakeIntents{err: cause}, zaptest.NewLogger(t))

	_, err := p.GetIntent(context.Background(), "pi_9")
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "stripe: get payment intent")
}

func TestNewProcessor_RequiresKey(t *testing.T) {
	_, err := NewProcessor("  ", zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestDisabled(t *testing.T) {
	var p usecase.PaymentProcessor = Disabled{}

	_, err := p.CreateIntent(context.Background(), usecase.IntentRequest{AmountMinor: 100, Currency: "gbp"})
	assert.ErrorIs(t, err, ErrDisabled)

	_, err = p.GetIntent(context.Background(), "pi_1")
	assert.ErrorIs(t, err, ErrDisabled)
}
