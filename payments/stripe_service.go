package payments

import (
	"errors"
	"math"
	"sync"

	config "github.com/otienojr/park_space/configs"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

var (
	stripeOnce   sync.Once
	stripeAPI    *client.API
	ErrStripeKey = errors.New("STRIPE_SECRET_KEY is not configured")
)

func stripeClient() (*client.API, error) {
	stripeOnce.Do(func() {
		key := config.Config("STRIPE_SECRET_KEY")
		if key == "" {
			return
		}
		stripeAPI = client.New(key, nil)
	})
	if stripeAPI == nil {
		return nil, ErrStripeKey
	}
	return stripeAPI, nil
}

// CreatePaymentIntent opens a Stripe PaymentIntent for the given payment
// record. The internal payment id travels in the intent metadata so the
// webhook can find its way back.
func CreatePaymentIntent(amount float64, currency, paymentID string) (*stripe.PaymentIntent, error) {
	sc, err := stripeClient()
	if err != nil {
		return nil, err
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(int64(math.Round(amount * 100))),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("payment_id", paymentID)

	return sc.PaymentIntents.New(params)
}

// CreateRefund refunds a PaymentIntent. A nil amount refunds in full;
// otherwise only the given USD amount is returned to the renter.
func CreateRefund(providerIntentID string, amount *float64) (*stripe.Refund, error) {
	sc, err := stripeClient()
	if err != nil {
		return nil, err
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(providerIntentID),
	}
	if amount != nil {
		params.Amount = stripe.Int64(int64(math.Round(*amount * 100)))
	}

	return sc.Refunds.New(params)
}
