package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/xavierca1/raccordement-leads/internal/entity"
)

const stripeSignatureHeader = "Stripe-Signature"

type checkoutSessions interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// StripeProvider abre uma Checkout Session por demanda; a referência volta no
// client_reference_id do webhook checkout.session.completed.
type StripeProvider struct {
	sessions      checkoutSessions
	webhookSecret string
	successURL    string
	cancelURL     string
}

func NewStripeProvider(secretKey, webhookSecret, successURL, cancelURL string) *StripeProvider {
	sc := client.New(secretKey, nil)
	return &StripeProvider{
		sessions:      sc.CheckoutSessions,
		webhookSecret: webhookSecret,
		successURL:    successURL,
		cancelURL:     cancelURL,
	}
}

func (p *StripeProvider) CreatePaymentLink(ctx context.Context, sr *entity.ServiceRequest) (*entity.PaymentLink, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(sr.ReferenceNumber),
		SuccessURL:        stripe.String(withReference(p.successURL, sr.ReferenceNumber)),
		CancelURL:         stripe.String(withReference(p.cancelURL, sr.ReferenceNumber)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(string(stripe.CurrencyEUR)),
					UnitAmount: stripe.Int64(sr.Pricing.PriceTTCCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(fmt.Sprintf("%s - %s", entity.RequestTypeLabel(sr.Technical.RequestType), sr.ReferenceNumber)),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	if sr.Contact.Email != "" {
		params.CustomerEmail = stripe.String(sr.Contact.Email)
	}
	params.Context = ctx
	params.AddMetadata("reference_number", sr.ReferenceNumber)
	params.AddMetadata("service_request_id", sr.ID)

	s, err := p.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe checkout session: %w", err)
	}
	return &entity.PaymentLink{SessionID: s.ID, URL: s.URL}, nil
}

func (p *StripeProvider) ParseWebhook(payload []byte, headers http.Header) (*Event, error) {
	if p.webhookSecret == "" {
		return nil, ErrWebhookNotConfigured
	}
	event, err := webhook.ConstructEventWithOptions(payload, headers.Get(stripeSignatureHeader), p.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	// Outros eventos são aceitos e ignorados.
	if event.Type != "checkout.session.completed" {
		return &Event{}, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, fmt.Errorf("invalid checkout session payload: %w", err)
	}
	reference := session.ClientReferenceID
	if reference == "" {
		reference = session.Metadata["reference_number"]
	}
	return &Event{
		Reference: reference,
		SessionID: session.ID,
		Paid:      session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
	}, nil
}

func withReference(u, reference string) string {
	return strings.ReplaceAll(u, "{reference}", reference)
}
