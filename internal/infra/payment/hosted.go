package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/xavierca1/raccordement-leads/internal/entity"
)

const hostedSignatureHeader = "X-Signature"

// HostedProvider redireciona para uma página de pagamento externa:
// {base}?reference={ref}&amount={centavos TTC}.
type HostedProvider struct {
	BaseURL       string
	WebhookSecret string
}

func NewHostedProvider(baseURL, webhookSecret string) *HostedProvider {
	return &HostedProvider{BaseURL: baseURL, WebhookSecret: webhookSecret}
}

func (p *HostedProvider) CreatePaymentLink(_ context.Context, sr *entity.ServiceRequest) (*entity.PaymentLink, error) {
	u, err := url.Parse(p.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid hosted payment url: %w", err)
	}
	q := u.Query()
	q.Set("reference", sr.ReferenceNumber)
	q.Set("amount", strconv.FormatInt(sr.Pricing.PriceTTCCents, 10))
	u.RawQuery = q.Encode()
	return &entity.PaymentLink{URL: u.String()}, nil
}

type hostedNotification struct {
	Reference     string `json:"reference"`
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
}

// ParseWebhook valida o HMAC-SHA256 (hex) do corpo enviado no header X-Signature.
func (p *HostedProvider) ParseWebhook(payload []byte, headers http.Header) (*Event, error) {
	if p.WebhookSecret == "" {
		return nil, ErrWebhookNotConfigured
	}
	given, err := hex.DecodeString(headers.Get(hostedSignatureHeader))
	if err != nil || !hmac.Equal(given, sign(p.WebhookSecret, payload)) {
		return nil, ErrInvalidSignature
	}

	var n hostedNotification
	if err := json.Unmarshal(payload, &n); err != nil {
		return nil, fmt.Errorf("invalid payment notification: %w", err)
	}
	return &Event{Reference: n.Reference, SessionID: n.TransactionID, Paid: n.Status == "paid"}, nil
}

func sign(secret string, payload []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return mac.Sum(nil)
}
