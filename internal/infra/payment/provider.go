package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/xavierca1/raccordement-leads/internal/config"
	"github.com/xavierca1/raccordement-leads/internal/entity"
)

var (
	ErrInvalidSignature     = errors.New("invalid webhook signature")
	ErrWebhookNotConfigured = errors.New("payment webhook secret not configured")
)

// Event é o que interessa de uma notificação de pagamento.
type Event struct {
	Reference string
	SessionID string
	Paid      bool
}

// Gateway cria o link de pagamento e valida os webhooks do mesmo provedor.
type Gateway interface {
	CreatePaymentLink(ctx context.Context, sr *entity.ServiceRequest) (*entity.PaymentLink, error)
	ParseWebhook(payload []byte, headers http.Header) (*Event, error)
}

func New(cfg config.PaymentConfig, logger *zap.Logger) (Gateway, error) {
	switch cfg.Provider {
	case "stripe":
		logger.Info("💳 payment provider: stripe checkout")
		return NewStripeProvider(
			cfg.Stripe.SecretKey,
			cfg.Stripe.WebhookSecret,
			cfg.Stripe.SuccessURL,
			cfg.Stripe.CancelURL,
		), nil
	case "hosted":
		logger.Info("💳 payment provider: hosted page", zap.String("base_url", cfg.HostedBaseURL))
		return NewHostedProvider(cfg.HostedBaseURL, cfg.HostedWebhookSecret), nil
	}
	return nil, fmt.Errorf("unknown payment provider %q", cfg.Provider)
}
