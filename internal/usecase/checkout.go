package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/xavierca1/raccordement-leads/internal/entity"
	"github.com/xavierca1/raccordement-leads/internal/infra/queue"
)

// Checkout é o que acontece depois que a demanda já está gravada:
// link de pagamento e email de confirmação. Falhas aqui são logadas e engolidas.
type Checkout struct {
	Requests    entity.ServiceRequestRepositoryInterface
	Payments    PaymentProvider
	Templates   entity.EmailTemplateRepositoryInterface
	Outbox      *Outbox
	Automations AutomationChecker
	Logger      *zap.Logger
}

func (c *Checkout) Handoff(ctx context.Context, sr *entity.ServiceRequest) {
	c.attachPayment(ctx, sr)
	c.sendConfirmation(ctx, sr)
}

func (c *Checkout) attachPayment(ctx context.Context, sr *entity.ServiceRequest) {
	if c.Payments == nil || sr.PaymentURL != "" {
		return
	}
	link, err := c.Payments.CreatePaymentLink(ctx, sr)
	if err != nil {
		c.Logger.Warn("⚠️ payment link not created",
			zap.String("reference", sr.ReferenceNumber),
			zap.Error(err),
		)
		return
	}
	if err := c.Requests.UpdatePayment(ctx, sr.ID, link.SessionID, link.URL); err != nil {
		c.Logger.Warn("⚠️ payment link not persisted",
			zap.String("reference", sr.ReferenceNumber),
			zap.Error(err),
		)
	}
	sr.PaymentSessionID = link.SessionID
	sr.PaymentURL = link.URL
}

func (c *Checkout) sendConfirmation(ctx context.Context, sr *entity.ServiceRequest) {
	if c.Outbox == nil || c.Automations == nil || !c.Automations.Enabled(ctx, entity.AutomationConfirmationEmail) {
		return
	}
	subject, body, templateID := renderNamed(ctx, c.Templates, TemplateConfirmation, sr.TemplateVars())
	_, err := c.Outbox.Enqueue(ctx, OutgoingEmail{
		To:               sr.Contact.Email,
		Subject:          subject,
		Body:             body,
		ServiceRequestID: sr.ID,
		TemplateID:       templateID,
		Origin:           queue.OriginConfirmation,
	})
	if err != nil {
		c.Logger.Warn("⚠️ confirmation email not queued",
			zap.String("reference", sr.ReferenceNumber),
			zap.Error(err),
		)
	}
}
