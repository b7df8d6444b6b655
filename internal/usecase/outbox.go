package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xavierca1/raccordement-leads/internal/entity"
	"github.com/xavierca1/raccordement-leads/internal/infra/queue"
)

// Nomes dos templates usados pelas automações.
const (
	TemplateConfirmation  = "confirmation"
	TemplateDraftReminder = "draft_reminder"
	TemplateAdminNotice   = "admin_notification"
)

type OutgoingEmail struct {
	To               string
	Subject          string
	Body             string
	ServiceRequestID string
	TemplateID       string
	SentBy           string
	Origin           string
}

// Outbox grava o email_log (queued) e publica o job na fila.
type Outbox struct {
	Logs   entity.EmailLogRepositoryInterface
	Queue  EmailQueue
	Logger *zap.Logger
}

func NewOutbox(logs entity.EmailLogRepositoryInterface, q EmailQueue, logger *zap.Logger) *Outbox {
	return &Outbox{Logs: logs, Queue: q, Logger: logger}
}

func (o *Outbox) Enqueue(ctx context.Context, msg OutgoingEmail) (*entity.EmailLog, error) {
	entry := &entity.EmailLog{
		ID:               uuid.New().String(),
		ServiceRequestID: msg.ServiceRequestID,
		TemplateID:       msg.TemplateID,
		To:               msg.To,
		Subject:          msg.Subject,
		Status:           entity.EmailQueued,
		SentBy:           msg.SentBy,
		CreatedAt:        time.Now(),
	}
	if err := o.Logs.Create(ctx, entry); err != nil {
		return nil, dbError("failed to record email log", err)
	}

	err := o.Queue.PublishEmail(ctx, queue.EmailJob{
		LogID:        entry.ID,
		To:           msg.To,
		Subject:      msg.Subject,
		Body:         msg.Body,
		SenderUserID: msg.SentBy,
		Origin:       msg.Origin,
	})
	if err != nil {
		entry.Status = entity.EmailFailed
		entry.Error = err.Error()
		if uerr := o.Logs.UpdateStatus(ctx, entry.ID, entity.EmailFailed, err.Error(), nil); uerr != nil {
			o.Logger.Warn("⚠️ could not flag email log as failed", zap.String("log_id", entry.ID), zap.Error(uerr))
		}
		return entry, &TechnicalError{Code: CodeQueue, Message: "failed to queue email", Err: err}
	}
	return entry, nil
}

// renderNamed renderiza o template pelo nome, com fallback embutido quando ele não existe no banco.
func renderNamed(ctx context.Context, templates entity.EmailTemplateRepositoryInterface, name string, vars map[string]string) (subject, body, templateID string) {
	if templates != nil {
		if tpl, err := templates.FindByName(ctx, name); err == nil {
			s, b := tpl.Render(vars)
			return s, b, tpl.ID
		}
	}
	fallback := builtinTemplates[name]
	return entity.RenderPlaceholders(fallback.subject, vars), entity.RenderPlaceholders(fallback.body, vars), ""
}

var builtinTemplates = map[string]struct{ subject, body string }{
	TemplateConfirmation: {
		subject: "Votre demande de raccordement {{reference_number}}",
		body:    "Bonjour {{first_name}},\n\n" +
			"Nous avons bien reçu votre demande de {{request_type}} pour le {{address}}, {{postal_code}} {{city}}.\n" +
			"Référence : {{reference_number}}\n" +
			"Montant : {{price_ttc}} TTC\n\n" +
			"Pour régler votre dossier : {{payment_url}}\n\n" +
			"L'équipe raccordement",
	},
	TemplateDraftReminder: {
		subject: "Votre demande de raccordement n'est pas terminée",
		body:    "Bonjour {{first_name}},\n\n" +
			"Vous avez commencé une demande de raccordement sans la finaliser.\n" +
			"Reprenez-la ici : {{resume_url}}\n\n" +
			"L'équipe raccordement",
	},
	TemplateAdminNotice: {
		subject: "Nouveau message de contact : {{subject}}",
		body:    "De : {{name}} <{{email}}> {{phone}}\n\n{{message}}",
	},
}
