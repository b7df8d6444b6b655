package usecase

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/raccordement-leads/internal/entity"
	"github.com/xavierca1/raccordement-leads/internal/infra/queue"
)

const defaultReminderBatch = 50

// DraftReminderUseCase lembra uma única vez quem largou o formulário no meio.
type DraftReminderUseCase struct {
	Leads         entity.LeadRepositoryInterface
	Templates     entity.EmailTemplateRepositoryInterface
	Outbox        *Outbox
	Automations   AutomationChecker
	PublicBaseURL string
	IdleAfter     time.Duration
	BatchSize     int
	Logger        *zap.Logger
}

func NewDraftReminderUseCase(
	leads entity.LeadRepositoryInterface,
	templates entity.EmailTemplateRepositoryInterface,
	outbox *Outbox,
	automations AutomationChecker,
	publicBaseURL string,
	idleAfter time.Duration,
	batchSize int,
	logger *zap.Logger,
) *DraftReminderUseCase {
	if idleAfter <= 0 {
		idleAfter = 24 * time.Hour
	}
	if batchSize <= 0 {
		batchSize = defaultReminderBatch
	}
	return &DraftReminderUseCase{
		Leads:         leads,
		Templates:     templates,
		Outbox:        outbox,
		Automations:   automations,
		PublicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		IdleAfter:     idleAfter,
		BatchSize:     batchSize,
		Logger:        logger,
	}
}

// RemindStale envia um lote de lembretes e devolve quantos foram enfileirados.
// Com a automação desligada não faz nada.
func (uc *DraftReminderUseCase) RemindStale(ctx context.Context, now time.Time) (int, error) {
	if !uc.Automations.Enabled(ctx, entity.AutomationDraftReminder) {
		return 0, nil
	}

	leads, err := uc.Leads.FindStaleDrafts(ctx, now.Add(-uc.IdleAfter), uc.BatchSize)
	if err != nil {
		return 0, dbError("failed to load stale drafts", err)
	}

	sent := 0
	for _, lead := range leads {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		if lead.Contact.Email == "" || lead.IsFinalized() || lead.RemindedAt != nil {
			continue
		}

		vars := map[string]string{
			"first_name": lead.Contact.FirstName,
			"last_name":  lead.Contact.LastName,
			"resume_url": uc.resumeURL(lead.Token),
		}
		subject, body, templateID := renderNamed(ctx, uc.Templates, TemplateDraftReminder, vars)
		if _, err := uc.Outbox.Enqueue(ctx, OutgoingEmail{
			To:         lead.Contact.Email,
			Subject:    subject,
			Body:       body,
			TemplateID: templateID,
			Origin:     queue.OriginReminder,
		}); err != nil {
			uc.Logger.Warn("⚠️ draft reminder not queued", zap.String("lead_id", lead.ID), zap.Error(err))
			continue
		}

		// Sem o reminded_at o mesmo rascunho seria lembrado a cada tick.
		if err := uc.Leads.MarkReminded(ctx, lead.ID, now); err != nil {
			uc.Logger.Error("❌ reminder sent but not recorded", zap.String("lead_id", lead.ID), zap.Error(err))
		}
		sent++
	}
	return sent, nil
}

func (uc *DraftReminderUseCase) resumeURL(token string) string {
	return uc.PublicBaseURL + "/demande?token=" + token
}
