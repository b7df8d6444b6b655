package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/raccordement-leads/internal/entity"
	"github.com/xavierca1/raccordement-leads/internal/infra/queue"
)

const maxBulkRecipients = 500

// EmailUseCase é o cliente de email do back-office: caixa (via ponte IMAP),
// templates e envio direto ou em massa.
type EmailUseCase struct {
	Mailbox   MailboxClient
	Templates entity.EmailTemplateRepositoryInterface
	Requests  entity.ServiceRequestRepositoryInterface
	Logs      entity.EmailLogRepositoryInterface
	Outbox    *Outbox
	Logger    *zap.Logger
}

func NewEmailUseCase(
	mailbox MailboxClient,
	templates entity.EmailTemplateRepositoryInterface,
	requests entity.ServiceRequestRepositoryInterface,
	logs entity.EmailLogRepositoryInterface,
	outbox *Outbox,
	logger *zap.Logger,
) *EmailUseCase {
	return &EmailUseCase{
		Mailbox:   mailbox,
		Templates: templates,
		Requests:  requests,
		Logs:      logs,
		Outbox:    outbox,
		Logger:    logger,
	}
}

func mailboxOf(u *entity.User) string {
	if u.SMTP.FromEmail != "" {
		return u.SMTP.FromEmail
	}
	return u.Email
}

func (uc *EmailUseCase) ListMessages(ctx context.Context, u *entity.User, folder string, page entity.Page) (*MailboxList, error) {
	if folder == "" {
		folder = entity.FolderInbox
	}
	if !entity.IsValidFolder(folder) {
		return nil, validationFailed([]ValidationError{{"folder", "must be inbox, sent, spam or trash"}})
	}
	page = NormalizePage(page)

	items, count, err := uc.Mailbox.ListMessages(ctx, mailboxOf(u), folder, page)
	if err != nil {
		return nil, bridgeError(err)
	}
	if items == nil {
		items = []entity.MailboxMessage{}
	}
	return &MailboxList{Folder: folder, Items: items, Pagination: newPagination(page, count)}, nil
}

func (uc *EmailUseCase) GetMessage(ctx context.Context, u *entity.User, id string) (*entity.MailboxMessage, error) {
	msg, err := uc.Mailbox.GetMessage(ctx, mailboxOf(u), id)
	if err != nil {
		return nil, bridgeError(err)
	}
	return msg, nil
}

func (uc *EmailUseCase) MoveMessage(ctx context.Context, u *entity.User, id, folder string) error {
	if !entity.IsValidFolder(folder) {
		return validationFailed([]ValidationError{{"folder", "must be inbox, sent, spam or trash"}})
	}
	if err := uc.Mailbox.MoveMessage(ctx, mailboxOf(u), id, folder); err != nil {
		return bridgeError(err)
	}
	return nil
}

func (uc *EmailUseCase) DeleteMessage(ctx context.Context, u *entity.User, id string) error {
	if err := uc.Mailbox.DeleteMessage(ctx, mailboxOf(u), id); err != nil {
		return bridgeError(err)
	}
	return nil
}

func bridgeError(err error) error {
	if errors.Is(err, entity.ErrMessageNotFound) {
		return notFound("message")
	}
	return &TechnicalError{Code: CodeMailBridge, Message: "mail bridge request failed", Err: err}
}

func validateTemplate(in TemplateInput) []ValidationError {
	var errs []ValidationError
	if strings.TrimSpace(in.Name) == "" {
		errs = append(errs, ValidationError{"name", "is required"})
	} else if len(in.Name) > 100 {
		errs = append(errs, ValidationError{"name", "must not exceed 100 characters"})
	}
	if strings.TrimSpace(in.Subject) == "" {
		errs = append(errs, ValidationError{"subject", "is required"})
	}
	if strings.TrimSpace(in.Body) == "" {
		errs = append(errs, ValidationError{"body", "is required"})
	}
	return errs
}

func (uc *EmailUseCase) CreateTemplate(ctx context.Context, in TemplateInput) (*entity.EmailTemplate, error) {
	if errs := validateTemplate(in); len(errs) > 0 {
		return nil, validationFailed(errs)
	}
	tpl := entity.NewEmailTemplate(strings.TrimSpace(in.Name), in.Subject, in.Body, in.Category)
	if err := uc.Templates.Create(ctx, tpl); err != nil {
		if errors.Is(err, entity.ErrTemplateNameExists) {
			return nil, &DomainError{Code: CodeTemplateExists, Message: "template name already in use"}
		}
		return nil, dbError("failed to create template", err)
	}
	return tpl, nil
}

func (uc *EmailUseCase) ListTemplates(ctx context.Context) ([]*entity.EmailTemplate, error) {
	items, err := uc.Templates.List(ctx)
	if err != nil {
		return nil, dbError("failed to list templates", err)
	}
	if items == nil {
		items = []*entity.EmailTemplate{}
	}
	return items, nil
}

func (uc *EmailUseCase) GetTemplate(ctx context.Context, id string) (*entity.EmailTemplate, error) {
	if !isUUID(id) {
		return nil, notFound("template")
	}
	tpl, err := uc.Templates.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, entity.ErrTemplateNotFound) {
			return nil, notFound("template")
		}
		return nil, dbError("failed to load template", err)
	}
	return tpl, nil
}

func (uc *EmailUseCase) UpdateTemplate(ctx context.Context, id string, in TemplateInput) (*entity.EmailTemplate, error) {
	if errs := validateTemplate(in); len(errs) > 0 {
		return nil, validationFailed(errs)
	}
	tpl, err := uc.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	tpl.Name = strings.TrimSpace(in.Name)
	tpl.Subject = in.Subject
	tpl.Body = in.Body
	tpl.Category = in.Category
	tpl.RefreshVariables()
	tpl.UpdatedAt = time.Now()

	if err := uc.Templates.Update(ctx, tpl); err != nil {
		switch {
		case errors.Is(err, entity.ErrTemplateNameExists):
			return nil, &DomainError{Code: CodeTemplateExists, Message: "template name already in use"}
		case errors.Is(err, entity.ErrTemplateNotFound):
			return nil, notFound("template")
		}
		return nil, dbError("failed to update template", err)
	}
	return tpl, nil
}

func (uc *EmailUseCase) DeleteTemplate(ctx context.Context, id string) error {
	if !isUUID(id) {
		return notFound("template")
	}
	if err := uc.Templates.Delete(ctx, id); err != nil {
		if errors.Is(err, entity.ErrTemplateNotFound) {
			return notFound("template")
		}
		return dbError("failed to delete template", err)
	}
	return nil
}

// PreviewTemplate renders a template against one service request, or with placeholders kept when none is given.
func (uc *EmailUseCase) PreviewTemplate(ctx context.Context, id, serviceRequestID string) (*PreviewOutput, error) {
	tpl, err := uc.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	vars := map[string]string{}
	if serviceRequestID != "" {
		if !isUUID(serviceRequestID) {
			return nil, notFound("service request")
		}
		sr, err := uc.Requests.FindByID(ctx, serviceRequestID)
		if err != nil {
			if errors.Is(err, entity.ErrServiceRequestNotFound) {
				return nil, notFound("service request")
			}
			return nil, dbError("failed to load service request", err)
		}
		vars = sr.TemplateVars()
	}
	subject, body := tpl.Render(vars)
	return &PreviewOutput{
		Subject:   subject,
		Body:      body,
		Variables: tpl.Variables,
		Missing:   missingVars(tpl.Variables, vars),
	}, nil
}

// Send faz o envio direto (to + subject/body) ou em massa para demandas selecionadas.
// Cada destinatário vira um email_log e um job na fila.
func (uc *EmailUseCase) Send(ctx context.Context, sender *entity.User, in SendEmailInput) (*SendEmailOutput, error) {
	subject, body, templateID := in.Subject, in.Body, ""
	if in.TemplateID != "" {
		tpl, err := uc.GetTemplate(ctx, in.TemplateID)
		if err != nil {
			return nil, err
		}
		subject, body, templateID = tpl.Subject, tpl.Body, tpl.ID
	}

	var errs []ValidationError
	if len(in.To) == 0 && len(in.ServiceRequestIDs) == 0 {
		errs = append(errs, ValidationError{"to", "at least one recipient or service request is required"})
	}
	if len(in.To)+len(in.ServiceRequestIDs) > maxBulkRecipients {
		errs = append(errs, ValidationError{"to", "too many recipients (max 500)"})
	}
	for _, to := range in.To {
		if !isValidEmail(strings.TrimSpace(to)) {
			errs = append(errs, ValidationError{"to", "invalid address " + to})
		}
	}
	if strings.TrimSpace(subject) == "" {
		errs = append(errs, ValidationError{"subject", "is required"})
	}
	if strings.TrimSpace(body) == "" {
		errs = append(errs, ValidationError{"body", "is required"})
	}
	if len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	out := &SendEmailOutput{Skipped: []SkippedRecipient{}}
	senderID := ""
	if sender != nil {
		senderID = sender.ID
	}

	for _, to := range in.To {
		to = strings.TrimSpace(to)
		_, err := uc.Outbox.Enqueue(ctx, OutgoingEmail{
			To:         to,
			Subject:    subject,
			Body:       body,
			TemplateID: templateID,
			SentBy:     senderID,
			Origin:     queue.OriginManual,
		})
		if err != nil {
			uc.Logger.Warn("⚠️ email not queued", zap.String("to", to), zap.Error(err))
			out.Skipped = append(out.Skipped, SkippedRecipient{To: to, Reason: "queue error"})
			continue
		}
		out.Queued++
	}

	if len(in.ServiceRequestIDs) > 0 {
		ids := dedupe(in.ServiceRequestIDs)
		requests, err := uc.Requests.FindByIDs(ctx, ids)
		if err != nil {
			return nil, dbError("failed to load service requests", err)
		}
		byID := make(map[string]*entity.ServiceRequest, len(requests))
		for _, sr := range requests {
			byID[sr.ID] = sr
		}

		for _, id := range ids {
			sr, ok := byID[id]
			if !ok {
				out.Skipped = append(out.Skipped, SkippedRecipient{ServiceRequestID: id, Reason: "not found"})
				continue
			}
			if sr.Contact.Email == "" {
				out.Skipped = append(out.Skipped, SkippedRecipient{ServiceRequestID: id, Reason: "no email"})
				continue
			}
			vars := sr.TemplateVars()
			_, err := uc.Outbox.Enqueue(ctx, OutgoingEmail{
				To:               sr.Contact.Email,
				Subject:          entity.RenderPlaceholders(subject, vars),
				Body:             entity.RenderPlaceholders(body, vars),
				ServiceRequestID: sr.ID,
				TemplateID:       templateID,
				SentBy:           senderID,
				Origin:           queue.OriginBulk,
			})
			if err != nil {
				uc.Logger.Warn("⚠️ email not queued", zap.String("service_request_id", id), zap.Error(err))
				out.Skipped = append(out.Skipped, SkippedRecipient{ServiceRequestID: id, To: sr.Contact.Email, Reason: "queue error"})
				continue
			}
			out.Queued++
		}
	}

	uc.Logger.Info("📨 emails queued",
		zap.String("sender_id", senderID),
		zap.Int("queued", out.Queued),
		zap.Int("skipped", len(out.Skipped)),
	)
	return out, nil
}

func (uc *EmailUseCase) EmailLogs(ctx context.Context, page entity.Page) (*EmailLogList, error) {
	page = NormalizePage(page)
	items, count, err := uc.Logs.List(ctx, page)
	if err != nil {
		return nil, dbError("failed to list email logs", err)
	}
	if items == nil {
		items = []*entity.EmailLog{}
	}
	return &EmailLogList{Items: items, Pagination: newPagination(page, count)}, nil
}

func missingVars(wanted []string, vars map[string]string) []string {
	missing := []string{}
	for _, v := range wanted {
		if _, ok := vars[v]; !ok {
			missing = append(missing, v)
		}
	}
	return missing
}
