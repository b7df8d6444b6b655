package usecase

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/xavierca1/raccordement-leads/internal/entity"
	"github.com/xavierca1/raccordement-leads/internal/infra/queue"
)

type ContactUseCase struct {
	Messages    entity.ContactRepositoryInterface
	Templates   entity.EmailTemplateRepositoryInterface
	Outbox      *Outbox
	Automations AutomationChecker
	AdminEmail  string
	Logger      *zap.Logger
}

func NewContactUseCase(
	messages entity.ContactRepositoryInterface,
	templates entity.EmailTemplateRepositoryInterface,
	outbox *Outbox,
	automations AutomationChecker,
	adminEmail string,
	logger *zap.Logger,
) *ContactUseCase {
	return &ContactUseCase{
		Messages:    messages,
		Templates:   templates,
		Outbox:      outbox,
		Automations: automations,
		AdminEmail:  adminEmail,
		Logger:      logger,
	}
}

func (uc *ContactUseCase) Submit(ctx context.Context, input ContactInput) (*entity.ContactMessage, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Message = strings.TrimSpace(input.Message)

	var errs []ValidationError
	if input.Name == "" {
		errs = append(errs, ValidationError{"name", "is required"})
	} else if len(input.Name) > 200 {
		errs = append(errs, ValidationError{"name", "must not exceed 200 characters"})
	}
	if input.Email == "" {
		errs = append(errs, ValidationError{"email", "is required"})
	} else if !isValidEmail(input.Email) {
		errs = append(errs, ValidationError{"email", "is invalid"})
	}
	if input.Phone != "" && !isValidFrenchPhone(input.Phone) {
		errs = append(errs, ValidationError{"phone", "must be a valid French phone number"})
	}
	if input.Message == "" {
		errs = append(errs, ValidationError{"message", "is required"})
	} else if len(input.Message) > 5000 {
		errs = append(errs, ValidationError{"message", "must not exceed 5000 characters"})
	}
	if len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	msg := entity.NewContactMessage(input.Name, input.Email, input.Phone, strings.TrimSpace(input.Subject), input.Message)
	if err := uc.Messages.Create(ctx, msg); err != nil {
		return nil, dbError("failed to store contact message", err)
	}

	uc.notifyAdmin(ctx, msg)
	return msg, nil
}

func (uc *ContactUseCase) notifyAdmin(ctx context.Context, msg *entity.ContactMessage) {
	if uc.AdminEmail == "" || uc.Outbox == nil || uc.Automations == nil {
		return
	}
	if !uc.Automations.Enabled(ctx, entity.AutomationAdminNotification) {
		return
	}
	vars := map[string]string{
		"name":    msg.Name,
		"email":   msg.Email,
		"phone":   msg.Phone,
		"subject": msg.Subject,
		"message": msg.Message,
	}
	subject, body, templateID := renderNamed(ctx, uc.Templates, TemplateAdminNotice, vars)
	if _, err := uc.Outbox.Enqueue(ctx, OutgoingEmail{
		To:         uc.AdminEmail,
		Subject:    subject,
		Body:       body,
		TemplateID: templateID,
		Origin:     queue.OriginAdminNotice,
	}); err != nil {
		uc.Logger.Warn("⚠️ admin notification not queued", zap.String("message_id", msg.ID), zap.Error(err))
	}
}

func (uc *ContactUseCase) List(ctx context.Context, page entity.Page) (*ContactMessageList, error) {
	page = NormalizePage(page)
	items, count, err := uc.Messages.List(ctx, page)
	if err != nil {
		return nil, dbError("failed to list contact messages", err)
	}
	if items == nil {
		items = []*entity.ContactMessage{}
	}
	return &ContactMessageList{Items: items, Pagination: newPagination(page, count)}, nil
}
