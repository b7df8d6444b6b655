package entity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ContactMessage struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

func NewContactMessage(name, email, phone, subject, message string) *ContactMessage {
	return &ContactMessage{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		Phone:     phone,
		Subject:   subject,
		Message:   message,
		CreatedAt: time.Now(),
	}
}

type ContactRepositoryInterface interface {
	Create(ctx context.Context, m *ContactMessage) error
	List(ctx context.Context, page Page) ([]*ContactMessage, int, error)
}

const (
	AutomationConfirmationEmail = "confirmation_email"
	AutomationDraftReminder     = "draft_reminder"
	AutomationAdminNotification = "admin_notification"
)

type AutomationSetting struct {
	Key         string    `json:"key"`
	Enabled     bool      `json:"enabled"`
	Description string    `json:"description"`
	UpdatedBy   string    `json:"updated_by,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DefaultAutomations is what a fresh database is seeded with.
func DefaultAutomations() []AutomationSetting {
	return []AutomationSetting{
		{Key: AutomationConfirmationEmail, Enabled: true, Description: "Send the confirmation email when a request is finalized"},
		{Key: AutomationDraftReminder, Enabled: false, Description: "Remind visitors who left the form unfinished"},
		{Key: AutomationAdminNotification, Enabled: true, Description: "Notify the back-office of new contact messages"},
	}
}

type AutomationRepositoryInterface interface {
	List(ctx context.Context) ([]*AutomationSetting, error)
	FindByKey(ctx context.Context, key string) (*AutomationSetting, error)
	Upsert(ctx context.Context, s *AutomationSetting) error
}
