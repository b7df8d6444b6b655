package entity

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	FolderInbox = "inbox"
	FolderSent  = "sent"
	FolderSpam  = "spam"
	FolderTrash = "trash"

	EmailQueued = "queued"
	EmailSent   = "sent"
	EmailFailed = "failed"
)

func IsValidFolder(folder string) bool {
	switch folder {
	case FolderInbox, FolderSent, FolderSpam, FolderTrash:
		return true
	}
	return false
}

var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)

type EmailTemplate struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Category  string    `json:"category,omitempty"`
	Variables []string  `json:"variables"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewEmailTemplate(name, subject, body, category string) *EmailTemplate {
	now := time.Now()
	t := &EmailTemplate{
		ID:        uuid.New().String(),
		Name:      name,
		Subject:   subject,
		Body:      body,
		Category:  category,
		CreatedAt: now,
		UpdatedAt: now,
	}
	t.RefreshVariables()
	return t
}

// RefreshVariables lists the distinct placeholders of subject and body, in order of appearance.
func (t *EmailTemplate) RefreshVariables() {
	t.Variables = ExtractVariables(t.Subject + "\n" + t.Body)
}

// Render substitutes {{name}} placeholders. Placeholders without a value are left untouched.
func (t *EmailTemplate) Render(vars map[string]string) (subject, body string) {
	return RenderPlaceholders(t.Subject, vars), RenderPlaceholders(t.Body, vars)
}

func ExtractVariables(text string) []string {
	seen := map[string]bool{}
	vars := []string{}
	for _, m := range placeholderPattern.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			vars = append(vars, m[1])
		}
	}
	return vars
}

func RenderPlaceholders(text string, vars map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		name := strings.TrimSpace(strings.Trim(match, "{}"))
		if v, ok := vars[name]; ok {
			return v
		}
		return match
	})
}

type EmailTemplateRepositoryInterface interface {
	Create(ctx context.Context, t *EmailTemplate) error
	Update(ctx context.Context, t *EmailTemplate) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*EmailTemplate, error)
	FindByName(ctx context.Context, name string) (*EmailTemplate, error)
	List(ctx context.Context) ([]*EmailTemplate, error)
}

// MailboxMessage é uma mensagem vinda da ponte IMAP.
type MailboxMessage struct {
	ID      string    `json:"id"`
	Folder  string    `json:"folder"`
	From    string    `json:"from"`
	To      []string  `json:"to"`
	Subject string    `json:"subject"`
	Body    string    `json:"body,omitempty"`
	Snippet string    `json:"snippet,omitempty"`
	Read    bool      `json:"read"`
	Date    time.Time `json:"date"`
}

type EmailLog struct {
	ID               string     `json:"id"`
	ServiceRequestID string     `json:"service_request_id,omitempty"`
	TemplateID       string     `json:"template_id,omitempty"`
	To               string     `json:"to"`
	Subject          string     `json:"subject"`
	Status           string     `json:"status"`
	Error            string     `json:"error,omitempty"`
	SentBy           string     `json:"sent_by,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	SentAt           *time.Time `json:"sent_at,omitempty"`
}

type EmailLogRepositoryInterface interface {
	Create(ctx context.Context, l *EmailLog) error
	UpdateStatus(ctx context.Context, id, status, errMsg string, sentAt *time.Time) error
	List(ctx context.Context, page Page) ([]*EmailLog, int, error)
}
