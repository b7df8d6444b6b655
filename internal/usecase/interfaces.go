package usecase

import (
	"context"
	"io"
	"time"

	"github.com/xavierca1/raccordement-leads/internal/entity"
	"github.com/xavierca1/raccordement-leads/internal/infra/queue"
)

// DraftCache guarda o rascunho do formulário para retomar sem ir ao Postgres.
// Get returns (nil, nil) on a miss.
type DraftCache interface {
	Get(ctx context.Context, token string) (*entity.Lead, error)
	Set(ctx context.Context, lead *entity.Lead) error
	Delete(ctx context.Context, token string) error
}

type EmailQueue interface {
	PublishEmail(ctx context.Context, job queue.EmailJob) error
}

type PaymentProvider interface {
	CreatePaymentLink(ctx context.Context, sr *entity.ServiceRequest) (*entity.PaymentLink, error)
}

// MailboxClient fala com a ponte IMAP. mailbox é o endereço do usuário.
type MailboxClient interface {
	ListMessages(ctx context.Context, mailbox, folder string, page entity.Page) ([]entity.MailboxMessage, int, error)
	GetMessage(ctx context.Context, mailbox, id string) (*entity.MailboxMessage, error)
	MoveMessage(ctx context.Context, mailbox, id, folder string) error
	DeleteMessage(ctx context.Context, mailbox, id string) error
}

type ServiceRequestExporter interface {
	WriteServiceRequests(w io.Writer, items []*entity.ServiceRequest) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

type TokenIssuer interface {
	Issue(u *entity.User) (token string, expiresAt time.Time, err error)
}

type AutomationChecker interface {
	Enabled(ctx context.Context, key string) bool
}
