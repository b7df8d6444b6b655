package usecase

import (
	"context"
	"io"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/xavierca1/raccordement-leads/internal/entity"
	"github.com/xavierca1/raccordement-leads/internal/infra/queue"
)

// missingID é um UUID válido que nenhum mock conhece.
const missingID = "0b6f3f3e-9c44-4d7e-8a51-2f0c6e1d7a90"

type MockLeadRepository struct{ mock.Mock }

func (m *MockLeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	return m.Called(ctx, lead).Error(0)
}

func (m *MockLeadRepository) Update(ctx context.Context, lead *entity.Lead) error {
	return m.Called(ctx, lead).Error(0)
}

func (m *MockLeadRepository) FindByToken(ctx context.Context, token string) (*entity.Lead, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockLeadRepository) FindStaleDrafts(ctx context.Context, idleSince time.Time, limit int) ([]*entity.Lead, error) {
	args := m.Called(ctx, idleSince, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) MarkReminded(ctx context.Context, id string, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *MockLeadRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

type MockServiceRequestRepository struct{ mock.Mock }

func (m *MockServiceRequestRepository) Create(ctx context.Context, sr *entity.ServiceRequest) error {
	return m.Called(ctx, sr).Error(0)
}

func (m *MockServiceRequestRepository) Update(ctx context.Context, sr *entity.ServiceRequest) error {
	return m.Called(ctx, sr).Error(0)
}

func (m *MockServiceRequestRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockServiceRequestRepository) FindByID(ctx context.Context, id string) (*entity.ServiceRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ServiceRequest), args.Error(1)
}

func (m *MockServiceRequestRepository) FindByReference(ctx context.Context, reference string) (*entity.ServiceRequest, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ServiceRequest), args.Error(1)
}

func (m *MockServiceRequestRepository) FindByIDs(ctx context.Context, ids []string) ([]*entity.ServiceRequest, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.ServiceRequest), args.Error(1)
}

func (m *MockServiceRequestRepository) List(ctx context.Context, filter entity.ServiceRequestFilter, page entity.Page) ([]*entity.ServiceRequest, int, error) {
	args := m.Called(ctx, filter, page)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*entity.ServiceRequest), args.Int(1), args.Error(2)
}

func (m *MockServiceRequestRepository) UpdatePayment(ctx context.Context, id, sessionID, paymentURL string) error {
	return m.Called(ctx, id, sessionID, paymentURL).Error(0)
}

func (m *MockServiceRequestRepository) MarkPaid(ctx context.Context, reference string, at time.Time) error {
	return m.Called(ctx, reference, at).Error(0)
}

func (m *MockServiceRequestRepository) Stats(ctx context.Context, since time.Time) (*entity.Stats, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Stats), args.Error(1)
}

type MockDraftCache struct{ mock.Mock }

func (m *MockDraftCache) Get(ctx context.Context, token string) (*entity.Lead, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func (m *MockDraftCache) Set(ctx context.Context, lead *entity.Lead) error {
	return m.Called(ctx, lead).Error(0)
}

func (m *MockDraftCache) Delete(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

type MockPaymentProvider struct{ mock.Mock }

func (m *MockPaymentProvider) CreatePaymentLink(ctx context.Context, sr *entity.ServiceRequest) (*entity.PaymentLink, error) {
	args := m.Called(ctx, sr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.PaymentLink), args.Error(1)
}

type MockEmailQueue struct{ mock.Mock }

func (m *MockEmailQueue) PublishEmail(ctx context.Context, job queue.EmailJob) error {
	return m.Called(ctx, job).Error(0)
}

type MockEmailLogRepository struct{ mock.Mock }

func (m *MockEmailLogRepository) Create(ctx context.Context, l *entity.EmailLog) error {
	return m.Called(ctx, l).Error(0)
}

func (m *MockEmailLogRepository) UpdateStatus(ctx context.Context, id, status, errMsg string, sentAt *time.Time) error {
	return m.Called(ctx, id, status, errMsg, sentAt).Error(0)
}

func (m *MockEmailLogRepository) List(ctx context.Context, page entity.Page) ([]*entity.EmailLog, int, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*entity.EmailLog), args.Int(1), args.Error(2)
}

type MockTemplateRepository struct{ mock.Mock }

func (m *MockTemplateRepository) Create(ctx context.Context, t *entity.EmailTemplate) error {
	return m.Called(ctx, t).Error(0)
}

func (m *MockTemplateRepository) Update(ctx context.Context, t *entity.EmailTemplate) error {
	return m.Called(ctx, t).Error(0)
}

func (m *MockTemplateRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockTemplateRepository) FindByID(ctx context.Context, id string) (*entity.EmailTemplate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.EmailTemplate), args.Error(1)
}

func (m *MockTemplateRepository) FindByName(ctx context.Context, name string) (*entity.EmailTemplate, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.EmailTemplate), args.Error(1)
}

func (m *MockTemplateRepository) List(ctx context.Context) ([]*entity.EmailTemplate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.EmailTemplate), args.Error(1)
}

type MockAutomationChecker struct{ mock.Mock }

func (m *MockAutomationChecker) Enabled(ctx context.Context, key string) bool {
	return m.Called(ctx, key).Bool(0)
}

type MockAutomationRepository struct{ mock.Mock }

func (m *MockAutomationRepository) List(ctx context.Context) ([]*entity.AutomationSetting, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.AutomationSetting), args.Error(1)
}

func (m *MockAutomationRepository) FindByKey(ctx context.Context, key string) (*entity.AutomationSetting, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.AutomationSetting), args.Error(1)
}

func (m *MockAutomationRepository) Upsert(ctx context.Context, s *entity.AutomationSetting) error {
	return m.Called(ctx, s).Error(0)
}

type MockUserRepository struct{ mock.Mock }

func (m *MockUserRepository) Create(ctx context.Context, u *entity.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, u *entity.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context) ([]*entity.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.User), args.Error(1)
}

func (m *MockUserRepository) TouchLogin(ctx context.Context, id string, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

type MockHasher struct{ mock.Mock }

func (m *MockHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *MockHasher) Compare(hash, password string) error {
	return m.Called(hash, password).Error(0)
}

type MockTokenIssuer struct{ mock.Mock }

func (m *MockTokenIssuer) Issue(u *entity.User) (string, time.Time, error) {
	args := m.Called(u)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

type MockMailbox struct{ mock.Mock }

func (m *MockMailbox) ListMessages(ctx context.Context, mailbox, folder string, page entity.Page) ([]entity.MailboxMessage, int, error) {
	args := m.Called(ctx, mailbox, folder, page)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]entity.MailboxMessage), args.Int(1), args.Error(2)
}

func (m *MockMailbox) GetMessage(ctx context.Context, mailbox, id string) (*entity.MailboxMessage, error) {
	args := m.Called(ctx, mailbox, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.MailboxMessage), args.Error(1)
}

func (m *MockMailbox) MoveMessage(ctx context.Context, mailbox, id, folder string) error {
	return m.Called(ctx, mailbox, id, folder).Error(0)
}

func (m *MockMailbox) DeleteMessage(ctx context.Context, mailbox, id string) error {
	return m.Called(ctx, mailbox, id).Error(0)
}

type MockContactRepository struct{ mock.Mock }

func (m *MockContactRepository) Create(ctx context.Context, msg *entity.ContactMessage) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *MockContactRepository) List(ctx context.Context, page entity.Page) ([]*entity.ContactMessage, int, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*entity.ContactMessage), args.Int(1), args.Error(2)
}

type MockExporter struct{ mock.Mock }

func (m *MockExporter) WriteServiceRequests(w io.Writer, items []*entity.ServiceRequest) error {
	return m.Called(w, items).Error(0)
}
