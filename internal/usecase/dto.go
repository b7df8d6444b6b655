package usecase

import (
	"time"

	"github.com/xavierca1/raccordement-leads/internal/entity"
)

// Fields é o corpo livre de cada etapa, validado pelo schema da etapa.
type Fields map[string]interface{}

type UpdateDraftInput struct {
	Step int    `json:"step"`
	Data Fields `json:"data"`
}

type CompleteStepInput struct {
	Step int `json:"step"`
}

type FinalizeInput struct {
	ConsentAccepted bool   `json:"consent_accepted"`
	Comments        string `json:"comments,omitempty"`
}

type DraftOutput struct {
	Token          string       `json:"token"`
	Status         string       `json:"status"`
	CurrentStep    int          `json:"current_step"`
	CompletedSteps []int        `json:"completed_steps"`
	Lead           *entity.Lead `json:"lead"`
}

func newDraftOutput(l *entity.Lead) *DraftOutput {
	return &DraftOutput{
		Token:          l.Token,
		Status:         l.Status,
		CurrentStep:    l.CurrentStep(),
		CompletedSteps: l.CompletedSteps,
		Lead:           l,
	}
}

type FinalizeOutput struct {
	ServiceRequestID string         `json:"service_request_id"`
	ReferenceNumber  string         `json:"reference_number"`
	Status           string         `json:"status"`
	PaymentStatus    string         `json:"payment_status"`
	PaymentURL       string         `json:"payment_url,omitempty"`
	Pricing          entity.Pricing `json:"pricing"`
}

func newFinalizeOutput(sr *entity.ServiceRequest) *FinalizeOutput {
	return &FinalizeOutput{
		ServiceRequestID: sr.ID,
		ReferenceNumber:  sr.ReferenceNumber,
		Status:           sr.Status,
		PaymentStatus:    sr.PaymentStatus,
		PaymentURL:       sr.PaymentURL,
		Pricing:          sr.Pricing,
	}
}

// SubmitServiceRequestInput é o envio em uma única chamada (POST /api/service-requests).
type SubmitServiceRequestInput struct {
	Contact         Fields `json:"contact"`
	Address         Fields `json:"address"`
	Technical       Fields `json:"technical"`
	ConsentAccepted bool   `json:"consent_accepted"`
	Comments        string `json:"comments,omitempty"`
}

type UpdateServiceRequestInput struct {
	Status        *string `json:"status,omitempty"`
	PaymentStatus *string `json:"payment_status,omitempty"`
	Notes         *string `json:"notes,omitempty"`
	AssignedTo    *string `json:"assigned_to,omitempty"`
	Contact       Fields  `json:"contact,omitempty"`
	Address       Fields  `json:"address,omitempty"`
	Technical     Fields  `json:"technical,omitempty"`
}

type Pagination struct {
	Size      int    `json:"size"`
	Page      int    `json:"page"`
	Count     int    `json:"count"`
	Sort      string `json:"sort"`
	Direction int    `json:"direction"`
}

func newPagination(p entity.Page, count int) Pagination {
	return Pagination{Size: p.Size, Page: p.Page, Count: count, Sort: p.Sort, Direction: p.Direction}
}

type ServiceRequestList struct {
	Items      []*entity.ServiceRequest `json:"items"`
	Pagination Pagination               `json:"pagination"`
}

type TrackOutput struct {
	ReferenceNumber string         `json:"reference_number"`
	Status          string         `json:"status"`
	PaymentStatus   string         `json:"payment_status"`
	PaymentURL      string         `json:"payment_url,omitempty"`
	RequestType     string         `json:"request_type"`
	Pricing         entity.Pricing `json:"pricing"`
	CreatedAt       time.Time      `json:"created_at"`
}

type ContactInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
}

type ContactMessageList struct {
	Items      []*entity.ContactMessage `json:"items"`
	Pagination Pagination               `json:"pagination"`
}

type CreateUserInput struct {
	Email          string             `json:"email"`
	Name           string             `json:"name"`
	Role           string             `json:"role"`
	Password       string             `json:"password"`
	Permissions    []string           `json:"permissions,omitempty"`
	Active         *bool              `json:"active,omitempty"`
	SMTP           *SMTPSettingsInput `json:"smtp,omitempty"`
	CommissionRate float64            `json:"commission_rate,omitempty"`
}

type UpdateUserInput struct {
	Email          *string            `json:"email,omitempty"`
	Name           *string            `json:"name,omitempty"`
	Role           *string            `json:"role,omitempty"`
	Password       string             `json:"password,omitempty"`
	Permissions    []string           `json:"permissions,omitempty"`
	Active         *bool              `json:"active,omitempty"`
	SMTP           *SMTPSettingsInput `json:"smtp,omitempty"`
	CommissionRate *float64           `json:"commission_rate,omitempty"`
}

type SMTPSettingsInput struct {
	Host      string `json:"host"`
	Port      int    `json:"port"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	FromEmail string `json:"from_email"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginOutput struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *entity.User `json:"user"`
}

type TemplateInput struct {
	Name     string `json:"name"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	Category string `json:"category,omitempty"`
}

type PreviewOutput struct {
	Subject   string   `json:"subject"`
	Body      string   `json:"body"`
	Variables []string `json:"variables"`
	Missing   []string `json:"missing"`
}

// SendEmailInput cobre o envio direto (to/subject/body) e o envio em massa
// (template_id + service_request_ids).
type SendEmailInput struct {
	To                []string `json:"to,omitempty"`
	Subject           string   `json:"subject,omitempty"`
	Body              string   `json:"body,omitempty"`
	TemplateID        string   `json:"template_id,omitempty"`
	ServiceRequestIDs []string `json:"service_request_ids,omitempty"`
}

type SkippedRecipient struct {
	ServiceRequestID string `json:"service_request_id,omitempty"`
	To               string `json:"to,omitempty"`
	Reason           string `json:"reason"`
}

type SendEmailOutput struct {
	Queued  int                `json:"queued"`
	Skipped []SkippedRecipient `json:"skipped"`
}

type MailboxList struct {
	Folder     string                  `json:"folder"`
	Items      []entity.MailboxMessage `json:"items"`
	Pagination Pagination              `json:"pagination"`
}

type EmailLogList struct {
	Items      []*entity.EmailLog `json:"items"`
	Pagination Pagination         `json:"pagination"`
}
