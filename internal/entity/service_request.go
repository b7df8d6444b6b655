package entity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"

	PaymentUnpaid = "unpaid"
	PaymentPaid   = "paid"

	SourceForm   = "form"
	SourceDirect = "direct"
)

var ServiceRequestStatuses = []string{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled}

func IsValidStatus(status string) bool {
	for _, s := range ServiceRequestStatuses {
		if s == status {
			return true
		}
	}
	return false
}

type ServiceRequest struct {
	ID              string      `json:"id"`
	ReferenceNumber string      `json:"reference_number"`
	LeadID          string      `json:"lead_id,omitempty"`
	Contact         Contact     `json:"contact"`
	Address         SiteAddress `json:"address"`
	Technical       Technical   `json:"technical"`
	Pricing         Pricing     `json:"pricing"`

	Status           string `json:"status"`
	PaymentStatus    string `json:"payment_status"`
	PaymentSessionID string `json:"payment_session_id,omitempty"`
	PaymentURL       string `json:"payment_url,omitempty"`
	AssignedTo       string `json:"assigned_to,omitempty"`
	Notes            string `json:"notes,omitempty"`
	Comments         string `json:"comments,omitempty"`
	Source           string `json:"source"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
}

// NewServiceRequest prices the request and assigns its permanent reference number.
func NewServiceRequest(contact Contact, address SiteAddress, technical Technical, source string) *ServiceRequest {
	now := time.Now()
	return &ServiceRequest{
		ID:              uuid.New().String(),
		ReferenceNumber: NewReferenceNumber(now),
		Contact:         contact,
		Address:         address,
		Technical:       technical,
		Pricing:         ComputePricing(technical),
		Status:          StatusPending,
		PaymentStatus:   PaymentUnpaid,
		Source:          source,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// NewReferenceNumber formats RAC-YYYYMMDD-XXXXXX.
func NewReferenceNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:6]
	return fmt.Sprintf("RAC-%s-%s", now.Format("20060102"), suffix)
}

// TemplateVars exposes the request as {{variable}} values for email templates.
func (s *ServiceRequest) TemplateVars() map[string]string {
	return map[string]string{
		"first_name":       s.Contact.FirstName,
		"last_name":        s.Contact.LastName,
		"full_name":        s.Contact.FullName(),
		"email":            s.Contact.Email,
		"phone":            s.Contact.Phone,
		"company_name":     s.Contact.CompanyName,
		"reference_number": s.ReferenceNumber,
		"address":          s.Address.Address,
		"postal_code":      s.Address.PostalCode,
		"city":             s.Address.City,
		"request_type":     RequestTypeLabel(s.Technical.RequestType),
		"power_kva":        fmt.Sprintf("%g", s.Technical.PowerKVA),
		"price_ht":         FormatEuros(s.Pricing.PriceHTCents),
		"price_ttc":        FormatEuros(s.Pricing.PriceTTCCents),
		"payment_url":      s.PaymentURL,
		"status":           s.Status,
	}
}

type ServiceRequestFilter struct {
	Status     string
	Search     string
	AssignedTo string
	From       *time.Time
	To         *time.Time
}

type Page struct {
	Page      int    `json:"page"`
	Size      int    `json:"size"`
	Sort      string `json:"sort"`
	Direction int    `json:"direction"` // 1 asc, -1 desc
}

func (p Page) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.Size
}

type Stats struct {
	Total             int            `json:"total"`
	ByStatus          map[string]int `json:"by_status"`
	Paid              int            `json:"paid"`
	RevenueTTCCents   int64          `json:"revenue_ttc_cents"`
	LastThirtyDays    int            `json:"last_thirty_days"`
	OpenDrafts        int            `json:"open_drafts"`
	FinalizedDrafts   int            `json:"finalized_drafts"`
	ConversionPercent float64        `json:"conversion_percent"`
}

type ServiceRequestRepositoryInterface interface {
	Create(ctx context.Context, sr *ServiceRequest) error
	Update(ctx context.Context, sr *ServiceRequest) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*ServiceRequest, error)
	FindByReference(ctx context.Context, reference string) (*ServiceRequest, error)
	FindByIDs(ctx context.Context, ids []string) ([]*ServiceRequest, error)
	List(ctx context.Context, filter ServiceRequestFilter, page Page) ([]*ServiceRequest, int, error)
	UpdatePayment(ctx context.Context, id, sessionID, paymentURL string) error
	MarkPaid(ctx context.Context, reference string, at time.Time) error
	Stats(ctx context.Context, since time.Time) (*Stats, error)
}

// PaymentLink is where the visitor is redirected to pay a finalized request.
type PaymentLink struct {
	SessionID string `json:"session_id,omitempty"`
	URL       string `json:"url"`
}
