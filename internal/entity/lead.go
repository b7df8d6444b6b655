package entity

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
)

const (
	LeadStatusDraft     = "draft"
	LeadStatusFinalized = "finalized"
)

// Steps do formulário público. O passo 4 (revisão + consentimento) é o Finalize.
const (
	StepContact   = 1
	StepAddress   = 2
	StepTechnical = 3
	LastDataStep  = StepTechnical
)

// Value Object: Contact
type Contact struct {
	ClientType  string `json:"client_type"` // particulier, professionnel
	Civility    string `json:"civility,omitempty"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	CompanyName string `json:"company_name,omitempty"`
	Siret       string `json:"siret,omitempty"`
}

func (c Contact) FullName() string {
	if c.FirstName == "" {
		return c.LastName
	}
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

// Value Object: SiteAddress (endereço do local a ser conectado)
type SiteAddress struct {
	Address           string `json:"address"`
	AddressComplement string `json:"address_complement,omitempty"`
	PostalCode        string `json:"postal_code"`
	City              string `json:"city"`
	ParcelReference   string `json:"parcel_reference,omitempty"`
}

// Value Object: Technical
type Technical struct {
	RequestType        string  `json:"request_type"`
	PowerKVA           float64 `json:"power_kva"`
	PhaseType          string  `json:"phase_type"` // monophase, triphase
	BuildingType       string  `json:"building_type"`
	ProjectDescription string  `json:"project_description,omitempty"`
	DesiredDate        string  `json:"desired_date,omitempty"`
}

// Lead é o rascunho progressivo do formulário multi-etapas.
type Lead struct {
	ID             string      `json:"id"`
	Token          string      `json:"token"`
	Contact        Contact     `json:"contact"`
	Address        SiteAddress `json:"address"`
	Technical      Technical   `json:"technical"`
	CompletedSteps []int       `json:"completed_steps"`
	Status         string      `json:"status"`

	ConsentAccepted  bool   `json:"consent_accepted"`
	Comments         string `json:"comments,omitempty"`
	ServiceRequestID string `json:"service_request_id,omitempty"`
	ReferenceNumber  string `json:"reference_number,omitempty"`

	RemindedAt  *time.Time `json:"reminded_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	FinalizedAt *time.Time `json:"finalized_at,omitempty"`
}

// NewLead issues a fresh session token for an unsaved draft.
func NewLead() *Lead {
	now := time.Now()
	return &Lead{
		ID:             uuid.New().String(),
		Token:          uuid.New().String(),
		CompletedSteps: []int{},
		Status:         LeadStatusDraft,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (l *Lead) IsFinalized() bool {
	return l.Status == LeadStatusFinalized
}

func (l *Lead) HasCompleted(step int) bool {
	for _, s := range l.CompletedSteps {
		if s == step {
			return true
		}
	}
	return false
}

// CurrentStep returns the highest completed step, 0 when nothing was completed yet.
func (l *Lead) CurrentStep() int {
	current := 0
	for _, s := range l.CompletedSteps {
		if s > current {
			current = s
		}
	}
	return current
}

func (l *Lead) MarkStepCompleted(step int) {
	if l.HasCompleted(step) {
		return
	}
	l.CompletedSteps = append(l.CompletedSteps, step)
	sort.Ints(l.CompletedSteps)
}

// FirstIncompleteStep returns the lowest data step not yet completed, or 0.
func (l *Lead) FirstIncompleteStep() int {
	for step := StepContact; step <= LastDataStep; step++ {
		if !l.HasCompleted(step) {
			return step
		}
	}
	return 0
}

func (l *Lead) ReadyToFinalize() bool {
	return l.FirstIncompleteStep() == 0
}

type LeadRepositoryInterface interface {
	Create(ctx context.Context, lead *Lead) error
	Update(ctx context.Context, lead *Lead) error
	FindByToken(ctx context.Context, token string) (*Lead, error)
	Delete(ctx context.Context, id string) error
	FindStaleDrafts(ctx context.Context, idleSince time.Time, limit int) ([]*Lead, error)
	MarkReminded(ctx context.Context, id string, at time.Time) error
	CountByStatus(ctx context.Context) (map[string]int, error)
}
