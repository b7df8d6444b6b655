package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/raccordement-leads/internal/entity"
)

// LeadUseCase conduz a sessão do formulário multi-etapas:
// draft-unsaved -> draft-saved(1) -> draft-saved(2) -> draft-saved(3) -> finalized.
type LeadUseCase struct {
	Leads    entity.LeadRepositoryInterface
	Requests entity.ServiceRequestRepositoryInterface
	Cache    DraftCache
	Checkout *Checkout
	Logger   *zap.Logger
}

func NewLeadUseCase(
	leads entity.LeadRepositoryInterface,
	requests entity.ServiceRequestRepositoryInterface,
	cache DraftCache,
	checkout *Checkout,
	logger *zap.Logger,
) *LeadUseCase {
	return &LeadUseCase{
		Leads:    leads,
		Requests: requests,
		Cache:    cache,
		Checkout: checkout,
		Logger:   logger,
	}
}

// CreateDraft issues the session token and persists the step 1 fields received so far.
func (uc *LeadUseCase) CreateDraft(ctx context.Context, data Fields) (*DraftOutput, error) {
	if errs := ValidateStepFields(entity.StepContact, data); len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	lead := entity.NewLead()
	if err := mergeInto(&lead.Contact, data); err != nil {
		return nil, validationFailed([]ValidationError{{Field: "(root)", Message: err.Error()}})
	}
	normalizeContact(&lead.Contact)

	if err := uc.Leads.Create(ctx, lead); err != nil {
		return nil, dbError("failed to create lead draft", err)
	}
	uc.cacheDraft(ctx, lead)

	uc.Logger.Info("📝 lead draft created", zap.String("lead_id", lead.ID))
	return newDraftOutput(lead), nil
}

func (uc *LeadUseCase) GetDraft(ctx context.Context, token string) (*DraftOutput, error) {
	lead, err := uc.load(ctx, token)
	if err != nil {
		return nil, err
	}
	return newDraftOutput(lead), nil
}

// UpdateDraft merges one step's fields into the draft (autosave).
func (uc *LeadUseCase) UpdateDraft(ctx context.Context, token string, input UpdateDraftInput) (*DraftOutput, error) {
	if errs := ValidateStepFields(input.Step, input.Data); len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	lead, err := uc.load(ctx, token)
	if err != nil {
		return nil, err
	}
	if lead.IsFinalized() {
		return nil, errFinalized()
	}
	if input.Step > lead.CurrentStep()+1 {
		return nil, errStepOrder(lead.CurrentStep() + 1)
	}

	if err := uc.mergeStep(lead, input.Step, input.Data); err != nil {
		return nil, validationFailed([]ValidationError{{Field: "(root)", Message: err.Error()}})
	}
	lead.UpdatedAt = time.Now()

	if err := uc.Leads.Update(ctx, lead); err != nil {
		return nil, dbError("failed to save lead draft", err)
	}
	uc.cacheDraft(ctx, lead)
	return newDraftOutput(lead), nil
}

// CompleteStep records a step once its required fields are valid and every earlier step is done.
func (uc *LeadUseCase) CompleteStep(ctx context.Context, token string, input CompleteStepInput) (*DraftOutput, error) {
	if input.Step < entity.StepContact || input.Step > entity.LastDataStep {
		return nil, validationFailed([]ValidationError{{Field: "step", Message: fmt.Sprintf("must be between %d and %d", entity.StepContact, entity.LastDataStep)}})
	}

	lead, err := uc.load(ctx, token)
	if err != nil {
		return nil, err
	}
	if lead.IsFinalized() {
		return nil, errFinalized()
	}
	for s := entity.StepContact; s < input.Step; s++ {
		if !lead.HasCompleted(s) {
			return nil, errStepOrder(s)
		}
	}

	if errs := RequiredStepErrors(input.Step, lead); len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	lead.MarkStepCompleted(input.Step)
	lead.UpdatedAt = time.Now()
	if err := uc.Leads.Update(ctx, lead); err != nil {
		return nil, dbError("failed to save lead draft", err)
	}
	uc.cacheDraft(ctx, lead)
	return newDraftOutput(lead), nil
}

// Finalize troca o rascunho por uma demanda com número de referência e link de pagamento.
// Chamar de novo devolve a mesma referência.
func (uc *LeadUseCase) Finalize(ctx context.Context, token string, input Fields) (*FinalizeOutput, error) {
	if errs := validateFinalizeFields(input); len(errs) > 0 {
		return nil, validationFailed(errs)
	}
	var req FinalizeInput
	if err := mergeInto(&req, input); err != nil {
		return nil, validationFailed([]ValidationError{{Field: "(root)", Message: err.Error()}})
	}

	lead, err := uc.load(ctx, token)
	if err != nil {
		return nil, err
	}

	if lead.IsFinalized() {
		return uc.existingOutcome(ctx, lead)
	}

	if !req.ConsentAccepted {
		return nil, validationFailed([]ValidationError{{Field: "consent_accepted", Message: "must be accepted"}})
	}
	if !lead.ReadyToFinalize() {
		return nil, &DomainError{Code: CodeStepIncomplete, Message: fmt.Sprintf("step %d is not completed", lead.FirstIncompleteStep())}
	}

	// Os dados podem ter mudado por autosave depois do complete-step.
	var errs []ValidationError
	for s := entity.StepContact; s <= entity.LastDataStep; s++ {
		errs = append(errs, RequiredStepErrors(s, lead)...)
	}
	if len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	sr := entity.NewServiceRequest(lead.Contact, lead.Address, lead.Technical, entity.SourceForm)
	sr.LeadID = lead.ID
	sr.Comments = strings.TrimSpace(req.Comments)

	previous := *lead
	now := time.Now()
	lead.Status = entity.LeadStatusFinalized
	lead.ConsentAccepted = true
	lead.Comments = sr.Comments
	lead.ServiceRequestID = sr.ID
	lead.ReferenceNumber = sr.ReferenceNumber
	lead.FinalizedAt = &now
	lead.UpdatedAt = now

	txn := NewTransaction(uc.Logger)
	txn.AddOperation("create_service_request", func(ctx context.Context) error {
		return uc.Requests.Create(ctx, sr)
	})
	txn.AddCompensation(func(ctx context.Context) error {
		return uc.Requests.Delete(ctx, sr.ID)
	})
	txn.AddOperation("finalize_lead", func(ctx context.Context) error {
		return uc.Leads.Update(ctx, lead)
	})

	if err := txn.Execute(ctx); err != nil {
		*lead = previous
		return nil, dbError("failed to finalize lead", err)
	}

	uc.dropDraft(ctx, token)
	uc.Logger.Info("✅ lead finalized",
		zap.String("lead_id", lead.ID),
		zap.String("reference", sr.ReferenceNumber),
		zap.Int64("price_ttc_cents", sr.Pricing.PriceTTCCents),
	)

	if uc.Checkout != nil {
		uc.Checkout.Handoff(ctx, sr)
	}
	return newFinalizeOutput(sr), nil
}

func (uc *LeadUseCase) existingOutcome(ctx context.Context, lead *entity.Lead) (*FinalizeOutput, error) {
	sr, err := uc.Requests.FindByID(ctx, lead.ServiceRequestID)
	if err != nil {
		if errors.Is(err, entity.ErrServiceRequestNotFound) {
			// A demanda foi apagada no back-office; o rascunho continua fechado.
			return nil, errFinalized()
		}
		return nil, dbError("failed to load service request", err)
	}
	if sr.PaymentURL == "" && sr.PaymentStatus == entity.PaymentUnpaid && uc.Checkout != nil {
		uc.Checkout.attachPayment(ctx, sr)
	}
	return newFinalizeOutput(sr), nil
}

func (uc *LeadUseCase) mergeStep(lead *entity.Lead, step int, data Fields) error {
	switch step {
	case entity.StepContact:
		if err := mergeInto(&lead.Contact, data); err != nil {
			return err
		}
		normalizeContact(&lead.Contact)
		return nil
	case entity.StepAddress:
		if err := mergeInto(&lead.Address, data); err != nil {
			return err
		}
		lead.Address.PostalCode = strings.TrimSpace(lead.Address.PostalCode)
		return nil
	case entity.StepTechnical:
		return mergeInto(&lead.Technical, data)
	}
	return fmt.Errorf("unknown step %d", step)
}

func (uc *LeadUseCase) load(ctx context.Context, token string) (*entity.Lead, error) {
	if token == "" {
		return nil, errLeadNotFound()
	}
	if uc.Cache != nil {
		lead, err := uc.Cache.Get(ctx, token)
		if err != nil {
			uc.Logger.Warn("⚠️ draft cache read failed", zap.Error(err))
		} else if lead != nil {
			return lead, nil
		}
	}

	lead, err := uc.Leads.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, entity.ErrLeadNotFound) {
			return nil, errLeadNotFound()
		}
		return nil, dbError("failed to load lead", err)
	}
	if !lead.IsFinalized() {
		uc.cacheDraft(ctx, lead)
	}
	return lead, nil
}

func (uc *LeadUseCase) cacheDraft(ctx context.Context, lead *entity.Lead) {
	if uc.Cache == nil {
		return
	}
	if err := uc.Cache.Set(ctx, lead); err != nil {
		uc.Logger.Warn("⚠️ draft cache write failed", zap.String("lead_id", lead.ID), zap.Error(err))
	}
}

func (uc *LeadUseCase) dropDraft(ctx context.Context, token string) {
	if uc.Cache == nil {
		return
	}
	if err := uc.Cache.Delete(ctx, token); err != nil {
		uc.Logger.Warn("⚠️ draft cache delete failed", zap.Error(err))
	}
}

func normalizeContact(c *entity.Contact) {
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	c.FirstName = strings.TrimSpace(c.FirstName)
	c.LastName = strings.TrimSpace(c.LastName)
	c.Phone = strings.TrimSpace(c.Phone)
}

func errLeadNotFound() *DomainError {
	return &DomainError{Code: CodeLeadNotFound, Message: "lead draft not found"}
}

func errFinalized() *DomainError {
	return &DomainError{Code: CodeLeadFinalized, Message: "lead draft is already finalized"}
}

func errStepOrder(missing int) *DomainError {
	return &DomainError{Code: CodeStepOrder, Message: fmt.Sprintf("step %d must be completed first", missing)}
}
