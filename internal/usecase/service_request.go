package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/raccordement-leads/internal/entity"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	exportLimit     = 5000
)

var sortableColumns = map[string]bool{
	"created_at":       true,
	"updated_at":       true,
	"reference_number": true,
	"status":           true,
	"price_ttc_cents":  true,
	"last_name":        true,
}

type ServiceRequestUseCase struct {
	Requests entity.ServiceRequestRepositoryInterface
	Leads    entity.LeadRepositoryInterface
	Users    entity.UserRepositoryInterface
	Checkout *Checkout
	Exporter ServiceRequestExporter
	Logger   *zap.Logger
}

func NewServiceRequestUseCase(
	requests entity.ServiceRequestRepositoryInterface,
	leads entity.LeadRepositoryInterface,
	users entity.UserRepositoryInterface,
	checkout *Checkout,
	exporter ServiceRequestExporter,
	logger *zap.Logger,
) *ServiceRequestUseCase {
	return &ServiceRequestUseCase{
		Requests: requests,
		Leads:    leads,
		Users:    users,
		Checkout: checkout,
		Exporter: exporter,
		Logger:   logger,
	}
}

// Submit cria a demanda completa numa chamada só, sem passar pelo rascunho.
func (uc *ServiceRequestUseCase) Submit(ctx context.Context, input SubmitServiceRequestInput) (*FinalizeOutput, error) {
	var errs []ValidationError
	errs = append(errs, prefixed("contact", ValidateStepFields(entity.StepContact, input.Contact))...)
	errs = append(errs, prefixed("address", ValidateStepFields(entity.StepAddress, input.Address))...)
	errs = append(errs, prefixed("technical", ValidateStepFields(entity.StepTechnical, input.Technical))...)
	if len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	draft := &entity.Lead{}
	if err := mergeInto(&draft.Contact, input.Contact); err != nil {
		return nil, validationFailed([]ValidationError{{Field: "contact", Message: err.Error()}})
	}
	if err := mergeInto(&draft.Address, input.Address); err != nil {
		return nil, validationFailed([]ValidationError{{Field: "address", Message: err.Error()}})
	}
	if err := mergeInto(&draft.Technical, input.Technical); err != nil {
		return nil, validationFailed([]ValidationError{{Field: "technical", Message: err.Error()}})
	}
	normalizeContact(&draft.Contact)

	errs = append(errs, prefixed("contact", RequiredStepErrors(entity.StepContact, draft))...)
	errs = append(errs, prefixed("address", RequiredStepErrors(entity.StepAddress, draft))...)
	errs = append(errs, prefixed("technical", RequiredStepErrors(entity.StepTechnical, draft))...)
	if !input.ConsentAccepted {
		errs = append(errs, ValidationError{Field: "consent_accepted", Message: "must be accepted"})
	}
	if len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	sr := entity.NewServiceRequest(draft.Contact, draft.Address, draft.Technical, entity.SourceDirect)
	sr.Comments = strings.TrimSpace(input.Comments)
	if err := uc.Requests.Create(ctx, sr); err != nil {
		return nil, dbError("failed to create service request", err)
	}

	uc.Logger.Info("✅ service request submitted", zap.String("reference", sr.ReferenceNumber))
	if uc.Checkout != nil {
		uc.Checkout.Handoff(ctx, sr)
	}
	return newFinalizeOutput(sr), nil
}

func (uc *ServiceRequestUseCase) List(ctx context.Context, filter entity.ServiceRequestFilter, page entity.Page) (*ServiceRequestList, error) {
	if filter.Status != "" && !entity.IsValidStatus(filter.Status) {
		return nil, validationFailed([]ValidationError{{Field: "status", Message: "is unknown"}})
	}
	page = NormalizePage(page)

	items, count, err := uc.Requests.List(ctx, filter, page)
	if err != nil {
		return nil, dbError("failed to list service requests", err)
	}
	if items == nil {
		items = []*entity.ServiceRequest{}
	}
	return &ServiceRequestList{Items: items, Pagination: newPagination(page, count)}, nil
}

func (uc *ServiceRequestUseCase) Get(ctx context.Context, id string) (*entity.ServiceRequest, error) {
	if !isUUID(id) {
		return nil, notFound("service request")
	}
	sr, err := uc.Requests.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, entity.ErrServiceRequestNotFound) {
			return nil, notFound("service request")
		}
		return nil, dbError("failed to load service request", err)
	}
	return sr, nil
}

// Update aplica a edição do back-office. Mudança técnica recalcula o preço.
func (uc *ServiceRequestUseCase) Update(ctx context.Context, id string, input UpdateServiceRequestInput) (*entity.ServiceRequest, error) {
	sr, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var errs []ValidationError
	if input.Status != nil && !entity.IsValidStatus(*input.Status) {
		errs = append(errs, ValidationError{Field: "status", Message: "must be one of " + strings.Join(entity.ServiceRequestStatuses, ", ")})
	}
	if input.PaymentStatus != nil && *input.PaymentStatus != entity.PaymentPaid && *input.PaymentStatus != entity.PaymentUnpaid {
		errs = append(errs, ValidationError{Field: "payment_status", Message: "must be paid or unpaid"})
	}
	if input.Contact != nil {
		errs = append(errs, prefixed("contact", ValidateStepFields(entity.StepContact, input.Contact))...)
	}
	if input.Address != nil {
		errs = append(errs, prefixed("address", ValidateStepFields(entity.StepAddress, input.Address))...)
	}
	if input.Technical != nil {
		errs = append(errs, prefixed("technical", ValidateStepFields(entity.StepTechnical, input.Technical))...)
	}
	var assignee string
	if input.AssignedTo != nil {
		assignee = strings.TrimSpace(*input.AssignedTo)
		assigneeErrs, err := uc.checkAssignee(ctx, assignee)
		if err != nil {
			return nil, err
		}
		errs = append(errs, assigneeErrs...)
	}
	if len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	draft := &entity.Lead{Contact: sr.Contact, Address: sr.Address, Technical: sr.Technical}
	if input.Contact != nil {
		if err := mergeInto(&draft.Contact, input.Contact); err != nil {
			return nil, validationFailed([]ValidationError{{Field: "contact", Message: err.Error()}})
		}
		normalizeContact(&draft.Contact)
		errs = append(errs, prefixed("contact", RequiredStepErrors(entity.StepContact, draft))...)
	}
	if input.Address != nil {
		if err := mergeInto(&draft.Address, input.Address); err != nil {
			return nil, validationFailed([]ValidationError{{Field: "address", Message: err.Error()}})
		}
		errs = append(errs, prefixed("address", RequiredStepErrors(entity.StepAddress, draft))...)
	}
	if input.Technical != nil {
		if err := mergeInto(&draft.Technical, input.Technical); err != nil {
			return nil, validationFailed([]ValidationError{{Field: "technical", Message: err.Error()}})
		}
		errs = append(errs, prefixed("technical", RequiredStepErrors(entity.StepTechnical, draft))...)
	}
	if len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	sr.Contact, sr.Address = draft.Contact, draft.Address
	if input.Technical != nil {
		sr.Technical = draft.Technical
		sr.Pricing = entity.ComputePricing(sr.Technical)
	}
	if input.Status != nil {
		sr.Status = *input.Status
	}
	if input.PaymentStatus != nil && *input.PaymentStatus != sr.PaymentStatus {
		sr.PaymentStatus = *input.PaymentStatus
		if sr.PaymentStatus == entity.PaymentPaid {
			now := time.Now()
			sr.PaidAt = &now
		} else {
			sr.PaidAt = nil
		}
	}
	if input.Notes != nil {
		sr.Notes = *input.Notes
	}
	if input.AssignedTo != nil {
		sr.AssignedTo = assignee
	}
	sr.UpdatedAt = time.Now()

	if err := uc.Requests.Update(ctx, sr); err != nil {
		switch {
		case errors.Is(err, entity.ErrServiceRequestNotFound):
			return nil, notFound("service request")
		case errors.Is(err, entity.ErrUnknownReference):
			// usuário apagado entre a checagem e o UPDATE
			return nil, validationFailed([]ValidationError{{Field: "assigned_to", Message: "unknown user"}})
		}
		return nil, dbError("failed to update service request", err)
	}
	return sr, nil
}

// checkAssignee: vazio desatribui; senão tem que ser um usuário existente.
func (uc *ServiceRequestUseCase) checkAssignee(ctx context.Context, id string) ([]ValidationError, error) {
	if id == "" {
		return nil, nil
	}
	if !isUUID(id) {
		return []ValidationError{{Field: "assigned_to", Message: "must be a user id"}}, nil
	}
	if uc.Users == nil {
		return nil, nil
	}
	if _, err := uc.Users.FindByID(ctx, id); err != nil {
		if errors.Is(err, entity.ErrUserNotFound) {
			return []ValidationError{{Field: "assigned_to", Message: "unknown user"}}, nil
		}
		return nil, dbError("failed to load assignee", err)
	}
	return nil, nil
}

func (uc *ServiceRequestUseCase) Delete(ctx context.Context, id string) error {
	if !isUUID(id) {
		return notFound("service request")
	}
	if err := uc.Requests.Delete(ctx, id); err != nil {
		if errors.Is(err, entity.ErrServiceRequestNotFound) {
			return notFound("service request")
		}
		return dbError("failed to delete service request", err)
	}
	return nil
}

// Track é a consulta pública pelo número de referência.
func (uc *ServiceRequestUseCase) Track(ctx context.Context, reference string) (*TrackOutput, error) {
	sr, err := uc.Requests.FindByReference(ctx, strings.ToUpper(strings.TrimSpace(reference)))
	if err != nil {
		if errors.Is(err, entity.ErrServiceRequestNotFound) {
			return nil, notFound("service request")
		}
		return nil, dbError("failed to load service request", err)
	}
	out := &TrackOutput{
		ReferenceNumber: sr.ReferenceNumber,
		Status:          sr.Status,
		PaymentStatus:   sr.PaymentStatus,
		RequestType:     entity.RequestTypeLabel(sr.Technical.RequestType),
		Pricing:         sr.Pricing,
		CreatedAt:       sr.CreatedAt,
	}
	if sr.PaymentStatus == entity.PaymentUnpaid && sr.Status != entity.StatusCancelled {
		out.PaymentURL = sr.PaymentURL
	}
	return out, nil
}

// Export writes the filtered requests as a spreadsheet.
func (uc *ServiceRequestUseCase) Export(ctx context.Context, filter entity.ServiceRequestFilter, w io.Writer) error {
	page := entity.Page{Page: 1, Size: exportLimit, Sort: "created_at", Direction: -1}
	items, _, err := uc.Requests.List(ctx, filter, page)
	if err != nil {
		return dbError("failed to list service requests", err)
	}
	if err := uc.Exporter.WriteServiceRequests(w, items); err != nil {
		return &TechnicalError{Code: CodeExport, Message: "failed to build export", Err: err}
	}
	return nil
}

func (uc *ServiceRequestUseCase) Stats(ctx context.Context) (*entity.Stats, error) {
	stats, err := uc.Requests.Stats(ctx, time.Now().AddDate(0, 0, -30))
	if err != nil {
		return nil, dbError("failed to compute stats", err)
	}
	if uc.Leads != nil {
		counts, err := uc.Leads.CountByStatus(ctx)
		if err != nil {
			return nil, dbError("failed to count drafts", err)
		}
		stats.OpenDrafts = counts[entity.LeadStatusDraft]
		stats.FinalizedDrafts = counts[entity.LeadStatusFinalized]
		if total := stats.OpenDrafts + stats.FinalizedDrafts; total > 0 {
			stats.ConversionPercent = float64(stats.FinalizedDrafts*10000/total) / 100
		}
	}
	return stats, nil
}

// MarkPaid é chamado pelo webhook do provedor de pagamento.
func (uc *ServiceRequestUseCase) MarkPaid(ctx context.Context, reference string) error {
	if err := uc.Requests.MarkPaid(ctx, reference, time.Now()); err != nil {
		if errors.Is(err, entity.ErrServiceRequestNotFound) {
			return notFound("service request")
		}
		return dbError("failed to mark request as paid", err)
	}
	uc.Logger.Info("💰 service request paid", zap.String("reference", reference))
	return nil
}

// NormalizePage aplica defaults e limites de paginação.
func NormalizePage(p entity.Page) entity.Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Size <= 0 {
		p.Size = defaultPageSize
	}
	if p.Size > maxPageSize {
		p.Size = maxPageSize
	}
	if !sortableColumns[p.Sort] {
		p.Sort = "created_at"
	}
	if p.Direction != 1 {
		p.Direction = -1
	}
	return p
}

func prefixed(prefix string, errs []ValidationError) []ValidationError {
	for i := range errs {
		errs[i].Field = prefix + "." + errs[i].Field
	}
	return errs
}
